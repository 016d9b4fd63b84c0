package draft

import "time"

// Resolve recomputes the canonical match state from the full ledger. It is
// a pure function: identical inputs always produce identical output. It
// never mutates the ledger; on a roll tie it returns ErrRollTie and the
// caller must delete both roll entries and resolve again.
func Resolve(cfg StageConfig, cat Catalog, ledger []Entry, started bool, now time.Time) (State, error) {
	s := State{
		Status: StatusWaiting,
		Rolls:  map[Side]int{},
	}
	if !started {
		return s, nil
	}
	s.Status = StatusRolling

	var prefs []Entry
	banPick := 0
	for _, e := range ledger {
		switch e.Type {
		case ActionRoll:
			s.Rolls[e.Side] = e.Value
		case ActionPreference:
			prefs = append(prefs, e)
		case ActionBan:
			s.Bans = append(s.Bans, Ban{Side: e.Side, ItemID: e.ItemID})
			banPick++
		case ActionPick:
			if e.ItemID != nil {
				s.Picks = append(s.Picks, Pick{Side: e.Side, ItemID: *e.ItemID})
			}
			banPick++
		}
	}
	s.PatternIndex = banPick

	// Roll cycle: both sides must roll, ties force a re-roll.
	if len(s.Rolls) < 2 {
		return s, nil
	}
	if s.Rolls[SideRed] == s.Rolls[SideBlue] {
		return State{Status: StatusRolling, Rolls: map[Side]int{}}, ErrRollTie
	}
	winner := SideRed
	if s.Rolls[SideBlue] > s.Rolls[SideRed] {
		winner = SideBlue
	}
	s.RollWinner = &winner

	// Preference selection: the winner chooses first, then the loser. With
	// fewer than two preference entries the match stays in
	// preference_selection and the active side is whichever side's
	// preference is missing; this holds equally after an admin undo.
	for i := range prefs {
		p := prefs[i].Preference
		if prefs[i].Side == winner {
			s.WinnerPreference = &p
		} else {
			s.LoserPreference = &p
		}
	}
	if len(prefs) < 2 {
		s.Status = StatusPreference
		active := winner
		if s.WinnerPreference != nil {
			active = winner.Other()
		}
		s.ActiveSide = &active
		return withDeadline(s, cfg, now), nil
	}

	firstPick, firstBan := PreferenceOrder(winner, *s.WinnerPreference)
	s.FirstPickSide = &firstPick
	s.FirstBanSide = &firstBan

	// Pattern walk: the count of consumed ban/pick entries indexes the
	// stage script. Skipped bans still consume a slot.
	if banPick >= len(cfg.Pattern) {
		s.Status = StatusCompleted
		return s, nil
	}
	step := cfg.Pattern[banPick]
	active := step.sideFor(firstPick, firstBan)
	s.ActiveSide = &active
	if step.Step == StepBan {
		s.Status = StatusBanning
	} else {
		s.Status = StatusPicking
	}
	return withDeadline(s, cfg, now), nil
}

func withDeadline(s State, cfg StageConfig, now time.Time) State {
	if s.ActiveSide != nil {
		d := now.Add(cfg.TurnDuration)
		s.Deadline = &d
	}
	return s
}
