package draft

type StepType string

const (
	StepBan  StepType = "ban"
	StepPick StepType = "pick"
)

// PatternStep is one token of a stage's draft script. Slot is abstract:
// slot 1 is the first-ban side on ban steps and the first-pick side on
// pick steps; slot 2 is the opposite side.
type PatternStep struct {
	Step StepType `json:"step"`
	Slot int      `json:"slot"`
}

type Pattern []PatternStep

// DefaultPattern builds the standard alternating script: banCount bans per
// side, then bestOf-1 alternating picks. The tiebreaker is not part of the
// pattern.
func DefaultPattern(banCount, bestOf int) Pattern {
	var p Pattern
	for i := 0; i < banCount; i++ {
		p = append(p, PatternStep{Step: StepBan, Slot: 1}, PatternStep{Step: StepBan, Slot: 2})
	}
	for i := 0; i < bestOf-1; i++ {
		p = append(p, PatternStep{Step: StepPick, Slot: 1 + i%2})
	}
	return p
}

// PreferenceOrder maps the roll winner's preference to the first-pick and
// first-ban sides. The loser's recorded preference is the complementary
// choice on the other axis and carries no extra information.
//
//	winner chose    firstPick  firstBan
//	first_pick      winner     loser
//	second_pick     loser      winner
//	first_ban       loser      winner
//	second_ban      winner     loser
func PreferenceOrder(winner Side, p Preference) (firstPick, firstBan Side) {
	switch p {
	case PrefFirstPick, PrefSecondBan:
		return winner, winner.Other()
	default: // second_pick, first_ban
		return winner.Other(), winner
	}
}

// sideFor resolves a pattern step's abstract slot to a concrete side.
func (s PatternStep) sideFor(firstPick, firstBan Side) Side {
	first := firstPick
	if s.Step == StepBan {
		first = firstBan
	}
	if s.Slot == 1 {
		return first
	}
	return first.Other()
}
