package draft

import (
	"math/rand"
	"slices"
)

func (s State) consumed(id string) bool {
	if slices.ContainsFunc(s.Bans, func(b Ban) bool { return b.ItemID != nil && *b.ItemID == id }) {
		return true
	}
	return slices.ContainsFunc(s.Picks, func(p Pick) bool { return p.ItemID == id })
}

// CanPick reports whether id is a legal pick target: a known,
// non-tiebreaker item not yet banned or picked.
func CanPick(cat Catalog, s State, id string) bool {
	if !cat.Contains(id) || cat.IsTiebreaker(id) {
		return false
	}
	return !s.consumed(id)
}

// CanBan has the same legality rule; a nil (skip) ban never reaches here.
func CanBan(cat Catalog, s State, id string) bool {
	return CanPick(cat, s, id)
}

// AvailableItems returns, in catalog order, every non-tiebreaker item not
// yet banned or picked.
func AvailableItems(cat Catalog, s State) []string {
	var out []string
	for _, id := range cat.Items() {
		if !s.consumed(id) {
			out = append(out, id)
		}
	}
	return out
}

// RandomItem draws uniformly from the available items. Used for timeout
// auto-picks.
func RandomItem(cat Catalog, s State, rng *rand.Rand) (string, bool) {
	items := AvailableItems(cat, s)
	if len(items) == 0 {
		return "", false
	}
	return items[rng.Intn(len(items))], true
}

// DefaultPreference is the choice synthesized when a side's preference
// timer expires: the first_* option of whichever axis that side is
// choosing on. The roll winner (free choice) defaults to first_pick; the
// loser answers on the opposite axis of the winner's choice.
func DefaultPreference(s State) Preference {
	if s.WinnerPreference != nil && s.WinnerPreference.PickAxis() {
		return PrefFirstBan
	}
	return PrefFirstPick
}

// ValidateAction checks turn ownership and target legality for a proposed
// ledger entry against the current resolved state. The resolver itself
// trusts the ledger; all rejection happens here, before appending.
func ValidateAction(cat Catalog, s State, side Side, t ActionType, itemID *string, pref Preference) error {
	if !side.Valid() {
		return ErrInvalidTurn
	}
	switch s.Status {
	case StatusWaiting:
		return ErrMatchNotStarted
	case StatusCompleted:
		return ErrMatchCompleted
	}

	switch t {
	case ActionRoll:
		if s.Status != StatusRolling {
			return ErrInvalidTurn
		}
		if _, rolled := s.Rolls[side]; rolled {
			return ErrInvalidTurn
		}
		return nil

	case ActionPreference:
		if s.Status != StatusPreference || s.ActiveSide == nil || *s.ActiveSide != side {
			return ErrInvalidTurn
		}
		if !pref.Valid() {
			return ErrInvalidPreference
		}
		if s.WinnerPreference != nil && pref.PickAxis() == s.WinnerPreference.PickAxis() {
			return ErrInvalidPreference
		}
		return nil

	case ActionBan:
		if s.Status != StatusBanning || s.ActiveSide == nil || *s.ActiveSide != side {
			return ErrInvalidTurn
		}
		if itemID != nil && !CanBan(cat, s, *itemID) {
			return ErrItemUnavailable
		}
		return nil

	case ActionPick:
		if s.Status != StatusPicking || s.ActiveSide == nil || *s.ActiveSide != side {
			return ErrInvalidTurn
		}
		if itemID == nil || !CanPick(cat, s, *itemID) {
			return ErrItemUnavailable
		}
		return nil
	}
	return ErrUnsupportedAction
}
