package draft

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTurn = errors.New("invalid turn")
var ErrItemUnavailable = errors.New("item unavailable")
var ErrInvalidPreference = errors.New("invalid preference")
var ErrEmptyLedger = errors.New("empty ledger")
var ErrRollTie = errors.New("roll tie")
var ErrStageNotFound = errors.New("stage not found")
var ErrMatchNotFound = errors.New("match not found")
var ErrMatchNotStarted = errors.New("match not started")
var ErrMatchCompleted = errors.New("match already completed")
var ErrUnsupportedAction = errors.New("unsupported action")

type Side string

const (
	SideRed  Side = "red"
	SideBlue Side = "blue"
)

func (s Side) Other() Side {
	if s == SideRed {
		return SideBlue
	}
	return SideRed
}

func (s Side) Valid() bool { return s == SideRed || s == SideBlue }

type ActionType string

const (
	ActionRoll       ActionType = "roll"
	ActionPreference ActionType = "preference"
	ActionBan        ActionType = "ban"
	ActionPick       ActionType = "pick"
)

type Preference string

const (
	PrefFirstPick  Preference = "first_pick"
	PrefSecondPick Preference = "second_pick"
	PrefFirstBan   Preference = "first_ban"
	PrefSecondBan  Preference = "second_ban"
)

// PickAxis reports whether the preference chooses pick order rather than
// ban order.
func (p Preference) PickAxis() bool {
	return p == PrefFirstPick || p == PrefSecondPick
}

func (p Preference) Valid() bool {
	switch p {
	case PrefFirstPick, PrefSecondPick, PrefFirstBan, PrefSecondBan:
		return true
	}
	return false
}

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusRolling    Status = "rolling"
	StatusPreference Status = "preference_selection"
	StatusBanning    Status = "banning"
	StatusPicking    Status = "picking"
	StatusCompleted  Status = "completed"
)

// Entry is one immutable record of the match ledger. Seq numbers are
// gap-free per match, starting at 1. ItemID is nil for rolls and
// preferences and for a skipped ban. Value is set only for rolls.
type Entry struct {
	Seq        int        `json:"seq"`
	Side       Side       `json:"side"`
	Type       ActionType `json:"type"`
	ItemID     *string    `json:"item_id,omitempty"`
	Value      int        `json:"value,omitempty"`
	Preference Preference `json:"preference,omitempty"`
}

// StageConfig is fixed per competition phase and never mutated after
// creation.
type StageConfig struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	BestOf       int           `json:"best_of"`
	BanCount     int           `json:"ban_count"`
	TurnDuration time.Duration `json:"turn_duration"`
	Pattern      Pattern       `json:"pattern"`
}

func (c StageConfig) Validate() error {
	if c.BestOf < 3 || c.BestOf%2 == 0 {
		return fmt.Errorf("best_of must be an odd integer >= 3, got %d", c.BestOf)
	}
	if c.BanCount < 0 {
		return fmt.Errorf("ban_count must be >= 0, got %d", c.BanCount)
	}
	if c.TurnDuration <= 0 {
		return fmt.Errorf("turn_duration must be positive, got %s", c.TurnDuration)
	}
	if min := 2*c.BanCount + c.BestOf - 1; len(c.Pattern) < min {
		return fmt.Errorf("pattern has %d steps, need at least %d", len(c.Pattern), min)
	}
	return nil
}

// Pool is a named, ordered group of draftable item identifiers.
type Pool struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// Catalog is the read-only item catalog for a stage. Exactly one pool is
// the tiebreaker pool; its members are never banned or manually picked.
type Catalog struct {
	Pools      []Pool `json:"pools"`
	Tiebreaker string `json:"tiebreaker"`
}

// Items returns every draftable (non-tiebreaker) item id in pool order.
func (c Catalog) Items() []string {
	var out []string
	for _, p := range c.Pools {
		if p.Name == c.Tiebreaker {
			continue
		}
		out = append(out, p.Items...)
	}
	return out
}

func (c Catalog) IsTiebreaker(id string) bool {
	for _, p := range c.Pools {
		if p.Name != c.Tiebreaker {
			continue
		}
		for _, it := range p.Items {
			if it == id {
				return true
			}
		}
	}
	return false
}

func (c Catalog) Contains(id string) bool {
	for _, p := range c.Pools {
		for _, it := range p.Items {
			if it == id {
				return true
			}
		}
	}
	return false
}

// Ban records a consumed ban slot; ItemID nil means the side skipped.
type Ban struct {
	Side   Side    `json:"side"`
	ItemID *string `json:"item_id"`
}

type Pick struct {
	Side   Side   `json:"side"`
	ItemID string `json:"item_id"`
}

// State is the canonical derived state of a match. Every field is a pure
// function of (StageConfig, Catalog, ledger) and is recomputed by Resolve
// after every ledger mutation; it is never patched directly.
type State struct {
	Status           Status       `json:"status"`
	ActiveSide       *Side        `json:"active_side"`
	Rolls            map[Side]int `json:"rolls"`
	RollWinner       *Side        `json:"roll_winner"`
	WinnerPreference *Preference  `json:"winner_preference"`
	LoserPreference  *Preference  `json:"loser_preference"`
	FirstPickSide    *Side        `json:"first_pick_side"`
	FirstBanSide     *Side        `json:"first_ban_side"`
	Bans             []Ban        `json:"bans"`
	Picks            []Pick       `json:"picks"`
	PatternIndex     int          `json:"pattern_index"`
	Deadline         *time.Time   `json:"deadline"`
}
