package types

import "github.com/DoyleJ11/map-draft-backend/internal/draft"

type ClientMessage struct {
	Type       string  `json:"type"` // "SubmitAction"
	Side       string  `json:"side,omitempty"`
	Action     string  `json:"action,omitempty"` // roll | preference | ban | pick
	ItemID     *string `json:"item_id,omitempty"`
	Preference string  `json:"preference,omitempty"`
}

type ServerMessage struct {
	Type    string       `json:"type"` // "StateSnapshot" | "Error"
	Version int          `json:"version,omitempty"`
	State   *draft.State `json:"state,omitempty"`
	Entry   *draft.Entry `json:"entry,omitempty"`
	Error   string       `json:"error,omitempty"`
}
