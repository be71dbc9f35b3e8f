package domain

import "time"

// CheckersResult is a finished game as recorded in the result store.
type CheckersResult struct {
	GameID       string
	Room         string
	WhiteID      string
	WhiteName    string
	BlackID      string
	BlackName    string
	Result       string
	ResultMethod string
	Moves        []string
	PDN          string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// WinnerName returns the display name of the winning side, if any.
func (r *CheckersResult) WinnerName() string {
	switch r.Result {
	case "white":
		return r.WhiteName
	case "black":
		return r.BlackName
	default:
		return ""
	}
}
