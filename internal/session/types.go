package session

import (
	"strings"
	"time"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

// Status represents a game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
)

// Game is the persisted state of a match in one room.
type Game struct {
	ID        string            `json:"id"`
	Room      string            `json:"room"`
	WhiteID   string            `json:"white_id"`
	WhiteName string            `json:"white_name"`
	BlackID   string            `json:"black_id"`
	BlackName string            `json:"black_name"`
	Snapshot  checkers.Snapshot `json:"snapshot"`
	Moves     []string          `json:"moves"`
	Status    Status            `json:"status"`
	Winner    string            `json:"winner,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Active reports whether the game still accepts clicks.
func (g *Game) Active() bool { return g != nil && g.Status == StatusActive }

// ColorOf returns the side played by userID.
func (g *Game) ColorOf(userID string) (checkers.Color, bool) {
	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		return 0, false
	case g.WhiteID == userID:
		return checkers.White, true
	case g.BlackID == userID:
		return checkers.Black, true
	default:
		return 0, false
	}
}

// NameOf returns the display name of a side.
func (g *Game) NameOf(c checkers.Color) string {
	if c == checkers.Black {
		return g.BlackName
	}
	return g.WhiteName
}

// IDOf returns the user id playing a side.
func (g *Game) IDOf(c checkers.Color) string {
	if c == checkers.Black {
		return g.BlackID
	}
	return g.WhiteID
}

// WinnerName resolves Winner to a display name.
func (g *Game) WinnerName() string {
	switch {
	case g.Winner == "":
		return ""
	case g.Winner == g.WhiteID:
		return g.WhiteName
	case g.Winner == g.BlackID:
		return g.BlackName
	default:
		return ""
	}
}

func opponentID(g *Game, userID string) string {
	if g.WhiteID == userID {
		return g.BlackID
	}
	if g.BlackID == userID {
		return g.WhiteID
	}
	return ""
}
