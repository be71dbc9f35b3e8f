package checkers

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the number of rows and columns on the board.
const Size = 8

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// forward is the row delta of a non-capturing man move.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// promotionRow is the far rank for the color.
func (c Color) promotionRow() int {
	if c == White {
		return 0
	}
	return Size - 1
}

// ParseColor accepts "white"/"w"/"백" and "black"/"b"/"흑".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w", "백":
		return White, nil
	case "black", "b", "흑":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// Piece is a man or a king of one color.
type Piece struct {
	Color Color `json:"color"`
	King  bool  `json:"king,omitempty"`
}

// Square addresses a board cell. Row 0 is Black's home edge.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Square { return Square{Row: row, Col: col} }

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool { return inside(s.Row, s.Col) }

// Dark reports whether the square is a playing square.
func (s Square) Dark() bool { return (s.Row+s.Col)%2 == 1 }

// String renders the square as file letter + rank number, e.g. row 5 col 2 is "c3".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, Size-s.Row)
}

// ParseSquare accepts "c3" style names as well as "row,col" or "row col" pairs.
func ParseSquare(raw string) (Square, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Square{}, fmt.Errorf("empty square")
	}
	if sep := strings.IndexAny(s, ", "); sep > 0 {
		row, err := strconv.Atoi(strings.TrimSpace(s[:sep]))
		if err != nil {
			return Square{}, fmt.Errorf("parse row %q: %w", s, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(s[sep+1:]))
		if err != nil {
			return Square{}, fmt.Errorf("parse col %q: %w", s, err)
		}
		sq := Square{Row: row, Col: col}
		if !sq.Valid() {
			return Square{}, fmt.Errorf("%w: %s", ErrOutOfBounds, s)
		}
		return sq, nil
	}
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("%w: %s", ErrOutOfBounds, s)
	}
	return Square{Row: Size - int(s[1]-'0'), Col: int(s[0] - 'a')}, nil
}

// GameState is the outcome of the game so far.
type GameState uint8

const (
	Playing GameState = iota
	WhiteWin
	BlackWin
)

func (g GameState) String() string {
	switch g {
	case WhiteWin:
		return "white_win"
	case BlackWin:
		return "black_win"
	default:
		return "playing"
	}
}

// Banner is the text shown over a finished board.
func (g GameState) Banner() string {
	switch g {
	case WhiteWin:
		return "White win"
	case BlackWin:
		return "Black win"
	default:
		return ""
	}
}

// Winner returns the winning color when the game is over.
func (g GameState) Winner() (Color, bool) {
	switch g {
	case WhiteWin:
		return White, true
	case BlackWin:
		return Black, true
	default:
		return White, false
	}
}

func winFor(c Color) GameState {
	if c == White {
		return WhiteWin
	}
	return BlackWin
}

// Phase is the controller's selection state.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSelected
	PhaseChaining
)

func (p Phase) String() string {
	switch p {
	case PhaseSelected:
		return "selected"
	case PhaseChaining:
		return "chaining"
	default:
		return "idle"
	}
}

func inside(r, c int) bool { return r >= 0 && r < Size && c >= 0 && c < Size }
