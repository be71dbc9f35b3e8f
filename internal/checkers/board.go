package checkers

import (
	"fmt"
	"strings"
)

// Board is an 8x8 grid of optional pieces. It owns every piece placed on it.
type Board struct {
	cells [Size][Size]*Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board { return &Board{} }

// NewInitialBoard returns a board in the starting layout.
func NewInitialBoard() *Board {
	b := &Board{}
	b.Initialize()
	return b
}

// Initialize clears the board and places 12 Black men on rows 0-2 and
// 12 White men on rows 5-7, on squares where row+col is odd.
func (b *Board) Initialize() {
	b.Clear()
	for r := 0; r < 3; r++ {
		for c := 0; c < Size; c++ {
			if Sq(r, c).Dark() {
				b.cells[r][c] = &Piece{Color: Black}
			}
		}
	}
	for r := Size - 3; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if Sq(r, c).Dark() {
				b.cells[r][c] = &Piece{Color: White}
			}
		}
	}
}

// Clear removes every piece.
func (b *Board) Clear() {
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c] = nil
		}
	}
}

// At returns the piece on the square or nil. Panics when the square is off the board.
func (b *Board) At(sq Square) *Piece {
	mustInside(sq, "At")
	return b.cells[sq.Row][sq.Col]
}

// Place puts a copy of p on the square, replacing any previous occupant.
func (b *Board) Place(sq Square, p Piece) {
	mustInside(sq, "Place")
	b.cells[sq.Row][sq.Col] = &Piece{Color: p.Color, King: p.King}
}

// Remove empties the square and returns what was there.
func (b *Board) Remove(sq Square) *Piece {
	mustInside(sq, "Remove")
	p := b.cells[sq.Row][sq.Col]
	b.cells[sq.Row][sq.Col] = nil
	return p
}

// Move relocates the piece on from to the empty square to.
func (b *Board) Move(from, to Square) *Piece {
	mustInside(from, "Move")
	mustInside(to, "Move")
	p := b.cells[from.Row][from.Col]
	if p == nil {
		panic(fmt.Sprintf("checkers: Move from empty square %s", from))
	}
	if b.cells[to.Row][to.Col] != nil {
		panic(fmt.Sprintf("checkers: Move onto occupied square %s", to))
	}
	b.cells[to.Row][to.Col] = p
	b.cells[from.Row][from.Col] = nil
	return p
}

// Count returns the number of pieces of the color.
func (b *Board) Count(color Color) int {
	n := 0
	for r := range b.cells {
		for _, p := range b.cells[r] {
			if p != nil && p.Color == color {
				n++
			}
		}
	}
	return n
}

// Squares lists the occupied squares of the color in row-major order.
func (b *Board) Squares(color Color) []Square {
	var out []Square
	for r := range b.cells {
		for c, p := range b.cells[r] {
			if p != nil && p.Color == color {
				out = append(out, Square{Row: r, Col: c})
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	out := &Board{}
	for r := range b.cells {
		for c, p := range b.cells[r] {
			if p != nil {
				cp := *p
				out.cells[r][c] = &cp
			}
		}
	}
	return out
}

// Equal reports whether both boards hold the same pieces on the same squares.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	for r := range b.cells {
		for c := range b.cells[r] {
			p, q := b.cells[r][c], o.cells[r][c]
			if (p == nil) != (q == nil) {
				return false
			}
			if p != nil && *p != *q {
				return false
			}
		}
	}
	return true
}

// String draws the board as text, rank 8 on top.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		sb.WriteString(fmt.Sprintf("%d ", Size-r))
		for c := 0; c < Size; c++ {
			ch := layoutChar(b.cells[r][c])
			if ch == '.' && !Sq(r, c).Dark() {
				ch = ' '
			}
			sb.WriteByte(ch)
			if c < Size-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}

// EncodeLayout writes the board as 8 rows of '.', 'w', 'W', 'b', 'B' joined by '/'.
func EncodeLayout(b *Board) string {
	var sb strings.Builder
	sb.Grow(Size*Size + Size)
	for r := 0; r < Size; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < Size; c++ {
			sb.WriteByte(layoutChar(b.cells[r][c]))
		}
	}
	return sb.String()
}

// DecodeLayout parses the EncodeLayout format. Rows may also be separated by newlines.
func DecodeLayout(layout string) (*Board, error) {
	norm := strings.NewReplacer("\r", "", "\n", "/", "\t", "", " ", "").Replace(strings.TrimSpace(layout))
	rows := strings.Split(strings.Trim(norm, "/"), "/")
	if len(rows) != Size {
		return nil, fmt.Errorf("layout: want %d rows, got %d", Size, len(rows))
	}
	b := &Board{}
	for r, row := range rows {
		if len(row) != Size {
			return nil, fmt.Errorf("layout: row %d has %d cells", r, len(row))
		}
		for c := 0; c < Size; c++ {
			switch row[c] {
			case '.', '-', '_':
			case 'w':
				b.cells[r][c] = &Piece{Color: White}
			case 'W':
				b.cells[r][c] = &Piece{Color: White, King: true}
			case 'b':
				b.cells[r][c] = &Piece{Color: Black}
			case 'B':
				b.cells[r][c] = &Piece{Color: Black, King: true}
			default:
				return nil, fmt.Errorf("layout: bad cell %q at %d,%d", row[c], r, c)
			}
		}
	}
	return b, nil
}

func layoutChar(p *Piece) byte {
	switch {
	case p == nil:
		return '.'
	case p.Color == White && p.King:
		return 'W'
	case p.Color == White:
		return 'w'
	case p.King:
		return 'B'
	default:
		return 'b'
	}
}

func mustInside(sq Square, op string) {
	if !inside(sq.Row, sq.Col) {
		panic(fmt.Sprintf("checkers: %s(%d,%d) outside the board", op, sq.Row, sq.Col))
	}
}
