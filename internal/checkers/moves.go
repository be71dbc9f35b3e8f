package checkers

var diagonals = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// CalculateMoves returns the legal destinations of the piece on sq.
// When the piece can capture, only capture landings are returned.
func (b *Board) CalculateMoves(sq Square) []Square {
	dests, _ := b.generate(sq)
	return dests
}

// JumpsFrom returns capture landings only; nil when the piece cannot capture.
func (b *Board) JumpsFrom(sq Square) []Square {
	dests, jumps := b.generate(sq)
	if !jumps {
		return nil
	}
	return dests
}

// CanCapture reports whether the piece on sq has at least one capture.
func (b *Board) CanCapture(sq Square) bool {
	_, jumps := b.generate(sq)
	return jumps
}

// HasCaptures reports whether any piece of the color can capture.
func (b *Board) HasCaptures(color Color) bool {
	for _, sq := range b.Squares(color) {
		if b.CanCapture(sq) {
			return true
		}
	}
	return false
}

// HasAnyMove reports whether any piece of the color has a legal destination.
func (b *Board) HasAnyMove(color Color) bool {
	for _, sq := range b.Squares(color) {
		if len(b.CalculateMoves(sq)) > 0 {
			return true
		}
	}
	return false
}

// Capturable lists the squares of the color's pieces that can capture.
func (b *Board) Capturable(color Color) []Square {
	var out []Square
	for _, sq := range b.Squares(color) {
		if b.CanCapture(sq) {
			out = append(out, sq)
		}
	}
	return out
}

// generate computes destinations for the piece on sq; jumps reports whether
// they are capture landings.
func (b *Board) generate(sq Square) (dests []Square, jumps bool) {
	p := b.At(sq)
	if p == nil {
		return nil, false
	}
	if p.King {
		return b.kingMoves(sq, p.Color)
	}
	return b.manMoves(sq, p.Color)
}

func (b *Board) manMoves(sq Square, color Color) ([]Square, bool) {
	var jumps []Square
	for _, d := range diagonals {
		mr, mc := sq.Row+d[0], sq.Col+d[1]
		lr, lc := sq.Row+2*d[0], sq.Col+2*d[1]
		if !inside(lr, lc) {
			continue
		}
		mid := b.cells[mr][mc]
		if mid != nil && mid.Color != color && b.cells[lr][lc] == nil {
			jumps = append(jumps, Square{Row: lr, Col: lc})
		}
	}
	if len(jumps) > 0 {
		return jumps, true
	}

	var steps []Square
	r := sq.Row + color.forward()
	for _, dc := range [2]int{-1, 1} {
		c := sq.Col + dc
		if inside(r, c) && b.cells[r][c] == nil {
			steps = append(steps, Square{Row: r, Col: c})
		}
	}
	return steps, false
}

func (b *Board) kingMoves(sq Square, color Color) ([]Square, bool) {
	var slides, jumps []Square
	for _, d := range diagonals {
		r, c := sq.Row+d[0], sq.Col+d[1]
		for inside(r, c) && b.cells[r][c] == nil {
			slides = append(slides, Square{Row: r, Col: c})
			r, c = r+d[0], c+d[1]
		}
		if !inside(r, c) || b.cells[r][c].Color == color {
			continue
		}
		// one opponent on the ray; every empty square behind it is a landing
		r, c = r+d[0], c+d[1]
		for inside(r, c) && b.cells[r][c] == nil {
			jumps = append(jumps, Square{Row: r, Col: c})
			r, c = r+d[0], c+d[1]
		}
	}
	if len(jumps) > 0 {
		return jumps, true
	}
	return slides, false
}

// capturedOn validates the diagonal path from -> to for a capture by color:
// it must cross exactly one opponent piece and no friendly piece.
func (b *Board) capturedOn(from, to Square, color Color) (Square, bool) {
	dr, dc := to.Row-from.Row, to.Col-from.Col
	if abs(dr) != abs(dc) || abs(dr) < 2 {
		return Square{}, false
	}
	sr, sc := sign(dr), sign(dc)
	var (
		hit   Square
		found bool
	)
	for i := 1; i < abs(dr); i++ {
		p := b.cells[from.Row+sr*i][from.Col+sc*i]
		if p == nil {
			continue
		}
		if p.Color == color || found {
			return Square{}, false
		}
		hit, found = Square{Row: from.Row + sr*i, Col: from.Col + sc*i}, true
	}
	return hit, found
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x < 0 {
		return -1
	}
	return 1
}
