package checkers

import (
	"fmt"
	"strings"
)

// Snapshot is the serialisable state of a Controller. Highlights are not
// stored; Restore recomputes them from the selection.
type Snapshot struct {
	Layout   string    `json:"layout"`
	Turn     Color     `json:"turn"`
	State    GameState `json:"state"`
	Selected *Square   `json:"selected,omitempty"`
	Chaining bool      `json:"chaining,omitempty"`
	Steps    []Step    `json:"steps,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Layout:   EncodeLayout(c.board),
		Turn:     c.turn,
		State:    c.state,
		Chaining: c.phase == PhaseChaining,
		Steps:    c.History(),
	}
	if c.phase != PhaseIdle {
		sel := c.selected
		s.Selected = &sel
	}
	return s
}

// Restore rebuilds a controller from a snapshot.
func Restore(s Snapshot, opts ...Option) (*Controller, error) {
	b, err := DecodeLayout(s.Layout)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	c := NewController(opts...)
	c.board = b
	c.turn = s.Turn
	c.state = s.State
	c.steps = append([]Step(nil), s.Steps...)
	if s.Selected == nil {
		return c, nil
	}

	sel := *s.Selected
	if !sel.Valid() {
		return nil, fmt.Errorf("restore: %w: selected %d,%d", ErrOutOfBounds, sel.Row, sel.Col)
	}
	p := b.At(sel)
	if p == nil || p.Color != s.Turn {
		return nil, fmt.Errorf("restore: %w: selected %s", ErrInvalidSelection, sel)
	}
	moves, jumps := b.generate(sel)
	if s.Chaining && !jumps {
		return nil, fmt.Errorf("restore: chaining piece on %s has no capture", sel)
	}
	c.phase = PhaseSelected
	if s.Chaining {
		c.phase = PhaseChaining
	}
	c.selected = sel
	c.highlights = moves
	c.jumping = jumps
	return c, nil
}

// Turns groups the history into one notation string per turn, e.g. "c3-d4"
// or "e3xg5xe7". An unfinished capture chain is included as the last entry.
func (c *Controller) Turns() []string { return TurnNotation(c.steps) }

// TurnNotation formats steps as turn notation.
func TurnNotation(steps []Step) []string {
	var (
		out []string
		sb  strings.Builder
	)
	for i, st := range steps {
		if sb.Len() == 0 {
			sb.WriteString(st.From.String())
		}
		if st.Captured != nil {
			sb.WriteByte('x')
		} else {
			sb.WriteByte('-')
		}
		sb.WriteString(st.To.String())
		if st.EndsTurn || i == len(steps)-1 {
			out = append(out, sb.String())
			sb.Reset()
		}
	}
	return out
}
