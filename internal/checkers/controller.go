package checkers

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
)

// EventKind classifies an accepted click.
type EventKind uint8

const (
	EventSelected EventKind = iota + 1
	EventChainContinues
	EventTurnPassed
	EventGameOver
)

func (k EventKind) String() string {
	switch k {
	case EventSelected:
		return "selected"
	case EventChainContinues:
		return "chain_continues"
	case EventTurnPassed:
		return "turn_passed"
	case EventGameOver:
		return "game_over"
	default:
		return "none"
	}
}

// Event describes what an accepted click did.
type Event struct {
	Kind       EventKind
	Player     Color
	From       Square
	To         Square
	Captured   *Square
	Promoted   bool
	Highlights []Square
	State      GameState
}

// Step is one executed move segment. A chained capture is several steps,
// the last of which ends the turn.
type Step struct {
	Player   Color   `json:"player"`
	From     Square  `json:"from"`
	To       Square  `json:"to"`
	Captured *Square `json:"captured,omitempty"`
	Promoted bool    `json:"promoted,omitempty"`
	EndsTurn bool    `json:"ends_turn,omitempty"`
}

// Frame is the read-only view a renderer draws.
type Frame struct {
	Pieces     map[Square]Piece
	Highlights []Square
	Selected   *Square
	Turn       Color
	State      GameState
	Phase      Phase
}

// Controller is the turn state machine. It is not safe for concurrent use.
type Controller struct {
	board      *Board
	turn       Color
	state      GameState
	phase      Phase
	selected   Square
	highlights []Square
	jumping    bool
	steps      []Step
	logger     *zap.Logger
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithBoard starts the controller from a copy of b instead of the initial layout.
func WithBoard(b *Board) Option { return func(c *Controller) { c.board = b.Clone() } }

func WithTurn(color Color) Option { return func(c *Controller) { c.turn = color } }

func NewController(opts ...Option) *Controller {
	c := &Controller{turn: White, state: Playing}
	for _, o := range opts {
		o(c)
	}
	if c.board == nil {
		c.board = NewInitialBoard()
	}
	return c
}

func (c *Controller) log() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	return obslog.L()
}

func (c *Controller) CurrentPlayer() Color { return c.turn }
func (c *Controller) State() GameState     { return c.state }
func (c *Controller) Phase() Phase         { return c.phase }

// Board returns a copy of the current position.
func (c *Controller) Board() *Board { return c.board.Clone() }

// Selected returns the selected square while a piece is selected.
func (c *Controller) Selected() (Square, bool) {
	return c.selected, c.phase != PhaseIdle
}

func (c *Controller) Highlights() []Square { return slices.Clone(c.highlights) }

// History returns every executed step in order.
func (c *Controller) History() []Step { return slices.Clone(c.steps) }

// CalculateMoves is the move set of the piece on (row, col) in the current position.
func (c *Controller) CalculateMoves(row, col int) []Square {
	return c.board.CalculateMoves(Sq(row, col))
}

// ResetGame restores the initial layout and clears all turn state.
func (c *Controller) ResetGame() {
	c.board.Initialize()
	c.turn = White
	c.state = Playing
	c.clearSelection()
	c.steps = nil
	c.log().Info("checkers_reset")
}

// CheckWinCondition ends the game when the side to move has no legal move.
func (c *Controller) CheckWinCondition() GameState {
	if c.state != Playing {
		return c.state
	}
	if !c.board.HasAnyMove(c.turn) {
		c.state = winFor(c.turn.Opponent())
		c.log().Info("checkers_game_over",
			zap.String("winner", c.turn.Opponent().String()),
			zap.Int("white", c.board.Count(White)),
			zap.Int("black", c.board.Count(Black)))
	}
	return c.state
}

// Frame snapshots what a renderer needs for the current position.
func (c *Controller) Frame() Frame {
	f := Frame{
		Pieces:     make(map[Square]Piece, 24),
		Highlights: slices.Clone(c.highlights),
		Turn:       c.turn,
		State:      c.state,
		Phase:      c.phase,
	}
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			if p := c.board.cells[r][col]; p != nil {
				f.Pieces[Sq(r, col)] = *p
			}
		}
	}
	if c.phase != PhaseIdle {
		sel := c.selected
		f.Selected = &sel
	}
	return f
}

// OnCellClick feeds one board click into the state machine. A rejected
// click returns an error and leaves the position untouched.
func (c *Controller) OnCellClick(row, col int) (Event, error) {
	if !inside(row, col) {
		return c.reject(Square{Row: row, Col: col}, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col))
	}
	sq := Sq(row, col)
	if c.state != Playing {
		return c.reject(sq, ErrGameOver)
	}

	if c.phase != PhaseIdle {
		if slices.Contains(c.highlights, sq) {
			return c.execute(sq)
		}
		if c.phase == PhaseChaining {
			return c.reject(sq, errChainOnly)
		}
		if p := c.board.At(sq); p == nil || p.Color != c.turn {
			return c.reject(sq, errNotAMove)
		}
		// another own piece: drop the selection and select it instead
		c.clearSelection()
	}
	return c.selectAt(sq)
}

func (c *Controller) selectAt(sq Square) (Event, error) {
	p := c.board.At(sq)
	switch {
	case p == nil:
		return c.reject(sq, ErrEmptySquare)
	case p.Color != c.turn:
		return c.reject(sq, ErrOpponentPiece)
	}
	moves, jumps := c.board.generate(sq)
	if !jumps {
		if pieces := c.board.Capturable(c.turn); len(pieces) > 0 {
			return c.reject(sq, &CaptureRequiredError{Pieces: pieces})
		}
	}

	c.phase = PhaseSelected
	c.selected = sq
	c.highlights = moves
	c.jumping = jumps
	c.log().Debug("checkers_select",
		zap.String("player", c.turn.String()),
		zap.String("square", sq.String()),
		zap.Int("moves", len(moves)),
		zap.Bool("capture", jumps))
	return Event{
		Kind:       EventSelected,
		Player:     c.turn,
		From:       sq,
		Highlights: slices.Clone(moves),
		State:      c.state,
	}, nil
}

func (c *Controller) execute(to Square) (Event, error) {
	from := c.selected
	p := c.board.At(from)

	var captured *Square
	if c.jumping {
		hit, ok := c.board.capturedOn(from, to, p.Color)
		if !ok {
			return c.reject(to, errNotAMove)
		}
		captured = &hit
	} else if c.board.HasCaptures(c.turn) {
		return c.reject(to, errMoveMustCapture)
	}

	if captured != nil {
		c.board.Remove(*captured)
	}
	c.board.Move(from, to)
	promoted := false
	if !p.King && to.Row == p.Color.promotionRow() {
		p.King = true
		promoted = true
	}

	step := Step{Player: c.turn, From: from, To: to, Captured: captured, Promoted: promoted}
	ev := Event{Player: c.turn, From: from, To: to, Captured: captured, Promoted: promoted}
	fields := []zap.Field{
		zap.String("player", c.turn.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Bool("promoted", promoted),
	}
	if captured != nil {
		fields = append(fields, zap.String("captured", captured.String()))
	}

	if captured != nil {
		if next := c.board.JumpsFrom(to); len(next) > 0 {
			c.steps = append(c.steps, step)
			c.phase = PhaseChaining
			c.selected = to
			c.highlights = next
			c.jumping = true
			c.log().Info("checkers_chain", fields...)
			ev.Kind = EventChainContinues
			ev.Highlights = slices.Clone(next)
			ev.State = c.state
			return ev, nil
		}
	}

	step.EndsTurn = true
	c.steps = append(c.steps, step)
	c.clearSelection()
	c.turn = c.turn.Opponent()
	c.log().Info("checkers_move", fields...)
	ev.State = c.CheckWinCondition()
	ev.Kind = EventTurnPassed
	if ev.State != Playing {
		ev.Kind = EventGameOver
	}
	return ev, nil
}

func (c *Controller) clearSelection() {
	c.phase = PhaseIdle
	c.selected = Square{}
	c.highlights = nil
	c.jumping = false
}

func (c *Controller) reject(sq Square, err error) (Event, error) {
	c.log().Debug("checkers_reject",
		zap.String("player", c.turn.String()),
		zap.Int("row", sq.Row),
		zap.Int("col", sq.Col),
		zap.String("phase", c.phase.String()),
		zap.Error(err))
	return Event{}, err
}
