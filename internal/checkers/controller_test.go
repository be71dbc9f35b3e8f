package checkers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func click(t *testing.T, c *Controller, row, col int) Event {
	t.Helper()
	ev, err := c.OnCellClick(row, col)
	if err != nil {
		t.Fatalf("OnCellClick(%d,%d): %v", row, col, err)
	}
	return ev
}

func chainPosition(t *testing.T) *Controller {
	t.Helper()
	b := mustBoard(t,
		".b......",
		"........",
		".....b..",
		"........",
		"...b....",
		"..w.....",
		"........",
		"........",
	)
	return NewController(WithBoard(b), WithLogger(zap.NewNop()))
}

func TestJump_RemovesCapturedPiece(t *testing.T) {
	b := mustBoard(t,
		"........",
		"........",
		".....b..",
		"....w...",
		"........",
		"........",
		"........",
		"........",
	)
	c := NewController(WithBoard(b))
	require.Equal(t, []Square{Sq(1, 6)}, c.CalculateMoves(3, 4))

	ev := click(t, c, 3, 4)
	require.Equal(t, EventSelected, ev.Kind)
	require.Equal(t, []Square{Sq(1, 6)}, c.Highlights())

	ev = click(t, c, 1, 6)
	require.NotNil(t, ev.Captured)
	require.Equal(t, Sq(2, 5), *ev.Captured)
	board := c.Board()
	require.Nil(t, board.At(Sq(2, 5)))
	require.Nil(t, board.At(Sq(3, 4)))
	require.Equal(t, White, board.At(Sq(1, 6)).Color)

	// black has nothing left to move
	require.Equal(t, EventGameOver, ev.Kind)
	require.Equal(t, WhiteWin, c.State())
	require.Equal(t, "White win", c.State().Banner())
}

func TestMultiJumpChaining(t *testing.T) {
	c := chainPosition(t)
	click(t, c, 5, 2)
	require.Equal(t, []Square{Sq(3, 4)}, c.Highlights())

	ev := click(t, c, 3, 4)
	require.Equal(t, EventChainContinues, ev.Kind)
	require.Equal(t, PhaseChaining, c.Phase())
	require.Equal(t, White, c.CurrentPlayer())
	sel, ok := c.Selected()
	require.True(t, ok)
	require.Equal(t, Sq(3, 4), sel)
	require.Equal(t, []Square{Sq(1, 6)}, c.Highlights())

	// nothing but the continuing jump is accepted
	_, err := c.OnCellClick(2, 3)
	require.ErrorIs(t, err, ErrChainInProgress)
	require.ErrorIs(t, err, ErrInvalidDestination)
	require.Equal(t, PhaseChaining, c.Phase())

	ev = click(t, c, 1, 6)
	require.Equal(t, EventTurnPassed, ev.Kind)
	require.Equal(t, Black, c.CurrentPlayer())
	require.Equal(t, PhaseIdle, c.Phase())
	require.Equal(t, Playing, c.State())
	require.Equal(t, 1, c.Board().Count(Black))
	require.Equal(t, []string{"c3xe5xg7"}, c.Turns())
	require.Len(t, c.History(), 2)
}

func TestMandatoryCapture(t *testing.T) {
	b := mustBoard(t,
		"b.......",
		"........",
		"........",
		"........",
		"...b....",
		"..w...w.",
		"........",
		"........",
	)
	c := NewController(WithBoard(b))

	_, err := c.OnCellClick(5, 6)
	if !errors.Is(err, ErrMustCapture) || !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("want must-capture selection error, got %v", err)
	}
	var required *CaptureRequiredError
	if !errors.As(err, &required) {
		t.Fatalf("want *CaptureRequiredError, got %T", err)
	}
	require.Equal(t, []Square{Sq(5, 2)}, required.Pieces)
	if c.Phase() != PhaseIdle {
		t.Fatalf("phase = %v", c.Phase())
	}

	click(t, c, 5, 2)
	// switching to the piece without a capture drops the selection
	if _, err := c.OnCellClick(5, 6); !errors.Is(err, ErrMustCapture) {
		t.Fatalf("want ErrMustCapture, got %v", err)
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("phase after rejected reselect = %v", c.Phase())
	}
}

func TestReselectOwnPiece(t *testing.T) {
	c := NewController()
	click(t, c, 5, 0)
	ev := click(t, c, 5, 2)
	require.Equal(t, EventSelected, ev.Kind)
	sel, _ := c.Selected()
	require.Equal(t, Sq(5, 2), sel)
	require.ElementsMatch(t, []Square{Sq(4, 1), Sq(4, 3)}, c.Highlights())
}

func TestRejections_LeaveStateUnchanged(t *testing.T) {
	c := NewController()
	before := c.Snapshot()

	cases := []struct {
		name     string
		row, col int
		want     error
	}{
		{"out of bounds", 8, 1, ErrOutOfBounds},
		{"negative", -1, 0, ErrOutOfBounds},
		{"empty square", 4, 1, ErrInvalidSelection},
		{"opponent piece", 2, 1, ErrInvalidSelection},
		{"blocked piece has no moves but selects", 7, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.OnCellClick(tc.row, tc.col)
			if tc.want == nil {
				require.NoError(t, err)
				require.Empty(t, c.Highlights())
				c.ResetGame()
				return
			}
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, before, c.Snapshot())
		})
	}
}

func TestInvalidDestination_KeepsSelection(t *testing.T) {
	c := NewController()
	click(t, c, 5, 2)
	_, err := c.OnCellClick(3, 2)
	require.ErrorIs(t, err, ErrInvalidDestination)
	require.Equal(t, PhaseSelected, c.Phase())
	sel, _ := c.Selected()
	require.Equal(t, Sq(5, 2), sel)

	_, err = c.OnCellClick(2, 1)
	require.ErrorIs(t, err, ErrInvalidDestination)
}

func TestPromotion_Once(t *testing.T) {
	b := mustBoard(t,
		"........",
		"..w.....",
		"........",
		".......b",
		"........",
		"........",
		"........",
		"........",
	)
	c := NewController(WithBoard(b))

	click(t, c, 1, 2)
	ev := click(t, c, 0, 1)
	require.True(t, ev.Promoted)
	require.True(t, c.Board().At(Sq(0, 1)).King)

	click(t, c, 3, 7)
	click(t, c, 4, 6)

	// kings move backward
	click(t, c, 0, 1)
	require.Contains(t, c.Highlights(), Sq(1, 0))
	ev = click(t, c, 1, 0)
	require.False(t, ev.Promoted)

	click(t, c, 4, 6)
	click(t, c, 5, 7)

	click(t, c, 1, 0)
	ev = click(t, c, 0, 1)
	require.False(t, ev.Promoted)
	require.True(t, c.Board().At(Sq(0, 1)).King)

	var promotions int
	for _, st := range c.History() {
		if st.Promoted {
			promotions++
		}
	}
	require.Equal(t, 1, promotions)
}

func TestPromotion_Black(t *testing.T) {
	b := mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		".....w..",
		".b......",
		"........",
	)
	c := NewController(WithBoard(b), WithTurn(Black))
	click(t, c, 6, 1)
	ev := click(t, c, 7, 0)
	require.True(t, ev.Promoted)
	require.Equal(t, White, c.CurrentPlayer())
}

func TestPromotedMidChain_ContinuesAsKing(t *testing.T) {
	b := mustBoard(t,
		"........",
		"..b.....",
		"...w....",
		"b.......",
		".....b..",
		"........",
		"........",
		"........",
	)
	c := NewController(WithBoard(b))
	click(t, c, 2, 3)
	ev := click(t, c, 0, 1)
	require.True(t, ev.Promoted)
	require.Equal(t, EventChainContinues, ev.Kind)
	require.ElementsMatch(t, []Square{Sq(5, 6), Sq(6, 7)}, c.Highlights())

	ev = click(t, c, 6, 7)
	require.Equal(t, EventTurnPassed, ev.Kind)
	require.Equal(t, Sq(4, 5), *ev.Captured)
	require.Equal(t, []string{"d6xb8xh2"}, c.Turns())
}

func TestWinCondition(t *testing.T) {
	blocked := mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		"..b.....",
		".b......",
		"w.......",
	)
	c := NewController(WithBoard(blocked))
	require.Equal(t, BlackWin, c.CheckWinCondition())
	require.Equal(t, "Black win", c.State().Banner())

	_, err := c.OnCellClick(7, 0)
	require.ErrorIs(t, err, ErrGameOver)

	fresh := NewController()
	require.Equal(t, Playing, fresh.CheckWinCondition())
}

func TestWinAfterTurn_BlockedOpponent(t *testing.T) {
	b := mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		"b.b.....",
		"........",
		"w.......",
	)
	c := NewController(WithBoard(b), WithTurn(Black))
	click(t, c, 5, 0)
	ev := click(t, c, 6, 1)
	require.Equal(t, EventGameOver, ev.Kind)
	require.Equal(t, BlackWin, ev.State)
	require.Equal(t, BlackWin, c.State())
}

func TestResetGame_RoundTrip(t *testing.T) {
	c := NewController()
	click(t, c, 5, 2)
	click(t, c, 4, 3)
	click(t, c, 2, 1)
	click(t, c, 3, 2)
	click(t, c, 4, 3)

	c.ResetGame()
	require.True(t, c.Board().Equal(NewInitialBoard()))
	require.Equal(t, PhaseIdle, c.Phase())
	require.Equal(t, White, c.CurrentPlayer())
	require.Equal(t, Playing, c.State())
	require.Empty(t, c.Highlights())
	require.Empty(t, c.History())
}

func TestSnapshot_RestoreMidChain(t *testing.T) {
	c := chainPosition(t)
	click(t, c, 5, 2)
	click(t, c, 3, 4)

	raw, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	r, err := Restore(snap)
	require.NoError(t, err)
	require.Equal(t, PhaseChaining, r.Phase())
	require.Equal(t, []Square{Sq(1, 6)}, r.Highlights())

	ev, err := r.OnCellClick(1, 6)
	require.NoError(t, err)
	require.Equal(t, EventTurnPassed, ev.Kind)
	require.Equal(t, []string{"c3xe5xg7"}, r.Turns())
}

func TestRestore_RejectsBadSelection(t *testing.T) {
	snap := NewController().Snapshot()
	sel := Sq(2, 1)
	snap.Selected = &sel
	if _, err := Restore(snap); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("want ErrInvalidSelection, got %v", err)
	}
	snap.Layout = "broken"
	if _, err := Restore(snap); err == nil {
		t.Fatalf("expected layout error")
	}
}

func TestFrame(t *testing.T) {
	c := NewController()
	click(t, c, 5, 2)
	f := c.Frame()
	require.Len(t, f.Pieces, 24)
	require.NotNil(t, f.Selected)
	require.Equal(t, Sq(5, 2), *f.Selected)
	require.ElementsMatch(t, []Square{Sq(4, 1), Sq(4, 3)}, f.Highlights)
	require.Equal(t, White, f.Turn)
	require.Equal(t, Playing, f.State)
}
