package session

import (
	"context"
	"fmt"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/domain"
	"github.com/park285/Cheese-Checkers-bot/internal/render"
	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

// ToDTO renders the board of g and returns the view the presenter shows.
func (m *Manager) ToDTO(ctx context.Context, g *Game) (*checkersdto.GameView, error) {
	if m == nil || g == nil {
		return nil, nil
	}
	ctrl, err := checkers.Restore(g.Snapshot, checkers.WithLogger(m.log()))
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", g.ID, err)
	}
	turn := ctrl.CurrentPlayer()
	opts := render.RenderOptions{
		HUDHeader: fmt.Sprintf("%s vs %s", g.WhiteName, g.BlackName),
		HUDTurn:   hudTurn(ctrl),
		Flip:      m.flipBlack && turn == checkers.Black && ctrl.State() == checkers.Playing,
	}
	png, err := m.renderer.RenderPNG(ctx, ctrl.Frame(), opts)
	if err != nil {
		return nil, err
	}
	return &checkersdto.GameView{
		GameID:     g.ID,
		Room:       g.Room,
		WhiteName:  g.WhiteName,
		BlackName:  g.BlackName,
		Turn:       turn.String(),
		TurnName:   g.NameOf(turn),
		Status:     string(g.Status),
		State:      ctrl.State().String(),
		WinnerName: g.WinnerName(),
		Moves:      append([]string(nil), g.Moves...),
		MoveCount:  len(g.Moves),
		BoardImage: png,
	}, nil
}

// hudTurn labels the board; the move number counts finished turns only.
func hudTurn(ctrl *checkers.Controller) string {
	if banner := ctrl.State().Banner(); banner != "" {
		return banner
	}
	done := 0
	for _, st := range ctrl.History() {
		if st.EndsTurn {
			done++
		}
	}
	name := "White"
	if ctrl.CurrentPlayer() == checkers.Black {
		name = "Black"
	}
	if ctrl.Phase() == checkers.PhaseChaining {
		return fmt.Sprintf("%s jumping - move %d", name, done/2+1)
	}
	return fmt.Sprintf("%s to move - %d", name, done/2+1)
}

// ToDTOResults converts stored results for the presenter.
func ToDTOResults(list []*domain.CheckersResult) []checkersdto.GameResult {
	out := make([]checkersdto.GameResult, 0, len(list))
	for _, r := range list {
		if r == nil {
			continue
		}
		out = append(out, checkersdto.GameResult{
			GameID:       r.GameID,
			WhiteName:    r.WhiteName,
			BlackName:    r.BlackName,
			Result:       r.Result,
			ResultMethod: r.ResultMethod,
			WinnerName:   r.WinnerName(),
			Moves:        append([]string(nil), r.Moves...),
			EndedAt:      r.EndedAt,
			Duration:     r.Duration,
		})
	}
	return out
}
