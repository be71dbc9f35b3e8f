package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func finishedGame(id, outcome string, ended time.Time, moves ...string) *Game {
	winner := "u1"
	if outcome == "black" {
		winner = "u2"
	}
	return &Game{
		ID: id, Room: "roomA",
		WhiteID: "u1", WhiteName: "alice",
		BlackID: "u2", BlackName: `bo"b`,
		Moves:  moves,
		Status: StatusFinished, Winner: winner, Outcome: outcome,
		CreatedAt: ended.Add(-time.Minute), UpdatedAt: ended,
	}
}

func TestBuildPDN(t *testing.T) {
	ended := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	res := resultFromGame(finishedGame("g1", "black", ended, "c3-d4", "f6-e5", "d4xf6", "g7xe5"), "resignation")

	require.Equal(t, time.Minute, res.Duration)
	pdn := res.PDN
	for _, want := range []string{
		`[Date "2026.03.07"]`,
		`[Black "bo'b"]`,
		`[Termination "resignation"]`,
		`[Result "0-2"]`,
		"1. c3-d4 f6-e5 2. d4xf6 g7xe5 0-2",
	} {
		if !strings.Contains(pdn, want) {
			t.Fatalf("pdn missing %q:\n%s", want, pdn)
		}
	}
	require.Equal(t, "*", mapResultToPDN(""))
}

func TestMemoryRepository_RecentResults(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.SaveResult(ctx, finishedGame("g1", "white", base.Add(-2*time.Hour)), "win"))
	require.NoError(t, repo.SaveResult(ctx, finishedGame("g2", "black", base.Add(-time.Hour)), "win"))
	require.NoError(t, repo.SaveResult(ctx, finishedGame("g3", "white", base), "resignation"))
	// saving again replaces without duplicating
	require.NoError(t, repo.SaveResult(ctx, finishedGame("g3", "white", base), "resignation"))

	got, err := repo.RecentResults(ctx, "u2", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "g3", got[0].GameID)
	require.Equal(t, "g2", got[1].GameID)

	all, err := repo.RecentResults(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	none, err := repo.RecentResults(ctx, "nobody", 5)
	require.NoError(t, err)
	require.Empty(t, none)
}
