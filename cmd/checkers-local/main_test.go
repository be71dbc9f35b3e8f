package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/msgcat"
	"github.com/park285/Cheese-Checkers-bot/internal/presenter"
	"github.com/park285/Cheese-Checkers-bot/internal/render"
)

func newLocalGame(t *testing.T, outDir, layout string) (*game, *bytes.Buffer) {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	g := &game{
		formatter: presenter.NewFormatter(cat, noPrefix{}),
		renderer:  render.NewBoardRenderer(),
		outDir:    outDir,
		layout:    layout,
		logger:    zap.NewNop(),
		out:       buf,
	}
	require.NoError(t, g.start())
	return g, buf
}

func TestRun_PlaysAndQuits(t *testing.T) {
	g, buf := newLocalGame(t, "", "")
	in := strings.NewReader("c3 d4\nd4\nreset\nquit\nc3\n")
	require.NoError(t, g.run(context.Background(), in))

	out := buf.String()
	require.Contains(t, out, "White: c3-d4")
	require.Contains(t, out, "다음 차례: Black")
	require.Contains(t, out, "상대 말은 선택할 수 없습니다.")
	require.Equal(t, 2, strings.Count(out, "white to move"))
}

func TestShow_WritesFrames(t *testing.T) {
	dir := t.TempDir()
	g, buf := newLocalGame(t, dir, "......../......../.....b../....w.../......../......../......../........")
	g.play(context.Background(), []string{"e5", "g7"})

	require.Contains(t, buf.String(), "White win")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.FileExists(t, filepath.Join(dir, "frame-001.png"))
}

func TestRun_ResetRestoresInitialPosition(t *testing.T) {
	g, buf := newLocalGame(t, "", "......../......../.....b../....w.../......../......../......../........")
	require.False(t, g.ctrl.Board().Equal(checkers.NewInitialBoard()))

	require.NoError(t, g.run(context.Background(), strings.NewReader("e5\nreset\nquit\n")))

	require.True(t, g.ctrl.Board().Equal(checkers.NewInitialBoard()))
	require.Equal(t, checkers.White, g.ctrl.CurrentPlayer())
	require.Equal(t, checkers.Playing, g.ctrl.State())
	require.Equal(t, checkers.PhaseIdle, g.ctrl.Phase())
	require.Equal(t, 2, strings.Count(buf.String(), "white to move (idle)"))
}
