package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	return img
}

func centerRed(img image.Image, row, col int) uint32 {
	const sq = 64
	x := sideMargin + col*sq + sq/2
	y := topMargin + row*sq + sq/2
	r, _, _, _ := img.At(x, y).RGBA()
	return r >> 8
}

func TestRenderPNG_InitialBoard(t *testing.T) {
	r := NewBoardRenderer()
	frame := checkers.NewController().Frame()

	data, err := r.RenderPNG(context.Background(), frame, RenderOptions{HUDHeader: "alice vs bob"})
	require.NoError(t, err)
	img := decode(t, data)
	require.Equal(t, 64*8+sideMargin*2, img.Bounds().Dx())
	require.Equal(t, 64*8+topMargin+bottomMargin, img.Bounds().Dy())

	// empty squares keep the board colours
	require.Equal(t, uint32(lightSquare.R), centerRed(img, 4, 0))
	require.Equal(t, uint32(darkSquare.R), centerRed(img, 3, 0))

	// white men at the bottom, black men on top
	require.Greater(t, centerRed(img, 7, 6), uint32(200))
	require.Less(t, centerRed(img, 0, 1), uint32(80))
}

func TestRenderPNG_Flip(t *testing.T) {
	r := NewBoardRenderer()
	frame := checkers.NewController().Frame()

	data, err := r.RenderPNG(context.Background(), frame, RenderOptions{Flip: true})
	require.NoError(t, err)
	img := decode(t, data)
	require.Less(t, centerRed(img, 7, 6), uint32(80))
	require.Greater(t, centerRed(img, 0, 1), uint32(200))
}

func TestRenderPNG_HighlightsAndBanner(t *testing.T) {
	c := checkers.NewController()
	if _, err := c.OnCellClick(5, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	frame := c.Frame()
	r := NewBoardRenderer()

	data, err := r.RenderPNG(context.Background(), frame, RenderOptions{})
	require.NoError(t, err)
	img := decode(t, data)
	// destination marker sits on the empty dark square
	require.NotEqual(t, uint32(darkSquare.R), centerRed(img, 4, 3))

	frame.State = checkers.WhiteWin
	over, err := r.RenderPNG(context.Background(), frame, RenderOptions{})
	require.NoError(t, err)
	require.NotEqual(t, data, over)
	corner := decode(t, over)
	rr, _, _, _ := corner.At(sideMargin+2, topMargin+2).RGBA()
	require.Less(t, rr>>8, uint32(lightSquare.R))
}

func TestRenderPNG_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBoardRenderer().RenderPNG(ctx, checkers.NewController().Frame(), RenderOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRenderPNG_RejectsEmptyFrame(t *testing.T) {
	_, err := NewBoardRenderer().RenderPNG(context.Background(), checkers.Frame{}, RenderOptions{})
	require.Error(t, err)
}

func TestPieceAssetName(t *testing.T) {
	require.Equal(t, "assets/pieces/white_man.svg", pieceAssetName(checkers.Piece{Color: checkers.White}))
	require.Equal(t, "assets/pieces/black_king.svg", pieceAssetName(checkers.Piece{Color: checkers.Black, King: true}))
	for _, p := range []checkers.Piece{
		{Color: checkers.White}, {Color: checkers.White, King: true},
		{Color: checkers.Black}, {Color: checkers.Black, King: true},
	} {
		img, err := renderPieceImage(p, 32)
		require.NoError(t, err)
		require.Equal(t, 32, img.Bounds().Dx())
	}
}

func TestCellMapper(t *testing.T) {
	m := CellMapper{Origin: Vec3{X: -4, Y: 0.5, Z: -4}, CellSize: 1.25, Height: 0.1}
	pos := m.CellPosition(2, 5)
	require.InDelta(t, -4+5*1.25, pos.X, 1e-9)
	require.InDelta(t, 0.6, pos.Y, 1e-9)
	require.InDelta(t, -4+2*1.25, pos.Z, 1e-9)

	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			p := m.CellPosition(row, col)
			p.X += 0.3
			p.Z -= 0.3
			sq, err := m.Pick(p)
			require.NoError(t, err)
			require.Equal(t, checkers.Sq(row, col), sq)
		}
	}

	_, err := m.Pick(Vec3{X: 100, Z: 0})
	require.ErrorIs(t, err, checkers.ErrOutOfBounds)
	_, err = CellMapper{}.Pick(Vec3{})
	require.Error(t, err)
}
