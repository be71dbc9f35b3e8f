package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

type RenderOptions struct {
	HUDHeader string
	HUDTurn   string
	// Flip draws the board from Black's side.
	Flip bool
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, frame checkers.Frame, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct {
	squareSize int
}

func NewBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{squareSize: 64}
}

const (
	sideMargin       = 32
	topMargin        = 104
	bottomMargin     = 32
	titleHeight      = 32
	turnHeight       = 26
	gapBetweenPanels = 10
	gapToBoard       = 18
	panelRadius      = 10
	panelPaddingX    = 18
	titleMinWidth    = 240
	turnMinWidth     = 140
	shadowOffsetY    = 5
	bannerScale      = 4
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{150, 102, 70, 255}
	selectedFill        = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	destinationFill     = color.NRGBA{R: 120, G: 220, B: 140, A: 170}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	boardShadowColor    = color.NRGBA{0, 0, 0, 60}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
	gameOverDim         = color.NRGBA{0, 0, 0, 110}
	bannerPanelColor    = color.NRGBA{R: 20, G: 22, B: 34, A: 235}
	bannerTextColor     = color.NRGBA{R: 255, G: 214, B: 92, A: 255}
	backgroundColor     = color.RGBA{244, 241, 234, 255}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, frame checkers.Frame, opts RenderOptions) ([]byte, error) {
	if frame.Pieces == nil {
		return nil, fmt.Errorf("frame has no pieces map")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	sq := r.squareSize
	boardSize := sq * checkers.Size
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawHUD(img, opts, frame, boardRect)
	drawBoardShadow(img, boardRect)
	drawSquares(img, sq, origin)
	if frame.Selected != nil {
		drawSquareOverlay(img, squareRect(*frame.Selected, sq, origin, opts.Flip), selectedFill)
	}
	if err := drawPieces(ctx, img, frame, sq, origin, opts.Flip); err != nil {
		return nil, err
	}
	for _, h := range frame.Highlights {
		drawDestinationMarker(img, squareRect(h, sq, origin, opts.Flip))
	}
	drawCoordinates(img, sq, origin, opts.Flip)
	if frame.State != checkers.Playing {
		drawBanner(img, boardRect, frame.State.Banner())
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadowRect := image.Rect(boardRect.Min.X+4, boardRect.Min.Y+8, boardRect.Max.X+10, boardRect.Max.Y+12)
	imagedraw.Draw(img, shadowRect, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			clr := lightSquare
			if checkers.Sq(row, col).Dark() {
				clr = darkSquare
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(ctx context.Context, dst imagedraw.Image, frame checkers.Frame, squareSize int, origin image.Point, flip bool) error {
	for sq, piece := range frame.Pieces {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		rect := squareRect(sq, squareSize, origin, flip)
		imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, rect image.Rectangle, clr color.Color) {
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawDestinationMarker(img *image.RGBA, rect image.Rectangle) {
	center := image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
	drawDisc(img, center, rect.Dx()/6, destinationFill)
}

func drawHUD(img *image.RGBA, opts RenderOptions, frame checkers.Frame, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Checkers"
	}
	turnText := strings.TrimSpace(opts.HUDTurn)
	if turnText == "" {
		turnText = defaultTurnText(frame)
	}

	turnBottom := boardRect.Min.Y - gapToBoard
	turnTop := turnBottom - turnHeight
	titleBottom := turnTop - gapBetweenPanels
	titleTop := titleBottom - titleHeight

	titleWidth := max(titleMinWidth, drawer.MeasureString(title).Round()+panelPaddingX*2)
	titleWidth = min(titleWidth, boardRect.Dx())
	turnWidth := max(turnMinWidth, drawer.MeasureString(turnText).Round()+panelPaddingX*2)
	turnWidth = min(turnWidth, boardRect.Dx()-40)

	titleLeft := boardRect.Min.X + (boardRect.Dx()-titleWidth)/2
	titleRect := image.Rect(titleLeft, titleTop, titleLeft+titleWidth, titleBottom)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	drawRoundedPanel(img, titleRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, turnRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)

	title = truncateWithEllipsis(drawer.Face, title, titleRect.Dx()-panelPaddingX*2)
	turnText = truncateWithEllipsis(drawer.Face, turnText, turnRect.Dx()-panelPaddingX*2)
	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, turnRect, turnText, hudTurnTextColor)
}

func defaultTurnText(frame checkers.Frame) string {
	if frame.State != checkers.Playing {
		return frame.State.Banner()
	}
	if frame.Phase == checkers.PhaseChaining {
		return fmt.Sprintf("%s to move (continue jumping)", frame.Turn)
	}
	return fmt.Sprintf("%s to move", frame.Turn)
}

// drawBanner dims the board and writes the result text scaled up from the bitmap face.
func drawBanner(img *image.RGBA, boardRect image.Rectangle, text string) {
	if text == "" {
		return
	}
	imagedraw.Draw(img, boardRect, image.NewUniform(gameOverDim), image.Point{}, imagedraw.Over)

	face := basicfont.Face7x13
	small := &font.Drawer{Face: face}
	w := small.MeasureString(text).Round()
	h := face.Metrics().Height.Ceil()
	textImg := image.NewRGBA(image.Rect(0, 0, w, h))
	small.Dst = textImg
	small.Src = image.NewUniform(bannerTextColor)
	small.Dot = fixed.P(0, face.Metrics().Ascent.Ceil())
	small.DrawString(text)

	scaledW, scaledH := w*bannerScale, h*bannerScale
	panelW, panelH := scaledW+60, scaledH+36
	cx, cy := boardRect.Min.X+boardRect.Dx()/2, boardRect.Min.Y+boardRect.Dy()/2
	panel := image.Rect(cx-panelW/2, cy-panelH/2, cx+panelW/2, cy+panelH/2)
	drawRoundedPanel(img, panel.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, panel, panelRadius, bannerPanelColor)

	dst := image.Rect(cx-scaledW/2, cy-scaledH/2, cx-scaledW/2+scaledW, cy-scaledH/2+scaledH)
	xdraw.NearestNeighbor.Scale(img, dst, textImg, textImg.Bounds(), xdraw.Over, nil)
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + checkers.Size*squareSize

	for i := 0; i < checkers.Size; i++ {
		row, col := i, i
		if flip {
			row, col = checkers.Size-1-i, checkers.Size-1-i
		}
		rank := fmt.Sprintf("%d", checkers.Size-row)
		file := string(rune('a' + col))
		center := origin.Y + i*squareSize + squareSize/2
		drawCenteredText(drawer, rank, origin.X-sideMargin/2, center+ascent/2)
		drawCenteredText(drawer, file, origin.X+i*squareSize+squareSize/2, boardEndY+ascent+4)
	}
}

// squareRect maps a board square to its pixel rectangle; row 0 is drawn on top unless flipped.
func squareRect(sq checkers.Square, squareSize int, origin image.Point, flip bool) image.Rectangle {
	row, col := sq.Row, sq.Col
	if flip {
		row, col = checkers.Size-1-row, checkers.Size-1-col
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	radius = max(0, min(radius, rect.Dx()/2, rect.Dy()/2))
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	// centre column plus left/right strips; corners are discs
	core := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	imagedraw.Draw(img, core, fill, image.Point{}, imagedraw.Over)
	left := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius)
	imagedraw.Draw(img, left, fill, image.Point{}, imagedraw.Over)
	right := image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	imagedraw.Draw(img, right, fill, image.Point{}, imagedraw.Over)

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, c := range corners {
		drawQuarter(img, c, radius, clr, c.X < rect.Min.X+rect.Dx()/2, c.Y < rect.Min.Y+rect.Dy()/2)
	}
}

// drawQuarter fills the outward-facing quarter disc of a rounded corner.
func drawQuarter(img *image.RGBA, center image.Point, radius int, clr color.Color, leftSide, topSide bool) {
	rSquared := radius * radius
	for y := 1; y <= radius; y++ {
		for x := 1; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			px, py := center.X+x, center.Y+y
			if leftSide {
				px = center.X - x
			}
			if topSide {
				py = center.Y - y
			}
			blendPixel(img, px, py, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X, rect.Min.X+(rect.Dx()-width)/2)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			blendPixel(img, center.X+x, center.Y+y, clr)
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	srcA := float64(sa) / 65535.0
	dst := img.RGBAAt(x, y)
	inv := 1 - srcA

	// RGBA() is alpha-premultiplied, as is image.RGBA
	img.SetRGBA(x, y, color.RGBA{
		R: floatToUint8(float64(sr)/257.0 + float64(dst.R)*inv),
		G: floatToUint8(float64(sg)/257.0 + float64(dst.G)*inv),
		B: floatToUint8(float64(sb)/257.0 + float64(dst.B)*inv),
		A: floatToUint8(srcA*255.0 + float64(dst.A)*inv),
	})
}

func floatToUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
