package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/msgcat"
	"github.com/park285/Cheese-Checkers-bot/internal/presenter"
	"github.com/park285/Cheese-Checkers-bot/internal/render"
)

type noPrefix struct{}

func (noPrefix) Prefix() string { return "" }

// checkers-local plays a game in the terminal: type squares such as "c3 d4",
// "reset" or "quit".
func main() {
	outDir := flag.String("out", "", "write a PNG of every frame into this directory")
	layout := flag.String("layout", "", "start from a layout (8 rows of .wWbB joined by /)")
	verbose := flag.Bool("v", false, "log engine events to stderr")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	cat, err := msgcat.New("")
	if err != nil {
		log.Fatalf("messages: %v", err)
	}
	g := &game{
		formatter: presenter.NewFormatter(cat, noPrefix{}),
		renderer:  render.NewBoardRenderer(),
		outDir:    *outDir,
		layout:    *layout,
		logger:    logger,
		out:       os.Stdout,
	}
	if g.outDir != "" {
		if err := os.MkdirAll(g.outDir, 0o755); err != nil {
			log.Fatalf("out dir: %v", err)
		}
	}
	if err := g.start(); err != nil {
		log.Fatalf("start: %v", err)
	}
	if err := g.run(context.Background(), os.Stdin); err != nil {
		log.Fatalf("%v", err)
	}
}

type game struct {
	ctrl      *checkers.Controller
	formatter *presenter.Formatter
	renderer  render.BoardRenderer
	outDir    string
	layout    string
	frames    int
	logger    *zap.Logger
	out       io.Writer
}

// start builds the controller from -layout or the initial position.
func (g *game) start() error {
	opts := []checkers.Option{checkers.WithLogger(g.logger)}
	if g.layout != "" {
		b, err := checkers.DecodeLayout(g.layout)
		if err != nil {
			return err
		}
		opts = append(opts, checkers.WithBoard(b))
	}
	g.ctrl = checkers.NewController(opts...)
	g.show(context.Background())
	return nil
}

func (g *game) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(g.out, "> ")
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
		case "quit", "exit", "q":
			return nil
		case "reset":
			g.ctrl.ResetGame()
			g.show(ctx)
		default:
			g.play(ctx, strings.Fields(line))
		}
		fmt.Fprint(g.out, "> ")
	}
	return sc.Err()
}

// play applies squares as clicks until one is rejected.
func (g *game) play(ctx context.Context, squares []string) {
	var (
		events   []checkers.Event
		rejected error
	)
	for _, raw := range squares {
		sq, err := checkers.ParseSquare(raw)
		if err != nil {
			rejected = err
			break
		}
		ev, err := g.ctrl.OnCellClick(sq.Row, sq.Col)
		if err != nil {
			rejected = err
			break
		}
		events = append(events, ev)
	}
	if msg := g.formatter.Clicks(nil, events, rejected); msg != "" {
		fmt.Fprintln(g.out, msg)
	}
	if len(events) > 0 {
		g.show(ctx)
	}
}

func (g *game) show(ctx context.Context) {
	fmt.Fprintln(g.out, g.ctrl.Board().String())
	if banner := g.ctrl.State().Banner(); banner != "" {
		fmt.Fprintln(g.out, banner)
	} else {
		fmt.Fprintf(g.out, "%s to move (%s)\n", g.ctrl.CurrentPlayer(), g.ctrl.Phase())
	}
	if g.outDir == "" {
		return
	}
	png, err := g.renderer.RenderPNG(ctx, g.ctrl.Frame(), render.RenderOptions{HUDHeader: "White vs Black"})
	if err != nil {
		g.logger.Warn("render_error", zap.Error(err))
		return
	}
	path := filepath.Join(g.outDir, fmt.Sprintf("frame-%03d.png", g.frames))
	g.frames++
	if err := os.WriteFile(path, png, 0o644); err != nil {
		g.logger.Warn("write_frame_error", zap.String("path", path), zap.Error(err))
	}
}
