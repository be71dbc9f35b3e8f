package presenter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/msgcat"
	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
	"github.com/park285/Cheese-Checkers-bot/internal/session"
	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

const recentMovesLimit = 4

// PrefixProvider exposes the command prefix messages should mention.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders game views, click results and errors into chat text
// using the message catalog.
type Formatter struct {
	catalog        *msgcat.Catalog
	prefixProvider PrefixProvider
	historyLimit   int
	logger         *zap.Logger
}

type FormatterOption func(*Formatter)

func WithHistoryLimit(n int) FormatterOption {
	return func(f *Formatter) {
		if n > 0 {
			f.historyLimit = n
		}
	}
}

func WithFormatterLogger(l *zap.Logger) FormatterOption {
	return func(f *Formatter) { f.logger = l }
}

func NewFormatter(catalog *msgcat.Catalog, provider PrefixProvider, opts ...FormatterOption) *Formatter {
	f := &Formatter{catalog: catalog, prefixProvider: provider, historyLimit: 10}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

func (f *Formatter) log() *zap.Logger {
	if f.logger != nil {
		return f.logger
	}
	return obslog.L()
}

// text renders key; a broken template degrades to the key itself.
func (f *Formatter) text(key string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.Prefix()
	}
	if f.catalog == nil {
		return key
	}
	out, err := f.catalog.Render(key, data)
	if err != nil {
		f.log().Warn("msgcat_render_error", zap.String("key", key), zap.Error(err))
		return key
	}
	return out
}

func (f *Formatter) Help() string {
	return withSeeMore(f.text("help.title", nil), f.text("help.body", map[string]any{"HistoryLimit": f.historyLimit}))
}

func (f *Formatter) Start(view *checkersdto.GameView) string {
	if view == nil {
		return ""
	}
	return f.text("game.start", players(view))
}

func (f *Formatter) Resumed(view *checkersdto.GameView) string {
	if view == nil {
		return ""
	}
	return f.text("game.resumed", players(view))
}

func (f *Formatter) Reset(view *checkersdto.GameView) string {
	if view == nil {
		return ""
	}
	return f.text("game.reset", players(view))
}

func (f *Formatter) OtherRoom(view *checkersdto.GameView) string {
	if view == nil {
		return ""
	}
	return f.text("game.other_room", players(view))
}

func (f *Formatter) Resign(view *checkersdto.GameView) string {
	if view == nil {
		return ""
	}
	loser := view.WhiteName
	if view.WinnerName == view.WhiteName {
		loser = view.BlackName
	}
	return f.text("game.resign", map[string]any{"Winner": view.WinnerName, "Loser": loser})
}

// Clicks describes accepted clicks in order, followed by the rejection that
// stopped the sequence, if any.
func (f *Formatter) Clicks(view *checkersdto.GameView, events []checkers.Event, rejected error) string {
	var lines []string
	for _, ev := range events {
		lines = append(lines, f.event(view, ev)...)
	}
	if rejected != nil {
		lines = append(lines, f.Error(rejected))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) event(view *checkersdto.GameView, ev checkers.Event) []string {
	name := playerName(view, ev.Player)
	switch ev.Kind {
	case checkers.EventSelected:
		if len(ev.Highlights) == 0 {
			return []string{f.text("click.selected_none", map[string]any{"Name": name, "From": ev.From.String()})}
		}
		return []string{f.text("click.selected", map[string]any{
			"Name": name, "From": ev.From.String(), "Targets": joinSquares(ev.Highlights),
		})}
	case checkers.EventChainContinues:
		lines := []string{f.text("click.chain", map[string]any{
			"Name": name, "Notation": notation(ev), "Targets": joinSquares(ev.Highlights),
		})}
		if ev.Promoted {
			lines = append(lines, f.text("click.promoted", nil))
		}
		return lines
	case checkers.EventTurnPassed, checkers.EventGameOver:
		lines := []string{f.text("click.moved", map[string]any{"Name": name, "Notation": notation(ev)})}
		if ev.Captured != nil {
			lines = append(lines, f.text("click.captured", map[string]any{"Captured": ev.Captured.String()}))
		}
		if ev.Promoted {
			lines = append(lines, f.text("click.promoted", nil))
		}
		if winner, over := ev.State.Winner(); over {
			lines = append(lines, f.text("game.win", map[string]any{
				"Winner": playerName(view, winner), "Banner": ev.State.Banner(),
			}))
		} else {
			lines = append(lines, f.text("click.turn", map[string]any{"Next": playerName(view, ev.Player.Opponent())}))
		}
		return lines
	default:
		return nil
	}
}

func (f *Formatter) Status(view *checkersdto.GameView) string {
	if view == nil {
		return f.text("error.no_game", nil)
	}
	lines := []string{f.text("status.header", players(view))}
	if view.Finished() {
		result := view.State
		if view.WinnerName != "" {
			result = f.text("history.win", map[string]any{"Winner": view.WinnerName})
		}
		lines = append(lines, f.text("status.finished", map[string]any{"Result": result}))
	} else {
		lines = append(lines, f.text("status.turn", map[string]any{"Turn": view.TurnName}))
	}
	if view.MoveCount > 0 {
		lines = append(lines, f.text("status.moves", map[string]any{
			"Count": view.MoveCount, "Recent": formatRecentMoves(view.Moves),
		}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) History(results []checkersdto.GameResult) string {
	title := f.text("history.title", nil)
	if len(results) == 0 {
		return title + "\n" + f.text("history.empty", nil)
	}
	var sb strings.Builder
	for _, r := range results {
		result := "-"
		if r.WinnerName != "" {
			result = f.text("history.win", map[string]any{"Winner": r.WinnerName})
		}
		method := r.ResultMethod
		if key := "history.method_" + strings.ToLower(strings.TrimSpace(r.ResultMethod)); f.catalog != nil && f.catalog.Has(key) {
			method = f.text(key, nil)
		}
		sb.WriteString(f.text("history.item", map[string]any{
			"Date":   formatShortTime(r.EndedAt),
			"White":  r.WhiteName,
			"Black":  r.BlackName,
			"Result": result,
			"Method": method,
			"Moves":  len(r.Moves),
		}))
		sb.WriteByte('\n')
	}
	return withSeeMore(title, strings.TrimRight(sb.String(), "\n"))
}

func (f *Formatter) StartUsage() string { return f.text("usage.start", nil) }
func (f *Formatter) Unknown() string    { return f.text("usage.unknown", nil) }

// Error maps engine and session errors to user-facing text.
func (f *Formatter) Error(err error) string {
	key := errorKey(err)
	if key != "error.must_capture_select" {
		return f.text(key, nil)
	}
	pieces := ""
	var required *checkers.CaptureRequiredError
	if errors.As(err, &required) {
		pieces = joinSquares(required.Pieces)
	}
	return f.text(key, map[string]any{"Pieces": pieces})
}

func errorKey(err error) string {
	switch {
	case err == nil:
		return "error.unknown"
	case errors.Is(err, checkers.ErrOutOfBounds):
		return "error.out_of_bounds"
	case errors.Is(err, checkers.ErrGameOver):
		return "error.game_over"
	case errors.Is(err, checkers.ErrChainInProgress):
		return "error.chain"
	case errors.Is(err, checkers.ErrMustCapture) && errors.Is(err, checkers.ErrInvalidSelection):
		return "error.must_capture_select"
	case errors.Is(err, checkers.ErrMustCapture):
		return "error.must_capture_move"
	case errors.Is(err, checkers.ErrEmptySquare):
		return "error.empty_square"
	case errors.Is(err, checkers.ErrOpponentPiece):
		return "error.opponent_piece"
	case errors.Is(err, checkers.ErrInvalidDestination):
		return "error.invalid_destination"
	case errors.Is(err, session.ErrNoActiveGame):
		return "error.no_game"
	case errors.Is(err, session.ErrGameInProgress):
		return "error.in_progress"
	case errors.Is(err, session.ErrNotParticipant):
		return "error.not_participant"
	case errors.Is(err, session.ErrNotYourTurn):
		return "error.not_your_turn"
	case errors.Is(err, session.ErrSelfChallenge):
		return "error.self_challenge"
	case errors.Is(err, session.ErrInvalidArgs):
		return "error.invalid_args"
	case errors.Is(err, session.ErrConcurrentUpdate):
		return "error.concurrent"
	default:
		return "error.unknown"
	}
}

func players(view *checkersdto.GameView) map[string]any {
	return map[string]any{"White": view.WhiteName, "Black": view.BlackName}
}

func playerName(view *checkersdto.GameView, c checkers.Color) string {
	if view == nil {
		if c == checkers.Black {
			return "Black"
		}
		return "White"
	}
	if c == checkers.Black {
		return view.BlackName
	}
	return view.WhiteName
}

func notation(ev checkers.Event) string {
	sep := "-"
	if ev.Captured != nil {
		sep = "x"
	}
	return ev.From.String() + sep + ev.To.String()
}

func joinSquares(sqs []checkers.Square) string {
	names := make([]string, len(sqs))
	for i, sq := range sqs {
		names[i] = sq.String()
	}
	return strings.Join(names, ", ")
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%02d/%02d %02d:%02d", int(t.Month()), t.Day(), t.Hour(), t.Minute())
}
