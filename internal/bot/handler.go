package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/irisfast"
	"github.com/park285/Cheese-Checkers-bot/internal/presenter"
	"github.com/park285/Cheese-Checkers-bot/internal/session"
	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

const maxHistoryLimit = 50

// Handler turns chat messages into session operations and replies through
// the presenter.
type Handler struct {
	prefix       string
	roomAllowed  func(room string) bool
	sessions     *session.Manager
	presenter    *presenter.Presenter
	formatter    *presenter.Formatter
	historyLimit int
	timeout      time.Duration
	logger       *zap.Logger
}

type Option func(*Handler)

// WithRoomFilter limits the bot to rooms for which allowed returns true.
func WithRoomFilter(allowed func(room string) bool) Option {
	return func(h *Handler) { h.roomAllowed = allowed }
}

func WithHistoryLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(prefix string, sessions *session.Manager, p *presenter.Presenter, f *presenter.Formatter, opts ...Option) *Handler {
	h := &Handler{
		prefix:       strings.TrimSpace(prefix),
		sessions:     sessions,
		presenter:    p,
		formatter:    f,
		historyLimit: 10,
		timeout:      15 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Prefix implements presenter.PrefixProvider.
func (h *Handler) Prefix() string { return h.prefix }

// OnMessage is the websocket callback. Matching messages are handled on
// their own goroutine so the read loop never blocks.
func (h *Handler) OnMessage(msg *irisfast.Message) {
	if !h.accepts(msg) {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("bot_panic", zap.Any("recover", r), zap.String("room", msg.Room))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.Handle(ctx, msg); err != nil {
			h.logger.Warn("bot_reply_error", zap.String("room", msg.Room), zap.Error(err))
		}
	}()
}

func (h *Handler) accepts(msg *irisfast.Message) bool {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return false
	}
	if h.roomAllowed != nil && !h.roomAllowed(msg.Room) {
		h.logger.Debug("bot_ignore_room", zap.String("room", msg.Room))
		return false
	}
	_, ok := h.parse(msg.Msg)
	return ok
}

// parse strips the prefix and the command word and returns the arguments.
func (h *Handler) parse(text string) ([]string, bool) {
	text = strings.TrimSpace(text)
	if h.prefix == "" || !strings.HasPrefix(text, h.prefix) {
		return nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, h.prefix))
	if len(fields) == 0 {
		return nil, false
	}
	switch strings.ToLower(fields[0]) {
	case "체커", "checkers":
		return fields[1:], true
	default:
		return nil, false
	}
}

// Handle runs one command synchronously. Messages that are not checkers
// commands are ignored.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) error {
	if msg == nil {
		return nil
	}
	args, ok := h.parse(msg.Msg)
	if !ok {
		return nil
	}
	room := strings.TrimSpace(msg.Room)
	if len(args) == 0 {
		return h.presenter.Text(ctx, room, h.formatter.Help())
	}

	sub := strings.ToLower(args[0])
	h.logger.Debug("bot_command",
		zap.String("room", room),
		zap.String("user", playerID(msg)),
		zap.String("sub", sub),
	)

	switch sub {
	case "도움", "help":
		return h.presenter.Text(ctx, room, h.formatter.Help())
	case "시작", "start":
		return h.start(ctx, msg, args[1:])
	case "현황", "status":
		return h.status(ctx, room)
	case "리셋", "reset":
		return h.reset(ctx, msg)
	case "기권", "resign":
		return h.resign(ctx, msg)
	case "기록", "history":
		return h.history(ctx, msg, args[1:])
	default:
		if !looksLikeSquare(args[0]) {
			return h.presenter.Text(ctx, room, h.formatter.Unknown())
		}
		return h.clicks(ctx, msg, args)
	}
}

func (h *Handler) start(ctx context.Context, msg *irisfast.Message, args []string) error {
	room := strings.TrimSpace(msg.Room)
	if len(args) == 0 || !strings.HasPrefix(args[0], "@") {
		return h.presenter.Text(ctx, room, h.formatter.StartUsage())
	}
	challenger := playerID(msg)
	target := sanitizeUserArg(args[0])
	if challenger == "" || target == "" {
		return h.presenter.Text(ctx, room, h.formatter.Error(session.ErrInvalidArgs))
	}
	color := ""
	if len(args) >= 2 {
		color = args[1]
	}

	// 양쪽 모두 다른 방 대국이 없어야 함
	for _, uid := range []string{challenger, target} {
		if g, err := h.sessions.GetActiveGameByUser(ctx, uid); err == nil && g != nil && g.Room != room {
			return h.presenter.Text(ctx, room, h.formatter.OtherRoom(summaryView(g)))
		}
	}

	g, err := h.sessions.CreateGame(ctx, room, challenger, msg.SenderName(), target, target, color)
	if errors.Is(err, session.ErrGameInProgress) {
		cur, gerr := h.sessions.GetActiveGameByRoom(ctx, room)
		if gerr == nil && cur != nil {
			return h.board(ctx, room, cur, h.formatter.Resumed)
		}
	}
	if err != nil {
		return h.presenter.Text(ctx, room, h.formatter.Error(err))
	}
	return h.board(ctx, room, g, h.formatter.Start)
}

func (h *Handler) clicks(ctx context.Context, msg *irisfast.Message, squares []string) error {
	room := strings.TrimSpace(msg.Room)
	g, events, err := h.sessions.Clicks(ctx, room, playerID(msg), squares)
	if g == nil || len(events) == 0 {
		return h.presenter.Text(ctx, room, h.formatter.Error(err))
	}
	return h.board(ctx, room, g, func(v *checkersdto.GameView) string {
		return h.formatter.Clicks(v, events, err)
	})
}

func (h *Handler) status(ctx context.Context, room string) error {
	g, err := h.sessions.GameByRoom(ctx, room)
	if err != nil {
		return h.presenter.Text(ctx, room, h.formatter.Error(err))
	}
	if g == nil {
		return h.presenter.Text(ctx, room, h.formatter.Status(nil))
	}
	return h.board(ctx, room, g, h.formatter.Status)
}

func (h *Handler) reset(ctx context.Context, msg *irisfast.Message) error {
	room := strings.TrimSpace(msg.Room)
	g, err := h.sessions.Reset(ctx, room, playerID(msg))
	if err != nil {
		return h.presenter.Text(ctx, room, h.formatter.Error(err))
	}
	return h.board(ctx, room, g, h.formatter.Reset)
}

func (h *Handler) resign(ctx context.Context, msg *irisfast.Message) error {
	room := strings.TrimSpace(msg.Room)
	g, err := h.sessions.Resign(ctx, room, playerID(msg))
	if err != nil {
		return h.presenter.Text(ctx, room, h.formatter.Error(err))
	}
	return h.board(ctx, room, g, h.formatter.Resign)
}

func (h *Handler) history(ctx context.Context, msg *irisfast.Message, args []string) error {
	room := strings.TrimSpace(msg.Room)
	limit := h.historyLimit
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = min(n, maxHistoryLimit)
		}
	}
	results, err := h.sessions.RecentResults(ctx, playerID(msg), limit)
	if err != nil {
		return h.presenter.Text(ctx, room, h.formatter.Error(err))
	}
	return h.presenter.Text(ctx, room, h.formatter.History(session.ToDTOResults(results)))
}

// board renders g and sends text plus image. A render failure still sends
// the text.
func (h *Handler) board(ctx context.Context, room string, g *session.Game, text func(*checkersdto.GameView) string) error {
	view, err := h.sessions.ToDTO(ctx, g)
	if err != nil {
		h.logger.Warn("bot_render_error", zap.String("game_id", g.ID), zap.Error(err))
		return h.presenter.Text(ctx, room, text(summaryView(g)))
	}
	return h.presenter.Board(ctx, room, text(view), view)
}

// summaryView is a view without the board image.
func summaryView(g *session.Game) *checkersdto.GameView {
	return &checkersdto.GameView{
		GameID:     g.ID,
		Room:       g.Room,
		WhiteName:  g.WhiteName,
		BlackName:  g.BlackName,
		Status:     string(g.Status),
		WinnerName: g.WinnerName(),
		Moves:      append([]string(nil), g.Moves...),
		MoveCount:  len(g.Moves),
	}
}

// playerID identifies a player by display name, since a mention only
// carries the name. The Iris user id is the fallback.
func playerID(msg *irisfast.Message) string {
	if name := msg.SenderName(); name != "" {
		return name
	}
	return msg.UserID()
}

func sanitizeUserArg(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.TrimSpace(s)
}

// looksLikeSquare accepts "c3"-style names (in or out of range) and
// "row,col" pairs.
func looksLikeSquare(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		return true
	}
	r := []rune(s)
	return len(r) == 2 && unicode.IsLetter(r[0]) && r[0] < unicode.MaxASCII && unicode.IsDigit(r[1])
}
