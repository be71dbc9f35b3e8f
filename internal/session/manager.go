package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/domain"
	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
	"github.com/park285/Cheese-Checkers-bot/internal/render"
)

const defaultTTL = 24 * time.Hour

// Manager keeps one game per room in Redis and drives the rule engine for it.
type Manager struct {
	rdb       *redis.Client
	renderer  render.BoardRenderer
	results   ResultStore
	ttl       time.Duration
	flipBlack bool
	logger    *zap.Logger
}

type Option func(*Manager)

func WithRenderer(r render.BoardRenderer) Option { return func(m *Manager) { m.renderer = r } }

// WithResultStore sets where finished games are recorded.
func WithResultStore(s ResultStore) Option { return func(m *Manager) { m.results = s } }

// WithTTL sets the expiry of game records and indexes.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithFlipForBlack renders the board from Black's side while Black is to move.
func WithFlipForBlack(on bool) Option { return func(m *Manager) { m.flipBlack = on } }

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.logger = l } }

func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session manager")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	m := &Manager{rdb: rdb, ttl: defaultTTL}
	for _, opt := range opts {
		opt(m)
	}
	if m.renderer == nil {
		m.renderer = render.NewBoardRenderer()
	}
	if m.results == nil {
		m.results = NewMemoryRepository()
	}
	return m, nil
}

func (m *Manager) log() *zap.Logger {
	if m.logger != nil {
		return m.logger
	}
	return obslog.L()
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// CreateGame starts a game between two users in room. colorChoice is the
// challenger's side: white, black or random.
func (m *Manager) CreateGame(ctx context.Context, room, challengerID, challengerName, targetID, targetName, colorChoice string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	room = strings.TrimSpace(room)
	challengerID = strings.TrimSpace(challengerID)
	targetID = strings.TrimSpace(targetID)
	if room == "" || challengerID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: room and both participants required", ErrInvalidArgs)
	}
	if challengerID == targetID {
		return nil, ErrSelfChallenge
	}

	whiteID, whiteName := challengerID, nameOr(challengerName, challengerID)
	blackID, blackName := targetID, nameOr(targetName, targetID)
	swap := false
	switch choice := strings.ToLower(strings.TrimSpace(colorChoice)); choice {
	case "", "random", "r", "랜덤":
		n, _ := rand.Int(rand.Reader, big.NewInt(2))
		swap = n != nil && n.Int64() == 0
	default:
		c, err := checkers.ParseColor(choice)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		swap = c == checkers.Black
	}
	if swap {
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	}

	now := time.Now()
	g := &Game{
		ID:        uuid.NewString(),
		Room:      room,
		WhiteID:   whiteID,
		WhiteName: whiteName,
		BlackID:   blackID,
		BlackName: blackName,
		Snapshot:  checkers.NewController(checkers.WithLogger(m.log())).Snapshot(),
		Moves:     []string{},
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.claimRoom(ctx, g, nil); err != nil {
		return nil, err
	}
	m.log().Info("session_create",
		zap.String("game_id", g.ID),
		zap.String("room", g.Room),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return g, nil
}

// claimRoom stores g and points the room at it. A room whose current game is
// still active is refused unless that game is the one being replaced, whose
// record is dropped in the same transaction.
func (m *Manager) claimRoom(ctx context.Context, g *Game, replaced *Game) error {
	roomK := roomKey(g.Room)
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		curID, err := tx.Get(ctx, roomK).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if replaced != nil {
			// the room must still point at the game being replaced
			if curID != replaced.ID {
				return ErrConcurrentUpdate
			}
		} else {
			if curID != "" {
				cur, err := loadGame(ctx, tx, curID)
				if err != nil && !errors.Is(err, redis.Nil) {
					return err
				}
				if err == nil && cur.Active() {
					return ErrGameInProgress
				}
			}
		}
		raw, err := json.Marshal(g)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
			pipe.Set(ctx, roomK, g.ID, m.ttl)
			for _, uid := range []string{g.WhiteID, g.BlackID} {
				pipe.SAdd(ctx, idxUserKey(uid), g.ID)
				// 인덱스 키 TTL도 게임과 동일하게 갱신
				pipe.Expire(ctx, idxUserKey(uid), m.ttl)
			}
			if replaced != nil {
				pipe.Del(ctx, gameKey(replaced.ID))
				pipe.SRem(ctx, idxUserKey(replaced.WhiteID), replaced.ID)
				pipe.SRem(ctx, idxUserKey(replaced.BlackID), replaced.ID)
			}
			return nil
		})
		return err
	}, roomK)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentUpdate
	}
	return err
}

// GameByRoom returns the latest game of the room regardless of status, or
// nil when the room has none.
func (m *Manager) GameByRoom(ctx context.Context, room string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	room = strings.TrimSpace(room)
	if room == "" {
		return nil, nil
	}
	id, err := m.rdb.Get(ctx, roomKey(room)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g, err := loadGame(ctx, m.rdb, id)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return g, err
}

// GetActiveGameByRoom returns the room's game only while it is active.
func (m *Manager) GetActiveGameByRoom(ctx context.Context, room string) (*Game, error) {
	g, err := m.GameByRoom(ctx, room)
	if err != nil || g == nil || !g.Active() {
		return nil, err
	}
	return g, nil
}

// GetActiveGameByUser returns the most recently updated active game of a user
// in any room.
func (m *Manager) GetActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := loadGame(ctx, m.rdb, id)
		if gerr == nil && g.Active() {
			list = append(list, g)
		}
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

// Click applies one cell click of userID to the room's game.
func (m *Manager) Click(ctx context.Context, room, userID, square string) (*Game, checkers.Event, error) {
	g, events, err := m.Clicks(ctx, room, userID, []string{square})
	if len(events) > 0 {
		return g, events[0], err
	}
	return g, checkers.Event{}, err
}

// Clicks applies the squares in order as cell clicks and stops at the first
// rejection. Accepted clicks are stored even when a later one is rejected;
// the rejection is returned alongside the updated game.
func (m *Manager) Clicks(ctx context.Context, room, userID string, squares []string) (*Game, []checkers.Event, error) {
	if m == nil || m.rdb == nil {
		return nil, nil, ErrNotInitialized
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || len(squares) == 0 {
		return nil, nil, ErrInvalidArgs
	}
	g, err := m.GameByRoom(ctx, room)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrNoActiveGame
	}
	if _, ok := g.ColorOf(userID); !ok {
		return g, nil, ErrNotParticipant
	}
	// finished games stay on the room until reset
	if !g.Active() {
		return g, nil, checkers.ErrGameOver
	}

	gameK := gameKey(g.ID)
	var (
		events   []checkers.Event
		rejected error
	)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		events, rejected = nil, nil
		cur, err := loadGame(ctx, tx, g.ID)
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveGame
		}
		if err != nil {
			return err
		}
		if !cur.Active() {
			return checkers.ErrGameOver
		}
		color, ok := cur.ColorOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		ctrl, err := checkers.Restore(cur.Snapshot, checkers.WithLogger(m.log()))
		if err != nil {
			return fmt.Errorf("restore game %s: %w", cur.ID, err)
		}

		for _, raw := range squares {
			if ctrl.State() == checkers.Playing && ctrl.CurrentPlayer() != color {
				rejected = ErrNotYourTurn
				break
			}
			sq, perr := checkers.ParseSquare(raw)
			if perr != nil {
				if !errors.Is(perr, checkers.ErrOutOfBounds) {
					perr = fmt.Errorf("%w: %w", ErrInvalidArgs, perr)
				}
				rejected = perr
				break
			}
			ev, cerr := ctrl.OnCellClick(sq.Row, sq.Col)
			if cerr != nil {
				rejected = cerr
				break
			}
			events = append(events, ev)
		}
		if len(events) == 0 {
			g = cur
			return nil
		}

		cur.Snapshot = ctrl.Snapshot()
		cur.Moves = ctrl.Turns()
		cur.UpdatedAt = time.Now()
		if winner, over := ctrl.State().Winner(); over {
			cur.Status = StatusFinished
			cur.Winner = cur.IDOf(winner)
			cur.Outcome = winner.String()
		}
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameK, raw, m.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		g = cur
		return nil
	}, gameK)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return g, nil, ErrConcurrentUpdate
		}
		return g, nil, err
	}

	if len(events) > 0 {
		last := events[len(events)-1]
		m.log().Info("session_click",
			zap.String("game_id", g.ID),
			zap.String("room", g.Room),
			zap.String("user_id", userID),
			zap.Int("accepted", len(events)),
			zap.String("event", last.Kind.String()),
			zap.String("state", last.State.String()),
		)
	}
	if g.Status == StatusFinished {
		_ = m.persistIfFinal(ctx, g, "win")
	}
	return g, events, rejected
}

// Reset starts a fresh board for the room's latest game with the same
// players and sides. Only participants may reset.
func (m *Manager) Reset(ctx context.Context, room, userID string) (*Game, error) {
	prev, err := m.GameByRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, ErrNoActiveGame
	}
	if _, ok := prev.ColorOf(userID); !ok {
		return nil, ErrNotParticipant
	}
	now := time.Now()
	g := &Game{
		ID:        uuid.NewString(),
		Room:      prev.Room,
		WhiteID:   prev.WhiteID,
		WhiteName: prev.WhiteName,
		BlackID:   prev.BlackID,
		BlackName: prev.BlackName,
		Snapshot:  checkers.NewController(checkers.WithLogger(m.log())).Snapshot(),
		Moves:     []string{},
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.claimRoom(ctx, g, prev); err != nil {
		return nil, err
	}
	m.log().Info("session_reset",
		zap.String("game_id", g.ID),
		zap.String("previous_id", prev.ID),
		zap.String("room", g.Room),
		zap.String("user_id", strings.TrimSpace(userID)),
	)
	return g, nil
}

// Resign ends the room's active game in favour of the opponent of userID.
func (m *Manager) Resign(ctx context.Context, room, userID string) (*Game, error) {
	userID = strings.TrimSpace(userID)
	g, err := m.GetActiveGameByRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if _, ok := g.ColorOf(userID); !ok {
		return nil, ErrNotParticipant
	}
	gameK := gameKey(g.ID)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := loadGame(ctx, tx, g.ID)
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveGame
		}
		if err != nil {
			return err
		}
		if !cur.Active() {
			return redis.TxFailedErr
		}
		color, _ := cur.ColorOf(userID)
		cur.Status = StatusResigned
		cur.Winner = opponentID(cur, userID)
		cur.Outcome = color.Opponent().String()
		cur.UpdatedAt = time.Now()
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameK, raw, m.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		g = cur
		return nil
	}, gameK)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}
	m.log().Info("session_resign",
		zap.String("game_id", g.ID),
		zap.String("resigner", userID),
		zap.String("winner", g.Winner),
	)
	_ = m.persistIfFinal(ctx, g, "resignation")
	return g, nil
}

// LoadGame returns the game by ID, or nil when it has expired.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	g, err := loadGame(ctx, m.rdb, id)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return g, err
}

// RecentResults lists finished games of a user, newest first.
func (m *Manager) RecentResults(ctx context.Context, userID string, limit int) ([]*domain.CheckersResult, error) {
	if m == nil || m.results == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidArgs
	}
	if limit <= 0 {
		limit = 10
	}
	return m.results.RecentResults(ctx, strings.TrimSpace(userID), limit)
}

// persistIfFinal records a finished game in the result store.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game, method string) error {
	if m == nil || m.results == nil || g == nil || g.Active() {
		return nil
	}
	if err := m.results.SaveResult(ctx, g, method); err != nil {
		m.log().Error("result_persist_error", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.Error(err))
		return err
	}
	m.log().Info("result_persist", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.String("method", method))
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// loadGame reads a game record; a missing key is reported as redis.Nil.
func loadGame(ctx context.Context, c getter, id string) (*Game, error) {
	raw, err := c.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func nameOr(name, fallback string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return fallback
}

func gameKey(id string) string        { return "checkers:game:" + strings.TrimSpace(id) }
func roomKey(room string) string      { return "checkers:room:" + strings.TrimSpace(room) }
func idxUserKey(userID string) string { return "checkers:index:user:" + strings.TrimSpace(userID) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
