package appbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/bot"
	"github.com/park285/Cheese-Checkers-bot/internal/config"
	"github.com/park285/Cheese-Checkers-bot/internal/irisfast"
	"github.com/park285/Cheese-Checkers-bot/internal/msgcat"
	"github.com/park285/Cheese-Checkers-bot/internal/presenter"
	"github.com/park285/Cheese-Checkers-bot/internal/render"
	"github.com/park285/Cheese-Checkers-bot/internal/session"
)

type Deps struct {
	Client   *irisfast.Client
	WS       *irisfast.WebSocket
	Sessions *session.Manager
	Results  session.ResultStore
	Handler  *bot.Handler
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	results, err := newResultStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(cfg.RedisURL,
		session.WithRenderer(render.NewBoardRenderer()),
		session.WithResultStore(results),
		session.WithTTL(time.Duration(cfg.GameTTLSec)*time.Second),
		session.WithFlipForBlack(cfg.FlipForBlack),
		session.WithLogger(logger),
	)
	if err != nil {
		_ = results.Close()
		return nil, fmt.Errorf("init sessions: %w", err)
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(cfg.Headers),
		irisfast.WithLogger(logger),
	)
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(cfg.Headers)
	ws.SetLogger(logger)

	egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger)
	formatter := presenter.NewFormatter(catalog, prefixProvider{prefix: cfg.BotPrefix},
		presenter.WithHistoryLimit(cfg.HistoryLimit),
		presenter.WithFormatterLogger(logger),
	)
	handler := bot.NewHandler(cfg.BotPrefix, sessions, presenter.NewPresenter(egress), formatter,
		bot.WithRoomFilter(cfg.RoomAllowed),
		bot.WithHistoryLimit(cfg.HistoryLimit),
		bot.WithLogger(logger),
	)

	return &Deps{Client: client, WS: ws, Sessions: sessions, Results: results, Handler: handler}, nil
}

// newResultStore uses Postgres when DATABASE_URL is set and memory otherwise.
func newResultStore(cfg *config.AppConfig, logger *zap.Logger) (session.ResultStore, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("result_store_memory", zap.String("reason", "DATABASE_URL not set"))
		return session.NewMemoryRepository(), nil
	}
	repo, err := session.NewRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases sessions and the result store.
func (d *Deps) Close(ctx context.Context) {
	if d == nil {
		return
	}
	if d.WS != nil {
		_ = d.WS.Close(ctx)
	}
	if d.Sessions != nil {
		_ = d.Sessions.Close()
	}
	if d.Results != nil {
		_ = d.Results.Close()
	}
}
