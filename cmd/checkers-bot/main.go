package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/appbuilder"
	appcfg "github.com/park285/Cheese-Checkers-bot/internal/config"
	"github.com/park285/Cheese-Checkers-bot/internal/irisfast"
	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	deps, err := appbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("app_init_error", zap.Error(err))
	}

	deps.WS.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	deps.WS.OnMessage(deps.Handler.OnMessage)

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if iris, err := deps.Client.GetConfig(cctx); err != nil {
		logger.Warn("iris_config_error", zap.Error(err))
	} else {
		logger.Info("iris_config", zap.String("bot_name", iris.BotName), zap.Int("bot_http_port", iris.BotHTTPPort))
	}
	if err := deps.WS.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("ws_connect_error", zap.Error(err))
	}
	cancel()

	logger.Info("bot_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", cfg.EgressMode),
		zap.Strings("allowed_rooms", cfg.AllowedRooms),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("bot_stopping", zap.String("signal", sig.String()))

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	deps.Close(sctx)
}
