package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/Cheese-Checkers-bot/internal/config"
	"github.com/park285/Cheese-Checkers-bot/internal/irisfast"
	"github.com/park285/Cheese-Checkers-bot/internal/obslog"
)

// irischeck verifies the Iris REST and websocket endpoints the bot uses and
// prints inbound messages for a short window.
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

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(cfg.Headers),
		irisfast.WithTimeout(8*time.Second),
		irisfast.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	iris, err := client.GetConfig(ctx)
	if err != nil {
		logger.Error("iris_config_error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("iris_config", zap.String("bot_name", iris.BotName), zap.Int("bot_http_port", iris.BotHTTPPort), zap.String("web_server", iris.WebServer))

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 0, time.Second)
	ws.SetHeaderProvider(cfg.Headers)
	ws.SetLogger(logger)
	ws.OnMessage(func(msg *irisfast.Message) {
		logger.Info("ws_message", zap.String("room", msg.Room), zap.String("user", msg.UserID()), zap.String("text", msg.Msg))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_error", zap.Error(err))
		os.Exit(1)
	}

	// 10초간 수신 메시지 관찰
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
