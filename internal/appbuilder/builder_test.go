package appbuilder

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/config"
	"github.com/park285/Cheese-Checkers-bot/internal/session"
)

func TestNew_WiresMemoryStoreWithoutDatabase(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := &config.AppConfig{
		IrisBaseURL:  "http://iris.test",
		IrisWSURL:    "ws://iris.test/ws",
		BotPrefix:    "!",
		RedisURL:     fmt.Sprintf("redis://%s/0", mr.Addr()),
		EgressMode:   "auto",
		GameTTLSec:   60,
		HistoryLimit: 5,
	}
	deps, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer deps.Close(context.Background())

	require.NotNil(t, deps.Handler)
	require.Equal(t, "!", deps.Handler.Prefix())
	_, isMemory := deps.Results.(*session.MemoryRepository)
	require.True(t, isMemory)

	g, err := deps.Sessions.CreateGame(context.Background(), "roomA", "alice", "alice", "bob", "bob", "white")
	require.NoError(t, err)
	require.Greater(t, mr.TTL("checkers:game:"+g.ID).Seconds(), 0.0)
}

func TestNew_RejectsBadInputs(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	_, err = New(&config.AppConfig{RedisURL: "memcached://x", MessagesDir: t.TempDir()}, nil)
	require.ErrorContains(t, err, "init sessions")
}
