package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
	"github.com/park285/Cheese-Checkers-bot/internal/config"
	"github.com/park285/Cheese-Checkers-bot/internal/irisfast"
	"github.com/park285/Cheese-Checkers-bot/internal/msgcat"
	"github.com/park285/Cheese-Checkers-bot/internal/presenter"
	"github.com/park285/Cheese-Checkers-bot/internal/render"
	"github.com/park285/Cheese-Checkers-bot/internal/session"
)

type stubRenderer struct{}

func (stubRenderer) RenderPNG(context.Context, checkers.Frame, render.RenderOptions) ([]byte, error) {
	return []byte("png"), nil
}

type chatLog struct {
	mu     sync.Mutex
	texts  []string
	images int
}

func (c *chatLog) SendText(_ context.Context, _ string, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, message)
	return nil
}

func (c *chatLog) SendImage(context.Context, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images++
	return nil
}

func (c *chatLog) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) == 0 {
		return ""
	}
	return c.texts[len(c.texts)-1]
}

type fixedPrefix string

func (p fixedPrefix) Prefix() string { return string(p) }

func newTestHandler(t *testing.T, opts ...Option) (*Handler, *chatLog) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	mgr, err := session.NewManager(fmt.Sprintf("redis://%s/0", mr.Addr()),
		session.WithLogger(zap.NewNop()),
		session.WithRenderer(stubRenderer{}),
	)
	if err != nil {
		t.Fatalf("session.NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	out := &chatLog{}
	f := presenter.NewFormatter(cat, fixedPrefix("!"))
	return NewHandler("!", mgr, presenter.NewPresenter(out), f, opts...), out
}

func say(t *testing.T, h *Handler, room, sender, text string) {
	t.Helper()
	name := sender
	msg := &irisfast.Message{Msg: text, Room: room, Sender: &name, JSON: &irisfast.MessageJSON{UserID: "id-" + sender}}
	require.NoError(t, h.Handle(context.Background(), msg))
}

func TestHandle_IgnoresForeignMessages(t *testing.T) {
	h, out := newTestHandler(t)
	say(t, h, "roomA", "alice", "hello")
	say(t, h, "roomA", "alice", "!체스 시작")
	say(t, h, "roomA", "alice", "?체커")
	require.Empty(t, out.texts)

	say(t, h, "roomA", "alice", "!체커")
	require.Contains(t, out.last(), "체커 명령어 안내")
	say(t, h, "roomA", "alice", "!checkers help")
	require.Len(t, out.texts, 2)
}

func TestAccepts_RoomAllowList(t *testing.T) {
	cfg := &config.AppConfig{AllowedRooms: []string{"roomA"}}
	h, _ := newTestHandler(t, WithRoomFilter(cfg.RoomAllowed))
	name := "alice"
	require.True(t, h.accepts(&irisfast.Message{Msg: "!체커 현황", Room: "roomA", Sender: &name}))
	require.False(t, h.accepts(&irisfast.Message{Msg: "!체커 현황", Room: "roomB", Sender: &name}))
	require.False(t, h.accepts(&irisfast.Message{Msg: "!날씨", Room: "roomA", Sender: &name}))
	require.False(t, h.accepts(nil))
}

func TestHandle_GameFlow(t *testing.T) {
	h, out := newTestHandler(t)

	say(t, h, "roomA", "alice", "!체커 시작")
	require.Equal(t, "용법: !체커 시작 @상대 [백|흑|랜덤]", out.last())

	say(t, h, "roomA", "alice", "!체커 시작 @bob 백")
	require.Contains(t, out.last(), "♟️ 체커 대국 시작 — ⚪ alice vs ⚫ bob")
	require.Equal(t, 1, out.images)

	say(t, h, "roomA", "bob", "!체커 시작 @alice")
	require.Contains(t, out.last(), "진행 중인 대국이 있습니다. ⚪ alice vs ⚫ bob")

	say(t, h, "roomA", "alice", "!체커 c3 d4")
	require.Equal(t, "alice: c3 선택 → 이동 가능 b4, d4\nalice: c3-d4\n다음 차례: bob", out.last())
	require.Equal(t, 3, out.images)

	say(t, h, "roomA", "carol", "!체커 f6")
	require.Equal(t, "대국 참가자만 사용할 수 있는 명령입니다.", out.last())

	say(t, h, "roomA", "alice", "!체커 f6")
	require.Equal(t, "지금은 상대 차례입니다.", out.last())

	say(t, h, "roomA", "bob", "!체커 z9")
	require.Contains(t, out.last(), "보드 밖의 칸입니다.")

	say(t, h, "roomA", "bob", "!체커 춤")
	require.Contains(t, out.last(), "알 수 없는 명령입니다.")

	say(t, h, "roomB", "alice", "!체커 시작 @dave")
	require.Equal(t, "다른 방에서 진행 중인 대국이 있습니다. (alice vs bob)", out.last())

	say(t, h, "roomA", "bob", "!체커 기권")
	require.Equal(t, "🏳️ bob 님이 기권했습니다. alice 승리!", out.last())

	say(t, h, "roomA", "bob", "!체커 현황")
	require.Contains(t, out.last(), "• 종료: alice 승")

	say(t, h, "roomA", "alice", "!체커 기록 3")
	hist := out.last()
	require.Contains(t, hist, "♟️ 최근 체커 대국")
	require.Contains(t, hist, "⚪ alice vs ⚫ bob — alice 승 (기권, 1수)")

	say(t, h, "roomA", "bob", "!체커 리셋")
	require.Equal(t, "🔄 새 판을 시작합니다. ⚪ alice vs ⚫ bob", out.last())
	say(t, h, "roomA", "alice", "!체커 현황")
	require.Contains(t, out.last(), "• 차례: alice")
}

func TestHandle_NoGame(t *testing.T) {
	h, out := newTestHandler(t)
	say(t, h, "roomA", "alice", "!체커 c3")
	require.Contains(t, out.last(), "진행 중인 체커 대국이 없습니다")
	say(t, h, "roomA", "alice", "!체커 status")
	require.Contains(t, out.last(), "진행 중인 체커 대국이 없습니다")
	say(t, h, "roomA", "alice", "!체커 기록")
	require.Contains(t, out.last(), "기록된 대국이 없습니다.")
	say(t, h, "roomA", "alice", "!체커 시작 @alice")
	require.Equal(t, "자기 자신에게는 도전할 수 없습니다.", out.last())
	say(t, h, "roomA", "alice", "!체커 시작 @bob 보라")
	require.Contains(t, out.last(), "입력을 이해하지 못했습니다.")
}

func TestHandle_ClickAfterResign(t *testing.T) {
	h, out := newTestHandler(t)
	say(t, h, "roomA", "alice", "!체커 시작 @bob 백")
	say(t, h, "roomA", "bob", "!체커 기권")
	images := out.images

	say(t, h, "roomA", "alice", "!체커 c3")
	require.Equal(t, "이미 끝난 대국입니다. `!체커 리셋`으로 새 판을 시작하세요.", out.last())
	require.Equal(t, images, out.images)

	say(t, h, "roomA", "carol", "!체커 c3")
	require.Equal(t, "대국 참가자만 사용할 수 있는 명령입니다.", out.last())
}

func TestHandle_StartTargetBusyElsewhere(t *testing.T) {
	h, out := newTestHandler(t)
	say(t, h, "roomA", "alice", "!체커 시작 @bob 백")

	say(t, h, "roomB", "carol", "!체커 시작 @bob")
	require.Equal(t, "다른 방에서 진행 중인 대국이 있습니다. (alice vs bob)", out.last())

	say(t, h, "roomB", "carol", "!체커 현황")
	require.Contains(t, out.last(), "진행 중인 체커 대국이 없습니다")
}

func TestOnMessage_RunsAsync(t *testing.T) {
	h, out := newTestHandler(t, WithTimeout(time.Second))
	name := "alice"
	h.OnMessage(&irisfast.Message{Msg: "!체커 도움", Room: "roomA", Sender: &name})
	require.Eventually(t, func() bool {
		return strings.Contains(out.last(), "체커 명령어 안내")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLooksLikeSquare(t *testing.T) {
	for in, want := range map[string]bool{
		"c3": true, "z9": true, "5,2": true, "1,x": true,
		"c": false, "c33": false, "춤": false, "가1": false, "33": false,
	} {
		require.Equal(t, want, looksLikeSquare(in), in)
	}
}
