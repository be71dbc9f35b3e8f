package irisfast

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Egress abstracts message/image sending over HTTP or WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

const (
	EgressHTTP = "http"
	EgressWS   = "ws"
	EgressAuto = "auto"
)

// NewEgress picks the transport for replies. In auto mode the websocket is
// used while connected and a failed write falls back to HTTP once. With
// dryrun set, websocket writes are only logged.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case EgressWS:
		return &wsEgress{ws: ws, dryrun: dryrun, logger: logger}
	case EgressAuto:
		return &autoEgress{ws: &wsEgress{ws: ws, dryrun: dryrun, logger: logger}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendMessage(ctx, room, message)
}

func (h *httpEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendImage(ctx, room, imageBase64)
}

// wsEgress writes ReplyRequest frames over the websocket.
type wsEgress struct {
	ws     *WebSocket
	dryrun bool
	logger *zap.Logger
}

func (w *wsEgress) available() bool { return w != nil && w.ws != nil && w.ws.Connected() }

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	return w.send(ctx, &ReplyRequest{Type: "text", Room: room, Data: message})
}

func (w *wsEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	return w.send(ctx, &ImageReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

func (w *wsEgress) send(ctx context.Context, frame any) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun", zap.Any("frame_type", frameType(frame)))
		return nil
	}
	return w.ws.WriteJSON(ctx, frame)
}

func frameType(frame any) string {
	switch f := frame.(type) {
	case *ReplyRequest:
		return f.Type
	case *ImageReplyRequest:
		return f.Type
	default:
		return "unknown"
	}
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.available() {
		err := a.ws.SendText(ctx, room, message)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "text"), zap.String("room", room), zap.Error(err))
	}
	return a.http.SendText(ctx, room, message)
}

func (a *autoEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if a.ws.available() {
		err := a.ws.SendImage(ctx, room, imageBase64)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "image"), zap.String("room", room), zap.Error(err))
	}
	return a.http.SendImage(ctx, room, imageBase64)
}
