package irisfast

import (
	"context"
	"strings"
)

// Message is one inbound chat event pushed by Iris over the websocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON carries the raw KakaoTalk fields Iris forwards.
type MessageJSON struct {
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// UserID returns the stable user identifier of the sender, falling back to
// the display name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	return m.SenderName()
}

// SenderName returns the display name of the sender.
func (m *Message) SenderName() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return strings.TrimSpace(*m.Sender)
}

// Config is the subset of the Iris /config response the bot reads.
type Config struct {
	BotName     string `json:"bot_name"`
	BotHTTPPort int    `json:"bot_http_port"`
	WebServer   string `json:"web_server_endpoint,omitempty"`
}

// ReplyRequest is the /reply body for text, also used as the websocket
// egress frame.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// ImageReplyRequest carries a base64 encoded image.
type ImageReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

// WSClient is the inbound side of the transport.
type WSClient interface {
	Connect(ctx context.Context) error
	OnMessage(cb MessageCallback) int
	RemoveMessageCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	Close(ctx context.Context) error
}

var _ WSClient = (*WebSocket)(nil)
