package presenter

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/park285/Cheese-Checkers-bot/pkg/checkersdto"
)

// Sender is the outbound side of the chat transport.
type Sender interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Presenter delivers formatted messages and board images without coupling to the command layer.
type Presenter struct {
	out Sender
}

func NewPresenter(out Sender) *Presenter {
	return &Presenter{out: out}
}

// Text sends message when it is not blank.
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.out == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.out.SendText(ctx, room, message)
}

// Board sends the optional message and then the board image of view.
func (p *Presenter) Board(ctx context.Context, room, message string, view *checkersdto.GameView) error {
	if p == nil || p.out == nil {
		return nil
	}
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if view != nil && len(view.BoardImage) > 0 {
		encoded := base64.StdEncoding.EncodeToString(view.BoardImage)
		if err := p.out.SendImage(ctx, room, encoded); err != nil {
			return err
		}
	}
	return nil
}
