package checkers

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutOfBounds        = errors.New("square out of bounds")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrMustCapture        = errors.New("capture is mandatory")
	ErrChainInProgress    = errors.New("jump sequence in progress")
	ErrGameOver           = errors.New("game is over, reset required")

	ErrEmptySquare   = fmt.Errorf("%w: empty square", ErrInvalidSelection)
	ErrOpponentPiece = fmt.Errorf("%w: piece belongs to the opponent", ErrInvalidSelection)
)

// rejections returned from OnCellClick; each Is both its class and its cause.
var (
	errSelectMustCapture = fmt.Errorf("%w: %w", ErrInvalidSelection, ErrMustCapture)
	errMoveMustCapture   = fmt.Errorf("%w: %w", ErrInvalidDestination, ErrMustCapture)
	errNotAMove          = fmt.Errorf("%w: not a legal move", ErrInvalidDestination)
	errChainOnly         = fmt.Errorf("%w: %w", ErrInvalidDestination, ErrChainInProgress)
)

// CaptureRequiredError rejects selecting a piece without a jump while Pieces
// can capture.
type CaptureRequiredError struct {
	Pieces []Square
}

func (e *CaptureRequiredError) Error() string {
	names := make([]string, len(e.Pieces))
	for i, sq := range e.Pieces {
		names[i] = sq.String()
	}
	return fmt.Sprintf("%v (%s)", errSelectMustCapture, strings.Join(names, ", "))
}

func (e *CaptureRequiredError) Unwrap() error { return errSelectMustCapture }
