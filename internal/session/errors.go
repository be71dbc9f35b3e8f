package session

import "errors"

var (
	ErrNoActiveGame     = errors.New("no active game in this room")
	ErrGameInProgress   = errors.New("a game is already in progress in this room")
	ErrNotParticipant   = errors.New("user is not a participant of this game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrInvalidArgs      = errors.New("invalid arguments")
	ErrConcurrentUpdate = errors.New("game was updated concurrently, retry")
	ErrNotInitialized   = errors.New("session manager not initialized")
)
