package checkersdto

// GameView is what the presenter needs to show a board to a room.
type GameView struct {
	GameID     string
	Room       string
	WhiteName  string
	BlackName  string
	Turn       string
	TurnName   string
	Status     string
	State      string
	WinnerName string
	Moves      []string
	MoveCount  int
	BoardImage []byte
}

// Finished reports whether the game no longer accepts moves.
func (v *GameView) Finished() bool {
	return v != nil && v.Status != "" && v.Status != "ACTIVE"
}
