package checkersdto

import "time"

type GameResult struct {
	GameID       string
	WhiteName    string
	BlackName    string
	Result       string
	ResultMethod string
	WinnerName   string
	Moves        []string
	EndedAt      time.Time
	Duration     time.Duration
}
