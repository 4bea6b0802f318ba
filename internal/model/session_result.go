package model

import "time"

// swagger:model SessionResult
// SessionResult 通关后落库的结算记录，排行榜与历史查询用
type SessionResult struct {
	BaseModel
	SessionID       string    `gorm:"size:36;uniqueIndex;not null" json:"sessionId"`
	PlayerName      string    `gorm:"size:100" json:"playerName"`
	CharacterID     uint      `gorm:"index;type:bigint unsigned" json:"characterId"`
	CharacterName   string    `gorm:"size:100" json:"characterName"`
	TotalQuestions  int       `json:"totalQuestions"`
	CorrectAnswers  int       `json:"correctAnswers"`
	FirstTryCorrect int       `json:"firstTryCorrect"`
	WrongAttempts   int       `json:"wrongAttempts"`
	PenaltyCount    int       `json:"penaltyCount"`
	AccuracyPercent float64   `json:"accuracyPercent"`
	Rating          string    `gorm:"size:50" json:"rating"`
	DurationSeconds int       `json:"durationSeconds"`
	CompletedAt     time.Time `gorm:"index" json:"completedAt"`
}

func (SessionResult) TableName() string {
	return "session_results"
}
