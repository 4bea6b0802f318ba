package game

import "math"

// 结算评级，按首答正确率分四档
const (
	RatingLegendary = "LEGENDARY CHAMPION"
	RatingHero      = "BIRTHDAY HERO"
	RatingTrooper   = "PARTY TROOPER"
	RatingGoodSport = "GOOD SPORT"
)

// Summary 通关结算数据
type Summary struct {
	TotalQuestions  int     `json:"totalQuestions"`
	CorrectAnswers  int     `json:"correctAnswers"`
	FirstTryCorrect int     `json:"firstTryCorrect"`
	WrongAttempts   int     `json:"wrongAttempts"` // 扣分项，单独展示
	PenaltyCount    int     `json:"penaltyCount"`
	Accuracy        float64 `json:"accuracy"` // 首答正确率百分比
	Rating          string  `json:"rating"`
}

func NewSummary(firstTry, total, correct, wrong, penalties int) Summary {
	accuracy := 0.0
	if total > 0 {
		accuracy = float64(firstTry) / float64(total) * 100
	}
	return Summary{
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		FirstTryCorrect: firstTry,
		WrongAttempts:   wrong,
		PenaltyCount:    penalties,
		Accuracy:        math.Round(accuracy*10) / 10,
		Rating:          Rate(accuracy),
	}
}

// Rate 按百分比评级：>=90 / >=75 / >=50 / 其余
func Rate(accuracy float64) string {
	switch {
	case accuracy >= 90:
		return RatingLegendary
	case accuracy >= 75:
		return RatingHero
	case accuracy >= 50:
		return RatingTrooper
	default:
		return RatingGoodSport
	}
}
