package repository

import (
	"birthday_quest_backend/internal/model"

	"gorm.io/gorm"
)

// ResultRepository 对局结算记录的持久层
type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) Create(result *model.SessionResult) error {
	return r.DB.Create(result).Error
}

// Leaderboard 按首答正确率降序、用时升序取前 limit 条
func (r *ResultRepository) Leaderboard(limit int) ([]model.SessionResult, error) {
	var results []model.SessionResult
	err := r.DB.Order("accuracy_percent desc, duration_seconds asc").Limit(limit).Find(&results).Error
	return results, err
}

func (r *ResultRepository) Recent(limit int) ([]model.SessionResult, error) {
	var results []model.SessionResult
	err := r.DB.Order("completed_at desc").Limit(limit).Find(&results).Error
	return results, err
}

func (r *ResultRepository) FindBySessionID(sessionID string) (*model.SessionResult, error) {
	var result model.SessionResult
	if err := r.DB.Where("session_id = ?", sessionID).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
