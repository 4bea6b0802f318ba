package service

import (
	"context"
	"encoding/json"
	"time"

	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/model"
	"birthday_quest_backend/internal/repository"
	"birthday_quest_backend/internal/util"
	"birthday_quest_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	leaderboardCacheKey = "quest:leaderboard"
	leaderboardCacheTTL = 30 * time.Second
	leaderboardLimit    = 20
)

// ResultService 通关结算的落库与查询，排行榜带 Redis 短缓存
type ResultService struct {
	ResultRepo *repository.ResultRepository
	Redis      *redis.Client
}

func NewResultService(resultRepo *repository.ResultRepository, rdb *redis.Client) *ResultService {
	return &ResultService{
		ResultRepo: resultRepo,
		Redis:      rdb,
	}
}

// Record 把通关的对局写成一条结算记录并失效排行榜缓存
func (s *ResultService) Record(sess *game.Session, playerName string) error {
	summary, ok := sess.Summary()
	if !ok {
		return nil
	}

	duration := 0
	if sess.CompletedAt != nil {
		duration = int(sess.CompletedAt.Sub(sess.StartedAt).Seconds())
	}
	completedAt := time.Now()
	if sess.CompletedAt != nil {
		completedAt = *sess.CompletedAt
	}

	result := &model.SessionResult{
		SessionID:       sess.ID,
		PlayerName:      playerName,
		CharacterID:     sess.Character.ID,
		CharacterName:   sess.Character.Name,
		TotalQuestions:  summary.TotalQuestions,
		CorrectAnswers:  summary.CorrectAnswers,
		FirstTryCorrect: summary.FirstTryCorrect,
		WrongAttempts:   summary.WrongAttempts,
		PenaltyCount:    summary.PenaltyCount,
		AccuracyPercent: summary.Accuracy,
		Rating:          summary.Rating,
		DurationSeconds: duration,
		CompletedAt:     completedAt,
	}

	if err := s.ResultRepo.Create(result); err != nil {
		return err
	}
	s.invalidateLeaderboard()
	return nil
}

// Leaderboard 前 20 名，优先走 Redis 缓存
func (s *ResultService) Leaderboard() ([]model.SessionResult, error) {
	if s.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if data, err := s.Redis.Get(ctx, leaderboardCacheKey).Bytes(); err == nil {
			var cached []model.SessionResult
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	results, err := s.ResultRepo.Leaderboard(leaderboardLimit)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(results); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.Redis.Set(ctx, leaderboardCacheKey, data, leaderboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("写入排行榜缓存失败", zap.Error(err))
			}
		}
	}
	return results, nil
}

func (s *ResultService) Recent(limit int) ([]model.SessionResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ResultRepo.Recent(limit)
}

// BySessionID 按会话 ID 查单条结算记录
func (s *ResultService) BySessionID(sessionID string) (*model.SessionResult, error) {
	result, err := s.ResultRepo.FindBySessionID(sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *ResultService) invalidateLeaderboard() {
	if s.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Redis.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		logger.Log.Warn("失效排行榜缓存失败", zap.Error(err))
	}
}
