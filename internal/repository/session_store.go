package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/util"
	"birthday_quest_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "quest:session:"

// SessionStore 活跃对局的内存索引，写入时同步快照到 Redis。
// Redis 不可用时降级为纯内存，不影响游戏流程。
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	redis    *redis.Client
	ttl      time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*game.Session),
		redis:    rdb,
		ttl:      ttl,
	}
}

func (s *SessionStore) Put(sess *game.Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.snapshot(sess)
}

// Get 取会话。内存未命中时尝试用 Redis 快照恢复（进程重启后的续玩），
// 恢复失败按不存在处理。调用方通过 SessionService 为恢复出的会话
// 重新注入随机源与定时器。
func (s *SessionStore) Get(id string) (*game.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	restored, err := s.fromSnapshot(id)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 并发恢复时保留先注册的实例
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = restored
	return restored, nil
}

func (s *SessionStore) fromSnapshot(id string) (*game.Session, error) {
	if s.redis == nil {
		return nil, util.ErrSessionNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := s.redis.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		return nil, err
	}
	sess, err := DecodeSession(data)
	if err != nil {
		logger.Log.Warn("解析会话快照失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	logger.Log.Info("会话从快照恢复", zap.String("session_id", id), zap.String("phase", string(sess.Phase)))
	return sess, nil
}

// DecodeSession 反序列化会话快照
func DecodeSession(data []byte) (*game.Session, error) {
	var sess game.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		return nil, util.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
			logger.Log.Warn("删除会话快照失败", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// Snapshot 将会话当前状态写入 Redis，供状态变更后调用
func (s *SessionStore) Snapshot(sess *game.Session) {
	s.snapshot(sess)
}

func (s *SessionStore) snapshot(sess *game.Session) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		logger.Log.Warn("序列化会话快照失败", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Set(ctx, sessionKeyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		logger.Log.Warn("写入会话快照失败", zap.String("session_id", sess.ID), zap.Error(err))
	}
}
