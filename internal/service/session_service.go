package service

import (
	"math/rand"
	"sync"
	"time"

	"birthday_quest_backend/internal/config"
	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/repository"
	"birthday_quest_backend/internal/util"
	"birthday_quest_backend/pkg/logger"
	"birthday_quest_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestionView 下发给玩家端的题目，不携带正确答案下标
type QuestionView struct {
	Text         string     `json:"text"`
	Answers      []string   `json:"answers"`
	Media        game.Media `json:"media"`
	CategoryName string     `json:"categoryName"`
	CategoryIcon string     `json:"categoryIcon"`
}

// SessionView 对局状态的客户端视图
type SessionView struct {
	ID              string         `json:"id"`
	PlayerName      string         `json:"playerName"`
	Character       game.Character `json:"character"`
	Phase           game.Phase     `json:"phase"`
	Index           int            `json:"index"`
	TotalQuestions  int            `json:"totalQuestions"`
	Progress        float64        `json:"progress"`
	Question        *QuestionView  `json:"question,omitempty"`
	ActiveStory     *game.StoryCue `json:"activeStory,omitempty"`
	PenaltyMessage  string         `json:"penaltyMessage,omitempty"`
	CorrectAnswers  int            `json:"correctAnswers"`
	FirstTryCorrect int            `json:"firstTryCorrect"`
	WrongAttempts   int            `json:"wrongAttempts"`
	PenaltyCount    int            `json:"penaltyCount"`
	Summary         *game.Summary  `json:"summary,omitempty"`
}

// SubmitResult 提交答案的响应：即时反馈 + 最新对局状态
type SubmitResult struct {
	Outcome game.SubmitOutcome `json:"outcome"`
	Session *SessionView       `json:"session"`
}

// liveMeta 会话的服务端附属状态（定时器、回放游标），不参与快照。
// 从快照恢复的会话由 session() 重建。
type liveMeta struct {
	feedback game.Timer // 反馈窗口定时器，restart 时取消
	expiry   game.Timer
	replay   *game.Replay
}

// SessionService 驱动对局状态机。所有状态变更经同一把锁串行化，
// 反馈窗口结束后的阶段推进由注入的时钟调度。
type SessionService struct {
	Store   *repository.SessionStore
	Packs   *PackService
	Results *ResultService
	Hub     *SpectatorHub
	Cfg     *config.Config

	Clock   game.Clock
	NewRand func() *rand.Rand

	mu   sync.Mutex
	meta map[string]*liveMeta
}

func NewSessionService(store *repository.SessionStore, packs *PackService, results *ResultService, hub *SpectatorHub, cfg *config.Config) *SessionService {
	return &SessionService{
		Store:   store,
		Packs:   packs,
		Results: results,
		Hub:     hub,
		Cfg:     cfg,
		Clock:   game.RealClock(),
		NewRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		meta: make(map[string]*liveMeta),
	}
}

// Create 开一局：抽题、排剧情、注册过期清理
func (s *SessionService) Create(playerName string, characterID uint, count int) (*SessionView, error) {
	pack, err := s.Packs.Current()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	sess, err := game.NewSession(id, pack, characterID, count, s.NewRand(), s.Clock.Now())
	if err != nil {
		return nil, err
	}
	sess.PlayerName = playerName

	s.Store.Put(sess)
	m := &liveMeta{}
	m.expiry = s.Clock.AfterFunc(s.Cfg.Game.SessionTTL, func() { s.expire(id) })
	s.meta[id] = m

	monitoring.SessionCounter.WithLabelValues("started").Inc()
	logger.Log.Info("对局开始",
		zap.String("session_id", id),
		zap.String("player", playerName),
		zap.Uint("character_id", characterID),
		zap.Int("questions", sess.TotalQuestions))

	view := s.view(sess)
	s.broadcast(GameEvent{Type: "session_started", SessionID: id, Data: view})
	return view, nil
}

func (s *SessionService) Get(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// session 取会话。Store 可能把会话从 Redis 快照里恢复出来，
// 这类会话没有 liveMeta：重新注入随机源并重建过期定时器。调用方持锁。
func (s *SessionService) session(id string) (*game.Session, error) {
	sess, err := s.Store.Get(id)
	if err != nil {
		return nil, err
	}
	if _, ok := s.meta[id]; !ok {
		sess.AttachRand(s.NewRand())
		m := &liveMeta{}
		m.expiry = s.Clock.AfterFunc(s.Cfg.Game.SessionTTL, func() { s.expire(id) })
		if sess.Phase == game.PhaseLocked {
			// 反馈窗口的定时器没有跨进程，重新调度推进
			m.feedback = s.Clock.AfterFunc(s.Cfg.Game.FeedbackDelay, func() { s.resolve(id) })
		}
		s.meta[id] = m
		logger.Log.Info("恢复会话的运行时状态", zap.String("session_id", id))
	}
	return sess, nil
}

// Submit 提交答案。反馈窗口内的重复提交返回 Accepted=false，
// 被接受的提交会在反馈时长结束后自动推进阶段。
func (s *SessionService) Submit(id string, answerIndex int) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	outcome, err := sess.Submit(answerIndex)
	if err != nil {
		return nil, err
	}

	if !outcome.Accepted {
		monitoring.AnswerCounter.WithLabelValues("rejected").Inc()
		return &SubmitResult{Outcome: outcome, Session: s.view(sess)}, nil
	}

	if outcome.Correct {
		monitoring.AnswerCounter.WithLabelValues("correct").Inc()
	} else {
		monitoring.AnswerCounter.WithLabelValues("wrong").Inc()
	}

	if m, ok := s.meta[id]; ok {
		m.feedback = s.Clock.AfterFunc(s.Cfg.Game.FeedbackDelay, func() { s.resolve(id) })
	}

	s.Store.Snapshot(sess)
	s.broadcast(GameEvent{Type: "answer", SessionID: id, Data: map[string]interface{}{
		"index":   sess.Index,
		"correct": outcome.Correct,
	}})
	return &SubmitResult{Outcome: outcome, Session: s.view(sess)}, nil
}

// resolve 反馈窗口结束，由时钟回调触发
func (s *SessionService) resolve(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return
	}

	phase := sess.Resolve(s.Clock.Now())
	if phase == game.PhasePenalty {
		monitoring.PenaltyCounter.Inc()
	}
	s.afterTransition(sess)
}

// ContinueStory 玩家关闭剧情插页
func (s *SessionService) ContinueStory(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if err := sess.ContinueStory(s.Clock.Now()); err != nil {
		return nil, err
	}
	s.afterTransition(sess)
	return s.view(sess), nil
}

// AcknowledgePenalty 玩家关闭惩罚弹窗
func (s *SessionService) AcknowledgePenalty(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if err := sess.AcknowledgePenalty(); err != nil {
		return nil, err
	}
	s.afterTransition(sess)
	return s.view(sess), nil
}

// afterTransition 阶段变更后的统一收尾：快照、广播、通关结算。调用方持锁。
func (s *SessionService) afterTransition(sess *game.Session) {
	s.Store.Snapshot(sess)

	if sess.Phase == game.PhaseVictory {
		if s.Results != nil {
			if err := s.Results.Record(sess, sess.PlayerName); err != nil {
				logger.Log.Error("结算落库失败", zap.String("session_id", sess.ID), zap.Error(err))
			}
		}
		monitoring.SessionCounter.WithLabelValues("completed").Inc()
		summary, _ := sess.Summary()
		logger.Log.Info("对局通关",
			zap.String("session_id", sess.ID),
			zap.Float64("accuracy", summary.Accuracy),
			zap.String("rating", summary.Rating))
		s.broadcast(GameEvent{Type: "victory", SessionID: sess.ID, Data: summary})
		return
	}

	s.broadcast(GameEvent{Type: "phase", SessionID: sess.ID, Data: map[string]interface{}{
		"phase": sess.Phase,
		"index": sess.Index,
	}})
}

// Summary 通关结算，未通关返回 ErrSessionNotComplete
func (s *SessionService) Summary(id string) (*game.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	summary, ok := sess.Summary()
	if !ok {
		return nil, util.ErrSessionNotComplete
	}
	return &summary, nil
}

// Restart 放弃当前对局并用同一角色重新开局。count 为 0 时沿用原题量。
func (s *SessionService) Restart(id string, count int) (*SessionView, error) {
	pack, err := s.Packs.Current()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = old.TotalQuestions
	}

	if m, ok := s.meta[id]; ok {
		if m.feedback != nil {
			m.feedback.Stop()
		}
		if m.expiry != nil {
			m.expiry.Stop()
		}
	}

	newID := uuid.NewString()
	sess, err := game.NewSession(newID, pack, old.Character.ID, count, s.NewRand(), s.Clock.Now())
	if err != nil {
		return nil, err
	}
	sess.PlayerName = old.PlayerName

	s.Store.Delete(id)
	delete(s.meta, id)

	s.Store.Put(sess)
	m := &liveMeta{}
	m.expiry = s.Clock.AfterFunc(s.Cfg.Game.SessionTTL, func() { s.expire(newID) })
	s.meta[newID] = m

	monitoring.SessionCounter.WithLabelValues("restarted").Inc()
	logger.Log.Info("对局重开",
		zap.String("old_session_id", id),
		zap.String("session_id", newID),
		zap.Int("questions", sess.TotalQuestions))

	view := s.view(sess)
	s.broadcast(GameEvent{Type: "restarted", SessionID: id, Data: view})
	return view, nil
}

// Replay 通关后的剧情回放，首次调用时构建播放列表
func (s *SessionService) Replay(id string) (*game.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if sess.Phase != game.PhaseVictory {
		return nil, util.ErrReplayNotAvailable
	}

	// session() 保证 meta 已存在
	m := s.meta[id]
	if m.replay == nil {
		pack, err := s.Packs.Current()
		if err != nil {
			return nil, err
		}
		m.replay = game.NewReplay(pack.Script)
	}
	return m.replay, nil
}

// ReplayNext 推进回放游标，item 为推进后的片段，done 表示已放完
func (s *SessionService) ReplayNext(id string) (game.ReplayItem, bool, error) {
	replay, err := s.Replay(id)
	if err != nil {
		return game.ReplayItem{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, done := replay.Advance()
	return item, done, nil
}

// expire 会话保留超时，清理内存与快照
func (s *SessionService) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meta[id]; !ok {
		return
	}
	s.Store.Delete(id)
	delete(s.meta, id)
	logger.Log.Info("对局过期清理", zap.String("session_id", id))
}

func (s *SessionService) broadcast(event GameEvent) {
	if s.Hub != nil {
		s.Hub.Broadcast(event)
	}
}

// view 生成客户端视图，调用方持锁
func (s *SessionService) view(sess *game.Session) *SessionView {
	v := &SessionView{
		ID:              sess.ID,
		PlayerName:      sess.PlayerName,
		Character:       sess.Character,
		Phase:           sess.Phase,
		Index:           sess.Index,
		TotalQuestions:  sess.TotalQuestions,
		Progress:        sess.Progress(),
		ActiveStory:     sess.ActiveStory,
		PenaltyMessage:  sess.PenaltyMessage,
		CorrectAnswers:  sess.CorrectAnswers,
		FirstTryCorrect: sess.FirstTryCorrect,
		WrongAttempts:   sess.WrongAttempts,
		PenaltyCount:    sess.PenaltyCount,
	}
	if q, ok := sess.CurrentQuestion(); ok {
		v.Question = &QuestionView{
			Text:         q.Text,
			Answers:      q.Answers,
			Media:        q.Media,
			CategoryName: q.CategoryName,
			CategoryIcon: q.CategoryIcon,
		}
	}
	if summary, ok := sess.Summary(); ok {
		v.Summary = &summary
	}
	return v
}
