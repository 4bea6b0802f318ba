package game

import (
	"errors"
	"math/rand"
	"time"
)

// Phase 对局所处阶段
type Phase string

const (
	PhaseIdle    Phase = "idle"    // 等待作答
	PhaseLocked  Phase = "locked"  // 已提交，反馈展示中，拒绝重复提交
	PhaseStory   Phase = "story"   // 剧情插页
	PhasePenalty Phase = "penalty" // 惩罚弹窗
	PhaseVictory Phase = "victory" // 通关
)

var (
	ErrCharacterNotFound   = errors.New("character not found in pack")
	ErrNoEligibleQuestions = errors.New("no eligible questions in pack")
	ErrSessionComplete     = errors.New("session already complete")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
)

// Session 一局游戏的全部可变状态。由调用方持有并串行驱动，
// 内部不做加锁；阶段字段本身就是防重入的互斥手段。
type Session struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"playerName"`
	Character  Character `json:"character"`

	TotalQuestions int              `json:"totalQuestions"`
	Questions      []Question       `json:"questions"`
	Stories        map[int]StoryCue `json:"stories"`

	Index int   `json:"index"` // 当前题目下标，单调不减，上界为 TotalQuestions
	Phase Phase `json:"phase"`

	CorrectAnswers          int `json:"correctAnswers"`
	FirstTryCorrect         int `json:"firstTryCorrect"`
	WrongAttempts           int `json:"wrongAttempts"`
	CurrentQuestionAttempts int `json:"currentQuestionAttempts"`
	ConsecutiveWrong        int `json:"consecutiveWrong"`
	PenaltyCount            int `json:"penaltyCount"`

	ActiveStory    *StoryCue `json:"activeStory,omitempty"`
	PenaltyMessage string    `json:"penaltyMessage,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// 反馈窗口内的中间状态。序列化后快照恢复的会话也要能正确 Resolve，
	// 所以随其余字段一起进快照。
	LastCorrect    bool `json:"lastCorrect"`
	PendingPenalty bool `json:"pendingPenalty"`

	rng *rand.Rand
}

// SubmitOutcome 一次提交的即时结果，反馈窗口结束后再调用 Resolve 推进阶段
type SubmitOutcome struct {
	Accepted       bool   `json:"accepted"`
	Correct        bool   `json:"correct"`
	CorrectIndex   int    `json:"correctIndex"`
	FirstTry       bool   `json:"firstTry"`
	PenaltyPending bool   `json:"penaltyPending"`
	PenaltyMessage string `json:"penaltyMessage,omitempty"`
}

// NewSession 按请求的题量开一局。题量越界时收敛到可玩题目数（不报错）。
func NewSession(id string, pack *Pack, characterID uint, requested int, rng *rand.Rand, now time.Time) (*Session, error) {
	character, ok := pack.CharacterByID(characterID)
	if !ok {
		return nil, ErrCharacterNotFound
	}
	if pack.EligibleCount() == 0 {
		return nil, ErrNoEligibleQuestions
	}

	questions := SampleQuestions(pack, requested, rng)
	total := len(questions)

	return &Session{
		ID:             id,
		Character:      character,
		TotalQuestions: total,
		Questions:      questions,
		Stories:        AssignStories(total, pack.Script),
		Phase:          PhaseIdle,
		StartedAt:      now,
		rng:            rng,
	}, nil
}

// AttachRand 反序列化恢复出的 Session 需要重新注入随机源
func (s *Session) AttachRand(rng *rand.Rand) {
	s.rng = rng
}

// CurrentQuestion 当前待答题目，通关后返回 false
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.Index >= s.TotalQuestions {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

// Progress 已推进的进度比例 [0,1]
func (s *Session) Progress() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.Index) / float64(s.TotalQuestions)
}

// Submit 提交一个答案下标。非 idle 阶段的提交一律静默丢弃
// （Accepted=false），保证反馈窗口内连点只计分一次。
func (s *Session) Submit(answerIndex int) (SubmitOutcome, error) {
	if s.Phase == PhaseVictory {
		return SubmitOutcome{}, ErrSessionComplete
	}
	if s.Phase != PhaseIdle {
		return SubmitOutcome{Accepted: false}, nil
	}

	q, ok := s.CurrentQuestion()
	if !ok {
		return SubmitOutcome{}, ErrSessionComplete
	}

	firstAttempt := s.CurrentQuestionAttempts == 0
	correct := answerIndex == q.CorrectIndex

	s.Phase = PhaseLocked
	s.LastCorrect = correct
	s.PendingPenalty = false

	outcome := SubmitOutcome{
		Accepted:     true,
		Correct:      correct,
		CorrectIndex: q.CorrectIndex,
	}

	if correct {
		s.CorrectAnswers++
		if firstAttempt {
			s.FirstTryCorrect++
			outcome.FirstTry = true
		}
		s.ConsecutiveWrong = 0
		return outcome, nil
	}

	s.CurrentQuestionAttempts++
	s.WrongAttempts++
	s.ConsecutiveWrong++
	if s.ConsecutiveWrong%2 == 0 {
		s.PendingPenalty = true
		s.PenaltyMessage = PickPenalty(s.rng)
		outcome.PenaltyPending = true
		outcome.PenaltyMessage = s.PenaltyMessage
	}
	return outcome, nil
}

// Resolve 反馈展示结束后的阶段推进，仅在 locked 阶段生效：
// 答对进入剧情插页或下一题（或通关），答错回到原题或进入惩罚弹窗。
func (s *Session) Resolve(now time.Time) Phase {
	if s.Phase != PhaseLocked {
		return s.Phase
	}

	if !s.LastCorrect {
		if s.PendingPenalty {
			s.PendingPenalty = false
			s.PenaltyCount++
			s.Phase = PhasePenalty
		} else {
			s.Phase = PhaseIdle
		}
		return s.Phase
	}

	if cue, ok := s.Stories[s.Index]; ok {
		c := cue
		s.ActiveStory = &c
		s.Phase = PhaseStory
		return s.Phase
	}

	s.advance(now)
	return s.Phase
}

// ContinueStory 关闭剧情插页并推进到下一题
func (s *Session) ContinueStory(now time.Time) error {
	if s.Phase != PhaseStory {
		return ErrWrongPhase
	}
	s.ActiveStory = nil
	s.advance(now)
	return nil
}

// AcknowledgePenalty 关闭惩罚弹窗，原题继续作答
func (s *Session) AcknowledgePenalty() error {
	if s.Phase != PhasePenalty {
		return ErrWrongPhase
	}
	s.PenaltyMessage = ""
	s.Phase = PhaseIdle
	return nil
}

func (s *Session) advance(now time.Time) {
	s.Index++
	s.CurrentQuestionAttempts = 0
	if s.Index >= s.TotalQuestions {
		s.Index = s.TotalQuestions
		t := now
		s.CompletedAt = &t
		s.Phase = PhaseVictory
		return
	}
	s.Phase = PhaseIdle
}

// Summary 通关结算，未通关时返回 false
func (s *Session) Summary() (Summary, bool) {
	if s.Phase != PhaseVictory {
		return Summary{}, false
	}
	return NewSummary(s.FirstTryCorrect, s.TotalQuestions, s.CorrectAnswers, s.WrongAttempts, s.PenaltyCount), true
}
