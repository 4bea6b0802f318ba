package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, questions, requested int) *Session {
	t.Helper()
	p := testPack(map[string]int{"science": questions})
	rng := rand.New(rand.NewSource(99))
	s, err := NewSession("sess-1", p, 1, requested, rng, time.Unix(0, 0))
	require.NoError(t, err)
	return s
}

// 模拟反馈窗口结束后进入剧情时直接继续
func answerCorrect(t *testing.T, s *Session) {
	t.Helper()
	q, ok := s.CurrentQuestion()
	require.True(t, ok)

	outcome, err := s.Submit(q.CorrectIndex)
	require.NoError(t, err)
	require.True(t, outcome.Accepted)
	require.True(t, outcome.Correct)

	phase := s.Resolve(time.Unix(1, 0))
	if phase == PhaseStory {
		require.NoError(t, s.ContinueStory(time.Unix(1, 0)))
	}
}

func answerWrong(t *testing.T, s *Session) SubmitOutcome {
	t.Helper()
	q, ok := s.CurrentQuestion()
	require.True(t, ok)

	outcome, err := s.Submit((q.CorrectIndex + 1) % len(q.Answers))
	require.NoError(t, err)
	require.True(t, outcome.Accepted)
	require.False(t, outcome.Correct)

	if s.Resolve(time.Unix(1, 0)) == PhasePenalty {
		require.NoError(t, s.AcknowledgePenalty())
	}
	return outcome
}

func TestPerfectRunReachesTopRating(t *testing.T) {
	s := newTestSession(t, 30, 10)
	assert.Equal(t, 10, s.TotalQuestions)

	for i := 0; i < 10; i++ {
		assert.Equal(t, PhaseIdle, s.Phase)
		answerCorrect(t, s)
	}

	assert.Equal(t, PhaseVictory, s.Phase)
	assert.Equal(t, 10, s.Index)

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, 10, summary.FirstTryCorrect)
	assert.Equal(t, 10, summary.CorrectAnswers)
	assert.Equal(t, 0, summary.WrongAttempts)
	assert.Equal(t, 100.0, summary.Accuracy)
	assert.Equal(t, RatingLegendary, summary.Rating)
}

func TestDoubleSubmitScoresOnce(t *testing.T) {
	s := newTestSession(t, 10, 5)
	q, _ := s.CurrentQuestion()

	first, err := s.Submit(q.CorrectIndex)
	require.NoError(t, err)
	assert.True(t, first.Accepted)

	// 反馈窗口内的第二次提交静默丢弃
	second, err := s.Submit(q.CorrectIndex)
	require.NoError(t, err)
	assert.False(t, second.Accepted)

	assert.Equal(t, 1, s.CorrectAnswers)
	assert.Equal(t, 1, s.FirstTryCorrect)
}

func TestWrongAnswerKeepsQuestionActive(t *testing.T) {
	s := newTestSession(t, 10, 5)
	before, _ := s.CurrentQuestion()

	answerWrong(t, s)

	assert.Equal(t, PhaseIdle, s.Phase)
	after, _ := s.CurrentQuestion()
	assert.Equal(t, before.ID, after.ID, "wrong answer must not advance the question")
	assert.Equal(t, 1, s.WrongAttempts)
	assert.Equal(t, 1, s.CurrentQuestionAttempts)
	assert.Equal(t, 1, s.ConsecutiveWrong)

	// 没有最大尝试次数限制
	for i := 0; i < 7; i++ {
		answerWrong(t, s)
	}
	still, _ := s.CurrentQuestion()
	assert.Equal(t, before.ID, still.ID)
}

func TestPenaltyTriggersOnEveryEvenStreak(t *testing.T) {
	s := newTestSession(t, 10, 5)

	for i := 1; i <= 6; i++ {
		outcome, err := s.Submit(-1)
		require.NoError(t, err)
		assert.Equal(t, i, s.ConsecutiveWrong)

		if i%2 == 0 {
			assert.True(t, outcome.PenaltyPending, "streak %d must trigger a penalty", i)
			assert.NotEmpty(t, outcome.PenaltyMessage)
			assert.Equal(t, PhasePenalty, s.Resolve(time.Unix(1, 0)))
			require.NoError(t, s.AcknowledgePenalty())
		} else {
			assert.False(t, outcome.PenaltyPending)
			assert.Equal(t, PhaseIdle, s.Resolve(time.Unix(1, 0)))
		}
	}
	assert.Equal(t, 3, s.PenaltyCount)
}

func TestCorrectAnswerResetsStreak(t *testing.T) {
	s := newTestSession(t, 10, 5)

	answerWrong(t, s)
	assert.Equal(t, 1, s.ConsecutiveWrong)

	answerCorrect(t, s)
	assert.Equal(t, 0, s.ConsecutiveWrong)

	// 下一次答错从 1 重新数起，不会立刻触发惩罚
	outcome := answerWrong(t, s)
	assert.False(t, outcome.PenaltyPending)
	assert.Equal(t, 1, s.ConsecutiveWrong)
}

// 连错计数跨题目累计：答对前换题不清零
func TestStreakSpansQuestions(t *testing.T) {
	s := newTestSession(t, 10, 5)

	answerWrong(t, s) // 第一题错一次
	answerCorrect(t, s)
	assert.Equal(t, 0, s.ConsecutiveWrong)

	outcome := answerWrong(t, s)
	assert.False(t, outcome.PenaltyPending)
	outcome = answerWrong(t, s)
	assert.True(t, outcome.PenaltyPending)
}

func TestFirstTryCountsOnlyFirstAttempt(t *testing.T) {
	s := newTestSession(t, 10, 3)

	answerWrong(t, s)
	answerCorrect(t, s) // 第二次才对，不算首答

	answerCorrect(t, s)
	answerCorrect(t, s)

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, 3, summary.CorrectAnswers)
	assert.Equal(t, 2, summary.FirstTryCorrect)
	assert.Equal(t, 1, summary.WrongAttempts)
}

func TestStoryPausesAdvance(t *testing.T) {
	s := newTestSession(t, 30, 20)
	require.Contains(t, s.Stories, 1, "total=20 must place act 1 at index 1")

	answerCorrect(t, s) // index 0，无剧情
	assert.Equal(t, 1, s.Index)

	q, _ := s.CurrentQuestion()
	_, err := s.Submit(q.CorrectIndex)
	require.NoError(t, err)

	phase := s.Resolve(time.Unix(1, 0))
	assert.Equal(t, PhaseStory, phase)
	require.NotNil(t, s.ActiveStory)
	assert.Equal(t, 1, s.ActiveStory.Act)
	assert.Equal(t, 1, s.Index, "story pauses question advance")

	// 剧情插页期间提交被丢弃
	outcome, err := s.Submit(0)
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)

	require.NoError(t, s.ContinueStory(time.Unix(2, 0)))
	assert.Equal(t, 2, s.Index)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestIndexMonotonicAndBounded(t *testing.T) {
	s := newTestSession(t, 10, 5)
	prev := s.Index
	for s.Phase != PhaseVictory {
		if s.Index%2 == 0 {
			answerWrong(t, s)
		}
		answerCorrect(t, s)
		assert.GreaterOrEqual(t, s.Index, prev)
		assert.LessOrEqual(t, s.Index, s.TotalQuestions)
		prev = s.Index
	}
	assert.Equal(t, s.TotalQuestions, s.Index)
}

func TestSubmitAfterVictoryFails(t *testing.T) {
	s := newTestSession(t, 10, 2)
	answerCorrect(t, s)
	answerCorrect(t, s)
	require.Equal(t, PhaseVictory, s.Phase)

	_, err := s.Submit(0)
	assert.ErrorIs(t, err, ErrSessionComplete)

	_, ok := s.Summary()
	assert.True(t, ok)
}

func TestNewSessionRejectsUnknownCharacter(t *testing.T) {
	p := testPack(map[string]int{"science": 5})
	_, err := NewSession("x", p, 999, 5, rand.New(rand.NewSource(1)), time.Now())
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestNewSessionRejectsEmptyPool(t *testing.T) {
	p := testPack(map[string]int{"science": 2})
	for i := range p.Categories[0].Questions {
		p.Categories[0].Questions[i].Enabled = false
	}
	_, err := NewSession("x", p, 1, 5, rand.New(rand.NewSource(1)), time.Now())
	assert.ErrorIs(t, err, ErrNoEligibleQuestions)
}

func TestNewSessionClampsRequestedCount(t *testing.T) {
	s := newTestSession(t, 4, 50)
	assert.Equal(t, 4, s.TotalQuestions)
}

func TestRatingTiers(t *testing.T) {
	assert.Equal(t, RatingLegendary, Rate(95))
	assert.Equal(t, RatingLegendary, Rate(90))
	assert.Equal(t, RatingHero, Rate(80))
	assert.Equal(t, RatingTrooper, Rate(60))
	assert.Equal(t, RatingGoodSport, Rate(10))
}
