package service

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"birthday_quest_backend/internal/config"
	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/repository"
	"birthday_quest_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer / fakeClock 手动走表的时钟，反馈窗口无需真实等待
type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) game.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance 走表并触发到期的定时器
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due, rest []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	for _, t := range due {
		if !t.stopped {
			t.f()
		}
	}
}

func servicePack(total int) *game.Pack {
	cat := game.Category{Name: "往事回忆", Icon: "🎂"}
	for i := 0; i < total; i++ {
		cat.Questions = append(cat.Questions, game.Question{
			ID:           uint(i + 1),
			Enabled:      true,
			Status:       game.StatusComplete,
			Text:         fmt.Sprintf("第 %d 题", i+1),
			Answers:      []string{"对", "错", "不知道"},
			CorrectIndex: 0,
		})
	}

	pack := &game.Pack{
		Name:    "test",
		Version: 1,
		Characters: []game.Character{
			{ID: 1, Name: "梅医生", Class: "寿星"},
		},
		Categories: []game.Category{cat},
	}
	pack.Script.Intro = game.StorySegment{Text: "开场"}
	for i := 0; i < game.ActCount; i++ {
		pack.Script.Acts[i] = game.StorySegment{Text: fmt.Sprintf("第 %d 幕", i+1)}
	}
	pack.Script.Victory = game.StorySegment{Text: "胜利"}
	return pack
}

func newTestService(total int) (*SessionService, *fakeClock) {
	cfg := &config.Config{}
	cfg.Game.FeedbackDelay = 1800 * time.Millisecond
	cfg.Game.SessionTTL = 12 * time.Hour

	clock := newFakeClock()
	packs := &PackService{Cfg: cfg, current: servicePack(total)}

	svc := NewSessionService(repository.NewSessionStore(nil, cfg.Game.SessionTTL), packs, nil, nil, cfg)
	svc.Clock = clock
	svc.NewRand = func() *rand.Rand {
		return rand.New(rand.NewSource(42))
	}
	return svc, clock
}

// playToVictory 一路答对打完全程，剧情插页照常关闭
func playToVictory(t *testing.T, svc *SessionService, clock *fakeClock, id string) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		view, err := svc.Get(id)
		require.NoError(t, err)

		switch view.Phase {
		case game.PhaseVictory:
			return
		case game.PhaseIdle:
			_, err := svc.Submit(id, 0)
			require.NoError(t, err)
			clock.Advance(svc.Cfg.Game.FeedbackDelay)
		case game.PhaseStory:
			_, err := svc.ContinueStory(id)
			require.NoError(t, err)
		default:
			t.Fatalf("unexpected phase %s", view.Phase)
		}
	}
	t.Fatal("session never reached victory")
}

func TestCreateSessionView(t *testing.T) {
	svc, _ := newTestService(20)

	view, err := svc.Create("小王", 1, 10)
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "小王", view.PlayerName)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 10, view.TotalQuestions)
	assert.Equal(t, 0, view.Index)

	require.NotNil(t, view.Question)
	assert.NotEmpty(t, view.Question.Text)
	assert.Len(t, view.Question.Answers, 3)
	assert.Nil(t, view.Summary)
}

func TestCreateSessionClampsRequestedCount(t *testing.T) {
	svc, _ := newTestService(8)

	view, err := svc.Create("", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 8, view.TotalQuestions)
}

func TestCreateSessionUnknownCharacter(t *testing.T) {
	svc, _ := newTestService(8)

	_, err := svc.Create("", 99, 5)
	assert.ErrorIs(t, err, game.ErrCharacterNotFound)
}

func TestSubmitLocksUntilFeedbackElapses(t *testing.T) {
	svc, clock := newTestService(20)
	view, err := svc.Create("", 1, 20)
	require.NoError(t, err)
	id := view.ID

	result, err := svc.Submit(id, 0)
	require.NoError(t, err)
	assert.True(t, result.Outcome.Accepted)
	assert.True(t, result.Outcome.Correct)
	assert.Equal(t, game.PhaseLocked, result.Session.Phase)

	// 反馈窗口内重复提交被丢弃
	again, err := svc.Submit(id, 1)
	require.NoError(t, err)
	assert.False(t, again.Outcome.Accepted)
	assert.Equal(t, 1, again.Session.CorrectAnswers)

	// 走表不足反馈时长，阶段不变
	clock.Advance(svc.Cfg.Game.FeedbackDelay / 2)
	view, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseLocked, view.Phase)

	clock.Advance(svc.Cfg.Game.FeedbackDelay)
	view, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 1, view.Index)
}

func TestWrongAnswerKeepsQuestion(t *testing.T) {
	svc, clock := newTestService(20)
	view, err := svc.Create("", 1, 20)
	require.NoError(t, err)
	id := view.ID

	result, err := svc.Submit(id, 1)
	require.NoError(t, err)
	assert.False(t, result.Outcome.Correct)
	assert.False(t, result.Outcome.PenaltyPending)

	clock.Advance(svc.Cfg.Game.FeedbackDelay)
	view, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 1, view.WrongAttempts)
}

func TestPenaltyAfterTwoConsecutiveWrong(t *testing.T) {
	svc, clock := newTestService(20)
	view, err := svc.Create("", 1, 20)
	require.NoError(t, err)
	id := view.ID

	_, err = svc.Submit(id, 1)
	require.NoError(t, err)
	clock.Advance(svc.Cfg.Game.FeedbackDelay)

	result, err := svc.Submit(id, 2)
	require.NoError(t, err)
	assert.True(t, result.Outcome.PenaltyPending)
	assert.NotEmpty(t, result.Outcome.PenaltyMessage)

	clock.Advance(svc.Cfg.Game.FeedbackDelay)
	view, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhasePenalty, view.Phase)
	assert.Equal(t, 1, view.PenaltyCount)

	view, err = svc.AcknowledgePenalty(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 0, view.Index)
}

func TestAcknowledgePenaltyWrongPhase(t *testing.T) {
	svc, _ := newTestService(20)
	view, err := svc.Create("", 1, 20)
	require.NoError(t, err)

	_, err = svc.AcknowledgePenalty(view.ID)
	assert.ErrorIs(t, err, game.ErrWrongPhase)
}

func TestStoryPausesProgress(t *testing.T) {
	svc, clock := newTestService(20)
	view, err := svc.Create("", 1, 20)
	require.NoError(t, err)
	id := view.ID

	// 20 题时第一幕出现在第 2 题（下标 1）答对之后
	for view.Phase != game.PhaseStory {
		require.Equal(t, game.PhaseIdle, view.Phase)
		_, err = svc.Submit(id, 0)
		require.NoError(t, err)
		clock.Advance(svc.Cfg.Game.FeedbackDelay)
		view, err = svc.Get(id)
		require.NoError(t, err)
	}

	require.NotNil(t, view.ActiveStory)
	assert.Equal(t, 1, view.ActiveStory.Act)
	assert.Equal(t, 1, view.Index)

	// 剧情插页期间的提交被丢弃
	result, err := svc.Submit(id, 0)
	require.NoError(t, err)
	assert.False(t, result.Outcome.Accepted)

	view, err = svc.ContinueStory(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 2, view.Index)
	assert.Nil(t, view.ActiveStory)
}

func TestVictorySummaryAndReplay(t *testing.T) {
	svc, clock := newTestService(10)
	view, err := svc.Create("寿星", 1, 10)
	require.NoError(t, err)
	id := view.ID

	_, err = svc.Summary(id)
	assert.ErrorIs(t, err, util.ErrSessionNotComplete)
	_, err = svc.Replay(id)
	assert.ErrorIs(t, err, util.ErrReplayNotAvailable)

	playToVictory(t, svc, clock, id)

	summary, err := svc.Summary(id)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.TotalQuestions)
	assert.Equal(t, 10, summary.FirstTryCorrect)
	assert.Equal(t, 100.0, summary.Accuracy)
	assert.Equal(t, game.RatingLegendary, summary.Rating)

	view, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseVictory, view.Phase)
	require.NotNil(t, view.Summary)

	// 通关后提交报冲突
	_, err = svc.Submit(id, 0)
	assert.ErrorIs(t, err, game.ErrSessionComplete)

	replay, err := svc.Replay(id)
	require.NoError(t, err)
	assert.Len(t, replay.Playlist, game.ActCount+2)
	assert.Equal(t, 0, replay.Cursor)

	item, done, err := svc.ReplayNext(id)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "act", item.Kind)
	assert.Equal(t, 1, item.Act)

	// 走完整个播放列表
	for !done {
		_, done, err = svc.ReplayNext(id)
		require.NoError(t, err)
	}
}

func TestRestartCancelsPendingResolve(t *testing.T) {
	svc, clock := newTestService(20)
	view, err := svc.Create("小王", 1, 10)
	require.NoError(t, err)
	oldID := view.ID

	_, err = svc.Submit(oldID, 0)
	require.NoError(t, err)

	// 反馈窗口未结束就重开
	fresh, err := svc.Restart(oldID, 0)
	require.NoError(t, err)
	assert.NotEqual(t, oldID, fresh.ID)
	assert.Equal(t, game.PhaseIdle, fresh.Phase)
	assert.Equal(t, 10, fresh.TotalQuestions)
	assert.Equal(t, "小王", fresh.PlayerName)
	assert.Equal(t, 0, fresh.CorrectAnswers)

	_, err = svc.Get(oldID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	// 旧对局的定时器已取消，走表不影响新对局
	clock.Advance(svc.Cfg.Game.FeedbackDelay)
	view, err = svc.Get(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 0, view.Index)
}

func TestSessionExpires(t *testing.T) {
	svc, clock := newTestService(20)
	view, err := svc.Create("", 1, 10)
	require.NoError(t, err)

	clock.Advance(svc.Cfg.Game.SessionTTL)

	_, err = svc.Get(view.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

// 进程重启后快照恢复的会话要能继续作答：玩家名和反馈窗口内的
// 中间状态随快照走，随机源和定时器由首次访问时重建。
func TestSessionRestoredFromSnapshot(t *testing.T) {
	svc, _ := newTestService(10)

	created, err := svc.Create("小王", 1, 5)
	require.NoError(t, err)
	res, err := svc.Submit(created.ID, 0)
	require.NoError(t, err)
	require.True(t, res.Outcome.Accepted)

	sess, err := svc.Store.Get(created.ID)
	require.NoError(t, err)
	data, err := json.Marshal(sess)
	require.NoError(t, err)

	restored, err := repository.DecodeSession(data)
	require.NoError(t, err)
	require.Equal(t, game.PhaseLocked, restored.Phase)
	require.True(t, restored.LastCorrect)

	// 模拟重启：全新服务实例，会话只来自快照
	svc2, clock2 := newTestService(10)
	svc2.Store.Put(restored)

	view, err := svc2.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "小王", view.PlayerName)
	assert.Equal(t, game.PhaseLocked, view.Phase)

	// 反馈窗口的定时器随旧进程消失，恢复时重新调度
	clock2.Advance(svc2.Cfg.Game.FeedbackDelay)
	view, err = svc2.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, view.Phase)
	assert.Equal(t, 1, view.Index)
	assert.Equal(t, 1, view.CorrectAnswers)

	// 随机源已重新注入：连错两次能抽出惩罚文案
	_, err = svc2.Submit(created.ID, 1)
	require.NoError(t, err)
	clock2.Advance(svc2.Cfg.Game.FeedbackDelay)
	res, err = svc2.Submit(created.ID, 1)
	require.NoError(t, err)
	assert.True(t, res.Outcome.PenaltyPending)
	assert.NotEmpty(t, res.Outcome.PenaltyMessage)

	// 过期定时器也已重建
	clock2.Advance(svc2.Cfg.Game.SessionTTL)
	_, err = svc2.Get(created.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}
