package game

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPack(perCategory map[string]int) *Pack {
	p := &Pack{
		Name:    "test",
		Version: 1,
		Characters: []Character{
			{ID: 1, Name: "梅医生", Class: "healer", ImagePath: "chars/mays.png"},
			{ID: 2, Name: "派对骑士", Class: "knight", ImagePath: "chars/knight.png"},
		},
	}
	id := uint(0)
	for name, n := range perCategory {
		cat := Category{Name: name, Icon: name + ".png"}
		for i := 0; i < n; i++ {
			id++
			cat.Questions = append(cat.Questions, Question{
				ID:           id,
				Enabled:      true,
				Status:       StatusComplete,
				Text:         fmt.Sprintf("%s-%d", name, i),
				Answers:      []string{"a", "b", "c", "d"},
				CorrectIndex: int(id) % 4,
			})
		}
		p.Categories = append(p.Categories, cat)
	}
	for i := 0; i < ActCount; i++ {
		p.Script.Acts[i] = StorySegment{Text: fmt.Sprintf("act %d", i+1), ImagePath: fmt.Sprintf("story/act%d.png", i+1)}
	}
	p.Script.Intro = StorySegment{Text: "intro", ImagePath: "story/intro.png"}
	p.Script.Victory = StorySegment{Text: "victory", ImagePath: "story/victory.png"}
	return p
}

func TestEligibleQuestionsFiltering(t *testing.T) {
	p := testPack(map[string]int{"science": 3})
	p.Categories[0].Questions[0].Enabled = false
	p.Categories[0].Questions[1].Status = StatusDraft

	eligible := p.EligibleQuestions()
	assert.Len(t, eligible, 1)
	assert.Equal(t, "science", eligible[0].CategoryName)
	assert.Equal(t, "science.png", eligible[0].CategoryIcon)
}

func TestEligibleExcludesEveryNonCompleteStatus(t *testing.T) {
	for _, status := range []QuestionStatus{StatusDraft, StatusNeedsMedia, StatusDisabled} {
		p := testPack(map[string]int{"history": 2})
		p.Categories[0].Questions[0].Status = status
		assert.Equal(t, 1, p.EligibleCount(), "status %s must be excluded", status)
	}
}

func TestSampleReturnsDistinctQuestions(t *testing.T) {
	p := testPack(map[string]int{"science": 10, "history": 10, "music": 5})
	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{1, 5, 20, 25} {
		got := SampleQuestions(p, n, rng)
		assert.Len(t, got, n)

		seen := make(map[uint]bool)
		for _, q := range got {
			assert.False(t, seen[q.ID], "duplicate question %d", q.ID)
			assert.True(t, q.Eligible())
			seen[q.ID] = true
		}
	}
}

func TestSampleClampsToEligibleCount(t *testing.T) {
	p := testPack(map[string]int{"science": 4})
	rng := rand.New(rand.NewSource(1))

	got := SampleQuestions(p, 100, rng)
	assert.Len(t, got, 4)

	assert.Empty(t, SampleQuestions(p, 0, rng))
	assert.Empty(t, SampleQuestions(p, -3, rng))
}

// 洗牌均匀性：大量试次后每道题落在首位的频次应接近均匀，
// 偏差超过 5 个标准差视为实现有位置偏置。
func TestShuffleHasNoPositionalBias(t *testing.T) {
	p := testPack(map[string]int{"science": 8})
	rng := rand.New(rand.NewSource(7))

	const trials = 8000
	const pool = 8
	firstPos := make(map[uint]int)
	for i := 0; i < trials; i++ {
		got := SampleQuestions(p, pool, rng)
		firstPos[got[0].ID]++
	}

	// 每题落在首位服从 B(trials, 1/pool)
	pr := 1.0 / float64(pool)
	expected := float64(trials) * pr
	sigma := math.Sqrt(float64(trials) * pr * (1 - pr))
	for id, count := range firstPos {
		diff := float64(count) - expected
		if diff < 0 {
			diff = -diff
		}
		assert.Less(t, diff, 5*sigma, "question %d first-position count %d too far from %f", id, count, expected)
	}
	assert.Len(t, firstPos, 8, "every question should appear in first position")
}

func TestCountOptionsPreFiltered(t *testing.T) {
	p := testPack(map[string]int{"science": 12})
	assert.Equal(t, []int{5, 10}, p.CountOptions())

	tiny := testPack(map[string]int{"science": 3})
	assert.Equal(t, []int{3}, tiny.CountOptions())
}
