package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignStoriesTwentyQuestions(t *testing.T) {
	p := testPack(map[string]int{"science": 20})
	assigned := AssignStories(20, p.Script)

	want := map[int]int{1: 1, 3: 2, 5: 3, 7: 4, 9: 5, 11: 6, 13: 7, 15: 8, 17: 9}
	assert.Len(t, assigned, len(want))
	for idx, act := range want {
		cue, ok := assigned[idx]
		assert.True(t, ok, "expected story at index %d", idx)
		assert.Equal(t, act, cue.Act)
		assert.Equal(t, p.Script.Acts[act-1], cue.Segment)
	}

	_, onLast := assigned[19]
	assert.False(t, onLast, "final question must never carry a story")
}

func TestAssignStoriesNeverOnFinalQuestion(t *testing.T) {
	p := testPack(map[string]int{"science": 30})
	for total := 1; total <= 30; total++ {
		assigned := AssignStories(total, p.Script)
		for idx := range assigned {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, total-1, "total=%d assigned story to index %d", total, idx)
		}
	}
}

// 题量小到多个里程碑折叠到同一下标时，后一幕覆盖前一幕
func TestAssignStoriesLastWriteWinsOnCollision(t *testing.T) {
	p := testPack(map[string]int{"science": 5})
	assigned := AssignStories(5, p.Script)

	for idx, cue := range assigned {
		// floor(5*p)-1 对 p∈{0.2,0.4,...} 会重复命中，留下的必须是幕号更大的那一个
		for act := cue.Act + 1; act <= ActCount; act++ {
			otherIdx := milestoneIndex(5, act)
			assert.NotEqual(t, idx, otherIdx, "act %d should have overwritten act %d at index %d", act, cue.Act, idx)
		}
	}
}

func milestoneIndex(total, act int) int {
	assigned := AssignStories(total, Script{})
	for idx, cue := range assigned {
		if cue.Act == act {
			return idx
		}
	}
	return -1
}

func TestReplayPlaylistOrder(t *testing.T) {
	p := testPack(nil)
	r := NewReplay(p.Script)

	item, ok := r.Current()
	assert.True(t, ok)
	assert.Equal(t, "intro", item.Kind)

	for act := 1; act <= ActCount; act++ {
		item, done := r.Advance()
		assert.False(t, done)
		assert.Equal(t, "act", item.Kind)
		assert.Equal(t, act, item.Act)
	}

	item, done := r.Advance()
	assert.False(t, done)
	assert.Equal(t, "victory", item.Kind)

	_, done = r.Advance()
	assert.True(t, done)
	assert.True(t, r.Done())

	// 走完后不再产出片段，重复推进保持终止态
	_, done = r.Advance()
	assert.True(t, done)
}
