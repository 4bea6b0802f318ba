package game

import "math"

// StoryCue 指向某一幕剧情，Act 从 1 开始，同时作为音轨切换的键
type StoryCue struct {
	Act     int          `json:"act"`
	Segment StorySegment `json:"segment"`
}

// milestonePercents 9 幕对应的百分比里程碑。保留浮点乘法，
// floor(total*0.3) 这类边界与线上行为一致，不用整数除法改写。
var milestonePercents = [ActCount]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// AssignStories 按题目总数计算每一幕出现的题目下标。
// 下标为 floor(total*percent)-1，仅当 0 <= idx < total-1 时生效，
// 最后一题永远不插剧情。多幕命中同一下标时后写覆盖先写。
func AssignStories(total int, script Script) map[int]StoryCue {
	assigned := make(map[int]StoryCue)
	for act := 1; act <= ActCount; act++ {
		idx := int(math.Floor(float64(total)*milestonePercents[act-1])) - 1
		if idx < 0 || idx >= total-1 {
			continue
		}
		assigned[idx] = StoryCue{Act: act, Segment: script.Acts[act-1]}
	}
	return assigned
}
