package game

// ReplayItem 回放列表中的一段：开场、某一幕或胜利结局
type ReplayItem struct {
	Kind    string       `json:"kind"` // intro / act / victory
	Act     int          `json:"act,omitempty"`
	Segment StorySegment `json:"segment"`
}

// Replay 剧情回放：开场 + 9 幕 + 胜利，独立游标线性推进，
// 与主流程共用同一份剧情数据，走完后回到胜利画面。
type Replay struct {
	Playlist []ReplayItem `json:"playlist"`
	Cursor   int          `json:"cursor"`
}

func NewReplay(script Script) *Replay {
	playlist := make([]ReplayItem, 0, ActCount+2)
	playlist = append(playlist, ReplayItem{Kind: "intro", Segment: script.Intro})
	for i, act := range script.Acts {
		playlist = append(playlist, ReplayItem{Kind: "act", Act: i + 1, Segment: act})
	}
	playlist = append(playlist, ReplayItem{Kind: "victory", Segment: script.Victory})
	return &Replay{Playlist: playlist}
}

// Current 当前片段，回放结束时返回 false
func (r *Replay) Current() (ReplayItem, bool) {
	if r.Cursor >= len(r.Playlist) {
		return ReplayItem{}, false
	}
	return r.Playlist[r.Cursor], true
}

// Advance 推进到下一段，返回新片段；走到末尾时 done=true
func (r *Replay) Advance() (ReplayItem, bool) {
	if r.Cursor < len(r.Playlist) {
		r.Cursor++
	}
	if r.Cursor >= len(r.Playlist) {
		return ReplayItem{}, true
	}
	return r.Playlist[r.Cursor], false
}

// Done 回放是否已走完
func (r *Replay) Done() bool {
	return r.Cursor >= len(r.Playlist)
}
