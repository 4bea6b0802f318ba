package model

const (
	StoryKindIntro   = "intro"
	StoryKindAct     = "act"
	StoryKindVictory = "victory"
)

// swagger:model StoryAct
// StoryAct 剧本片段。Kind 为 act 时 Act 取 1..9，intro/victory 各一条。
type StoryAct struct {
	BaseModel
	Kind      string `gorm:"type:enum('intro','act','victory');not null;uniqueIndex:idx_story_kind_act" json:"kind"`
	Act       int    `gorm:"default:0;uniqueIndex:idx_story_kind_act" json:"act"`
	Text      string `gorm:"type:text;not null" json:"text"`
	ImagePath string `gorm:"size:255" json:"imagePath"`
}

func (StoryAct) TableName() string {
	return "story_acts"
}
