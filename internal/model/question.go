package model

import "encoding/json"

// swagger:model Category
type Category struct {
	BaseModel
	Name      string     `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Icon      string     `gorm:"size:255" json:"icon"`
	Questions []Question `json:"questions,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// swagger:model Question
// Question 题目。Answers 为 JSON 数组，CorrectIndex 指向其中一项。
// 只有 Enabled 且 Status 为 complete 的题目进入对局抽样。
type Question struct {
	BaseModel
	CategoryID   uint            `gorm:"index;type:bigint unsigned" json:"categoryId"`
	Text         string          `gorm:"type:text;not null" json:"text"`
	Answers      json.RawMessage `gorm:"type:json" json:"answers"`
	CorrectIndex int             `gorm:"default:0" json:"correctIndex"`
	Enabled      bool            `gorm:"default:true" json:"enabled"`
	Status       string          `gorm:"type:enum('complete','draft','needs-media','disabled');default:'draft'" json:"status"`
	MediaImage   string          `gorm:"size:255" json:"mediaImage"`
	MediaAudio   string          `gorm:"size:255" json:"mediaAudio"`
	MediaVideo   string          `gorm:"size:255" json:"mediaVideo"`
}

func (Question) TableName() string {
	return "questions"
}
