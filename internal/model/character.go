package model

// swagger:model Character
type Character struct {
	BaseModel
	Name      string `gorm:"size:100;not null" json:"name"`
	Class     string `gorm:"size:50" json:"class"`
	ImagePath string `gorm:"size:255" json:"imagePath"`
	Bio       string `gorm:"type:text" json:"bio"`
}

func (Character) TableName() string {
	return "characters"
}
