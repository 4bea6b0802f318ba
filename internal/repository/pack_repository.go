package repository

import (
	"birthday_quest_backend/internal/model"

	"gorm.io/gorm"
)

// PackRepository 游戏配置（角色/分类/题目/剧本）的持久层
type PackRepository struct {
	DB *gorm.DB
}

func NewPackRepository(db *gorm.DB) *PackRepository {
	return &PackRepository{DB: db}
}

func (r *PackRepository) ListCharacters() ([]model.Character, error) {
	var chars []model.Character
	err := r.DB.Order("id asc").Find(&chars).Error
	return chars, err
}

func (r *PackRepository) ListCategoriesWithQuestions() ([]model.Category, error) {
	var cats []model.Category
	err := r.DB.Preload("Questions").Order("id asc").Find(&cats).Error
	return cats, err
}

func (r *PackRepository) ListStoryActs() ([]model.StoryAct, error) {
	var acts []model.StoryAct
	err := r.DB.Order("act asc").Find(&acts).Error
	return acts, err
}

func (r *PackRepository) FindCategoryByID(id uint) (*model.Category, error) {
	var cat model.Category
	if err := r.DB.First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *PackRepository) FindCharacterByID(id uint) (*model.Character, error) {
	var c model.Character
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PackRepository) FindCategoryByName(name string) (*model.Category, error) {
	var cat model.Category
	err := r.DB.Where("name = ?", name).First(&cat).Error
	return &cat, err
}

func (r *PackRepository) CreateCategory(cat *model.Category) error {
	return r.DB.Create(cat).Error
}

func (r *PackRepository) UpdateCategory(cat *model.Category) error {
	return r.DB.Save(cat).Error
}

func (r *PackRepository) CreateCharacter(c *model.Character) error {
	return r.DB.Create(c).Error
}

func (r *PackRepository) UpdateCharacter(c *model.Character) error {
	return r.DB.Save(c).Error
}

func (r *PackRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *PackRepository) UpdateQuestion(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *PackRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PackRepository) ListQuestions(categoryID uint, status string, page, limit int) ([]model.Question, int64, error) {
	var qs []model.Question
	var total int64
	query := r.DB.Model(&model.Question{})
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("id asc").Offset(offset).Limit(limit).Find(&qs).Error
	return qs, total, err
}

func (r *PackRepository) DeleteQuestionByID(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

// UpsertStoryAct 按 (kind, act) 覆盖写入剧本片段
func (r *PackRepository) UpsertStoryAct(act *model.StoryAct) error {
	var existing model.StoryAct
	err := r.DB.Where("kind = ? AND act = ?", act.Kind, act.Act).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(act).Error
	}
	if err != nil {
		return err
	}
	existing.Text = act.Text
	existing.ImagePath = act.ImagePath
	return r.DB.Save(&existing).Error
}

// ReplaceAll 用一份完整导入覆盖现有配置，事务内先清后写
func (r *PackRepository) ReplaceAll(chars []model.Character, cats []model.Category, acts []model.StoryAct) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.Question{}, &model.Category{}, &model.Character{}, &model.StoryAct{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
				return err
			}
		}
		for i := range chars {
			if err := tx.Create(&chars[i]).Error; err != nil {
				return err
			}
		}
		for i := range cats {
			if err := tx.Create(&cats[i]).Error; err != nil {
				return err
			}
		}
		for i := range acts {
			if err := tx.Create(&acts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PackRepository) CountQuestions() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Question{}).Count(&n).Error
	return n, err
}
