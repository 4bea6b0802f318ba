package service

import (
	"encoding/json"
	"fmt"

	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/model"
	"birthday_quest_backend/internal/repository"
	"birthday_quest_backend/internal/util"
	"birthday_quest_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionService 出题后台的增删改查。任何改动都会触发题库重新装配，
// 装配失败时数据已落库但线上题库保持旧版本，下次改动可修复。
type QuestionService struct {
	PackRepo *repository.PackRepository
	Packs    *PackService
}

func NewQuestionService(packRepo *repository.PackRepository, packs *PackService) *QuestionService {
	return &QuestionService{
		PackRepo: packRepo,
		Packs:    packs,
	}
}

// QuestionInput 创建/更新题目的请求体
type QuestionInput struct {
	CategoryID   uint     `json:"categoryId" binding:"required"`
	Text         string   `json:"text" binding:"required"`
	Answers      []string `json:"answers" binding:"required,min=2"`
	CorrectIndex int      `json:"correctIndex"`
	Enabled      *bool    `json:"enabled"`
	Status       string   `json:"status"`
	MediaImage   string   `json:"mediaImage"`
	MediaAudio   string   `json:"mediaAudio"`
	MediaVideo   string   `json:"mediaVideo"`
}

func validStatus(status string) bool {
	switch game.QuestionStatus(status) {
	case game.StatusComplete, game.StatusDraft, game.StatusNeedsMedia, game.StatusDisabled:
		return true
	}
	return false
}

func (s *QuestionService) Create(input *QuestionInput) (*model.Question, error) {
	if input.CorrectIndex < 0 || input.CorrectIndex >= len(input.Answers) {
		return nil, fmt.Errorf("正确答案索引越界")
	}
	status := input.Status
	if status == "" {
		status = string(game.StatusDraft)
	}
	if !validStatus(status) {
		return nil, fmt.Errorf("非法的题目状态: %s", status)
	}

	answers, err := json.Marshal(input.Answers)
	if err != nil {
		return nil, err
	}
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	q := &model.Question{
		CategoryID:   input.CategoryID,
		Text:         input.Text,
		Answers:      answers,
		CorrectIndex: input.CorrectIndex,
		Enabled:      enabled,
		Status:       status,
		MediaImage:   input.MediaImage,
		MediaAudio:   input.MediaAudio,
		MediaVideo:   input.MediaVideo,
	}
	if err := s.PackRepo.CreateQuestion(q); err != nil {
		return nil, err
	}
	s.rebuild()
	return q, nil
}

func (s *QuestionService) Update(id uint, input *QuestionInput) (*model.Question, error) {
	q, err := s.PackRepo.FindQuestionByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	if input.CorrectIndex < 0 || input.CorrectIndex >= len(input.Answers) {
		return nil, fmt.Errorf("正确答案索引越界")
	}
	if input.Status != "" && !validStatus(input.Status) {
		return nil, fmt.Errorf("非法的题目状态: %s", input.Status)
	}

	answers, err := json.Marshal(input.Answers)
	if err != nil {
		return nil, err
	}

	q.CategoryID = input.CategoryID
	q.Text = input.Text
	q.Answers = answers
	q.CorrectIndex = input.CorrectIndex
	if input.Enabled != nil {
		q.Enabled = *input.Enabled
	}
	if input.Status != "" {
		q.Status = input.Status
	}
	q.MediaImage = input.MediaImage
	q.MediaAudio = input.MediaAudio
	q.MediaVideo = input.MediaVideo

	if err := s.PackRepo.UpdateQuestion(q); err != nil {
		return nil, err
	}
	s.rebuild()
	return q, nil
}

// UpdateStatus 只改审核状态，出题后台列表页的快捷操作
func (s *QuestionService) UpdateStatus(id uint, status string) (*model.Question, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("非法的题目状态: %s", status)
	}
	q, err := s.PackRepo.FindQuestionByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	q.Status = status
	if err := s.PackRepo.UpdateQuestion(q); err != nil {
		return nil, err
	}
	s.rebuild()
	return q, nil
}

func (s *QuestionService) Delete(id uint) error {
	if _, err := s.PackRepo.FindQuestionByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrQuestionNotFound
		}
		return err
	}
	if err := s.PackRepo.DeleteQuestionByID(id); err != nil {
		return err
	}
	s.rebuild()
	return nil
}

func (s *QuestionService) List(categoryID uint, status string, page, limit int) ([]model.Question, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.PackRepo.ListQuestions(categoryID, status, page, limit)
}

func (s *QuestionService) ListCategories() ([]model.Category, error) {
	return s.PackRepo.ListCategoriesWithQuestions()
}

func (s *QuestionService) CreateCategory(name, icon string) (*model.Category, error) {
	if _, err := s.PackRepo.FindCategoryByName(name); err == nil {
		return nil, fmt.Errorf("分类已存在: %s", name)
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	cat := &model.Category{Name: name, Icon: icon}
	if err := s.PackRepo.CreateCategory(cat); err != nil {
		return nil, err
	}
	s.rebuild()
	return cat, nil
}

func (s *QuestionService) UpdateCategory(id uint, name, icon string) (*model.Category, error) {
	cat, err := s.PackRepo.FindCategoryByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCategoryNotFound
		}
		return nil, err
	}
	cat.Name = name
	cat.Icon = icon
	if err := s.PackRepo.UpdateCategory(cat); err != nil {
		return nil, err
	}
	s.rebuild()
	return cat, nil
}

// CharacterInput 创建/更新角色
type CharacterInput struct {
	Name      string `json:"name" binding:"required"`
	Class     string `json:"class"`
	ImagePath string `json:"imagePath"`
	Bio       string `json:"bio"`
}

func (s *QuestionService) CreateCharacter(input *CharacterInput) (*model.Character, error) {
	c := &model.Character{
		Name:      input.Name,
		Class:     input.Class,
		ImagePath: input.ImagePath,
		Bio:       input.Bio,
	}
	if err := s.PackRepo.CreateCharacter(c); err != nil {
		return nil, err
	}
	s.rebuild()
	return c, nil
}

func (s *QuestionService) UpdateCharacter(id uint, input *CharacterInput) (*model.Character, error) {
	c, err := s.PackRepo.FindCharacterByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCharacterNotFound
		}
		return nil, err
	}
	c.Name = input.Name
	c.Class = input.Class
	c.ImagePath = input.ImagePath
	c.Bio = input.Bio
	if err := s.PackRepo.UpdateCharacter(c); err != nil {
		return nil, err
	}
	s.rebuild()
	return c, nil
}

// StoryInput 更新剧本片段
type StoryInput struct {
	Kind      string `json:"kind" binding:"required,oneof=intro act victory"`
	Act       int    `json:"act"`
	Text      string `json:"text" binding:"required"`
	ImagePath string `json:"imagePath"`
}

func (s *QuestionService) UpsertStory(input *StoryInput) error {
	act := input.Act
	if input.Kind != model.StoryKindAct {
		act = 0
	} else if act < 1 || act > game.ActCount {
		return fmt.Errorf("幕编号必须在 1~%d 之间", game.ActCount)
	}
	if err := s.PackRepo.UpsertStoryAct(&model.StoryAct{
		Kind:      input.Kind,
		Act:       act,
		Text:      input.Text,
		ImagePath: input.ImagePath,
	}); err != nil {
		return err
	}
	s.rebuild()
	return nil
}

// rebuild 改动落库后刷新线上题库，失败只告警
func (s *QuestionService) rebuild() {
	if err := s.Packs.Rebuild(); err != nil {
		logger.Log.Warn("题库重新装配失败，线上保持旧版本", zap.Error(err))
	}
}
