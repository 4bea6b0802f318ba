package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"birthday_quest_backend/internal/config"
	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/model"
	"birthday_quest_backend/internal/repository"
	"birthday_quest_backend/internal/util"
	"birthday_quest_backend/pkg/configwatcher"
	"birthday_quest_backend/pkg/logger"

	"go.uber.org/zap"
)

// PackService 负责题库的导入、装配与热重载。
// 装配成功后的 game.Pack 不可变，进行中的对局持有创建时的引用，
// 重载只影响之后创建的对局。
type PackService struct {
	PackRepo *repository.PackRepository
	Cfg      *config.Config

	mu      sync.RWMutex
	current *game.Pack
}

func NewPackService(packRepo *repository.PackRepository, cfg *config.Config) *PackService {
	return &PackService{
		PackRepo: packRepo,
		Cfg:      cfg,
	}
}

// packManifest 题库清单，出题后台导出/导入用同一格式。
// 既可以是单个合并文件，也可以是拆分布局（见 splitManifestRef）。
type packManifest struct {
	Name       string              `json:"name"`
	Version    int                 `json:"version"`
	Characters []manifestCharacter `json:"characters"`
	Categories []manifestCategory  `json:"categories"`
	Story      struct {
		Intro   storySegmentManifest   `json:"intro"`
		Acts    []storySegmentManifest `json:"acts"`
		Victory storySegmentManifest   `json:"victory"`
	} `json:"story"`
}

type manifestCharacter struct {
	Name      string `json:"name"`
	Class     string `json:"class"`
	ImagePath string `json:"imagePath"`
	Bio       string `json:"bio"`
}

type manifestCategory struct {
	Name      string             `json:"name"`
	Icon      string             `json:"icon"`
	Questions []manifestQuestion `json:"questions"`
}

type manifestQuestion struct {
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
	Enabled      *bool    `json:"enabled"`
	Status       string   `json:"status"`
	MediaImage   string   `json:"mediaImage"`
	MediaAudio   string   `json:"mediaAudio"`
	MediaVideo   string   `json:"mediaVideo"`
}

type storySegmentManifest struct {
	Text      string `json:"text"`
	ImagePath string `json:"imagePath"`
}

// splitManifestRef 拆分布局的清单：metadata/characters/分类文件
// 以路径引用的方式挂在一个薄清单下。
type splitManifestRef struct {
	Metadata   string   `json:"metadata"`
	Characters string   `json:"characters"`
	Categories []string `json:"categories"`
}

// EnsureLoaded 启动时装配题库。数据库为空且开启 seed 时先导入清单文件；
// 装配失败视为致命错误，由调用方终止启动。
func (s *PackService) EnsureLoaded() error {
	count, err := s.PackRepo.CountQuestions()
	if err != nil {
		return fmt.Errorf("检查题库失败: %w", err)
	}
	if count == 0 && s.Cfg.Game.SeedPackOnEmpty && s.Cfg.Game.PackPath != "" {
		logger.Log.Info("题库为空，从清单文件导入", zap.String("path", s.Cfg.Game.PackPath))
		if err := s.ImportManifest(s.Cfg.Game.PackPath); err != nil {
			return err
		}
		return nil
	}
	return s.Rebuild()
}

// ImportManifest 解析清单文件并整体替换数据库中的题库，随后重新装配
func (s *PackService) ImportManifest(path string) error {
	manifest, err := loadManifest(path)
	if err != nil {
		return err
	}
	if len(manifest.Story.Acts) != game.ActCount {
		return fmt.Errorf("剧本必须包含 %d 幕，清单中有 %d 幕", game.ActCount, len(manifest.Story.Acts))
	}

	chars := make([]model.Character, 0, len(manifest.Characters))
	for _, c := range manifest.Characters {
		chars = append(chars, model.Character{
			Name:      c.Name,
			Class:     c.Class,
			ImagePath: c.ImagePath,
			Bio:       c.Bio,
		})
	}

	cats := make([]model.Category, 0, len(manifest.Categories))
	for _, mc := range manifest.Categories {
		cat := model.Category{Name: mc.Name, Icon: mc.Icon}
		for _, mq := range mc.Questions {
			answers, err := json.Marshal(mq.Answers)
			if err != nil {
				return err
			}
			enabled := true
			if mq.Enabled != nil {
				enabled = *mq.Enabled
			}
			status := mq.Status
			if status == "" {
				status = string(game.StatusDraft)
			}
			cat.Questions = append(cat.Questions, model.Question{
				Text:         mq.Text,
				Answers:      answers,
				CorrectIndex: mq.CorrectIndex,
				Enabled:      enabled,
				Status:       status,
				MediaImage:   mq.MediaImage,
				MediaAudio:   mq.MediaAudio,
				MediaVideo:   mq.MediaVideo,
			})
		}
		cats = append(cats, cat)
	}

	acts := []model.StoryAct{
		{Kind: model.StoryKindIntro, Text: manifest.Story.Intro.Text, ImagePath: manifest.Story.Intro.ImagePath},
		{Kind: model.StoryKindVictory, Text: manifest.Story.Victory.Text, ImagePath: manifest.Story.Victory.ImagePath},
	}
	for i, seg := range manifest.Story.Acts {
		acts = append(acts, model.StoryAct{
			Kind:      model.StoryKindAct,
			Act:       i + 1,
			Text:      seg.Text,
			ImagePath: seg.ImagePath,
		})
	}

	if err := s.PackRepo.ReplaceAll(chars, cats, acts); err != nil {
		return fmt.Errorf("写入题库失败: %w", err)
	}
	return s.Rebuild()
}

// loadManifest 读取清单文件。三个部分都是文件引用时按拆分布局装载，
// 否则按单个合并文件解析。
func loadManifest(path string) (*packManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取题库清单失败: %w", err)
	}

	var refs splitManifestRef
	if err := json.Unmarshal(data, &refs); err == nil && refs.Metadata != "" && refs.Characters != "" {
		return loadSplitManifest(filepath.Dir(path), refs)
	}

	var manifest packManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("解析题库清单失败: %w", err)
	}
	return &manifest, nil
}

func loadSplitManifest(baseDir string, refs splitManifestRef) (*packManifest, error) {
	var manifest packManifest

	// metadata 承载除角色和分类外的全部字段（名称、版本、剧本）
	if err := readManifestPart(baseDir, refs.Metadata, &manifest); err != nil {
		return nil, fmt.Errorf("读取题库 metadata 失败: %w", err)
	}
	if err := readManifestPart(baseDir, refs.Characters, &manifest.Characters); err != nil {
		return nil, fmt.Errorf("读取角色文件失败: %w", err)
	}
	for _, ref := range refs.Categories {
		var cat manifestCategory
		if err := readManifestPart(baseDir, ref, &cat); err != nil {
			return nil, fmt.Errorf("读取分类文件 %s 失败: %w", ref, err)
		}
		manifest.Categories = append(manifest.Categories, cat)
	}
	return &manifest, nil
}

func readManifestPart(baseDir, ref string, out interface{}) error {
	data, err := os.ReadFile(resolveManifestRef(baseDir, ref))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// 清单里的引用既可能相对清单所在目录，也可能相对进程工作目录
func resolveManifestRef(baseDir, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	p := filepath.Join(baseDir, ref)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ref
}

// Rebuild 从数据库装配不可变 Pack 并原子替换当前引用
func (s *PackService) Rebuild() error {
	pack, err := s.assemble()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = pack
	s.mu.Unlock()

	logger.Log.Info("题库装配完成",
		zap.String("name", pack.Name),
		zap.Int("characters", len(pack.Characters)),
		zap.Int("categories", len(pack.Categories)),
		zap.Int("eligible_questions", pack.EligibleCount()))
	return nil
}

// Current 获取当前题库，尚未装配成功时返回 ErrPackNotLoaded
func (s *PackService) Current() (*game.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, util.ErrPackNotLoaded
	}
	return s.current, nil
}

func (s *PackService) assemble() (*game.Pack, error) {
	characters, err := s.PackRepo.ListCharacters()
	if err != nil {
		return nil, err
	}
	categories, err := s.PackRepo.ListCategoriesWithQuestions()
	if err != nil {
		return nil, err
	}
	storyActs, err := s.PackRepo.ListStoryActs()
	if err != nil {
		return nil, err
	}

	pack := &game.Pack{
		Name:    "Doctor Mays' Birthday Quest",
		Version: 1,
	}

	for _, c := range characters {
		pack.Characters = append(pack.Characters, game.Character{
			ID:        c.ID,
			Name:      c.Name,
			Class:     c.Class,
			ImagePath: c.ImagePath,
			Bio:       c.Bio,
		})
	}

	for _, cat := range categories {
		gc := game.Category{Name: cat.Name, Icon: cat.Icon}
		for _, q := range cat.Questions {
			var answers []string
			if len(q.Answers) > 0 {
				if err := json.Unmarshal(q.Answers, &answers); err != nil {
					return nil, fmt.Errorf("题目 %d 的答案格式非法: %w", q.ID, err)
				}
			}
			gc.Questions = append(gc.Questions, game.Question{
				ID:           q.ID,
				Enabled:      q.Enabled,
				Status:       game.QuestionStatus(q.Status),
				Text:         q.Text,
				Answers:      answers,
				CorrectIndex: q.CorrectIndex,
				Media: game.Media{
					Image: q.MediaImage,
					Audio: q.MediaAudio,
					Video: q.MediaVideo,
				},
			})
		}
		pack.Categories = append(pack.Categories, gc)
	}

	var introSeen, victorySeen bool
	var actsSeen int
	for _, act := range storyActs {
		seg := game.StorySegment{Text: act.Text, ImagePath: act.ImagePath}
		switch act.Kind {
		case model.StoryKindIntro:
			pack.Script.Intro = seg
			introSeen = true
		case model.StoryKindVictory:
			pack.Script.Victory = seg
			victorySeen = true
		case model.StoryKindAct:
			if act.Act < 1 || act.Act > game.ActCount {
				return nil, fmt.Errorf("剧本幕编号非法: %d", act.Act)
			}
			pack.Script.Acts[act.Act-1] = seg
			actsSeen++
		}
	}

	if !introSeen || !victorySeen || actsSeen != game.ActCount {
		return nil, fmt.Errorf("剧本不完整: intro=%v victory=%v acts=%d/%d",
			introSeen, victorySeen, actsSeen, game.ActCount)
	}
	if len(pack.Characters) == 0 {
		return nil, fmt.Errorf("题库中没有可选角色")
	}
	if pack.EligibleCount() == 0 {
		return nil, fmt.Errorf("题库中没有可玩题目（启用且状态为 complete）")
	}

	return pack, nil
}

// Watch 监听清单文件变化并自动重新导入
func (s *PackService) Watch() {
	if !s.Cfg.Game.WatchPack || s.Cfg.Game.PackPath == "" {
		return
	}
	go configwatcher.WatchFile(s.Cfg.Game.PackPath, func(path string) {
		if err := s.ImportManifest(path); err != nil {
			logger.Log.Error("题库热重载失败，保留当前版本", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Log.Info("题库热重载完成", zap.String("path", path))
	})
}

// QuestionIssue 校验报告中的单条问题
type QuestionIssue struct {
	QuestionID uint   `json:"questionId"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// ValidationReport 出题后台的题库体检结果
type ValidationReport struct {
	TotalQuestions    int             `json:"totalQuestions"`
	EligibleQuestions int             `json:"eligibleQuestions"`
	Issues            []QuestionIssue `json:"issues"`
}

// Validate 扫描全部题目，汇报答案与媒体方面的问题。
// 媒体文件仅在本地存储模式下用 ffprobe 探测。
func (s *PackService) Validate() (*ValidationReport, error) {
	categories, err := s.PackRepo.ListCategoriesWithQuestions()
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{Issues: []QuestionIssue{}}
	for _, cat := range categories {
		for _, q := range cat.Questions {
			report.TotalQuestions++
			if q.Enabled && q.Status == string(game.StatusComplete) {
				report.EligibleQuestions++
			}

			var answers []string
			if err := json.Unmarshal(q.Answers, &answers); err != nil {
				report.Issues = append(report.Issues, QuestionIssue{q.ID, "answers", "答案不是合法的 JSON 数组"})
				continue
			}
			if len(answers) < 2 {
				report.Issues = append(report.Issues, QuestionIssue{q.ID, "answers", "至少需要 2 个选项"})
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(answers) {
				report.Issues = append(report.Issues, QuestionIssue{q.ID, "correctIndex", "正确答案索引越界"})
			}
			if q.Status == string(game.StatusNeedsMedia) &&
				q.MediaImage == "" && q.MediaAudio == "" && q.MediaVideo == "" {
				report.Issues = append(report.Issues, QuestionIssue{q.ID, "media", "状态为 needs-media 但未配置任何媒体"})
			}

			report.Issues = append(report.Issues, s.probeIssues(q)...)
		}
	}
	return report, nil
}

func (s *PackService) probeIssues(q model.Question) []QuestionIssue {
	if s.Cfg.Storage.Type != util.StorageLocal {
		return nil
	}
	var issues []QuestionIssue
	media := map[string]string{
		"mediaImage": q.MediaImage,
		"mediaAudio": q.MediaAudio,
		"mediaVideo": q.MediaVideo,
	}
	for field, path := range media {
		if path == "" {
			continue
		}
		full := filepath.Join(s.Cfg.Storage.LocalPath, filepath.Base(path))
		if _, err := util.ProbeMedia(full); err != nil {
			issues = append(issues, QuestionIssue{q.ID, field, fmt.Sprintf("媒体探测失败: %v", err)})
		}
	}
	return issues
}
