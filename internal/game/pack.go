package game

// QuestionStatus 题目审核状态
type QuestionStatus string

const (
	StatusComplete   QuestionStatus = "complete"
	StatusDraft      QuestionStatus = "draft"
	StatusNeedsMedia QuestionStatus = "needs-media"
	StatusDisabled   QuestionStatus = "disabled"
)

// Media 题目附带的媒体资源，字段为空时前端不渲染
type Media struct {
	Image string `json:"image,omitempty"`
	Audio string `json:"audio,omitempty"`
	Video string `json:"video,omitempty"`
}

func (m Media) IsEmpty() bool {
	return m.Image == "" && m.Audio == "" && m.Video == ""
}

// Question 单个题目，CategoryName/CategoryIcon 在抽题时由所属分类标注
type Question struct {
	ID           uint           `json:"id"`
	Enabled      bool           `json:"enabled"`
	Status       QuestionStatus `json:"status"`
	Text         string         `json:"text"`
	Answers      []string       `json:"answers"`
	CorrectIndex int            `json:"correctIndex"`
	Media        Media          `json:"media"`
	CategoryName string         `json:"categoryName"`
	CategoryIcon string         `json:"categoryIcon"`
}

// Eligible 只有启用且状态为 complete 的题目可进入对局
func (q Question) Eligible() bool {
	return q.Enabled && q.Status == StatusComplete
}

type Character struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	ImagePath string `json:"imagePath"`
	Bio       string `json:"bio"`
}

type Category struct {
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Questions []Question `json:"questions"`
}

// StorySegment 固定剧本中的一段文字+插图
type StorySegment struct {
	Text      string `json:"text"`
	ImagePath string `json:"imagePath"`
}

// ActCount 剧本固定为 9 幕，对应 10%~90% 的里程碑
const ActCount = 9

// Script 完整剧本：开场、9 幕、胜利结局
type Script struct {
	Intro   StorySegment           `json:"intro"`
	Acts    [ActCount]StorySegment `json:"acts"`
	Victory StorySegment           `json:"victory"`
}

// Pack 加载完成后不可变的游戏配置
type Pack struct {
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	Characters []Character `json:"characters"`
	Categories []Category  `json:"categories"`
	Script     Script      `json:"script"`
}

// EligibleQuestions 汇总所有可玩题目，并标注所属分类的名称与图标
func (p *Pack) EligibleQuestions() []Question {
	var out []Question
	for _, cat := range p.Categories {
		for _, q := range cat.Questions {
			if !q.Eligible() {
				continue
			}
			q.CategoryName = cat.Name
			q.CategoryIcon = cat.Icon
			out = append(out, q)
		}
	}
	return out
}

func (p *Pack) EligibleCount() int {
	return len(p.EligibleQuestions())
}

func (p *Pack) CharacterByID(id uint) (Character, bool) {
	for _, c := range p.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// defaultCountOptions 选题数量的候选档位
var defaultCountOptions = []int{5, 10, 15, 20, 30}

// CountOptions 提供给玩家的题量选项，已过滤掉超过可玩题目数的档位。
// 题库很小时至少保留一个等于题库总量的档位。
func (p *Pack) CountOptions() []int {
	eligible := p.EligibleCount()
	var opts []int
	for _, n := range defaultCountOptions {
		if n <= eligible {
			opts = append(opts, n)
		}
	}
	if len(opts) == 0 && eligible > 0 {
		opts = append(opts, eligible)
	}
	return opts
}
