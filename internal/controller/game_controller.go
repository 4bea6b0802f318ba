package controller

import (
	"errors"

	"birthday_quest_backend/internal/game"
	"birthday_quest_backend/internal/service"
	"birthday_quest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GameController struct {
	SessionService *service.SessionService
	PackService    *service.PackService
	Hub            *service.SpectatorHub
}

func NewGameController(sessionService *service.SessionService, packService *service.PackService, hub *service.SpectatorHub) *GameController {
	return &GameController{
		SessionService: sessionService,
		PackService:    packService,
		Hub:            hub,
	}
}

// CategoryInfo 分类概览，只暴露可玩题目数
// swagger:model CategoryInfo
type CategoryInfo struct {
	Name          string `json:"name"`
	Icon          string `json:"icon"`
	EligibleCount int    `json:"eligibleCount"`
}

// PackInfo 开局页需要的数据：角色、分类、题量档位、开场剧情
// swagger:model PackInfo
type PackInfo struct {
	Name            string            `json:"name"`
	Characters      []game.Character  `json:"characters"`
	Categories      []CategoryInfo    `json:"categories"`
	CountOptions    []int             `json:"countOptions"`
	ActCount        int               `json:"actCount"`
	Intro           game.StorySegment `json:"intro"`
	PenaltyMessages []string          `json:"penaltyMessages"`
}

// GetPack godoc
// @Summary 获取题库概要
// @Description 角色、分类、可选题量档位与开场剧情，玩家端开局页使用
// @Tags 对局
// @Produce  json
// @Success 200 {object} util.Response{data=PackInfo}
// @Failure 503 {object} util.Response "题库未装配"
// @Router /api/game/pack [get]
func (c *GameController) GetPack(ctx *gin.Context) {
	pack, err := c.PackService.Current()
	if err != nil {
		util.Error(ctx, 503, "题库尚未装配完成")
		return
	}
	categories := make([]CategoryInfo, 0, len(pack.Categories))
	for _, cat := range pack.Categories {
		eligible := 0
		for _, q := range cat.Questions {
			if q.Eligible() {
				eligible++
			}
		}
		categories = append(categories, CategoryInfo{
			Name:          cat.Name,
			Icon:          cat.Icon,
			EligibleCount: eligible,
		})
	}
	util.Success(ctx, PackInfo{
		Name:            pack.Name,
		Characters:      pack.Characters,
		Categories:      categories,
		CountOptions:    pack.CountOptions(),
		ActCount:        game.ActCount,
		Intro:           pack.Script.Intro,
		PenaltyMessages: game.PenaltyMessages(),
	})
}

// CreateSessionRequest 开局请求
// swagger:model CreateSessionRequest
type CreateSessionRequest struct {
	PlayerName    string `json:"playerName"`
	CharacterID   uint   `json:"characterId" binding:"required"`
	QuestionCount int    `json:"questionCount" binding:"required,min=1"`
}

// CreateSession godoc
// @Summary 开一局
// @Description 选角色与题量后创建对局，题量越界时自动收敛到可玩题目数
// @Tags 对局
// @Accept  json
// @Produce  json
// @Param   body body CreateSessionRequest true "开局参数"
// @Success 201 {object} util.Response{data=service.SessionView}
// @Failure 400 {object} util.Response "参数错误或角色不存在"
// @Failure 503 {object} util.Response "题库未装配"
// @Router /api/game/sessions [post]
func (c *GameController) CreateSession(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SessionService.Create(req.PlayerName, req.CharacterID, req.QuestionCount)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPackNotLoaded):
			util.Error(ctx, 503, "题库尚未装配完成")
		case errors.Is(err, game.ErrCharacterNotFound):
			util.BadRequest(ctx, "角色不存在")
		case errors.Is(err, game.ErrNoEligibleQuestions):
			util.Error(ctx, 503, "题库中没有可玩题目")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, view)
}

// GetSession godoc
// @Summary 查询对局状态
// @Tags 对局
// @Produce  json
// @Param   id path string true "对局 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response "对局不存在"
// @Router /api/game/sessions/{id} [get]
func (c *GameController) GetSession(ctx *gin.Context) {
	view, err := c.SessionService.Get(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, view)
}

// SubmitAnswerRequest 提交答案
// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	AnswerIndex *int `json:"answerIndex" binding:"required"`
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Description 反馈窗口内的重复提交会被丢弃（outcome.accepted=false），不报错
// @Tags 对局
// @Accept  json
// @Produce  json
// @Param   id path string true "对局 ID"
// @Param   body body SubmitAnswerRequest true "答案下标"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 404 {object} util.Response "对局不存在"
// @Failure 409 {object} util.Response "对局已通关"
// @Router /api/game/sessions/{id}/answers [post]
func (c *GameController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SessionService.Submit(ctx.Param("id"), *req.AnswerIndex)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, game.ErrSessionComplete):
			util.Conflict(ctx, "对局已通关")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// ContinueStory godoc
// @Summary 关闭剧情插页
// @Description 剧情阶段专用，推进到下一题或通关
// @Tags 对局
// @Produce  json
// @Param   id path string true "对局 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response "对局不存在"
// @Failure 409 {object} util.Response "当前不在剧情阶段"
// @Router /api/game/sessions/{id}/continue [post]
func (c *GameController) ContinueStory(ctx *gin.Context) {
	view, err := c.SessionService.ContinueStory(ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, game.ErrWrongPhase):
			util.Conflict(ctx, "当前不在剧情阶段")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// AcknowledgePenalty godoc
// @Summary 关闭惩罚弹窗
// @Description 惩罚阶段专用，回到原题继续作答
// @Tags 对局
// @Produce  json
// @Param   id path string true "对局 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response "对局不存在"
// @Failure 409 {object} util.Response "当前不在惩罚阶段"
// @Router /api/game/sessions/{id}/penalty/ack [post]
func (c *GameController) AcknowledgePenalty(ctx *gin.Context) {
	view, err := c.SessionService.AcknowledgePenalty(ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, game.ErrWrongPhase):
			util.Conflict(ctx, "当前不在惩罚阶段")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// GetSummary godoc
// @Summary 通关结算
// @Tags 对局
// @Produce  json
// @Param   id path string true "对局 ID"
// @Success 200 {object} util.Response{data=game.Summary}
// @Failure 404 {object} util.Response "对局不存在"
// @Failure 409 {object} util.Response "对局尚未通关"
// @Router /api/game/sessions/{id}/summary [get]
func (c *GameController) GetSummary(ctx *gin.Context) {
	summary, err := c.SessionService.Summary(ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionNotComplete):
			util.Conflict(ctx, "对局尚未通关")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, summary)
}

// RestartRequest 重开请求，题量可选（缺省沿用原题量）
// swagger:model RestartRequest
type RestartRequest struct {
	QuestionCount int `json:"questionCount"`
}

// Restart godoc
// @Summary 重开一局
// @Description 放弃当前对局，用同一角色重新抽题开局
// @Tags 对局
// @Accept  json
// @Produce  json
// @Param   id path string true "对局 ID"
// @Param   body body RestartRequest false "重开参数"
// @Success 201 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response "对局不存在"
// @Router /api/game/sessions/{id}/restart [post]
func (c *GameController) Restart(ctx *gin.Context) {
	var req RestartRequest
	_ = ctx.ShouldBindJSON(&req)

	view, err := c.SessionService.Restart(ctx.Param("id"), req.QuestionCount)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPackNotLoaded):
			util.Error(ctx, 503, "题库尚未装配完成")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, view)
}

// GetReplay godoc
// @Summary 剧情回放
// @Description 通关后可用，返回完整播放列表与当前游标
// @Tags 对局
// @Produce  json
// @Param   id path string true "对局 ID"
// @Success 200 {object} util.Response{data=game.Replay}
// @Failure 404 {object} util.Response "对局不存在"
// @Failure 409 {object} util.Response "尚未通关"
// @Router /api/game/sessions/{id}/replay [get]
func (c *GameController) GetReplay(ctx *gin.Context) {
	replay, err := c.SessionService.Replay(ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrReplayNotAvailable):
			util.Conflict(ctx, "通关后才能回放剧情")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, replay)
}

// ReplayNext godoc
// @Summary 回放推进
// @Description 游标前进一段；done=true 表示播放列表已走完
// @Tags 对局
// @Produce  json
// @Param   id path string true "对局 ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "对局不存在"
// @Failure 409 {object} util.Response "尚未通关"
// @Router /api/game/sessions/{id}/replay/next [post]
func (c *GameController) ReplayNext(ctx *gin.Context) {
	item, done, err := c.SessionService.ReplayNext(ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrReplayNotAvailable):
			util.Conflict(ctx, "通关后才能回放剧情")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"item": item, "done": done})
}

// Watch godoc
// @Summary 围观对局
// @Description 升级为 WebSocket，实时接收该对局的事件流
// @Tags 对局
// @Param   id path string true "对局 ID"
// @Router /api/game/sessions/{id}/watch [get]
func (c *GameController) Watch(ctx *gin.Context) {
	id := ctx.Param("id")
	if _, err := c.SessionService.Get(id); err != nil {
		util.NotFound(ctx)
		return
	}
	service.ServeSpectator(c.Hub, ctx.Writer, ctx.Request, id)
}
