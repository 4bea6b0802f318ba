package controller

import (
	"errors"

	"birthday_quest_backend/internal/service"
	"birthday_quest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	ResultService *service.ResultService
}

func NewResultController(resultService *service.ResultService) *ResultController {
	return &ResultController{
		ResultService: resultService,
	}
}

// Leaderboard godoc
// @Summary 排行榜
// @Description 按首答正确率降序、用时升序的前 20 名
// @Tags 结算
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.SessionResult}
// @Router /api/results/leaderboard [get]
func (c *ResultController) Leaderboard(ctx *gin.Context) {
	results, err := c.ResultService.Leaderboard()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// BySession godoc
// @Summary 按会话查结算
// @Tags 结算
// @Produce  json
// @Param   sessionId path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.SessionResult}
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/results/session/{sessionId} [get]
func (c *ResultController) BySession(ctx *gin.Context) {
	result, err := c.ResultService.BySessionID(ctx.Param("sessionId"))
	if err != nil {
		if errors.Is(err, util.ErrResultNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// Recent godoc
// @Summary 最近对局
// @Tags 结算
// @Produce  json
// @Param   limit query int false "返回条数，默认 20"
// @Success 200 {object} util.Response{data=[]model.SessionResult}
// @Router /api/results/recent [get]
func (c *ResultController) Recent(ctx *gin.Context) {
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	results, err := c.ResultService.Recent(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
