package controller

import (
	"birthday_quest_backend/internal/service"
	"birthday_quest_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB          *gorm.DB
	PackService *service.PackService
}

func NewHealthController(db *gorm.DB, packService *service.PackService) *HealthController {
	return &HealthController{DB: db, PackService: packService}
}

// @Summary 健康检查
// @Description 检查数据库连接与题库装配状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	packStatus := "up"
	if _, err := c.PackService.Current(); err != nil {
		packStatus = "not-loaded"
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"pack":     packStatus,
		},
	})
}
