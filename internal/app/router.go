package app

import (
	"birthday_quest_backend/docs"
	"birthday_quest_backend/internal/config"
	"birthday_quest_backend/internal/middleware"
	"birthday_quest_backend/internal/model"
	"birthday_quest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由：玩家端不需要登录
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		game := public.Group("/game")
		{
			game.GET("/pack", c.game.GetPack)
			game.POST("/sessions", c.game.CreateSession)
			game.GET("/sessions/:id", c.game.GetSession)
			game.POST("/sessions/:id/answers", c.game.SubmitAnswer)
			game.POST("/sessions/:id/continue", c.game.ContinueStory)
			game.POST("/sessions/:id/penalty/ack", c.game.AcknowledgePenalty)
			game.GET("/sessions/:id/summary", c.game.GetSummary)
			game.POST("/sessions/:id/restart", c.game.Restart)
			game.GET("/sessions/:id/replay", c.game.GetReplay)
			game.POST("/sessions/:id/replay/next", c.game.ReplayNext)
			game.GET("/sessions/:id/watch", c.game.Watch)
		}

		results := public.Group("/results")
		{
			results.GET("/leaderboard", c.result.Leaderboard)
			results.GET("/recent", c.result.Recent)
			results.GET("/session/:sessionId", c.result.BySession)
		}
	}

	// 出题后台：需要登录
	author := router.Group("/api/author")
	author.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Author))
	{
		author.GET("/me", c.auth.Me)

		author.GET("/questions", c.author.ListQuestions)
		author.POST("/questions", c.author.CreateQuestion)
		author.PUT("/questions/:id", c.author.UpdateQuestion)
		author.PATCH("/questions/:id/status", c.author.UpdateQuestionStatus)
		author.DELETE("/questions/:id", c.author.DeleteQuestion)

		author.GET("/categories", c.author.ListCategories)
		author.POST("/categories", c.author.CreateCategory)
		author.PUT("/categories/:id", c.author.UpdateCategory)

		author.POST("/characters", c.author.CreateCharacter)
		author.PUT("/characters/:id", c.author.UpdateCharacter)

		author.PUT("/story", c.author.UpsertStory)

		author.GET("/pack/validate", c.author.ValidatePack)
		author.POST("/pack/import", c.author.ImportPack)
		author.POST("/pack/reload", c.author.ReloadPack)

		author.POST("/media", c.author.UploadMedia)
	}
}
