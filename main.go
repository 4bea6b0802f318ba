// @title Birthday Quest 后端 API
// @version 1.0
// @description 梅医生生日问答游戏的后端服务器。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"birthday_quest_backend/internal/app"
	"birthday_quest_backend/internal/config"
	"birthday_quest_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
