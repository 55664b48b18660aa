package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mdkeep/internal/middleware"
)

type RouterDeps struct {
	Import          *ImportHandler
	Settings        *SettingsHandler
	ImportRateLimit time.Duration
	JWTSecret       []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/import", middleware.RateLimit(deps.ImportRateLimit), deps.Import.Import)
	authGroup.GET("/runs/:run_id", deps.Import.GetRun)

	authGroup.GET("/settings", deps.Settings.Get)
	authGroup.PUT("/settings", deps.Settings.Put)
	authGroup.DELETE("/settings", deps.Settings.Delete)
}
