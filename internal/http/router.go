package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Vault, cfg.Version)
	router.GET("/health", health.Status)

	api := router.Group("/api")

	syncController := NewSyncController(cfg.Settings, cfg.Scheduler, cfg.Engine, cfg.Runs)
	api.POST("/sync", syncController.TriggerSync)
	api.GET("/sync/status", syncController.GetStatus)
	api.GET("/sync/runs", syncController.ListRuns)
	api.GET("/sync/runs/:run_id", syncController.GetRun)

	if cfg.Settings != nil {
		settingsController := NewSettingsController(cfg.Settings, cfg.Scheduler, cfg.Validator)
		api.GET("/settings", settingsController.GetSettings)
		api.PUT("/settings", settingsController.UpdateSettings)
		api.DELETE("/settings", settingsController.ResetSettings)
		api.POST("/settings/validate-token", settingsController.ValidateToken)
	}

	return router
}
