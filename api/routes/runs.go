package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mainajackson95/gau-tools/internal/dao"
	"github.com/mainajackson95/gau-tools/internal/handlers"
	"github.com/mainajackson95/gau-tools/internal/services"
)

func InitRunRoutes(router *gin.RouterGroup, db *gorm.DB) {
	runDao := dao.NewRunDAO(db)
	runService := services.NewRunService(runDao)
	handlers := handlers.NewRunHandler(runService)

	runRoutes := router.Group("/runs")
	{
		runRoutes.GET("", handlers.ListRuns)
		runRoutes.GET("/:id", handlers.GetRunByUUID)
		runRoutes.DELETE("/:id", handlers.DeleteRun)
		runRoutes.GET("/:id/artifacts/:name", handlers.GetArtifact)
	}
}
