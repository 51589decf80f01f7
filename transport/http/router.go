package http

import (
	"github.com/gin-gonic/gin"

	"github.com/aegle-health/aegle/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(h *Handlers, auth *service.AuthService) *gin.Engine {
	router := gin.Default()

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/challenge", h.Challenge)
		authGroup.POST("/verify", h.Verify)
	}

	api := router.Group("/")
	api.Use(AuthMiddleware(auth))
	{
		rewards := api.Group("/rewards")
		{
			rewards.POST("/eye-test", h.MintForEyeTest)
			rewards.POST("/exercise", h.MintForDailyExercise)
			rewards.POST("/family-member", h.MintForFamilyMember)
			rewards.GET("/balance", h.Balance)
			rewards.GET("/discount", h.Discount)
		}

		health := api.Group("/health")
		{
			health.POST("/conditions", h.ReportCondition)
			health.GET("/history", h.HealthHistory)
			health.GET("/statistics", h.HealthStatistics)
		}

		achievements := api.Group("/achievements")
		{
			achievements.POST("", h.MintAchievement)
			achievements.POST("/:id/sale", h.RecordSale)
			achievements.GET("/:id", h.GetAchievement)
		}

		ledger := api.Group("/ledger")
		{
			ledger.POST("/pause", h.Pause)
			ledger.POST("/unpause", h.Unpause)
		}
	}

	return router
}
