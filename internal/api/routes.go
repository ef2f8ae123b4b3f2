package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	activityService service.ActivityService,
	challengeService service.ChallengeService,
	eventService service.EventService,
	reportService service.ReportService,
) {
	authHandler := NewAuthHandler(authService)
	activityHandler := NewActivityHandler(activityService, challengeService)
	challengeHandler := NewChallengeHandler(challengeService)
	eventHandler := NewEventHandler(eventService, challengeService)
	adminHandler := NewAdminHandler(challengeService, reportService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := c.Get(ContextUserRoleKey)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})
		protected.PUT("/me/notify", authHandler.SetNotify)

		// --- Strava link and activity sync ---
		stravaGroup := protected.Group("/strava")
		{
			stravaGroup.GET("/connect", activityHandler.Connect)
			stravaGroup.GET("/callback", activityHandler.Callback)
			stravaGroup.POST("/sync", activityHandler.Sync)
		}
		protected.GET("/activities", activityHandler.ListMonth)

		// --- Challenge dashboard ---
		challengeGroup := protected.Group("/challenge")
		{
			challengeGroup.GET("/summary", challengeHandler.MonthlySummary)
			challengeGroup.GET("/history", challengeHandler.PenaltyHistory)
			challengeGroup.GET("/roster", challengeHandler.Roster)
		}

		// --- Events ---
		eventGroup := protected.Group("/events")
		{
			eventGroup.GET("", eventHandler.List)
			eventGroup.POST("", RoleMiddleware(domain.RoleAdmin), eventHandler.Create)
			eventGroup.PUT("/:eventId", RoleMiddleware(domain.RoleAdmin), eventHandler.Update)
			eventGroup.DELETE("/:eventId", RoleMiddleware(domain.RoleAdmin), eventHandler.Delete)
			eventGroup.POST("/:eventId/link", eventHandler.LinkActivity)
		}
		protected.GET("/participations", eventHandler.Participations)

		// --- Admin ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/athletes/pending", authHandler.PendingAthletes)
			adminGroup.PUT("/athletes/:userId/approval", authHandler.Approve)

			adminGroup.GET("/config", adminHandler.GetConfig)
			adminGroup.PUT("/config", adminHandler.UpdateConfig)
			adminGroup.PUT("/config/holidays/:key", adminHandler.ToggleHoliday)

			adminGroup.POST("/reports", adminHandler.GenerateReport)
			adminGroup.GET("/reports", adminHandler.ListReports)
			adminGroup.GET("/reports/:reportId/url", adminHandler.ReportDownloadURL)
		}
	}
}
