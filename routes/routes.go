package routes

import (
	"net/http"
	"time"

	"workerlly/handlers"
	"workerlly/middleware"
	"workerlly/models"
	"workerlly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the full HTTP surface onto the router.
func RegisterRoutes(router *gin.Engine, hb *handlers.HandlerBundle) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})

	api := router.Group("/api/v1")

	// Unauthenticated surface.
	api.POST("/auth/request-otp", hb.Auth.RequestOTP)
	api.POST("/auth/verify-otp", hb.Auth.VerifyOTP)
	api.POST("/payments/webhook", hb.Jobs.PaymentWebhook)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(hb.UserRepo))

	// Live channel. The upgrade carries the token as a query param.
	authed.GET("/ws", hb.WS.Serve)

	// Provider surface.
	provider := authed.Group("")
	provider.Use(middleware.RequireRole(models.RoleProvider))
	{
		provider.POST("/jobs", hb.Jobs.CreateJob)
		provider.GET("/jobs", hb.Jobs.ListJobs)
		provider.PATCH("/jobs/update-hourly-rate", hb.Jobs.UpdateHourlyRate)
		provider.PATCH("/jobs/cancel", hb.Jobs.CancelPending)
		provider.GET("/jobs/:job_id/bids", hb.Bids.ListBidsForJob)
		provider.PATCH("/bids/:bid_id", hb.Bids.ActOnBid)
		provider.POST("/cancel-job/:job_id", hb.Jobs.ProviderCancel)
		provider.POST("/delayed-cancel/:job_id", hb.Jobs.DelayedCancel)
		provider.POST("/jobs/:job_id/payment", hb.Jobs.CreatePaymentOrder)
		provider.GET("/notifications/stats", hb.Tokens.DeliveryStats)
	}

	// Seeker surface.
	seeker := authed.Group("")
	seeker.Use(middleware.RequireRole(models.RoleSeeker))
	{
		seeker.POST("/bids", hb.Bids.CreateBid)
		seeker.POST("/jobs/:job_id/reached", hb.Jobs.MarkReached)
		seeker.POST("/start-otp", hb.Jobs.VerifyStartOTP)
		seeker.POST("/done-otp", hb.Jobs.VerifyDoneOTP)
		seeker.POST("/seeker-cancel/:job_id", hb.Jobs.SeekerCancel)
		seeker.POST("/status", hb.Jobs.SetStatus)
		seeker.GET("/status", hb.Jobs.GetStatus)
	}

	// Shared authenticated surface.
	authed.GET("/jobs/:job_id", hb.Jobs.GetJob)
	authed.POST("/reviews", hb.Jobs.SubmitReview)
	authed.POST("/fcm/register", hb.Tokens.Register)
	authed.POST("/fcm/unregister", hb.Tokens.Unregister)
}
