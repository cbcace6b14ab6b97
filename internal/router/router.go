package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/internal/app/controller"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/pkg/metrics"
)

// Controllers groups every HTTP handler set the router mounts.
type Controllers struct {
	Auth         *controller.AuthController
	Business     *controller.BusinessController
	Category     *controller.CategoryController
	Intake       *controller.IntakeController
	Subscription *controller.SubscriptionController
	Admin        *controller.AdminController
	Upload       *controller.UploadController
}

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
	ping           Pinger
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config, ping Pinger) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
		ping:           ping,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)
	router.GET("/metrics", metrics.Handler())

	// Locally stored uploads
	router.Static("/uploads", r.config.Upload.Dir)

	auth := r.authMiddleware
	ctrl := r.controllers

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", ctrl.Auth.Register)
			authGroup.POST("/login", ctrl.Auth.Login)
			authGroup.POST("/refresh", ctrl.Auth.Refresh)
			authGroup.POST("/logout", auth.Authenticate(), ctrl.Auth.Logout)
			authGroup.POST("/verify-email", ctrl.Auth.VerifyEmail)
			authGroup.POST("/resend-verification", ctrl.Auth.ResendVerification)
			authGroup.POST("/forgot-password", ctrl.Auth.ForgotPassword)
			authGroup.POST("/reset-password", ctrl.Auth.ResetPassword)
			authGroup.GET("/me", auth.Authenticate(), ctrl.Auth.GetMe)
			authGroup.PUT("/me", auth.Authenticate(), ctrl.Auth.UpdateMe)
		}

		businesses := v1.Group("/businesses")
		{
			businesses.GET("", ctrl.Business.List)
			businesses.GET("/slug/:slug", ctrl.Business.GetBySlug)
			businesses.GET("/:id", ctrl.Business.Get)

			businesses.PUT("/:id", auth.Authenticate(), ctrl.Business.Update)
			businesses.PUT("/:id/media", auth.Authenticate(), ctrl.Business.UpdateMedia)
			businesses.PUT("/:id/status", auth.Authenticate(), ctrl.Business.SetStatus)
			businesses.DELETE("/:id", auth.Authenticate(), ctrl.Business.Delete)
			businesses.POST("/:id/claims", auth.Authenticate(), ctrl.Intake.SubmitClaim)
			businesses.GET("/:id/subscription", auth.Authenticate(), ctrl.Subscription.Get)
			businesses.POST("/:id/subscription", auth.Authenticate(), ctrl.Subscription.Set)
			businesses.POST("/:id/subscription/request", auth.Authenticate(), ctrl.Subscription.Request)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", ctrl.Category.List)
			categories.GET("/:slug", ctrl.Category.GetBySlug)
		}

		v1.GET("/plans", ctrl.Subscription.ListPlans)

		registrations := v1.Group("/registrations")
		{
			registrations.POST("/users", ctrl.Intake.SubmitUserRegistration)
			registrations.POST("/businesses", auth.OptionalAuthenticate(), ctrl.Intake.SubmitBusinessRegistration)
		}

		v1.GET("/me/businesses", auth.Authenticate(), ctrl.Business.ListMine)

		uploads := v1.Group("/uploads", auth.Authenticate())
		{
			uploads.POST("", ctrl.Upload.Upload)
			uploads.POST("/presigned-url", ctrl.Upload.GeneratePresignedURL)
		}

		admin := v1.Group("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
		{
			admin.GET("/stats", ctrl.Admin.Stats)

			admin.GET("/requests/:kind", ctrl.Admin.ListRequests)
			admin.POST("/requests/:kind/:id/processed", ctrl.Admin.MarkProcessed)
			admin.POST("/requests/:kind/:id/reject", ctrl.Admin.Reject)

			admin.POST("/claims/:id/approve", ctrl.Admin.ApproveClaim)
			admin.POST("/registrations/businesses/:id/process", ctrl.Admin.ProcessBusinessRegistration)
			admin.POST("/registrations/users/:id/process", ctrl.Admin.ProcessUserRegistration)

			admin.GET("/businesses", ctrl.Admin.ListBusinesses)
			admin.PUT("/businesses/:id/owner", ctrl.Admin.AssignOwner)
			admin.POST("/businesses/:id/verify", ctrl.Admin.Verify)
			admin.DELETE("/businesses/:id/subscription", ctrl.Subscription.Cancel)

			admin.GET("/users", ctrl.Admin.ListUsers)
			admin.PUT("/users/:id", ctrl.Admin.UpdateUser)
			admin.DELETE("/users/:id", ctrl.Admin.DeleteUser)

			admin.GET("/activities", ctrl.Admin.ListActivities)
			admin.GET("/activities/ws", ctrl.Admin.ActivityFeed)
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	if r.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := r.ping(ctx); err != nil {
			middleware.GetLoggerFromContext(c).Error("Health check failed", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Business directory API is running",
	})
}
