package routes

import (
	"abstract-review-api/controllers"
	"abstract-review-api/middleware"
	"abstract-review-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Abstract Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth management
			protected.POST("/refresh", controllers.RefreshToken)
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Common endpoints (all authenticated users)
			protected.GET("/events", controllers.GetEvents)
			protected.GET("/events/:id", controllers.GetEvent)
			protected.GET("/categories", controllers.GetCategories)

			// Files
			protected.POST("/files", controllers.UploadFile)
			protected.GET("/files/:file_id", controllers.DownloadFile)

			// Notifications
			protected.GET("/notifications", controllers.GetNotifications)
			protected.PUT("/notifications/:id/read", controllers.MarkNotificationRead)
			protected.PUT("/notifications/read-all", controllers.MarkAllNotificationsRead)

			// Abstracts
			abstracts := protected.Group("/abstracts")
			{
				abstracts.GET("", controllers.GetAbstracts)
				abstracts.GET("/:id", controllers.GetAbstract)
				abstracts.GET("/:id/comments", controllers.GetComments)
				abstracts.POST("/:id/comments", controllers.AddComment)

				// Owners (registrants and authors) submit and resubmit
				abstracts.POST("", middleware.RequireRole(models.RoleRegistrant, models.RoleAuthor), controllers.SubmitAbstract)
				abstracts.POST("/:id/resubmit", middleware.RequireRole(models.RoleRegistrant, models.RoleAuthor), controllers.ResubmitAbstract)

				// Reviewers submit reviews
				abstracts.POST("/:id/reviews", middleware.RequireRole(models.RoleReviewer), controllers.SubmitReview)
				abstracts.GET("/:id/reviews", controllers.GetReviews)
				abstracts.GET("/:id/progress", controllers.GetReviewProgress)

				// Staff assign reviewers and decide
				abstracts.POST("/:id/reviewers", middleware.RequireRole(models.RoleStaff), controllers.AssignReviewer)
				abstracts.POST("/:id/decision", middleware.RequireRole(models.RoleStaff), controllers.DecideAbstract)

				// Verification gate (author flow)
				abstracts.GET("/:id/verification", controllers.GetVerificationProof)
				abstracts.POST("/:id/verification", middleware.RequireRole(models.RoleAuthor), controllers.UploadRegistrationProof)
				abstracts.POST("/:id/verification/verdict", middleware.RequireRole(models.RoleStaff), controllers.VerifyRegistrationProof)
				abstracts.POST("/:id/final-file", middleware.RequireRole(models.RoleAuthor), controllers.UploadFinalFile)
			}

			// Assignment batches and the staff dashboard
			staff := protected.Group("", middleware.RequireRole(models.RoleStaff))
			{
				staff.POST("/assignments/bulk", controllers.BulkAssignReviewers)
				staff.POST("/assignments/auto", controllers.AutoAssignReviewers)
				staff.GET("/events/:id/reviewers", controllers.GetEventReviewers)
				staff.POST("/events/:id/reviewers", controllers.AddEventReviewer)
				staff.GET("/dashboard/events/:event_id", controllers.GetEventDashboard)
			}
		}
	}
}
