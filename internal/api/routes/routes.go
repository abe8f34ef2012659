package routes

import (
	"freight-market-api-server/internal/api/handlers"
	"freight-market-api-server/internal/api/middleware"
	"freight-market-api-server/internal/s3"
	"freight-market-api-server/internal/services"
	"freight-market-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps holds everything the router needs.
type Deps struct {
	Users         services.UserService
	Jobs          services.JobService
	Bids          services.BidService
	Reviews       services.ReviewService
	Notifications services.NotificationService
	Messages      services.MessageService
	S3Uploader    *s3.Uploader
	Hub           *socket.Hub
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	userHandler := &handlers.UserHandler{Users: deps.Users, S3Uploader: deps.S3Uploader}
	jobHandler := &handlers.JobHandler{Jobs: deps.Jobs}
	bidHandler := &handlers.BidHandler{Bids: deps.Bids}
	reviewHandler := &handlers.ReviewHandler{Reviews: deps.Reviews}
	notificationHandler := &handlers.NotificationHandler{Notifications: deps.Notifications}
	messageHandler := &handlers.MessageHandler{Messages: deps.Messages}
	webSocketHandler := &handlers.WebSocketHandler{Hub: deps.Hub}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		// Public: browsing jobs and profiles needs no token.
		public := apiV1.Group("/")
		{
			public.GET("/jobs", jobHandler.ListJobs)
			public.GET("/jobs/:id", jobHandler.GetJob)
			public.GET("/users/:id", userHandler.GetUser)
			public.GET("/reviews/user/:userId", reviewHandler.GetUserReviews)
		}

		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate())
		{
			users := protected.Group("/users")
			{
				users.GET("/me", userHandler.GetMe)
				users.PUT("/me", userHandler.UpdateMe)
				users.POST("/me/avatar", userHandler.UploadAvatar)
			}

			jobs := protected.Group("/jobs")
			{
				jobs.GET("/my-jobs", jobHandler.GetMyJobs)
				jobs.PUT("/:id", jobHandler.UpdateJob)
				jobs.DELETE("/:id", jobHandler.DeleteJob)
				jobs.POST("/:id/complete", jobHandler.CompleteJob)
			}
			// Posting is for the hiring side of the marketplace.
			protected.POST("/jobs", middleware.Authorize("employer", "individual"), jobHandler.CreateJob)

			bids := protected.Group("/bids")
			{
				bids.POST("", middleware.Authorize("driver", "individual"), bidHandler.SubmitBid)
				bids.GET("/job/:jobId", bidHandler.GetJobBids)
				bids.GET("/employer-bids", bidHandler.GetEmployerBids)
				bids.GET("/my-bids", bidHandler.GetMyBids)
				bids.PATCH("/:id/status", bidHandler.UpdateBidStatus)
				bids.DELETE("/:id", bidHandler.WithdrawBid)
			}

			protected.POST("/reviews", reviewHandler.CreateReview)

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", notificationHandler.GetNotifications)
				notifications.PATCH("/:id/read", notificationHandler.MarkRead)
				notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
				notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			}

			messages := protected.Group("/messages")
			{
				messages.POST("", messageHandler.SendMessage)
				messages.GET("/conversations", messageHandler.GetConversations)
				messages.GET("/:userId", messageHandler.GetThread)
			}
		}
	}

	return router
}
