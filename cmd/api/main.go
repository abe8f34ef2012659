package main

import (
	"context"
	"log"
	"time"

	"freight-market-api-server/config"
	"freight-market-api-server/internal/api/routes"
	"freight-market-api-server/internal/auth"
	"freight-market-api-server/internal/cache"
	"freight-market-api-server/internal/database"
	"freight-market-api-server/internal/events"
	"freight-market-api-server/internal/mail"
	"freight-market-api-server/internal/repository"
	"freight-market-api-server/internal/s3"
	"freight-market-api-server/internal/services"
	"freight-market-api-server/internal/socket"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	auth.Init(cfg.JWT.Secret, cfg.JWT.Expiration)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}
	defer rdb.Close()

	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 uploader: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	bidRepo := repository.NewBidRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	listCache := cache.New(rdb)
	publisher := events.NewRedisPublisher(rdb)
	hub := socket.NewHub()
	mailer := mail.NewMailer(cfg.SMTP)

	userService := services.NewUserService(userRepo)
	jobService := services.NewJobService(jobRepo, bidRepo, publisher, listCache)
	bidService := services.NewBidService(bidRepo, jobRepo, userRepo, publisher, listCache)
	reviewService := services.NewReviewService(reviewRepo, jobRepo, bidRepo, userRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	messageService := services.NewMessageService(messageRepo, userRepo)

	subscriber := events.NewSubscriber(rdb, notificationRepo, userRepo, hub, mailer)
	go subscriber.Run(ctx)

	jobService.StartExpirySweep(ctx, time.Hour)

	router := routes.SetupRouter(routes.Deps{
		Users:         userService,
		Jobs:          jobService,
		Bids:          bidService,
		Reviews:       reviewService,
		Notifications: notificationService,
		Messages:      messageService,
		S3Uploader:    s3Uploader,
		Hub:           hub,
	})

	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
