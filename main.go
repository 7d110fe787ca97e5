package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workerlly/config"
	"workerlly/cron"
	"workerlly/database"
	bidRepoPkg "workerlly/database/repository/bid"
	catalogRepoPkg "workerlly/database/repository/catalog"
	jobRepoPkg "workerlly/database/repository/job"
	locationRepoPkg "workerlly/database/repository/location"
	profileRepoPkg "workerlly/database/repository/profile"
	reportRepoPkg "workerlly/database/repository/report"
	tokenRepoPkg "workerlly/database/repository/token"
	userRepoPkg "workerlly/database/repository/user"
	"workerlly/handlers"
	"workerlly/middleware"
	"workerlly/routes"
	"workerlly/services/auth"
	"workerlly/services/bidding"
	jobService "workerlly/services/job"
	"workerlly/services/jobcache"
	"workerlly/services/notifier"
	"workerlly/services/registry"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	userRepo := userRepoPkg.NewMongoUserRepo()
	profileRepo := profileRepoPkg.NewMongoProfileRepo()
	jobRepo := jobRepoPkg.NewMongoJobRepo(profileRepo)
	bidRepo := bidRepoPkg.NewMongoBidRepo(profileRepo)
	tokenRepo := tokenRepoPkg.NewMongoTokenRepo()
	locationRepo := locationRepoPkg.NewMongoLocationRepo()
	catalogRepo := catalogRepoPkg.NewMongoCatalogRepo()
	reportRepo := reportRepoPkg.NewMongoReportRepo()

	// live channel + job cache.
	reg := registry.NewRegistry()
	cache := jobcache.NewCache(utils.GetJobCacheClient())

	// notification hub: WebSocket first, FCM behind it, reports queued.
	reportSink := cron.NewQueuedReportSink(reportRepo)
	defer reportSink.Close()
	pushSender := notifier.NewFCMSender(utils.FCMClient, tokenRepo)
	hub := notifier.NewHub(reg, pushSender, profileRepo, reportSink)

	// services.
	biddingService := bidding.NewService(userRepo, profileRepo, jobRepo, bidRepo, cache, hub)
	jobSvc := jobService.NewService(jobRepo, bidRepo, profileRepo, userRepo, catalogRepo, cache, hub, reg)
	authService := auth.NewService(userRepo)

	// Relay subscriber: re-announces still-pending jobs when their relay
	// key expires.
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	subscriber := jobcache.NewSubscriber(utils.GetJobCacheClient(), cache, jobSvc.HandleRelay)
	go subscriber.Run(subCtx)

	// Background worker: midnight sweep + delivery report persistence.
	cron.StartWorker(jobSvc, reportRepo)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetJobCacheClient(), utils.GetAuthCacheClient(), utils.GetOTPCacheClient()},
		database.MongoClient,
	)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		UserRepo: userRepo,
		Auth:     handlers.NewAuthHandler(authService),
		Jobs:     handlers.NewJobHandler(jobSvc),
		Bids:     handlers.NewBidHandler(biddingService),
		Tokens:   handlers.NewTokenHandler(tokenRepo, reportRepo),
		WS:       handlers.NewWSHandler(reg, cache, profileRepo, locationRepo, jobSvc, biddingService),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
