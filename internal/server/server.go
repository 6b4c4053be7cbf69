package server

import (
	"codearena/configs"
	"codearena/internal/dbs"
	"codearena/internal/handlers"
	"codearena/internal/judge"
	"codearena/internal/leaderboard"
	"codearena/internal/logger"
	"codearena/internal/middlewares"
	"codearena/internal/repositories"
	"codearena/internal/services"
	"codearena/internal/workerpool"

	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func StartGinServer() {
	logger.InitLogger()
	defer logger.SyncLogger()

	config := configs.LoadConfig()

	db, err := dbs.Init(config)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := dbs.InitRedis(ctx, config.RedisAddr, config.RedisDB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer dbs.CloseRedis()

	cache := services.NewRedisCache(dbs.RedisClient, "codearena")
	tokenService := services.NewTokenService(config.JWTSecret)

	problemRepo := repositories.NewProblemRepository(db, cache)
	contestRepo := repositories.NewContestRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)

	venues := judge.VenueSet{
		Local: judge.NewLuaSandbox(),
		Remote: judge.NewRemoteVenue(
			config.JudgeBackendURL,
			time.Duration(config.JudgeCompileTimeoutMs)*time.Millisecond,
			judge.RetryPolicy{
				MaxAttempts: config.JudgeRetryAttempts,
				BaseBackoff: time.Duration(config.JudgeRetryBackoffMs) * time.Millisecond,
			},
		),
	}

	policy := judge.PolicyConfig{
		PartialCreditEnabled: config.PartialCreditEnabled,
		PartialMinPassed:     config.PartialMinPassed,
		PartialRatio:         config.PartialRatio,
	}

	grader := workerpool.NewGrader(
		submissionRepo,
		problemRepo,
		contestRepo,
		venues,
		policy,
		time.Duration(config.DefaultCaseTimeoutMs)*time.Millisecond,
	)

	pool := workerpool.NewGradingWorkerPool(
		config.NumberOfWorkers,
		dbs.RedisClient,
		config.GradingStream,
		config.GradingGroup,
		grader,
	)

	if err := pool.Start(ctx); err != nil {
		logger.Log.Error("Failed starting worker pool")
		log.Fatalf("failed to start worker pool: %v", err)
	}
	defer pool.Stop()

	aggregator := leaderboard.NewAggregator(submissionRepo, contestRepo)

	router := gin.New()
	router.Use(middlewares.ErrorHandlerMiddleware())
	router.Use(middlewares.OptionalAuthMiddleware(tokenService))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	submissionHandler := handlers.NewSubmissionHandler(submissionRepo, problemRepo, contestRepo, dbs.RedisClient, config.GradingStream)
	submissionHandler.RegisterRoutes(router)

	leaderboardHandler := handlers.NewLeaderboardHandler(aggregator)
	leaderboardHandler.RegisterRoutes(router)

	contestHandler := handlers.NewContestHandler(contestRepo, problemRepo)
	contestHandler.RegisterRoutes(router, middlewares.AuthMiddleware(tokenService))

	port := ":" + config.ServerPort
	log.Printf("Starting server on port %s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
