package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"doubtdesk/internal/cache"
	"doubtdesk/internal/config"
	"doubtdesk/internal/repository"
	"doubtdesk/internal/service"
	"doubtdesk/internal/transport/rest"
	"doubtdesk/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	aiCfg := config.DefaultAIConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	logger.Info("starting doubtdesk",
		zap.String("aiModel", aiCfg.Model),
		zap.Duration("pollInterval", aiCfg.PollInterval),
		zap.Duration("gracePeriod", aiCfg.GracePeriod),
		zap.Int("maxAnswerLen", aiCfg.MaxAnswerLen))

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisAddr
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub(logger)

	// Repositories
	doubtRepo := repository.NewDoubtRepo(db)
	answerRepo := repository.NewAnswerRepo(db)
	studentRepo := repository.NewStudentRepo(db)

	// Caches
	feedCache := cache.NewFeedCache(rdb)
	studentCache := cache.NewStudentCache(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	answerSvc := service.NewAnswerService(answerRepo, doubtRepo, feedCache, logger)
	doubtSvc := service.NewDoubtService(doubtRepo, answerRepo, studentRepo, feedCache, studentCache, logger)
	aiClient := service.NewOllamaClient(aiCfg)
	responder := service.NewAIResponder(doubtRepo, answerRepo, studentRepo, answerSvc, aiClient, aiCfg, logger)
	dispatcher := service.NewDispatcher(doubtRepo, responder, aiCfg, logger)

	// wsHub implements service.Broadcaster
	answerSvc.SetBroadcaster(wsHub)
	doubtSvc.SetBroadcaster(wsHub)

	// Background AI dispatch
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()
	go dispatcher.Run(dispatchCtx)

	router := rest.NewRouter(&rest.Container{
		AuthService:   authSvc,
		DoubtService:  doubtSvc,
		AnswerService: answerSvc,
		AIResponder:   responder,
		WSHub:         wsHub,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stopDispatch()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
