package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/exam-analyzer/api/handlers"
	"github.com/feichai0017/exam-analyzer/api/routes"
	"github.com/feichai0017/exam-analyzer/config"
	"github.com/feichai0017/exam-analyzer/internal/utils/validator"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
	"github.com/feichai0017/exam-analyzer/pkg/queue"
	"github.com/feichai0017/exam-analyzer/pkg/storage"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/server.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	analyzerCfg := config.GetAnalyzerConfig()
	redisCfg := config.GetRedisConfig()

	store, err := storage.NewStorage(storage.StorageType(analyzerCfg.StorageType), log)
	if err != nil {
		log.Fatal("Failed to init storage", logger.Error(err))
	}

	q := queue.NewAsynqQueue(&queue.Config{
		RedisAddr:      redisCfg.Addr,
		RedisPassword:  redisCfg.Password,
		RedisDB:        redisCfg.DB,
		ProcessTimeout: 30 * time.Minute,
		StatusTTL:      24 * time.Hour,
	})
	defer q.Close()

	v := validator.NewSubmissionValidator(&validator.Config{
		MaxFileSize:  analyzerCfg.MaxFileSize,
		MaxFiles:     analyzerCfg.MaxFiles,
		AllowedTypes: validator.DefaultConfig().AllowedTypes,
	})

	h := handlers.NewHandlers(store, q, v, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		log.Info("Server starting on port 8080")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error:", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown:", logger.Error(err))
	}
}
