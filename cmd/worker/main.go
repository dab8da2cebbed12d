package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/exam-analyzer/config"
	"github.com/feichai0017/exam-analyzer/internal/cache"
	"github.com/feichai0017/exam-analyzer/internal/extract"
	"github.com/feichai0017/exam-analyzer/internal/extract/ocr"
	"github.com/feichai0017/exam-analyzer/internal/predict"
	"github.com/feichai0017/exam-analyzer/internal/progress"
	"github.com/feichai0017/exam-analyzer/internal/service/analysis"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
	"github.com/feichai0017/exam-analyzer/pkg/queue"
	"github.com/feichai0017/exam-analyzer/pkg/storage"
	"github.com/feichai0017/exam-analyzer/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
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

	// Every tracker transition in this process is mirrored to redis so the
	// API server can answer status polls.
	tracker := progress.NewTracker(progress.WithPublisher(q))

	recognizer, err := ocr.Shared(func() (ocr.Recognizer, error) {
		switch analyzerCfg.OCRBackend {
		case "textract":
			tc := config.GetTextractConfig()
			return ocr.NewTextractRecognizer(context.Background(), &ocr.TextractConfig{
				Region:    tc.Region,
				AccessKey: tc.AccessKey,
				SecretKey: tc.SecretKey,
			}, log)
		default:
			return ocr.NewTesseractRecognizer(log, analyzerCfg.OCRLanguages...), nil
		}
	})
	if err != nil {
		log.Fatal("Failed to init OCR recognizer", logger.Error(err))
	}

	cascade := extract.NewCascade(&extract.Config{
		MinTextLength:  analyzerCfg.MinTextLength,
		MaxOCRPages:    analyzerCfg.MaxOCRPages,
		SkipTextLayers: analyzerCfg.SkipTextLayers,
	}, recognizer, log)

	var cacheStore cache.Store
	if analyzerCfg.CacheBackend == "memory" {
		cacheStore = cache.NewMemoryStore(cache.WithSweepThreshold(analyzerCfg.SweepThreshold))
	} else {
		cacheStore = cache.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		}))
	}

	var adapter predict.Source
	geminiCfg := config.GetGeminiConfig()
	if geminiCfg.Enabled() {
		gemini, err := predict.NewGeminiSource(context.Background(), geminiCfg.APIKey, geminiCfg.Model, log)
		if err != nil {
			log.Error("Failed to init inference adapter, predictions fall back to heuristics", logger.Error(err))
		} else {
			adapter = gemini
		}
	}
	engine := predict.NewEngine(adapter, predict.NewHeuristicSource(), log)

	svc := analysis.NewService(cascade, engine, cacheStore, tracker, log, &analysis.Config{
		CacheTTL: analyzerCfg.CacheTTL,
	})

	workerCfg := &worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   analyzerCfg.Concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	}

	analysisWorker, err := worker.NewAnalysisWorker(workerCfg, svc, store, tracker, log)
	if err != nil {
		log.Fatal("Failed to create analysis worker", logger.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := analysisWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start worker", logger.Error(err))
	}

	// Papers from jobs that never completed are swept out of storage daily.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanupCtx, cleanupCancel := context.WithTimeout(ctx, 10*time.Minute)
				if err := store.CleanupBefore(cleanupCtx, time.Now().Add(-24*time.Hour)); err != nil {
					log.Warn("Storage cleanup failed", logger.Error(err))
				}
				cleanupCancel()
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	cancel()
	if err := ocr.Shutdown(); err != nil {
		log.Warn("Failed to close OCR recognizer", logger.Error(err))
	}
	log.Info("Worker stopped")
}
