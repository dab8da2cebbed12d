package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	analyzerOnce   sync.Once
	analyzerConfig *AnalyzerConfig
)

// AnalyzerConfig tunes the extraction and prediction pipeline. Values come
// from analyzer.yaml at the project root when present, then from the
// environment, then from defaults.
type AnalyzerConfig struct {
	OCRBackend     string   `yaml:"ocrBackend"`
	OCRLanguages   []string `yaml:"ocrLanguages"`
	MaxOCRPages    int      `yaml:"maxOcrPages"`
	MinTextLength  int      `yaml:"minTextLength"`
	SkipTextLayers bool     `yaml:"skipTextLayers"`

	CacheBackend   string        `yaml:"cacheBackend"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
	SweepThreshold int           `yaml:"sweepThreshold"`

	StorageType string `yaml:"storageType"`

	MaxFileSize int64 `yaml:"maxFileSize"`
	MaxFiles    int   `yaml:"maxFiles"`

	Concurrency int `yaml:"concurrency"`
}

func defaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		OCRBackend:     getEnv("OCR_BACKEND", "tesseract"),
		OCRLanguages:   []string{"eng"},
		MaxOCRPages:    getEnvInt("MAX_OCR_PAGES", 10),
		MinTextLength:  getEnvInt("MIN_TEXT_LENGTH", 100),
		SkipTextLayers: getEnvBool("SKIP_TEXT_LAYERS", false),
		CacheBackend:   getEnv("CACHE_BACKEND", "redis"),
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_HOURS", 24)) * time.Hour,
		SweepThreshold: getEnvInt("CACHE_SWEEP_THRESHOLD", 1000),
		StorageType:    getEnv("STORAGE_TYPE", "minio"),
		MaxFileSize:    int64(getEnvInt("MAX_FILE_SIZE_MB", 50)) * 1024 * 1024,
		MaxFiles:       getEnvInt("MAX_FILES_PER_JOB", 20),
		Concurrency:    getEnvInt("WORKER_CONCURRENCY", 5),
	}
}

func GetAnalyzerConfig() *AnalyzerConfig {
	analyzerOnce.Do(func() {
		loadEnv()
		analyzerConfig = defaultAnalyzerConfig()

		_, filename, _, _ := runtime.Caller(0)
		rootDir := filepath.Dir(filepath.Dir(filename))
		yamlPath := filepath.Join(rootDir, "analyzer.yaml")

		data, err := os.ReadFile(yamlPath)
		if err != nil {
			// Optional file; env and defaults already applied.
			return
		}
		if err := yaml.Unmarshal(data, analyzerConfig); err != nil {
			log.Printf("Warning: failed to parse %s: %v", yamlPath, err)
		}
	})
	return analyzerConfig
}
