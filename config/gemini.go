package config

import (
	"os"
	"sync"
)

var (
	geminiOnce   sync.Once
	geminiConfig *GeminiConfig
)

type GeminiConfig struct {
	APIKey string
	Model  string
}

// Enabled reports whether an inference adapter should be constructed at all.
func (c *GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

func GetGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		loadEnv()
		geminiConfig = &GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		}
	})
	return geminiConfig
}
