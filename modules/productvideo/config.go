package productvideo

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DefaultModel    string
	PollInterval    time.Duration
	MaxPollAttempts int
	OutputDir       string
}

func LoadConfig() *Config {
	cfg := &Config{
		DefaultModel:    ModelVeoQuality,
		PollInterval:    10 * time.Second,
		MaxPollAttempts: 60,
		OutputDir:       "generated-videos",
	}

	if model := os.Getenv("VEO_MODEL"); model != "" {
		cfg.DefaultModel = model
	}

	if intervalStr := os.Getenv("VEO_POLL_INTERVAL_SECONDS"); intervalStr != "" {
		if parsed, err := strconv.Atoi(intervalStr); err == nil && parsed > 0 {
			cfg.PollInterval = time.Duration(parsed) * time.Second
		}
	}

	if attemptsStr := os.Getenv("VEO_MAX_POLL_ATTEMPTS"); attemptsStr != "" {
		if parsed, err := strconv.Atoi(attemptsStr); err == nil && parsed > 0 {
			cfg.MaxPollAttempts = parsed
		}
	}

	if dir := os.Getenv("VIDEO_OUTPUT_DIR"); dir != "" {
		cfg.OutputDir = dir
	}

	log.Printf("✅ Product video config: model=%s, poll=%s, maxPolls=%d, outputDir=%s",
		cfg.DefaultModel, cfg.PollInterval, cfg.MaxPollAttempts, cfg.OutputDir)

	return cfg
}
