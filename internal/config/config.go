package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Weights holds the scoring coefficients. The defaults are the contract;
// deployments may override them via a YAML file (SCORING_CONFIG).
type Weights struct {
	Risk struct {
		Weather       float64 `yaml:"weather"`
		Historical    float64 `yaml:"historical"`
		Environmental float64 `yaml:"environmental"`
		Temporal      float64 `yaml:"temporal"`
	} `yaml:"risk"`
	Priority struct {
		Text         float64 `yaml:"text"`
		Media        float64 `yaml:"media"`
		LocationRisk float64 `yaml:"locationRisk"`
		Temporal     float64 `yaml:"temporal"`
	} `yaml:"priority"`
	Allocation struct {
		Distance     float64 `yaml:"distance"`
		Capability   float64 `yaml:"capability"`
		Availability float64 `yaml:"availability"`
		Experience   float64 `yaml:"experience"`
	} `yaml:"allocation"`
}

// Config is the process-level configuration, resolved from env.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	GathererTimeout time.Duration
	RateRPS         float64
	RateBurst       int
	WatchLocations  []string // "lat,lng" pairs for the scheduled risk sweep
	SweepSchedule   string   // cron expression
	Weights         Weights
}

func DefaultWeights() Weights {
	var w Weights
	w.Risk.Weather = 0.30
	w.Risk.Historical = 0.25
	w.Risk.Environmental = 0.25
	w.Risk.Temporal = 0.20
	w.Priority.Text = 0.4
	w.Priority.Media = 0.3
	w.Priority.LocationRisk = 0.2
	w.Priority.Temporal = 0.1
	w.Allocation.Distance = 0.4
	w.Allocation.Capability = 0.3
	w.Allocation.Availability = 0.2
	w.Allocation.Experience = 0.1
	return w
}

// Load resolves configuration from the environment. Missing values fall back
// to defaults; a bad SCORING_CONFIG file is an error since silently ignoring
// operator-provided weights would be worse than failing startup.
func Load() (Config, error) {
	cfg := Config{
		Addr:            ":" + getEnv("PORT", "8080"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		GathererTimeout: time.Duration(getEnvInt("GATHERER_TIMEOUT_MS", 5000)) * time.Millisecond,
		RateRPS:         getEnvFloat("RATE_RPS", 50),
		RateBurst:       getEnvInt("RATE_BURST", 100),
		SweepSchedule:   getEnv("RISK_SWEEP_SCHEDULE", "*/15 * * * *"),
		Weights:         DefaultWeights(),
	}
	if v := strings.TrimSpace(os.Getenv("WATCH_LOCATIONS")); v != "" {
		for _, part := range strings.Split(v, ";") {
			if p := strings.TrimSpace(part); p != "" {
				cfg.WatchLocations = append(cfg.WatchLocations, p)
			}
		}
	}
	if path := strings.TrimSpace(os.Getenv("SCORING_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read scoring config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg.Weights); err != nil {
			return cfg, fmt.Errorf("parse scoring config: %w", err)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
