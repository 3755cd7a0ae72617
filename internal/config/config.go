package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Addr         string
	DBPath       string
	CacheDBPath  string
	NVDBaseURL   string
	NVDAPIKey    string
	FeedRPS      float64
	FeedAttempts int
	FeedRetry    int // in seconds
	YearCutoff   int
	DescMaxLen   int
	Origins      []string
	Debug        bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("VULNSCAN_ADDR", ":8080")
	cfg.DBPath = getEnv("VULNSCAN_DB", defaultDataPath("vulnscan.db"))
	cfg.CacheDBPath = getEnv("VULNSCAN_CACHE_DB", defaultDataPath("feedcache.db"))
	cfg.NVDBaseURL = getEnv("VULNSCAN_NVD_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0")
	cfg.NVDAPIKey = getEnv("VULNSCAN_NVD_API_KEY", "")
	cfg.FeedRPS = getEnvFloat("VULNSCAN_FEED_RPS", 1.0)
	cfg.FeedAttempts = getEnvInt("VULNSCAN_FEED_ATTEMPTS", 3)
	cfg.FeedRetry = getEnvInt("VULNSCAN_FEED_RETRY", 6)
	cfg.YearCutoff = getEnvInt("VULNSCAN_YEAR_CUTOFF", 2010)
	cfg.DescMaxLen = getEnvInt("VULNSCAN_DESC_MAXLEN", 500)
	originStr := getEnv("VULNSCAN_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")
	cfg.Debug = getEnvBool("VULNSCAN_DEBUG", false)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.CacheDBPath, "cache-db", cfg.CacheDBPath, "Path to the local vulnerability cache database")
	flag.StringVar(&cfg.NVDBaseURL, "nvd-url", cfg.NVDBaseURL, "NVD CVE API base URL")
	flag.StringVar(&cfg.NVDAPIKey, "nvd-api-key", cfg.NVDAPIKey, "NVD API key (raises upstream rate limits)")
	flag.Float64Var(&cfg.FeedRPS, "feed-rps", cfg.FeedRPS, "Upstream feed requests per second")
	flag.IntVar(&cfg.FeedAttempts, "feed-attempts", cfg.FeedAttempts, "Total attempts per feed request when rate limited")
	flag.IntVar(&cfg.FeedRetry, "feed-retry", cfg.FeedRetry, "Delay between rate-limited feed attempts in seconds")
	flag.IntVar(&cfg.YearCutoff, "year-cutoff", cfg.YearCutoff, "Publication year below which non-exact matches are dropped")
	flag.IntVar(&cfg.DescMaxLen, "desc-maxlen", cfg.DescMaxLen, "Max stored vulnerability description length")
	flag.StringVar(&originStr, "origins", originStr, "Allowed websocket origins (comma separated)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	flag.Parse()

	cfg.Origins = parseOrigins(originStr)

	return cfg
}

func parseOrigins(s string) []string {
	var origins []string
	if s == "" {
		return origins
	}
	parts := strings.Split(s, ",")
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// defaultDataPath returns the given filename inside the user's data
// directory. Creates the directory if it doesn't exist.
func defaultDataPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return filename
	}

	// Use ~/.vulnscan directory
	dataDir := filepath.Join(home, ".vulnscan")

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Printf("Warning: Could not create .vulnscan directory, using current dir: %v", err)
		return filename
	}

	return filepath.Join(dataDir, filename)
}
