package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	BaseURL string

	FetchRetries    int
	ListingRetries  int
	FetchBackoffSec int
	CrawlRetries    int
	CrawlBackoffSec int
	RetryJitter     bool

	SaveHTML bool
	HTMLDir  string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "aruodas_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		BaseURL: getEnv("BASE_URL", "https://www.aruodas.lt"),

		FetchRetries:    getEnvInt("FETCH_RETRIES", 10),
		ListingRetries:  getEnvInt("LISTING_RETRIES", 3),
		FetchBackoffSec: getEnvInt("FETCH_BACKOFF_SEC", 10),
		CrawlRetries:    getEnvInt("CRAWL_RETRIES", 100),
		CrawlBackoffSec: getEnvInt("CRAWL_BACKOFF_SEC", 30),
		RetryJitter:     getEnvBool("RETRY_JITTER", true),

		SaveHTML: getEnvBool("SAVE_HTML", false),
		HTMLDir:  getEnv("HTML_DIR", "./raw_html"),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
