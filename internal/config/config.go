package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Ingest      IngestConfig
	Narrative   NarrativeConfig
	Sources     SourcesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds Postgres configuration.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// IngestConfig holds ingest pipeline configuration.
type IngestConfig struct {
	PollInterval         time.Duration
	MaxConcurrentSources int
	EventsTopic          string
	DedupeCapacity       int
	DedupeTTL            time.Duration
}

// NarrativeConfig holds narrative detection configuration.
type NarrativeConfig struct {
	ScanInterval         time.Duration
	Window               time.Duration
	MinMentions          int
	MinScore             float64
	DetectionThreshold   float64
	CorrelationThreshold float64
	EventsTopic          string
	Retention            time.Duration
}

// SourcesConfig holds source connector configuration.
type SourcesConfig struct {
	Feeds              map[string]string
	FeedItemLimit      int
	FeedMaxAge         time.Duration
	Subreddits         []string
	RedditSort         string
	RedditLimit        int
	TwitterQueries     []string
	TwitterBearerToken string
	TwitterMaxResults  int
	UserAgent          string
	RequestTimeout     time.Duration
}

// defaultFeeds mirrors the feed set the tracker was originally seeded with.
var defaultFeeds = map[string]string{
	"techcrunch":  "https://techcrunch.com/feed/",
	"ycombinator": "https://news.ycombinator.com/rss",
	"verge":       "https://www.theverge.com/rss/index.xml",
	"wired":       "https://www.wired.com/feed/rss",
	"ars":         "https://feeds.arstechnica.com/arstechnica/index",
	"reuters":     "https://www.reutersagency.com/feed/?best-topics=tech",
	"bloomberg":   "https://feeds.bloomberg.com/markets/news.rss",
	"wsj":         "https://feeds.a.dj.com/rss/RSSMarketsMain.xml",
}

var defaultSubreddits = []string{
	"technology", "news", "worldnews", "programming",
	"artificial", "MachineLearning", "datascience",
	"startups", "business", "cryptocurrency",
}

// Load loads configuration from environment variables.
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "narratrack"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Ingest: IngestConfig{
			PollInterval:         getEnvAsDuration("INGEST_POLL_INTERVAL", 5*time.Minute),
			MaxConcurrentSources: getEnvAsInt("INGEST_MAX_CONCURRENT_SOURCES", 4),
			EventsTopic:          getEnv("INGEST_EVENTS_TOPIC", "documents"),
			DedupeCapacity:       getEnvAsInt("INGEST_DEDUPE_CAPACITY", 50000),
			DedupeTTL:            getEnvAsDuration("INGEST_DEDUPE_TTL", 24*time.Hour),
		},
		Narrative: NarrativeConfig{
			ScanInterval:         getEnvAsDuration("NARRATIVE_SCAN_INTERVAL", 2*time.Minute),
			Window:               getEnvAsDuration("NARRATIVE_WINDOW", 6*time.Hour),
			MinMentions:          getEnvAsInt("NARRATIVE_MIN_MENTIONS", 3),
			MinScore:             getEnvAsFloat("NARRATIVE_MIN_SCORE", 10.0),
			DetectionThreshold:   getEnvAsFloat("NARRATIVE_DETECTION_THRESHOLD", 50.0),
			CorrelationThreshold: getEnvAsFloat("NARRATIVE_CORRELATION_THRESHOLD", 0.5),
			EventsTopic:          getEnv("NARRATIVE_EVENTS_TOPIC", "narratives"),
			Retention:            getEnvAsDuration("NARRATIVE_RETENTION", 30*24*time.Hour),
		},
		Sources: SourcesConfig{
			Feeds:              getEnvAsFeedMap("SOURCE_FEEDS", defaultFeeds),
			FeedItemLimit:      getEnvAsInt("SOURCE_FEED_ITEM_LIMIT", 20),
			FeedMaxAge:         getEnvAsDuration("SOURCE_FEED_MAX_AGE", 7*24*time.Hour),
			Subreddits:         getEnvAsSlice("SOURCE_SUBREDDITS", defaultSubreddits),
			RedditSort:         getEnv("SOURCE_REDDIT_SORT", "hot"),
			RedditLimit:        getEnvAsInt("SOURCE_REDDIT_LIMIT", 25),
			TwitterQueries:     getEnvAsSlice("SOURCE_TWITTER_QUERIES", nil),
			TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
			TwitterMaxResults:  getEnvAsInt("SOURCE_TWITTER_MAX_RESULTS", 50),
			UserAgent:          getEnv("SOURCE_USER_AGENT", "narratrack/1.0"),
			RequestTimeout:     getEnvAsDuration("SOURCE_REQUEST_TIMEOUT", 30*time.Second),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid.
func validate(config Config) error {
	if config.Narrative.Window <= 0 {
		return fmt.Errorf("narrative window must be positive")
	}
	if config.Narrative.CorrelationThreshold < 0 || config.Narrative.CorrelationThreshold > 1 {
		return fmt.Errorf("correlation threshold must be within [0, 1]")
	}
	if len(config.Sources.Feeds) == 0 && len(config.Sources.Subreddits) == 0 && len(config.Sources.TwitterQueries) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// getEnvAsFeedMap parses "name=url,name=url" pairs.
func getEnvAsFeedMap(key string, defaultValue map[string]string) map[string]string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	feeds := make(map[string]string)
	for _, pair := range strings.Split(valueStr, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		feeds[name] = url
	}
	if len(feeds) == 0 {
		return defaultValue
	}
	return feeds
}
