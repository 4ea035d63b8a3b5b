package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "SOCIALPULSE_CONFIG"

type Config struct {
	// Source credentials and endpoints.
	MicroblogAPIURL   string `yaml:"microblogApiUrl"`
	MicroblogToken    string `yaml:"microblogToken"`
	ForumAPIURL       string `yaml:"forumApiUrl"`
	FediverseInstance string `yaml:"fediverseInstance"`
	FediverseToken    string `yaml:"fediverseToken"`

	// Collaborators.
	OpenAIAPIKey   string `yaml:"openaiApiKey"`
	TelegramToken  string `yaml:"telegramToken"`
	TelegramChatID int64  `yaml:"telegramChatId"`

	// Pipeline behavior.
	Keywords     []string      `yaml:"keywords"`
	Language     string        `yaml:"language"`
	FetchLimit   int           `yaml:"fetchLimit"`
	PollInterval time.Duration `yaml:"pollInterval"`

	// Storage.
	StorageBackend string `yaml:"storageBackend"` // csv | sqlite
	CSVPath        string `yaml:"csvPath"`
	SQLitePath     string `yaml:"sqlitePath"`
	ReadLimit      int    `yaml:"readLimit"`
	MaxRecords     int    `yaml:"maxRecords"`

	ServerPort string `yaml:"serverPort"`
	LogLevel   string `yaml:"logLevel"`
}

// Load builds the configuration from defaults, an optional YAML file
// pointed to by SOCIALPULSE_CONFIG, then environment overrides.
func Load() *Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.clampFetchLimit()

	return cfg
}

func defaultConfig() *Config {
	return &Config{
		MicroblogAPIURL:   "https://api.twitter.com",
		ForumAPIURL:       "https://www.reddit.com",
		FediverseInstance: "https://mastodon.social",
		Keywords:          []string{"cryptomonnaie", "blockchain", "web3", "politique", "technologies"},
		Language:          "fr",
		FetchLimit:        20,
		PollInterval:      1800 * time.Second,
		StorageBackend:    "csv",
		CSVPath:           "posts.csv",
		SQLitePath:        "posts.db",
		ReadLimit:         500,
		MaxRecords:        5000,
		ServerPort:        "8080",
		LogLevel:          "info",
	}
}

func (c *Config) applyEnvOverrides() {
	c.MicroblogAPIURL = getEnv("MICROBLOG_API_URL", c.MicroblogAPIURL)
	c.MicroblogToken = getEnv("MICROBLOG_BEARER_TOKEN", c.MicroblogToken)
	c.ForumAPIURL = getEnv("FORUM_API_URL", c.ForumAPIURL)
	c.FediverseInstance = getEnv("FEDIVERSE_INSTANCE", c.FediverseInstance)
	c.FediverseToken = getEnv("FEDIVERSE_ACCESS_TOKEN", c.FediverseToken)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.TelegramChatID = getEnvAsInt64("TELEGRAM_CHAT_ID", c.TelegramChatID)
	if v := os.Getenv("KEYWORDS"); v != "" {
		c.Keywords = splitKeywords(v)
	}
	c.Language = getEnv("LANGUAGE", c.Language)
	c.FetchLimit = getEnvAsInt("FETCH_LIMIT", c.FetchLimit)
	c.PollInterval = getEnvAsDuration("POLL_INTERVAL", c.PollInterval)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.CSVPath = getEnv("CSV_PATH", c.CSVPath)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.ReadLimit = getEnvAsInt("READ_LIMIT", c.ReadLimit)
	c.MaxRecords = getEnvAsInt("MAX_RECORDS", c.MaxRecords)
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// clampFetchLimit keeps the per-search bound inside the range the
// dashboard always offered (5 to 50).
func (c *Config) clampFetchLimit() {
	if c.FetchLimit < 5 {
		c.FetchLimit = 5
	}
	if c.FetchLimit > 50 {
		c.FetchLimit = 50
	}
}

func splitKeywords(value string) []string {
	parts := strings.Split(value, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
