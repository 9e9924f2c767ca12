package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultConfigFile     = "config.json"
	DefaultServerAddress  = ":8090"
	DefaultOutputFolder   = "datasets"
	DefaultLogFile        = "download_log.txt"
	DefaultLogMaxSizeMB   = 100
	DefaultDatasetBaseURL = "https://api.data.gov.in/resource/"
	DefaultChatProvider   = "openai"
	DefaultChatModel      = "gpt-3.5-turbo-instruct"
	DefaultChatMaxTokens  = 150
	DefaultDatabaseDriver = "sqlite3"
	DefaultSQLiteDSN      = "datagovchat.db"
)

// Config represents runtime configuration for the service and the CLI.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Dataset     DatasetConfig             `json:"dataset"`
	Chatbot     ChatbotConfig             `json:"chatbot"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	OutputFolder  string `json:"output_folder"`
	LogFile       string `json:"log_file"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	// LegacyErrorStatus answers failed downloads with HTTP 200 and an error body.
	LegacyErrorStatus bool   `json:"legacy_error_status"`
	Database          string `json:"database"`
}

type DatasetConfig struct {
	BaseURL           string `json:"base_url"`
	APIKey            string `json:"api_key"`
	TimeoutSeconds    int    `json:"timeout_seconds"`
	TrustResponseBody *bool  `json:"trust_response_body"`
}

type ChatbotConfig struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing default file is not an error; an explicitly named one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		resolveRelative(&cfg, filepath.Dir(absPath))
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration populated only with built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// TrustBody reports whether downloaded bodies are written without inspection.
func (c DatasetConfig) TrustBody() bool {
	if c.TrustResponseBody == nil {
		return true
	}
	return *c.TrustResponseBody
}

// Provider returns the provider entry for name, falling back to an empty config.
func (c *Config) Provider(name string) ProviderConfig {
	if c == nil || c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[name]
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATAGOV_API_KEY"); v != "" {
		c.Dataset.APIKey = v
	}
	if v := os.Getenv("DATAGOVCHAT_ADDR"); v != "" {
		c.BasicConfig.ServerAddress = v
	}
	if v := os.Getenv("DATAGOVCHAT_DB"); v != "" {
		c.BasicConfig.Database = v
	}
	if v := os.Getenv("DATAGOVCHAT_LOG_FILE"); v != "" {
		c.BasicConfig.LogFile = v
	}
	if v := os.Getenv("DATAGOVCHAT_LEGACY_ERROR_STATUS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.BasicConfig.LegacyErrorStatus = b
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		p := c.Providers["openai"]
		if p.APIKey == "" {
			p.APIKey = v
		}
		c.Providers["openai"] = p
	}
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = DefaultServerAddress
	}
	if c.BasicConfig.OutputFolder == "" {
		c.BasicConfig.OutputFolder = DefaultOutputFolder
	}
	if c.BasicConfig.LogFile == "" {
		c.BasicConfig.LogFile = DefaultLogFile
	}
	if c.BasicConfig.LogMaxSizeMB <= 0 {
		c.BasicConfig.LogMaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.BasicConfig.Database == "" {
		c.BasicConfig.Database = DefaultDatabaseDriver
	}
	if c.Dataset.BaseURL == "" {
		c.Dataset.BaseURL = DefaultDatasetBaseURL
	}
	if !strings.HasSuffix(c.Dataset.BaseURL, "/") {
		c.Dataset.BaseURL += "/"
	}
	if c.Chatbot.Provider == "" {
		c.Chatbot.Provider = DefaultChatProvider
	}
	if c.Chatbot.Model == "" {
		if m := c.Provider(c.Chatbot.Provider).Model; m != "" {
			c.Chatbot.Model = m
		} else {
			c.Chatbot.Model = DefaultChatModel
		}
	}
	if c.Chatbot.MaxTokens <= 0 {
		c.Chatbot.MaxTokens = DefaultChatMaxTokens
	}
	if c.Databases == nil {
		c.Databases = make(map[string]DatabaseConfig)
	}
	if _, ok := c.Databases["sqlite3"]; !ok {
		c.Databases["sqlite3"] = DatabaseConfig{DSN: DefaultSQLiteDSN}
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "127.0.0.1"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
}

func resolveRelative(cfg *Config, dir string) {
	if db, ok := cfg.Databases["sqlite3"]; ok && db.DSN != "" && db.DSN != ":memory:" && !filepath.IsAbs(db.DSN) && !strings.HasPrefix(db.DSN, "file:") {
		db.DSN = filepath.Join(dir, db.DSN)
		cfg.Databases["sqlite3"] = db
	}
}
