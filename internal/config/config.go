// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Login struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Ollama struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

type Config struct {
	APIBaseURL string `yaml:"api_base_url" env:"AUTOAPPLY_API_URL"`
	SearchURL  string `yaml:"search_url" env:"AUTOAPPLY_SEARCH_URL"`
	Login      Login  `yaml:"login"`
	ResumePath string `yaml:"resume_path"`
	Ollama     Ollama `yaml:"ollama"`

	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	//Browser
	Headless    bool `yaml:"headless"`
	PageSize    int  `yaml:"page_size"`
	SettleMinMS int  `yaml:"settle_min_ms"`
	SettleMaxMS int  `yaml:"settle_max_ms"`
	//Form driver
	DialogTimeout time.Duration `yaml:"dialog_timeout"`
	ReviewTimeout time.Duration `yaml:"review_timeout"`
	//Bridge
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	//Paths
	CookiesPath     string `yaml:"cookies_path"`
	StoragePath     string `yaml:"storage_path"`
	ScreenshotsPath string `yaml:"screenshots_path"`
}

func (c *Config) SettleMin() time.Duration { return time.Duration(c.SettleMinMS) * time.Millisecond }
func (c *Config) SettleMax() time.Duration { return time.Duration(c.SettleMaxMS) * time.Millisecond }

// Load reads .env and configs/config.yaml and exits on invalid configuration.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := LoadFile(DefaultPath)
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	return cfg
}

// LoadFile reads path (a missing file only warns), applies env overrides and defaults, then validates.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Warning: Could not read %s: %v", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.APIBaseURL = getEnv("AUTOAPPLY_API_URL", c.APIBaseURL)
	c.SearchURL = getEnv("AUTOAPPLY_SEARCH_URL", c.SearchURL)
	c.Login.Email = getEnv("AUTOAPPLY_EMAIL", c.Login.Email)
	c.Login.Password = getEnv("AUTOAPPLY_PASSWORD", c.Login.Password)
	c.Ollama.Endpoint = getEnv("OLLAMA_ENDPOINT", c.Ollama.Endpoint)
	c.Ollama.Model = getEnv("OLLAMA_MODEL", c.Ollama.Model)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if h := os.Getenv("AUTOAPPLY_HEADLESS"); h != "" {
		v, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid AUTOAPPLY_HEADLESS: %w", err)
		}
		c.Headless = v
	}
	if origins := os.Getenv("AUTOAPPLY_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:3000"
	}
	if c.SearchURL == "" {
		c.SearchURL = "https://www.linkedin.com/jobs/search/?f_AL=true&keywords=golang"
	}
	if c.Ollama.Endpoint == "" {
		c.Ollama.Endpoint = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "qwen2.5:3b"
	}
	if c.PageSize <= 0 {
		c.PageSize = 25
	}
	if c.SettleMinMS <= 0 {
		c.SettleMinMS = 500
	}
	if c.SettleMaxMS <= 0 {
		c.SettleMaxMS = 1500
	}
	if c.DialogTimeout <= 0 {
		c.DialogTimeout = 3 * time.Minute
	}
	if c.ReviewTimeout <= 0 {
		c.ReviewTimeout = time.Minute
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8085"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"chrome-extension://*"}
	}
	if c.CookiesPath == "" {
		c.CookiesPath = "../.cookies/linkedin.json"
	}
	if c.StoragePath == "" {
		c.StoragePath = "../.cache/storage.json"
	}
	if c.ScreenshotsPath == "" {
		c.ScreenshotsPath = "../.cache/screenshots"
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL))
	}
	if c.SettleMinMS < 500 {
		errs = append(errs, fmt.Errorf("settle_min_ms must be at least 500, got %d", c.SettleMinMS))
	}
	if c.SettleMaxMS < c.SettleMinMS {
		errs = append(errs, fmt.Errorf("settle_max_ms (%d) is below settle_min_ms (%d)", c.SettleMaxMS, c.SettleMinMS))
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		errs = append(errs, errors.New("telegram_token and telegram_chat_id must be set together"))
	}
	return errors.Join(errs...)
}

// TelegramEnabled is false when either credential is missing.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Service configures the companion REST service.
type Service struct {
	DatabaseURL  string
	JWTSecret    string
	JWTIssuer    string
	JWTTTL       time.Duration
	APIKeySecret string
	Port         string
}

// LoadService reads the companion service settings from the environment.
func LoadService() (*Service, error) {
	_ = godotenv.Load()

	cfg := &Service{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "autoapply-service"),
		JWTTTL:       time.Duration(getEnvInt("JWT_TTL_MINUTES", 60*24)) * time.Minute,
		APIKeySecret: getEnv("API_KEY_SECRET", ""),
		Port:         getEnv("PORT", "3000"),
	}

	var errs []error
	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if len(cfg.APIKeySecret) != 32 {
		errs = append(errs, errors.New("API_KEY_SECRET must be exactly 32 bytes"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
