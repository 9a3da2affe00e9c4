package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names
const (
	BackendGitHub   = "github"
	BackendJSONBin  = "jsonbin"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion    string `yaml:"aws_region"`
	TableName    string `yaml:"table_name"`
	EventBusName string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Comment store
	CommentsBackend string `yaml:"comments_backend"`
	GitHubToken     string `yaml:"-"`
	GitHubOwner     string `yaml:"github_owner"`
	GitHubRepo      string `yaml:"github_repo"`
	GitHubLabel     string `yaml:"github_label"`
	GitHubAPIURL    string `yaml:"github_api_url"`

	// Roadmap store
	RoadmapBackend    string `yaml:"roadmap_backend"`
	JSONBinAPIKey     string `yaml:"-"`
	JSONBinBinID      string `yaml:"jsonbin_bin_id"`
	JSONBinURL        string `yaml:"jsonbin_url"`
	RoadmapDocumentID string `yaml:"roadmap_document_id"`

	// Outbound calls
	HTTPTimeout          time.Duration `yaml:"http_timeout"`
	BreakerMaxFailures   int           `yaml:"breaker_max_failures"`
	BreakerOpenTimeout   time.Duration `yaml:"breaker_open_timeout"`
	BreakerHalfOpenCalls int           `yaml:"breaker_half_open_calls"`
	WriteRateLimit       int           `yaml:"write_rate_limit"`
	WriteRateLimitWindow time.Duration `yaml:"write_rate_limit_window"`

	// Shared rate limit counters; empty keeps them in process
	RedisURL string `yaml:"redis_url"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		AWSRegion:     "us-west-2",
		TableName:     "silo-planner",
		EventBusName:  "silo-planner-events",

		CommentsBackend: BackendGitHub,
		GitHubOwner:     "ryancarter-stack",
		GitHubRepo:      "silo-modular-planner",
		GitHubLabel:     "comment",
		GitHubAPIURL:    "https://api.github.com/",

		RoadmapBackend:    BackendJSONBin,
		JSONBinBinID:      "695405f2d0ea881f4049efd1",
		JSONBinURL:        "https://api.jsonbin.io/v3",
		RoadmapDocumentID: "silo-roadmap",

		HTTPTimeout:          10 * time.Second,
		BreakerMaxFailures:   5,
		BreakerOpenTimeout:   30 * time.Second,
		BreakerHalfOpenCalls: 1,
		WriteRateLimit:       30,
		WriteRateLimitWindow: time.Minute,

		LogLevel:      "info",
		EnableMetrics: true,
		EnableTracing: false,
		EnableCORS:    true,
		CORSOrigins:   []string{"*"},
	}
}

// LoadConfig loads configuration from defaults, the optional CONFIG_FILE, then environment variables
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	// Lambda configuration
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda)
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)

	c.CommentsBackend = getEnv("COMMENTS_BACKEND", c.CommentsBackend)
	c.GitHubToken = getEnv("GITHUB_TOKEN", c.GitHubToken)
	c.GitHubOwner = getEnv("GITHUB_OWNER", c.GitHubOwner)
	c.GitHubRepo = getEnv("GITHUB_REPO", c.GitHubRepo)
	c.GitHubLabel = getEnv("GITHUB_LABEL", c.GitHubLabel)
	c.GitHubAPIURL = getEnv("GITHUB_API_URL", c.GitHubAPIURL)

	c.RoadmapBackend = getEnv("ROADMAP_BACKEND", c.RoadmapBackend)
	c.JSONBinAPIKey = getEnv("JSONBIN_API_KEY", c.JSONBinAPIKey)
	c.JSONBinBinID = getEnv("JSONBIN_BIN_ID", c.JSONBinBinID)
	c.JSONBinURL = getEnv("JSONBIN_URL", c.JSONBinURL)
	c.RoadmapDocumentID = getEnv("ROADMAP_DOCUMENT_ID", c.RoadmapDocumentID)

	c.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", c.HTTPTimeout)
	c.BreakerMaxFailures = getEnvInt("BREAKER_MAX_FAILURES", c.BreakerMaxFailures)
	c.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)
	c.BreakerHalfOpenCalls = getEnvInt("BREAKER_HALF_OPEN_CALLS", c.BreakerHalfOpenCalls)
	c.WriteRateLimit = getEnvInt("WRITE_RATE_LIMIT", c.WriteRateLimit)
	c.WriteRateLimitWindow = getEnvDuration("WRITE_RATE_LIMIT_WINDOW", c.WriteRateLimitWindow)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)

	// Logging and features
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
}

// Validate checks if all required configuration is present.
// Missing credentials are not an error here: the stores report them per request.
func (c *Config) Validate() error {
	switch c.CommentsBackend {
	case BackendGitHub, BackendMemory:
	default:
		return fmt.Errorf("COMMENTS_BACKEND must be %q or %q, got %q", BackendGitHub, BackendMemory, c.CommentsBackend)
	}

	switch c.RoadmapBackend {
	case BackendJSONBin, BackendDynamoDB, BackendMemory:
	default:
		return fmt.Errorf("ROADMAP_BACKEND must be one of %s, %s, %s; got %q", BackendJSONBin, BackendDynamoDB, BackendMemory, c.RoadmapBackend)
	}

	if c.CommentsBackend == BackendGitHub && (c.GitHubOwner == "" || c.GitHubRepo == "") {
		return errors.New("GITHUB_OWNER and GITHUB_REPO are required")
	}
	if c.RoadmapBackend == BackendDynamoDB && c.TableName == "" {
		return errors.New("TABLE_NAME is required for the dynamodb roadmap backend")
	}
	if c.BreakerMaxFailures < 0 || c.BreakerHalfOpenCalls < 0 {
		return errors.New("BREAKER_MAX_FAILURES and BREAKER_HALF_OPEN_CALLS cannot be negative")
	}
	if c.WriteRateLimit < 0 {
		return errors.New("WRITE_RATE_LIMIT cannot be negative")
	}

	if c.Environment == "production" {
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("1500ms") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
