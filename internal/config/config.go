package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server      ServerConfig
	AI          AIConfig
	Interpreter InterpreterConfig
	Store       StoreConfig
	Metrics     MetricsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	interpreter, err := loadInterpreterConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	metrics, err := loadMetricsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Interpreter: interpreter, Store: store, Metrics: metrics}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与跨域来源。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "4000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":4000" 或 "127.0.0.1:4000"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// AIConfig 描述 Ark 大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// Provider 标识答案解析所使用的大模型后端。
type Provider string

const (
	ProviderAuto      Provider = "auto"
	ProviderArk       Provider = "ark"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// InterpreterConfig 描述答案解析服务配置。
type InterpreterConfig struct {
	Provider        Provider
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	MaxTokens       int
	Timeout         time.Duration
	RepairJSON      bool
}

// ResolveProvider 在 auto 模式下按可用凭证挑选后端。
func (c InterpreterConfig) ResolveProvider(ai AIConfig) (Provider, error) {
	switch c.Provider {
	case ProviderArk:
		if !ai.Enabled() {
			return "", fmt.Errorf("INTERPRETER_PROVIDER=ark but Ark credentials are missing")
		}
		return ProviderArk, nil
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return "", fmt.Errorf("INTERPRETER_PROVIDER=anthropic but ANTHROPIC_API_KEY is missing")
		}
		return ProviderAnthropic, nil
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", fmt.Errorf("INTERPRETER_PROVIDER=openai but OPENAI_API_KEY is missing")
		}
		return ProviderOpenAI, nil
	}

	switch {
	case ai.Enabled():
		return ProviderArk, nil
	case c.AnthropicAPIKey != "":
		return ProviderAnthropic, nil
	case c.OpenAIAPIKey != "":
		return ProviderOpenAI, nil
	}
	return "", fmt.Errorf("no interpreter credentials configured: set ARK_*, ANTHROPIC_API_KEY or OPENAI_API_KEY")
}

func loadInterpreterConfig() (InterpreterConfig, error) {
	provider := Provider(strings.ToLower(getEnvOrDefault("INTERPRETER_PROVIDER", string(ProviderAuto))))
	switch provider {
	case ProviderAuto, ProviderArk, ProviderAnthropic, ProviderOpenAI:
	default:
		return InterpreterConfig{}, fmt.Errorf("invalid INTERPRETER_PROVIDER value %q", provider)
	}

	maxTokens := 1024
	if override, err := parseOptionalIntEnv("INTERPRETER_MAX_TOKENS"); err != nil {
		return InterpreterConfig{}, err
	} else if override != nil && *override > 0 {
		maxTokens = *override
	}

	timeoutSeconds := 30 // 默认30秒
	if override, err := parseOptionalIntEnv("INTERPRETER_TIMEOUT"); err != nil {
		return InterpreterConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	repair, err := parseBoolEnv("INTERPRETER_REPAIR_JSON", false)
	if err != nil {
		return InterpreterConfig{}, err
	}

	return InterpreterConfig{
		Provider:        provider,
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  getEnvOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:     getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnvOrDefault("OPENAI_BASE_URL", ""),
		MaxTokens:       maxTokens,
		Timeout:         time.Duration(timeoutSeconds) * time.Second,
		RepairJSON:      repair,
	}, nil
}

// StoreBackend 标识会话快照的存储后端。
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory"
	StoreRedis  StoreBackend = "redis"
	StoreSQLite StoreBackend = "sqlite"
)

// StoreConfig 描述会话快照存储配置。
type StoreConfig struct {
	Backend       StoreBackend
	CacheSize     int
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
}

func loadStoreConfig() (StoreConfig, error) {
	backend := StoreBackend(strings.ToLower(getEnvOrDefault("SESSION_STORE", string(StoreMemory))))
	switch backend {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return StoreConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", backend)
	}

	cacheSize := 256
	if override, err := parseOptionalIntEnv("SESSION_CACHE_SIZE"); err != nil {
		return StoreConfig{}, err
	} else if override != nil && *override > 0 {
		cacheSize = *override
	}

	ttlHours := 24 * 7
	if override, err := parseOptionalIntEnv("SESSION_TTL_HOURS"); err != nil {
		return StoreConfig{}, err
	} else if override != nil && *override >= 0 {
		ttlHours = *override
	}

	redisDB := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return StoreConfig{}, err
	} else if override != nil {
		redisDB = *override
	}

	return StoreConfig{
		Backend:       backend,
		CacheSize:     cacheSize,
		TTL:           time.Duration(ttlHours) * time.Hour,
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:       redisDB,
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "interview_sessions.db"),
	}, nil
}

// MetricsConfig 描述 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled bool
}

func loadMetricsConfig() (MetricsConfig, error) {
	enabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return MetricsConfig{}, err
	}
	return MetricsConfig{Enabled: enabled}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
