// Package config loads the assistant configuration from becas.yaml, an
// optional .env file and BECAS_* environment variables, in that order.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/becas/pkg/adapters/llm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "becas.yaml"

// Catalog drivers.
const (
	CatalogYAML     = "yaml"
	CatalogMarkdown = "markdown"
	CatalogPostgres = "postgres"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Extractor drivers.
const (
	ExtractorKeyword = "keyword"
	ExtractorLLM     = "llm"
)

type Config struct {
	Name      string          `yaml:"name"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Store     StoreConfig     `yaml:"store"`
	Extractor ExtractorConfig `yaml:"extractor"`

	// Flow points to a YAML file overriding reply templates and questions.
	Flow string `yaml:"flow"`

	// ActiveFields restricts searches to a subset of the criteria. Empty means all four.
	ActiveFields []string `yaml:"active_fields" validate:"dive,oneof=campo_estudio nivel ubicacion organismo area education_level location organization"`

	// Vocabulary fixes the valid values per field instead of reading them from the catalog.
	Vocabulary map[string][]string `yaml:"vocabulary"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Port    int `yaml:"port" validate:"min=1,max=65535"`
	MCPPort int `yaml:"mcp_port" validate:"min=1,max=65535"`
}

type CatalogConfig struct {
	Driver  string `yaml:"driver" validate:"oneof=yaml markdown postgres"`
	Path    string `yaml:"path" validate:"required_unless=Driver postgres"`
	DSN     string `yaml:"dsn" validate:"required_if=Driver postgres"`
	Migrate bool   `yaml:"migrate"`
	Watch   bool   `yaml:"watch"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver" validate:"oneof=memory file redis"`
	Path   string      `yaml:"path" validate:"required_if=Driver file"`
	Redis  RedisConfig `yaml:"redis"`

	// EncryptionKey enables AES-256-GCM at rest. Base64 encoded, 32 bytes once decoded.
	EncryptionKey string   `yaml:"encryption_key" validate:"omitempty,base64"`
	FallbackKeys  []string `yaml:"fallback_keys" validate:"dive,base64"`

	MaskPII     bool     `yaml:"mask_pii"`
	PIIPatterns []string `yaml:"pii_patterns"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"min=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"min=0"`
	Lock     bool          `yaml:"lock"`
}

type ExtractorConfig struct {
	Driver         string     `yaml:"driver" validate:"oneof=keyword llm"`
	LLM            llm.Config `yaml:"llm"`
	Prompts        string     `yaml:"prompts"`
	Paraphrase     bool       `yaml:"paraphrase"`
	ForeignPhrases []string   `yaml:"foreign_phrases"`
}

// Default returns a configuration serving the bundled YAML catalog with the keyword extractor.
func Default() *Config {
	return &Config{
		Name:      "becas",
		Log:       LogConfig{Level: "info", Format: "text"},
		Server:    ServerConfig{Port: 8080, MCPPort: 8081},
		Catalog:   CatalogConfig{Driver: CatalogYAML, Path: "config/scholarships.yaml"},
		Store:     StoreConfig{Driver: StoreMemory, Redis: RedisConfig{Addr: "localhost:6379"}},
		Extractor: ExtractorConfig{Driver: ExtractorKeyword},
	}
}

// Load reads the configuration file at path over the defaults, then applies
// .env and BECAS_* overrides and validates the result. A missing file is only
// an error when path was given explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-section requirements.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Driver == StoreRedis && c.Store.Redis.Addr == "" {
		return errors.New("invalid config: store.redis.addr is required for the redis store")
	}
	if c.Extractor.Driver == ExtractorLLM && c.Extractor.LLM.APIKey == "" {
		return errors.New("invalid config: extractor.llm.api_key is required for the llm extractor")
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Log.Level, "BECAS_LOG_LEVEL")
	setString(&c.Log.Format, "BECAS_LOG_FORMAT")
	setString(&c.Catalog.Driver, "BECAS_CATALOG_DRIVER")
	setString(&c.Catalog.Path, "BECAS_CATALOG_PATH")
	setString(&c.Catalog.DSN, "BECAS_DATABASE_URL")
	setString(&c.Store.Driver, "BECAS_STORE_DRIVER")
	setString(&c.Store.Path, "BECAS_STORE_PATH")
	setString(&c.Store.Redis.Addr, "BECAS_REDIS_ADDR")
	setString(&c.Store.Redis.Password, "BECAS_REDIS_PASSWORD")
	setString(&c.Store.EncryptionKey, "BECAS_ENCRYPTION_KEY")
	setString(&c.Extractor.Driver, "BECAS_EXTRACTOR")
	setString(&c.Extractor.LLM.Provider, "BECAS_LLM_PROVIDER")
	setString(&c.Extractor.LLM.Model, "BECAS_LLM_MODEL")
	setString(&c.Extractor.LLM.BaseURL, "BECAS_LLM_BASE_URL")
	setString(&c.Extractor.LLM.APIKey, "BECAS_LLM_API_KEY")

	// Provider specific keys are the last resort.
	if c.Extractor.LLM.APIKey == "" {
		switch c.Extractor.LLM.Provider {
		case llm.ProviderGemini:
			c.Extractor.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			c.Extractor.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if err := setInt(&c.Server.Port, "BECAS_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Server.MCPPort, "BECAS_MCP_PORT"); err != nil {
		return err
	}
	return setInt(&c.Store.Redis.DB, "BECAS_REDIS_DB")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer value for %s: %w", key, err)
	}
	*dst = n
	return nil
}
