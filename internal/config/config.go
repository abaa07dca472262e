// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/andresuchdata/stockmax/internal/pipeline"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	Inputs  InputConfig
	Engine  EngineConfig
	Server  ServerConfig
	Cache   CacheConfig
	Storage StorageConfig
	Drive   DriveConfig
}

type AppConfig struct {
	InputDir  string `validate:"required"`
	OutputDir string `validate:"required"`
	LogLevel  string `validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	LogFormat string `validate:"omitempty,oneof=console json"`
	WriteXLSX bool
}

// InputConfig names the four input files inside the input dir, Drive folder or bucket prefix.
type InputConfig struct {
	SalesFile    string `validate:"required"`
	PolicyFile   string `validate:"required"`
	LimitFile    string `validate:"required"`
	OverrideFile string `validate:"required"`
}

// Names maps the configured file names to pipeline tables.
func (i InputConfig) Names() pipeline.InputNames {
	return pipeline.InputNames{
		pipeline.TableSales:     i.SalesFile,
		pipeline.TablePolicy:    i.PolicyFile,
		pipeline.TableLimits:    i.LimitFile,
		pipeline.TableOverrides: i.OverrideFile,
	}
}

type EngineConfig struct {
	WeeksPerYear float64 `validate:"gt=0"`
	Workers      int     `validate:"gte=0"`
	Topology     string  `validate:"required"`
}

type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	Mode           string `validate:"oneof=debug release test"`
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int64 `validate:"gt=0"`
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int `validate:"gte=0"`
	ResultTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket used as input source and result sink.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether enough is configured to talk to the bucket.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// Load reads .env, the environment and defaults once and returns the shared config.
func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		SetDefaults(viper.GetViper())
		viper.AutomaticEnv()

		instance, loadErr = FromViper(viper.GetViper())
		if loadErr == nil {
			loadErr = ensureDir(instance.App.OutputDir)
		}
	})
	return instance, loadErr
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_INPUT_DIR", "./data/input")
	v.SetDefault("APP_OUTPUT_DIR", "./data/output")
	v.SetDefault("APP_LOG_LEVEL", "info")
	v.SetDefault("APP_LOG_FORMAT", "console")
	v.SetDefault("APP_WRITE_XLSX", false)
	v.SetDefault("INPUT_SALES_FILE", "vendas.xlsx")
	v.SetDefault("INPUT_POLICY_FILE", "configuracao.xlsx")
	v.SetDefault("INPUT_LIMIT_FILE", "limite.xlsx")
	v.SetDefault("INPUT_OVERRIDE_FILE", "stock_manual.xlsx")
	v.SetDefault("ENGINE_WEEKS_PER_YEAR", stockmax.DefaultWeeksPerYear)
	v.SetDefault("ENGINE_WORKERS", 1)
	v.SetDefault("ENGINE_TOPOLOGY", stockmax.DefaultTopology().String())
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_RESULT_TTL_SECONDS", 600)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			InputDir:  v.GetString("APP_INPUT_DIR"),
			OutputDir: v.GetString("APP_OUTPUT_DIR"),
			LogLevel:  strings.ToLower(v.GetString("APP_LOG_LEVEL")),
			LogFormat: strings.ToLower(v.GetString("APP_LOG_FORMAT")),
			WriteXLSX: v.GetBool("APP_WRITE_XLSX"),
		},
		Inputs: InputConfig{
			SalesFile:    v.GetString("INPUT_SALES_FILE"),
			PolicyFile:   v.GetString("INPUT_POLICY_FILE"),
			LimitFile:    v.GetString("INPUT_LIMIT_FILE"),
			OverrideFile: v.GetString("INPUT_OVERRIDE_FILE"),
		},
		Engine: EngineConfig{
			WeeksPerYear: v.GetFloat64("ENGINE_WEEKS_PER_YEAR"),
			Workers:      v.GetInt("ENGINE_WORKERS"),
			Topology:     v.GetString("ENGINE_TOPOLOGY"),
		},
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt64("SERVER_MAX_UPLOAD_MB"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ResultTTLSeconds: v.GetInt("CACHE_RESULT_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks struct constraints and that the topology parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := ParseTopology(c.Engine.Topology); err != nil {
		return fmt.Errorf("invalid config: ENGINE_TOPOLOGY: %w", err)
	}
	return nil
}

// TopologyValue parses the configured warehouse topology.
func (e EngineConfig) TopologyValue() (*stockmax.Topology, error) {
	return ParseTopology(e.Topology)
}

// ParseTopology reads "Name:Tier,Name:Tier,..." keeping the given order.
func ParseTopology(raw string) (*stockmax.Topology, error) {
	var warehouses []stockmax.Warehouse
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, tierRaw, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not Name:Tier", stockmax.ErrInvalidTopology, part)
		}
		tier, err := stockmax.ParseWarehouseTier(tierRaw)
		if err != nil {
			return nil, err
		}
		warehouses = append(warehouses, stockmax.Warehouse{Name: strings.TrimSpace(name), Tier: tier})
	}
	return stockmax.NewTopology(warehouses)
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
