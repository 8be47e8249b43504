package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Source modes
const (
	SourceCSV   = "csv"
	SourceMySQL = "mysql"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ETLConfig holds the configuration of the headcount ETL
type ETLConfig struct {
	// Where the raw dataset comes from: "csv" or "mysql"
	SourceMode string `env:"OBEYA_SOURCE" envDefault:"csv"`

	// Flat export path
	CSVPath string `env:"CSV_PATH" envDefault:"empleados_activos.csv"`

	// Directory with optional .geojson/.shp overlay layers
	GeoDataPath string `env:"GEODATA_PATH" envDefault:"geodata"`

	// Optional YAML file with extra alternate->canonical column names
	AliasFile string `env:"OBEYA_ALIAS_FILE"`

	// HR database (source)
	SourceDB DatabaseConfig `envPrefix:"SOURCE_DB_"`

	// Use the aggregated query (COUNT DISTINCT per store) instead of raw rows
	SourceSQLAggregate bool `env:"SOURCE_SQL_AGGREGATE" envDefault:"false"`

	// Analytics database (snapshot target and run log)
	AnalyticsDB DatabaseConfig `envPrefix:"ANALYTICS_DB_"`

	// Result cache
	CacheBackend string        `env:"OBEYA_CACHE" envDefault:"memory"`
	CacheTTL     time.Duration `env:"OBEYA_CACHE_TTL" envDefault:"10m"`
	RedisURL     string        `env:"OBEYA_REDIS_URL"`

	// Hex AES key; when set, Redis payloads are encrypted
	CacheKey string `env:"OBEYA_CACHE_KEY"`

	// Interval of the scheduled source refresh, 0 disables it
	RefreshInterval time.Duration `env:"OBEYA_REFRESH_INTERVAL" envDefault:"0s"`

	// HTTP listen address
	HTTPAddr string `env:"OBEYA_HTTP_ADDR" envDefault:":8080"`

	// Number of stores in the top ranking
	TopStores int `env:"OBEYA_TOP_STORES" envDefault:"15"`

	// Logging
	LogMode               string `env:"OBEYA_LOG_MODE" envDefault:"dev"`
	LogDir                string `env:"OBEYA_LOG_DIR"`
	EnableDetailedLogging bool   `env:"OBEYA_DETAILED_LOGGING" envDefault:"false"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string `env:"DRIVER" envDefault:"mysql"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"3306"`
	User     string `env:"USER" envDefault:"root"`
	Password string `env:"PASSWORD"`
	DBName   string `env:"NAME"`
}

// DSN builds the go-sql-driver/mysql connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// Configured reports whether a database name was provided
func (d DatabaseConfig) Configured() bool {
	return d.DBName != ""
}

// LoadEnvFiles loads the .env files that exist, later files do not override earlier ones
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// GetConfig reads .env files and the environment
func GetConfig() (ETLConfig, error) {
	if _, err := LoadEnvFiles(".env", ".env.local"); err != nil {
		return ETLConfig{}, fmt.Errorf("loading .env files: %w", err)
	}
	return Parse()
}

// Parse builds the configuration from the current environment only
func Parse() (ETLConfig, error) {
	var cfg ETLConfig
	if err := env.Parse(&cfg); err != nil {
		return ETLConfig{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ETLConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies
func (c *ETLConfig) Validate() error {
	switch c.SourceMode {
	case SourceCSV:
		if c.CSVPath == "" {
			return fmt.Errorf("CSV_PATH is required when OBEYA_SOURCE is %q", SourceCSV)
		}
	case SourceMySQL:
		if !c.SourceDB.Configured() {
			return fmt.Errorf("SOURCE_DB_NAME is required when OBEYA_SOURCE is %q", SourceMySQL)
		}
	default:
		return fmt.Errorf("OBEYA_SOURCE must be %q or %q, got %q", SourceCSV, SourceMySQL, c.SourceMode)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("OBEYA_REDIS_URL is required when OBEYA_CACHE is %q", CacheRedis)
		}
	default:
		return fmt.Errorf("OBEYA_CACHE must be %q or %q, got %q", CacheMemory, CacheRedis, c.CacheBackend)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("OBEYA_CACHE_TTL must not be negative, got %v", c.CacheTTL)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("OBEYA_REFRESH_INTERVAL must not be negative, got %v", c.RefreshInterval)
	}
	if c.TopStores <= 0 {
		return fmt.Errorf("OBEYA_TOP_STORES must be positive, got %d", c.TopStores)
	}
	return nil
}
