package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// AuthConfig holds account settings
type AuthConfig struct {
	// AdminEmails are granted the admin role when they register
	AdminEmails []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string
	File     string
	MaxSize  int
	MaxAge   int
	Backups  int
	Compress bool
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	// Driver is "postgres" or "memory"
	Driver string
}

// BrandConfig describes one brand partition of the catalog
type BrandConfig struct {
	Slug    string
	Name    string
	Deposit bool
}

// CatalogConfig holds catalog behaviour settings
type CatalogConfig struct {
	Brands          []BrandConfig
	BulkConcurrency int
}

// ExportConfig holds export sink settings
type ExportConfig struct {
	ImageTimeout  time.Duration
	MaxImageBytes int64
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Auth        AuthConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Store       StoreConfig
	Catalog     CatalogConfig
	Export      ExportConfig
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	brands, err := parseBrands(
		getEnv("CATALOG_BRANDS", "anine-bing:Anine Bing,golden-goose:Golden Goose"),
		getEnv("CATALOG_DEPOSIT_BRANDS", "golden-goose"),
	)
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Auth: AuthConfig{
			AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			File:     getEnv("LOG_FILE", ""),
			MaxSize:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 64),
			MaxAge:   getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 7),
			Backups:  getEnvAsInt("LOG_FILE_MAX_BACKUPS", 7),
			Compress: cast.ToBool(getEnv("LOG_FILE_COMPRESS", "false")),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", strings.ReplaceAll(serviceName, "-", "_")),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "postgres"),
		},
		Catalog: CatalogConfig{
			Brands:          brands,
			BulkConcurrency: getEnvAsInt("CATALOG_BULK_CONCURRENCY", 0),
		},
		Export: ExportConfig{
			ImageTimeout:  getEnvAsDuration("EXPORT_IMAGE_TIMEOUT", 10*time.Second),
			MaxImageBytes: int64(getEnvAsInt("IMAGE_MAX_BYTES", 5<<20)),
		},
	}

	if config.Store.Driver != "postgres" && config.Store.Driver != "memory" {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", config.Store.Driver)
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("store_driver", c.Store.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
	}
}

// Brand returns the brand configured under slug
func (c *Config) Brand(slug string) (BrandConfig, bool) {
	for _, b := range c.Catalog.Brands {
		if b.Slug == slug {
			return b, true
		}
	}
	return BrandConfig{}, false
}

// splitList splits a comma separated list, dropping blanks
func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseBrands reads "slug:Name,slug:Name" plus a list of deposit-bearing slugs
func parseBrands(list, depositList string) ([]BrandConfig, error) {
	deposit := make(map[string]bool)
	for _, slug := range splitList(depositList) {
		deposit[slug] = true
	}

	var brands []BrandConfig
	seen := make(map[string]bool)
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		slug, name, found := strings.Cut(entry, ":")
		slug = strings.TrimSpace(slug)
		if !found || strings.TrimSpace(name) == "" {
			name = slug
		}
		if slug == "" {
			return nil, fmt.Errorf("invalid CATALOG_BRANDS entry %q", entry)
		}
		if seen[slug] {
			return nil, fmt.Errorf("duplicate brand %q in CATALOG_BRANDS", slug)
		}
		seen[slug] = true
		brands = append(brands, BrandConfig{
			Slug:    slug,
			Name:    strings.TrimSpace(name),
			Deposit: deposit[slug],
		})
	}
	if len(brands) == 0 {
		return nil, fmt.Errorf("CATALOG_BRANDS must name at least one brand")
	}
	return brands, nil
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
