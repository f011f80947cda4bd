// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Identity    IdentityConfig
	Upload      UploadConfig
	Slug        SlugConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL        string
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	PublicURL    string
}

// DatabaseConfig selects the product store. Driver is "postgres" or "mongo".
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type JWTConfig struct {
	SecretKey string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	Endpoint        string
	ForcePathStyle  bool
	CloudFrontURL   string
}

// IdentityConfig points at the hosted identity provider's backend API.
type IdentityConfig struct {
	BaseURL     string
	SecretKey   string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

type UploadConfig struct {
	LocalDir          string
	MaxImages         int
	ModelWarnBytes    int64
	ModelMaxBytes     int64
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type SlugConfig struct {
	MaxAttempts int
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			PublicURL:    getEnv("SERVER_PUBLIC_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "layerhub"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DB", "layerhub"),
			Collection:     getEnv("MONGODB_PRODUCTS_COLLECTION", "products"),
			ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "layerhub-assets"),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
			ForcePathStyle:  getEnvAsBool("AWS_S3_FORCE_PATH_STYLE", false),
			CloudFrontURL:   strings.TrimRight(getEnv("AWS_CLOUDFRONT_URL", ""), "/"),
		},
		Identity: IdentityConfig{
			BaseURL:     strings.TrimRight(getEnv("IDENTITY_API_URL", "https://api.clerk.com"), "/"),
			SecretKey:   getEnv("IDENTITY_SECRET_KEY", ""),
			Timeout:     getEnvAsDuration("IDENTITY_TIMEOUT", 5*time.Second),
			MaxFailures: uint32(getEnvAsInt("IDENTITY_BREAKER_MAX_FAILURES", 5)),
			OpenTimeout: getEnvAsDuration("IDENTITY_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Upload: UploadConfig{
			LocalDir:          getEnv("UPLOAD_LOCAL_DIR", "./uploads"),
			MaxImages:         getEnvAsInt("UPLOAD_MAX_IMAGES", 7),
			ModelWarnBytes:    int64(getEnvAsInt("UPLOAD_MODEL_WARN_MB", 25)) << 20,
			ModelMaxBytes:     int64(getEnvAsInt("UPLOAD_MODEL_MAX_MB", 50)) << 20,
			RateLimitRequests: getEnvAsInt("UPLOAD_RATE_LIMIT", 30),
			RateLimitWindow:   getEnvAsDuration("UPLOAD_RATE_WINDOW", time.Minute),
		},
		Slug: SlugConfig{
			MaxAttempts: getEnvAsInt("SLUG_MAX_ATTEMPTS", 50),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		Frontend: FrontendConfig{
			BaseURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	return config, config.Validate()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesS3 reports whether uploads go to S3 rather than the local upload directory.
func (c *Config) UsesS3() bool {
	return c.AWS.AccessKeyID != "" || c.AWS.Endpoint != ""
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" && c.IsProduction() {
			return fmt.Errorf("database password is required in production")
		}
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when DB_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.IsProduction() && !c.UsesS3() {
		return fmt.Errorf("S3 storage must be configured in production")
	}

	if c.Slug.MaxAttempts < 1 {
		return fmt.Errorf("SLUG_MAX_ATTEMPTS must be positive")
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
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
