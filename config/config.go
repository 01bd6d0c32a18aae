package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string   `env:"PORT,default=8080"`
	Env         string   `env:"APP_ENV,default=development"`
	CORSOrigins []string `env:"CORS_ORIGINS,default=http://localhost:5173;http://localhost:5174"`

	StoreBackend string `env:"STORE_BACKEND,default=mongo"`
	MongoURI     string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	DBName       string `env:"DB_NAME,default=messmate"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=168h"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	StorageBackend     string `env:"STORAGE_BACKEND,default=local"`
	UploadDir          string `env:"UPLOAD_DIR,default=uploads"`
	MaxUploadMB        int64  `env:"MAX_UPLOAD_MB,default=10"`
	AzureConnString    string `env:"AZURE_STORAGE_CONNECTION_STRING"`
	AzureAccountURL    string `env:"AZURE_STORAGE_ACCOUNT_URL"`
	AzureContainer     string `env:"AZURE_STORAGE_CONTAINER,default=messmate-uploads"`
	AzurePublicBaseURL string `env:"AZURE_STORAGE_PUBLIC_URL"`

	RedisURL        string        `env:"REDIS_URL"`
	CacheTTL        time.Duration `env:"CACHE_TTL,default=5m"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES,default=1024"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	EmailSender          string `env:"EMAIL_SENDER,default=no-reply@messmate.app"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=10"`

	JobRatingReconcile string `env:"JOB_RATING_RECONCILE,default=@every 1h"`
	JobTokenPurge      string `env:"JOB_TOKEN_PURGE,default=@every 6h"`
	JobLimiterCleanup  string `env:"JOB_LIMITER_CLEANUP,default=@every 10m"`
}

// LoadEnv loads a .env file into the process environment when one exists.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Load reads envFile (if present) and decodes the environment into a Config.
func Load(envFile string) (*Config, error) {
	if err := LoadEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be mongo or memory, got %q", c.StoreBackend)
	}
	switch c.StorageBackend {
	case "local":
	case "azure":
		if c.AzureConnString == "" && c.AzureAccountURL == "" {
			return errors.New("STORAGE_BACKEND=azure needs AZURE_STORAGE_CONNECTION_STRING or AZURE_STORAGE_ACCOUNT_URL")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be local or azure, got %q", c.StorageBackend)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
