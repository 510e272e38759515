package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Admin AdminConfig
	Mongo MongoConfig
	Redis RedisConfig
	Audit AuditConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	JWTTTL     time.Duration `env:"JWT_TTL,     default=1h"`
	JWTIssuer  string        `env:"JWT_ISSUER,  default=user-management"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

// AdminConfig seeds an ADMIN account at startup when Email and Password are set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME, default=Administrator"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=user_management"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	CacheTTL time.Duration `env:"CACHE_TTL,      default=5m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.Auth.JWTTTL)
	}
	return &cfg, nil
}
