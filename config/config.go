package config

import (
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Log      LogConfig
	Worker   WorkerConfig

	// PolicyPath points at the YAML lifecycle policy; empty uses built-in defaults.
	PolicyPath string `env:"POLICY_PATH"`
	JWTSecret  string `env:"JWT_SECRET" envDefault:"local-secret-key-change-in-production"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver selects the store: mysql or memory
	Driver   string `env:"STORE_DRIVER" envDefault:"mysql"`
	DSN      string `env:"DATABASE_URL"` // takes precedence over individual vars
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	DBName   string `env:"DB_NAME" envDefault:"civicpulse"`
	// InitSchema creates missing tables at startup
	InitSchema bool `env:"DB_INIT_SCHEMA" envDefault:"true"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"PORT" envDefault:"8080"`
	RouteTimeout time.Duration `env:"ROUTE_TIMEOUT" envDefault:"5s"`
	CORSOrigins  string        `env:"CORS_ORIGINS" envDefault:"*"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"` // text | json
	FilePath   string `env:"LOG_FILE"`                     // empty = stdout only
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	// OverdueCheckInterval is how often overdue assignments are checked
	OverdueCheckInterval time.Duration `env:"OVERDUE_CHECK_INTERVAL" envDefault:"5m"`
	// DispatchWorkers bounds concurrent side-effect goroutines
	DispatchWorkers int `env:"DISPATCH_WORKERS" envDefault:"8"`
}

// LoadConfig loads configuration from the environment, after merging an optional .env file.
// Supports DATABASE_URL or individual DB_* variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal in containers; variables come from the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// MySQLDSN returns the DSN for go-sql-driver/mysql (UTC for consistent timestamps)
func (c DatabaseConfig) MySQLDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	dsn := mysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, c.Port)
	dsn.DBName = c.DBName
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
