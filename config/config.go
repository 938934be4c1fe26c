package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Addr      string
	Driver    string
	DBUrl     string
	DBName    string
	StaticDir string
	Reseed    bool
	Debug     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AdminUser         string
	AdminPasswordHash string
	TokenSecret       string
	TokenTTL          time.Duration
}

// LoadEnv reads .env style files into the process environment. Missing files
// are ignored; variables already set are never overridden.
func LoadEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ParseFlags reads the command line, falling back to environment variables
// for every setting not given as a flag.
func ParseFlags(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("survey-kiosk", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", getEnv("HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", uint(getEnvInt("PORT", 8080)), "listen port number")
	fs.StringVar(&cfg.Driver, "db-driver", getEnv("DB_DRIVER", DriverSQLite), "storage backend: sqlite, postgres or mongo")
	fs.StringVar(&cfg.DBUrl, "db-url", getEnv("DATABASE_URL", ""), "SQLite file path, PostgreSQL DSN or MongoDB URI")
	fs.StringVar(&cfg.DBName, "db-name", getEnv("DB_NAME", "survey_kiosk"), "MongoDB database name")
	fs.StringVar(&cfg.StaticDir, "static-dir", getEnv("STATIC_DIR", ""), "directory with the kiosk front-end (optional)")
	fs.BoolVar(&cfg.Reseed, "reseed", getEnvBool("RESEED", false), "replace the question catalog with the default questions at start")
	fs.BoolVar(&cfg.Debug, "debug", getEnvBool("DEBUG", false), "log at DEBUG level")

	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", ""), "Redis address for the catalog cache (optional)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	var cacheTTL uint
	fs.UintVar(&cacheTTL, "cache-ttl", uint(getEnvInt("CACHE_TTL", 300)), "catalog cache TTL in seconds")

	fs.StringVar(&cfg.AdminUser, "admin-user", getEnv("ADMIN_USER", ""), "admin user name; enables authentication of question changes")
	fs.StringVar(&cfg.AdminPasswordHash, "admin-password-hash", getEnv("ADMIN_PASSWORD_HASH", ""), "bcrypt hash of the admin password")
	fs.StringVar(&cfg.TokenSecret, "token-secret", getEnv("TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var tokenTTL uint
	fs.UintVar(&tokenTTL, "token-ttl", uint(getEnvInt("TOKEN_TTL", 120)), "token TTL in seconds")

	if err = fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.CacheTTL = time.Duration(cacheTTL) * time.Second
	cfg.TokenTTL = time.Duration(tokenTTL) * time.Second

	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DBUrl == "" {
			cfg.DBUrl = "qsurvey.sqlite"
		}
	case DriverPostgres, DriverMongo:
		if cfg.DBUrl == "" {
			return Config{}, fmt.Errorf("database URL required for driver %s (use -db-url or DATABASE_URL)", cfg.Driver)
		}
	default:
		return Config{}, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}

	if cfg.AdminUser != "" {
		if cfg.AdminPasswordHash == "" {
			return Config{}, errors.New("missing parameter -admin-password-hash")
		}
		if cfg.TokenSecret == "" {
			return Config{}, errors.New("missing parameter -token-secret")
		}
	}

	return cfg, nil
}

func (cfg Config) AdminEnabled() bool {
	return cfg.AdminUser != ""
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
