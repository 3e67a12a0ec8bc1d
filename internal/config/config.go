package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GinMode  string
	Database Database
	JWT      JWT
	CORS     CORS
}

type Database struct {
	Driver       string // postgres, sqlite
	URL          string
	MaxOpenConns int
}

// JWT holds the signing key and the claims every token is checked against.
type JWT struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type CORS struct {
	Origins []string
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	return Config{
		Port:    envString("PORT", "8080"),
		GinMode: envString("GIN_MODE", "debug"),
		Database: Database{
			Driver:       envString("DB_DRIVER", "postgres"),
			URL:          envString("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=socal port=5432 sslmode=disable"),
			MaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),
		},
		JWT: JWT{
			Key:      os.Getenv("JWT_KEY"),
			Issuer:   envString("JWT_ISSUER", "socal-api"),
			Audience: envString("JWT_AUDIENCE", "socal-client"),
			TTL:      envDuration("JWT_TTL", time.Hour),
		},
		CORS: CORS{
			Origins: envList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
	}
}

func (c Config) Validate() error {
	if c.JWT.Key == "" {
		return errors.New("JWT_KEY is not set")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envList splits a comma-separated value, dropping blanks and trailing slashes.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimRight(strings.TrimSpace(p), "/"); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
