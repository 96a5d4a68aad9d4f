package config // loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration. It is loaded once at
// startup and passed explicitly into the services and middleware
// that need it; nothing reads the environment after Load returns.
type Config struct {
	Env            string        // application environment ("dev", "test", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	DBMaxOpenConns int           // connection pool upper bound
	DBMaxIdleConns int           // idle connections kept in the pool
	DBConnLifetime time.Duration // max lifetime of one pooled connection
	DBPingTimeout  time.Duration // startup connectivity check timeout
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	CORSOrigins    []string      // allowed CORS origins
}

// IsDev reports whether the process runs in development mode.
// Handlers use this to decide whether error messages may carry
// internal detail.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// Load reads configuration from environment variables. Required
// variables are enforced by must() and missing values abort startup;
// the rest carry defaults matching a local development setup.
func Load() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "3001"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBPingTimeout:  envDur("DB_PING_TIMEOUT", 5*time.Second),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 24*60),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		CORSOrigins:    envList("CORS_ORIGINS", "http://localhost:3000"),
	}
}

// must retrieves a required environment variable; unset or empty
// values abort the process with a fatal log message.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// envList splits a comma-separated variable, trimming blanks.
func envList(key, def string) []string {
	raw := envStr(key, def)
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
