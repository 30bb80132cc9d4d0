package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; see Load for names and defaults.
type Config struct {
	Env               string        // application environment (dev, prod, ...)
	Port              string        // HTTP port to listen on
	DatabaseURL       string        // mysql:// URL or go-sql-driver DSN
	AutoMigrate       bool          // run schema DDL at startup
	JWTSecret         string        // HS256 signing secret
	JWTTTL            time.Duration // bearer token lifetime
	AdminSignupSecret string        // shared secret for role=admin signups; empty disables them
	BcryptCost        int           // bcrypt cost for password hashing
	CORSOrigins       []string      // allowed origins, "*" when unset
	StrictTransitions bool          // enforce the request status edge table
	RequestTimeout    time.Duration // per-request budget for store calls
}

// Load reads an optional .env file and then the process environment.  A
// missing .env is fine; missing required variables are reported together.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	cfg := Config{
		Env:               envStr("APP_ENV", "dev"),
		Port:              envStr("APP_PORT", envStr("PORT", "8000")),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AutoMigrate:       envBool("DB_AUTO_MIGRATE", true),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            envDur("JWT_TTL", 7*24*time.Hour),
		AdminSignupSecret: os.Getenv("ADMIN_SIGNUP_SECRET"),
		BcryptCost:        envInt("BCRYPT_COST", 10),
		CORSOrigins:       splitList(envStr("CORS_ORIGIN", "*")),
		StrictTransitions: envBool("STRICT_TRANSITIONS", true),
		RequestTimeout:    envDur("REQUEST_TIMEOUT", 5*time.Second),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required env var(s): %s", strings.Join(missing, ", "))
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("config: BCRYPT_COST out of range: %d", cfg.BcryptCost)
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in the dev environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "dev" || c.Env == "development"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
