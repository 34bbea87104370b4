package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	DBDSN             string
	JWTIssuer         string
	JWTSecret         string
	JWTTTL            time.Duration
	AdminUser         string
	AdminPasswordHash string
	WebSocketOrigin   string
	AppMode           string
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	RetryMaxAttempts  int
	BrokerMaxInflight int
	BrokerCount       int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	// DB_DSN is optional: without it the basket journal is disabled and state
	// lives only in memory.
	c.DBDSN = os.Getenv("DB_DSN")
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		c.JWTTTL = 12 * time.Hour
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.AdminUser = os.Getenv("ADMIN_USER")
	if c.AdminUser == "" {
		missing = append(missing, "ADMIN_USER")
	}
	c.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	if c.AdminPasswordHash == "" {
		missing = append(missing, "ADMIN_PASSWORD_HASH")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	c.AppMode = strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE")))
	if c.AppMode == "" {
		c.AppMode = "development"
	}
	if c.AppMode != "development" && c.AppMode != "production" {
		return c, errors.New("invalid APP_MODE: use development or production")
	}
	var err error
	c.RetryBaseDelay, err = durationEnv("RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return c, err
	}
	c.RetryMaxDelay, err = durationEnv("RETRY_MAX_DELAY", 10*time.Second)
	if err != nil {
		return c, err
	}
	c.RetryMaxAttempts, err = intEnv("RETRY_MAX_ATTEMPTS", 3)
	if err != nil {
		return c, err
	}
	c.BrokerMaxInflight, err = intEnv("BROKER_MAX_INFLIGHT", 4)
	if err != nil {
		return c, err
	}
	c.BrokerCount, err = intEnv("BROKER_COUNT", 3)
	if err != nil {
		return c, err
	}
	if c.RetryMaxAttempts < 1 {
		return c, errors.New("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.BrokerMaxInflight < 1 {
		return c, errors.New("BROKER_MAX_INFLIGHT must be at least 1")
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
