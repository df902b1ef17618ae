package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/starterkit/pkg/httpx"
	"github.com/aussiebroadwan/starterkit/pkg/jwtx"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	AppName string // Project name reported by GET / (default: starterkit)
	Version string // Version reported by GET / and the health probes (default: BuildVersion)
	Env     string // Environment (dev, staging, prod) (default: dev)
	Debug   bool   // Debug mode, also lowers the default log level to debug

	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	CORSOrigins         []string      // Allowed browser origins, "*" for any, "none" disables (default: http://localhost:8080)

	DatabaseDriver string // sqlite or mongo (default: sqlite)
	DatabaseFile   string // SQLite database file (default: users.db)
	MongoURI       string // MongoDB connection string (default: mongodb://localhost:27017)
	MongoDatabase  string // MongoDB database name (default: starterkit)

	JWTSecret       string        // Required: HS256 signing secret, at least 32 bytes
	JWTIssuer       string        // Issuer claim (default: AppName)
	AccessTokenTTL  time.Duration // default: 30m
	RefreshTokenTTL time.Duration // default: 7 days

	PasswordSchemes []string // First entry hashes new passwords (default: argon2id,bcrypt)
	PepperFile      string   // Pepper for argon2id hashes, created on first start (default: pepper)

	// Admin account created when the store is empty. Skipped without a username.
	BootstrapAdminUsername string
	BootstrapAdminPassword string
	BootstrapAdminName     string
}

// LoadConfig reads the environment, after loading .env from the working
// directory when present. Variables already set win over .env entries. Rate
// limit profiles are refreshed from the same environment.
func LoadConfig() Config {
	_ = godotenv.Load(".env")
	httpx.LoadRateLimitsFromEnv()

	debug := getEnvBoolOrDefault("DEBUG", false)
	defaultLevel := "info"
	if debug {
		defaultLevel = "debug"
	}

	cfg := Config{
		AppName: getEnvOrDefault("APP_NAME", "starterkit"),
		Version: getEnvOrDefault("APP_VERSION", BuildVersion),
		Env:     getEnvOrDefault("ENV", "dev"),
		Debug:   debug,

		LogLevel:            getEnvOrDefault("LOG_LEVEL", defaultLevel),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		CORSOrigins:         getEnvListOrDefault("CORS_ORIGINS", []string{"http://localhost:8080"}),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "users.db"),
		MongoURI:       getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "starterkit"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       os.Getenv("JWT_ISSUER"),
		AccessTokenTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		PasswordSchemes: getEnvListOrDefault("PASSWORD_SCHEMES", []string{"argon2id", "bcrypt"}),
		PepperFile:      getEnvOrDefault("PEPPER_FILE", "pepper"),

		BootstrapAdminUsername: os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapAdminName:     os.Getenv("BOOTSTRAP_ADMIN_NAME"),
	}

	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = cfg.AppName
	}
	if len(cfg.CORSOrigins) == 1 && strings.EqualFold(cfg.CORSOrigins[0], "none") {
		cfg.CORSOrigins = nil
	}

	return cfg
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.JWTSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q (want %s or %s)", c.DatabaseDriver, DriverSQLite, DriverMongo))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if len(c.PasswordSchemes) == 0 {
		errs = append(errs, errors.New("PASSWORD_SCHEMES must name at least one scheme"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// "1h", "30m", "90s"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
