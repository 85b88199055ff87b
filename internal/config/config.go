package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	envServerAddress   = "SERVER_ADDRESS"
	envStorage         = "STORAGE"
	envDatabaseDSN     = "DATABASE_DSN"
	envMongoURI        = "MONGO_URI"
	envMongoDatabase   = "MONGO_DATABASE"
	envJWTSecretKey    = "JWT_SECRET_KEY"
	envJWTAccessExpire = "JWT_ACCESS_EXPIRE"
	envBcryptCost      = "BCRYPT_COST"
	envCORSOrigins     = "CORS_ORIGINS"
	envLoginRateRPS    = "LOGIN_RATE_RPS"
	envLoginRateBurst  = "LOGIN_RATE_BURST"
	envLogLevel        = "LOG_LEVEL"
	envLogPretty       = "LOG_PRETTY"
	envShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

const (
	defaultServerAddress   = "localhost:8080"
	defaultStorage         = StorageMemory
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "registry"
	defaultJWTAccessExpire = 24 * time.Hour
	defaultCORSOrigins     = "http://localhost:5173"
	defaultLoginRateRPS    = 5
	defaultLoginRateBurst  = 10
	defaultLogLevel        = "info"
	defaultLogPretty       = true
	defaultShutdownTimeout = 10 * time.Second

	// HS256 требует ключ не короче 32 байт
	minJWTSecretLen = 32
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

type Config struct {
	ServerAddress   string
	Storage         string
	DatabaseDSN     string
	MongoURI        string
	MongoDatabase   string
	JWTSecretKey    string
	JWTAccessExpire time.Duration
	BcryptCost      int
	CORSOrigins     []string
	LoginRateRPS    float64
	LoginRateBurst  int
	LogLevel        string
	LogPretty       bool
	ShutdownTimeout time.Duration

	// JWTSecretGenerated - ключ сгенерирован при старте, токены не переживут рестарт.
	JWTSecretGenerated bool
}

// NewConfig читает .env (если есть), флаги командной строки и окружение.
// Окружение имеет приоритет над флагами.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(os.Args[1:])
}

func Load(args []string) (*Config, error) {
	cfg := &Config{
		ServerAddress:   defaultServerAddress,
		Storage:         defaultStorage,
		MongoURI:        defaultMongoURI,
		MongoDatabase:   defaultMongoDatabase,
		JWTAccessExpire: defaultJWTAccessExpire,
		BcryptCost:      bcrypt.DefaultCost,
		LoginRateRPS:    defaultLoginRateRPS,
		LoginRateBurst:  defaultLoginRateBurst,
		LogLevel:        defaultLogLevel,
		LogPretty:       defaultLogPretty,
		ShutdownTimeout: defaultShutdownTimeout,
	}
	corsOrigins := defaultCORSOrigins

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Server address")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: memory, postgres or mongo")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Postgres DSN")
	fs.StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "MongoDB URI")
	fs.StringVar(&cfg.MongoDatabase, "mongo-db", cfg.MongoDatabase, "MongoDB database name")
	fs.DurationVar(&cfg.JWTAccessExpire, "jwt-access-expire", cfg.JWTAccessExpire, "JWT access token expiration")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt work factor")
	fs.StringVar(&corsOrigins, "cors-origins", corsOrigins, "Comma separated list of allowed origins")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "Human readable console logs")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var errs []error
	cfg.applyEnv(envServerAddress, &cfg.ServerAddress)
	cfg.applyEnv(envStorage, &cfg.Storage)
	cfg.applyEnv(envDatabaseDSN, &cfg.DatabaseDSN)
	cfg.applyEnv(envMongoURI, &cfg.MongoURI)
	cfg.applyEnv(envMongoDatabase, &cfg.MongoDatabase)
	cfg.applyEnv(envJWTSecretKey, &cfg.JWTSecretKey)
	cfg.applyEnv(envCORSOrigins, &corsOrigins)
	cfg.applyEnv(envLogLevel, &cfg.LogLevel)
	errs = append(errs,
		cfg.applyEnvDuration(envJWTAccessExpire, &cfg.JWTAccessExpire),
		cfg.applyEnvDuration(envShutdownTimeout, &cfg.ShutdownTimeout),
		cfg.applyEnvInt(envBcryptCost, &cfg.BcryptCost),
		cfg.applyEnvInt(envLoginRateBurst, &cfg.LoginRateBurst),
		cfg.applyEnvFloat(envLoginRateRPS, &cfg.LoginRateRPS),
		cfg.applyEnvBool(envLogPretty, &cfg.LogPretty),
	)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg.CORSOrigins = splitList(corsOrigins)
	cfg.normalizeServerAddress()

	if err := cfg.validateJWTSecret(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(key string, target *string) {
	if val, ok := os.LookupEnv(key); ok {
		*target = val
	}
}

func (c *Config) applyEnvDuration(key string, target *time.Duration) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func (c *Config) applyEnvInt(key string, target *int) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = n
	return nil
}

func (c *Config) applyEnvFloat(key string, target *float64) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = f
	return nil
}

func (c *Config) applyEnvBool(key string, target *bool) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = b
	return nil
}

func (c *Config) validateJWTSecret() error {
	if c.JWTSecretKey == "" {
		// Для разработки генерируем случайный ключ
		key := make([]byte, minJWTSecretLen)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("failed to generate JWT secret key: %w", err)
		}
		c.JWTSecretKey = base64.StdEncoding.EncodeToString(key)
		c.JWTSecretGenerated = true
	}

	if len(c.JWTSecretKey) < minJWTSecretLen {
		return fmt.Errorf("%s must be at least %d bytes long", envJWTSecretKey, minJWTSecretLen)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StorageMongo:
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%s is required for postgres storage", envDatabaseDSN)
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%s must be in [%d, %d]", envBcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.JWTAccessExpire <= 0 {
		return fmt.Errorf("%s must be positive", envJWTAccessExpire)
	}
	if c.LoginRateRPS <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("%s and %s must be positive", envLoginRateRPS, envLoginRateBurst)
	}
	return nil
}

func (c *Config) normalizeServerAddress() {
	if strings.HasPrefix(c.ServerAddress, ":") {
		c.ServerAddress = "localhost" + c.ServerAddress
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
