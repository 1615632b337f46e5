// Package config builds the process configuration from environment variables.
// A .env file in the working directory, when present, is loaded first and never
// overrides variables already set in the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration.
type Config struct {
	Environment string
	Server      ServerConfig
	Log         LogConfig
	Auth        AuthConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Uploads     UploadConfig
	Policy      PolicyConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
}

// DatabaseConfig selects PostgreSQL when URL is set; otherwise stores are in-memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the Redis-backed settings store when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

// KafkaConfig enables the audit Kafka sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string
	AuditTopic        string
	Partitions        int32
	ReplicationFactor int16
}

type UploadConfig struct {
	Dir           string
	PublicBaseURL string
}

// PolicyConfig seeds the process-wide verification settings on first start.
type PolicyConfig struct {
	AllowedDocumentTypes []string
	MaxFileSizeBytes     int64
	Cooldown             time.Duration
	MaxResubmissions     int
}

const (
	DefaultMaxFileSizeBytes = 5 * 1024 * 1024
	DefaultCooldown         = 24 * time.Hour
	DefaultMaxResubmissions = 3
)

// DefaultDocumentTypes is the allowed list used until an admin changes it.
var DefaultDocumentTypes = []string{"Passport", "National ID", "Driver's License", "Student ID", "Selfie", "Business Registration", "Accreditation Certificate"}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	p := parser{}
	cfg := &Config{
		Environment: p.str("APP_ENV", "development"),
		Server: ServerConfig{
			Addr:            p.str("IDVERIFY_ADDR", ":8080"),
			RequestTimeout:  p.duration("IDVERIFY_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: p.duration("IDVERIFY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSigningKey: p.str("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:     p.str("JWT_ISSUER", "idverify"),
			TokenTTL:      p.duration("JWT_TOKEN_TTL", 15*time.Minute),
		},
		Database: DatabaseConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			KeyPrefix:    p.str("REDIS_KEY_PREFIX", "idverify:"),
		},
		Kafka: KafkaConfig{
			Brokers:           p.list("KAFKA_BROKERS", nil),
			AuditTopic:        p.str("KAFKA_AUDIT_TOPIC", "idverify.audit"),
			Partitions:        int32(p.integer("KAFKA_AUDIT_PARTITIONS", 3)),
			ReplicationFactor: int16(p.integer("KAFKA_AUDIT_REPLICATION", 1)),
		},
		Uploads: UploadConfig{
			Dir:           p.str("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: p.str("UPLOAD_PUBLIC_BASE_URL", "/uploads"),
		},
		Policy: PolicyConfig{
			AllowedDocumentTypes: p.list("POLICY_DOCUMENT_TYPES", DefaultDocumentTypes),
			MaxFileSizeBytes:     int64(p.integer("POLICY_MAX_FILE_SIZE_BYTES", DefaultMaxFileSizeBytes)),
			Cooldown:             p.duration("POLICY_COOLDOWN", DefaultCooldown),
			MaxResubmissions:     p.integer("POLICY_MAX_RESUBMISSIONS", DefaultMaxResubmissions),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.Auth.JWTSigningKey == devSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if c.Policy.MaxFileSizeBytes <= 0 {
		errs = append(errs, errors.New("POLICY_MAX_FILE_SIZE_BYTES must be positive"))
	}
	if c.Policy.Cooldown < 0 {
		errs = append(errs, errors.New("POLICY_COOLDOWN must not be negative"))
	}
	if c.Policy.MaxResubmissions < 0 {
		errs = append(errs, errors.New("POLICY_MAX_RESUBMISSIONS must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) list(key string, def []string) []string {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
