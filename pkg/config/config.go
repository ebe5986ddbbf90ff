package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Billing    BillingConfig
	Encryption EncryptionConfig
	Storage    StorageConfig
	CRM        CRMConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Host    string
	Port    int
	Env     string
	BaseURL string // public URL used in invite links
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// BillingConfig carries the plan policy table: which plan identifier
// maps to how many seats. It is injected configuration, not code, so
// adding a plan does not touch provisioning logic.
type BillingConfig struct {
	PlanSeats map[string]int
}

type EncryptionConfig struct {
	Key string
}

type StorageConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // optional, for S3-compatible stores
}

type CRMConfig struct {
	TokenURL string
	Scopes   []string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

// SeatsForPlan returns the seat ceiling for a plan identifier, or
// false when the plan is unknown.
func (b *BillingConfig) SeatsForPlan(plan string) (int, bool) {
	seats, ok := b.PlanSeats[strings.ToLower(plan)]
	return seats, ok
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_BASE_URL", "http://localhost:8080")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "dealdesk")
	v.SetDefault("DATABASE_PASSWORD", "dealdesk_secret")
	v.SetDefault("DATABASE_NAME", "dealdesk")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("PLAN_SEATS", "starter:5,team:15,business:50")
	v.SetDefault("STORAGE_BUCKET", "dealdesk-uploads")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("CRM_TOKEN_URL", "")
	v.SetDefault("CRM_SCOPES", "crm.objects.read,crm.objects.write")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	planSeats, err := parsePlanSeats(v.GetString("PLAN_SEATS"))
	if err != nil {
		return nil, fmt.Errorf("parsing PLAN_SEATS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:    v.GetString("SERVER_HOST"),
			Port:    v.GetInt("SERVER_PORT"),
			Env:     v.GetString("SERVER_ENV"),
			BaseURL: v.GetString("SERVER_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Billing: BillingConfig{
			PlanSeats: planSeats,
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		Storage: StorageConfig{
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
		},
		CRM: CRMConfig{
			TokenURL: v.GetString("CRM_TOKEN_URL"),
			Scopes:   splitNonEmpty(v.GetString("CRM_SCOPES")),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	return cfg, nil
}

// parsePlanSeats parses "starter:5,team:15" into the plan policy map.
// Plan names are lowercased; seat counts must be positive.
func parsePlanSeats(raw string) (map[string]int, error) {
	seats := make(map[string]int)
	for _, pair := range splitNonEmpty(raw) {
		name, count, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed plan entry %q", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid seat count in %q", pair)
		}
		seats[strings.ToLower(strings.TrimSpace(name))] = n
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("no plans configured")
	}
	return seats, nil
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
