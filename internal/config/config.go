// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. FF_DB_URL.
const EnvPrefix = "FF"

const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	Redis  RedisConfig
	Upload UploadConfig
	R2     R2Config
	GPS    GPSConfig
	Cron   CronConfig
	Log    LogConfig
	Admin  AdminConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Env         string
	Port        string
	CORSOrigins []string
}

// DBConfig holds the PostgreSQL connection. An empty URL selects the
// in-memory document store.
type DBConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// RedisConfig holds the rates cache connection. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	RatesTTL time.Duration
}

// UploadConfig is the local file store used when R2 is not configured.
// ExportDir holds attendance exports and is never served over HTTP.
type UploadConfig struct {
	Dir       string
	BaseURL   string
	ExportDir string
}

// R2Config holds Cloudflare R2 credentials.
type R2Config struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	// ExportBucket is a private bucket for attendance exports. Empty keeps
	// exports on local disk.
	ExportBucket string
}

// Enabled reports whether enough R2 settings are present to use it.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// GPSConfig holds the location verification thresholds, in meters.
type GPSConfig struct {
	AttendanceMaxAccuracy float64
	VisitRadius           float64
	VisitMaxAccuracy      float64
	RelaxedMode           bool
	RelaxedAccuracy       float64
	PrimaryTimeout        time.Duration
	FallbackTimeout       time.Duration
}

// CronConfig controls the approval reminder job.
type CronConfig struct {
	Enabled          bool
	ReminderInterval time.Duration
}

// AdminConfig seeds the first admin of an empty directory. An empty Email
// skips seeding.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads .env (if present) and then the FF_-prefixed environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:         v.GetString("app.env"),
			Port:        v.GetString("app.port"),
			CORSOrigins: splitList(v.GetString("app.cors_origins")),
		},
		DB: DBConfig{
			URL:      v.GetString("db.url"),
			MaxConns: v.GetInt32("db.max_conns"),
			MinConns: v.GetInt32("db.min_conns"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			RatesTTL: v.GetDuration("redis.rates_ttl"),
		},
		Upload: UploadConfig{
			Dir:       v.GetString("upload.dir"),
			BaseURL:   v.GetString("upload.base_url"),
			ExportDir: v.GetString("upload.export_dir"),
		},
		R2: R2Config{
			AccountID:    v.GetString("r2.account_id"),
			AccessKey:    v.GetString("r2.access_key"),
			SecretKey:    v.GetString("r2.secret_key"),
			Bucket:       v.GetString("r2.bucket"),
			PublicURL:    v.GetString("r2.public_url"),
			ExportBucket: v.GetString("r2.export_bucket"),
		},
		GPS: GPSConfig{
			AttendanceMaxAccuracy: v.GetFloat64("gps.attendance_max_accuracy"),
			VisitRadius:           v.GetFloat64("gps.visit_radius"),
			VisitMaxAccuracy:      v.GetFloat64("gps.visit_max_accuracy"),
			RelaxedMode:           v.GetBool("gps.relaxed_mode"),
			RelaxedAccuracy:       v.GetFloat64("gps.relaxed_accuracy"),
			PrimaryTimeout:        v.GetDuration("gps.primary_timeout"),
			FallbackTimeout:       v.GetDuration("gps.fallback_timeout"),
		},
		Cron: CronConfig{
			Enabled:          v.GetBool("cron.enabled"),
			ReminderInterval: v.GetDuration("cron.reminder_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
			Name:     v.GetString("admin.name"),
		},
	}

	if cfg.JWT.Secret == "" && cfg.IsDevelopment() {
		cfg.JWT.Secret = devJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("jwt.ttl", 7*24*time.Hour)
	v.SetDefault("redis.rates_ttl", 10*time.Minute)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.base_url", "/api/files")
	v.SetDefault("upload.export_dir", "exports")
	v.SetDefault("gps.attendance_max_accuracy", 1000.0)
	v.SetDefault("gps.visit_radius", 200.0)
	v.SetDefault("gps.visit_max_accuracy", 200.0)
	v.SetDefault("gps.relaxed_mode", false)
	v.SetDefault("gps.relaxed_accuracy", 1000.0)
	v.SetDefault("gps.primary_timeout", 3*time.Second)
	v.SetDefault("gps.fallback_timeout", 30*time.Second)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.reminder_interval", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("admin.name", "Head Office")
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("FF_JWT_SECRET is required outside development")
	}
	if c.IsProduction() && c.JWT.Secret == devJWTSecret {
		return fmt.Errorf("FF_JWT_SECRET must be changed in production")
	}
	if c.IsProduction() && c.GPS.RelaxedMode {
		return fmt.Errorf("FF_GPS_RELAXED_MODE must not be enabled in production")
	}
	if c.GPS.AttendanceMaxAccuracy <= 0 || c.GPS.VisitRadius <= 0 || c.GPS.VisitMaxAccuracy <= 0 {
		return fmt.Errorf("GPS thresholds must be positive")
	}
	if c.GPS.PrimaryTimeout <= 0 || c.GPS.FallbackTimeout <= 0 {
		return fmt.Errorf("GPS timeouts must be positive")
	}
	if c.R2.ExportBucket != "" && c.R2.ExportBucket == c.R2.Bucket {
		return fmt.Errorf("FF_R2_EXPORT_BUCKET must differ from the public receipts bucket")
	}
	if c.Upload.ExportDir == "" || filepath.Clean(c.Upload.ExportDir) == filepath.Clean(c.Upload.Dir) {
		return fmt.Errorf("FF_UPLOAD_EXPORT_DIR must be set and differ from FF_UPLOAD_DIR")
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 6 {
		return fmt.Errorf("FF_ADMIN_PASSWORD must be at least 6 characters")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("FF_JWT_TTL must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
