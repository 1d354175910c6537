package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               string `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
}

// MinIOConfig holds object storage settings for the video bucket.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// AnalyzerConfig points at the external keypoint-extraction service.
// An empty URL disables video analysis; uploads are still stored.
type AnalyzerConfig struct {
	URL        string `mapstructure:"url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// SMTPConfig configures outgoing report mail. Sharing endpoints return an
// error when the host is unset.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables; a .env file is layered in by
// the godotenv autoload import in main. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string         `mapstructure:"app_host"`
	Port        string         `mapstructure:"port"`
	Env         string         `mapstructure:"env"`
	CORSOrigins string         `mapstructure:"cors_origins"`
	MaxUploadMB int            `mapstructure:"max_upload_mb"`
	AuthSecret  string         `mapstructure:"auth_secret"`
	Database    DatabaseConfig `mapstructure:"database"`
	MinIO       MinIOConfig    `mapstructure:"minio"`
	Analyzer    AnalyzerConfig `mapstructure:"analyzer"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
}

// IsDev reports whether the service runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables through viper.
// Every key is bound explicitly so Unmarshal picks it up.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("app_host", "localhost:8080")
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("max_upload_mb", 100)
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("analyzer.timeout_sec", 30)
	v.SetDefault("smtp.port", 587)

	v.BindEnv("app_host", "APP_HOST")
	v.BindEnv("port", "PORT")
	v.BindEnv("env", "ENV")
	v.BindEnv("cors_origins", "CORS_ORIGINS")
	v.BindEnv("max_upload_mb", "MAX_UPLOAD_MB")
	v.BindEnv("auth_secret", "AUTH_SECRET")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.conn_max_lifetime_sec", "DB_CONN_MAX_LIFETIME_SEC")
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
	v.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	v.BindEnv("analyzer.url", "ANALYZER_URL")
	v.BindEnv("analyzer.timeout_sec", "ANALYZER_TIMEOUT_SEC")
	v.BindEnv("smtp.host", "SMTP_HOST")
	v.BindEnv("smtp.port", "SMTP_PORT")
	v.BindEnv("smtp.user", "SMTP_USER")
	v.BindEnv("smtp.password", "SMTP_PASSWORD")
	v.BindEnv("smtp.from", "SMTP_FROM")

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
