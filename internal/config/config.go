package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
	S3       S3Config       `mapstructure:"S3"`
	Auth     AuthConfig     `mapstructure:"Auth"`
	Upload   UploadConfig   `mapstructure:"Upload"`
}

type ServerConfig struct {
	Port string `mapstructure:"Port" validate:"required"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"Host" validate:"required"`
	Port     string `mapstructure:"Port" validate:"required"`
	User     string `mapstructure:"User" validate:"required"`
	Password string `mapstructure:"Password" validate:"required"`
	Name     string `mapstructure:"Name" validate:"required"`
	SSLMode  string `mapstructure:"SSLMode"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"Endpoint" validate:"required,url"`
	Region          string `mapstructure:"Region" validate:"required"`
	AccessKeyID     string `mapstructure:"AccessKeyID" validate:"required"`
	SecretAccessKey string `mapstructure:"SecretAccessKey" validate:"required"`
	Bucket          string `mapstructure:"Bucket" validate:"required"`
}

type AuthConfig struct {
	Secret          string `mapstructure:"Secret" validate:"required,min=16"`
	TokenTTLMinutes int    `mapstructure:"TokenTTLMinutes" validate:"gt=0"`
}

type UploadConfig struct {
	// MaxFileSize is the upload cap in bytes.
	MaxFileSize int64 `mapstructure:"MaxFileSize" validate:"gt=0"`
}

// NewConfig reads an env-style file when present and lets environment
// variables override every field.
func NewConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	bindings := map[string]string{
		"Database.Host":        "DATABASE_HOST",
		"Database.Port":        "DATABASE_PORT",
		"Database.User":        "DATABASE_USER",
		"Database.Password":    "DATABASE_PASSWORD",
		"Database.Name":        "DATABASE_NAME",
		"Database.SSLMode":     "DATABASE_SSLMODE",
		"Server.Port":          "HTTP_PORT",
		"S3.Endpoint":          "S3_ENDPOINT",
		"S3.Region":            "S3_REGION",
		"S3.AccessKeyID":       "S3_ACCESS_KEY_ID",
		"S3.SecretAccessKey":   "S3_SECRET_ACCESS_KEY",
		"S3.Bucket":            "S3_BUCKET",
		"Auth.Secret":          "AUTH_SECRET",
		"Auth.TokenTTLMinutes": "AUTH_TOKEN_TTL_MINUTES",
		"Upload.MaxFileSize":   "UPLOAD_MAX_FILE_SIZE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Database.SSLMode", "disable")
	v.SetDefault("S3.Region", "us-east-1")
	v.SetDefault("Auth.TokenTTLMinutes", 24*60)
	v.SetDefault("Upload.MaxFileSize", 50*1024*1024)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}
