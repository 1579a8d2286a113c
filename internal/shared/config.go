package shared

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Values from the file can be overridden by environment variables (see the env tags).
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Media     MediaConfig     `toml:"media"`
	Publisher PublisherConfig `toml:"publisher"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"CANCIONERO_DB_PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"CANCIONERO_DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"CANCIONERO_DB_MAX_IDLE_CONNS"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `toml:"host" env:"HOST"`
	Port        int    `toml:"port" env:"PORT"`
	Production  bool   `toml:"production" env:"CANCIONERO_PRODUCTION"`
	MaxUploadMB int64  `toml:"max_upload_mb" env:"CANCIONERO_MAX_UPLOAD_MB"`
}

// CatalogConfig contains listing settings.
type CatalogConfig struct {
	PageSize int `toml:"page_size" env:"CANCIONERO_PAGE_SIZE"`
}

// MediaConfig contains local image storage settings.
type MediaConfig struct {
	UploadDir         string   `toml:"upload_dir" env:"CANCIONERO_UPLOAD_DIR"`
	AllowedExtensions []string `toml:"allowed_extensions" env:"CANCIONERO_ALLOWED_EXTENSIONS" env-separator:","`
	MaxPixels         int64    `toml:"max_pixels" env:"CANCIONERO_MAX_PIXELS"`
}

// PublisherConfig selects and configures the remote media host.
//
// An empty Backend disables remote publishing.
type PublisherConfig struct {
	Backend    string           `toml:"backend" env:"CANCIONERO_PUBLISHER"`
	Folder     string           `toml:"folder" env:"CANCIONERO_PUBLISH_FOLDER"`
	RateLimit  float64          `toml:"rate_limit" env:"CANCIONERO_PUBLISH_RATE_LIMIT"`
	MaxWidth   uint             `toml:"max_width" env:"CANCIONERO_PUBLISH_MAX_WIDTH"`
	TimeoutSec int              `toml:"timeout_sec" env:"CANCIONERO_PUBLISH_TIMEOUT"`
	Cloudinary CloudinaryConfig `toml:"cloudinary"`
	S3         S3Config         `toml:"s3"`
	Qiniu      QiniuConfig      `toml:"qiniu"`
}

// CloudinaryConfig contains Cloudinary upload API credentials.
type CloudinaryConfig struct {
	CloudName string `toml:"cloud_name" env:"CLOUD_NAME"`
	APIKey    string `toml:"api_key" env:"CLOUD_API_KEY"`
	APISecret string `toml:"api_secret" env:"CLOUD_API_SECRET"`
	BaseURL   string `toml:"base_url" env:"CLOUD_BASE_URL"`
}

// S3Config contains settings for S3 or any S3-compatible object store.
type S3Config struct {
	Region          string `toml:"region" env:"AWS_REGION"`
	Bucket          string `toml:"bucket" env:"AWS_S3_BUCKET"`
	AccessKeyID     string `toml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `toml:"endpoint" env:"AWS_S3_ENDPOINT"`
	PublicBaseURL   string `toml:"public_base_url" env:"AWS_S3_PUBLIC_BASE_URL"`
}

// QiniuConfig contains Qiniu Kodo credentials.
type QiniuConfig struct {
	AccessKey string `toml:"access_key" env:"QINIU_ACCESS_KEY"`
	SecretKey string `toml:"secret_key" env:"QINIU_SECRET_KEY"`
	Bucket    string `toml:"bucket" env:"QINIU_BUCKET"`
	Domain    string `toml:"domain" env:"QINIU_DOMAIN"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
}

// Publisher backends understood by [PublisherConfig].
const (
	PublisherNone       = ""
	PublisherCloudinary = "cloudinary"
	PublisherS3         = "s3"
	PublisherQiniu      = "qiniu"
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides configuration values with any environment variables that are set.
func (c *Config) ApplyEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("%w: catalog.page_size must be positive, got %d", ErrInvalidConfig, c.Catalog.PageSize)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive, got %d", ErrInvalidConfig, c.Server.MaxUploadMB)
	}
	if c.Media.UploadDir == "" {
		return fmt.Errorf("%w: media.upload_dir is required", ErrInvalidConfig)
	}
	if len(c.Media.AllowedExtensions) == 0 {
		return fmt.Errorf("%w: media.allowed_extensions must not be empty", ErrInvalidConfig)
	}
	if c.Media.MaxPixels < 0 {
		return fmt.Errorf("%w: media.max_pixels must not be negative, got %d", ErrInvalidConfig, c.Media.MaxPixels)
	}

	backends := []string{PublisherNone, PublisherCloudinary, PublisherS3, PublisherQiniu}
	if !slices.Contains(backends, strings.ToLower(c.Publisher.Backend)) {
		return fmt.Errorf("%w: unknown publisher backend %q", ErrInvalidConfig, c.Publisher.Backend)
	}

	return nil
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB * 1024 * 1024
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
