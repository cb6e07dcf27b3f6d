package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// productionBaseURL is the fixed public origin embedded in responses when the
// service runs in production mode and no explicit base URL is configured.
const productionBaseURL = "https://files.visaport.example.com"

// Config aggregates runtime configuration for the docserve API.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	CORS    CORSConfig
	Metrics MetricsConfig

	// BaseURL is the public origin prepended to storage-relative paths when
	// building file URLs. Resolved once at load time, never per request.
	BaseURL string
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Storage driver names.
const (
	DriverLocal = "local"
	DriverMinIO = "minio"
)

// StorageConfig selects and parameterizes the blob storage backend.
type StorageConfig struct {
	Driver         string
	UploadsRoot    string
	MaxUploadBytes int64
	MinIO          MinIOConfig
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// CORSConfig holds the origin allow-list for browser callers.
type CORSConfig struct {
	AllowedOrigins []string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	server := ServerConfig{
		Host:         getString("DOCSERVE_API_HOST", "0.0.0.0"),
		Port:         getInt("DOCSERVE_API_PORT", 8080),
		ReadTimeout:  getDuration("DOCSERVE_API_READ_TIMEOUT", 5*time.Minute),
		WriteTimeout: getDuration("DOCSERVE_API_WRITE_TIMEOUT", 5*time.Minute),
		IdleTimeout:  getDuration("DOCSERVE_API_IDLE_TIMEOUT", 60*time.Second),
	}

	cfg := Config{
		Server: server,
		Storage: StorageConfig{
			Driver:         strings.ToLower(getString("DOCSERVE_STORAGE_DRIVER", DriverLocal)),
			UploadsRoot:    getString("DOCSERVE_UPLOADS_ROOT", "uploads"),
			MaxUploadBytes: getInt64("DOCSERVE_MAX_UPLOAD_BYTES", 50<<20),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "docserve"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				Bucket:          getString("MINIO_BUCKET", "docserve-uploads"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: loadAllowedOrigins(),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("DOCSERVE_METRICS_PATH", "/metrics"),
		},
		BaseURL: resolveBaseURL(server.Port),
	}

	if cfg.Storage.Driver != DriverLocal && cfg.Storage.Driver != DriverMinIO {
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("max upload size must be positive, got %d", cfg.Storage.MaxUploadBytes)
	}

	return cfg, nil
}

// resolveBaseURL decides the public origin exactly once at startup. An explicit
// DOCSERVE_PUBLIC_BASE_URL wins; otherwise production mode selects the fixed
// production origin and everything else falls back to localhost.
func resolveBaseURL(port int) string {
	if explicit := getString("DOCSERVE_PUBLIC_BASE_URL", ""); explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	if isProduction() {
		return productionBaseURL
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func isProduction() bool {
	return strings.ToLower(getString("APP_ENV", getString("NODE_ENV", ""))) == "production"
}

func loadAllowedOrigins() []string {
	// Portal origins for local development; deployments extend the list via env.
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if extra := getString("CORS_ALLOWED_ORIGINS", ""); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
