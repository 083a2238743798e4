package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Remote providers.
const (
	ProviderOpenAI = "openai" // OpenAI Files + Responses
	ProviderMinio  = "minio"  // MinIO presigned URLs + OpenAI Responses
	ProviderVertex = "vertex" // GCS + Gemini
)

// Document converter names, in default priority order.
var DefaultConverterOrder = []string{"native", "office", "docker"}

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		RateLimit       struct {
			RequestsPerMinute int `yaml:"requestsPerMinute"`
			Burst             int `yaml:"burst"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Auth struct {
		APIKey string `yaml:"apiKey"`
	} `yaml:"auth"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Limits struct {
		MaxFiles     int   `yaml:"maxFiles"`
		MaxFileBytes int64 `yaml:"maxFileBytes"`
	} `yaml:"limits"`

	Converters struct {
		Order        []string      `yaml:"order"`
		Timeout      time.Duration `yaml:"timeout"`
		DPI          int           `yaml:"dpi"`
		OfficeBinary string        `yaml:"officeBinary"`
		NativeBinary string        `yaml:"nativeBinary"`
		DockerImage  string        `yaml:"dockerImage"`
	} `yaml:"converters"`

	Remote struct {
		Provider         string        `yaml:"provider"`
		Model            string        `yaml:"model"`
		Temperature      float32       `yaml:"temperature"`
		Timeout          time.Duration `yaml:"timeout"`
		ReleaseArtifacts bool          `yaml:"releaseArtifacts"`
	} `yaml:"remote"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	Minio struct {
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		Prefix     string        `yaml:"prefix"`
		URLExpiry  time.Duration `yaml:"urlExpiry"`
	} `yaml:"minio"`

	Vertex struct {
		ProjectID       string `yaml:"projectID"`
		Region          string `yaml:"region"`
		Model           string `yaml:"model"`
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		CredentialsFile string `yaml:"credentialsFile"`
	} `yaml:"vertex"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8000
	cfg.Server.ShutdownTimeout = 15 * time.Second
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.RateLimit.RequestsPerMinute = 60
	cfg.Server.RateLimit.Burst = 10
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Limits.MaxFiles = 10
	cfg.Limits.MaxFileBytes = 50 * 1024 * 1024
	cfg.Converters.Order = append([]string(nil), DefaultConverterOrder...)
	cfg.Converters.DPI = 300
	cfg.Converters.OfficeBinary = "soffice"
	cfg.Converters.NativeBinary = "docx2pdf"
	cfg.Remote.Provider = ProviderOpenAI
	cfg.Remote.Model = "gpt-5-mini"
	cfg.Remote.Temperature = 0.1
	cfg.Minio.URLExpiry = time.Hour
	return &cfg
}

// Load reads the configuration via Read and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read baca .env (kalau ada), lalu config.yaml di atas default, lalu env override.
// A missing file is not an error. The result is not validated.
func Read(path string) (*Config, error) {
	// .env opsional
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	str(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	str(&c.Auth.APIKey, "API_SECRET_KEY", "FASTAPI_SECRET_KEY")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Remote.Provider, "REMOTE_PROVIDER")

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// normalize canonicalizes values matched case-sensitively downstream.
func (c *Config) normalize() {
	c.Remote.Provider = strings.ToLower(strings.TrimSpace(c.Remote.Provider))
	for i, name := range c.Converters.Order {
		c.Converters.Order[i] = strings.ToLower(strings.TrimSpace(name))
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Limits.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("limits.maxFiles must be positive"))
	}
	if c.Limits.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.maxFileBytes must be positive"))
	}
	if c.Converters.Timeout < 0 || c.Remote.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeouts cannot be negative"))
	}
	for _, name := range c.Converters.Order {
		if !knownConverter(name) {
			errs = append(errs, fmt.Errorf("converters.order: unknown converter %q", name))
		}
	}

	switch c.Remote.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, fmt.Errorf("openai.apiKey (OPENAI_API_KEY) is required"))
		}
	case ProviderMinio:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, fmt.Errorf("openai.apiKey (OPENAI_API_KEY) is required"))
		}
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" {
			errs = append(errs, fmt.Errorf("minio.endpoint and minio.bucketName are required"))
		}
	case ProviderVertex:
		if c.Vertex.ProjectID == "" || c.Vertex.Region == "" || c.Vertex.Bucket == "" {
			errs = append(errs, fmt.Errorf("vertex.projectID, vertex.region and vertex.bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("remote.provider: unknown provider %q", c.Remote.Provider))
	}
	return errors.Join(errs...)
}

// Addr alamat listen HTTP
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func knownConverter(name string) bool {
	for _, n := range DefaultConverterOrder {
		if n == name {
			return true
		}
	}
	return false
}
