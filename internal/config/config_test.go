package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Limits.MaxFiles)
	assert.Equal(t, int64(50*1024*1024), cfg.Limits.MaxFileBytes)
	assert.Equal(t, "gpt-5-mini", cfg.Remote.Model)
	assert.InDelta(t, 0.1, cfg.Remote.Temperature, 1e-6)
	assert.Equal(t, []string{"native", "office", "docker"}, cfg.Converters.Order)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
limits:
  maxFiles: 3
converters:
  order: [office]
  timeout: 45s
remote:
  provider: openai
  timeout: 2m
  releaseArtifacts: true
openai:
  apiKey: sk-file
`)
	t.Setenv("PORT", "8081")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("API_SECRET_KEY", "")
	t.Setenv("FASTAPI_SECRET_KEY", "legacy-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Limits.MaxFiles)
	assert.Equal(t, []string{"office"}, cfg.Converters.Order)
	assert.Equal(t, 45*time.Second, cfg.Converters.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Remote.Timeout)
	assert.True(t, cfg.Remote.ReleaseArtifacts)
	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "legacy-secret", cfg.Auth.APIKey)
	assert.Equal(t, ":8081", cfg.Addr())
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("PORT", "eighty")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "invalid PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"zero max files", func(c *Config) { c.Limits.MaxFiles = 0 }, "maxFiles"},
		{"negative timeout", func(c *Config) { c.Remote.Timeout = -time.Second }, "negative"},
		{"unknown converter", func(c *Config) { c.Converters.Order = []string{"pandoc"} }, "pandoc"},
		{"unknown provider", func(c *Config) { c.Remote.Provider = "azure" }, "azure"},
		{"openai without key", func(c *Config) { c.OpenAI.APIKey = "" }, "OPENAI_API_KEY"},
		{"minio without bucket", func(c *Config) { c.Remote.Provider = ProviderMinio; c.Minio.Endpoint = "minio:9000" }, "bucketName"},
		{"vertex complete", func(c *Config) {
			c.Remote.Provider = ProviderVertex
			c.OpenAI.APIKey = ""
			c.Vertex.ProjectID, c.Vertex.Region, c.Vertex.Bucket = "p", "us-central1", "b"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.OpenAI.APIKey = "sk"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.OpenAI.APIKey)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestReadNormalizesProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("PORT", "")
	t.Setenv("REMOTE_PROVIDER", " OpenAI ")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Remote.Provider)
}
