package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("env substitution and defaults", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("SITEGEN_TEST_PORT", "9090")

		cfg, err := Parse([]byte(`
server:
  port: "${SITEGEN_TEST_PORT:-8080}"
  log_level: "${SITEGEN_TEST_UNSET:-debug}"
stream:
  content_dir: "${SITEGEN_TEST_UNSET}"
  delay_ms: 250
`))
		req.NoError(err)

		req.Equal("9090", cfg.Server.Port)
		req.Equal("debug", cfg.GetNormalizedLogLevel())
		req.Equal(defaultContentDir, cfg.Stream.ContentDir)
		req.Equal(defaultFileExtension, cfg.Stream.FileExtension)
		req.Equal(defaultBlockSize, cfg.Stream.BlockSize)
		req.Equal(250, *cfg.Stream.DelayMs)
		req.Nil(cfg.Database)
		req.Nil(cfg.Redis)
		req.NoError(cfg.Validate())
	})

	t.Run("database defaults", func(t *testing.T) {
		req := require.New(t)

		cfg, err := Parse([]byte(`
database:
  type: sqlite
  file_path: test.db
`))
		req.NoError(err)
		req.Equal(models.SQLite, cfg.Database.Type)
		req.Equal(defaultRecorderWorkers, cfg.Database.RecorderWorkers)
		req.Equal(defaultRecorderBuffer, cfg.Database.RecorderBuffer)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("server: [unterminated"))
		require.Error(t, err)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("reads yaml files", func(t *testing.T) {
		req := require.New(t)

		path := filepath.Join(t.TempDir(), "config.yaml")
		req.NoError(os.WriteFile(path, []byte("server:\n  port: \"7000\"\n"), 0o600))

		cfg, err := LoadFromFile(path)
		req.NoError(err)
		req.Equal("7000", cfg.Server.Port)
	})

	t.Run("environment overrides win", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("SITEGEN_PORT", "7100")
		t.Setenv("SITEGEN_CONTENT_DIR", "/srv/sites")

		path := filepath.Join(t.TempDir(), "config.yml")
		req.NoError(os.WriteFile(path, []byte("server:\n  port: \"7000\"\n  log_level: warn\n"), 0o600))

		cfg, err := LoadFromFile(path)
		req.NoError(err)
		req.Equal("7100", cfg.Server.Port)
		req.Equal("warn", cfg.Server.LogLevel)
		req.Equal("/srv/sites", cfg.Stream.ContentDir)
	})

	t.Run("rejects other extensions", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "config.json"))
		require.ErrorContains(t, err, "only .yaml and .yml")
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := LoadFromFile("../config.yaml")
		require.ErrorContains(t, err, "path traversal")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)

	cfg := Default()
	req.NoError(cfg.Validate())

	cfg.Stream.BlockSize = 2 << 20
	negative := -1
	cfg.Stream.DelayMs = &negative
	cfg.Database = &models.DatabaseConfig{}
	cfg.Redis = &models.RedisConfig{}

	err := cfg.Validate()
	var validationErr *ValidationError
	req.ErrorAs(err, &validationErr)
	req.ElementsMatch([]string{"database.type", "redis.url"}, validationErr.MissingFields)
	req.Len(validationErr.InvalidFields, 2)
}

func TestConfig_IsProduction(t *testing.T) {
	req := require.New(t)

	cfg := Default()
	req.False(cfg.IsProduction())
	cfg.Server.Environment = "production"
	req.True(cfg.IsProduction())
}
