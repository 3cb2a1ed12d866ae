package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/configbinder"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

const sampleYAML = `
soundings:
  system:
    logging:
      level: DEBUG
  index:
    bucket: ${TEST_SOUNDINGS_BUCKET}
    retention_days: 30
  adapter:
    database:
      index:
        type: sqlite
        database: /tmp/index.db
        pool:
          max_open_conns: 1
    storage:
      payloads:
        type: local
        base_dir: /tmp/payloads
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("/nonexistent/.env", config.EmbeddedConfig(""), nil)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Soundings.System.Logging.Level)
	assert.Equal(t, "index", cfg.Soundings.Index.DBRef)
	assert.Equal(t, "payloads", cfg.Soundings.Index.StorageRef)
	assert.Equal(t, "archive_index_migrations", cfg.Soundings.Index.MigrationsTable)
	assert.Equal(t, "SNAPPY", cfg.Soundings.Index.ExportCompression)
	assert.Equal(t, "none", cfg.Soundings.Observability.Tracing.Exporter)
	assert.Nil(t, cfg.AdapterSection("database"))
}

func TestLoadConfig_YAMLAndExpansion(t *testing.T) {
	t.Setenv("TEST_SOUNDINGS_BUCKET", "bufkit")

	cfg, err := config.LoadConfig("/nonexistent/.env", config.EmbeddedConfig(sampleYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Soundings.System.Logging.Level)
	assert.Equal(t, "bufkit", cfg.Soundings.Index.Bucket)
	assert.Equal(t, 30, cfg.Soundings.Index.RetentionDays)
	// untouched defaults survive the merge
	assert.Equal(t, "index", cfg.Soundings.Index.DBRef)

	db := cfg.AdapterSection("database")
	require.NotNil(t, db)
	var conn struct {
		Type     string `yaml:"type"`
		Database string `yaml:"database"`
		Pool     struct {
			MaxOpenConns int `yaml:"max_open_conns"`
		} `yaml:"pool"`
	}
	found, err := configbinder.BindSection(db, "index", &conn)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sqlite", conn.Type)
	assert.Equal(t, "/tmp/index.db", conn.Database)
	assert.Equal(t, 1, conn.Pool.MaxOpenConns)

	found, err = configbinder.BindSection(db, "missing", &conn)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SOUNDINGS_SYSTEM_LOGGING_LEVEL", "WARN")
	t.Setenv("SOUNDINGS_INDEX_SKIP_MIGRATIONS", "true")
	t.Setenv("SOUNDINGS_INDEX_COMPRESSION_LEVEL", "9")
	t.Setenv("SOUNDINGS_OBSERVABILITY_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := config.LoadConfig("/nonexistent/.env", config.EmbeddedConfig(sampleYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Soundings.System.Logging.Level)
	assert.True(t, cfg.Soundings.Index.SkipMigrations)
	assert.Equal(t, 9, cfg.Soundings.Index.CompressionLevel)
	assert.InDelta(t, 0.25, cfg.Soundings.Observability.Tracing.SampleRatio, 1e-9)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "malformed yaml", yaml: "soundings: [unclosed"},
		{name: "bad env int", env: map[string]string{"SOUNDINGS_INDEX_RETENTION_DAYS": "ten"}},
		{name: "compression out of range", env: map[string]string{"SOUNDINGS_INDEX_COMPRESSION_LEVEL": "12"}},
		{name: "unknown exporter", env: map[string]string{"SOUNDINGS_OBSERVABILITY_TRACING_EXPORTER": "zipkin"}},
		{name: "unknown export codec", env: map[string]string{"SOUNDINGS_INDEX_EXPORT_COMPRESSION": "LZ4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig("/nonexistent/.env", config.EmbeddedConfig(tt.yaml), nil)
			require.Error(t, err)
			assert.True(t, exception.IsInvalidArgument(err))
		})
	}
}
