// Package config provides the configuration structures of the sounding archive and
// the loader that assembles them from defaults, embedded YAML and the environment.
package config

// EmbeddedConfig holds the raw YAML configuration, typically embedded by main.go.
type EmbeddedConfig []byte

// LogLevel defines the verbosity of log output.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the application log level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
	// SQLLevel is the level of SQL statement logging; "SILENT" by default.
	SQLLevel string `yaml:"sql_level"`
}

// SystemConfig holds process-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig wires the archive index to its database and payload store.
type IndexConfig struct {
	// DBRef names the database connection under adapter.database.
	DBRef string `yaml:"db_ref"`
	// StorageRef names the payload store under adapter.storage.
	StorageRef string `yaml:"storage_ref"`
	// Bucket is the bucket (or directory) holding compressed payloads.
	Bucket string `yaml:"bucket"`
	// MigrationsTable tracks applied schema migrations.
	MigrationsTable string `yaml:"migrations_table"`
	// SkipMigrations disables applying migrations at start-up.
	SkipMigrations bool `yaml:"skip_migrations"`
	// CompressionLevel is the gzip level for payloads (1-9); 0 selects the library default.
	CompressionLevel int `yaml:"compression_level"`
	// ExportCompression is the Parquet codec used by Export ("SNAPPY", "GZIP", "NONE").
	ExportCompression string `yaml:"export_compression"`
	// RetentionDays is the default age limit applied by Purge; 0 disables purging.
	RetentionDays int `yaml:"retention_days"`
}

// TracingConfig configures the OpenTelemetry trace exporter.
type TracingConfig struct {
	// Exporter is "none", "otlphttp" or "otlpgrpc".
	Exporter string `yaml:"exporter"`
	// Endpoint is the collector address (host:port).
	Endpoint string `yaml:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name"`
	// SampleRatio is the fraction of root spans sampled (0 < r <= 1).
	SampleRatio float64 `yaml:"sample_ratio"`
}

// ObservabilityConfig groups metrics and tracing settings.
type ObservabilityConfig struct {
	// MetricsNamespace prefixes every Prometheus metric.
	MetricsNamespace string        `yaml:"metrics_namespace"`
	Tracing          TracingConfig `yaml:"tracing"`
}

// SoundingsConfig holds everything under the "soundings" top-level key.
type SoundingsConfig struct {
	System        SystemConfig        `yaml:"system"`
	Index         IndexConfig         `yaml:"index"`
	Observability ObservabilityConfig `yaml:"observability"`
	// AdapterConfigs holds named adapter settings keyed by kind ("database", "storage")
	// and then by connection name. Adapters decode their entry with mapstructure.
	AdapterConfigs map[string]interface{} `yaml:"adapter"`
}

// Config is the root configuration.
type Config struct {
	Soundings SoundingsConfig `yaml:"soundings"`
	// EmbeddedConfig is the raw source the configuration was loaded from.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Soundings: SoundingsConfig{
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO", SQLLevel: string(LogLevelSilent)},
			},
			Index: IndexConfig{
				DBRef:             "index",
				StorageRef:        "payloads",
				Bucket:            "files",
				MigrationsTable:   "archive_index_migrations",
				ExportCompression: "SNAPPY",
			},
			Observability: ObservabilityConfig{
				MetricsNamespace: "soundings",
				Tracing: TracingConfig{
					Exporter:    "none",
					ServiceName: "sounding-archive",
					SampleRatio: 1.0,
				},
			},
			AdapterConfigs: map[string]interface{}{},
		},
	}
}

// AdapterSection returns the named connection settings of one adapter kind
// (e.g., AdapterSection("database")), or nil when the section is absent or malformed.
func (c *Config) AdapterSection(kind string) map[string]interface{} {
	if c == nil || c.Soundings.AdapterConfigs == nil {
		return nil
	}
	section, ok := c.Soundings.AdapterConfigs[kind].(map[string]interface{})
	if !ok {
		return nil
	}
	return section
}
