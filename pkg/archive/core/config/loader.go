package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
	Expander       EnvironmentExpander `optional:"true"`
}

// LoadConfig assembles the configuration in four steps: defaults, the .env file,
// the embedded YAML (after ${VAR} expansion) and finally SOUNDINGS_* environment overrides.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}
	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}

	cfg := NewConfig()

	raw, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.New(moduleName, exception.KindInvalidArgument, "failed to expand environment placeholders", err)
	}
	var yamlConfig Config
	if err := yaml.Unmarshal(raw, &yamlConfig); err != nil {
		return nil, exception.New(moduleName, exception.KindInvalidArgument, "failed to unmarshal embedded config", err)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.New(moduleName, exception.KindInvalidArgument, "failed to load config from environment variables", err)
	}
	if err := validate(cfg); err != nil {
		return nil, exception.New(moduleName, exception.KindInvalidArgument, "invalid configuration", err)
	}
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads *Config and applies the configured log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.Soundings.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Soundings.System.Logging.Level)
	return cfg, nil
}

func validate(cfg *Config) error {
	idx := cfg.Soundings.Index
	if idx.DBRef == "" {
		return fmt.Errorf("index.db_ref must not be empty")
	}
	if idx.CompressionLevel < 0 || idx.CompressionLevel > 9 {
		return fmt.Errorf("index.compression_level must be between 0 and 9, got %d", idx.CompressionLevel)
	}
	if idx.RetentionDays < 0 {
		return fmt.Errorf("index.retention_days must not be negative, got %d", idx.RetentionDays)
	}
	switch strings.ToUpper(idx.ExportCompression) {
	case "SNAPPY", "GZIP", "NONE", "UNCOMPRESSED":
	default:
		return fmt.Errorf("unsupported index.export_compression: %q", idx.ExportCompression)
	}
	tr := cfg.Soundings.Observability.Tracing
	switch tr.Exporter {
	case "", "none", "otlphttp", "otlpgrpc":
	default:
		return fmt.Errorf("unsupported observability.tracing.exporter: %q", tr.Exporter)
	}
	if tr.SampleRatio < 0 || tr.SampleRatio > 1 {
		return fmt.Errorf("observability.tracing.sample_ratio must be within [0, 1], got %v", tr.SampleRatio)
	}
	return nil
}

// mergeConfig copies every non-zero value of source into dest.
func mergeConfig(dest, source *Config) {
	mergeSoundingsConfig(&dest.Soundings, &source.Soundings)
}

func mergeSoundingsConfig(dest, source *SoundingsConfig) {
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}
	if source.System.Logging.SQLLevel != "" {
		dest.System.Logging.SQLLevel = source.System.Logging.SQLLevel
	}

	mergeIndexConfig(&dest.Index, &source.Index)

	if source.Observability.MetricsNamespace != "" {
		dest.Observability.MetricsNamespace = source.Observability.MetricsNamespace
	}
	mergeTracingConfig(&dest.Observability.Tracing, &source.Observability.Tracing)

	if source.AdapterConfigs != nil {
		if dest.AdapterConfigs == nil {
			dest.AdapterConfigs = make(map[string]interface{})
		}
		for key, value := range source.AdapterConfigs {
			dest.AdapterConfigs[key] = value
		}
	}
}

func mergeIndexConfig(dest, source *IndexConfig) {
	if source.DBRef != "" {
		dest.DBRef = source.DBRef
	}
	if source.StorageRef != "" {
		dest.StorageRef = source.StorageRef
	}
	if source.Bucket != "" {
		dest.Bucket = source.Bucket
	}
	if source.MigrationsTable != "" {
		dest.MigrationsTable = source.MigrationsTable
	}
	if source.SkipMigrations {
		dest.SkipMigrations = true
	}
	if source.CompressionLevel != 0 {
		dest.CompressionLevel = source.CompressionLevel
	}
	if source.ExportCompression != "" {
		dest.ExportCompression = source.ExportCompression
	}
	if source.RetentionDays != 0 {
		dest.RetentionDays = source.RetentionDays
	}
}

func mergeTracingConfig(dest, source *TracingConfig) {
	if source.Exporter != "" {
		dest.Exporter = source.Exporter
	}
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.Insecure {
		dest.Insecure = true
	}
	if source.ServiceName != "" {
		dest.ServiceName = source.ServiceName
	}
	if source.SampleRatio != 0 {
		dest.SampleRatio = source.SampleRatio
	}
}

// loadStructFromEnv walks val and overrides each field from the environment variable
// named by the upper-cased path of yaml tags (e.g., SOUNDINGS_INDEX_BUCKET).
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
