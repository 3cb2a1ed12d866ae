// Package config defines the settings of a named payload store.
package config

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // "local" or "gcs".
	BucketName      string `yaml:"bucket_name"`      // Default bucket when an operation passes none.
	CredentialsFile string `yaml:"credentials_file"` // Service account key for GCS; empty uses application default credentials.
	BaseDir         string `yaml:"base_dir"`         // Root directory for local storage.
	Endpoint        string `yaml:"endpoint"`         // Overrides the GCS endpoint, e.g. for an emulator.
	ProjectID       string `yaml:"project_id"`       // GCS project, used when creating buckets.
}
