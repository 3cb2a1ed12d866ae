package config

import (
	"os"
)

// EnvironmentExpander expands ${VAR} placeholders in raw configuration.
type EnvironmentExpander interface {
	Expand(input []byte) ([]byte, error)
}

// OsEnvironmentExpander expands placeholders from the process environment.
type OsEnvironmentExpander struct{}

// NewOsEnvironmentExpander creates an OsEnvironmentExpander.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{}
}

// Expand replaces ${VAR} and $VAR with their values; unset variables expand to "".
func (e *OsEnvironmentExpander) Expand(input []byte) ([]byte, error) {
	return []byte(os.ExpandEnv(string(input))), nil
}
