// Package config loads CLI configuration from defaults, an optional
// bdp.yaml file, BDP_-prefixed environment variables, and command-line
// flags, in increasing order of precedence.
package config

// Config holds all CLI configuration options.
type Config struct {
	AssetsDir     string `koanf:"assets_dir"`
	DatabasePath  string `koanf:"db_path"`
	Jobs          int    `koanf:"jobs"`
	ScriptTimeout string `koanf:"script_timeout"`
	Verbose       bool   `koanf:"verbose"`
	OutputFormat  string `koanf:"output"`

	// ProjectRoot is the directory config-relative paths resolve against.
	// Derived, never set in a config file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultJobs          = 1
	DefaultScriptTimeout = "5m"
	DefaultOutput        = "text"
)
