// Package config loads arctl configuration from defaults, an optional YAML
// file, ARCTL_ environment variables and command-line flags, in increasing
// order of priority.
package config

// Config is the full arctl configuration.
type Config struct {
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`

	// Types declares the registered entity types. When neither Types nor
	// TypesFrom is set the built-in blog schema is used.
	Types []TypeConfig `koanf:"types"`
	// TypesFrom names Go source files whose db-tagged structs are registered
	// as additional types.
	TypesFrom []string `koanf:"types_from"`
}

// Database selects the store.
type Database struct {
	Dialect      string `koanf:"dialect"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TypeConfig declares one entity type.
type TypeConfig struct {
	Name             string         `koanf:"name"`
	Table            string         `koanf:"table"`
	PrimaryKey       string         `koanf:"primary_key"`
	Columns          []ColumnConfig `koanf:"columns"`
	Parents          []string       `koanf:"parents"`
	ParentIDColumn   string         `koanf:"parent_id_column"`
	ParentTypeColumn string         `koanf:"parent_type_column"`
}

// ColumnConfig declares a column. Kind is one of int, float, string, bytes
// or time.
type ColumnConfig struct {
	Name     string `koanf:"name"`
	Kind     string `koanf:"kind"`
	Required bool   `koanf:"required"`
}

// Defaults.
const (
	DefaultDialect   = "sqlite"
	DefaultDSN       = "arctl.db"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	EnvPrefix        = "ARCTL_"
)
