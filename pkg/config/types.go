package config

import "github.com/vulntor/fabricscan/pkg/section"

// Config is the root configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Parse   ParseConfig   `koanf:"parse"`
	Catalog CatalogConfig `koanf:"catalog"`

	// Sections are user-defined sections appended to the selected profile. They are
	// decoded separately from the loosely typed "sections" list.
	Sections []section.Spec `koanf:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `description:"Log level: debug | info | warn | error" koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `description:"Log format: console | json" koanf:"format" validate:"oneof=console json"`
}

// ParseConfig holds dump parsing settings.
type ParseConfig struct {
	Profile     string `description:"Dump profile" koanf:"profile" validate:"required"`
	Workers     int    `description:"Concurrent files and classification workers, 0 = number of CPUs" koanf:"workers" validate:"min=0"`
	Charset     string `description:"Charset for lines that are not UTF-8, or none" koanf:"charset"`
	MaxLineSize int    `description:"Longest accepted input line in bytes" koanf:"max_line_size" validate:"min=0"`
	TraceFile   string `description:"Append classification outcomes to this JSONL file" koanf:"trace_file"`
}

// CatalogConfig points at catalog files replacing the built-in ones.
type CatalogConfig struct {
	Patterns   string `description:"Pattern catalog file" koanf:"patterns"`
	Signatures string `description:"Signature rule catalog file" koanf:"signatures"`
}
