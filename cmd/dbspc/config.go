package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompileConfig is the on-disk shape of a dbspc build: a script of DDL
// statements to compile into one circuit, where to write the emitted
// host source, and how (if at all) to persist the catalog's statement
// log and emission history.
type CompileConfig struct {
	Compile CompileSection `yaml:"compile"`
}

type CompileSection struct {
	// CircuitName is the generator function's name once sanitized; also
	// the catalogstore key the statement log and emissions are filed
	// under.
	CircuitName string `yaml:"circuit_name"`

	// Script is a path to a file of semicolon-separated SQL DDL
	// statements (CREATE TABLE / CREATE VIEW) compiled in file order.
	Script string `yaml:"script"`

	// Output is where the emitted circuit source is written. Empty
	// means stdout.
	Output string `yaml:"output"`

	// SchemaDump, if set, writes the final catalog's table and view
	// column schemas out as a parquet file at this path.
	SchemaDump string `yaml:"schema_dump"`

	Catalogstore CatalogstoreConfig `yaml:"catalogstore"`
}

// CatalogstoreConfig configures the optional sqlite-backed persistence
// of a catalog's DDL statement log and emitted circuit text.
type CatalogstoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func loadConfig(path string) (*CompileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg CompileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Compile.CircuitName == "" {
		return nil, fmt.Errorf("compile.circuit_name is required")
	}
	if cfg.Compile.Script == "" {
		return nil, fmt.Errorf("compile.script is required")
	}
	return &cfg, nil
}
