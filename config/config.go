// Package config loads the two documents consumed at build time: the
// database config (schema, primary key, partition-by and sort-by columns,
// default nucleotide segment) and the preprocessing config (input and
// output locations, reference genomes, optional lineage files).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/genspectrum/silo/storage/column"
)

// ColumnConfig is one schema entry of the database config.
type ColumnConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Kind parses the entry's column kind.
func (c ColumnConfig) Kind() (column.Kind, error) {
	return column.ParseKind(c.Type)
}

// Schema describes the metadata columns of a database instance.
type Schema struct {
	InstanceName      string         `yaml:"instanceName"`
	Metadata          []ColumnConfig `yaml:"metadata"`
	PrimaryKey        string         `yaml:"primaryKey"`
	PartitionBy       string         `yaml:"partitionBy,omitempty"`
	DateToSortBy      string         `yaml:"dateToSortBy,omitempty"`
	DefaultNucleotide string         `yaml:"defaultNucleotideSequence,omitempty"`
}

// DatabaseConfig is the schema document.
type DatabaseConfig struct {
	Schema Schema `yaml:"schema"`
}

// ColumnConfigFor returns the schema entry for a column name.
func (c *DatabaseConfig) ColumnConfigFor(name string) (ColumnConfig, bool) {
	for _, m := range c.Schema.Metadata {
		if m.Name == name {
			return m, true
		}
	}
	return ColumnConfig{}, false
}

// Validate checks internal consistency of the schema.
func (c *DatabaseConfig) Validate() error {
	if c.Schema.PrimaryKey == "" {
		return &ConfigError{Msg: "database config: primaryKey is required"}
	}
	names := make(map[string]bool, len(c.Schema.Metadata))
	for _, m := range c.Schema.Metadata {
		if names[m.Name] {
			return &ConfigError{Msg: fmt.Sprintf("database config: duplicate column %q", m.Name)}
		}
		names[m.Name] = true
		if _, err := m.Kind(); err != nil {
			return &ConfigError{Msg: fmt.Sprintf("database config: column %q: %v", m.Name, err)}
		}
	}
	if !names[c.Schema.PrimaryKey] {
		return &ConfigError{Msg: fmt.Sprintf("database config: primary key %q is not a schema column", c.Schema.PrimaryKey)}
	}
	if c.Schema.PartitionBy != "" && !names[c.Schema.PartitionBy] {
		return &ConfigError{Msg: fmt.Sprintf("database config: partitionBy column %q is not a schema column", c.Schema.PartitionBy)}
	}
	if c.Schema.DateToSortBy != "" {
		entry, ok := c.ColumnConfigFor(c.Schema.DateToSortBy)
		if !ok {
			return &ConfigError{Msg: fmt.Sprintf("database config: dateToSortBy column %q is not a schema column", c.Schema.DateToSortBy)}
		}
		if kind, _ := entry.Kind(); kind != column.KindDate {
			return &ConfigError{Msg: fmt.Sprintf("database config: dateToSortBy column %q is not a date column", c.Schema.DateToSortBy)}
		}
	}
	return nil
}

// ReadDatabaseConfig loads and validates a database config YAML file.
func ReadDatabaseConfig(path string) (*DatabaseConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: "reading database config", Cause: err}
	}
	var cfg DatabaseConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parsing database config %s", path), Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PreprocessingConfig locates the build inputs and outputs.
type PreprocessingConfig struct {
	InputDirectory       string `yaml:"inputDirectory"`
	OutputDirectory      string `yaml:"outputDirectory"`
	MetadataFilename     string `yaml:"metadataFilename"`
	ReferenceGenomesFile string `yaml:"referenceGenomesFilename"`
	PangoAliasFile       string `yaml:"pangoLineageDefinitionFilename,omitempty"`
	SequencePrefix       string `yaml:"nucleotideSequencePrefix,omitempty"`
	GenePrefix           string `yaml:"genePrefix,omitempty"`
}

// ReadPreprocessingConfig loads a preprocessing config YAML file.
func ReadPreprocessingConfig(path string) (*PreprocessingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: "reading preprocessing config", Cause: err}
	}
	var cfg PreprocessingConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parsing preprocessing config %s", path), Cause: err}
	}
	if cfg.InputDirectory == "" || cfg.OutputDirectory == "" {
		return nil, &ConfigError{Msg: "preprocessing config: inputDirectory and outputDirectory are required"}
	}
	if cfg.MetadataFilename == "" {
		return nil, &ConfigError{Msg: "preprocessing config: metadataFilename is required"}
	}
	if cfg.ReferenceGenomesFile == "" {
		return nil, &ConfigError{Msg: "preprocessing config: referenceGenomesFilename is required"}
	}
	return &cfg, nil
}

// ConfigError is fatal at startup: the schema is inconsistent or a required
// file is missing.
type ConfigError struct {
	Msg   string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }
