// Package ormconfig resolves ambient connection settings for an ormdb
// façade: a TOML config file plus a dotenv overlay layered on top, two
// layers resolved to a single connection (not a named migration
// environment), since a façade only ever talks to one database at a
// time.
package ormconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// PragmaSet is applied to a new connection immediately after open.
type PragmaSet map[string]string

// DefaultPragmas matches SQLite's recommended baseline for an
// application-managed database: WAL journaling, foreign key enforcement,
// and a busy timeout so concurrent writers block instead of failing
// immediately with SQLITE_BUSY.
func DefaultPragmas() PragmaSet {
	return PragmaSet{
		"journal_mode": "WAL",
		"foreign_keys": "ON",
		"busy_timeout": "5000",
	}
}

// FileConfig is the ormlite.toml document shape.
type FileConfig struct {
	DatabasePath string            `toml:"database_path"`
	Pragmas      map[string]string `toml:"pragmas"`
	LogLevel     string            `toml:"log_level"`
}

// Resolved is the fully-resolved connection configuration, after
// layering environment variables and a .env file on top of ormlite.toml.
type Resolved struct {
	DatabasePath string
	Pragmas      PragmaSet
	LogLevel     string
	FromFile     bool
	FromDotenv   bool
}

// Load reads ormlite.toml (searching upward from the working directory
// for the project boundary), overlays a .env file and OS environment
// variables, and returns the
// resolved connection settings. Every field has a usable default, so
// Load never fails solely because no config file exists.
func Load() (*Resolved, error) {
	resolved := &Resolved{Pragmas: DefaultPragmas()}

	path, err := findConfigFile()
	if err == nil {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("ormconfig: reading %s: %w", path, readErr)
		}
		var fc FileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("ormconfig: parsing %s: %w", path, err)
		}
		resolved.FromFile = true
		resolved.DatabasePath = fc.DatabasePath
		resolved.LogLevel = fc.LogLevel
		for k, v := range fc.Pragmas {
			resolved.Pragmas[k] = v
		}
	}

	if dotenvPath := ".env"; fileExists(dotenvPath) {
		values, err := godotenv.Read(dotenvPath)
		if err != nil {
			return nil, fmt.Errorf("ormconfig: reading %s: %w", dotenvPath, err)
		}
		resolved.FromDotenv = true
		if v := values["ORMLITE_DATABASE_PATH"]; v != "" {
			resolved.DatabasePath = v
		}
		if v := values["ORMLITE_LOG_LEVEL"]; v != "" {
			resolved.LogLevel = v
		}
	}

	if v := os.Getenv("ORMLITE_DATABASE_PATH"); v != "" {
		resolved.DatabasePath = v
	}
	if v := os.Getenv("ORMLITE_LOG_LEVEL"); v != "" {
		resolved.LogLevel = v
	}

	if resolved.DatabasePath == "" {
		resolved.DatabasePath = ":memory:"
	}
	if resolved.LogLevel == "" {
		resolved.LogLevel = "info"
	}

	return resolved, nil
}

// ResolveEnvironment layers .env.<name> on top of Load's result, the
// same per-environment dotenv convention applied to named migration
// environments, adapted here to a single connection's settings instead
// of a named migration target.
func ResolveEnvironment(name string) (*Resolved, error) {
	resolved, err := Load()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return resolved, nil
	}
	envPath := ".env." + name
	if !fileExists(envPath) {
		return resolved, nil
	}
	values, err := godotenv.Read(envPath)
	if err != nil {
		return nil, fmt.Errorf("ormconfig: reading %s: %w", envPath, err)
	}
	resolved.FromDotenv = true
	if v := values["ORMLITE_DATABASE_PATH"]; v != "" {
		resolved.DatabasePath = v
	}
	if v := values["ORMLITE_LOG_LEVEL"]; v != "" {
		resolved.LogLevel = v
	}
	return resolved, nil
}

func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "ormlite.toml")
		if fileExists(candidate) {
			return candidate, nil
		}
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("ormconfig: ormlite.toml not found")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// PragmaStatements renders the pragma set as executable SQL, in a
// deterministic (sorted) order so connection setup is reproducible.
func (p PragmaSet) PragmaStatements() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("PRAGMA %s = %s", k, p[k]))
	}
	return out
}
