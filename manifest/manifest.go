// Package manifest handles lox.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "lox.toml"

// Manifest represents a lox.toml configuration.
type Manifest struct {
	Debug  Debug  `toml:"debug"`
	Repl   Repl   `toml:"repl"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`
	Server Server `toml:"server"`

	// Dir is the directory containing the lox.toml file (set at load time).
	// It is empty for the default manifest.
	Dir string `toml:"-"`
}

// Debug switches the compiler and VM diagnostics.
type Debug struct {
	PrintCode      bool `toml:"print-code"`
	TraceExecution bool `toml:"trace-execution"`
}

// Repl configures the interactive prompt.
type Repl struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"`
}

// Cache configures the compiled chunk cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Server configures the evaluation server.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no lox.toml exists. The
// chunk cache is off, so running a file outside a project leaves no
// .lox directory behind.
func Default() *Manifest {
	return &Manifest{
		Repl:   Repl{Prompt: "> "},
		Cache:  Cache{Path: filepath.Join(".lox", "chunks.db")},
		Server: Server{Addr: ":4567"},
	}
}

// Load parses a lox.toml file from the given directory. Keys missing from
// the file keep their default values, except that a project with a
// lox.toml caches chunks unless [cache] enabled = false.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	m.Cache.Enabled = true
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Repl.Prompt == "" {
		m.Repl.Prompt = "> "
	}
	if m.Server.Addr == "" {
		m.Server.Addr = ":4567"
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a lox.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// CachePath returns the chunk cache database path. Relative paths are
// resolved against the manifest directory, or the working directory for
// the default manifest.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Path)
}

// HistoryPath returns the REPL history file, defaulting to .lox_history in
// the user's home directory. It returns "" if no location can be found.
func (m *Manifest) HistoryPath() string {
	if m.Repl.History != "" {
		return m.resolve(m.Repl.History)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lox_history")
}

// LogFile returns the log file path, or nil to log to stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.resolve(m.Log.File)
	return &path
}

func (m *Manifest) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.Dir == "" {
		return path
	}
	return filepath.Join(m.Dir, path)
}
