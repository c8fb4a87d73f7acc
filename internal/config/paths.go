package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved application directories. This is the single
// source of truth for file locations; builders join names onto these.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// NewPaths resolves the configured directories against base. Absolute
// entries stay as given.
func NewPaths(base string, cfg PathsConfig) *Paths {
	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}
	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(cfg.DataDir),
		ReportsDir: resolve(cfg.ReportsDir),
		LogsDir:    resolve(cfg.LogsDir),
	}
}

// ResolvePaths anchors the configured directories at the executable's
// directory, so output lands next to the binary rather than whatever the
// working directory happens to be.
func (c *Config) ResolvePaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return NewPaths(filepath.Dir(exe), c.Paths), nil
}

// EnsureDirectories creates the data, reports and logs directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReportPath returns the full path for a report file name.
func (p *Paths) ReportPath(name string) string {
	return filepath.Join(p.ReportsDir, name)
}

// LogPath returns the full path for a log file name.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
