// Package paths provides centralized path resolution for goscribe.
// This package has NO internal imports (only stdlib) to avoid import cycles.
// All functions return errors to allow callers to log appropriately.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigNames are the config file names searched, in order.
var ConfigNames = []string{"goscribe.json", "goscribe.yaml", "goscribe.yml", "goscribe.toml"}

// BaseDir returns the goscribe base directory (~/.goscribe).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".goscribe"), nil
}

// DataPath returns a path within the goscribe data directory (~/.goscribe/<subpath>).
func DataPath(subpath string) (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, subpath), nil
}

// ConfigPath returns the active config path.
// Priority: ./goscribe.{json,yaml,yml,toml} > ~/.goscribe/goscribe.{...}
// Returns ("", nil) if no config exists - this is a valid state, not an error.
func ConfigPath() (string, error) {
	for _, name := range ConfigNames {
		if _, err := os.Stat(name); err == nil {
			absPath, err := filepath.Abs(name)
			if err != nil {
				return "", fmt.Errorf("failed to get absolute path: %w", err)
			}
			return absPath, nil
		}
	}

	for _, name := range ConfigNames {
		globalPath, err := DataPath(name)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(globalPath); err == nil {
			return globalPath, nil
		}
	}

	return "", nil
}

// DefaultConfigPath returns the default location for new configs (~/.goscribe/goscribe.json).
func DefaultConfigPath() (string, error) {
	return DataPath(ConfigNames[0])
}

// EnsureDir creates a directory if it doesn't exist.
// Uses 0750 permissions (owner: rwx, group: rx, other: none).
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// ExpandTilde expands a path that starts with ~ to the user's home directory.
// Returns the path unchanged if it doesn't start with ~.
func ExpandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if len(path) == 1 {
		return home, nil
	}
	return filepath.Join(home, path[1:]), nil
}

// ResolveInput returns the absolute path of an input file.
// Relative names are resolved against the current working directory.
func ResolveInput(name string) (string, error) {
	expanded, err := ExpandTilde(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, expanded), nil
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ChunkDir returns the per-input chunk directory: <outputDir>/audio_chunks_<stem>.
func ChunkDir(outputDir, stem string) string {
	return filepath.Join(outputDir, "audio_chunks_"+stem)
}

// ChunkName returns the file name for the 1-based chunk index.
func ChunkName(index int) string {
	return fmt.Sprintf("chunk%d.wav", index)
}

// TranscriptName returns <stem>-<minSilenceMs>silence-<marginDB>db.txt.
func TranscriptName(stem string, minSilenceMs, marginDB int) string {
	return fmt.Sprintf("%s-%dsilence-%ddb.txt", stem, minSilenceMs, marginDB)
}
