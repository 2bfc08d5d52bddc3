package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "VLANISLANDS_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "vlanislands.yaml"
	// ConfigDirName is the directory under XDG and /etc
	ConfigDirName = "vlanislands"

	userConfigFile = "config.yaml"
)

// Location is one candidate config file
type Location struct {
	Source string // env, cwd, xdg, home, system
	Path   string
	User   bool // writable per-user location, used for new files
}

// Locations lists candidate config files in lookup order. Candidates whose
// base directory is unset (no $XDG_CONFIG_HOME, no $HOME) are omitted.
func Locations() []Location {
	var locs []Location
	if path := os.Getenv(EnvConfigPath); path != "" {
		locs = append(locs, Location{Source: "env", Path: path})
	}
	locs = append(locs, Location{Source: "cwd", Path: ConfigFileName})
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		locs = append(locs, Location{Source: "xdg", Path: filepath.Join(xdg, ConfigDirName, userConfigFile), User: true})
	}
	if home := os.Getenv("HOME"); home != "" {
		locs = append(locs, Location{Source: "home", Path: filepath.Join(home, ".config", ConfigDirName, userConfigFile), User: true})
	}
	locs = append(locs, Location{Source: "system", Path: filepath.Join("/etc", ConfigDirName, userConfigFile)})
	return locs
}

// FindConfigPath returns the first existing candidate from Locations,
// or "" when there is none.
func FindConfigPath() string {
	for _, loc := range Locations() {
		if !fileExists(loc.Path) {
			continue
		}
		if abs, err := filepath.Abs(loc.Path); err == nil {
			return abs
		}
		return loc.Path
	}
	return ""
}

// DefaultConfigPath is where `config init` writes: the first per-user
// location, or the working directory file when HOME is unset.
func DefaultConfigPath() string {
	for _, loc := range Locations() {
		if loc.User {
			return loc.Path
		}
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

// resolveRelative anchors a relative path from a config file at that file's directory
func resolveRelative(configPath, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
