package config

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

// DataDirEnv overrides the platform data directory.
const DataDirEnv = "BIGID_DATA_DIR"

// ResolveDataDir returns explicit when set, then $BIGID_DATA_DIR, then the
// per-user data directory of the host OS.
func ResolveDataDir(explicit string) string {
	return resolveDataDir(explicit, goruntime.GOOS, os.Getenv, os.UserHomeDir)
}

// StoreDir is the pebble directory inside a data directory.
func StoreDir(dataDir string) string {
	return filepath.Join(dataDir, "store")
}

func resolveDataDir(explicit, goos string, getenv func(string) string, home func() (string, error)) string {
	if explicit != "" {
		return explicit
	}
	if v := getenv(DataDirEnv); v != "" {
		return v
	}
	switch goos {
	case "windows":
		if v := getenv("LOCALAPPDATA"); v != "" {
			return filepath.Join(v, "bigid")
		}
	case "darwin":
	default:
		if v := getenv("XDG_DATA_HOME"); v != "" {
			return filepath.Join(v, "bigid")
		}
	}
	h, err := home()
	if err != nil || h == "" {
		return "./data"
	}
	switch goos {
	case "darwin":
		return filepath.Join(h, "Library", "Application Support", "bigid")
	case "windows":
		return filepath.Join(h, "AppData", "Local", "bigid")
	default:
		return filepath.Join(h, ".local", "share", "bigid")
	}
}
