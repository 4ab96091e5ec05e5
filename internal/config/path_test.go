package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDataDir(t *testing.T) {
	home := filepath.Join("home", "ops")
	okHome := func() (string, error) { return home, nil }
	noHome := func() (string, error) { return "", errors.New("no home") }

	cases := []struct {
		name     string
		explicit string
		goos     string
		env      map[string]string
		home     func() (string, error)
		want     string
	}{
		{"explicit wins", "/srv/ids", "linux", map[string]string{DataDirEnv: "/env"}, okHome, "/srv/ids"},
		{"env override", "", "linux", map[string]string{DataDirEnv: "/env", "XDG_DATA_HOME": "/xdg"}, okHome, "/env"},
		{"xdg", "", "linux", map[string]string{"XDG_DATA_HOME": "/xdg"}, okHome, filepath.Join("/xdg", "bigid")},
		{"linux home", "", "linux", nil, okHome, filepath.Join(home, ".local", "share", "bigid")},
		{"darwin ignores xdg", "", "darwin", map[string]string{"XDG_DATA_HOME": "/xdg"}, okHome, filepath.Join(home, "Library", "Application Support", "bigid")},
		{"windows local app data", "", "windows", map[string]string{"LOCALAPPDATA": "/lad"}, okHome, filepath.Join("/lad", "bigid")},
		{"windows home", "", "windows", nil, okHome, filepath.Join(home, "AppData", "Local", "bigid")},
		{"no home", "", "linux", nil, noHome, "./data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			getenv := func(k string) string { return tc.env[k] }
			require.Equal(t, tc.want, resolveDataDir(tc.explicit, tc.goos, getenv, tc.home))
		})
	}
}

func TestResolveDataDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)
	require.Equal(t, dir, ResolveDataDir(""))
	require.Equal(t, filepath.Join(dir, "store"), StoreDir(ResolveDataDir("")))
}
