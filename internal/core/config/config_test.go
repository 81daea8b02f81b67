package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is testing.T.Chdir for toolchains predating Go 1.24: enter dir, set
// PWD, restore the previous working directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("chdir cleanup: " + err.Error())
		}
	})
}

// isolate points HOME and the CWD at empty temp dirs so no real config leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	chdir(t, dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "wifi_speed.py", cfg.Project.Entry)
	assert.Equal(t, "requirements.txt", cfg.Project.Requirements)
	assert.Equal(t, "venv", cfg.Project.Venv)
	assert.Equal(t, "dist", cfg.Project.Dist)
	assert.Equal(t, "full", cfg.Build.Profile)
	assert.False(t, cfg.Build.Strict)
	assert.Equal(t, "auto", cfg.Build.Pause)
	assert.Equal(t, 15*time.Minute, cfg.Build.StepTimeout)
	assert.Equal(t, "build.yml", cfg.CI.Workflow)
	assert.Equal(t, "wifi_speed", cfg.CI.Artifact)
	assert.Equal(t, "origin", cfg.CI.Remote)
}

func TestLoadProjectFile(t *testing.T) {
	dir := isolate(t)

	yaml := []byte(`
project:
  name: custom-app
  entry: app.py
build:
  profile: lite
  strict: true
  pause: never
`)
	path := filepath.Join(dir, "speedbuild.yaml")
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-app", cfg.Project.Name)
	assert.Equal(t, "app.py", cfg.Project.Entry)
	assert.Equal(t, "lite", cfg.Build.Profile)
	assert.True(t, cfg.Build.Strict)
	assert.Equal(t, "never", cfg.Build.Pause)
	// Unset keys still fall back to defaults.
	assert.Equal(t, "requirements.txt", cfg.Project.Requirements)
}

func TestLoadDiscoversFromParentDir(t *testing.T) {
	dir := isolate(t)

	yaml := []byte("build:\n  profile: lite\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "speedbuild.yaml"), yaml, 0o644))

	sub := filepath.Join(dir, "src", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdir(t, sub)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "lite", cfg.Build.Profile)
}

func TestEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("SPEEDBUILD_BUILD_PROFILE", "lite")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "lite", cfg.Build.Profile)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad profile",
			yaml:    "build:\n  profile: turbo\n",
			wantErr: "build.profile",
		},
		{
			name:    "bad pause mode",
			yaml:    "build:\n  pause: sometimes\n",
			wantErr: "build.pause",
		},
		{
			name:    "empty entry",
			yaml:    "project:\n  entry: \"\"\n",
			wantErr: "project.entry",
		},
		{
			name:    "bad artifact name",
			yaml:    "ci:\n  artifact: \"no spaces allowed\"\n",
			wantErr: "ci.artifact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "speedbuild.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDisplayName(t *testing.T) {
	cfg := &Config{}
	cfg.Project.Entry = "wifi_speed.py"
	assert.Equal(t, "wifi_speed", cfg.DisplayName())

	cfg.Project.Name = "Wi-Fi Speed Reader"
	assert.Equal(t, "Wi-Fi Speed Reader", cfg.DisplayName())
}

func TestIsSensitiveKey(t *testing.T) {
	assert.True(t, IsSensitiveKey("github_token"))
	assert.True(t, IsSensitiveKey("API_SECRET"))
	assert.False(t, IsSensitiveKey("project.entry"))
}
