package doctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/core/config"
	"github.com/f9-o/speedbuild/internal/core/logger"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

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

// fakeInterpreter answers --version and exits 0 for everything else.
func fakeInterpreter(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "python")
	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo \"Python 3.12.1\"; fi\nexit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newChecker(t *testing.T) (*Checker, string) {
	t.Helper()
	requirePOSIX(t)

	work := t.TempDir()
	chdir(t, work)

	cfg := &config.Config{
		Project: v1.ProjectSpec{
			Entry:        "wifi_speed.py",
			Requirements: "requirements.txt",
			Venv:         "venv",
			Dist:         "dist",
			Python:       fakeInterpreter(t),
		},
	}
	log, err := logger.Init("error", "text", "", "", false)
	require.NoError(t, err)

	return NewChecker(cfg, log), work
}

func findCheck(t *testing.T, r *Report, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %+v", name, r.Checks)
	return Check{}
}

func TestRunHealthyProject(t *testing.T) {
	c, work := newChecker(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "wifi_speed.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(work, "requirements.txt"), []byte("requests\n"), 0o644))

	r := c.Run(context.Background(), Options{SkipNetwork: true, SkipCI: true})

	assert.True(t, r.Healthy())
	assert.Empty(t, r.Failures())
	assert.Contains(t, findCheck(t, r, "base interpreter").Detail, "Python 3.12.1")
	assert.Equal(t, SeverityOK, findCheck(t, r, "pip module").Severity)
	assert.Equal(t, SeverityOK, findCheck(t, r, "entry point").Severity)
	assert.Equal(t, "absent; created on first build", findCheck(t, r, "virtual environment").Detail)
}

func TestRunMissingEntryPointFails(t *testing.T) {
	c, work := newChecker(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "requirements.txt"), []byte(""), 0o644))

	r := c.Run(context.Background(), Options{SkipNetwork: true, SkipCI: true})

	assert.False(t, r.Healthy())
	require.Len(t, r.Failures(), 1)
	assert.Equal(t, "entry point", r.Failures()[0].Name)
	assert.Contains(t, r.Failures()[0].Advice, "project.entry")
}

func TestRunMissingManifestWarnsOnly(t *testing.T) {
	c, work := newChecker(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "wifi_speed.py"), []byte(""), 0o644))

	r := c.Run(context.Background(), Options{SkipNetwork: true, SkipCI: true})

	assert.True(t, r.Healthy())
	warn := findCheck(t, r, "requirements manifest")
	assert.Equal(t, SeverityWarn, warn.Severity)
}

func TestRunDistCollisionFails(t *testing.T) {
	c, work := newChecker(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "wifi_speed.py"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(work, "requirements.txt"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(work, "dist"), []byte("in the way"), 0o644))

	r := c.Run(context.Background(), Options{SkipNetwork: true, SkipCI: true})

	assert.False(t, r.Healthy())
	assert.Equal(t, SeverityFail, findCheck(t, r, "dist directory").Severity)
}

func TestReportSeverityFilters(t *testing.T) {
	r := &Report{}
	r.ok("a", "fine")
	r.warn("b", "meh", "look at b")
	r.fail("c", "broken", "fix c")
	r.warn("d", "meh too", "look at d")

	assert.Len(t, r.Warnings(), 2)
	assert.Len(t, r.Failures(), 1)
	assert.False(t, r.Healthy())
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP probe
// ─────────────────────────────────────────────────────────────────────────────

func TestCheckHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
		case "/loop":
			http.Redirect(w, r, "/loop", http.StatusFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	assert.NoError(t, CheckHTTP(ctx, srv.URL+"/ok", 0, time.Second))
	assert.NoError(t, CheckHTTP(ctx, srv.URL+"/teapot", http.StatusTeapot, time.Second))

	err := CheckHTTP(ctx, srv.URL+"/boom", 0, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-2xx")

	err = CheckHTTP(ctx, srv.URL+"/teapot", http.StatusOK, time.Second)
	require.Error(t, err)

	err = CheckHTTP(ctx, srv.URL+"/loop", 0, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many redirects")
}

func TestCheckHTTPRequiresURL(t *testing.T) {
	assert.Error(t, CheckHTTP(context.Background(), "", 0, time.Second))
}
