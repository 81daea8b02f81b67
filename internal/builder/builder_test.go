package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/core/config"
	"github.com/f9-o/speedbuild/internal/core/logger"
	"github.com/f9-o/speedbuild/internal/core/state"
	"github.com/f9-o/speedbuild/internal/packager"
	"github.com/f9-o/speedbuild/internal/python"
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

// fakeToolchain writes a shell stand-in for the Python interpreter. Its venv
// module materialises a working layout whose pip fails manifest installs with
// pipExit, while unconditional extras always succeed.
func fakeToolchain(t *testing.T, pipExit int) string {
	t.Helper()
	dir := t.TempDir()

	pip := filepath.Join(dir, "pip.tmpl")
	pipScript := fmt.Sprintf("#!/bin/sh\nif [ \"$1\" = install ] && [ \"$2\" = -r ]; then\n  echo \"manifest install failed\" >&2\n  exit %d\nfi\nexit 0\n", pipExit)
	require.NoError(t, os.WriteFile(pip, []byte(pipScript), 0o755))

	packer := filepath.Join(dir, "pyinstaller.tmpl")
	require.NoError(t, os.WriteFile(packer, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	py := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Python 3.12.1"
  exit 0
fi
if [ "$1" = "-m" ] && [ "$2" = "venv" ]; then
  mkdir -p "$3/bin"
  cp "$0" "$3/bin/python"
  cp %q "$3/bin/pip"
  cp %q "$3/bin/pyinstaller"
  exit 0
fi
exit 0
`, pip, packer)

	interp := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(interp, []byte(py), 0o755))
	return interp
}

type recordingReporter struct {
	planned   int
	announced int
	completed []string
	failures  []bool
	paused    int
}

func (r *recordingReporter) PlanOnly(steps []Step) { r.planned = len(steps) }

func (r *recordingReporter) Planned(steps []Step) { r.announced = len(steps) }

func (r *recordingReporter) StepStarted(int, int, Step) {}

func (r *recordingReporter) StepFinished(int, int, Step, v1.StepResult) {}

func (r *recordingReporter) Completed(msg string, failed bool) {
	r.completed = append(r.completed, msg)
	r.failures = append(r.failures, failed)
}

func (r *recordingReporter) Pause() { r.paused++ }

func newTestBuilder(t *testing.T, pipExit int) (*Builder, *recordingReporter, *state.DB) {
	t.Helper()
	requirePOSIX(t)

	work := t.TempDir()
	t.Setenv("HOME", work)
	chdir(t, work)

	cfg := &config.Config{
		Project: v1.ProjectSpec{
			Entry:        "wifi_speed.py",
			Requirements: "requirements.txt",
			Venv:         "venv",
			Dist:         "dist",
			Python:       fakeToolchain(t, pipExit),
			Target:       "windows",
		},
		Build: config.BuildConfig{StepTimeout: time.Minute},
	}

	log, err := logger.Init("error", "text", "", "", false)
	require.NoError(t, err)

	db, err := state.Open(filepath.Join(work, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rep := &recordingReporter{}
	return New(cfg, log, db, rep), rep, db
}

func statuses(steps []v1.StepResult) []v1.StepStatus {
	out := make([]v1.StepStatus, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Status)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Plan composition
// ─────────────────────────────────────────────────────────────────────────────

func TestPlanFullProfile(t *testing.T) {
	prof, err := packager.Lookup(v1.ProfileFull)
	require.NoError(t, err)
	env := python.NewEnv("venv")

	steps := plan(prof, env, "python3", "wifi_speed.py", "requirements.txt")

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{
		"create venv",
		"activate environment",
		"install requirements",
		"install speedtest-cli",
		"install pyinstaller",
		"package executable",
		"report artifact",
		"pause",
	}, names)

	assert.Equal(t, []string{"python3", "-m", "venv", env.Root}, steps[0].Argv)
	assert.Equal(t, []string{env.Pip, "install", "-r", "requirements.txt"}, steps[2].Argv)
	assert.Equal(t, []string{env.Pip, "install", "speedtest-cli"}, steps[3].Argv)
	assert.Equal(t, []string{
		env.PyInstaller,
		"--onefile", "--windowed",
		"--hidden-import=speedtest",
		"--collect-submodules", "speedtest",
		"wifi_speed.py",
	}, steps[5].Argv)
}

func TestPlanLiteProfile(t *testing.T) {
	prof, err := packager.Lookup(v1.ProfileLite)
	require.NoError(t, err)
	env := python.NewEnv("venv")

	steps := plan(prof, env, "python3", "wifi_speed.py", "requirements.txt")

	require.Len(t, steps, 7)
	assert.Equal(t, "install pyinstaller", steps[3].Name)
	assert.Equal(t, []string{
		env.PyInstaller,
		"--onefile", "--windowed",
		"wifi_speed.py",
	}, steps[4].Argv)
}

// ─────────────────────────────────────────────────────────────────────────────
// Run
// ─────────────────────────────────────────────────────────────────────────────

func TestRunSuccess(t *testing.T) {
	b, rep, db := newTestBuilder(t, 0)

	// Pre-create the artifact so the size probe has something to find.
	require.NoError(t, os.MkdirAll("dist", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("dist", "wifi_speed.exe"), []byte("MZ fake"), 0o644))

	rec, err := b.Run(context.Background(), Options{Profile: v1.ProfileFull})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, v1.ResultSuccess, rec.Result)
	assert.False(t, rec.Failed())
	assert.Equal(t, []v1.StepStatus{
		v1.StepOK, v1.StepOK, v1.StepOK, v1.StepOK,
		v1.StepOK, v1.StepOK, v1.StepOK, v1.StepSkipped, // pause not requested
	}, statuses(rec.Steps))

	assert.Equal(t, `dist\wifi_speed.exe`, rec.Artifact)
	assert.Equal(t, int64(7), rec.ArtifactBytes)
	assert.Equal(t, 8, rep.announced)

	require.Equal(t, []string{`Done. See dist\wifi_speed.exe`}, rep.completed)
	assert.Equal(t, []bool{false}, rep.failures)
	assert.Zero(t, rep.paused)

	// Per-build log captured command lines and the completion message.
	require.NotEmpty(t, rec.LogFile)
	data, err := os.ReadFile(rec.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-m venv venv")
	assert.Contains(t, string(data), `Done. See dist\wifi_speed.exe`)

	// History record persisted.
	stored, err := db.GetBuild(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, v1.ResultSuccess, stored.Result)
}

func TestRunContinuesPastFailure(t *testing.T) {
	b, rep, _ := newTestBuilder(t, 1)

	rec, err := b.Run(context.Background(), Options{Profile: v1.ProfileFull})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, v1.ResultCompleted, rec.Result)
	assert.True(t, rec.Failed())
	assert.Equal(t, []v1.StepStatus{
		v1.StepOK, v1.StepOK, v1.StepFailed, v1.StepOK,
		v1.StepOK, v1.StepOK, v1.StepOK, v1.StepSkipped,
	}, statuses(rec.Steps))

	failed := rec.Steps[2]
	assert.Equal(t, "install requirements", failed.Name)
	assert.Equal(t, 1, failed.ExitCode)
	assert.Contains(t, failed.Error, "manifest install failed")

	// The completion line still names the artifact, failure or not.
	require.Equal(t, []string{`Done. See dist\wifi_speed.exe`}, rep.completed)
	assert.Equal(t, []bool{true}, rep.failures)
}

func TestRunStrictStopsAtFirstFailure(t *testing.T) {
	b, rep, _ := newTestBuilder(t, 1)

	rec, err := b.Run(context.Background(), Options{Profile: v1.ProfileFull, Strict: true})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, v1.ResultFailed, rec.Result)
	assert.Equal(t, []v1.StepStatus{
		v1.StepOK, v1.StepOK, v1.StepFailed, v1.StepSkipped,
		v1.StepSkipped, v1.StepSkipped, v1.StepSkipped, v1.StepSkipped,
	}, statuses(rec.Steps))

	// No artifact claim on an aborted run.
	require.Equal(t, []string{""}, rep.completed)
	assert.Equal(t, []bool{true}, rep.failures)
}

func TestRunPauseHonored(t *testing.T) {
	b, rep, _ := newTestBuilder(t, 0)

	rec, err := b.Run(context.Background(), Options{Profile: v1.ProfileLite, Pause: true})
	require.NoError(t, err)

	assert.Equal(t, 1, rep.paused)
	last := rec.Steps[len(rec.Steps)-1]
	assert.Equal(t, "pause", last.Name)
	assert.Equal(t, v1.StepOK, last.Status)
}

func TestRunStrictFailureStillPauses(t *testing.T) {
	b, rep, _ := newTestBuilder(t, 1)

	_, err := b.Run(context.Background(), Options{Profile: v1.ProfileLite, Strict: true, Pause: true})
	require.NoError(t, err)

	// The console window stays readable even when the run aborts early.
	assert.Equal(t, 1, rep.paused)
}

func TestRunDryRun(t *testing.T) {
	b, rep, db := newTestBuilder(t, 0)

	rec, err := b.Run(context.Background(), Options{Profile: v1.ProfileFull, DryRun: true})
	require.NoError(t, err)
	assert.Nil(t, rec)

	assert.Equal(t, 8, rep.planned)
	assert.Zero(t, rep.announced)

	// Nothing executed, nothing recorded.
	assert.NoDirExists(t, "venv")
	recs, err := db.ListBuilds(0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRunUnknownProfile(t *testing.T) {
	b, _, _ := newTestBuilder(t, 0)

	_, err := b.Run(context.Background(), Options{Profile: v1.Profile("turbo")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}

func TestBuildIDsSortChronologically(t *testing.T) {
	a := newBuildID(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	b := newBuildID(time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC))
	assert.True(t, strings.HasPrefix(a, "20240501-100000-"))
	assert.Less(t, a, b)
}
