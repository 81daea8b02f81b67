package python

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f9-o/speedbuild/pkg/errs"
)

// fakeInterpreter writes an executable script that prints output on --version.
func fakeInterpreter(t *testing.T, output string) string {
	t.Helper()
	requirePOSIX(t)

	path := filepath.Join(t.TempDir(), "python3")
	script := "#!/bin/sh\necho \"" + output + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestVersion(t *testing.T) {
	py := fakeInterpreter(t, "Python 3.12.1")

	ver, err := Version(context.Background(), NewRunner("", 0), py)
	require.NoError(t, err)
	assert.Equal(t, "3.12.1", ver)
}

func TestVersionUnrecognised(t *testing.T) {
	py := fakeInterpreter(t, "definitely not a python")

	_, err := Version(context.Background(), NewRunner("", 0), py)
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrPythonVersion))
}

func TestDiscoverOverride(t *testing.T) {
	py := fakeInterpreter(t, "Python 3.11.9")

	got, err := Discover(context.Background(), NewRunner("", 0), py)
	require.NoError(t, err)
	assert.Equal(t, py, got)
}

func TestDiscoverOverrideBroken(t *testing.T) {
	_, err := Discover(context.Background(), NewRunner("", 0), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrPythonNotFound))
}
