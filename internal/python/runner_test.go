package python

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requirePOSIX(t)
	r := NewRunner("", 0)

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"sh", "-c", "echo out; echo err >&2"}, res.Argv)
	assert.Equal(t, "out\n\nerr\n", res.Combined())
}

func TestRunFailureKeepsOutput(t *testing.T) {
	requirePOSIX(t)
	r := NewRunner("", 0)

	res, err := r.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "boom\n", res.Stderr)

	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Error(), "boom")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner("", 0)

	res, err := r.Run(context.Background(), "speedbuild-no-such-binary")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)

	var ce *CommandError
	assert.True(t, errors.As(err, &ce))
}

func TestRunTimeout(t *testing.T) {
	requirePOSIX(t)
	r := NewRunner("", 50*time.Millisecond)

	_, err := r.Run(context.Background(), "sh", "-c", "sleep 2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWithEnv(t *testing.T) {
	requirePOSIX(t)
	r := NewRunner("", 0).WithEnv([]string{"SPEEDBUILD_TEST_VAR=hello"})

	res, err := r.Run(context.Background(), "sh", "-c", "printf %s \"$SPEEDBUILD_TEST_VAR\"")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Stdout)
}

func TestRunInWorkingDir(t *testing.T) {
	requirePOSIX(t)
	dir := t.TempDir()
	r := NewRunner(dir, 0)

	res, err := r.Run(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, filepath.Base(dir))
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "final", lastLine("first\nsecond\nfinal\n"))
	assert.Equal(t, "only", lastLine("only"))
	assert.Equal(t, "", lastLine("\n\n"))
}
