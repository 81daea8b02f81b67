package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("exit status 1")

	tests := []struct {
		name string
		err  *BuildError
		want string
	}{
		{
			name: "without resource",
			err:  New(ErrVenvCreate, "build.venv.create", cause),
			want: "[ERR-VENV-001] build.venv.create: exit status 1",
		},
		{
			name: "with resource",
			err:  New(ErrPipInstall, "build.install.extra", cause).WithResource("pyinstaller"),
			want: "[ERR-PIP-001] build.install.extra (pyinstaller): exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUserMessage(t *testing.T) {
	err := Newf(ErrPythonNotFound, "python.discover", "no interpreter on PATH").
		WithAdvice("install Python 3 or set project.python in speedbuild.yaml")

	msg := err.UserMessage()
	assert.Contains(t, msg, "ERR-PY-001")
	assert.Contains(t, msg, "python.discover")
	assert.Contains(t, msg, "→ install Python 3")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrPackagerRun, "build.package"))
}

func TestCodeMatchingThroughWrapping(t *testing.T) {
	inner := New(ErrPackagerMissing, "packager.locate", errors.New("no such file"))
	outer := fmt.Errorf("step 5: %w", inner)

	assert.True(t, IsCode(outer, ErrPackagerMissing))
	assert.False(t, IsCode(outer, ErrPipInstall))

	be := AsBuild(outer)
	require.NotNil(t, be)
	assert.Equal(t, ErrPackagerMissing, be.Code)
	assert.Nil(t, AsBuild(errors.New("plain")))
}

func TestUnwrapChain(t *testing.T) {
	root := errors.New("connection refused")
	err := Wrap(root, ErrCIRuns, "ci.status")
	assert.True(t, errors.Is(err, root))
}
