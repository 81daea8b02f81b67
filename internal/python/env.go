// Package python: the isolated environment descriptor.
package python

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/f9-o/speedbuild/pkg/errs"
)

// Env describes an isolated package environment rooted at a venv directory.
// It replaces shell-level "activation": instead of mutating the calling
// shell, every tool path and environment override is carried explicitly and
// threaded through the steps that need it.
type Env struct {
	Root        string // venv directory
	Python      string // interpreter inside the venv
	Pip         string // pip inside the venv
	PyInstaller string // packager inside the venv

	binDir string
}

// NewEnv builds the descriptor for a venv at dir on the current platform.
func NewEnv(dir string) *Env {
	return newEnvFor(runtime.GOOS, dir)
}

// newEnvFor computes the venv layout for the given platform. Windows venvs
// place executables under Scripts\; POSIX venvs use bin/.
func newEnvFor(goos, dir string) *Env {
	var bin string
	ext := ""
	if goos == "windows" {
		bin = filepath.Join(dir, "Scripts")
		ext = ".exe"
	} else {
		bin = filepath.Join(dir, "bin")
	}
	return &Env{
		Root:        dir,
		Python:      filepath.Join(bin, "python"+ext),
		Pip:         filepath.Join(bin, "pip"+ext),
		PyInstaller: filepath.Join(bin, "pyinstaller"+ext),
		binDir:      bin,
	}
}

// Exists reports whether the venv interpreter is present on disk.
func (e *Env) Exists() bool {
	_, err := os.Stat(e.Python)
	return err == nil
}

// Environ returns the process environment for commands running inside the
// venv: VIRTUAL_ENV set, the venv bin dir prepended to PATH, PYTHONHOME
// cleared. Suitable for Runner.WithEnv.
func (e *Env) Environ() []string {
	path := e.binDir
	if old, ok := os.LookupEnv("PATH"); ok {
		path += string(os.PathListSeparator) + old
	}
	return []string{
		"VIRTUAL_ENV=" + e.Root,
		"PATH=" + path,
		"PYTHONHOME=",
	}
}

// Verify checks that the venv interpreter runs and reports a version.
func (e *Env) Verify(ctx context.Context, r *Runner) error {
	if !e.Exists() {
		return errs.Newf(errs.ErrVenvMissing, "venv.verify",
			"no interpreter at %s", e.Python).
			WithResource(e.Root).
			WithAdvice("run `speedbuild build` to create the environment")
	}
	if _, err := Version(ctx, r, e.Python); err != nil {
		return errs.Wrap(err, errs.ErrVenvBroken, "venv.verify").
			WithResource(e.Root).
			WithAdvice("remove the venv directory and rebuild")
	}
	return nil
}

// Create provisions the venv with `<python> -m venv <dir>` using the base
// interpreter. Creating over an existing venv is a cheap no-op upgrade.
func Create(ctx context.Context, r *Runner, basePython, dir string) error {
	if _, err := r.Run(ctx, basePython, "-m", "venv", dir); err != nil {
		return errs.Wrap(err, errs.ErrVenvCreate, "venv.create").
			WithResource(dir).
			WithAdvice("check that the base interpreter ships the venv module")
	}
	return nil
}
