// Package python: base interpreter discovery.
package python

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/f9-o/speedbuild/pkg/errs"
)

// versionRegex extracts the release number from `python --version` output.
var versionRegex = regexp.MustCompile(`Python (\d+\.\d+(?:\.\d+)?)`)

// candidates returns interpreter names to probe, in preference order.
// Windows ships the `py` launcher; everywhere else python3 comes first.
func candidates() []string {
	if runtime.GOOS == "windows" {
		return []string{"py", "python3", "python"}
	}
	return []string{"python3", "python"}
}

// Discover locates a usable base interpreter. An explicit override is
// verified and returned as-is; otherwise the well-known names are probed
// on PATH in order.
func Discover(ctx context.Context, r *Runner, override string) (string, error) {
	if override != "" {
		if _, err := Version(ctx, r, override); err != nil {
			return "", errs.Wrap(err, errs.ErrPythonNotFound, "python.discover").
				WithResource(override).
				WithAdvice("check the project.python path in speedbuild.yaml")
		}
		return override, nil
	}

	for _, name := range candidates() {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		if _, err := Version(ctx, r, path); err != nil {
			continue
		}
		return path, nil
	}

	return "", errs.Newf(errs.ErrPythonNotFound, "python.discover",
		"no python interpreter found on PATH (tried %s)", strings.Join(candidates(), ", ")).
		WithAdvice("install Python 3 or set project.python in speedbuild.yaml")
}

// Version runs `<python> --version` and returns the release number, e.g. "3.12.1".
func Version(ctx context.Context, r *Runner, python string) (string, error) {
	res, err := r.Run(ctx, python, "--version")
	if err != nil {
		return "", errs.Wrap(err, errs.ErrPythonExec, "python.version").WithResource(python)
	}

	// Python 2 printed the version to stderr; check both streams.
	if m := versionRegex.FindStringSubmatch(res.Combined()); m != nil {
		return m[1], nil
	}
	return "", errs.Newf(errs.ErrPythonVersion, "python.version",
		"unrecognised version output from %s: %q", python, strings.TrimSpace(res.Combined()))
}
