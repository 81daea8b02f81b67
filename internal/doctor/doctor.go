// Package doctor diagnoses the local packaging environment: base interpreter,
// project files, the isolated environment, package-index reachability, and
// the hosted-workflow prerequisites. Findings are graded, never fixed.
package doctor

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/f9-o/speedbuild/internal/ci"
	"github.com/f9-o/speedbuild/internal/core/config"
	"github.com/f9-o/speedbuild/internal/core/logger"
	"github.com/f9-o/speedbuild/internal/packager"
	"github.com/f9-o/speedbuild/internal/python"
	"github.com/f9-o/speedbuild/pkg/netutil"
)

// probeTimeout caps each individual probe, not the whole pass.
const probeTimeout = 10 * time.Second

// Severity grades a diagnostic finding.
type Severity string

const (
	SeverityOK   Severity = "ok"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Check is a single diagnostic finding.
type Check struct {
	Name     string
	Severity Severity
	Detail   string
	Advice   string
}

// Report collects the findings of one doctor pass.
type Report struct {
	Checks []Check
}

func (r *Report) ok(name, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Severity: SeverityOK, Detail: detail})
}

func (r *Report) warn(name, detail, advice string) {
	r.Checks = append(r.Checks, Check{Name: name, Severity: SeverityWarn, Detail: detail, Advice: advice})
}

func (r *Report) fail(name, detail, advice string) {
	r.Checks = append(r.Checks, Check{Name: name, Severity: SeverityFail, Detail: detail, Advice: advice})
}

// Warnings returns the warn-level findings.
func (r *Report) Warnings() []Check {
	return r.filter(SeverityWarn)
}

// Failures returns the fail-level findings.
func (r *Report) Failures() []Check {
	return r.filter(SeverityFail)
}

// Healthy reports whether the pass produced no fail-level finding. Warnings
// do not affect it; a build may still succeed with warnings outstanding.
func (r *Report) Healthy() bool {
	return len(r.Failures()) == 0
}

func (r *Report) filter(sev Severity) []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Severity == sev {
			out = append(out, c)
		}
	}
	return out
}

// Options toggles check groups that need external services.
type Options struct {
	SkipNetwork bool
	SkipCI      bool
}

// Checker runs the diagnostic pass.
type Checker struct {
	cfg    *config.Config
	log    *logger.Logger
	runner *python.Runner
}

// NewChecker constructs a Checker.
func NewChecker(cfg *config.Config, log *logger.Logger) *Checker {
	return &Checker{
		cfg:    cfg,
		log:    log,
		runner: python.NewRunner("", probeTimeout),
	}
}

// Run executes the checks and returns the report. Rendering is the caller's
// concern; Run only logs findings at debug level.
func (c *Checker) Run(ctx context.Context, opts Options) *Report {
	r := &Report{}

	c.checkInterpreter(ctx, r)
	c.checkProjectFiles(r)
	c.checkVenv(ctx, r)
	if !opts.SkipNetwork {
		c.checkIndex(ctx, r)
	}
	if !opts.SkipCI {
		c.checkWorkflowClient(ctx, r)
	}

	for _, chk := range r.Checks {
		c.log.Debug("doctor.check", "name", chk.Name, "severity", chk.Severity, "detail", chk.Detail)
	}
	return r
}

func (c *Checker) checkInterpreter(ctx context.Context, r *Report) {
	path, err := python.Discover(ctx, c.runner, c.cfg.Project.Python)
	if err != nil {
		r.fail("base interpreter", err.Error(), "install Python 3 or set project.python to its location")
		return
	}
	version, err := python.Version(ctx, c.runner, path)
	if err != nil {
		r.fail("base interpreter", fmt.Sprintf("%s: %v", path, err), "the interpreter did not report a version")
		return
	}
	r.ok("base interpreter", fmt.Sprintf("Python %s at %s", version, path))

	// Some distributions strip the venv module out of the base package.
	if _, err := c.runner.Run(ctx, path, "-m", "venv", "--help"); err != nil {
		r.warn("venv module", "python -m venv is not importable", "install your distribution's python3-venv package")
	} else {
		r.ok("venv module", "importable")
	}

	if _, err := c.runner.Run(ctx, path, "-m", "pip", "--version"); err != nil {
		r.warn("pip module", "python -m pip is not importable", "run python -m ensurepip, or install your distribution's python3-pip package")
	} else {
		r.ok("pip module", "importable")
	}
}

func (c *Checker) checkProjectFiles(r *Report) {
	if _, err := os.Stat(c.cfg.Project.Entry); err != nil {
		r.fail("entry point", c.cfg.Project.Entry+" not found", "set project.entry to the script to package")
	} else {
		r.ok("entry point", c.cfg.Project.Entry)
	}

	if _, err := os.Stat(c.cfg.Project.Requirements); err != nil {
		r.warn("requirements manifest", c.cfg.Project.Requirements+" not found", "the install step will fail without it")
	} else {
		r.ok("requirements manifest", c.cfg.Project.Requirements)
	}

	if fi, err := os.Stat(c.cfg.Project.Dist); err == nil && !fi.IsDir() {
		r.fail("dist directory", c.cfg.Project.Dist+" exists and is not a directory", "remove or rename it")
	} else {
		r.ok("dist directory", c.cfg.Project.Dist)
	}
}

func (c *Checker) checkVenv(ctx context.Context, r *Report) {
	env := python.NewEnv(c.cfg.Project.Venv)
	if !env.Exists() {
		r.ok("virtual environment", "absent; created on first build")
		return
	}
	if err := env.Verify(ctx, c.runner); err != nil {
		r.warn("virtual environment", err.Error(), "remove the venv directory; the next build recreates it")
		return
	}
	r.ok("virtual environment", env.Root)

	if _, err := os.Stat(env.PyInstaller); err != nil {
		r.warn("packager", packager.Tool+" is not in the venv", "installed automatically by the next build")
	} else {
		r.ok("packager", env.PyInstaller)
	}
}

func (c *Checker) checkIndex(ctx context.Context, r *Report) {
	u, err := url.Parse(c.cfg.Network.Index)
	if err != nil || u.Host == "" {
		r.warn("package index", fmt.Sprintf("cannot parse %q", c.cfg.Network.Index), "fix network.index")
		return
	}

	defaultPort := 443
	if u.Scheme == "http" {
		defaultPort = 80
	}
	host, portStr, _ := netutil.SplitHostPort(u.Host, defaultPort)
	host = strings.Trim(host, "[]") // IPv6 literals keep brackets when the URL has no port
	port, _ := strconv.Atoi(portStr)

	// Single-label hosts (localhost, an intranet alias) go straight to the
	// resolver; only dotted names get the format check.
	if net.ParseIP(host) == nil && strings.Contains(host, ".") && !netutil.IsValidDomain(host) {
		r.warn("package index", fmt.Sprintf("%q does not look like a host name", host), "fix network.index")
		return
	}

	if _, err := netutil.ResolveHost(host); err != nil {
		r.warn("package index", err.Error(), "installs need the index unless wheels are cached locally")
		return
	}
	if err := netutil.ProbeTCP(ctx, host, port, probeTimeout); err != nil {
		r.warn("package index", err.Error(), "check firewalls and proxies")
		return
	}
	if err := CheckHTTP(ctx, c.cfg.Network.Index, 0, probeTimeout); err != nil {
		r.warn("package index", err.Error(), "the index answered the dial but not the request")
		return
	}
	r.ok("package index", host+" reachable")
}

func (c *Checker) checkWorkflowClient(ctx context.Context, r *Report) {
	if ci.HasToken(ctx) {
		r.ok("workflow auth", "token available")
	} else {
		r.warn("workflow auth", "no API token found", "set GITHUB_TOKEN or run `gh auth login`; only the ci commands need it")
	}

	repo, err := ci.DiscoverRepo(".", c.cfg.CI.Remote)
	if err != nil {
		r.warn("workflow repository", "no usable remote", "only the ci commands need a checkout with a forge remote")
		return
	}
	r.ok("workflow repository", repo.String())
}
