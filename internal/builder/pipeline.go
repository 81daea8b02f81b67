// Package builder runs the sequential packaging pipeline: provision the
// isolated environment, install dependencies, invoke the packager, report
// the artifact, pause for acknowledgment.
package builder

import (
	"github.com/f9-o/speedbuild/internal/packager"
	"github.com/f9-o/speedbuild/internal/python"
)

// Kind classifies a pipeline step.
type Kind int

const (
	// KindCommand runs an external command with captured output.
	KindCommand Kind = iota
	// KindVerify checks the isolated environment in-process. This stands in
	// for shell-level "activation": instead of mutating a shell, the venv
	// paths are resolved and verified, then threaded through later steps.
	KindVerify
	// KindReport emits the fixed completion message.
	KindReport
	// KindPause blocks until the user acknowledges, so a console window
	// opened by double-click does not vanish with the output.
	KindPause
)

// Step is one pipeline stage. The full plan, including every command line,
// is computable before anything runs; nothing about it depends on step
// outcomes.
type Step struct {
	Name string
	Kind Kind
	Argv []string // exact command line; only set for KindCommand
}

// plan builds the ordered step list for one run. basePython is the
// interpreter used to create the venv; env supplies the tool paths inside
// it. The sequence mirrors the original packaging script: venv, activate,
// manifest install, unconditional extras, package, report, pause.
func plan(p packager.Profile, env *python.Env, basePython, entry, requirements string) []Step {
	steps := []Step{
		{
			Name: "create venv",
			Kind: KindCommand,
			Argv: []string{basePython, "-m", "venv", env.Root},
		},
		{
			Name: "activate environment",
			Kind: KindVerify,
		},
		{
			Name: "install requirements",
			Kind: KindCommand,
			Argv: []string{env.Pip, "install", "-r", requirements},
		},
	}

	// Extras are installed even when the manifest already provides them;
	// the later install simply wins.
	for _, pkg := range p.Extras {
		steps = append(steps, Step{
			Name: "install " + pkg,
			Kind: KindCommand,
			Argv: []string{env.Pip, "install", pkg},
		})
	}

	steps = append(steps,
		Step{
			Name: "package executable",
			Kind: KindCommand,
			Argv: p.Command(env.PyInstaller, entry),
		},
		Step{Name: "report artifact", Kind: KindReport},
		Step{Name: "pause", Kind: KindPause},
	)
	return steps
}
