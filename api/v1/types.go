// Package v1 defines the public data types shared across all speedbuild layers.
package v1

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Status enumerations
// ─────────────────────────────────────────────────────────────────────────────

// StepStatus represents the execution state of a single pipeline step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// BuildResult is the aggregate outcome of a build run.
type BuildResult string

const (
	// ResultSuccess means every step finished cleanly.
	ResultSuccess BuildResult = "success"
	// ResultCompleted means the pipeline ran to the end but one or more
	// steps failed. This is the normal outcome of the default (unchecked)
	// mode, which reports completion regardless of step failures.
	ResultCompleted BuildResult = "completed-with-errors"
	// ResultFailed means a strict run aborted at a failing step.
	ResultFailed BuildResult = "failed"
)

// Profile names a fixed packaging variant. The flag sets behind each
// profile are constants; profiles are not user-extensible.
type Profile string

const (
	// ProfileFull bundles the speedtest engine explicitly so the frozen
	// executable can import it at runtime.
	ProfileFull Profile = "full"
	// ProfileLite relies on the dependency manifest alone.
	ProfileLite Profile = "lite"
)

// ─────────────────────────────────────────────────────────────────────────────
// Specification types (derived from speedbuild.yaml)
// ─────────────────────────────────────────────────────────────────────────────

// ProjectSpec is the declarative definition of the packaging target.
type ProjectSpec struct {
	Name         string `yaml:"name"         mapstructure:"name"`         // display name
	Entry        string `yaml:"entry"        mapstructure:"entry"`        // entry-point script
	Requirements string `yaml:"requirements" mapstructure:"requirements"` // dependency manifest
	Venv         string `yaml:"venv"         mapstructure:"venv"`         // isolated environment dir
	Dist         string `yaml:"dist"         mapstructure:"dist"`         // artifact output dir
	Python       string `yaml:"python"       mapstructure:"python"`       // base interpreter override
	Target       string `yaml:"target"       mapstructure:"target"`       // artifact platform (GOOS name)
}

// CISpec configures the hosted workflow the repository may delegate builds to.
// The workflow itself lives on the hosting side; speedbuild only talks to it.
type CISpec struct {
	Workflow string `yaml:"workflow" mapstructure:"workflow"` // workflow file name, e.g. build.yml
	Artifact string `yaml:"artifact" mapstructure:"artifact"` // uploaded artifact name
	Remote   string `yaml:"remote"   mapstructure:"remote"`   // git remote to derive owner/repo from
}

// ─────────────────────────────────────────────────────────────────────────────
// Runtime state types (persisted in BoltDB)
// ─────────────────────────────────────────────────────────────────────────────

// StepResult is the recorded outcome of one pipeline step. Results are
// collected for every step in every mode; the mode only decides whether a
// failure stops the run.
type StepResult struct {
	Name        string     `json:"name"`
	Command     []string   `json:"command,omitempty"`
	Status      StepStatus `json:"status"`
	ExitCode    int        `json:"exit_code"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
	DurationMS  int64      `json:"duration_ms"`
	Error       string     `json:"error,omitempty"`
}

// BuildRecord is an immutable audit record of one build invocation.
type BuildRecord struct {
	ID            string       `json:"id"`
	Profile       Profile      `json:"profile"`
	Entry         string       `json:"entry"`
	Strict        bool         `json:"strict"`
	StartedAt     time.Time    `json:"started_at"`
	CompletedAt   time.Time    `json:"completed_at"`
	DurationMS    int64        `json:"duration_ms"`
	Result        BuildResult  `json:"result"`
	Steps         []StepResult `json:"steps"`
	Artifact      string       `json:"artifact"`
	ArtifactBytes int64        `json:"artifact_bytes"`
	LogFile       string       `json:"log_file,omitempty"`
}

// Failed reports whether any step in the record failed.
func (r *BuildRecord) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

// WorkflowRunInfo is a display-friendly snapshot of one hosted workflow run.
type WorkflowRunInfo struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion,omitempty"`
	Branch     string    `json:"branch"`
	HeadSHA    string    `json:"head_sha"`
	Event      string    `json:"event"`
	CreatedAt  time.Time `json:"created_at"`
	URL        string    `json:"url"`
}

// ArtifactInfo describes a downloadable artifact attached to a workflow run.
type ArtifactInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	Expired   bool      `json:"expired"`
	CreatedAt time.Time `json:"created_at"`
}
