package provision

import (
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/locator"
)

// Outcome is the terminal state of a provisioning run.
type Outcome int

const (
	// OutcomeSucceeded means the addon was installed by this run.
	OutcomeSucceeded Outcome = iota
	// OutcomeSkipped means nothing needed doing.
	OutcomeSkipped
	// OutcomeFailed means the addon could not be installed.
	OutcomeFailed
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SkipReason says why a run was skipped.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipDisabled  SkipReason = "disabled"
	SkipInstalled SkipReason = "already installed"
)

// Source is where the compressed artifact came from.
type Source int

const (
	SourceNone Source = iota
	SourceBundle
	SourceRemote
)

// String returns the string representation of the source
func (s Source) String() string {
	switch s {
	case SourceBundle:
		return "bundle"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// Attempt records one HTTP request made while fetching an artifact.
type Attempt struct {
	Index   int // 1-based
	Status  int // 0 when no response was received
	Err     error
	Elapsed time.Duration
	Bytes   int
}

// Result describes a finished provisioning run.
type Result struct {
	Outcome      Outcome
	SkipReason   SkipReason
	Package      string
	Variant      locator.Key
	Source       Source
	Path         string
	Attempts     []Attempt
	BytesWritten int64
	Duration     time.Duration
	// Err is the fatal error of a failed run.
	Err error
	// CleanupErr is set when staging cleanup failed after a successful install.
	CleanupErr error
}

// ExitCode maps the outcome onto a process exit status.
func (r *Result) ExitCode() int {
	if r.Outcome == OutcomeFailed {
		return 1
	}
	return 0
}

// Message returns the one-line user-facing summary for the run.
func (r *Result) Message() string {
	name := r.Package
	if name == "" {
		name = "native addon"
	}

	switch r.Outcome {
	case OutcomeSucceeded:
		return fmt.Sprintf("Downloaded %s", name)
	case OutcomeSkipped:
		return fmt.Sprintf("Skipped %s (%s)", name, r.SkipReason)
	default:
		return fmt.Sprintf("Failed to download %s: %v", name, r.Err)
	}
}
