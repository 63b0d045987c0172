package vault

import (
	"fmt"
	"strings"
)

// ConfigError reports a malformed interchange document. An import that
// returns a ConfigError never partially populates a graph.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid vault config %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid vault config: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Issue is a single validation finding for one entity.
type Issue struct {
	Code     string
	Severity Severity
	Entity   string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", i.Severity, i.Entity, i.Code, i.Message)
}

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityBlocking aborts construction unless the caller forces.
	SeverityBlocking Severity = "blocking"
	// SeverityWarning is surfaced but never fatal.
	SeverityWarning Severity = "warning"
)

// ValidationError carries the full batch of blocking issues found across
// the graph. The whole graph is checked before this is returned, so a
// caller fixing a config sees every problem in one pass.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "vault validation failed with %d blocking issue(s):", len(e.Issues))
	for _, issue := range e.Issues {
		sb.WriteString("\n  ")
		sb.WriteString(issue.String())
	}
	return sb.String()
}

// GenerationError reports that a SQL template could not be produced for an
// entity, e.g. an empty descriptive set after exclusion.
type GenerationError struct {
	Entity string
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("cannot generate SQL for %s: %s", e.Entity, e.Reason)
}

// ExecutionError wraps an execution-collaborator failure for one entity.
// The underlying error is surfaced unmodified.
type ExecutionError struct {
	Entity string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed for %s: %v", e.Entity, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
