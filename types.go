package understory

import (
	"time"

	"github.com/jward/understory/internal/frontend"
)

// RuleParser is the reserved pseudo-rule name under which parse errors are
// reported. It cannot be registered or enabled as a real rule.
const RuleParser = "parser"

// Severity classifies how serious a diagnostic is.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// ParseSeverity maps a configuration label to a Severity.
// Returns (0, false) for unrecognized labels.
func ParseSeverity(label string) (Severity, bool) {
	switch label {
	case "info":
		return SevInfo, true
	case "warn", "warning":
		return SevWarning, true
	case "error":
		return SevError, true
	}
	return 0, false
}

// Diagnostic is one reported finding. Rules fill Message, Help and Span;
// the registry stamps Rule and Severity and resolves Line, Column and
// Snippet against the file's source text. Immutable once dispatch returns it.
type Diagnostic struct {
	Rule     string
	Message  string
	Help     string
	Severity Severity
	Span     frontend.Span
	Line     int
	Column   int
	Snippet  string
}

// FileAnalysisResult holds everything produced for a single file. Exactly
// one exists per input file, whether analysis succeeded or not.
//
// RuleDurations is sparse: an entry exists only for rules that produced
// diagnostics for this file. Diagnostics keep dispatch order.
type FileAnalysisResult struct {
	FilePath         string
	ParseDuration    time.Duration
	SemanticDuration time.Duration
	RuleDurations    map[string]time.Duration
	TotalDuration    time.Duration
	Diagnostics      []Diagnostic

	// Err records a per-file failure (unreadable, non-UTF-8, unsupported
	// dialect). When set, Diagnostics and RuleDurations are empty.
	Err error
}

// Verbosity controls how chatty the engine is on stderr.
type Verbosity int

const (
	VerbositySilent Verbosity = iota
	VerbosityError
	VerbosityInfo
	VerbosityTrace
)
