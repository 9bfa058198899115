package understory

import "github.com/jward/understory/internal/frontend"

// Rule is a named, independently pluggable check. Implementations provide
// one or both dispatch entry points:
//
//   - RunOnModel is called once per file with the whole semantic model.
//   - RunOnNode is called once per semantic-model node with the node's kind
//     and byte span.
//
// Either may be a no-op; embed BaseRule to get no-op defaults and implement
// only what the rule uses. Rules must not retain the model or anything
// derived from it past the call — the backing arena is reset after each
// file. A rule instance is exclusively owned by its registry and is never
// mutated once the concurrent analysis phase starts.
type Rule interface {
	// Name is the rule's unique key within a registry.
	Name() string

	// Description says what the rule checks for.
	Description() string

	// SetConfig applies an opaque configuration payload. Rules must ignore
	// unrecognized or invalid entries rather than fail.
	SetConfig(options map[string]any)

	// RunOnModel checks the whole semantic model. Returned diagnostics need
	// only Message, Help and Span set.
	RunOnModel(model *frontend.Model, filePath string) []Diagnostic

	// RunOnNode checks a single node by kind and span.
	RunOnNode(kind string, span frontend.Span, filePath string) []Diagnostic
}

// BaseRule provides no-op defaults for the optional Rule entry points.
type BaseRule struct{}

func (BaseRule) SetConfig(map[string]any) {}

func (BaseRule) RunOnModel(*frontend.Model, string) []Diagnostic { return nil }

func (BaseRule) RunOnNode(string, frontend.Span, string) []Diagnostic { return nil }
