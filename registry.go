package understory

import (
	"sort"
	"time"

	"github.com/jward/understory/internal/frontend"
)

// Registry owns rule instances, the enabled set, and per-rule severities.
//
// All mutation must happen single-threaded before analysis starts; once an
// Engine is running, every worker reads the registry concurrently without
// locks. That is safe only because nothing writes to it during the parallel
// phase.
type Registry struct {
	rules    map[string]Rule
	enabled  map[string]struct{}
	order    []string // sorted enabled names, rebuilt on every enable/disable
	severity map[string]Severity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules:    make(map[string]Rule),
		enabled:  make(map[string]struct{}),
		severity: make(map[string]Severity),
	}
}

// Register adds a rule under its name. Re-registering a name replaces the
// previous instance.
func (r *Registry) Register(rule Rule) {
	r.rules[rule.Name()] = rule
}

// Enable marks rules as enabled by name. Enabling a name with no registered
// rule is not an error; dispatch silently skips it.
func (r *Registry) Enable(names ...string) {
	for _, name := range names {
		r.enabled[name] = struct{}{}
	}
	r.rebuildOrder()
}

// Disable removes rules from the enabled set.
func (r *Registry) Disable(names ...string) {
	for _, name := range names {
		delete(r.enabled, name)
	}
	r.rebuildOrder()
}

// rebuildOrder keeps dispatch order deterministic across runs.
func (r *Registry) rebuildOrder() {
	r.order = r.order[:0]
	for name := range r.enabled {
		r.order = append(r.order, name)
	}
	sort.Strings(r.order)
}

// IsEnabled reports whether a rule name is in the enabled set.
func (r *Registry) IsEnabled(name string) bool {
	_, ok := r.enabled[name]
	return ok
}

// EnabledRules returns the enabled names in dispatch order.
func (r *Registry) EnabledRules() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RegisteredRules returns all registered names, sorted.
func (r *Registry) RegisteredRules() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule returns the registered rule for a name, or nil.
func (r *Registry) Rule(name string) Rule {
	return r.rules[name]
}

// SetSeverity sets the severity stamped on a rule's diagnostics.
func (r *Registry) SetSeverity(name string, sev Severity) {
	r.severity[name] = sev
}

// SeverityFor returns the configured severity for a rule, defaulting to
// error when none was set.
func (r *Registry) SeverityFor(name string) Severity {
	if sev, ok := r.severity[name]; ok {
		return sev
	}
	return SevError
}

// Configure applies an opaque option payload to a registered rule.
// Unknown names are ignored.
func (r *Registry) Configure(name string, options map[string]any) {
	if rule, ok := r.rules[name]; ok {
		rule.SetConfig(options)
	}
}

// runRules executes the two-pass dispatch protocol against one file's
// semantic model and returns the diagnostics plus per-rule durations.
//
// Pass 1 calls every enabled rule's whole-model entry point once. Pass 2
// enumerates every node in construction order and calls each enabled rule's
// per-node entry point. Both passes time each call but record the elapsed
// time under the rule's name only when the call produced diagnostics —
// otherwise per-rule cost drowns in near-zero no-op calls across large node
// counts. A later productive call overwrites the recorded entry rather than
// summing into it.
func (r *Registry) runRules(model *frontend.Model, filePath string) ([]Diagnostic, map[string]time.Duration) {
	if len(r.order) == 0 {
		return nil, nil
	}

	src := model.Source()
	var diags []Diagnostic
	durations := make(map[string]time.Duration)

	// Pass 1: whole-model.
	for _, name := range r.order {
		rule, ok := r.rules[name]
		if !ok {
			continue // enabled but never registered
		}
		start := time.Now()
		produced := rule.RunOnModel(model, filePath)
		elapsed := time.Since(start)
		if len(produced) > 0 {
			durations[name] = elapsed
			diags = r.finalize(diags, produced, name, src)
		}
	}

	// Pass 2: per-node.
	for i := 0; i < model.Len(); i++ {
		kind := model.Kind(i)
		span := model.Span(i)
		for _, name := range r.order {
			rule, ok := r.rules[name]
			if !ok {
				continue
			}
			start := time.Now()
			produced := rule.RunOnNode(kind, span, filePath)
			elapsed := time.Since(start)
			if len(produced) > 0 {
				durations[name] = elapsed
				diags = r.finalize(diags, produced, name, src)
			}
		}
	}

	return diags, durations
}

// finalize stamps rule name and severity on produced diagnostics and
// resolves line, column and snippet against the source text.
func (r *Registry) finalize(diags, produced []Diagnostic, rule string, src []byte) []Diagnostic {
	for _, d := range produced {
		d.Rule = rule
		d.Severity = r.SeverityFor(rule)
		d.Line, d.Column = frontend.Location(src, d.Span.Start)
		d.Snippet = frontend.LineAt(src, d.Span.Start)
		diags = append(diags, d)
	}
	return diags
}
