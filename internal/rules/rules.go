// Package rules holds the built-in rule catalog and the Risor scripted-rule
// adapter. Every rule implements understory.Rule; node-pass rules see only
// (kind, span, path), model-pass rules see the whole semantic model and its
// source text.
package rules

import (
	"fmt"
	"strings"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/frontend"
)

// DefaultRegistry returns a registry with the built-in catalog registered.
// Nothing is enabled; callers enable rules via configuration.
func DefaultRegistry() *understory.Registry {
	reg := understory.NewRegistry()
	reg.Register(&NoDebugger{})
	reg.Register(&NoEmptyPattern{})
	reg.Register(&NoConsole{})
	reg.Register(NewMaxImports())
	return reg
}

// NoDebugger flags debugger statements.
type NoDebugger struct {
	understory.BaseRule
}

func (*NoDebugger) Name() string        { return "no-debugger" }
func (*NoDebugger) Description() string { return "disallow debugger statements" }

func (*NoDebugger) RunOnNode(kind string, span frontend.Span, filePath string) []understory.Diagnostic {
	if kind != "debugger_statement" {
		return nil
	}
	return []understory.Diagnostic{{
		Message: "unexpected debugger statement",
		Help:    "remove the debugger statement before committing",
		Span:    span,
	}}
}

// NoEmptyPattern flags empty destructuring patterns. Emptiness needs the
// pattern's text, so this is a model-pass rule.
type NoEmptyPattern struct {
	understory.BaseRule
}

func (*NoEmptyPattern) Name() string        { return "no-empty-pattern" }
func (*NoEmptyPattern) Description() string { return "disallow empty destructuring patterns" }

func (*NoEmptyPattern) RunOnModel(model *frontend.Model, filePath string) []understory.Diagnostic {
	var diags []understory.Diagnostic
	for i := 0; i < model.Len(); i++ {
		kind := model.Kind(i)
		if kind != "object_pattern" && kind != "array_pattern" {
			continue
		}
		span := model.Span(i)
		text := model.Text(span)
		if len(text) < 2 {
			continue
		}
		if strings.TrimSpace(text[1:len(text)-1]) != "" {
			continue
		}
		diags = append(diags, understory.Diagnostic{
			Message: "unexpected empty pattern",
			Span:    span,
		})
	}
	return diags
}

// NoConsole flags console.* calls.
type NoConsole struct {
	understory.BaseRule
}

func (*NoConsole) Name() string        { return "no-console" }
func (*NoConsole) Description() string { return "disallow console method calls" }

func (*NoConsole) RunOnModel(model *frontend.Model, filePath string) []understory.Diagnostic {
	var diags []understory.Diagnostic
	for i := 0; i < model.Len(); i++ {
		if model.Kind(i) != "member_expression" {
			continue
		}
		span := model.Span(i)
		text := model.Text(span)
		if !strings.HasPrefix(text, "console.") {
			continue
		}
		diags = append(diags, understory.Diagnostic{
			Message: fmt.Sprintf("unexpected console call %q", text),
			Help:    "route output through the application logger",
			Span:    span,
		})
	}
	return diags
}

// importKinds covers import constructs across the supported dialects.
var importKinds = map[string]bool{
	"import_statement":      true, // javascript, typescript, python
	"import_from_statement": true, // python
	"import_declaration":    true, // go
	"use_declaration":       true, // rust
}

// defaultMaxImports is the threshold used when no configuration overrides it.
const defaultMaxImports = 20

// MaxImports flags files importing more modules than a configured maximum.
type MaxImports struct {
	understory.BaseRule
	max int
}

func NewMaxImports() *MaxImports {
	return &MaxImports{max: defaultMaxImports}
}

func (*MaxImports) Name() string        { return "max-imports" }
func (*MaxImports) Description() string { return "limit the number of imports per file" }

// SetConfig accepts {"max": N}. Unrecognized or invalid entries are ignored.
func (r *MaxImports) SetConfig(options map[string]any) {
	switch v := options["max"].(type) {
	case int:
		if v > 0 {
			r.max = v
		}
	case int64:
		if v > 0 {
			r.max = int(v)
		}
	case float64:
		if v > 0 {
			r.max = int(v)
		}
	}
}

func (r *MaxImports) RunOnModel(model *frontend.Model, filePath string) []understory.Diagnostic {
	count := 0
	over := -1
	for i := 0; i < model.Len(); i++ {
		if !importKinds[model.Kind(i)] {
			continue
		}
		count++
		if count == r.max+1 {
			over = i
		}
	}
	if over < 0 {
		return nil
	}
	return []understory.Diagnostic{{
		Message: fmt.Sprintf("file has %d imports, maximum is %d", count, r.max),
		Help:    "split the file or consolidate its dependencies",
		Span:    model.Span(over),
	}}
}
