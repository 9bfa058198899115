package rules

import (
	"context"
	"fmt"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/frontend"
)

// ScriptRule runs a Risor script as a whole-model rule. The script sees the
// node table through host functions and reports findings via report():
//
//	for i := range node_count() {
//	    if node_kind(i) == "call_expression" {
//	        report("found a call", node_start(i), node_end(i))
//	    }
//	}
//
// Globals exposed to the script: file_path, node_count(), node_kind(i),
// node_text(i), node_start(i), node_end(i), report(message, start, end
// [, help]). Scripts hold no state between files, so one ScriptRule is safe
// to dispatch from many workers concurrently.
type ScriptRule struct {
	understory.BaseRule
	name        string
	description string
	source      string
}

// NewScriptRule wraps Risor source as a rule.
func NewScriptRule(name, description, source string) *ScriptRule {
	return &ScriptRule{name: name, description: description, source: source}
}

// LoadScriptRule reads a .risor file and wraps it as a rule.
func LoadScriptRule(name, path string) (*ScriptRule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: load script %s: %w", path, err)
	}
	return NewScriptRule(name, fmt.Sprintf("scripted rule from %s", path), string(src)), nil
}

func (r *ScriptRule) Name() string        { return r.name }
func (r *ScriptRule) Description() string { return r.description }

func (r *ScriptRule) RunOnModel(model *frontend.Model, filePath string) []understory.Diagnostic {
	var diags []understory.Diagnostic

	opts := []risor.Option{
		risor.WithGlobal("file_path", filePath),
		risor.WithGlobal("node_count", makeNodeCountFn(model)),
		risor.WithGlobal("node_kind", makeNodeKindFn(model)),
		risor.WithGlobal("node_text", makeNodeTextFn(model)),
		risor.WithGlobal("node_start", makeNodeSpanFn("node_start", model, false)),
		risor.WithGlobal("node_end", makeNodeSpanFn("node_end", model, true)),
		risor.WithGlobal("report", makeReportFn(&diags)),
	}

	if _, err := risor.Eval(context.Background(), r.source, opts...); err != nil {
		// No dispatch-level recovery; surface the script failure and move on.
		fmt.Fprintf(os.Stderr, "understory: script rule %s: %v\n", r.name, err)
	}
	return diags
}

// nodeIndex extracts and bounds-checks an integer node index argument.
func nodeIndex(name string, model *frontend.Model, arg object.Object) (int, object.Object) {
	idx, ok := arg.(*object.Int)
	if !ok {
		return 0, object.Errorf("%s: index must be an int, got %s", name, arg.Type())
	}
	i := int(idx.Value())
	if i < 0 || i >= model.Len() {
		return 0, object.Errorf("%s: index %d out of range", name, i)
	}
	return i, nil
}

func makeNodeCountFn(model *frontend.Model) *object.Builtin {
	return object.NewBuiltin("node_count", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("node_count", 0, len(args))
		}
		return object.NewInt(int64(model.Len()))
	})
}

func makeNodeKindFn(model *frontend.Model) *object.Builtin {
	return object.NewBuiltin("node_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_kind", 1, len(args))
		}
		i, errObj := nodeIndex("node_kind", model, args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(model.Kind(i))
	})
}

func makeNodeTextFn(model *frontend.Model) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		i, errObj := nodeIndex("node_text", model, args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(model.Text(model.Span(i)))
	})
}

func makeNodeSpanFn(name string, model *frontend.Model, end bool) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		i, errObj := nodeIndex(name, model, args[0])
		if errObj != nil {
			return errObj
		}
		span := model.Span(i)
		if end {
			return object.NewInt(int64(span.End))
		}
		return object.NewInt(int64(span.Start))
	})
}

// makeReportFn creates the report host function appending to the call-local
// diagnostic slice.
//
// report(message, start, end [, help])
func makeReportFn(diags *[]understory.Diagnostic) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 && len(args) != 4 {
			return object.Errorf("report: expected 3 or 4 arguments, got %d", len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("report: message must be a string, got %s", args[0].Type())
		}
		start, ok := args[1].(*object.Int)
		if !ok {
			return object.Errorf("report: start must be an int, got %s", args[1].Type())
		}
		end, ok := args[2].(*object.Int)
		if !ok {
			return object.Errorf("report: end must be an int, got %s", args[2].Type())
		}
		var help string
		if len(args) == 4 {
			h, ok := args[3].(*object.String)
			if !ok {
				return object.Errorf("report: help must be a string, got %s", args[3].Type())
			}
			help = h.Value()
		}
		*diags = append(*diags, understory.Diagnostic{
			Message: msg.Value(),
			Help:    help,
			Span: frontend.Span{
				Start: uint32(start.Value()),
				End:   uint32(end.Value()),
			},
		})
		return object.Nil
	})
}
