// Package frontend turns raw source text into a syntax tree and a derived
// semantic model: a flat table of named nodes in construction order, each
// carrying an interned kind and a byte span. Parsing goes through
// tree-sitter; the node table is carved from the caller's arena.
package frontend

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Span is a half-open byte range [Start, End) into a file's source text.
type Span struct {
	Start uint32
	End   uint32
}

func (s Span) Len() uint32 { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// ParseError is one syntax error reported by the parser.
type ParseError struct {
	Msg  string
	Span Span
}

// Tree wraps a parsed tree-sitter tree together with its dialect.
type Tree struct {
	tree    *sitter.Tree
	dialect Dialect
}

// Dialect returns the dialect the tree was parsed as.
func (t *Tree) Dialect() Dialect { return t.dialect }

// Frontend owns a reusable tree-sitter parser and a kind interner. It is
// exclusively owned by one worker and must not be shared across goroutines.
// The interner grows append-only across files, so kind IDs handed to models
// stay valid for the worker's lifetime.
type Frontend struct {
	parser  *sitter.Parser
	kinds   []string
	kindIDs map[string]uint16
}

// NewFrontend returns a Frontend with a fresh parser and an empty interner.
func NewFrontend() *Frontend {
	return &Frontend{
		parser:  sitter.NewParser(),
		kindIDs: make(map[string]uint16),
	}
}

// Close releases the underlying parser.
func (f *Frontend) Close() {
	f.parser.Close()
}

// Parse parses src as the given dialect. Syntax errors are returned as
// ParseErrors, not as a Go error; the error return covers unsupported
// dialects and parser failures only.
func (f *Frontend) Parse(ctx context.Context, src []byte, d Dialect) (*Tree, []ParseError, error) {
	lang, ok := grammarFor(d)
	if !ok {
		return nil, nil, fmt.Errorf("frontend: unsupported dialect %q", d)
	}
	f.parser.SetLanguage(lang)

	tree, err := f.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("frontend: parse: %w", err)
	}

	t := &Tree{tree: tree, dialect: d}
	var perrs []ParseError
	if root := tree.RootNode(); root.HasError() {
		perrs = collectParseErrors(root, nil)
	}
	return t, perrs, nil
}

// collectParseErrors walks the tree gathering ERROR and MISSING nodes.
func collectParseErrors(n *sitter.Node, out []ParseError) []ParseError {
	switch {
	case n.IsMissing():
		return append(out, ParseError{
			Msg:  fmt.Sprintf("missing %s", n.Type()),
			Span: Span{Start: n.StartByte(), End: n.EndByte()},
		})
	case n.IsError():
		out = append(out, ParseError{
			Msg:  "syntax error",
			Span: Span{Start: n.StartByte(), End: n.EndByte()},
		})
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		out = collectParseErrors(n.Child(i), out)
	}
	return out
}

// kindID interns a node kind, assigning the next ID on first sight.
func (f *Frontend) kindID(kind string) uint16 {
	if id, ok := f.kindIDs[kind]; ok {
		return id
	}
	id := uint16(len(f.kinds))
	f.kinds = append(f.kinds, kind)
	f.kindIDs[kind] = id
	return id
}
