package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/arena"
)

func TestDialectForFile(t *testing.T) {
	tests := []struct {
		path    string
		dialect Dialect
		ok      bool
	}{
		{"main.go", DialectGo, true},
		{"src/app.ts", DialectTypeScript, true},
		{"src/App.TSX", DialectTypeScript, true},
		{"index.js", DialectJavaScript, true},
		{"mod.mjs", DialectJavaScript, true},
		{"script.py", DialectPython, true},
		{"lib.rs", DialectRust, true},
		{"README.md", "", false},
		{"Makefile", "", false},
	}
	for _, tt := range tests {
		d, ok := DialectForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.dialect, d, tt.path)
	}
}

func TestParse_ValidGo(t *testing.T) {
	f := NewFrontend()
	defer f.Close()

	src := []byte("package main\n\nfunc main() {}\n")
	tree, perrs, err := f.Parse(context.Background(), src, DialectGo)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Empty(t, perrs)
	assert.Equal(t, DialectGo, tree.Dialect())
}

func TestParse_SyntaxErrors(t *testing.T) {
	f := NewFrontend()
	defer f.Close()

	src := []byte("function broken( {\n")
	_, perrs, err := f.Parse(context.Background(), src, DialectJavaScript)
	require.NoError(t, err)
	require.NotEmpty(t, perrs)
	for _, pe := range perrs {
		assert.NotEmpty(t, pe.Msg)
		assert.LessOrEqual(t, pe.Span.Start, pe.Span.End)
	}
}

func TestParse_UnsupportedDialect(t *testing.T) {
	f := NewFrontend()
	defer f.Close()

	_, _, err := f.Parse(context.Background(), []byte("hello"), Dialect("cobol"))
	require.Error(t, err)
}

func TestBuildModel_ConstructionOrder(t *testing.T) {
	f := NewFrontend()
	defer f.Close()
	a := arena.New(arena.DefaultCapacity)

	src := []byte("package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(1) }\n")
	tree, perrs, err := f.Parse(context.Background(), src, DialectGo)
	require.NoError(t, err)
	require.Empty(t, perrs)

	model := f.BuildModel(a, tree, src)
	require.NotZero(t, model.Len())

	// Preorder: the root comes first and covers the whole file.
	assert.Equal(t, "source_file", model.Kind(0))
	assert.Equal(t, uint32(0), model.Span(0).Start)
	assert.Equal(t, uint32(len(src)), model.Span(0).End)

	// Spans stay inside the file and kinds are non-empty.
	for i := 0; i < model.Len(); i++ {
		span := model.Span(i)
		assert.LessOrEqual(t, span.Start, span.End)
		assert.LessOrEqual(t, int(span.End), len(src))
		assert.NotEmpty(t, model.Kind(i))
	}
}

func TestBuildModel_KindInternerSurvivesReset(t *testing.T) {
	f := NewFrontend()
	defer f.Close()
	a := arena.New(arena.DefaultCapacity)

	src := []byte("package main\n")
	tree, _, err := f.Parse(context.Background(), src, DialectGo)
	require.NoError(t, err)
	first := f.BuildModel(a, tree, src)
	firstKind := first.Kind(0)

	a.Reset()

	tree2, _, err := f.Parse(context.Background(), src, DialectGo)
	require.NoError(t, err)
	second := f.BuildModel(a, tree2, src)
	assert.Equal(t, firstKind, second.Kind(0))
}

func TestModel_Text(t *testing.T) {
	f := NewFrontend()
	defer f.Close()
	a := arena.New(arena.DefaultCapacity)

	src := []byte("let x = 1\n")
	tree, _, err := f.Parse(context.Background(), src, DialectJavaScript)
	require.NoError(t, err)
	model := f.BuildModel(a, tree, src)

	assert.Equal(t, string(src), model.Text(model.Span(0)))
	assert.Equal(t, "", model.Text(Span{Start: 5, End: 99}))
	assert.Equal(t, string(src), string(model.Source()))
}

func TestLocation(t *testing.T) {
	src := []byte("one\ntwo\nthree\n")

	line, col := Location(src, 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = Location(src, 4) // 't' of "two"
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = Location(src, 6) // 'o' of "two"
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)

	// Past the end clamps to the final position.
	line, _ = Location(src, 999)
	assert.Equal(t, 4, line)
}

func TestLineAt(t *testing.T) {
	src := []byte("first line\nsecond line\nthird")
	assert.Equal(t, "first line", LineAt(src, 0))
	assert.Equal(t, "second line", LineAt(src, 13))
	assert.Equal(t, "third", LineAt(src, uint32(len(src))))
}
