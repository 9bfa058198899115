package understory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// debugRegistry returns a registry with one enabled per-node rule that flags
// JavaScript debugger statements.
func debugRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(&kindRule{name: "no-debug", kind: "debugger_statement"})
	reg.Enable("no-debug")
	return reg
}

func TestAnalyze_EmptyInput(t *testing.T) {
	e := New(debugRegistry())
	results, elapsed := e.Analyze(context.Background(), nil)
	assert.Empty(t, results)
	assert.Zero(t, elapsed)
}

func TestAnalyze_OneResultPerFile(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("f%d.js", i)
		paths = append(paths, writeFile(t, dir, name, []byte("let x = 1\n")))
	}

	for _, batchSize := range []int{1, 2, 3, 100} {
		e := New(debugRegistry(), WithBatchSize(batchSize))
		results, _ := e.Analyze(context.Background(), paths)
		assert.Len(t, results, len(paths), "batchSize=%d", batchSize)
	}
}

func TestAnalyze_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.js", []byte("let x = 1\n"))
	missing := filepath.Join(dir, "missing.js")

	e := New(debugRegistry(), WithWorkers(1))
	results, _ := e.Analyze(context.Background(), []string{good, missing})
	require.Len(t, results, 2)

	byPath := map[string]FileAnalysisResult{}
	for _, res := range results {
		byPath[res.FilePath] = res
	}
	assert.NoError(t, byPath[good].Err)
	assert.Error(t, byPath[missing].Err)
	assert.Empty(t, byPath[missing].Diagnostics)
}

func TestAnalyze_NonUTF8File(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.js", []byte{0xff, 0xfe, 0x00, 0x41})

	e := New(debugRegistry())
	results, _ := e.Analyze(context.Background(), []string{bad})
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "UTF-8")
}

func TestAnalyze_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	odd := writeFile(t, dir, "notes.txt", []byte("hello\n"))

	e := New(debugRegistry())
	results, _ := e.Analyze(context.Background(), []string{odd})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestAnalyze_ParseErrors(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.js", []byte("function broken( {\n"))

	e := New(debugRegistry())
	results, _ := e.Analyze(context.Background(), []string{broken})
	require.Len(t, results, 1)

	res := results[0]
	require.NoError(t, res.Err)
	require.NotEmpty(t, res.Diagnostics)
	for _, d := range res.Diagnostics {
		assert.Equal(t, RuleParser, d.Rule)
		assert.Equal(t, SevError, d.Severity)
		assert.GreaterOrEqual(t, d.Line, 1)
	}
	// Parse errors short-circuit rule dispatch.
	assert.Empty(t, res.RuleDurations)
	assert.Zero(t, res.SemanticDuration)
}

func TestAnalyze_FindsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	withBug := writeFile(t, dir, "a.js", []byte("function f() {\n  debugger;\n}\n"))
	clean := writeFile(t, dir, "b.js", []byte("function g() {\n  return 1;\n}\n"))

	e := New(debugRegistry(), WithWorkers(1))
	results, _ := e.Analyze(context.Background(), []string{withBug, clean})
	require.Len(t, results, 2)

	byPath := map[string]FileAnalysisResult{}
	for _, res := range results {
		byPath[res.FilePath] = res
	}

	hot := byPath[withBug]
	require.Len(t, hot.Diagnostics, 1)
	assert.Equal(t, "no-debug", hot.Diagnostics[0].Rule)
	assert.Equal(t, 2, hot.Diagnostics[0].Line)
	assert.Contains(t, hot.RuleDurations, "no-debug")

	cold := byPath[clean]
	assert.Empty(t, cold.Diagnostics)
	assert.NotContains(t, cold.RuleDurations, "no-debug")
}

// Findings must not depend on how the input list is partitioned or on how
// many workers share the arena-backed pipeline.
func TestAnalyze_BatchSizeInvariance(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 10; i++ {
		src := "let x = 1\n"
		if i%3 == 0 {
			src = "debugger;\n"
		}
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%d.js", i), []byte(src)))
	}

	type finding struct {
		file string
		rule string
		line int
	}
	collect := func(batchSize, workers int) []finding {
		e := New(debugRegistry(), WithBatchSize(batchSize), WithWorkers(workers))
		results, _ := e.Analyze(context.Background(), paths)
		var out []finding
		for _, res := range results {
			require.NoError(t, res.Err)
			for _, d := range res.Diagnostics {
				out = append(out, finding{res.FilePath, d.Rule, d.Line})
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].file < out[j].file })
		return out
	}

	baseline := collect(1, 1)
	require.Len(t, baseline, 4)
	for _, cfg := range [][2]int{{2, 1}, {3, 4}, {100, 8}} {
		assert.Equal(t, baseline, collect(cfg[0], cfg[1]),
			"batchSize=%d workers=%d", cfg[0], cfg[1])
	}
}

// A single worker reuses one arena across the whole batch; results must match
// what fresh per-file state would produce.
func TestAnalyze_ArenaReuseAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%d.js", i),
			[]byte(fmt.Sprintf("function f%d() {\n  debugger;\n}\n", i))))
	}

	e := New(debugRegistry(), WithWorkers(1), WithBatchSize(len(paths)))
	results, _ := e.Analyze(context.Background(), paths)
	require.Len(t, results, len(paths))
	for _, res := range results {
		require.NoError(t, res.Err, res.FilePath)
		require.Len(t, res.Diagnostics, 1, res.FilePath)
		assert.Equal(t, "found debugger_statement", res.Diagnostics[0].Message)
		assert.Equal(t, "  debugger;", res.Diagnostics[0].Snippet)
	}
}

func TestChunk(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e"}
	batches := chunk(paths, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"c", "d"}, batches[1])
	assert.Equal(t, []string{"e"}, batches[2])

	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, chunk(paths, 10))
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, chunk(paths, 5))
}

func TestDiscoverFiles_Walk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", []byte("let x = 1\n"))
	writeFile(t, dir, "readme.md", []byte("# hi\n"))
	sub := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, sub, "b.py", []byte("x = 1\n"))
	skipped := filepath.Join(dir, "node_modules")
	require.NoError(t, os.Mkdir(skipped, 0755))
	writeFile(t, skipped, "dep.js", []byte("let y = 2\n"))

	paths, err := DiscoverFiles(dir)
	require.NoError(t, err)
	sort.Strings(paths)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.js"),
		filepath.Join(sub, "b.py"),
	}, paths)
}
