package understory

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/jward/understory/internal/arena"
	"github.com/jward/understory/internal/frontend"
)

// worker processes one batch of files at a time. It owns a pre-sized arena
// and a Frontend (parser + kind interner), both of which are reused across
// every file the worker ever sees. The arena is reset between files; it is
// never recreated, so N files through one worker approach the allocation
// cost of N parses into a single warm allocator.
type worker struct {
	arena     *arena.Arena
	front     *frontend.Frontend
	registry  *Registry
	verbosity Verbosity
}

func newWorker(reg *Registry, verbosity Verbosity) *worker {
	return &worker{
		arena:     arena.New(arena.DefaultCapacity),
		front:     frontend.NewFrontend(),
		registry:  reg,
		verbosity: verbosity,
	}
}

func (w *worker) close() {
	w.front.Close()
}

// loadedFile is the outcome of preloading one file. err covers unreadable
// files, non-UTF-8 content, and unsupported dialects.
type loadedFile struct {
	path    string
	src     []byte
	dialect frontend.Dialect
	err     error
}

// processBatch runs the worker's two phases: parallel preload, then strictly
// sequential analysis. The arena forbids concurrency within the batch, so
// only the I/O-bound phase fans out. The arena is reset after every file,
// success or failure, before the next one is touched.
func (w *worker) processBatch(ctx context.Context, paths []string) []FileAnalysisResult {
	loaded := w.preload(paths)

	results := make([]FileAnalysisResult, 0, len(loaded))
	for _, lf := range loaded {
		var res FileAnalysisResult
		if lf.err != nil {
			w.logf(VerbosityError, "understory: %s: %v\n", lf.path, lf.err)
			res = FileAnalysisResult{FilePath: lf.path, Err: lf.err}
		} else {
			res = w.analyze(ctx, lf)
		}
		w.arena.Reset()
		results = append(results, res)
	}
	return results
}

// preload reads and UTF-8-validates every file in the batch in parallel.
// Failures become per-file outcomes; the batch always continues.
func (w *worker) preload(paths []string) []loadedFile {
	loaded := make([]loadedFile, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			loaded[i] = loadFile(path)
			return nil
		})
	}
	g.Wait() // always nil; errors live in the outcomes
	return loaded
}

func loadFile(path string) loadedFile {
	dialect, ok := frontend.DialectForFile(path)
	if !ok {
		return loadedFile{path: path, err: fmt.Errorf("unsupported dialect for %s", path)}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return loadedFile{path: path, err: fmt.Errorf("read file: %w", err)}
	}
	if !utf8.Valid(src) {
		return loadedFile{path: path, err: fmt.Errorf("%s is not valid UTF-8", path)}
	}
	return loadedFile{path: path, src: src, dialect: dialect}
}

// analyze runs parse → semantic build → rule dispatch for one preloaded
// file, allocating the semantic model in the worker's arena.
func (w *worker) analyze(ctx context.Context, lf loadedFile) FileAnalysisResult {
	fileStart := time.Now()

	parseStart := time.Now()
	tree, parseErrs, err := w.front.Parse(ctx, lf.src, lf.dialect)
	if err != nil {
		w.logf(VerbosityError, "understory: %s: %v\n", lf.path, err)
		return FileAnalysisResult{FilePath: lf.path, Err: err}
	}

	if len(parseErrs) > 0 {
		// Parse errors short-circuit: no semantic build, no rule dispatch.
		w.logf(VerbosityError, "understory: parse errors in %s: %d\n", lf.path, len(parseErrs))
		diags := make([]Diagnostic, 0, len(parseErrs))
		for _, pe := range parseErrs {
			line, col := frontend.Location(lf.src, pe.Span.Start)
			diags = append(diags, Diagnostic{
				Rule:     RuleParser,
				Message:  pe.Msg,
				Severity: SevError,
				Span:     pe.Span,
				Line:     line,
				Column:   col,
				Snippet:  frontend.LineAt(lf.src, pe.Span.Start),
			})
		}
		return FileAnalysisResult{
			FilePath:      lf.path,
			ParseDuration: time.Since(parseStart),
			TotalDuration: time.Since(fileStart),
			Diagnostics:   diags,
		}
	}
	parseDuration := time.Since(parseStart)

	semanticStart := time.Now()
	model := w.front.BuildModel(w.arena, tree, lf.src)
	semanticDuration := time.Since(semanticStart)

	diags, ruleDurations := w.registry.runRules(model, lf.path)
	if len(diags) > 0 {
		w.logf(VerbosityInfo, "understory: found %d issue(s) in %s\n", len(diags), lf.path)
	}

	return FileAnalysisResult{
		FilePath:         lf.path,
		ParseDuration:    parseDuration,
		SemanticDuration: semanticDuration,
		RuleDurations:    ruleDurations,
		TotalDuration:    time.Since(fileStart),
		Diagnostics:      diags,
	}
}

func (w *worker) logf(min Verbosity, format string, args ...any) {
	if w.verbosity >= min {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
