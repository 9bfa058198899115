package understory

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jward/understory/internal/frontend"
)

// batchFactor sizes batches as a small multiple of hardware parallelism,
// allowing I/O overlap while keeping the live-arena count bounded.
const batchFactor = 2

// Engine is the batch scheduler: it partitions the input file list into
// consecutive batches, runs one worker per batch on a fixed-size pool, and
// merges per-batch results.
//
// The registry is shared read-only across all workers; configure it fully
// before calling Analyze.
type Engine struct {
	registry  *Registry
	verbosity Verbosity
	workers   int
	batchSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithVerbosity sets the engine's stderr chattiness.
func WithVerbosity(v Verbosity) Option {
	return func(e *Engine) { e.verbosity = v }
}

// WithWorkers overrides the worker-pool size. Values below 1 keep the
// default of runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithBatchSize overrides the number of files per batch. Values below 1
// keep the default of runtime.NumCPU() * 2.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.batchSize = n
		}
	}
}

// New creates an Engine dispatching to the given registry.
func New(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		verbosity: VerbosityError,
		workers:   runtime.NumCPU(),
		batchSize: runtime.NumCPU() * batchFactor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs every enabled rule against every file and returns one
// FileAnalysisResult per input file plus the total elapsed wall time.
//
// Results are ordered batch-major: file order is preserved within a batch
// and batches are flattened in partition order. Callers needing a specific
// order must sort explicitly. An empty input yields an empty result and
// zero elapsed.
func (e *Engine) Analyze(ctx context.Context, paths []string) ([]FileAnalysisResult, time.Duration) {
	if len(paths) == 0 {
		return nil, 0
	}
	start := time.Now()

	batches := chunk(paths, e.batchSize)
	perBatch := make([][]FileAnalysisResult, len(batches))

	numWorkers := e.workers
	if numWorkers > len(batches) {
		numWorkers = len(batches)
	}

	work := make(chan int, len(batches))
	for i := range batches {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for n := 0; n < numWorkers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := newWorker(e.registry, e.verbosity)
			defer w.close()
			for i := range work {
				perBatch[i] = w.processBatch(ctx, batches[i])
			}
		}()
	}
	wg.Wait()

	results := make([]FileAnalysisResult, 0, len(paths))
	for _, batch := range perBatch {
		results = append(results, batch...)
	}
	return results, time.Since(start)
}

// chunk splits paths into consecutive slices of at most size files; the
// last chunk may be shorter.
func chunk(paths []string, size int) [][]string {
	var out [][]string
	for len(paths) > size {
		out = append(out, paths[:size])
		paths = paths[size:]
	}
	return append(out, paths)
}

// skipDirs lists directories excluded from the filesystem-walk fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"__pycache__":  true,
}

// DiscoverFiles returns the analyzable files under root, in walk order.
// If root is inside a git repository, uses git ls-files to respect
// .gitignore; otherwise falls back to a filesystem walk that skips hidden
// directories and common dependency/build trees. Only files with a
// recognized dialect are returned.
func DiscoverFiles(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		paths, err = walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported dialects.
func gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := frontend.DialectForFile(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := frontend.DialectForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
