// Package understory is a parallel multi-language lint engine built on
// tree-sitter. For every file in a target set it builds a syntax tree and a
// derived semantic model, evaluates the enabled rules against the model,
// and produces diagnostics with resolved source locations and per-rule
// execution-time metrics.
//
// # Pipeline
//
// The [Engine] partitions the input file list into consecutive batches
// sized as a small multiple of hardware parallelism and runs one worker
// per batch on a fixed-size pool. Each worker preloads its batch in
// parallel (I/O bound), then analyzes strictly one file at a time, reusing
// a single bump arena that is reset between files. Per file: parse, build
// the semantic model in the arena, and hand off to the [Registry] for the
// two-pass rule dispatch. Per-batch results are flattened in batch order.
//
// # Usage
//
// Build a registry, enable rules, and analyze:
//
//	reg := rules.DefaultRegistry()
//	reg.Enable("no-debugger", "max-imports")
//
//	engine := understory.New(reg)
//	results, elapsed := engine.Analyze(ctx, files)
//
// The registry must be fully configured before Analyze is called: it is
// shared read-only across all workers, which is what makes lock-free
// dispatch safe.
//
// # Rules
//
// A [Rule] implements one or both dispatch granularities: a whole-model
// pass called once per file, and a per-node pass called for every
// semantic-model node in construction order. Embed [BaseRule] for no-op
// defaults. Parse failures bypass rule dispatch entirely and surface as
// diagnostics under the reserved [RuleParser] name.
//
// # Failure model
//
// File-level failures never fail the run: unreadable, non-UTF-8, or
// unsupported files produce a [FileAnalysisResult] with Err set and no
// diagnostics, preserving the 1:1 correspondence between input files and
// results.
package understory
