// Package metrics folds per-file analysis results into run-level summaries
// and exports them as a structured JSON record, flat CSV rows, or a
// human-readable summary. Cross-run comparisons use normalized time —
// aggregate CPU time divided by core count — because raw parallel-CPU sums
// grow misleadingly with added parallelism.
package metrics

import (
	"runtime"
	"sort"
	"time"

	"github.com/jward/understory"
)

// RuleStats accumulates one rule's cost across files.
type RuleStats struct {
	// Files counts files where the rule recorded a timing entry.
	Files int
	// Matches counts diagnostics attributed to the rule.
	Matches int
	// Total is the summed recorded execution time.
	Total time.Duration
}

// Aggregator accumulates running sums across FileAnalysisResults.
// Feed it with Add, then produce a Report.
type Aggregator struct {
	Files    int
	Failed   int
	Findings int

	Total    time.Duration
	Parse    time.Duration
	Semantic time.Duration

	Rules map[string]*RuleStats

	SlowestFile  string
	SlowestTotal time.Duration
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{Rules: make(map[string]*RuleStats)}
}

// Add folds one file's result into the running sums. The single slowest
// file by total duration is tracked as it goes by.
func (a *Aggregator) Add(res understory.FileAnalysisResult) {
	a.Files++
	if res.Err != nil {
		a.Failed++
	}
	a.Findings += len(res.Diagnostics)
	a.Total += res.TotalDuration
	a.Parse += res.ParseDuration
	a.Semantic += res.SemanticDuration

	for rule, d := range res.RuleDurations {
		stats := a.ruleStats(rule)
		stats.Files++
		stats.Total += d
	}
	for _, diag := range res.Diagnostics {
		a.ruleStats(diag.Rule).Matches++
	}

	if res.TotalDuration > a.SlowestTotal || a.SlowestFile == "" {
		a.SlowestFile = res.FilePath
		a.SlowestTotal = res.TotalDuration
	}
}

func (a *Aggregator) ruleStats(rule string) *RuleStats {
	stats, ok := a.Rules[rule]
	if !ok {
		stats = &RuleStats{}
		a.Rules[rule] = stats
	}
	return stats
}

// Report is the serialized shape shared by the JSON and CSV exports.
type Report struct {
	Timestamp    time.Time `json:"timestamp"`
	CoreCount    int       `json:"coreCount"`
	FileCount    int       `json:"fileCount"`
	FailedCount  int       `json:"failedCount"`
	FindingCount int       `json:"findingCount"`

	ElapsedMs    float64 `json:"elapsedMs"`
	TotalMs      float64 `json:"totalMs"`
	NormalizedMs float64 `json:"normalizedMs"`
	ParseMs      float64 `json:"parseMs"`
	SemanticMs   float64 `json:"semanticMs"`

	// FilesPerSecond is 0 (never NaN or Inf) when elapsed time is 0.
	FilesPerSecond float64 `json:"filesPerSecond"`

	SlowestFile string  `json:"slowestFile"`
	SlowestMs   float64 `json:"slowestMs"`

	Rules []RuleReport `json:"rulePerformance"`
}

// RuleReport is one rule's row in a Report, ordered slowest first.
type RuleReport struct {
	Rule         string  `json:"ruleId"`
	FileCount    int     `json:"fileCount"`
	MatchCount   int     `json:"matchCount"`
	TotalMs      float64 `json:"totalExecutionTimeMs"`
	NormalizedMs float64 `json:"normalizedExecutionTimeMs"`
	AvgMs        float64 `json:"avgExecutionTimeMs"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Report freezes the accumulated sums into an exportable Report. elapsed is
// the run's wall-clock duration as measured by the scheduler.
func (a *Aggregator) Report(elapsed time.Duration) Report {
	cores := runtime.NumCPU()

	r := Report{
		Timestamp:    time.Now().UTC(),
		CoreCount:    cores,
		FileCount:    a.Files,
		FailedCount:  a.Failed,
		FindingCount: a.Findings,
		ElapsedMs:    ms(elapsed),
		TotalMs:      ms(a.Total),
		NormalizedMs: ms(a.Total) / float64(cores),
		ParseMs:      ms(a.Parse),
		SemanticMs:   ms(a.Semantic),
		SlowestFile:  a.SlowestFile,
		SlowestMs:    ms(a.SlowestTotal),
	}
	if elapsed > 0 {
		r.FilesPerSecond = float64(a.Files) / elapsed.Seconds()
	}

	for rule, stats := range a.Rules {
		rr := RuleReport{
			Rule:         rule,
			FileCount:    stats.Files,
			MatchCount:   stats.Matches,
			TotalMs:      ms(stats.Total),
			NormalizedMs: ms(stats.Total) / float64(cores),
		}
		if stats.Files > 0 {
			rr.AvgMs = rr.TotalMs / float64(stats.Files)
		}
		r.Rules = append(r.Rules, rr)
	}
	sort.Slice(r.Rules, func(i, j int) bool {
		if r.Rules[i].TotalMs != r.Rules[j].TotalMs {
			return r.Rules[i].TotalMs > r.Rules[j].TotalMs
		}
		return r.Rules[i].Rule < r.Rules[j].Rule
	})

	return r
}
