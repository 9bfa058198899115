package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/config"
	"github.com/jward/understory/internal/metrics"
	"github.com/jward/understory/internal/rules"
	"github.com/jward/understory/internal/store"
)

var (
	flagConfig     string
	flagRules      string
	flagWorkers    int
	flagBatchSize  int
	flagFindings   string
	flagMetricsOut string
	flagMetricsCSV string
	flagHistoryDB  string
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Analyze a file or directory",
	Long:  "Discovers analyzable files under the given path (default: current directory), runs the enabled rules against them in parallel, and reports findings plus a metrics summary.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagConfig, "config", "", "rule configuration file (default: understory.toml in the target directory)")
	checkCmd.Flags().StringVar(&flagRules, "rules", "", "comma-separated rules to enable, overriding the configuration")
	checkCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker-pool size (default: number of CPUs)")
	checkCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "files per batch (default: 2x number of CPUs)")
	checkCmd.Flags().StringVar(&flagFindings, "findings", "", "write findings JSON to this file")
	checkCmd.Flags().StringVar(&flagMetricsOut, "metrics-json", "", "write the metrics report JSON to this file")
	checkCmd.Flags().StringVar(&flagMetricsCSV, "metrics-csv", "", "write the metrics report CSV to this file")
	checkCmd.Flags().StringVar(&flagHistoryDB, "db", "", "record the run in this SQLite history database")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	reg := rules.DefaultRegistry()
	if err := applyConfig(reg, target); err != nil {
		return err
	}
	if flagRules != "" {
		reg.Disable(reg.EnabledRules()...)
		for _, name := range strings.Split(flagRules, ",") {
			reg.Enable(strings.TrimSpace(name))
		}
	}
	if len(reg.EnabledRules()) == 0 {
		// No configuration anywhere: run the whole built-in catalog.
		reg.Enable(reg.RegisteredRules()...)
	}

	files, err := collectFiles(target)
	if err != nil {
		return err
	}

	engine := understory.New(reg,
		understory.WithVerbosity(verbosity()),
		understory.WithWorkers(flagWorkers),
		understory.WithBatchSize(flagBatchSize),
	)
	results, elapsed := engine.Analyze(cmd.Context(), files)

	// Result order is batch-major; sort for stable output.
	sort.Slice(results, func(i, j int) bool {
		return results[i].FilePath < results[j].FilePath
	})

	errorCount := renderFindings(results)

	agg := metrics.NewAggregator()
	for _, res := range results {
		agg.Add(res)
	}
	report := agg.Report(elapsed)
	report.WriteSummary(os.Stderr)

	if err := exportArtifacts(results, report); err != nil {
		return err
	}
	if flagHistoryDB != "" {
		if err := recordRun(flagHistoryDB, results, report); err != nil {
			return err
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("%d error-severity finding(s)", errorCount)
	}
	return nil
}

// applyConfig loads --config, or the default file next to the target if it
// exists. Absent configuration is not an error.
func applyConfig(reg *understory.Registry, target string) error {
	path := flagConfig
	if path == "" {
		candidate := filepath.Join(target, config.DefaultFileName)
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			candidate = filepath.Join(filepath.Dir(target), config.DefaultFileName)
		}
		if _, err := os.Stat(candidate); err != nil {
			return nil
		}
		path = candidate
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	return cfg.Apply(reg)
}

// collectFiles accepts a single file directly and discovers under
// directories.
func collectFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return []string{target}, nil
	}
	files, err := understory.DiscoverFiles(target)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "understory: no analyzable files under %s\n", target)
	}
	return files, nil
}

// exportArtifacts writes the optional findings and metrics files.
func exportArtifacts(results []understory.FileAnalysisResult, report metrics.Report) error {
	if flagFindings != "" {
		if err := writeFindingsJSON(flagFindings, results); err != nil {
			return err
		}
	}
	if flagMetricsOut != "" {
		f, err := os.Create(flagMetricsOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", flagMetricsOut, err)
		}
		defer f.Close()
		if err := report.WriteJSON(f); err != nil {
			return err
		}
	}
	if flagMetricsCSV != "" {
		f, err := os.Create(flagMetricsCSV)
		if err != nil {
			return fmt.Errorf("create %s: %w", flagMetricsCSV, err)
		}
		defer f.Close()
		if err := report.WriteCSV(f); err != nil {
			return err
		}
	}
	return nil
}

// recordRun persists the run, its findings, and its rule stats.
func recordRun(dbPath string, results []understory.FileAnalysisResult, report metrics.Report) error {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return err
	}

	runID, err := s.InsertRun(&store.Run{
		StartedAt:      time.Now(),
		FileCount:      report.FileCount,
		FailedCount:    report.FailedCount,
		FindingCount:   report.FindingCount,
		ElapsedMs:      report.ElapsedMs,
		NormalizedMs:   report.NormalizedMs,
		FilesPerSecond: report.FilesPerSecond,
	})
	if err != nil {
		return err
	}

	var findings []store.Finding
	for _, res := range results {
		for _, d := range res.Diagnostics {
			findings = append(findings, store.Finding{
				Rule:     d.Rule,
				Severity: d.Severity.String(),
				File:     res.FilePath,
				Line:     d.Line,
				Column:   d.Column,
				Message:  d.Message,
				Help:     d.Help,
			})
		}
	}
	if err := s.InsertFindings(runID, findings); err != nil {
		return err
	}

	stats := make([]store.RuleStat, 0, len(report.Rules))
	for _, rr := range report.Rules {
		stats = append(stats, store.RuleStat{
			Rule:         rr.Rule,
			FileCount:    rr.FileCount,
			MatchCount:   rr.MatchCount,
			TotalMs:      rr.TotalMs,
			NormalizedMs: rr.NormalizedMs,
		})
	}
	return s.InsertRuleStats(runID, stats)
}
