package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/jward/understory"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgBlue, color.Bold)
	ruleColor = color.New(color.Faint)
)

func severityLabel(sev understory.Severity) string {
	switch sev {
	case understory.SevError:
		return errColor.Sprint("error")
	case understory.SevWarning:
		return warnColor.Sprint("warning")
	default:
		return infoColor.Sprint("info")
	}
}

// renderFindings prints per-file findings to stdout and returns the number
// of error-severity findings. Per-file failures go to stderr.
func renderFindings(results []understory.FileAnalysisResult) int {
	errorCount := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s: %v\n", errColor.Sprint("failed"), res.FilePath, res.Err)
			continue
		}
		for _, d := range res.Diagnostics {
			if d.Severity == understory.SevError {
				errorCount++
			}
			fmt.Printf("%s:%d:%d: %s: %s %s\n",
				res.FilePath, d.Line, d.Column,
				severityLabel(d.Severity), d.Message,
				ruleColor.Sprintf("[%s]", d.Rule))
			if snippet := strings.TrimRight(d.Snippet, " \t"); snippet != "" {
				fmt.Printf("    %s\n", snippet)
			}
			if d.Help != "" {
				fmt.Printf("    %s %s\n", infoColor.Sprint("help:"), d.Help)
			}
		}
	}
	return errorCount
}

// findingEntry is one row of the findings JSON export.
type findingEntry struct {
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Help     string `json:"help,omitempty"`
}

// writeFindingsJSON exports every diagnostic to a findings file.
func writeFindingsJSON(path string, results []understory.FileAnalysisResult) error {
	findings := make([]findingEntry, 0)
	for _, res := range results {
		for _, d := range res.Diagnostics {
			findings = append(findings, findingEntry{
				Rule:     d.Rule,
				Message:  d.Message,
				File:     res.FilePath,
				Line:     d.Line,
				Column:   d.Column,
				Severity: d.Severity.String(),
				Help:     d.Help,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(findings); err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}
	return nil
}
