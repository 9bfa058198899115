package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/understory/internal/store"
)

var (
	flagHistoryPath  string
	flagHistoryLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent analysis runs from the history database",
	Long:  "Lists recorded runs with their normalized CPU time and throughput so performance can be compared across runs and machines.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryPath, "db", "understory.db", "SQLite history database path")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(flagHistoryPath)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return err
	}

	runs, err := s.RecentRuns(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	fmt.Printf("%-5s %-20s %8s %9s %12s %12s %10s\n",
		"ID", "STARTED", "FILES", "FINDINGS", "ELAPSED_MS", "NORM_MS", "FILES/S")
	for _, r := range runs {
		fmt.Printf("%-5d %-20s %8d %9d %12.1f %12.1f %10.2f\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FileCount, r.FindingCount, r.ElapsedMs, r.NormalizedMs, r.FilesPerSecond)
	}
	return nil
}
