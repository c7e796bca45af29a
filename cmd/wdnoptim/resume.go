package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leoalfonso/WDN-optim/internal/evo"
	"github.com/leoalfonso/WDN-optim/internal/store"
)

var (
	resumeDataDir     string
	resumeGenerations int
	resumeOutPath     string
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume an optimization from a checkpoint",
	Long: `Loads a saved checkpoint and continues the run: the checkpointed
solutions seed the initial population and the rest is sampled fresh.
The updated checkpoint is written back when the run finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeGenerations, "gens", 0, "Generations to run (0 = the checkpointed budget)")
	resumeCmd.Flags().StringVar(&resumeOutPath, "out", "", "Output JSON path (default: stdout)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	runID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(runID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}

	config := checkpoint.Config
	if resumeGenerations > 0 {
		config.Generations = resumeGenerations
	}
	if err := checkpoint.IsCompatible(config); err != nil {
		return err
	}

	initial := make([]evo.Genome, 0, len(checkpoint.Best))
	for _, sol := range checkpoint.Best {
		initial = append(initial, evo.GenomeFromInts(sol.Genome))
	}

	slog.Info("Resuming run",
		"run_id", runID,
		"from_generation", checkpoint.Generation,
		"seeded", len(initial),
		"gens", config.Generations,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := executeRun(ctx, config, initial)
	if err != nil {
		return err
	}

	updated := store.NewCheckpoint(runID, report.Solutions, checkpoint.Generation+config.Generations, config)
	if err := checkpointStore.SaveCheckpoint(runID, updated); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return writeReport(report, resumeOutPath)
}
