package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leoalfonso/WDN-optim/internal/evo"
	"github.com/leoalfonso/WDN-optim/internal/store"
)

func smallRunConfig(mode string) store.RunConfig {
	return store.RunConfig{
		Mode:                mode,
		PopSize:             10,
		Generations:         5,
		CrossoverProb:       0.9,
		MutationProb:        -1,
		Crossover:           "two-point",
		Mutation:            "bit-flip",
		TournamentSize:      2,
		Seed:                42,
		EliminateDuplicates: true,
		Elitism:             true,
		OnEvalError:         "penalize",
	}
}

func TestExecuteRun_GA(t *testing.T) {
	report, err := executeRun(context.Background(), smallRunConfig("ga"), nil)
	if err != nil {
		t.Fatalf("executeRun failed: %v", err)
	}

	if report.Mode != "ga" {
		t.Errorf("Mode = %q, want ga", report.Mode)
	}
	if len(report.Solutions) != 1 {
		t.Fatalf("len(Solutions) = %d, want 1", len(report.Solutions))
	}
	if len(report.Solutions[0].Genome) != 7 {
		t.Errorf("Genome length = %d, want 7 (demo network)", len(report.Solutions[0].Genome))
	}
	if len(report.Elements) != 7 || len(report.Baseline) != 7 {
		t.Errorf("Elements/Baseline lengths = %d/%d, want 7/7", len(report.Elements), len(report.Baseline))
	}
}

func TestExecuteRun_NSGA2(t *testing.T) {
	report, err := executeRun(context.Background(), smallRunConfig("nsga2"), nil)
	if err != nil {
		t.Fatalf("executeRun failed: %v", err)
	}

	if len(report.Solutions) == 0 {
		t.Fatal("NSGA-II run should report a non-empty front")
	}
	for i, sol := range report.Solutions {
		if len(sol.Objectives) != 2 {
			t.Errorf("solution %d: %d objectives, want 2", i, len(sol.Objectives))
		}
	}
}

func TestExecuteRun_SeededGenomes(t *testing.T) {
	seeded := evo.GenomeFromInts([]int{1, 1, 1, 1, 1, 0, 0})
	report, err := executeRun(context.Background(), smallRunConfig("ga"), []evo.Genome{seeded})
	if err != nil {
		t.Fatalf("executeRun failed: %v", err)
	}
	if len(report.Solutions) != 1 {
		t.Fatalf("len(Solutions) = %d, want 1", len(report.Solutions))
	}

	// Seeding with the baseline genome guarantees the elitist best
	// does no worse than zero operations on the operations objective.
	if report.Solutions[0].Objectives[0] < 0 {
		t.Errorf("objective should be non-negative, got %v", report.Solutions[0].Objectives[0])
	}
}

func TestExecuteRun_SeededLengthMismatch(t *testing.T) {
	seeded := evo.GenomeFromInts([]int{1, 0})
	if _, err := executeRun(context.Background(), smallRunConfig("ga"), []evo.Genome{seeded}); err == nil {
		t.Fatal("executeRun should reject seeded genomes of the wrong length")
	}
}

func TestExecuteRun_UnknownMode(t *testing.T) {
	if _, err := executeRun(context.Background(), smallRunConfig("annealing"), nil); err == nil {
		t.Fatal("executeRun should fail for an unknown mode")
	}
}

func TestWriteReport(t *testing.T) {
	report := &runReport{
		Mode:        "ga",
		Generations: 5,
		Solutions:   []store.Solution{{Genome: []int{1, 0}, Objectives: []float64{2}}},
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := writeReport(report, path); err != nil {
		t.Fatalf("writeReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var decoded runReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Mode != "ga" || len(decoded.Solutions) != 1 {
		t.Errorf("unexpected report: %+v", decoded)
	}
}
