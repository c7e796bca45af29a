package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leoalfonso/WDN-optim/internal/evo"
	"github.com/leoalfonso/WDN-optim/internal/store"
	"github.com/leoalfonso/WDN-optim/internal/wdn"
)

var (
	runMode        string
	statusTable    string
	popSize        int
	generations    int
	crossoverProb  float64
	mutationProb   float64
	crossoverKind  string
	mutationKind   string
	tournamentSize int
	seed           int64
	dedup          bool
	elitism        bool
	workers        int
	onEvalError    string
	maxOperations  int
	threshold      float64
	horizonSteps   int
	outPath        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization",
	Long: `Runs intervention selection against the built-in demo network or a
status table CSV, and writes the best solutions as JSON.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "ga", "Optimization mode: ga, nsga2")
	runCmd.Flags().StringVar(&statusTable, "status-table", "", "Element status table CSV (default: built-in demo network)")
	runCmd.Flags().IntVar(&popSize, "pop", 40, "Population size")
	runCmd.Flags().IntVar(&generations, "gens", 100, "Number of generations")
	runCmd.Flags().Float64Var(&crossoverProb, "pc", 0.9, "Crossover probability")
	runCmd.Flags().Float64Var(&mutationProb, "pm", -1, "Per-gene mutation probability (negative = 1/N)")
	runCmd.Flags().StringVar(&crossoverKind, "crossover", "two-point", "Crossover operator: two-point, hux")
	runCmd.Flags().StringVar(&mutationKind, "mutation", "bit-flip", "Mutation operator: bit-flip")
	runCmd.Flags().IntVar(&tournamentSize, "tournament", 2, "Tournament size")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().BoolVar(&dedup, "dedup", true, "Eliminate duplicate genomes in offspring")
	runCmd.Flags().BoolVar(&elitism, "elitism", true, "Elitist survivor selection (ga mode)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Parallel evaluation workers (0 = GOMAXPROCS)")
	runCmd.Flags().StringVar(&onEvalError, "on-eval-error", "penalize", "Evaluation error policy: penalize, abort")
	runCmd.Flags().IntVar(&maxOperations, "max-operations", 0, "Constraint: maximum interventions (0 = unconstrained)")
	runCmd.Flags().Float64Var(&threshold, "threshold", 0, "Pollution concentration threshold (0 = default)")
	runCmd.Flags().IntVar(&horizonSteps, "horizon", 0, "Simulation horizon steps (0 = default)")
	runCmd.Flags().StringVar(&outPath, "out", "", "Output JSON path (default: stdout)")

	rootCmd.AddCommand(runCmd)
}

// runReport is the JSON document a run writes.
type runReport struct {
	Mode        string           `json:"mode"`
	Generations int              `json:"generations"`
	Elapsed     float64          `json:"elapsedSeconds"`
	Elements    []string         `json:"elements"`
	Baseline    []int            `json:"baseline"`
	Solutions   []store.Solution `json:"solutions"`
}

func runOptimization(cmd *cobra.Command, args []string) error {
	config := flagsToRunConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := executeRun(ctx, config, nil)
	if err != nil {
		return err
	}
	return writeReport(report, outPath)
}

// flagsToRunConfig collects the run command flags.
func flagsToRunConfig() store.RunConfig {
	return store.RunConfig{
		StatusTable:         statusTable,
		Mode:                runMode,
		PopSize:             popSize,
		Generations:         generations,
		CrossoverProb:       crossoverProb,
		MutationProb:        mutationProb,
		Crossover:           crossoverKind,
		Mutation:            mutationKind,
		TournamentSize:      tournamentSize,
		Seed:                seed,
		EliminateDuplicates: dedup,
		Elitism:             elitism,
		OnEvalError:         onEvalError,
		Workers:             workers,
		MaxOperations:       maxOperations,
		Threshold:           threshold,
		HorizonSteps:        horizonSteps,
	}
}

// executeRun builds the problem, runs the configured engine, and
// returns a report. Initial genomes seed the population when resuming
// from a checkpoint.
func executeRun(ctx context.Context, config store.RunConfig, initial []evo.Genome) (*runReport, error) {
	network := wdn.DemoNetwork()

	var table *wdn.StatusTable
	if config.StatusTable == "" {
		table = wdn.DemoStatusTable()
	} else {
		loaded, err := wdn.LoadStatusTable(config.StatusTable)
		if err != nil {
			return nil, fmt.Errorf("failed to load status table: %w", err)
		}
		table = loaded
	}
	if err := table.Validate(network.NumElements()); err != nil {
		return nil, err
	}

	simCfg := wdn.DefaultSimConfig()
	if config.Threshold > 0 {
		simCfg.Threshold = config.Threshold
	}
	if config.HorizonSteps > 0 {
		simCfg.HorizonSteps = config.HorizonSteps
	}

	sim, err := wdn.NewRefSimulator(network, simCfg)
	if err != nil {
		return nil, err
	}

	multi := config.Mode == "nsga2"
	problem, err := wdn.BuildProblem(table, sim, multi, config.MaxOperations)
	if err != nil {
		return nil, err
	}

	cfg := evo.DefaultConfig()
	cfg.PopSize = config.PopSize
	cfg.Generations = config.Generations
	cfg.CrossoverProb = config.CrossoverProb
	cfg.MutationProb = config.MutationProb
	cfg.Crossover = evo.CrossoverKind(config.Crossover)
	cfg.Mutation = evo.MutationKind(config.Mutation)
	cfg.TournamentSize = config.TournamentSize
	cfg.Seed = config.Seed
	cfg.EliminateDuplicates = config.EliminateDuplicates
	cfg.Elitism = config.Elitism
	cfg.OnEvalError = evo.EvalErrorPolicy(config.OnEvalError)
	cfg.Workers = config.Workers
	cfg.InitialGenomes = initial

	slog.Info("Starting optimization",
		"mode", config.Mode,
		"elements", problem.NumVars,
		"pop", cfg.PopSize,
		"gens", cfg.Generations,
		"seed", cfg.Seed,
	)

	start := time.Now()
	var solutions []store.Solution

	switch config.Mode {
	case "nsga2":
		engine, err := evo.NewNSGAII(problem, cfg)
		if err != nil {
			return nil, err
		}
		result, err := engine.Run(ctx)
		if err != nil {
			return nil, err
		}
		for _, ind := range result.Front {
			solutions = append(solutions, store.Solution{Genome: ind.Genome.Ints(), Objectives: ind.Objectives})
		}
	case "ga":
		engine, err := evo.NewGA(problem, cfg)
		if err != nil {
			return nil, err
		}
		result, err := engine.Run(ctx)
		if err != nil {
			return nil, err
		}
		solutions = []store.Solution{{Genome: result.Best.Genome.Ints(), Objectives: result.Best.Objectives}}
	default:
		return nil, fmt.Errorf("unknown mode: %s", config.Mode)
	}

	elapsed := time.Since(start)

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"solutions", len(solutions),
		"best", solutions[0].Objectives,
	)

	return &runReport{
		Mode:        config.Mode,
		Generations: config.Generations,
		Elapsed:     elapsed.Seconds(),
		Elements:    table.IDs(),
		Baseline:    table.Baseline().Ints(),
		Solutions:   solutions,
	}, nil
}

// writeReport writes the report as indented JSON to a file or stdout.
func writeReport(report *runReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Wrote %s (%d solution(s))\n", path, len(report.Solutions))
	return nil
}
