package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leoalfonso/WDN-optim/internal/evo"
	"github.com/leoalfonso/WDN-optim/internal/store"
	"github.com/leoalfonso/WDN-optim/internal/wdn"
)

// runJob executes an optimization run in the background.
// If checkpointStore is not nil and the config has CheckpointInterval > 0,
// a checkpoint is saved every CheckpointInterval generations.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	}); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "mode", job.Config.Mode)

	problem, err := buildProblem(job.Config)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	cfg := engineConfig(job.Config)

	var tracer *store.TraceWriter
	if checkpointStore != nil {
		if fs, ok := checkpointStore.(*store.FSStore); ok {
			tracer, err = fs.NewTraceWriter(jobID)
			if err != nil {
				slog.Warn("Trace disabled", "job_id", jobID, "error", err)
			} else {
				defer tracer.Close()
			}
		}
	}

	observe := func(report evo.GenerationReport) {
		best := solutionsFromReport(report, job.Config.Mode)

		jm.UpdateJob(jobID, func(j *Job) {
			j.Generation = report.Generation
			j.Best = best
		})

		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:      jobID,
			State:      StateRunning,
			Generation: report.Generation,
			Best:       bestObjectives(best),
			FrontSize:  report.FrontSize,
			Distinct:   report.Stats.Distinct,
			Timestamp:  time.Now(),
		})

		if tracer != nil {
			entry := store.TraceEntry{
				Generation: report.Generation,
				Best:       bestObjectives(best),
				FrontSize:  report.FrontSize,
				Distinct:   report.Stats.Distinct,
				Timestamp:  time.Now(),
			}
			if err := tracer.Append(entry); err != nil {
				slog.Warn("Failed to append trace entry", "job_id", jobID, "error", err)
			}
		}

		interval := job.Config.CheckpointInterval
		if checkpointStore != nil && interval > 0 && report.Generation > 0 && report.Generation%interval == 0 {
			checkpoint := store.NewCheckpoint(jobID, best, report.Generation, job.Config)
			if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			} else {
				slog.Info("Checkpoint saved", "job_id", jobID, "generation", report.Generation)
			}
		}
	}

	start := time.Now()
	var (
		best       []store.Solution
		generation int
	)

	switch job.Config.Mode {
	case "nsga2":
		engine, err := evo.NewNSGAII(problem, cfg)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		engine.OnGeneration(observe)
		result, err := engine.Run(ctx)
		if err != nil {
			return finishWithError(jm, jobID, err)
		}
		best = make([]store.Solution, 0, len(result.Front))
		for _, ind := range result.Front {
			best = append(best, store.Solution{Genome: ind.Genome.Ints(), Objectives: ind.Objectives})
		}
		generation = result.Generations
	case "ga", "":
		engine, err := evo.NewGA(problem, cfg)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		engine.OnGeneration(observe)
		result, err := engine.Run(ctx)
		if err != nil {
			return finishWithError(jm, jobID, err)
		}
		best = []store.Solution{{Genome: result.Best.Genome.Ints(), Objectives: result.Best.Objectives}}
		generation = result.Generations
	default:
		err := fmt.Errorf("unknown mode: %s", job.Config.Mode)
		markJobFailed(jm, jobID, err)
		return err
	}

	elapsed := time.Since(start)

	endTime := time.Now()
	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Best = best
		j.Generation = generation
		j.EndTime = &endTime
	}); err != nil {
		return err
	}

	if checkpointStore != nil {
		checkpoint := store.NewCheckpoint(jobID, best, generation, job.Config)
		if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"generations", generation,
		"best", bestObjectives(best),
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Generation: generation,
		Best:       bestObjectives(best),
		FrontSize:  len(best),
		Timestamp:  time.Now(),
	})

	return nil
}

// buildProblem constructs the optimization problem from a run config,
// using the built-in demo network unless a status table is given.
func buildProblem(config RunConfig) (*evo.Problem, error) {
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
	return wdn.BuildProblem(table, sim, multi, config.MaxOperations)
}

// engineConfig maps a run config onto the engine configuration.
func engineConfig(config RunConfig) evo.Config {
	cfg := evo.DefaultConfig()
	if config.PopSize > 0 {
		cfg.PopSize = config.PopSize
	}
	if config.Generations > 0 {
		cfg.Generations = config.Generations
	}
	if config.CrossoverProb > 0 {
		cfg.CrossoverProb = config.CrossoverProb
	}
	if config.MutationProb != 0 {
		cfg.MutationProb = config.MutationProb
	}
	if config.Crossover != "" {
		cfg.Crossover = evo.CrossoverKind(config.Crossover)
	}
	if config.Mutation != "" {
		cfg.Mutation = evo.MutationKind(config.Mutation)
	}
	if config.TournamentSize > 0 {
		cfg.TournamentSize = config.TournamentSize
	}
	cfg.Seed = config.Seed
	cfg.EliminateDuplicates = config.EliminateDuplicates
	cfg.Elitism = config.Elitism
	if config.OnEvalError != "" {
		cfg.OnEvalError = evo.EvalErrorPolicy(config.OnEvalError)
	}
	if config.Workers > 0 {
		cfg.Workers = config.Workers
	}
	return cfg
}

// solutionsFromReport extracts the reportable best set for a generation.
func solutionsFromReport(report evo.GenerationReport, mode string) []store.Solution {
	if mode == "nsga2" {
		front := evo.Front(report.Population)
		best := make([]store.Solution, 0, len(front))
		for _, ind := range front {
			best = append(best, store.Solution{Genome: ind.Genome.Ints(), Objectives: ind.Objectives})
		}
		return best
	}
	return []store.Solution{{
		Genome:     report.Best.Genome.Ints(),
		Objectives: report.Best.Objectives,
	}}
}

// bestObjectives returns the objective vector of the first solution, or
// nil when there are none.
func bestObjectives(best []store.Solution) []float64 {
	if len(best) == 0 {
		return nil
	}
	return best[0].Objectives
}

// finishWithError distinguishes cancellation from failure.
func finishWithError(jm *JobManager, jobID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		markJobCancelled(jm, jobID)
		return err
	}
	markJobFailed(jm, jobID, err)
	return err
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
