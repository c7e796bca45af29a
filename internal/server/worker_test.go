package server

import (
	"context"
	"errors"
	"testing"

	"github.com/leoalfonso/WDN-optim/internal/store"
)

func TestRunJob_GA(t *testing.T) {
	jm := NewJobManager()
	fs, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	job := jm.CreateJob(RunConfig{
		Mode:        "ga",
		PopSize:     10,
		Generations: 5,
		Seed:        42,
	})

	if err := runJob(context.Background(), jm, fs, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateCompleted {
		t.Fatalf("State = %s, want completed (error: %s)", done.State, done.Error)
	}
	if len(done.Best) != 1 {
		t.Fatalf("len(Best) = %d, want 1", len(done.Best))
	}
	if len(done.Best[0].Genome) != 7 {
		t.Errorf("Genome length = %d, want 7 (demo network)", len(done.Best[0].Genome))
	}
	if done.Generation != 5 {
		t.Errorf("Generation = %d, want 5", done.Generation)
	}
	if done.EndTime == nil {
		t.Error("EndTime should be set")
	}

	// Final checkpoint is written on completion
	checkpoint, err := fs.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if checkpoint.Generation != 5 {
		t.Errorf("Checkpoint generation = %d, want 5", checkpoint.Generation)
	}
}

func TestRunJob_NSGA2(t *testing.T) {
	jm := NewJobManager()
	fs, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	job := jm.CreateJob(RunConfig{
		Mode:        "nsga2",
		PopSize:     12,
		Generations: 5,
		Seed:        7,
	})

	if err := runJob(context.Background(), jm, fs, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateCompleted {
		t.Fatalf("State = %s, want completed (error: %s)", done.State, done.Error)
	}
	if len(done.Best) == 0 {
		t.Fatal("NSGA-II run should report a non-empty front")
	}
	for i, sol := range done.Best {
		if len(sol.Objectives) != 2 {
			t.Errorf("solution %d: %d objectives, want 2", i, len(sol.Objectives))
		}
	}
}

func TestRunJob_PeriodicCheckpointsAndTrace(t *testing.T) {
	jm := NewJobManager()
	fs, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	job := jm.CreateJob(RunConfig{
		Mode:               "ga",
		PopSize:            10,
		Generations:        6,
		Seed:               42,
		CheckpointInterval: 2,
	})

	if err := runJob(context.Background(), jm, fs, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	checkpoint, err := fs.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if checkpoint.Generation != 6 {
		t.Errorf("Checkpoint generation = %d, want 6", checkpoint.Generation)
	}

	// One trace entry per generation plus the initial report
	entries, err := fs.ReadTrace(job.ID)
	if err != nil {
		t.Fatalf("ReadTrace failed: %v", err)
	}
	if len(entries) != 7 {
		t.Errorf("len(trace) = %d, want 7", len(entries))
	}
	if entries[0].Generation != 0 || entries[len(entries)-1].Generation != 6 {
		t.Errorf("trace generations out of order: first %d, last %d",
			entries[0].Generation, entries[len(entries)-1].Generation)
	}
}

func TestRunJob_MissingStatusTable(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(RunConfig{
		Mode:        "ga",
		PopSize:     10,
		Generations: 5,
		Seed:        42,
		StatusTable: "does/not/exist.csv",
	})

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Fatal("runJob should fail for a missing status table")
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateFailed {
		t.Errorf("State = %s, want failed", done.State)
	}
	if done.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_UnknownMode(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(RunConfig{
		Mode:        "annealing",
		PopSize:     10,
		Generations: 5,
	})

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Fatal("runJob should fail for an unknown mode")
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateFailed {
		t.Errorf("State = %s, want failed", done.State)
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(RunConfig{
		Mode:        "ga",
		PopSize:     10,
		Generations: 1000,
		Seed:        42,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runJob(ctx, jm, nil, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runJob error = %v, want context.Canceled", err)
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateCancelled {
		t.Errorf("State = %s, want cancelled", done.State)
	}
}

func TestRunJob_BroadcastsProgress(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(RunConfig{
		Mode:        "ga",
		PopSize:     10,
		Generations: 3,
		Seed:        42,
	})

	ch := jm.broadcaster.Subscribe(job.ID)
	defer jm.broadcaster.Unsubscribe(job.ID, ch)

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	var sawCompleted bool
	for {
		select {
		case event := <-ch:
			if event.State == StateCompleted {
				sawCompleted = true
			}
		default:
			if !sawCompleted {
				t.Error("Expected a completed event on the progress channel")
			}
			return
		}
	}
}
