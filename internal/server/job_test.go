package server

import (
	"context"
	"testing"
	"time"
)

func testRunConfig() RunConfig {
	return RunConfig{
		Mode:        "ga",
		PopSize:     10,
		Generations: 5,
		Seed:        42,
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config.Mode != "ga" || job.Config.PopSize != 10 {
		t.Errorf("Config not set correctly: %+v", job.Config)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	jm.CreateJob(testRunConfig())
	jm.CreateJob(testRunConfig())

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Generation = 10
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.Generation != 10 {
		t.Error("Generation should be updated")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())
	ctx, cancel := context.WithCancel(context.Background())
	jm.RegisterCancel(job.ID, cancel)

	if !jm.CancelJob(job.ID) {
		t.Error("Pending job should be cancellable")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Cancel should have fired the job context")
	}

	if jm.CancelJob("nonexistent") {
		t.Error("Cancelling a nonexistent job should fail")
	}

	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCompleted })
	if jm.CancelJob(job.ID) {
		t.Error("Completed job should not be cancellable")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	running := jm.CreateJob(testRunConfig())
	jm.CreateJob(testRunConfig())
	jm.UpdateJob(running.ID, func(j *Job) { j.State = StateRunning })

	runningJobs := jm.GetRunningJobs()
	if len(runningJobs) != 1 || runningJobs[0].ID != running.ID {
		t.Errorf("Expected only the running job, got %d jobs", len(runningJobs))
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	// Simulate concurrent updates
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(generation int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.Generation = generation
				time.Sleep(1 * time.Millisecond)
			})
			done <- true
		}(i)
	}

	// Wait for all updates
	for i := 0; i < 10; i++ {
		<-done
	}

	// Should not crash - actual value depends on race
	_, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}
