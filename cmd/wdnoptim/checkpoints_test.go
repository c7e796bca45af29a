package main

import (
	"testing"
	"time"

	"github.com/leoalfonso/WDN-optim/internal/store"
)

func TestSelectCheckpointsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)}, // 10 days old
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},  // 5 days old
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},  // 1 day old
		{RunID: "run4", Timestamp: now.AddDate(0, 0, -30)}, // 30 days old
	}

	// Delete checkpoints older than 7 days
	toDelete := selectCheckpointsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	found10 := false
	found30 := false
	for _, info := range toDelete {
		if info.RunID == "run1" {
			found10 = true
		}
		if info.RunID == "run4" {
			found30 = true
		}
	}

	if !found10 || !found30 {
		t.Error("Expected run1 and run4 to be selected for deletion")
	}
}

func TestSelectCheckpointsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{RunID: "run4", Timestamp: now.AddDate(0, 0, -30)},
	}

	// Keep only the most recent 2 runs
	toDelete := selectCheckpointsForDeletion(infos, 2, 0)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	found30 := false
	found10 := false
	for _, info := range toDelete {
		if info.RunID == "run4" {
			found30 = true
		}
		if info.RunID == "run1" {
			found10 = true
		}
	}

	if !found30 || !found10 {
		t.Error("Expected run4 and run1 to be selected for deletion (oldest)")
	}
}

func TestSelectCheckpointsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{RunID: "run4", Timestamp: now.AddDate(0, 0, -30)},
	}

	// Age policy deletes run1 and run4, count policy would delete the
	// same two; no run may appear twice.
	toDelete := selectCheckpointsForDeletion(infos, 2, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}
	seen := make(map[string]bool)
	for _, info := range toDelete {
		if seen[info.RunID] {
			t.Errorf("Run %s selected twice", info.RunID)
		}
		seen[info.RunID] = true
	}
}

func TestSelectCheckpointsForDeletion_NothingToDo(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -1)},
		{RunID: "run2", Timestamp: now},
	}

	if toDelete := selectCheckpointsForDeletion(infos, 5, 7); len(toDelete) != 0 {
		t.Errorf("Expected no deletions, got %d", len(toDelete))
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("shortID = %q", got)
	}
}

func TestFormatObjectives(t *testing.T) {
	if got := formatObjectives(nil); got != "-" {
		t.Errorf("formatObjectives(nil) = %q", got)
	}
	if got := formatObjectives([]float64{1, 2.5}); got != "1.00, 2.50" {
		t.Errorf("formatObjectives = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
