package wdn

import (
	"context"
	"testing"
)

func allOpen(n int) []bool {
	open := make([]bool, n)
	for i := range open {
		open[i] = true
	}
	return open
}

func TestRefSimulatorDeterministic(t *testing.T) {
	sim, err := NewRefSimulator(DemoNetwork(), DefaultSimConfig())
	if err != nil {
		t.Fatalf("NewRefSimulator failed: %v", err)
	}

	open := allOpen(7)
	first, err := sim.Simulate(context.Background(), open)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := sim.Simulate(context.Background(), open)
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if again != first {
			t.Fatalf("identical inputs gave %v then %v", first, again)
		}
	}
}

func TestRefSimulatorAllOpenReachesEverything(t *testing.T) {
	sim, err := NewRefSimulator(DemoNetwork(), DefaultSimConfig())
	if err != nil {
		t.Fatalf("NewRefSimulator failed: %v", err)
	}

	got, err := sim.Simulate(context.Background(), allOpen(7))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if got != 8 {
		t.Errorf("all-open polluted nodes = %v, want 8", got)
	}
}

func TestRefSimulatorStatusLengthMismatch(t *testing.T) {
	sim, err := NewRefSimulator(DemoNetwork(), DefaultSimConfig())
	if err != nil {
		t.Fatalf("NewRefSimulator failed: %v", err)
	}

	if _, err := sim.Simulate(context.Background(), allOpen(3)); err == nil {
		t.Error("expected error for wrong status vector length")
	}
}

func TestRefSimulatorHorizonBoundsSpread(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.HorizonSteps = 1

	sim, err := NewRefSimulator(DemoNetwork(), cfg)
	if err != nil {
		t.Fatalf("NewRefSimulator failed: %v", err)
	}

	got, err := sim.Simulate(context.Background(), allOpen(7))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	// One hop from J0 reaches J1 and J4 only.
	if got != 3 {
		t.Errorf("horizon-1 polluted nodes = %v, want 3", got)
	}
}

func TestRefSimulatorThresholdCutsOffDistantNodes(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.Threshold = 0.035

	sim, err := NewRefSimulator(DemoNetwork(), cfg)
	if err != nil {
		t.Fatalf("NewRefSimulator failed: %v", err)
	}

	got, err := sim.Simulate(context.Background(), allOpen(7))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	// 0.1 kg/m3 decaying 25% per hop is 0.0316 kg/m3 after four hops,
	// so J7 (depth 4) stays below the stricter threshold.
	if got != 7 {
		t.Errorf("polluted nodes at 0.035 threshold = %v, want 7", got)
	}
}

func TestRefSimulatorCancelledContext(t *testing.T) {
	sim, err := NewRefSimulator(DemoNetwork(), DefaultSimConfig())
	if err != nil {
		t.Fatalf("NewRefSimulator failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Simulate(ctx, allOpen(7)); err == nil {
		t.Error("expected context error")
	}
}

func TestSimConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
	}{
		{"negative horizon", func(c *SimConfig) { c.HorizonSteps = -1 }},
		{"negative threshold", func(c *SimConfig) { c.Threshold = -0.1 }},
		{"zero source concentration", func(c *SimConfig) { c.SourceConcentration = 0 }},
		{"decay out of range", func(c *SimConfig) { c.DecayPerStep = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNetworkValidate(t *testing.T) {
	net := DemoNetwork()
	if err := net.Validate(); err != nil {
		t.Errorf("demo network invalid: %v", err)
	}
	if net.NumElements() != 7 {
		t.Errorf("NumElements = %d, want 7", net.NumElements())
	}

	bad := &Network{
		NodeIDs: []string{"J0"},
		Source:  0,
		Pipes:   []Pipe{{From: 0, To: 5, Element: 0}},
	}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for pipe referencing unknown node")
	}
}
