package wdn

import (
	"context"
	"fmt"
	"math"
)

// Simulator is the boundary to the hydraulic/water-quality collaborator.
// Given the open/closed status of every controllable element it returns
// the number of nodes polluted above the configured threshold at the
// end of the simulated horizon. Implementations must be deterministic
// for identical inputs and safe for concurrent invocation.
type Simulator interface {
	Simulate(ctx context.Context, open []bool) (float64, error)
}

// SimConfig carries the water-quality parameters of a simulation.
// The pollution threshold is deliberately a parameter, not a constant.
type SimConfig struct {
	// HorizonSteps bounds how far the contaminant travels.
	HorizonSteps int

	// Threshold is the concentration (kg/m3) above which a node counts
	// as polluted.
	Threshold float64

	// SourceConcentration is the contaminant concentration (kg/m3) at
	// the injection node.
	SourceConcentration float64

	// DecayPerStep is the fractional concentration loss per pipe hop.
	DecayPerStep float64
}

// DefaultSimConfig returns the parameters used when the caller does not
// override them.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		HorizonSteps:        10,
		Threshold:           0.02,
		SourceConcentration: 0.1,
		DecayPerStep:        0.25,
	}
}

// Validate checks the simulation parameters.
func (c *SimConfig) Validate() error {
	if c.HorizonSteps < 0 {
		return fmt.Errorf("horizon steps cannot be negative")
	}
	if c.Threshold < 0 {
		return fmt.Errorf("pollution threshold cannot be negative")
	}
	if c.SourceConcentration <= 0 {
		return fmt.Errorf("source concentration must be positive")
	}
	if c.DecayPerStep < 0 || c.DecayPerStep >= 1 {
		return fmt.Errorf("decay per step must be in [0,1)")
	}
	return nil
}

// Pipe is a directed connection between two nodes. Element is the
// decision index of the valve controlling it, or -1 for a fixed-open
// pipe.
type Pipe struct {
	From    int
	To      int
	Element int
}

// Network is a static pipe network topology.
type Network struct {
	NodeIDs []string
	Pipes   []Pipe
	Source  int
}

// NumElements returns the number of controllable elements referenced by
// the network's pipes.
func (n *Network) NumElements() int {
	max := -1
	for _, p := range n.Pipes {
		if p.Element > max {
			max = p.Element
		}
	}
	return max + 1
}

// Validate checks topology consistency.
func (n *Network) Validate() error {
	if len(n.NodeIDs) == 0 {
		return fmt.Errorf("network has no nodes")
	}
	if n.Source < 0 || n.Source >= len(n.NodeIDs) {
		return fmt.Errorf("source node index %d out of range", n.Source)
	}
	for i, p := range n.Pipes {
		if p.From < 0 || p.From >= len(n.NodeIDs) || p.To < 0 || p.To >= len(n.NodeIDs) {
			return fmt.Errorf("pipe %d references unknown node", i)
		}
		if p.Element < -1 {
			return fmt.Errorf("pipe %d has invalid element index %d", i, p.Element)
		}
	}
	return nil
}

// RefSimulator is the built-in deterministic reference simulator: the
// contaminant advances one pipe per step from the source, attenuating
// by DecayPerStep per hop, blocked by closed valves. It stands in for
// the external EPANET-class collaborator behind the same interface and
// keeps all simulation state per call, never shared.
type RefSimulator struct {
	net *Network
	cfg SimConfig
}

// NewRefSimulator builds a reference simulator over a validated network.
func NewRefSimulator(net *Network, cfg SimConfig) (*RefSimulator, error) {
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	return &RefSimulator{net: net, cfg: cfg}, nil
}

// Simulate counts the nodes whose concentration at the end of the
// horizon is at or above the threshold. Breadth-first propagation gives
// each node its minimum hop distance, which under monotone decay is its
// maximum concentration.
func (s *RefSimulator) Simulate(ctx context.Context, open []bool) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if want := s.net.NumElements(); len(open) != want {
		return 0, fmt.Errorf("status vector has %d elements, network needs %d", len(open), want)
	}

	adjacency := make([][]int, len(s.net.NodeIDs))
	for _, p := range s.net.Pipes {
		if p.Element >= 0 && !open[p.Element] {
			continue
		}
		adjacency[p.From] = append(adjacency[p.From], p.To)
	}

	const unreached = -1
	depth := make([]int, len(s.net.NodeIDs))
	for i := range depth {
		depth[i] = unreached
	}
	depth[s.net.Source] = 0

	queue := []int{s.net.Source}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if depth[node] == s.cfg.HorizonSteps {
			continue
		}
		for _, next := range adjacency[node] {
			if depth[next] == unreached {
				depth[next] = depth[node] + 1
				queue = append(queue, next)
			}
		}
	}

	polluted := 0.0
	for _, d := range depth {
		if d == unreached {
			continue
		}
		conc := s.cfg.SourceConcentration * math.Pow(1-s.cfg.DecayPerStep, float64(d))
		if conc >= s.cfg.Threshold {
			polluted++
		}
	}
	return polluted, nil
}

// DemoNetwork returns a small fixed topology with seven controllable
// valves, used by the CLI when no external model is bound and by the
// end-to-end tests.
func DemoNetwork() *Network {
	return &Network{
		NodeIDs: []string{"J0", "J1", "J2", "J3", "J4", "J5", "J6", "J7"},
		Source:  0,
		Pipes: []Pipe{
			{From: 0, To: 1, Element: 0},
			{From: 1, To: 2, Element: 1},
			{From: 2, To: 3, Element: 2},
			{From: 0, To: 4, Element: 3},
			{From: 4, To: 5, Element: 4},
			{From: 5, To: 3, Element: 5},
			{From: 4, To: 6, Element: 6},
			{From: 3, To: 7, Element: -1},
		},
	}
}

// DemoStatusTable returns the original statuses matching DemoNetwork:
// the first five valves open, the last two closed.
func DemoStatusTable() *StatusTable {
	return &StatusTable{Elements: []Element{
		{ID: "V0", Open: true},
		{ID: "V1", Open: true},
		{ID: "V2", Open: true},
		{ID: "V3", Open: true},
		{ID: "V4", Open: true},
		{ID: "V5", Open: false},
		{ID: "V6", Open: false},
	}}
}
