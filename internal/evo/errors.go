package evo

import "fmt"

// ConfigError reports an invalid run configuration. It is fatal and
// surfaced before any generation runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// ProblemError reports an inconsistent problem definition (decision
// length, objective count, missing callables). Fatal before any
// generation runs.
type ProblemError struct {
	Field  string
	Reason string
}

func (e *ProblemError) Error() string {
	return "problem error: " + e.Field + " " + e.Reason
}

func (e *ProblemError) Is(target error) bool {
	_, ok := target.(*ProblemError)
	return ok
}

// EvalError reports a failed objective evaluation for one individual.
// The offending genome is carried for reproducibility.
type EvalError struct {
	Genome    Genome
	Objective int
	Err       error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation failed for objective %d on genome %v: %v", e.Objective, e.Genome.Ints(), e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func (e *EvalError) Is(target error) bool {
	_, ok := target.(*EvalError)
	return ok
}

// DegenerateError reports a population that collapsed to duplicates
// after the duplicate-elimination retry budget was exhausted.
type DegenerateError struct {
	Generation int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate population at generation %d: all individuals identical", e.Generation)
}

func (e *DegenerateError) Is(target error) bool {
	_, ok := target.(*DegenerateError)
	return ok
}
