// Package wdn binds the optimization engine to the water distribution
// network domain: controllable element status tables, the pollution
// simulation boundary, and the objective functions built on them.
package wdn

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/leoalfonso/WDN-optim/internal/evo"
)

// Element is one binary-controllable network element (a valve or pump)
// with its original operational status.
type Element struct {
	ID   string
	Open bool
}

// StatusTable is the ordered original-status table. Its length defines
// the decision vector length N; index i of a decision vector controls
// Elements[i].
type StatusTable struct {
	Elements []Element
}

// Len returns the decision vector length N.
func (t *StatusTable) Len() int {
	return len(t.Elements)
}

// Baseline returns the original statuses as a genome (1 = open).
func (t *StatusTable) Baseline() evo.Genome {
	g := make(evo.Genome, len(t.Elements))
	for i, e := range t.Elements {
		if e.Open {
			g[i] = 1
		}
	}
	return g
}

// IDs returns the element identifiers in decision order.
func (t *StatusTable) IDs() []string {
	ids := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		ids[i] = e.ID
	}
	return ids
}

// Validate checks the table against an expected decision length.
func (t *StatusTable) Validate(numVars int) error {
	if len(t.Elements) != numVars {
		return &evo.ProblemError{
			Field:  "StatusTable",
			Reason: fmt.Sprintf("table has %d elements, decision length is %d", len(t.Elements), numVars),
		}
	}
	return nil
}

// LoadStatusTable reads an element status table from a CSV file with
// two columns: element ID and original status. Status accepts 1/0,
// open/closed and true/false, case-insensitive. A first row whose
// status column does not parse is treated as a header.
func LoadStatusTable(path string) (*StatusTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open status table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse status table: %w", err)
	}
	if len(records) == 0 {
		return nil, &evo.ProblemError{Field: "StatusTable", Reason: "file " + path + " is empty"}
	}

	table := &StatusTable{}
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, &evo.ProblemError{
				Field:  "StatusTable",
				Reason: fmt.Sprintf("row %d has %d columns, want 2", i+1, len(rec)),
			}
		}
		open, err := parseStatus(rec[1])
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, &evo.ProblemError{
				Field:  "StatusTable",
				Reason: fmt.Sprintf("row %d: %v", i+1, err),
			}
		}
		table.Elements = append(table.Elements, Element{
			ID:   strings.TrimSpace(rec[0]),
			Open: open,
		})
	}

	if len(table.Elements) == 0 {
		return nil, &evo.ProblemError{Field: "StatusTable", Reason: "no element rows in " + path}
	}
	return table, nil
}

func parseStatus(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "open", "true":
		return true, nil
	case "0", "closed", "false":
		return false, nil
	default:
		return false, fmt.Errorf("unknown status %q", s)
	}
}
