package models

import (
	"strings"
)

// Severity of an integrity check.
type Severity string

const (
	SeverityPass Severity = "PASS"
	SeverityWarn Severity = "WARN"
	SeverityFail Severity = "FAIL"
)

func (s Severity) rank() int {
	switch s {
	case SeverityFail:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of s and o.
func (s Severity) Worse(o Severity) Severity {
	if o.rank() > s.rank() {
		return o
	}
	return s
}

// CheckFinding is one period's outcome of a check.
type CheckFinding struct {
	Period      string   `json:"period"`
	Severity    Severity `json:"severity"`
	Explanation string   `json:"explanation"`
	Discrepancy *float64 `json:"discrepancy,omitempty"`
}

// CheckResult is the outcome of one integrity check across all periods.
type CheckResult struct {
	Ordinal     int            `json:"ordinal"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Severity    Severity       `json:"severity"`
	Explanation string         `json:"explanation"`
	Discrepancy *float64       `json:"discrepancy,omitempty"`
	Applicable  bool           `json:"applicable"`
	Findings    []CheckFinding `json:"findings,omitempty"`
}

type GateState string

const (
	GateClear   GateState = "clear"
	GateWarning GateState = "warning"
	GateBlocked GateState = "blocked"
)

// Gate controls whether results may be shown. A blocked gate hides results
// until the user acknowledges the failing checks.
type Gate struct {
	State          GateState `json:"state"`
	Acknowledged   bool      `json:"acknowledged"`
	AcknowledgedBy string    `json:"acknowledged_by,omitempty"`
	Banner         string    `json:"banner,omitempty"`
	Failing        []string  `json:"failing,omitempty"`
	Warning        []string  `json:"warning,omitempty"`
}

// NewGate derives the gate state from a set of check results.
func NewGate(results []CheckResult) Gate {
	g := Gate{State: GateClear}
	for _, r := range results {
		switch r.Severity {
		case SeverityFail:
			g.Failing = append(g.Failing, r.Name)
		case SeverityWarn:
			g.Warning = append(g.Warning, r.Name)
		}
	}
	switch {
	case len(g.Failing) > 0:
		g.State = GateBlocked
		g.Banner = "Integrity checks failed: " + strings.Join(g.Failing, ", ") + ". Review and acknowledge before relying on these figures."
	case len(g.Warning) > 0:
		g.State = GateWarning
		g.Banner = "Review recommended: " + strings.Join(g.Warning, ", ") + "."
	}
	return g
}

// Visible reports whether normal result display is allowed.
func (g Gate) Visible() bool {
	return g.State != GateBlocked || g.Acknowledged
}

// Acknowledge returns a copy of the gate acknowledged by the given user.
func (g Gate) Acknowledge(by string) Gate {
	g.Acknowledged = true
	g.AcknowledgedBy = by
	return g
}
