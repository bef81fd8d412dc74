package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Severity is the ordered gap severity scale. The same four-level
// ordering backs task Priority.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities low < medium < high < critical.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// ValidSeverity reports whether s is one of the four severity levels.
func ValidSeverity(s Severity) bool {
	_, ok := severityRank[s]
	return ok
}

// ParseSeverity normalizes a free-form severity string. Unrecognized
// values default to medium rather than erroring, so a malformed analyzer
// response never aborts routing.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if ValidSeverity(s) {
		return s
	}
	return SeverityMedium
}

// Compare returns -1, 0 or 1 ordering s against other.
func (s Severity) Compare(other Severity) int {
	a, b := severityRank[s], severityRank[other]
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// EffortLevel sizes the remediation work for a single control gap.
type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

// ValidEffort reports whether e is a recognized effort tier.
func ValidEffort(e EffortLevel) bool {
	return e == EffortLow || e == EffortMedium || e == EffortHigh
}

// ControlGap records one control the analyzer found deficient.
type ControlGap struct {
	ControlID         string      `json:"control_id"`
	GapDescription    string      `json:"gap_description"`
	RemediationAction string      `json:"remediation_action"`
	EffortLevel       EffortLevel `json:"effort_level"`
}

// GapAnalysis is the analyzer's verdict on a classified document.
// At most one persists per document, and only for documents that
// already have a classification.
type GapAnalysis struct {
	ID               string       `json:"id"`
	DocumentID       string       `json:"document_id"`
	Severity         Severity     `json:"severity"`
	AffectedControls []ControlGap `json:"affected_controls"`
	TotalEffortHours int          `json:"total_effort_hours,omitempty"`
	Summary          string       `json:"summary"`
	Recommendations  string       `json:"recommendations,omitempty"`
	ModelUsed        string       `json:"model_used,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Validate checks severity membership and the effort estimate sign.
func (g *GapAnalysis) Validate() error {
	if !ValidSeverity(g.Severity) {
		return eris.Errorf("model: unknown severity %q", g.Severity)
	}
	if g.TotalEffortHours < 0 {
		return eris.Errorf("model: total_effort_hours must be positive, got %d", g.TotalEffortHours)
	}
	return nil
}
