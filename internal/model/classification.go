package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Pillar is one of FinCEN's Five Pillars of BSA/AML compliance.
type Pillar string

const (
	PillarInternalControls     Pillar = "internal_controls"
	PillarBSAOfficer           Pillar = "bsa_officer"
	PillarTraining             Pillar = "training"
	PillarIndependentTesting   Pillar = "independent_testing"
	PillarCustomerDueDiligence Pillar = "customer_due_diligence"
)

// AllPillars returns the five fixed pillars.
func AllPillars() []Pillar {
	return []Pillar{
		PillarInternalControls,
		PillarBSAOfficer,
		PillarTraining,
		PillarIndependentTesting,
		PillarCustomerDueDiligence,
	}
}

// ValidPillar reports whether p is one of the five pillars.
func ValidPillar(p Pillar) bool {
	for _, known := range AllPillars() {
		if p == known {
			return true
		}
	}
	return false
}

// Relevance score bounds.
const (
	MinRelevance = 0
	MaxRelevance = 5
)

// Classification is the classifier's verdict on a single document.
// At most one classification persists per document; re-classification
// is suppressed, never versioned.
type Classification struct {
	ID                  string    `json:"id"`
	DocumentID          string    `json:"document_id"`
	RelevanceScore      int       `json:"relevance_score"`
	Confidence          float64   `json:"confidence"`
	Pillars             []Pillar  `json:"pillars,omitempty"`
	Categories          []string  `json:"categories,omitempty"`
	Reasoning           string    `json:"reasoning,omitempty"`
	RequiresHumanReview bool      `json:"requires_human_review"`
	ModelUsed           string    `json:"model_used,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// Validate checks score and confidence bounds and pillar membership.
func (c *Classification) Validate() error {
	if c.RelevanceScore < MinRelevance || c.RelevanceScore > MaxRelevance {
		return eris.Errorf("model: relevance_score %d out of range [%d,%d]", c.RelevanceScore, MinRelevance, MaxRelevance)
	}
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return eris.Errorf("model: confidence %.3f out of range [0,1]", c.Confidence)
	}
	for _, p := range c.Pillars {
		if !ValidPillar(p) {
			return eris.Errorf("model: unknown pillar %q", p)
		}
	}
	return nil
}
