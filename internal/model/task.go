package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Priority mirrors the severity ordering for remediation tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// SeverityToPriority maps a gap severity onto the task priority scale.
// Unrecognized severities map to medium via ParseSeverity.
func SeverityToPriority(severity string) Priority {
	switch ParseSeverity(severity) {
	case SeverityCritical:
		return PriorityCritical
	case SeverityHigh:
		return PriorityHigh
	case SeverityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Team is one of the fixed owning teams remediation work routes to.
type Team string

const (
	TeamAMLOperations      Team = "AML Operations"
	TeamComplianceTraining Team = "Compliance Training"
	TeamBSAOfficer         Team = "BSA Officer"
	TeamInternalAudit      Team = "Internal Audit"
	TeamLegalRegulatory    Team = "Legal & Regulatory Affairs"
	TeamRiskManagement     Team = "Risk Management"
)

// AllTeams returns the fixed team roster.
func AllTeams() []Team {
	return []Team{
		TeamAMLOperations,
		TeamComplianceTraining,
		TeamBSAOfficer,
		TeamInternalAudit,
		TeamLegalRegulatory,
		TeamRiskManagement,
	}
}

// TaskStatus tracks a task through its forward-only lifecycle.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

var taskStatusRank = map[TaskStatus]int{
	TaskStatusPending:    0,
	TaskStatusInProgress: 1,
	TaskStatusCompleted:  2,
}

// ValidTaskStatus reports whether s is a recognized status.
func ValidTaskStatus(s TaskStatus) bool {
	_, ok := taskStatusRank[s]
	return ok
}

// CheckStatusTransition enforces pending -> in_progress -> completed.
// A transition to the same status is allowed (idempotent update); moving
// backwards is not.
func CheckStatusTransition(from, to TaskStatus) error {
	if !ValidTaskStatus(to) {
		return eris.Errorf("model: unknown task status %q", to)
	}
	if taskStatusRank[to] < taskStatusRank[from] {
		return eris.Errorf("model: task status cannot move from %q back to %q", from, to)
	}
	return nil
}

// Task is a unit of remediation work routed to a team. Many tasks may
// reference the same gap analysis (one per resolvable control gap).
type Task struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"document_id"`
	GapAnalysisID string     `json:"gap_analysis_id"`
	ControlID     string     `json:"control_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	AssignedTeam  Team       `json:"assigned_team"`
	Priority      Priority   `json:"priority"`
	Status        TaskStatus `json:"status"`
	DueDate       time.Time  `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
