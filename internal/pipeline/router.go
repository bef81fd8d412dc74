package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clearledger/regintel/internal/catalog"
	"github.com/clearledger/regintel/internal/model"
)

// priorityDueDays maps task priority to its remediation window.
var priorityDueDays = map[model.Priority]int{
	model.PriorityCritical: 7,
	model.PriorityHigh:     14,
	model.PriorityMedium:   30,
	model.PriorityLow:      60,
}

// DueDate computes the deadline for a task of the given priority.
func DueDate(priority model.Priority, now time.Time) time.Time {
	days, ok := priorityDueDays[priority]
	if !ok {
		days = 30
	}
	return now.Add(time.Duration(days) * 24 * time.Hour)
}

// GenerateTasks converts a gap analysis into remediation tasks. Pure
// function of its inputs: persistence belongs to the caller. All tasks
// in the batch share one due date derived from the overall severity.
// Gaps naming controls outside the catalog are skipped with a warning;
// two gaps naming the same control produce two tasks.
func GenerateTasks(documentID, analysisID, severity string, gaps []model.ControlGap, documentTitle string, now time.Time) []model.Task {
	priority := model.SeverityToPriority(severity)
	dueDate := DueDate(priority, now)

	tasks := make([]model.Task, 0, len(gaps))
	for _, gap := range gaps {
		if gap.ControlID == "" {
			continue
		}

		control, ok := catalog.ByID(gap.ControlID)
		if !ok {
			zap.L().Warn("router: unknown control id, skipping gap",
				zap.String("control_id", gap.ControlID),
				zap.String("document_id", documentID),
			)
			continue
		}

		title := fmt.Sprintf("[%s] Address compliance gap in %s", control.ID, control.Name)

		parts := []string{
			"Regulation: " + documentTitle,
			"Control: " + control.Name,
			"Pillar: " + pillarDisplay(string(control.Pillar)),
			"Gap: " + gap.GapDescription,
		}
		if gap.RemediationAction != "" {
			parts = append(parts, "Recommendation: "+gap.RemediationAction)
		}

		tasks = append(tasks, model.Task{
			DocumentID:    documentID,
			GapAnalysisID: analysisID,
			ControlID:     control.ID,
			Title:         title,
			Description:   strings.Join(parts, "\n"),
			AssignedTeam:  control.PrimaryOwner(),
			Priority:      priority,
			Status:        model.TaskStatusPending,
			DueDate:       dueDate,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	return tasks
}

// pillarDisplay renders a pillar label for humans: underscores become
// spaces and each word is capitalized.
func pillarDisplay(pillar string) string {
	words := strings.Split(strings.ReplaceAll(pillar, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
