package evaluation

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ruleHeavy = "============================================================"
	ruleLight = "----------------------------------------"
)

// Render produces the fixed-format text report for an evaluation run.
func Render(r *Report) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(ruleHeavy)
	line("CLASSIFICATION EVALUATION REPORT")
	line(ruleHeavy)
	line("Total test cases: %d", r.TotalCases)
	line("")
	line("RELEVANCE SCORING")
	line(ruleLight)
	line("  Mean Absolute Error: %.3f", r.Relevance.MAE)
	line("  Root Mean Squared Error: %.3f", r.Relevance.RMSE)
	line("  Exact Match Accuracy: %.1f%%", r.Relevance.ExactAccuracy*100)
	line("  Tier Accuracy (low/med/high): %.1f%%", r.Relevance.TierAccuracy*100)
	line("")
	line("PILLARS (Multi-Label)")
	line(ruleLight)
	renderMultiLabel(line, r.Pillars)
	line("")
	line("CATEGORIES (Multi-Label)")
	line(ruleLight)
	renderMultiLabel(line, r.Categories)
	line("")
	line("CONFIDENCE CALIBRATION")
	line(ruleLight)
	line("  Brier Score: %.3f (lower is better)", r.Calibration.BrierScore)
	line("  Calibration Error: %.3f", r.Calibration.CalibrationError)
	line("  Human Review Prediction Accuracy: %.1f%%", r.Calibration.HumanReviewAccuracy*100)
	line("")
	line(ruleHeavy)
	return b.String()
}

func renderMultiLabel(line func(string, ...any), s MultiLabelScores) {
	line("  Precision: %.1f%%", s.Precision*100)
	line("  Recall: %.1f%%", s.Recall*100)
	line("  F1 Score: %.1f%%", s.F1*100)
	line("  True Positives: %d", s.TruePositives)
	line("  False Positives: %d", s.FalsePositives)
	line("  False Negatives: %d", s.FalseNegatives)
}

// RenderErrorAnalysis lists the cases a reviewer should look at: large
// relevance errors sorted worst first, and pillar-set mismatches.
func RenderErrorAnalysis(r *Report) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("ERROR ANALYSIS")
	line(ruleHeavy)
	line("")
	line("Cases with relevance error > %d:", r.Tolerance)
	line(ruleLight)

	var misses []Detail
	for _, d := range r.Details {
		if d.RelevanceError > r.Tolerance {
			misses = append(misses, d)
		}
	}
	if len(misses) == 0 {
		line("  None - all predictions within tolerance!")
	} else {
		sort.SliceStable(misses, func(i, j int) bool {
			return misses[i].RelevanceError > misses[j].RelevanceError
		})
		for _, d := range misses {
			line("  %s", d.DocumentID)
			line("    Title: %s", clipTitle(d.Title, 50))
			line("    Expected: %d, Predicted: %d", d.ExpectedRelevance, d.PredictedRelevance)
			line("    Error: %d", d.RelevanceError)
			line("")
		}
	}

	line("")
	line("Cases with pillar mismatch:")
	line(ruleLight)

	shown := 0
	for _, d := range r.Details {
		if d.PillarMatch {
			continue
		}
		if shown == 10 {
			break
		}
		line("  %s", d.DocumentID)
		line("    Expected: %s", joinOrEmpty(d.ExpectedPillars))
		line("    Predicted: %s", joinOrEmpty(d.PredictedPillars))
		line("")
		shown++
	}
	if shown == 0 {
		line("  None - all pillar predictions correct!")
	}

	return b.String()
}

// RenderSummary formats benchmark dataset statistics.
func RenderSummary(s Summary) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("Benchmark Summary")
	line(ruleLight)
	line("Total cases: %d", s.TotalCases)
	line("")
	line("Relevance score distribution:")
	for score := 0; score <= 5; score++ {
		line("  %d: %s (%d)", score, strings.Repeat("#", s.ScoreDistribution[score]), s.ScoreDistribution[score])
	}
	line("")
	line("Pillar distribution:")
	for _, p := range sortedKeys(s.PillarDistribution) {
		line("  %s: %d", p, s.PillarDistribution[p])
	}
	line("")
	line("Category distribution:")
	for _, c := range sortedKeys(s.CategoryDistribution) {
		line("  %s: %d", c, s.CategoryDistribution[c])
	}
	line("")
	line("Human review required: %d", s.HumanReviewRequired)
	line("Average confidence: %.2f", s.AvgConfidence)
	return b.String()
}

func clipTitle(title string, max int) string {
	if len(title) <= max {
		return title
	}
	return title[:max] + "..."
}

func joinOrEmpty(labels []string) string {
	if len(labels) == 0 {
		return "(none)"
	}
	return strings.Join(labels, ", ")
}
