package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevanceTier(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "low"},
		{1, "low"},
		{2, "medium"},
		{3, "medium"},
		{4, "high"},
		{5, "high"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevanceTier(tt.score), "score %d", tt.score)
	}
}

func TestScoreRelevance(t *testing.T) {
	got, err := ScoreRelevance([]int{3, 5, 0}, []int{3, 4, 2})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, got.MAE, 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3.0), got.RMSE, 1e-9)
	assert.InDelta(t, 1.0/3.0, got.ExactAccuracy, 1e-9)
	assert.InDelta(t, 2.0/3.0, got.TierAccuracy, 1e-9)
}

func TestScoreRelevance_Empty(t *testing.T) {
	got, err := ScoreRelevance(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, RelevanceScores{}, got)
}

func TestScoreRelevance_LengthMismatch(t *testing.T) {
	_, err := ScoreRelevance([]int{1}, []int{1, 2})
	assert.Error(t, err)
}

func TestScoreMultiLabel(t *testing.T) {
	got, err := ScoreMultiLabel(
		[][]string{{"aml"}},
		[][]string{{"aml", "sanctions"}},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, got.TruePositives)
	assert.Equal(t, 0, got.FalsePositives)
	assert.Equal(t, 1, got.FalseNegatives)
	assert.InDelta(t, 1.0, got.Precision, 1e-9)
	assert.InDelta(t, 0.5, got.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, got.F1, 1e-9)
}

func TestScoreMultiLabel_MicroAveraging(t *testing.T) {
	// Counts pool across cases before the ratios are taken, so a case
	// with many labels weighs more than a case with one.
	got, err := ScoreMultiLabel(
		[][]string{{"a", "b", "c"}, {"x"}},
		[][]string{{"a", "b", "c"}, {"y"}},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, got.TruePositives)
	assert.Equal(t, 1, got.FalsePositives)
	assert.Equal(t, 1, got.FalseNegatives)
	assert.InDelta(t, 0.75, got.Precision, 1e-9)
	assert.InDelta(t, 0.75, got.Recall, 1e-9)
}

func TestScoreMultiLabel_EmptyDenominatorsYieldZero(t *testing.T) {
	got, err := ScoreMultiLabel([][]string{{}}, [][]string{{}})
	require.NoError(t, err)

	assert.Zero(t, got.Precision)
	assert.Zero(t, got.Recall)
	assert.Zero(t, got.F1)
}

func TestScoreCalibration_ConfidentWrong(t *testing.T) {
	got := ScoreCalibration(
		[]float64{1.0},
		[]bool{false},
		[]bool{true},
		[]bool{false},
	)

	assert.InDelta(t, 1.0, got.BrierScore, 1e-9)
	assert.InDelta(t, 1.0, got.CalibrationError, 1e-9)
	assert.Zero(t, got.HumanReviewAccuracy)
}

func TestScoreCalibration_WellCalibrated(t *testing.T) {
	// Both cases fall in the [0.8, 0.9) bin: average confidence 0.85,
	// observed accuracy 0.5, so the gap is 0.35 across both cases.
	got := ScoreCalibration(
		[]float64{0.85, 0.85},
		[]bool{true, false},
		[]bool{false, false},
		[]bool{false, false},
	)

	wantBrier := (math.Pow(0.85-1, 2) + math.Pow(0.85, 2)) / 2
	assert.InDelta(t, wantBrier, got.BrierScore, 1e-9)
	assert.InDelta(t, 0.35, got.CalibrationError, 1e-9)
	assert.InDelta(t, 1.0, got.HumanReviewAccuracy, 1e-9)
}

func TestScoreCalibration_EmptyBinsExcluded(t *testing.T) {
	// A single perfectly calibrated case in one bin; the nine empty
	// bins contribute nothing.
	got := ScoreCalibration([]float64{1.0}, []bool{true}, []bool{true}, []bool{true})
	assert.Zero(t, got.CalibrationError)
	assert.Zero(t, got.BrierScore)
}

func TestScoreCalibration_Empty(t *testing.T) {
	got := ScoreCalibration(nil, nil, nil, nil)
	assert.Equal(t, CalibrationScores{}, got)
}

func benchmarkCases() []TestCase {
	return []TestCase{
		{
			Source:     "fincen",
			DocumentID: "2026-0001",
			Title:      "CVC transaction monitoring guidance",
			Expected: ExpectedClassification{
				RelevanceScore:      4,
				Confidence:          0.9,
				Pillars:             []string{"internal_controls"},
				Categories:          []string{"aml"},
				RequiresHumanReview: false,
			},
		},
		{
			Source:     "fincen",
			DocumentID: "2026-0002",
			Title:      "Routine fee schedule notice",
			Expected: ExpectedClassification{
				RelevanceScore:      1,
				Confidence:          0.95,
				Pillars:             []string{},
				Categories:          []string{},
				RequiresHumanReview: false,
			},
		},
	}
}

func identityPredictions(cases []TestCase) []Prediction {
	preds := make([]Prediction, len(cases))
	for i, tc := range cases {
		preds[i] = Prediction{
			RelevanceScore:      tc.Expected.RelevanceScore,
			Confidence:          tc.Expected.Confidence,
			Pillars:             tc.Expected.Pillars,
			Categories:          tc.Expected.Categories,
			RequiresHumanReview: tc.Expected.RequiresHumanReview,
		}
	}
	return preds
}

func TestEvaluate_IdentityPredictionsScorePerfect(t *testing.T) {
	cases := benchmarkCases()
	report, err := Evaluate(cases, identityPredictions(cases), DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalCases)
	assert.Zero(t, report.Relevance.MAE)
	assert.Zero(t, report.Relevance.RMSE)
	assert.InDelta(t, 1.0, report.Relevance.ExactAccuracy, 1e-9)
	assert.InDelta(t, 1.0, report.Relevance.TierAccuracy, 1e-9)
	assert.InDelta(t, 1.0, report.Pillars.F1, 1e-9)
	assert.InDelta(t, 1.0, report.Categories.Precision, 1e-9)
	assert.InDelta(t, 1.0, report.Calibration.HumanReviewAccuracy, 1e-9)

	require.Len(t, report.Details, 2)
	for _, d := range report.Details {
		assert.Zero(t, d.RelevanceError)
		assert.True(t, d.PillarMatch)
		assert.True(t, d.CategoryMatch)
		assert.True(t, d.WithinTolerance)
	}
}

func TestEvaluate_ToleranceMarksMisses(t *testing.T) {
	cases := benchmarkCases()
	preds := identityPredictions(cases)
	preds[0].RelevanceScore = 1 // expected 4, error 3

	report, err := Evaluate(cases, preds, 1)
	require.NoError(t, err)

	assert.False(t, report.Details[0].WithinTolerance)
	assert.Equal(t, 3, report.Details[0].RelevanceError)
	assert.True(t, report.Details[1].WithinTolerance)
}

func TestEvaluate_NegativeToleranceDefaults(t *testing.T) {
	cases := benchmarkCases()
	report, err := Evaluate(cases, identityPredictions(cases), -1)
	require.NoError(t, err)
	assert.Equal(t, DefaultTolerance, report.Tolerance)
}

func TestEvaluate_LengthMismatch(t *testing.T) {
	_, err := Evaluate(benchmarkCases(), nil, DefaultTolerance)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	cases := benchmarkCases()
	report, err := Evaluate(cases, identityPredictions(cases), DefaultTolerance)
	require.NoError(t, err)

	text := Render(report)
	assert.Contains(t, text, "CLASSIFICATION EVALUATION REPORT")
	assert.Contains(t, text, "Total test cases: 2")
	assert.Contains(t, text, "Mean Absolute Error: 0.000")
	assert.Contains(t, text, "Exact Match Accuracy: 100.0%")
	assert.Contains(t, text, "Brier Score: 0.0")
}

func TestRenderErrorAnalysis(t *testing.T) {
	cases := benchmarkCases()
	preds := identityPredictions(cases)
	preds[0].RelevanceScore = 1
	preds[0].Pillars = []string{"training"}

	report, err := Evaluate(cases, preds, 1)
	require.NoError(t, err)

	text := RenderErrorAnalysis(report)
	assert.Contains(t, text, "Cases with relevance error > 1:")
	assert.Contains(t, text, "2026-0001")
	assert.Contains(t, text, "Expected: 4, Predicted: 1")
	assert.Contains(t, text, "Cases with pillar mismatch:")
	assert.Contains(t, text, "Predicted: training")
}

func TestRenderErrorAnalysis_Clean(t *testing.T) {
	cases := benchmarkCases()
	report, err := Evaluate(cases, identityPredictions(cases), DefaultTolerance)
	require.NoError(t, err)

	text := RenderErrorAnalysis(report)
	assert.Contains(t, text, "None - all predictions within tolerance!")
	assert.Contains(t, text, "None - all pillar predictions correct!")
}
