package evaluation

import (
	"math"

	"github.com/rotisserie/eris"
)

// DefaultTolerance is the relevance-error band inside which a
// prediction counts as correct for calibration purposes.
const DefaultTolerance = 1

// Prediction is a classifier output to score against a TestCase.
type Prediction struct {
	RelevanceScore      int
	Confidence          float64
	Pillars             []string
	Categories          []string
	RequiresHumanReview bool
}

// RelevanceScores summarizes integer score regression quality.
type RelevanceScores struct {
	MAE           float64
	RMSE          float64
	ExactAccuracy float64
	TierAccuracy  float64
}

// MultiLabelScores holds micro-averaged set prediction quality.
type MultiLabelScores struct {
	Precision      float64
	Recall         float64
	F1             float64
	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// CalibrationScores measures how well confidence tracks correctness.
type CalibrationScores struct {
	BrierScore          float64
	CalibrationError    float64
	HumanReviewAccuracy float64
}

// Detail is one case's predicted-vs-expected pairing, kept for the
// error-analysis view.
type Detail struct {
	Source              string
	DocumentID          string
	Title               string
	ExpectedRelevance   int
	PredictedRelevance  int
	RelevanceError      int
	ExpectedPillars     []string
	PredictedPillars    []string
	PillarMatch         bool
	ExpectedCategories  []string
	PredictedCategories []string
	CategoryMatch       bool
	Confidence          float64
	WithinTolerance     bool
}

// Report is the complete evaluation result.
type Report struct {
	Relevance   RelevanceScores
	Pillars     MultiLabelScores
	Categories  MultiLabelScores
	Calibration CalibrationScores
	TotalCases  int
	Tolerance   int
	Details     []Detail
}

// relevanceTier buckets a 0-5 score into low (<=1), medium (<=3), or
// high.
func relevanceTier(score int) string {
	switch {
	case score <= 1:
		return "low"
	case score <= 3:
		return "medium"
	default:
		return "high"
	}
}

// ScoreRelevance computes MAE, RMSE, exact-match accuracy, and tier
// accuracy over paired predicted/expected scores. Zero cases yield an
// all-zero result.
func ScoreRelevance(predicted, expected []int) (RelevanceScores, error) {
	if len(predicted) != len(expected) {
		return RelevanceScores{}, eris.Errorf("evaluation: %d predictions vs %d expected", len(predicted), len(expected))
	}
	n := len(predicted)
	if n == 0 {
		return RelevanceScores{}, nil
	}

	var absSum, sqSum float64
	exact, tier := 0, 0
	for i := range predicted {
		diff := float64(predicted[i] - expected[i])
		absSum += math.Abs(diff)
		sqSum += diff * diff
		if predicted[i] == expected[i] {
			exact++
		}
		if relevanceTier(predicted[i]) == relevanceTier(expected[i]) {
			tier++
		}
	}

	return RelevanceScores{
		MAE:           absSum / float64(n),
		RMSE:          math.Sqrt(sqSum / float64(n)),
		ExactAccuracy: float64(exact) / float64(n),
		TierAccuracy:  float64(tier) / float64(n),
	}, nil
}

// ScoreMultiLabel micro-averages precision, recall, and F1 across the
// whole benchmark: TP/FP/FN counts are summed over cases before the
// ratios are taken. Empty denominators yield 0, never an error.
func ScoreMultiLabel(predicted, expected [][]string) (MultiLabelScores, error) {
	if len(predicted) != len(expected) {
		return MultiLabelScores{}, eris.Errorf("evaluation: %d predictions vs %d expected", len(predicted), len(expected))
	}

	var tp, fp, fn int
	for i := range predicted {
		predSet := toSet(predicted[i])
		expSet := toSet(expected[i])
		for label := range predSet {
			if _, ok := expSet[label]; ok {
				tp++
			} else {
				fp++
			}
		}
		for label := range expSet {
			if _, ok := predSet[label]; !ok {
				fn++
			}
		}
	}

	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return MultiLabelScores{
		Precision:      precision,
		Recall:         recall,
		F1:             f1,
		TruePositives:  tp,
		FalsePositives: fp,
		FalseNegatives: fn,
	}, nil
}

// ScoreCalibration computes the Brier score, the binned calibration
// error, and human-review flag agreement. Cases land in ten equal-width
// confidence bins; empty bins are excluded from the error sum rather
// than counted as zero error.
func ScoreCalibration(confidences []float64, correct, reviewPred, reviewExpected []bool) CalibrationScores {
	n := len(confidences)
	if n == 0 {
		return CalibrationScores{}
	}

	var brier float64
	type bin struct {
		confSum float64
		hits    int
		count   int
	}
	bins := make([]bin, 10)
	for i, conf := range confidences {
		indicator := 0.0
		if correct[i] {
			indicator = 1.0
		}
		brier += (conf - indicator) * (conf - indicator)

		idx := int(conf * 10)
		if idx > 9 {
			idx = 9
		}
		bins[idx].confSum += conf
		bins[idx].count++
		if correct[i] {
			bins[idx].hits++
		}
	}
	brier /= float64(n)

	var weightedGap float64
	for _, b := range bins {
		if b.count == 0 {
			continue
		}
		avgConf := b.confSum / float64(b.count)
		observed := float64(b.hits) / float64(b.count)
		weightedGap += math.Abs(avgConf-observed) * float64(b.count)
	}
	calibrationError := weightedGap / float64(n)

	agree := 0
	for i := range reviewPred {
		if reviewPred[i] == reviewExpected[i] {
			agree++
		}
	}
	var reviewAccuracy float64
	if len(reviewPred) > 0 {
		reviewAccuracy = float64(agree) / float64(len(reviewPred))
	}

	return CalibrationScores{
		BrierScore:          brier,
		CalibrationError:    calibrationError,
		HumanReviewAccuracy: reviewAccuracy,
	}
}

// Evaluate scores predictions against their paired test cases and
// assembles the full report. Pairing is positional.
func Evaluate(cases []TestCase, predictions []Prediction, tolerance int) (*Report, error) {
	if len(cases) != len(predictions) {
		return nil, eris.Errorf("evaluation: %d cases vs %d predictions", len(cases), len(predictions))
	}
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}

	n := len(cases)
	predRelevance := make([]int, n)
	expRelevance := make([]int, n)
	predPillars := make([][]string, n)
	expPillars := make([][]string, n)
	predCategories := make([][]string, n)
	expCategories := make([][]string, n)
	confidences := make([]float64, n)
	correct := make([]bool, n)
	reviewPred := make([]bool, n)
	reviewExp := make([]bool, n)

	for i := range cases {
		exp := cases[i].Expected
		pred := predictions[i]
		predRelevance[i] = pred.RelevanceScore
		expRelevance[i] = exp.RelevanceScore
		predPillars[i] = pred.Pillars
		expPillars[i] = exp.Pillars
		predCategories[i] = pred.Categories
		expCategories[i] = exp.Categories
		confidences[i] = pred.Confidence
		correct[i] = absInt(pred.RelevanceScore-exp.RelevanceScore) <= tolerance
		reviewPred[i] = pred.RequiresHumanReview
		reviewExp[i] = exp.RequiresHumanReview
	}

	relevance, err := ScoreRelevance(predRelevance, expRelevance)
	if err != nil {
		return nil, err
	}
	pillars, err := ScoreMultiLabel(predPillars, expPillars)
	if err != nil {
		return nil, err
	}
	categories, err := ScoreMultiLabel(predCategories, expCategories)
	if err != nil {
		return nil, err
	}
	calibration := ScoreCalibration(confidences, correct, reviewPred, reviewExp)

	details := make([]Detail, n)
	for i := range cases {
		tc := cases[i]
		pred := predictions[i]
		details[i] = Detail{
			Source:              tc.Source,
			DocumentID:          tc.DocumentID,
			Title:               tc.Title,
			ExpectedRelevance:   tc.Expected.RelevanceScore,
			PredictedRelevance:  pred.RelevanceScore,
			RelevanceError:      absInt(pred.RelevanceScore - tc.Expected.RelevanceScore),
			ExpectedPillars:     tc.Expected.Pillars,
			PredictedPillars:    pred.Pillars,
			PillarMatch:         sameSet(pred.Pillars, tc.Expected.Pillars),
			ExpectedCategories:  tc.Expected.Categories,
			PredictedCategories: pred.Categories,
			CategoryMatch:       sameSet(pred.Categories, tc.Expected.Categories),
			Confidence:          pred.Confidence,
			WithinTolerance:     correct[i],
		}
	}

	return &Report{
		Relevance:   relevance,
		Pillars:     pillars,
		Categories:  categories,
		Calibration: calibration,
		TotalCases:  n,
		Tolerance:   tolerance,
		Details:     details,
	}, nil
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

func sameSet(a, b []string) bool {
	sa, sb := toSet(a), toSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for l := range sa {
		if _, ok := sb[l]; !ok {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
