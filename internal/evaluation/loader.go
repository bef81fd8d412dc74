// Package evaluation scores classifier output against a labeled
// benchmark of regulatory documents with expected classifications.
package evaluation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/clearledger/regintel/internal/model"
)

// ExpectedClassification is the labeled ground truth for one case.
type ExpectedClassification struct {
	RelevanceScore      int      `json:"relevance_score" yaml:"relevance_score"`
	Confidence          float64  `json:"confidence" yaml:"confidence"`
	Pillars             []string `json:"pillars" yaml:"pillars"`
	Categories          []string `json:"categories" yaml:"categories"`
	RequiresHumanReview bool     `json:"requires_human_review" yaml:"requires_human_review"`
}

// TestCase pairs a document's natural key with its expected
// classification and the annotator's rationale.
type TestCase struct {
	Source     string                 `json:"source" yaml:"source"`
	DocumentID string                 `json:"document_id" yaml:"document_id"`
	Title      string                 `json:"title" yaml:"title"`
	Expected   ExpectedClassification `json:"expected" yaml:"expected"`
	Rationale  string                 `json:"rationale" yaml:"rationale"`
}

// Benchmark is a versioned labeled dataset.
type Benchmark struct {
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
	Cases    []TestCase     `json:"test_cases" yaml:"test_cases"`
}

// Load reads and validates a benchmark file. The format is chosen by
// extension: .yaml/.yml parse as YAML, everything else as JSON.
func Load(path string) (*Benchmark, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evaluation: read benchmark %s", path)
	}

	var bench Benchmark
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &bench); err != nil {
			return nil, eris.Wrapf(err, "evaluation: parse yaml benchmark %s", path)
		}
	default:
		if err := json.Unmarshal(raw, &bench); err != nil {
			return nil, eris.Wrapf(err, "evaluation: parse json benchmark %s", path)
		}
	}

	if err := bench.Validate(); err != nil {
		return nil, err
	}
	return &bench, nil
}

// Validate checks every case for range and enum violations. A benchmark
// with bad labels would silently corrupt every metric downstream, so
// loading fails instead.
func (b *Benchmark) Validate() error {
	if len(b.Cases) == 0 {
		return eris.New("evaluation: benchmark has no test cases")
	}
	for i, tc := range b.Cases {
		if tc.DocumentID == "" {
			return eris.Errorf("evaluation: case %d has empty document_id", i)
		}
		exp := tc.Expected
		if exp.RelevanceScore < model.MinRelevance || exp.RelevanceScore > model.MaxRelevance {
			return eris.Errorf("evaluation: case %s relevance_score %d out of range", tc.DocumentID, exp.RelevanceScore)
		}
		if exp.Confidence < 0.0 || exp.Confidence > 1.0 {
			return eris.Errorf("evaluation: case %s confidence %.3f out of range", tc.DocumentID, exp.Confidence)
		}
		for _, p := range exp.Pillars {
			if !model.ValidPillar(model.Pillar(p)) {
				return eris.Errorf("evaluation: case %s has unknown pillar %q", tc.DocumentID, p)
			}
		}
	}
	return nil
}

// Summary holds descriptive statistics for a benchmark.
type Summary struct {
	TotalCases           int
	ScoreDistribution    map[int]int
	PillarDistribution   map[string]int
	CategoryDistribution map[string]int
	HumanReviewRequired  int
	AvgConfidence        float64
}

// Summarize computes dataset statistics for operator review.
func Summarize(b *Benchmark) Summary {
	s := Summary{
		ScoreDistribution:    make(map[int]int),
		PillarDistribution:   make(map[string]int),
		CategoryDistribution: make(map[string]int),
	}
	var confSum float64
	for _, tc := range b.Cases {
		s.TotalCases++
		s.ScoreDistribution[tc.Expected.RelevanceScore]++
		for _, p := range tc.Expected.Pillars {
			s.PillarDistribution[p]++
		}
		for _, c := range tc.Expected.Categories {
			s.CategoryDistribution[c]++
		}
		if tc.Expected.RequiresHumanReview {
			s.HumanReviewRequired++
		}
		confSum += tc.Expected.Confidence
	}
	if s.TotalCases > 0 {
		s.AvgConfidence = confSum / float64(s.TotalCases)
	}
	return s
}

// FilterByRelevance returns the cases whose expected score falls in
// [min, max].
func FilterByRelevance(b *Benchmark, min, max int) []TestCase {
	var out []TestCase
	for _, tc := range b.Cases {
		if tc.Expected.RelevanceScore >= min && tc.Expected.RelevanceScore <= max {
			out = append(out, tc)
		}
	}
	return out
}

// FilterByCategory returns the cases labeled with the given category.
func FilterByCategory(b *Benchmark, category string) []TestCase {
	var out []TestCase
	for _, tc := range b.Cases {
		for _, c := range tc.Expected.Categories {
			if c == category {
				out = append(out, tc)
				break
			}
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
