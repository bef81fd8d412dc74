package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchmarkJSON = `{
  "metadata": {"version": "2026-08", "curator": "compliance"},
  "test_cases": [
    {
      "source": "fincen",
      "document_id": "2026-0001",
      "title": "CVC transaction monitoring guidance",
      "expected": {
        "relevance_score": 4,
        "confidence": 0.9,
        "pillars": ["internal_controls"],
        "categories": ["aml"],
        "requires_human_review": false
      },
      "rationale": "Directly addresses exchange monitoring obligations."
    },
    {
      "source": "sec",
      "document_id": "34-99999",
      "title": "Routine fee schedule notice",
      "expected": {
        "relevance_score": 0,
        "confidence": 0.95,
        "pillars": [],
        "categories": [],
        "requires_human_review": false
      },
      "rationale": "No BSA/AML nexus."
    }
  ]
}`

const benchmarkYAML = `metadata:
  version: "2026-08"
test_cases:
  - source: fincen
    document_id: "2026-0001"
    title: CVC transaction monitoring guidance
    expected:
      relevance_score: 4
      confidence: 0.9
      pillars: [internal_controls, customer_due_diligence]
      categories: [aml]
      requires_human_review: true
    rationale: Monitoring obligations.
`

func writeBenchmark(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	bench, err := Load(writeBenchmark(t, "bench.json", benchmarkJSON))
	require.NoError(t, err)

	require.Len(t, bench.Cases, 2)
	assert.Equal(t, "2026-08", bench.Metadata["version"])
	assert.Equal(t, "fincen", bench.Cases[0].Source)
	assert.Equal(t, 4, bench.Cases[0].Expected.RelevanceScore)
	assert.Equal(t, []string{"internal_controls"}, bench.Cases[0].Expected.Pillars)
	assert.Equal(t, "34-99999", bench.Cases[1].DocumentID)
}

func TestLoadYAML(t *testing.T) {
	bench, err := Load(writeBenchmark(t, "bench.yaml", benchmarkYAML))
	require.NoError(t, err)

	require.Len(t, bench.Cases, 1)
	assert.True(t, bench.Cases[0].Expected.RequiresHumanReview)
	assert.Equal(t, []string{"internal_controls", "customer_due_diligence"}, bench.Cases[0].Expected.Pillars)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	_, err := Load(writeBenchmark(t, "bad.json", "{not json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Benchmark {
		return &Benchmark{Cases: []TestCase{{
			Source:     "fincen",
			DocumentID: "2026-0001",
			Expected: ExpectedClassification{
				RelevanceScore: 3,
				Confidence:     0.8,
				Pillars:        []string{"training"},
			},
		}}}
	}

	tests := []struct {
		name    string
		mutate  func(*Benchmark)
		wantErr string
	}{
		{"valid", func(b *Benchmark) {}, ""},
		{"no cases", func(b *Benchmark) { b.Cases = nil }, "no test cases"},
		{"empty document id", func(b *Benchmark) { b.Cases[0].DocumentID = "" }, "empty document_id"},
		{"score too high", func(b *Benchmark) { b.Cases[0].Expected.RelevanceScore = 6 }, "out of range"},
		{"score negative", func(b *Benchmark) { b.Cases[0].Expected.RelevanceScore = -1 }, "out of range"},
		{"confidence too high", func(b *Benchmark) { b.Cases[0].Expected.Confidence = 1.2 }, "out of range"},
		{"unknown pillar", func(b *Benchmark) { b.Cases[0].Expected.Pillars = []string{"lobbying"} }, "unknown pillar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(b)
			err := b.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	bench, err := Load(writeBenchmark(t, "bench.json", benchmarkJSON))
	require.NoError(t, err)

	s := Summarize(bench)
	assert.Equal(t, 2, s.TotalCases)
	assert.Equal(t, 1, s.ScoreDistribution[4])
	assert.Equal(t, 1, s.ScoreDistribution[0])
	assert.Equal(t, 1, s.PillarDistribution["internal_controls"])
	assert.Equal(t, 1, s.CategoryDistribution["aml"])
	assert.Equal(t, 0, s.HumanReviewRequired)
	assert.InDelta(t, 0.925, s.AvgConfidence, 1e-9)
}

func TestFilterByRelevance(t *testing.T) {
	bench, err := Load(writeBenchmark(t, "bench.json", benchmarkJSON))
	require.NoError(t, err)

	high := FilterByRelevance(bench, 3, 5)
	require.Len(t, high, 1)
	assert.Equal(t, "2026-0001", high[0].DocumentID)

	assert.Empty(t, FilterByRelevance(bench, 1, 2))
}

func TestFilterByCategory(t *testing.T) {
	bench, err := Load(writeBenchmark(t, "bench.json", benchmarkJSON))
	require.NoError(t, err)

	aml := FilterByCategory(bench, "aml")
	require.Len(t, aml, 1)
	assert.Empty(t, FilterByCategory(bench, "sanctions"))
}

func TestRenderSummary(t *testing.T) {
	bench, err := Load(writeBenchmark(t, "bench.json", benchmarkJSON))
	require.NoError(t, err)

	text := RenderSummary(Summarize(bench))
	assert.Contains(t, text, "Total cases: 2")
	assert.Contains(t, text, "internal_controls: 1")
	assert.Contains(t, text, "Average confidence: 0.9")
	assert.Contains(t, text, "Human review required: 0")
}
