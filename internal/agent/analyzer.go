package agent

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clearledger/regintel/internal/catalog"
	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/resilience"
	"github.com/clearledger/regintel/pkg/anthropic"
)

// GapAnalysisInput carries a document and its classification into the
// gap assessment.
type GapAnalysisInput struct {
	Title                   string
	Source                  string
	PublishedDate           string
	Content                 string
	ClassificationReasoning string
	RelevanceScore          int
	Pillars                 []string
	Categories              []string
}

// GapAnalysisResult is the analyzer's validated structured output.
// AffectedControls only contains controls present in the catalog;
// unknown control ids from the model are dropped with a warning.
type GapAnalysisResult struct {
	Reasoning        string
	Severity         model.Severity
	AffectedControls []model.ControlGap
	TotalEffortHours int
	Summary          string
	ModelUsed        string
	Usage            anthropic.TokenUsage
}

// Analyzer assesses which compliance controls a relevant document
// affects and how severe the gaps are.
type Analyzer interface {
	Analyze(ctx context.Context, in GapAnalysisInput) (*GapAnalysisResult, error)
}

type anthropicAnalyzer struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewAnalyzer creates an Analyzer backed by the Anthropic API.
func NewAnalyzer(client anthropic.Client, modelID string, opts Options) Analyzer {
	return &anthropicAnalyzer{
		client:  client,
		model:   modelID,
		limiter: newLimiter(opts),
		retry:   retryConfig(opts),
	}
}

var assessTemperature = 0.2

func (a *anthropicAnalyzer) Analyze(ctx context.Context, in GapAnalysisInput) (*GapAnalysisResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "agent: analyze rate limit wait")
	}

	req := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   2048,
		System:      anthropic.BuildCachedSystemBlocks(assessSystemPrompt),
		Temperature: &assessTemperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildAssessPrompt(in)},
		},
	}

	resp, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "agent: analyze")
	}

	result, err := decodeGapAnalysis(anthropic.ExtractText(resp))
	if err != nil {
		return nil, eris.Wrapf(err, "agent: analyze %q", in.Title)
	}
	result.ModelUsed = resp.Model
	result.Usage = resp.Usage

	zap.L().Info("agent: assessed control gaps",
		zap.String("title", clip(in.Title, 50)),
		zap.String("severity", string(result.Severity)),
		zap.Int("affected_controls", len(result.AffectedControls)),
		zap.Int("effort_hours", result.TotalEffortHours),
		zap.Float64("cost_usd", estimateCost(resp.Model, resp.Usage)),
	)
	return result, nil
}

type controlGapWire struct {
	ControlID         *string `json:"control_id"`
	GapDescription    *string `json:"gap_description"`
	RemediationAction *string `json:"remediation_action"`
	EffortLevel       *string `json:"effort_level"`
}

type gapAnalysisWire struct {
	Reasoning        *string          `json:"reasoning"`
	AffectedControls []controlGapWire `json:"affected_controls"`
	OverallSeverity  *string          `json:"overall_severity"`
	TotalEffortHours *int             `json:"total_effort_hours"`
	Summary          *string          `json:"summary"`
}

func decodeGapAnalysis(text string) (*GapAnalysisResult, error) {
	var wire gapAnalysisWire
	if err := decodeStrict(text, &wire); err != nil {
		return nil, err
	}

	switch {
	case wire.Reasoning == nil:
		return nil, eris.New("schema: missing reasoning")
	case wire.OverallSeverity == nil:
		return nil, eris.New("schema: missing overall_severity")
	case wire.TotalEffortHours == nil:
		return nil, eris.New("schema: missing total_effort_hours")
	case wire.Summary == nil:
		return nil, eris.New("schema: missing summary")
	}

	if *wire.TotalEffortHours < 0 {
		return nil, eris.Errorf("schema: negative total_effort_hours %d", *wire.TotalEffortHours)
	}

	// An unrecognized severity string downgrades to medium rather than
	// failing the whole assessment.
	severity := model.ParseSeverity(*wire.OverallSeverity)

	gaps := make([]model.ControlGap, 0, len(wire.AffectedControls))
	for _, g := range wire.AffectedControls {
		switch {
		case g.ControlID == nil:
			return nil, eris.New("schema: affected control missing control_id")
		case g.GapDescription == nil:
			return nil, eris.New("schema: affected control missing gap_description")
		case g.RemediationAction == nil:
			return nil, eris.New("schema: affected control missing remediation_action")
		case g.EffortLevel == nil:
			return nil, eris.New("schema: affected control missing effort_level")
		}

		controlID := strings.ToUpper(strings.TrimSpace(*g.ControlID))
		if _, ok := catalog.ByID(controlID); !ok {
			zap.L().Warn("agent: dropping gap for unknown control",
				zap.String("control_id", controlID),
			)
			continue
		}

		effort := model.EffortLevel(strings.ToLower(strings.TrimSpace(*g.EffortLevel)))
		if !model.ValidEffort(effort) {
			return nil, eris.Errorf("schema: unknown effort_level %q", *g.EffortLevel)
		}

		gaps = append(gaps, model.ControlGap{
			ControlID:         controlID,
			GapDescription:    *g.GapDescription,
			RemediationAction: *g.RemediationAction,
			EffortLevel:       effort,
		})
	}

	return &GapAnalysisResult{
		Reasoning:        *wire.Reasoning,
		Severity:         severity,
		AffectedControls: gaps,
		TotalEffortHours: *wire.TotalEffortHours,
		Summary:          *wire.Summary,
	}, nil
}
