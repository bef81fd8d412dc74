// Package agent implements the external model capabilities the pipeline
// consumes: document classification and control gap analysis. Model
// responses are validated against a closed schema before anything
// downstream sees them: a malformed response fails the call, it is
// never partially accepted.
package agent

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clearledger/regintel/internal/cost"
	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/resilience"
	"github.com/clearledger/regintel/pkg/anthropic"
)

// pricing estimates spend for the per-call logs.
var pricing = cost.NewCalculator(cost.DefaultRates())

func estimateCost(modelID string, u anthropic.TokenUsage) float64 {
	return pricing.Claude(modelID, u.InputTokens, u.OutputTokens,
		u.CacheCreationInputTokens, u.CacheReadInputTokens)
}

// DocumentInput is the document context handed to the classifier.
type DocumentInput struct {
	Title         string
	Source        string
	PublishedDate string
	Content       string
}

// ClassificationResult is the classifier's validated structured output.
type ClassificationResult struct {
	Reasoning           string
	RelevanceScore      int
	Confidence          float64
	Pillars             []model.Pillar
	Categories          []string
	RequiresHumanReview bool
	ModelUsed           string
	Usage               anthropic.TokenUsage
}

// Classifier scores a document's relevance to the compliance program.
type Classifier interface {
	Classify(ctx context.Context, in DocumentInput) (*ClassificationResult, error)
}

// Options tune the model-backed agents.
type Options struct {
	// RatePerSecond throttles calls to the model API. Zero disables
	// throttling.
	RatePerSecond float64
	RateBurst     int
	RetryAttempts int
}

type anthropicClassifier struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClassifier creates a Classifier backed by the Anthropic API.
func NewClassifier(client anthropic.Client, modelID string, opts Options) Classifier {
	return &anthropicClassifier{
		client:  client,
		model:   modelID,
		limiter: newLimiter(opts),
		retry:   retryConfig(opts),
	}
}

func newLimiter(opts Options) *rate.Limiter {
	if opts.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
}

func retryConfig(opts Options) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if opts.RetryAttempts > 0 {
		cfg.MaxAttempts = opts.RetryAttempts
	}
	cfg.OnRetry = func(attempt int, err error) {
		zap.L().Warn("agent: retrying model call",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return cfg
}

var classifyTemperature = 0.1

func (c *anthropicClassifier) Classify(ctx context.Context, in DocumentInput) (*ClassificationResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "agent: classify rate limit wait")
	}

	req := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   1024,
		System:      anthropic.BuildCachedSystemBlocks(classifySystemPrompt),
		Temperature: &classifyTemperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildClassifyPrompt(in)},
		},
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "agent: classify")
	}

	result, err := decodeClassification(anthropic.ExtractText(resp))
	if err != nil {
		return nil, eris.Wrapf(err, "agent: classify %q", in.Title)
	}
	result.ModelUsed = resp.Model
	result.Usage = resp.Usage

	zap.L().Info("agent: classified document",
		zap.String("title", clip(in.Title, 50)),
		zap.Int("relevance", result.RelevanceScore),
		zap.Float64("confidence", result.Confidence),
		zap.Int("pillars", len(result.Pillars)),
		zap.Float64("cost_usd", estimateCost(resp.Model, resp.Usage)),
	)
	return result, nil
}

// classificationWire is the closed wire schema for classifier responses.
// Required fields are pointers so a missing field is distinguishable
// from a zero value.
type classificationWire struct {
	Reasoning           *string  `json:"reasoning"`
	RelevanceScore      *int     `json:"relevance_score"`
	Confidence          *float64 `json:"confidence"`
	Pillars             []string `json:"pillars"`
	Categories          []string `json:"categories"`
	RequiresHumanReview *bool    `json:"requires_human_review"`
}

func decodeClassification(text string) (*ClassificationResult, error) {
	var wire classificationWire
	if err := decodeStrict(text, &wire); err != nil {
		return nil, err
	}

	switch {
	case wire.Reasoning == nil:
		return nil, eris.New("schema: missing reasoning")
	case wire.RelevanceScore == nil:
		return nil, eris.New("schema: missing relevance_score")
	case wire.Confidence == nil:
		return nil, eris.New("schema: missing confidence")
	case wire.RequiresHumanReview == nil:
		return nil, eris.New("schema: missing requires_human_review")
	}

	if *wire.RelevanceScore < model.MinRelevance || *wire.RelevanceScore > model.MaxRelevance {
		return nil, eris.Errorf("schema: relevance_score %d out of range", *wire.RelevanceScore)
	}
	if *wire.Confidence < 0.0 || *wire.Confidence > 1.0 {
		return nil, eris.Errorf("schema: confidence %.3f out of range", *wire.Confidence)
	}

	pillars := make([]model.Pillar, 0, len(wire.Pillars))
	for _, p := range wire.Pillars {
		pillar := model.Pillar(strings.ToLower(strings.TrimSpace(p)))
		if !model.ValidPillar(pillar) {
			return nil, eris.Errorf("schema: unknown pillar %q", p)
		}
		pillars = append(pillars, pillar)
	}

	return &ClassificationResult{
		Reasoning:           *wire.Reasoning,
		RelevanceScore:      *wire.RelevanceScore,
		Confidence:          *wire.Confidence,
		Pillars:             pillars,
		Categories:          wire.Categories,
		RequiresHumanReview: *wire.RequiresHumanReview,
	}, nil
}

// decodeStrict unmarshals a model response into dst, rejecting unknown
// fields. Markdown code fences around the JSON object are stripped first.
func decodeStrict(text string, dst any) error {
	text = cleanJSON(text)
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return eris.Wrap(err, "schema: decode")
	}
	// Trailing non-whitespace after the object is also a violation.
	if dec.More() {
		return eris.New("schema: trailing content after JSON object")
	}
	return nil
}

// cleanJSON strips markdown code fences and any prose surrounding the
// first JSON object in a model response.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// clip bounds s to n bytes without splitting a multi-byte rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
