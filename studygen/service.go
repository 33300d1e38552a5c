package studygen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Config configures the generation service.
type Config struct {
	// Model is the backend model identifier.
	Model string `json:"model" yaml:"model"`

	// MaxTokens bounds the response size (default: 2000, enough for an
	// 800-word summary plus quiz and flashcards).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MinSummaryWords is the threshold below which one expand pass is
	// attempted (default: 350).
	MinSummaryWords int `json:"min_summary_words" yaml:"min_summary_words"`

	// Logger for debug/warn messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2000
	}
	if c.MinSummaryWords <= 0 {
		c.MinSummaryWords = 350
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service turns extracted document text into normalized study material.
type Service struct {
	gen    Generator
	cfg    Config
	logger *slog.Logger
}

// NewService creates a Service around a generation backend.
func NewService(gen Generator, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		gen:    gen,
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// BuildMaterial runs the primary generation call, an optional single expand
// pass when the summary is shorter than MinSummaryWords, and normalization.
// Only the primary call's failure propagates; expand failures keep the
// original summary.
func (s *Service) BuildMaterial(ctx context.Context, text string) (*StudyMaterial, error) {
	chunk := truncateChunk(text, MaxPromptChars)

	raw, err := s.gen.Generate(ctx, Request{
		Model:       s.cfg.Model,
		Temperature: 0.2,
		MaxTokens:   s.cfg.MaxTokens,
		System:      systemPrompt,
		User:        fmt.Sprintf(userPromptTemplate, chunk),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	payload := parsePayload(raw)

	summary := coerceString(payload["summary"])
	if wordCount(summary) < s.cfg.MinSummaryWords {
		if expanded, ok := s.expand(ctx, chunk, summary); ok && wordCount(expanded) > wordCount(summary) {
			payload["summary"] = expanded
		}
	}

	return Normalize(payload)
}

// expand issues the single second-pass summary request. All failures are
// swallowed: a short summary beats no summary.
func (s *Service) expand(ctx context.Context, chunk, summary string) (string, bool) {
	raw, err := s.gen.Generate(ctx, Request{
		Model:       s.cfg.Model,
		Temperature: 0.3,
		MaxTokens:   s.cfg.MaxTokens,
		System:      expandSystemPrompt,
		User:        fmt.Sprintf(expandUserTemplate, chunk, summary),
	})
	if err != nil {
		s.logger.Warn("expand pass failed, keeping original summary", "error", err)
		return "", false
	}

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		s.logger.Warn("expand pass returned malformed payload", "error", err)
		return "", false
	}
	return resp.Summary, true
}

// parsePayload decodes the untrusted model output. A parse failure yields an
// empty tree so the normalizer can apply its defaults field by field.
func parsePayload(raw string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil || payload == nil {
		return map[string]any{}
	}
	return payload
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
