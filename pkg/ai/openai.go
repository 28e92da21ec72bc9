package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iris",
		Subsystem: "ai",
		Name:      "draft_duration_seconds",
		Help:      "Duration of AI feedback draft requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iris",
		Subsystem: "ai",
		Name:      "draft_failures_total",
		Help:      "Number of AI feedback draft failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI assistant.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAssistant implements Assistant against the OpenAI chat completion API.
type OpenAIAssistant struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssistant builds a new assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/noah-isme/iris-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIAssistant{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Draft asks the model for a structured feedback suggestion and parses it.
func (a *OpenAIAssistant) Draft(parent context.Context, input ReviewInput) (ReviewDraft, error) {
	ctx, span := a.tracer.Start(parent, "openai.draft", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: assistantSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(a.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewDraft{}, fmt.Errorf("openai draft: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewDraft{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	draft, err := parseDraftResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewDraft{}, err
	}

	draft.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return draft, nil
}

func assistantSystemPrompt() string {
	return "You assist academic reviewers of research project artefacts. Respond with a JSON object containing summary, strength" +
		"s (array), concerns (array), and draft: a polite, specific feedback text the reviewer can edit. Never issue a verdict; the human decides."
}

func buildUserPrompt(input ReviewInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Artefact\n")
	builder.WriteString(input.Title)
	builder.WriteString("\n\n## Kind\n")
	builder.WriteString(input.Kind)
	builder.WriteString("\n\n## Research Field\n")
	builder.WriteString(input.Field)
	builder.WriteString("\n\n## Student Summary\n")
	builder.WriteString(input.StudentSummary)
	builder.WriteString("\n\n## Reviewer Role\n")
	builder.WriteString(input.ReviewerRole)
	if input.ReviewerNotes != "" {
		builder.WriteString("\n\n## Reviewer Notes\n")
		builder.WriteString(input.ReviewerNotes)
	}
	if input.PriorFeedback != "" {
		builder.WriteString("\n\n## Prior Feedback\n")
		builder.WriteString(input.PriorFeedback)
	}
	if input.AdditionalNotes != "" {
		builder.WriteString("\n\n## Notes\n")
		builder.WriteString(input.AdditionalNotes)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseDraftResponse(content string) (ReviewDraft, error) {
	type payload struct {
		Summary   string   `json:"summary"`
		Strengths []string `json:"strengths"`
		Concerns  []string `json:"concerns"`
		Draft     string   `json:"draft"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return ReviewDraft{}, fmt.Errorf("parse draft json: %w", err)
	}

	if strings.TrimSpace(data.Draft) == "" {
		return ReviewDraft{}, fmt.Errorf("draft text missing from response")
	}

	return ReviewDraft{
		Summary:   data.Summary,
		Strengths: data.Strengths,
		Concerns:  data.Concerns,
		Draft:     data.Draft,
	}, nil
}
