package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed questions.schema.json
var questionSchemaSource string

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "olympiad",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of AI question generation requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "olympiad",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of AI question generation failures",
	}, []string{"model", "reason"})
)

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator implements QuestionGenerator against the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	schema *jsonschema.Schema
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}

	schema, err := jsonschema.CompileString("questions.schema.json", questionSchemaSource)
	if err != nil {
		return nil, fmt.Errorf("compile question schema: %w", err)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		schema: schema,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/olympiad-progress-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.cfg.Model
}

// Generate asks the model for questions and validates the JSON reply.
func (g *OpenAIGenerator) Generate(parent context.Context, req QuestionRequest) ([]Question, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate_questions", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("topic", req.Topic),
		attribute.Int("count", req.Count),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(req),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, g.fail(span, "request", fmt.Errorf("openai generate: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, g.fail(span, "empty", fmt.Errorf("no choices returned from openai"))
	}

	questions, err := g.parse(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, g.fail(span, "schema", err)
	}

	g.logger.Debug().Int("questions", len(questions)).Int("tokens", resp.Usage.TotalTokens).Msg("questions generated")
	return questions, nil
}

func (g *OpenAIGenerator) fail(span trace.Span, reason string, err error) error {
	aiFailures.WithLabelValues(g.cfg.Model, reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (g *OpenAIGenerator) parse(content string) ([]Question, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := g.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	var payload struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	for i := range payload.Questions {
		payload.Questions[i].Question = strings.TrimSpace(payload.Questions[i].Question)
		if payload.Questions[i].Kind != "choice" {
			payload.Questions[i].Options = nil
		}
	}
	return payload.Questions, nil
}

func generatorSystemPrompt() string {
	return "You write practice problems for school mathematics olympiads. Respond with a JSON object " +
		"{\"questions\": [...]} where each item has question, kind, options (choice only), correct_answer " +
		"(omit for open-ended) and a short explanation."
}

func buildUserPrompt(req QuestionRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Topic\n")
	builder.WriteString(req.Topic)
	builder.WriteString(fmt.Sprintf("\n\n## Grade\n%d", req.Grade))
	builder.WriteString("\n\n## Difficulty\n")
	builder.WriteString(req.Difficulty)
	builder.WriteString("\n\n## Kind\n")
	builder.WriteString(req.Kind)
	builder.WriteString(fmt.Sprintf("\n\n## Count\n%d", req.Count))
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
