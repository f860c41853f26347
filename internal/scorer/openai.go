package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/arcpay/platform/internal/app/domain/content"
	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/pkg/logger"
)

// Config holds the model provider configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 30 * time.Second,
	}
}

// OpenAI scores content via a chat completion in JSON mode. Any provider
// failure degrades to the keyword heuristic rather than failing the request.
type OpenAI struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	fallback Scorer
	log      *logger.Logger
}

var _ Scorer = (*OpenAI)(nil)

// NewOpenAI creates a model-backed scorer. The API key is required; use
// Keyword directly when no key is configured.
func NewOpenAI(cfg Config, log *logger.Logger) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("scorer api key is required")
	}
	if log == nil {
		log = logger.NewDefault("scorer")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		fallback: Keyword{},
		log:      log,
	}, nil
}

func (o *OpenAI) Analyze(ctx context.Context, item content.Item, prefs preference.Preferences) (content.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a content analyst. Respond only in JSON format.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(item, prefs),
			},
		},
		Temperature: 0.7,
		MaxTokens:   500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		o.log.WithError(err).
			WithField("content_id", item.ContentID).
			Warn("model analysis failed, using keyword fallback")
		return o.fallback.Analyze(ctx, item, prefs)
	}
	if len(resp.Choices) == 0 {
		o.log.WithField("content_id", item.ContentID).
			Warn("empty model response, using keyword fallback")
		return o.fallback.Analyze(ctx, item, prefs)
	}

	var parsed struct {
		QualityScore   float64  `json:"qualityScore"`
		RelevanceScore float64  `json:"relevanceScore"`
		DetectedTopics []string `json:"detectedTopics"`
		EstimatedValue float64  `json:"estimatedValue"`
		Summary        string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		o.log.WithError(err).
			WithField("content_id", item.ContentID).
			Warn("unparsable model response, using keyword fallback")
		return o.fallback.Analyze(ctx, item, prefs)
	}

	analysis := content.Analysis{
		QualityScore:   clamp01(parsed.QualityScore),
		RelevanceScore: clamp01(parsed.RelevanceScore),
		DetectedTopics: parsed.DetectedTopics,
		EstimatedValue: parsed.EstimatedValue,
		Summary:        parsed.Summary,
	}
	if analysis.QualityScore == 0 {
		analysis.QualityScore = fallbackQuality
	}
	if len(analysis.DetectedTopics) == 0 {
		analysis.DetectedTopics = append([]string(nil), item.Tags...)
	}
	if analysis.EstimatedValue == 0 {
		analysis.EstimatedValue = item.Price
		if analysis.EstimatedValue == 0 {
			analysis.EstimatedValue = fallbackValue
		}
	}
	if analysis.Summary == "" {
		analysis.Summary = "No summary available"
	}
	return analysis, nil
}

func buildPrompt(item content.Item, prefs preference.Preferences) string {
	var b strings.Builder
	b.WriteString("Analyze this content and provide scores:\n\n")
	b.WriteString("Content:\n")
	fmt.Fprintf(&b, "- Title: %s\n", item.Title)
	fmt.Fprintf(&b, "- Type: %s\n", item.Type)
	fmt.Fprintf(&b, "- Description: %s\n", item.Description)
	fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(item.Tags, ", "))
	fmt.Fprintf(&b, "- Price: $%.2f\n\n", item.Price)
	fmt.Fprintf(&b, "User Interests: %s\n\n", strings.Join(prefs.Interests, ", "))
	b.WriteString(`Provide JSON with:
{
  "qualityScore": 0-1,
  "relevanceScore": 0-1,
  "detectedTopics": ["topic1", "topic2"],
  "estimatedValue": suggested USD price,
  "summary": brief summary
}`)
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
