package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// API types
const (
	APITypeOpenAI = "openai"
	APITypeAzure  = "azure"
)

// Config configures an OpenAIBridge
type Config struct {
	// BaseURL of an OpenAI-compatible API, e.g. "https://api.openai.com/v1"
	// or an Azure OpenAI endpoint
	BaseURL string
	// APIType is "openai" (default) or "azure"
	APIType    string
	APIVersion string
	Model      string
	// APIKey may be empty; calls then fail with ErrAuthentication
	APIKey      string
	MaxTokens   int
	Temperature float32
	// Timeout bounds each call (default: 60s)
	Timeout time.Duration
	// MaxHistoryTurns bounds the prior turns sent (default: 10)
	MaxHistoryTurns int
	Logger          *slog.Logger
}

// OpenAIBridge answers queries through an OpenAI-compatible chat completion API
type OpenAIBridge struct {
	client     *openai.Client
	model      string
	maxTokens  int
	temp       float32
	timeout    time.Duration
	maxHistory int
	hasKey     bool
	logger     *slog.Logger
}

// NewOpenAIBridge creates a bridge. A missing key is not an error here so
// that callers without assistant credentials can still analyze topologies.
func NewOpenAIBridge(cfg Config) (*OpenAIBridge, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxHistory := cfg.MaxHistoryTurns
	if maxHistory == 0 {
		maxHistory = 10
	}

	var config openai.ClientConfig
	switch strings.ToLower(cfg.APIType) {
	case APITypeAzure:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("base_url is required for azure")
		}
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			config.APIVersion = cfg.APIVersion
		}
	case APITypeOpenAI, "":
		config = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
	default:
		return nil, fmt.Errorf("unknown api_type %q", cfg.APIType)
	}
	config.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIBridge{
		client:     openai.NewClientWithConfig(config),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		temp:       cfg.Temperature,
		timeout:    timeout,
		maxHistory: maxHistory,
		hasKey:     cfg.APIKey != "",
		logger:     logger,
	}, nil
}

// Answer sends the report context, trimmed history and query to the model
func (b *OpenAIBridge) Answer(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", ErrEmptyQuery
	}
	if req.Report == nil {
		return "", fmt.Errorf("no report to discuss")
	}
	if !b.hasKey {
		return "", fmt.Errorf("%w: no API key configured", ErrAuthentication)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    b.messages(req),
		MaxTokens:   b.maxTokens,
		Temperature: b.temp,
	})
	if err != nil {
		// the caller gave up; not a service failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		classified := classify(err)
		b.logger.Warn("assistant request failed", "model", b.model, "error", err)
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrServiceUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

func (b *OpenAIBridge) messages(req Request) []openai.ChatCompletionMessage {
	history := TrimHistory(req.History, b.maxHistory)

	msgs := make([]openai.ChatCompletionMessage, 0, 2+2*len(history))
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt(BuildContext(req.Report)),
	})
	for _, turn := range history {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.Query},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Answer},
		)
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Query,
	})
	return msgs
}

// classify maps client errors onto the bridge error kinds
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}
