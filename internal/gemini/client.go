// Package gemini implements the AI backend facade over Google's Gemini
// API. It turns a question plus ordered conversation history into an
// answer, or a BackendError when the API fails.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/conversation"
)

// BackendError wraps any failure of the underlying AI call: network,
// timeout, quota, safety block. The Detail is what gets surfaced to the
// chat.
type BackendError struct {
	Detail string
	Err    error
}

func (e *BackendError) Error() string { return e.Detail }

func (e *BackendError) Unwrap() error { return e.Err }

// Client defines the asker operation used by the message router. The call
// is stateless: the history slice is read, never mutated, and nothing is
// remembered between calls.
type Client interface {
	Ask(ctx context.Context, question string, history []conversation.Turn) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	model         func() string
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a Gemini client. The model callback is read on every
// call, so a runtime change of the configured model takes effect on the
// next question.
func NewClient(ctx context.Context, cfg config.GeminiConfig, model func() string, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	contentCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
	if cfg.Instruction != "" {
		contentCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.Instruction}}}
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", model())
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: contentCfg,
		model:         model,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

// Ask sends the question with the given history as alternating user/model
// contents and returns the answer text.
func (c *sdkClient) Ask(ctx context.Context, question string, history []conversation.Turn) (string, error) {
	c.log.DebugContext(ctx, "Asking Gemini", "history_turns", len(history))

	contents := make([]*genai.Content, 0, 2*len(history)+1)
	for _, turn := range history {
		contents = append(contents, genai.NewContentFromText(turn.Question, genai.RoleUser))
		contents = append(contents, genai.NewContentFromText(turn.Answer, genai.RoleModel))
	}
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))

	resp, err := c.generateWithRetries(ctx, c.model(), contents)
	if err != nil {
		return "", err
	}

	return c.extractText(ctx, resp)
}

// generateWithRetries calls the API, retrying transient 500/503 APIErrors.
// Anything else fails fast.
func (c *sdkClient) generateWithRetries(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, model, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) && attempt < c.maxRetries {
			c.log.WarnContext(ctx, "Gemini API returned a transient error, retrying",
				"attempt", attempt+1, "code", apiErr.Code, "delay", c.retryDelay)
			select {
			case <-time.After(c.retryDelay):
				continue
			case <-ctx.Done():
				return nil, &BackendError{Detail: ctx.Err().Error(), Err: ctx.Err()}
			}
		}

		c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return nil, &BackendError{Detail: err.Error(), Err: err}
	}

	return nil, &BackendError{Detail: err.Error(), Err: err}
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "Gemini request blocked by safety filter", "reason", reason)
		return "", &BackendError{Detail: fmt.Sprintf("blocked by safety filter: %s", reason)}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response has no content", "finish_reason", finishReason)
		return "", &BackendError{Detail: fmt.Sprintf("empty response, finish reason: %s", finishReason)}
	}

	answer := resp.Text()
	if answer == "" {
		return "", &BackendError{Detail: "empty response text"}
	}
	return answer, nil
}
