// Package textgen wraps the Anthropic SDK for outreach drafting. The
// pipeline treats the generated text as opaque: it is persisted and
// surfaced, never parsed.
package textgen

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Client generates one text completion per call.
type Client interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Request is a single generation request.
type Request struct {
	System string
	Prompt string
}

// Result is the generated text plus token accounting.
type Result struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates a generation client bound to one model.
func NewClient(apiKey, model string, maxTokens int) Client {
	return &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (c *sdkClient) Generate(ctx context.Context, req Request) (*Result, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	result := &Result{
		Text:         b.String(),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	zap.L().Debug("textgen: generated",
		zap.String("model", c.model),
		zap.Int64("input_tokens", result.InputTokens),
		zap.Int64("output_tokens", result.OutputTokens),
	)
	return result, nil
}

// classify maps SDK errors onto the retry taxonomy so callers can back
// off on 429s and retry 5xx.
func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return resilience.NewRateLimitError(err)
		case resilience.IsTransientHTTPStatus(apiErr.StatusCode):
			return resilience.NewTransientError(err, apiErr.StatusCode)
		}
	}
	return eris.Wrap(err, "textgen: create message")
}
