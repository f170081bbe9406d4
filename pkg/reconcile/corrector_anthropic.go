package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

const editCorrectionSystem = `You repair file content proposed by a coding agent.
You receive the current content of a file and the full replacement content the
agent proposed. Fix truncation markers, unclosed fences, and escaping damage in
the proposed content so it is a complete, valid replacement for the file.
Respond with the corrected file content only, no commentary and no code fences.`

const newFileCorrectionSystem = `You repair file content proposed by a coding agent
for a file that does not exist yet. Fix truncation markers, unclosed fences, and
escaping damage so the content is complete. Respond with the corrected file
content only, no commentary and no code fences.`

// AnthropicCorrector implements Corrector against the Anthropic Messages API.
type AnthropicCorrector struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCorrector creates a corrector backed by Anthropic.
func NewAnthropicCorrector(apiKey, model string) *AnthropicCorrector {
	return &AnthropicCorrector{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// CorrectEdit implements Corrector.
func (c *AnthropicCorrector) CorrectEdit(ctx context.Context, path, currentContent, proposedContent string) (string, error) {
	prompt := fmt.Sprintf("File: %s\n\n--- CURRENT CONTENT ---\n%s\n\n--- PROPOSED CONTENT ---\n%s",
		path, currentContent, proposedContent)
	return c.complete(ctx, editCorrectionSystem, prompt)
}

// CorrectNew implements Corrector.
func (c *AnthropicCorrector) CorrectNew(ctx context.Context, path, proposedContent string) (string, error) {
	prompt := fmt.Sprintf("File: %s\n\n--- PROPOSED CONTENT ---\n%s", path, proposedContent)
	return c.complete(ctx, newFileCorrectionSystem, prompt)
}

func (c *AnthropicCorrector) complete(ctx context.Context, system, prompt string) (string, error) {
	response, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic correction request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		}
	}

	content := sb.String()
	if content == "" {
		return "", fmt.Errorf("anthropic correction returned no text content")
	}

	log.Debug().
		Str("model", c.model).
		Int("input_tokens", int(response.Usage.InputTokens)).
		Int("output_tokens", int(response.Usage.OutputTokens)).
		Msg("Content correction completed")

	return content, nil
}
