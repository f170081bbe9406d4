package reconcile

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// OpenAICorrector implements Corrector against the OpenAI Chat Completions API.
type OpenAICorrector struct {
	client openai.Client
	model  string
}

// NewOpenAICorrector creates a corrector backed by OpenAI.
func NewOpenAICorrector(apiKey, model string) *OpenAICorrector {
	return &OpenAICorrector{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// CorrectEdit implements Corrector.
func (c *OpenAICorrector) CorrectEdit(ctx context.Context, path, currentContent, proposedContent string) (string, error) {
	prompt := fmt.Sprintf("File: %s\n\n--- CURRENT CONTENT ---\n%s\n\n--- PROPOSED CONTENT ---\n%s",
		path, currentContent, proposedContent)
	return c.complete(ctx, editCorrectionSystem, prompt)
}

// CorrectNew implements Corrector.
func (c *OpenAICorrector) CorrectNew(ctx context.Context, path, proposedContent string) (string, error) {
	prompt := fmt.Sprintf("File: %s\n\n--- PROPOSED CONTENT ---\n%s", path, proposedContent)
	return c.complete(ctx, newFileCorrectionSystem, prompt)
}

func (c *OpenAICorrector) complete(ctx context.Context, system, prompt string) (string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai correction request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai correction returned no choices")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("openai correction returned no text content")
	}

	log.Debug().
		Str("model", c.model).
		Int("input_tokens", int(response.Usage.PromptTokens)).
		Int("output_tokens", int(response.Usage.CompletionTokens)).
		Msg("Content correction completed")

	return content, nil
}
