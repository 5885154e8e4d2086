package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Classifier is the external image-understanding capability. It returns the
// model's raw text reply.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// LLMClassifier asks a multimodal chat model to describe a meal photo.
type LLMClassifier struct {
	llm  llms.Model
	opts []llms.CallOption
}

func NewLLMClassifier(llm llms.Model, opts ...llms.CallOption) *LLMClassifier {
	return &LLMClassifier{
		llm:  llm,
		opts: append([]llms.CallOption{llms.WithTemperature(0.2), llms.WithJSONMode()}, opts...),
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.ImageURLPart(dataURI(mimeType, image)),
				llms.TextPart(prompt),
			},
		},
	}

	resp, err := c.llm.GenerateContent(ctx, messages, c.opts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
