package sentiment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Classifier is the external sentiment-classification collaborator.
// Classify accepts one text of at most MaxInputRunes and returns a raw
// label from the classifier's own vocabulary plus a probability in [0,1].
type Classifier interface {
	Classify(ctx context.Context, text string) (label string, probability float64, err error)
	Vocabulary() []string
}

type OpenAIClassifier struct {
	client openai.Client
	model  openai.ChatModel
}

var _ Classifier = (*OpenAIClassifier)(nil)

func NewOpenAIClassifier(apiKey string) *OpenAIClassifier {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{client: client, model: openai.ChatModelGPT4oMini}
}

const classifierSystemPrompt = `You are a sentiment classification model. ` +
	`Classify the sentiment of the user's text. Respond only with JSON: ` +
	`{"label": "POSITIVE" | "NEGATIVE" | "NEUTRAL", "confidence": 0.0-1.0}`

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(50),
	})
	if err != nil {
		return "", 0, fmt.Errorf("openai request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", 0, fmt.Errorf("no response from openai")
	}

	var result struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	content := response.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return "", 0, fmt.Errorf("failed to parse classifier response: %w", err)
	}

	return result.Label, result.Confidence, nil
}

func (c *OpenAIClassifier) Vocabulary() []string {
	return []string{"POSITIVE", "NEGATIVE", "NEUTRAL"}
}
