package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/josinaldojr/pdfrag/internal/config"
	"github.com/josinaldojr/pdfrag/internal/rag"
)

// OpenAIClient embeds and completes through the OpenAI API.
type OpenAIClient struct {
	client      *openai.Client
	embedModel  string
	chatModel   string
	dimensions  int
	temperature float32
	batch       batcher
}

func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, &rag.ConfigurationError{Key: "OPENAI_API_KEY", Reason: "not set"}
	}

	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		embedModel:  cfg.OpenAIEmbeddingModel,
		chatModel:   cfg.OpenAIChatModel,
		dimensions:  cfg.EmbeddingDimensions,
		temperature: cfg.Temperature,
		batch:       newBatcher(cfg.EmbedBatchSize, cfg.EmbedRateLimit),
	}, nil
}

func (c *OpenAIClient) ModelName() string { return c.embedModel }

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	clean, err := normalizeAll(texts)
	if err != nil {
		return nil, err
	}
	vecs, err := c.batch.run(ctx, clean, c.embed)
	if err != nil {
		return nil, providerErr(config.ProviderOpenAI, "embed", err)
	}
	return vecs, nil
}

func (c *OpenAIClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(c.embedModel),
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return out, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: requestTemperature(c.chatModel, c.temperature),
	})
	if err != nil {
		return "", providerErr(config.ProviderOpenAI, "completion", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", providerErr(config.ProviderOpenAI, "completion", errors.New("model returned empty text"))
	}
	return resp.Choices[0].Message.Content, nil
}

// requestTemperature maps the configured temperature onto the request field.
// The field is omitempty, so 0 is sent as the smallest positive float32.
// Reasoning models (o1, o3, o4, gpt-5) only accept their default, so the
// field is left out for them.
func requestTemperature(model string, t float32) float32 {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return 0
		}
	}
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

var _ rag.Embedder = (*OpenAIClient)(nil)
var _ rag.Completer = (*OpenAIClient)(nil)
