package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/josinaldojr/pdfrag/internal/config"
	"github.com/josinaldojr/pdfrag/internal/rag"
)

// GeminiClient embeds and completes through the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	embedModel  string
	chatModel   string
	dimensions  int
	temperature float32
	batch       batcher
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, &rag.ConfigurationError{Key: "GOOGLE_API_KEY", Reason: "not set"}
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GoogleBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.GoogleBaseURL}
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:      c,
		embedModel:  cfg.GoogleEmbeddingModel,
		chatModel:   cfg.GoogleChatModel,
		dimensions:  cfg.EmbeddingDimensions,
		temperature: cfg.Temperature,
		batch:       newBatcher(cfg.EmbedBatchSize, cfg.EmbedRateLimit),
	}, nil
}

func (g *GeminiClient) ModelName() string { return g.embedModel }

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (g *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	clean, err := normalizeAll(texts)
	if err != nil {
		return nil, err
	}
	vecs, err := g.batch.run(ctx, clean, g.embed)
	if err != nil {
		return nil, providerErr(config.ProviderGoogle, "embed", err)
	}
	return vecs, nil
}

func (g *GeminiClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.Text(t)[0]
	}

	var ecfg *genai.EmbedContentConfig
	if g.dimensions > 0 {
		ecfg = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(g.dimensions)),
		}
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, ecfg)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		v := make([]float32, len(e.Values))
		for j, x := range e.Values {
			v[j] = float32(x)
		}
		out[i] = v
	}
	return out, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.chatModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(g.temperature),
		},
	)
	if err != nil {
		return "", providerErr(config.ProviderGoogle, "completion", err)
	}
	if resp == nil {
		return "", providerErr(config.ProviderGoogle, "completion", errors.New("empty response from gemini"))
	}

	txt := resp.Text()
	if txt == "" {
		return "", providerErr(config.ProviderGoogle, "completion", errors.New("model returned empty text"))
	}
	return txt, nil
}

var _ rag.Embedder = (*GeminiClient)(nil)
var _ rag.Completer = (*GeminiClient)(nil)
