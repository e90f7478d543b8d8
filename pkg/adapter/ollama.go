package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"staffrag/pkg/model"
)

// Ollama is the boundary to the local Ollama instance, covering both the
// embedding model and the generation model.
type Ollama interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string) (*TokenStream, error)
}

type OllamaClient struct {
	baseURL         string
	generationModel string
	embeddingModel  string

	// The blocking path bounds total wait time; the streaming path only
	// bounds connection setup, since a human may be reading tokens as they
	// arrive.
	client       *http.Client
	streamClient *http.Client
}

type OllamaOption func(*OllamaClient)

func WithGenerationModel(m string) OllamaOption {
	return func(c *OllamaClient) {
		c.generationModel = m
	}
}

func WithEmbeddingModel(m string) OllamaOption {
	return func(c *OllamaClient) {
		c.embeddingModel = m
	}
}

func WithTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.client.Timeout = d
	}
}

func WithStreamSetupTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.streamClient.Transport = &http.Transport{ResponseHeaderTimeout: d}
	}
}

func NewOllama(baseURL string, opts ...OllamaOption) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	c := &OllamaClient{
		baseURL:         baseURL,
		generationModel: "qwen2.5:1.5b",
		embeddingModel:  "nomic-embed-text",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		streamClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: 120 * time.Second},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Embed returns the embedding vector for a single text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.post(ctx, c.client, "/api/embeddings", embedRequest{
		Model:  c.embeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode embedding response", goerr.T(model.ErrGeneration))
	}
	if len(embedResp.Embedding) == 0 {
		return nil, goerr.New("empty embedding in response",
			goerr.V("model", c.embeddingModel),
			goerr.T(model.ErrGeneration))
	}

	return embedResp.Embedding, nil
}

// EmbedBatch embeds every text in order, one vector per input. The Ollama
// embeddings endpoint takes one prompt per call, so the batch is sequential.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed text", goerr.V("index", i))
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Generate sends the prompt and blocks until the full completion arrives.
// Total wait time is bounded by the client timeout.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, c.client, "/api/generate", generateRequest{
		Model:  c.generationModel,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", goerr.Wrap(err, "failed to decode generation response", goerr.T(model.ErrGeneration))
	}

	return genResp.Response, nil
}

// GenerateStream sends the prompt and returns a stream of incremental token
// fragments. The caller must drain or close the stream.
func (c *OllamaClient) GenerateStream(ctx context.Context, prompt string) (*TokenStream, error) {
	resp, err := c.post(ctx, c.streamClient, "/api/generate", generateRequest{
		Model:  c.generationModel,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	return NewTokenStream(resp.Body), nil
}

func (c *OllamaClient) post(ctx context.Context, client *http.Client, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, goerr.Wrap(err, "request to Ollama timed out",
				goerr.V("url", c.baseURL+path),
				goerr.T(model.ErrGenerationTimeout))
		}
		return nil, goerr.Wrap(err, "failed to reach Ollama",
			goerr.V("url", c.baseURL+path),
			goerr.T(model.ErrGenerationUnavailable))
	}

	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return goerr.New("Ollama returned error",
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(body)),
		goerr.T(model.ErrGeneration))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
