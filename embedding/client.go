// Package embedding generalizes the teacher's raw batch-embedding HTTP
// client into a reusable Client interface with retry/backoff and the
// spec's EmbeddingError taxonomy.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"legalrag/tokenize"
)

const (
	embeddingAPI = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s"
	batchAPI     = "https://generativelanguage.googleapis.com/v1beta/models/%s:batchEmbedContents?key=%s"

	maxBatchSize    = 128
	maxBodyBytes    = 1 << 20 // 1 MiB
	perItemOverhead = 50
	maxAggregateTokens = 100_000
)

// ErrorKind classifies an embedding failure per the spec's
// EmbeddingError{kind} contract.
type ErrorKind string

const (
	ErrTooLong    ErrorKind = "TooLong"
	ErrRateLimited ErrorKind = "RateLimited"
	ErrTransient  ErrorKind = "Transient"
	ErrInvalid    ErrorKind = "Invalid"
)

// Error is the embedding-specific error surfaced to callers.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func retryable(kind ErrorKind) bool {
	return kind == ErrRateLimited || kind == ErrTransient
}

// Client produces fixed-width, L2-normalized vectors for text, singly
// or batched, honoring the spec's batching limits and retry policy.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"taskType,omitempty"`
	OutputDimensionality int          `json:"outputDimensionality,omitempty"`
}

type embeddingData struct {
	Values []float32 `json:"values"`
}

type embeddingResponse struct {
	Embedding embeddingData `json:"embedding"`
}

type batchEmbeddingRequest struct {
	Requests []embeddingRequest `json:"requests"`
}

type batchEmbeddingItem struct {
	Values []float32 `json:"values"`
}

type batchEmbeddingResponse struct {
	Embeddings []batchEmbeddingItem `json:"embeddings"`
}

// HTTPClient talks to the Gemini embedContent/batchEmbedContents REST
// endpoints directly, the same way the teacher's build-embeddings
// command does, because the genai SDK doesn't expose the batch size
// and output-dimensionality controls the spec's batching rules need.
type HTTPClient struct {
	apiKey    string
	model     string
	dimension int
	http      *http.Client
	maxRetries int
}

// NewHTTPClient constructs a Client against the Gemini embedding API.
func NewHTTPClient(apiKey, model string, dimension int) *HTTPClient {
	return &HTTPClient{
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
		http:       &http.Client{Timeout: 15 * time.Second},
		maxRetries: 4,
	}
}

func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if tokenize.Count(text) > 8192 {
		return nil, &Error{Kind: ErrTooLong, Err: fmt.Errorf("input exceeds 8192-token ceiling")}
	}

	req := embeddingRequest{
		Model:                "models/" + c.model,
		Content:              contentInput{Parts: []partInput{{Text: text}}},
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: c.dimension,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Kind: ErrInvalid, Err: err}
	}

	url := fmt.Sprintf(embeddingAPI, c.model, c.apiKey)
	var out embeddingResponse
	if err := c.doWithRetry(ctx, url, body, &out); err != nil {
		return nil, err
	}
	return l2Normalize(out.Embedding.Values), nil
}

func (c *HTTPClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > maxBatchSize {
		return nil, &Error{Kind: ErrInvalid, Err: fmt.Errorf("batch size %d exceeds max %d", len(texts), maxBatchSize)}
	}

	aggregateTokens := 0
	bodyEstimate := 0
	reqs := make([]embeddingRequest, 0, len(texts))
	for _, t := range texts {
		n := tokenize.Count(t)
		if n > 8192 {
			return nil, &Error{Kind: ErrTooLong, Err: fmt.Errorf("input exceeds 8192-token ceiling")}
		}
		aggregateTokens += n
		bodyEstimate += len(t) + perItemOverhead
		reqs = append(reqs, embeddingRequest{
			Model:                "models/" + c.model,
			Content:              contentInput{Parts: []partInput{{Text: t}}},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: c.dimension,
		})
	}
	if aggregateTokens > maxAggregateTokens {
		return nil, &Error{Kind: ErrInvalid, Err: fmt.Errorf("aggregate batch tokens %d exceeds bound", aggregateTokens)}
	}
	if bodyEstimate >= maxBodyBytes {
		return nil, &Error{Kind: ErrInvalid, Err: fmt.Errorf("estimated body size exceeds 1MiB")}
	}

	body, err := json.Marshal(batchEmbeddingRequest{Requests: reqs})
	if err != nil {
		return nil, &Error{Kind: ErrInvalid, Err: err}
	}

	url := fmt.Sprintf(batchAPI, c.model, c.apiKey)
	var out batchEmbeddingResponse
	if err := c.doWithRetry(ctx, url, body, &out); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(out.Embeddings))
	for i, item := range out.Embeddings {
		vecs[i] = l2Normalize(item.Values)
	}
	return vecs, nil
}

func (c *HTTPClient) doWithRetry(ctx context.Context, url string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return &Error{Kind: ErrInvalid, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = &Error{Kind: ErrTransient, Err: err}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = &Error{Kind: ErrRateLimited, Err: fmt.Errorf("rate limited")}
			continue
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = &Error{Kind: ErrTransient, Err: fmt.Errorf("server error %d", resp.StatusCode)}
			continue
		case resp.StatusCode >= 400:
			defer resp.Body.Close()
			var body bytes.Buffer
			body.ReadFrom(resp.Body)
			return &Error{Kind: ErrInvalid, Err: fmt.Errorf("client error %d: %s", resp.StatusCode, body.String())}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Kind: ErrInvalid, Err: err}
		}
		return nil
	}
	if lastErr == nil {
		lastErr = &Error{Kind: ErrTransient, Err: fmt.Errorf("exhausted retries")}
	}
	return lastErr
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// IsRetryable reports whether err represents a retryable embedding
// failure (rate-limit or transient server error).
func IsRetryable(err error) bool {
	var e *Error
	if e2, ok := err.(*Error); ok {
		e = e2
	}
	if e == nil {
		return false
	}
	return retryable(e.Kind)
}
