// Package llm calls OpenAI-compatible chat completion endpoints and adapts
// them into a sentiment polarity estimator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/config"
	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
)

// DefaultTimeout bounds one completion request.
const DefaultTimeout = 15 * time.Second

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
	// Limiter throttles requests when set.
	Limiter *rate.Limiter
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends one system and one user message and returns the reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("llm: base URL and model required: %w", internalerr.ErrInvalidConfig)
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm: rate limit: %w", err)
		}
	}
	messages := []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}}
	payload, err := c.send(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, messages []chatMessage) (*chatResponse, error) {
	reqBody, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("llm: endpoint returned %s", resp.Status)
		}
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("llm error: %s", payload.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm: endpoint returned %s", resp.Status)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

const polaritySystem = `You rate the sentiment of customer feedback.
Reply with a single JSON object and nothing else:
{"polarity": <number from -1 (very negative) to 1 (very positive)>,
 "subjectivity": <number from 0 (factual) to 1 (opinion)>}`

// Estimator asks the model for polarity and subjectivity. It satisfies
// sentiment.Estimator and can replace the adjective-lexicon estimator.
type Estimator struct {
	Client *Client
	// Timeout bounds each estimate; zero uses DefaultTimeout.
	Timeout time.Duration
}

// NewEstimator builds an estimator from the llm configuration section.
func NewEstimator(c config.LLM) *Estimator {
	timeout := time.Duration(c.TimeoutSec) * time.Second
	client := &Client{
		BaseURL:    c.BaseURL,
		APIKey:     c.APIKey,
		Model:      c.Model,
		HTTPClient: &http.Client{Timeout: max(timeout, DefaultTimeout)},
	}
	if c.RatePerMinute > 0 {
		client.Limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.RatePerMinute)), 1)
	}
	return &Estimator{Client: client, Timeout: timeout}
}

// Estimate implements sentiment.Estimator.
func (e *Estimator) Estimate(text string) (sentiment.Polarity, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reply, err := e.Client.Chat(ctx, polaritySystem, "Feedback: "+text)
	if err != nil {
		return sentiment.Polarity{}, err
	}
	return ParsePolarity(reply)
}

// ParsePolarity extracts the JSON object from a model reply, tolerating
// code fences and surrounding prose. Values are clamped to their ranges.
func ParsePolarity(reply string) (sentiment.Polarity, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return sentiment.Polarity{}, fmt.Errorf("llm: no JSON object in reply %q: %w", reply, internalerr.ErrInvalidInput)
	}
	var v struct {
		Polarity     *float64 `json:"polarity"`
		Subjectivity float64  `json:"subjectivity"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &v); err != nil {
		return sentiment.Polarity{}, fmt.Errorf("llm: parse reply: %v: %w", err, internalerr.ErrInvalidInput)
	}
	if v.Polarity == nil {
		return sentiment.Polarity{}, fmt.Errorf("llm: reply has no polarity: %w", internalerr.ErrInvalidInput)
	}
	return sentiment.Polarity{
		Score:        numeric.Clamp(*v.Polarity, -1, 1),
		Subjectivity: numeric.Clamp(v.Subjectivity, 0, 1),
	}, nil
}
