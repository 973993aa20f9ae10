// Package notify delivers run notifications to webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
)

// Message is one notification.
type Message struct {
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Success   bool      `json:"success"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier sends messages.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// Nop discards every message.
type Nop struct{}

// Send implements Notifier.
func (Nop) Send(context.Context, Message) error { return nil }

// DefaultTimeout bounds one webhook request.
const DefaultTimeout = 10 * time.Second

// WebhookOptions configures a Webhook. RatePerMinute <= 0 disables
// throttling.
type WebhookOptions struct {
	RatePerMinute int
	Burst         int
	Timeout       time.Duration
	Client        *http.Client
	Logger        *logging.Logger
}

// Webhook posts messages as JSON to a URL. The body carries a "text" field,
// which chat webhooks display as-is.
type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	log     *logging.Logger
}

// NewWebhook validates target and creates a notifier.
func NewWebhook(target string, opts WebhookOptions) (*Webhook, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webhook url %q: %w", target, internalerr.ErrInvalidConfig)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RatePerMinute))
	}

	return &Webhook{
		url:     target,
		client:  client,
		limiter: rate.NewLimiter(limit, opts.Burst),
		log:     opts.Logger,
	}, nil
}

// Send waits for the rate limiter, then posts m.
func (w *Webhook) Send(ctx context.Context, m Message) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify: rate limit: %w", err)
	}

	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned %s", resp.Status)
	}
	w.log.Info("Notification sent to webhook")
	return nil
}
