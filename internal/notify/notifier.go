// Package notify dispatches user-facing timer notifications.
//
// The ntfy implementation posts to the configured topic URL; when no topic is
// set, or notifications are turned off, a no-op notifier is used so the timer
// never depends on delivery.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "tictask/0.1.0"

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

type Options struct {
	Enabled bool
	Topic   string
	Timeout time.Duration
}

func New(opts Options) Notifier {
	topic := strings.TrimSpace(opts.Topic)
	if !opts.Enabled || topic == "" {
		return Noop{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type Noop struct{}

func (Noop) Notify(context.Context, string, string) error { return nil }

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyNotifier) Notify(ctx context.Context, title, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Tags", "tictask,timer")
	if title = strings.TrimSpace(title); title != "" {
		req.Header.Set("Title", title)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
