package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"cineforge/internal/config"
)

const userAgent = "Cineforge-Go/0.1.0"

// Service defines the notification surface exposed to the watcher.
type Service interface {
	NotifyProjectCompleted(ctx context.Context, title, videoURL string) error
	NotifyProjectFailed(ctx context.Context, title, reason string) error
	NotifyStitchTriggered(ctx context.Context, title string, clipCount int) error
	NotifyCreditsLow(ctx context.Context, balance int64) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		settings:    cfg.Notifications,
		dedupWindow: time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		recent:      make(map[string]time.Time),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	settings    config.Notifications
	dedupWindow time.Duration

	mu     sync.Mutex
	recent map[string]time.Time
}

func (n *ntfyService) NotifyProjectCompleted(ctx context.Context, title, videoURL string) error {
	if !n.settings.ProjectCompleted {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Movie ready: %s", title)
	if videoURL != "" {
		message += "\n" + videoURL
	}
	return n.send(ctx, payload{
		title:   "Cineforge - Completed",
		message: message,
		tags:    []string{"cineforge", "project", "completed"},
	})
}

func (n *ntfyService) NotifyProjectFailed(ctx context.Context, title, reason string) error {
	if !n.settings.ProjectFailed {
		return nil
	}
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason reported"
	}
	return n.send(ctx, payload{
		title:    "Cineforge - Failed",
		message:  fmt.Sprintf("Production failed: %s (%s)", title, reason),
		tags:     []string{"cineforge", "project", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyStitchTriggered(ctx context.Context, title string, clipCount int) error {
	if !n.settings.StitchTriggered {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Cineforge - Stitching",
		message: fmt.Sprintf("All %d clips done for %s, assembling final video", clipCount, strings.TrimSpace(title)),
		tags:    []string{"cineforge", "stitch"},
	})
}

// NotifyCreditsLow alerts when the balance sits below the configured
// threshold. The dedup window keeps a steady low balance from re-alerting on
// every refresh.
func (n *ntfyService) NotifyCreditsLow(ctx context.Context, balance int64) error {
	threshold := n.settings.CreditsLowThreshold
	if threshold <= 0 || balance >= threshold {
		return nil
	}
	return n.send(ctx, payload{
		title:    "Cineforge - Credits",
		message:  fmt.Sprintf("Credit balance is low: %d remaining (threshold %d)", balance, threshold),
		tags:     []string{"cineforge", "credits"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "Cineforge - Test",
		message: "Notifications are working",
		tags:    []string{"cineforge", "test"},
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.duplicate(data) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

// duplicate suppresses a repeat of the same title+message inside the dedup
// window; terminal status events can arrive more than once per project.
func (n *ntfyService) duplicate(data payload) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	key := data.title + "\x00" + data.message
	now := time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.recent[key]; ok && now.Sub(last) < n.dedupWindow {
		return true
	}
	for k, t := range n.recent {
		if now.Sub(t) >= n.dedupWindow {
			delete(n.recent, k)
		}
	}
	n.recent[key] = now
	return false
}

type noopService struct{}

func (noopService) NotifyProjectCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyProjectFailed(context.Context, string, string) error    { return nil }
func (noopService) NotifyStitchTriggered(context.Context, string, int) error     { return nil }
func (noopService) NotifyCreditsLow(context.Context, int64) error                { return nil }
func (noopService) TestNotification(context.Context) error {
	return fmt.Errorf("notifications are not configured; set notifications.ntfy_topic")
}
