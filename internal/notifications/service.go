package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lodestone/internal/config"
)

const userAgent = "Lodestone/0.1.0"

// Service defines the notification surface exposed to the scheduler.
type Service interface {
	NotifyInstallCompleted(ctx context.Context, displayName string) error
	NotifyInstallFailed(ctx context.Context, displayName, reason string) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		installs: cfg.Notifications.Installs,
		queue:    cfg.Notifications.Queue,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	installs bool
	queue    bool
	errors   bool
}

func (n *ntfyService) NotifyInstallCompleted(ctx context.Context, displayName string) error {
	if !n.installs {
		return nil
	}
	data := payload{
		title:   "Lodestone - Install Complete",
		message: fmt.Sprintf("Installed: %s", strings.TrimSpace(displayName)),
		tags:    []string{"lodestone", "install", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyInstallFailed(ctx context.Context, displayName, reason string) error {
	if !n.errors {
		return nil
	}
	message := fmt.Sprintf("Install failed: %s", strings.TrimSpace(displayName))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:    "Lodestone - Install Failed",
		message:  message,
		tags:     []string{"lodestone", "install", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Lodestone - Queue Complete"
		message = fmt.Sprintf("Install queue drained: %d items in %s", processed, duration)
	} else {
		title = "Lodestone - Queue Complete (with errors)"
		message = fmt.Sprintf("Install queue drained: %d succeeded, %d failed in %s", processed, failed, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"lodestone", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Lodestone - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"lodestone", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyInstallCompleted(context.Context, string) error { return nil }

func (noopService) NotifyInstallFailed(context.Context, string, string) error { return nil }

func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }

// NewNoop returns a Service that drops every notification; used in tests.
func NewNoop() Service { return noopService{} }
