package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/etl/report"
)

// WebhookConfig configures JSON delivery to an HTTP endpoint.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Timeout time.Duration     `yaml:"timeout"`
}

// WebhookPayload is the body posted to the webhook.
type WebhookPayload struct {
	Subject string           `json:"subject"`
	Text    string           `json:"text"`
	Report  domain.RunReport `json:"report"`
}

// Webhook posts the report as JSON.
type Webhook struct {
	cfg        WebhookConfig
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier.
func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Webhook{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

func (w *Webhook) Notify(ctx context.Context, r domain.RunReport) error {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(WebhookPayload{
		Subject: report.Subject(r),
		Text:    report.Text(r),
		Report:  r,
	})
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned http %d", resp.StatusCode)
	}
	return nil
}
