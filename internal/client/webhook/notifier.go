// Package webhookclient posts execution notifications to user-configured URLs.
package webhookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
)

const (
	service        = "webhook"
	defaultTimeout = 5 * time.Second
)

type Notifier struct {
	client *http.Client
}

func NewNotifier(client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Notifier{client: client}
}

// Notify posts n as JSON. Any non-2xx reply is an error.
func (n *Notifier) Notify(ctx context.Context, url string, note dto.ExecutionNotification) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errs.NewValidationError(fmt.Sprintf("invalid webhook url %q", url))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "insights-backend/1")

	resp, err := n.client.Do(req)
	if err != nil {
		return errs.NewExternalServiceError(service, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.NewProviderError(service, resp.StatusCode, fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}
