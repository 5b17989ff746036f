// Package platformclient fetches report data from the connected ad and
// analytics platforms and flattens it into tables.
package platformclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

const maxErrorBody = 4 << 10

// requester performs authenticated, rate-limited JSON requests on behalf of a
// single provider.
type requester struct {
	service string
	limiter *rate.Limiter
	base    *http.Client
}

func newRequester(service string, limiter *rate.Limiter, base *http.Client) requester {
	if base == nil {
		base = http.DefaultClient
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return requester{service: service, limiter: limiter, base: base}
}

// client returns an HTTP client that sends token as a bearer credential.
func (r requester) client(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

// do sends the request and decodes a 2xx JSON body into out.
func (r requester) do(ctx context.Context, token, method, url string, headers map[string]string, body, out any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return errs.NewExternalServiceError(r.service, true, err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", r.service, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.service, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client(ctx, token).Do(req)
	if err != nil {
		return errs.NewExternalServiceError(r.service, true, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(r.service, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewExternalServiceError(r.service, false, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func checkStatus(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(raw))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errs.NewTokenExpiredError(service)
	case http.StatusForbidden:
		return errs.NewPermissionDeniedError(service, service+" denied access to the requested account")
	default:
		msg := fmt.Sprintf("%s returned status %d", service, resp.StatusCode)
		if detail != "" {
			msg += ": " + detail
		}
		return errs.NewProviderError(service, resp.StatusCode, msg)
	}
}

func orDefault(values, defaults []string) []string {
	if len(values) == 0 {
		return defaults
	}
	return values
}

// isoDate converts YYYYMMDD to YYYY-MM-DD and leaves anything else unchanged.
func isoDate(s string) string {
	if len(s) == 8 && strings.Trim(s, "0123456789") == "" {
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return s
}
