// Package relay proxies video downloads whose locators require the
// caller's credential as an auth header, so the credential is never
// handed to an arbitrary third-party URL from the browser context.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidforge/internal/domain"
)

// Result carries the relayed byte stream and its metadata. The caller
// owns Body and must close it.
type Result struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// StatusError reports a non-success upstream response; the relay handler
// passes the code through to the client.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download failed: %d", e.StatusCode)
}

// Relay fetches video bytes on behalf of the client.
type Relay struct {
	httpClient *http.Client
}

// NewRelay constructs a relay. Downloads can be large, so the default
// client has no overall timeout; cancellation comes from the request
// context.
func NewRelay(httpClient *http.Client) *Relay {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 0}
	}
	return &Relay{httpClient: httpClient}
}

// Fetch retrieves the bytes behind videoURL, attaching the credential as
// the provider-appropriate auth header. Only OpenAI locators need one;
// the other providers hand out directly fetchable URLs.
func (r *Relay) Fetch(ctx context.Context, videoURL, apiKey, providerTag string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	if providerTag == domain.ProviderOpenAI && apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return &Result{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}

// DefaultTimeout bounds relayed downloads started without a deadline.
const DefaultTimeout = 10 * time.Minute
