package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const veoDefaultBaseURL = "https://generativelanguage.googleapis.com"

// VeoOptions configures the Google Veo adapter.
type VeoOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Veo submits video jobs to Google's generative language endpoint. Veo may
// complete synchronously: when the submit response already carries a video
// URI no polling is needed.
type Veo struct {
	baseURL    string
	httpClient *http.Client
}

// NewVeo constructs the adapter with sane defaults.
func NewVeo(opts VeoOptions) *Veo {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = veoDefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Veo{baseURL: baseURL, httpClient: httpClient}
}

type veoSubmitRequest struct {
	Prompt      string         `json:"prompt"`
	VideoConfig veoVideoConfig `json:"videoConfig"`
}

type veoVideoConfig struct {
	AspectRatio     string `json:"aspectRatio"`
	DurationSeconds int    `json:"durationSeconds"`
	Resolution      string `json:"resolution"`
}

type veoSubmitResponse struct {
	Name        string `json:"name"`
	OperationID string `json:"operationId"`
	Video       struct {
		URI string `json:"uri"`
	} `json:"video"`
}

type veoOperationResponse struct {
	Done  bool `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		Video struct {
			URI string `json:"uri"`
		} `json:"video"`
		Videos []struct {
			URI string `json:"uri"`
		} `json:"videos"`
	} `json:"response"`
	Result struct {
		Video struct {
			URI string `json:"uri"`
		} `json:"video"`
	} `json:"result"`
}

// Submit starts a Veo generation. The API key travels as a query parameter
// rather than a header.
func (v *Veo) Submit(ctx context.Context, req SubmitRequest) (Job, error) {
	payload, err := json.Marshal(veoSubmitRequest{
		Prompt: req.Prompt,
		VideoConfig: veoVideoConfig{
			AspectRatio:     req.AspectRatio,
			DurationSeconds: req.DurationSeconds,
			Resolution:      req.Resolution,
		},
	})
	if err != nil {
		return Job{}, fmt.Errorf("veo submit: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/veo-3.1:generateVideo?key=%s", v.baseURL, url.QueryEscape(req.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Job{}, fmt.Errorf("veo submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return Job{}, fmt.Errorf("veo submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Job{}, fmt.Errorf("veo submit: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Job{}, veoError(body, resp.StatusCode)
	}

	var out veoSubmitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Job{}, fmt.Errorf("veo submit: decode response: %w", err)
	}

	if out.Video.URI != "" {
		return Job{Completed: true, VideoURL: out.Video.URI}, nil
	}
	taskID := out.Name
	if taskID == "" {
		taskID = out.OperationID
	}
	return Job{TaskID: taskID}, nil
}

// Poll checks the long-running operation named by taskID. Veo reports no
// numeric progress.
func (v *Veo) Poll(ctx context.Context, taskID, apiKey string) (PollResult, error) {
	endpoint := fmt.Sprintf("%s/v1beta/%s?key=%s", v.baseURL, taskID, url.QueryEscape(apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("veo poll: build request: %w", err)
	}

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("veo poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PollResult{}, fmt.Errorf("veo poll: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResult{}, veoError(body, resp.StatusCode)
	}

	var out veoOperationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return PollResult{}, fmt.Errorf("veo poll: decode response: %w", err)
	}

	if !out.Done {
		return PollResult{State: StateProcessing}, nil
	}
	if out.Error != nil {
		return PollResult{State: StateFailed, Reason: out.Error.Message}, nil
	}

	uri := out.Response.Video.URI
	if uri == "" && len(out.Response.Videos) > 0 {
		uri = out.Response.Videos[0].URI
	}
	if uri == "" {
		uri = out.Result.Video.URI
	}
	return PollResult{State: StateCompleted, VideoURL: uri}, nil
}

func veoError(body []byte, statusCode int) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("%s", payload.Error.Message)
	}
	return fmt.Errorf("Google error: %d", statusCode)
}

var _ Provider = (*Veo)(nil)
