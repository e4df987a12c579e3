package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	runwayDefaultBaseURL = "https://api.runwayml.com"
	runwayAPIVersion     = "2024-11-06"
)

// RunwayOptions configures the Runway adapter.
type RunwayOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Runway submits and polls Gen-4 video jobs. Runway is purely async; every
// submission yields a task to poll.
type Runway struct {
	baseURL    string
	httpClient *http.Client
}

// NewRunway constructs the adapter with sane defaults.
func NewRunway(opts RunwayOptions) *Runway {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = runwayDefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Runway{baseURL: baseURL, httpClient: httpClient}
}

type runwaySubmitRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
	Ratio    string `json:"ratio"`
}

type runwayTaskResponse struct {
	ID        string   `json:"id"`
	TaskID    string   `json:"taskId"`
	Status    string   `json:"status"`
	Progress  *int     `json:"progress"`
	Failure   string   `json:"failure"`
	Output    []string `json:"output"`
	URL       string   `json:"url"`
	Artifacts []struct {
		URL string `json:"url"`
	} `json:"artifacts"`
}

// Submit starts a Runway Gen-4 generation.
func (r *Runway) Submit(ctx context.Context, req SubmitRequest) (Job, error) {
	payload, err := json.Marshal(runwaySubmitRequest{
		Model:    "gen4",
		Prompt:   req.Prompt,
		Duration: req.DurationSeconds,
		Ratio:    req.AspectRatio,
	})
	if err != nil {
		return Job{}, fmt.Errorf("runway submit: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/video/generate", bytes.NewReader(payload))
	if err != nil {
		return Job{}, fmt.Errorf("runway submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("X-Runway-Version", runwayAPIVersion)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return Job{}, fmt.Errorf("runway submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Job{}, fmt.Errorf("runway submit: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Job{}, runwayError(body, resp.StatusCode)
	}

	var out runwayTaskResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Job{}, fmt.Errorf("runway submit: decode response: %w", err)
	}
	taskID := out.ID
	if taskID == "" {
		taskID = out.TaskID
	}
	return Job{TaskID: taskID}, nil
}

// Poll fetches task status. Runway reports SUCCEEDED/FAILED in upper case
// but has also shipped lower-case "completed"; both map to completed.
func (r *Runway) Poll(ctx context.Context, taskID, apiKey string) (PollResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/video/generate/"+taskID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("runway poll: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("X-Runway-Version", runwayAPIVersion)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("runway poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PollResult{}, fmt.Errorf("runway poll: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResult{}, runwayError(body, resp.StatusCode)
	}

	var out runwayTaskResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return PollResult{}, fmt.Errorf("runway poll: decode response: %w", err)
	}

	switch out.Status {
	case "SUCCEEDED", "completed":
		url := out.URL
		if len(out.Output) > 0 {
			url = out.Output[0]
		} else if len(out.Artifacts) > 0 {
			url = out.Artifacts[0].URL
		}
		return PollResult{State: StateCompleted, VideoURL: url}, nil
	case "FAILED":
		reason := out.Failure
		if reason == "" {
			reason = "generation failed"
		}
		return PollResult{State: StateFailed, Reason: reason}, nil
	default:
		return PollResult{State: StateProcessing, Progress: out.Progress}, nil
	}
}

func runwayError(body []byte, statusCode int) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("%s", payload.Error.Message)
	}
	return fmt.Errorf("Runway error: %d", statusCode)
}

var _ Provider = (*Runway)(nil)
