package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const soraDefaultBaseURL = "https://api.openai.com"

// SoraOptions configures the OpenAI Sora adapter.
type SoraOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Sora submits and polls video jobs against the OpenAI /v1/videos API.
// Sora always returns an async job; the completed video locator requires
// the caller's key as a bearer header to fetch.
type Sora struct {
	baseURL    string
	httpClient *http.Client
}

// NewSora constructs the adapter with sane defaults.
func NewSora(opts SoraOptions) *Sora {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = soraDefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Sora{baseURL: baseURL, httpClient: httpClient}
}

// soraSize maps an aspect ratio onto one of Sora's supported pixel
// geometries. Sora has no square size, so 1:1 falls back to landscape.
func soraSize(aspectRatio string) (size string, width, height int) {
	switch aspectRatio {
	case "9:16":
		return "720x1280", 720, 1280
	default: // 16:9 and the 1:1 fallback
		return "1280x720", 1280, 720
	}
}

// soraSeconds snaps a requested duration onto Sora's allowed set {4, 8, 12}.
func soraSeconds(durationSeconds int) string {
	switch {
	case durationSeconds <= 4:
		return "4"
	case durationSeconds <= 8:
		return "8"
	default:
		return "12"
	}
}

func soraModel(model string) string {
	if model == "sora-2-pro" {
		return "sora-2-pro"
	}
	return "sora-2"
}

type soraSubmitRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Seconds string `json:"seconds"`
}

type soraJobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress *int   `json:"progress"`
	Error    struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Submit starts a Sora video job. With reference images attached the
// request goes out as multipart form data carrying the first image resized
// to the snapped geometry; otherwise as JSON.
func (s *Sora) Submit(ctx context.Context, req SubmitRequest) (Job, error) {
	size, width, height := soraSize(req.AspectRatio)
	seconds := soraSeconds(req.DurationSeconds)
	model := soraModel(req.Model)

	var httpReq *http.Request
	var err error
	if len(req.ReferenceImages) > 0 {
		httpReq, err = s.multipartRequest(ctx, req, model, size, seconds, width, height)
	} else {
		httpReq, err = s.jsonRequest(ctx, req, model, size, seconds)
	}
	if err != nil {
		return Job{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return Job{}, fmt.Errorf("sora submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Job{}, fmt.Errorf("sora submit: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Job{}, soraError(body, resp.StatusCode)
	}

	var out soraJobResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Job{}, fmt.Errorf("sora submit: decode response: %w", err)
	}
	return Job{TaskID: out.ID}, nil
}

func (s *Sora) jsonRequest(ctx context.Context, req SubmitRequest, model, size, seconds string) (*http.Request, error) {
	payload, err := json.Marshal(soraSubmitRequest{
		Model:   model,
		Prompt:  req.Prompt,
		Size:    size,
		Seconds: seconds,
	})
	if err != nil {
		return nil, fmt.Errorf("sora submit: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/videos", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sora submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (s *Sora) multipartRequest(ctx context.Context, req SubmitRequest, model, size, seconds string, width, height int) (*http.Request, error) {
	resized, err := resizeCover(req.ReferenceImages[0].Data, width, height)
	if err != nil {
		return nil, fmt.Errorf("sora submit: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"model":   model,
		"prompt":  req.Prompt,
		"size":    size,
		"seconds": seconds,
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("sora submit: write form field: %w", err)
		}
	}

	part, err := form.CreateFormFile("input_reference", "reference.jpg")
	if err != nil {
		return nil, fmt.Errorf("sora submit: create form file: %w", err)
	}
	if _, err := part.Write(resized); err != nil {
		return nil, fmt.Errorf("sora submit: write reference image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("sora submit: close form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/videos", &buf)
	if err != nil {
		return nil, fmt.Errorf("sora submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	return httpReq, nil
}

// Poll fetches job status. Native statuses queued and in_progress map to
// processing; a completed job points at the /content endpoint, which needs
// the caller's bearer header to fetch.
func (s *Sora) Poll(ctx context.Context, taskID, apiKey string) (PollResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/videos/"+taskID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("sora poll: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("sora poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PollResult{}, fmt.Errorf("sora poll: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResult{}, soraError(body, resp.StatusCode)
	}

	var out soraJobResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return PollResult{}, fmt.Errorf("sora poll: decode response: %w", err)
	}

	switch out.Status {
	case "completed":
		return PollResult{
			State:     StateCompleted,
			VideoURL:  s.baseURL + "/v1/videos/" + taskID + "/content",
			NeedsAuth: true,
		}, nil
	case "failed":
		reason := out.Error.Message
		if reason == "" {
			reason = "generation failed"
		}
		return PollResult{State: StateFailed, Reason: reason}, nil
	default: // queued, in_progress
		return PollResult{State: StateProcessing, Progress: out.Progress}, nil
	}
}

func soraError(body []byte, statusCode int) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("%s", payload.Error.Message)
	}
	return fmt.Errorf("OpenAI error: %s", strconv.Itoa(statusCode))
}

var _ Provider = (*Sora)(nil)
