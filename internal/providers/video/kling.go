package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const klingDefaultBaseURL = "https://api.klingai.com"

// KlingOptions configures the Kling adapter.
type KlingOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Kling submits and polls text-to-video jobs against the Kuaishou Kling
// API. Kling wraps task state under a data envelope and uses the "succeed"
// status spelling.
type Kling struct {
	baseURL    string
	httpClient *http.Client
}

// NewKling constructs the adapter with sane defaults.
func NewKling(opts KlingOptions) *Kling {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = klingDefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Kling{baseURL: baseURL, httpClient: httpClient}
}

type klingSubmitRequest struct {
	ModelName      string `json:"model_name"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Duration       string `json:"duration"`
	AspectRatio    string `json:"aspect_ratio"`
}

type klingSubmitResponse struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	Data   struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

type klingTaskResponse struct {
	Data struct {
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		VideoURL      string `json:"video_url"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

// Submit starts a Kling text-to-video generation.
func (k *Kling) Submit(ctx context.Context, req SubmitRequest) (Job, error) {
	payload, err := json.Marshal(klingSubmitRequest{
		ModelName:      "kling-v2",
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Duration:       strconv.Itoa(req.DurationSeconds),
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return Job{}, fmt.Errorf("kling submit: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+"/v1/videos/text2video", bytes.NewReader(payload))
	if err != nil {
		return Job{}, fmt.Errorf("kling submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return Job{}, fmt.Errorf("kling submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Job{}, fmt.Errorf("kling submit: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Job{}, klingError(body, resp.StatusCode)
	}

	var out klingSubmitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Job{}, fmt.Errorf("kling submit: decode response: %w", err)
	}
	taskID := out.Data.TaskID
	if taskID == "" {
		taskID = out.TaskID
	}
	if taskID == "" {
		taskID = out.ID
	}
	return Job{TaskID: taskID}, nil
}

// Poll fetches task status. Kling reports no numeric progress.
func (k *Kling) Poll(ctx context.Context, taskID, apiKey string) (PollResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+"/v1/videos/text2video/"+taskID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("kling poll: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("kling poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PollResult{}, fmt.Errorf("kling poll: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResult{}, klingError(body, resp.StatusCode)
	}

	var out klingTaskResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return PollResult{}, fmt.Errorf("kling poll: decode response: %w", err)
	}

	switch out.Data.TaskStatus {
	case "succeed":
		url := out.Data.VideoURL
		if len(out.Data.TaskResult.Videos) > 0 {
			url = out.Data.TaskResult.Videos[0].URL
		}
		return PollResult{State: StateCompleted, VideoURL: url}, nil
	case "failed":
		reason := out.Data.TaskStatusMsg
		if reason == "" {
			reason = "generation failed"
		}
		return PollResult{State: StateFailed, Reason: reason}, nil
	default: // submitted, processing
		return PollResult{State: StateProcessing}, nil
	}
}

func klingError(body []byte, statusCode int) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error.Message != "" {
			return fmt.Errorf("%s", payload.Error.Message)
		}
		if payload.Message != "" {
			return fmt.Errorf("%s", payload.Message)
		}
	}
	return fmt.Errorf("Kling error: %d", statusCode)
}

var _ Provider = (*Kling)(nil)
