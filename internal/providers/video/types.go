package video

import "context"

// ReferenceImage is an uploaded conditioning image passed through to
// providers that accept one.
type ReferenceImage struct {
	Data     []byte
	MIME     string
	Filename string
}

// SubmitRequest is the normalized request passed to any video provider.
// Prompt is the final composed text; size and duration parameters are
// snapped to the provider's allowed sets inside each adapter.
type SubmitRequest struct {
	Prompt          string
	NegativePrompt  string
	Model           string
	Resolution      string
	DurationSeconds int
	AspectRatio     string
	Style           string
	APIKey          string
	ReferenceImages []ReferenceImage
}

// Job is the result of a submission: either a completed video locator or
// a pending provider-assigned task identifier. Exactly one shape is
// produced per submission.
type Job struct {
	Completed bool
	VideoURL  string
	TaskID    string
	Provider  string
}

// PollState is the normalized status vocabulary every provider maps onto.
type PollState string

const (
	StateProcessing PollState = "processing"
	StateCompleted  PollState = "completed"
	StateFailed     PollState = "failed"
)

// PollResult is the normalized outcome of one status check. Progress is
// nil when the provider does not report a figure. NeedsAuth marks video
// locators that require the caller's credential to fetch.
type PollResult struct {
	State     PollState
	Progress  *int
	VideoURL  string
	NeedsAuth bool
	Reason    string
}

// Provider is the contract implemented by all video generation adapters.
// Adapters perform exactly one outbound call per invocation and never
// retry; retry policy lives in the poll driver.
type Provider interface {
	Submit(ctx context.Context, req SubmitRequest) (Job, error)
	Poll(ctx context.Context, taskID, apiKey string) (PollResult, error)
}
