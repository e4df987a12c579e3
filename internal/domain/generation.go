package domain

import "time"

// Status enumerates the lifecycle states of a generation. Completed and
// failed are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions may leave the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Generation is the client-visible record of one video generation. It is
// created with status pending at submission time and mutated only by the
// store through narrow id-keyed transitions.
type Generation struct {
	ID             string    `json:"id"`
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negativePrompt,omitempty"`
	Model          string    `json:"model"`
	Resolution     string    `json:"resolution"`
	Duration       int       `json:"duration"`
	AspectRatio    string    `json:"aspectRatio"`
	Style          string    `json:"style"`
	Status         Status    `json:"status"`
	Progress       int       `json:"progress"`
	VideoURL       string    `json:"videoUrl,omitempty"`
	NeedsAuth      bool      `json:"needsAuth,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	TaskID         string    `json:"taskId,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	IsFavorite     bool      `json:"isFavorite"`
	Cost           int       `json:"cost,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
