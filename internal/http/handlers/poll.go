package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vidforge/internal/domain"
	"vidforge/internal/providers/video"
)

type pollRequest struct {
	TaskID   string `json:"taskId"`
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

type pollResponse struct {
	Status    string `json:"status"`
	Progress  *int   `json:"progress,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
	NeedsAuth bool   `json:"needsAuth,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Poll runs one normalized status check against the provider named by the
// explicit provider tag.
func (a *App) Poll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.APIKey = a.resolveKey(req.APIKey, req.Provider)
	if strings.TrimSpace(req.TaskID) == "" || strings.TrimSpace(req.Provider) == "" || req.APIKey == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "taskId, provider and apiKey are required")
		return
	}

	result, err := a.Dispatcher.Poll(r.Context(), req.TaskID, req.Provider, req.APIKey)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProvider) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, http.StatusBadGateway, "upstream", err.Error())
		return
	}

	resp := pollResponse{Status: string(result.State)}
	switch result.State {
	case video.StateCompleted:
		resp.VideoURL = result.VideoURL
		resp.NeedsAuth = result.NeedsAuth
	case video.StateFailed:
		resp.Error = result.Reason
	default:
		resp.Progress = result.Progress
	}
	a.json(w, http.StatusOK, resp)
}
