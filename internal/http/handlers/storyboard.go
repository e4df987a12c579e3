package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidforge/internal/domain"
)

// StoryboardList returns the ordered storyboard entries.
func (a *App) StoryboardList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"entries": a.Store.Storyboard()})
}

// StoryboardAdd appends a scene prompt to the storyboard.
func (a *App) StoryboardAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	a.Store.AddStoryboard(req.Prompt)
	a.json(w, http.StatusCreated, map[string]any{"entries": a.Store.Storyboard()})
}

// StoryboardRemove deletes the entry at the given index.
func (a *App) StoryboardRemove(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid index")
		return
	}
	if !a.Store.RemoveStoryboard(index) {
		a.error(w, http.StatusNotFound, "not_found", "no storyboard entry at that index")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"entries": a.Store.Storyboard()})
}

type storyboardGenerateRequest struct {
	Model       string `json:"model"`
	Resolution  string `json:"resolution"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspectRatio"`
	Style       string `json:"style"`
	APIKey      string `json:"apiKey"`
}

// StoryboardGenerate fires one generation per storyboard entry, strictly
// sequentially with a fixed inter-submission delay. The storyboard is
// cleared once the last submission has fired, not when the scenes finish.
func (a *App) StoryboardGenerate(w http.ResponseWriter, r *http.Request) {
	var req storyboardGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	model, ok := domain.ModelByID(req.Model)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown model: %s", req.Model))
		return
	}
	apiKey := a.resolveKey(req.APIKey, model.ProviderTag)
	if apiKey == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", fmt.Sprintf("no API key configured for %s", model.ID))
		return
	}
	entries := a.Store.Storyboard()
	if len(entries) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "storyboard is empty")
		return
	}

	submit := func(ctx context.Context, scenePrompt string) error {
		_, _, err := a.startGeneration(ctx, &generateRequest{
			Prompt:      scenePrompt,
			Model:       model.ID,
			Resolution:  req.Resolution,
			Duration:    req.Duration,
			AspectRatio: req.AspectRatio,
			Style:       req.Style,
		}, model, apiKey)
		return err
	}
	a.Driver.SubmitStoryboard(a.baseCtx, entries, submit, a.Store.ClearStoryboard)

	a.json(w, http.StatusAccepted, map[string]any{"submitted": len(entries)})
}
