package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vidforge/internal/domain"
)

// VideosList returns all generations newest first, together with the
// advisory credit balance and the current error banner.
func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	videos := a.Store.List()
	credits, _ := a.Store.Credits()
	payload := map[string]any{
		"videos":  videos,
		"total":   len(videos),
		"credits": credits,
	}
	if msg := a.Store.LastError(); msg != "" {
		payload["error"] = msg
	}
	a.json(w, http.StatusOK, payload)
}

// VideoGet returns one generation by id.
func (a *App) VideoGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gen, ok := a.Store.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	a.json(w, http.StatusOK, gen)
}

// VideoDelete removes a generation from the visible list. An in-flight
// poll loop notices the missing record on its next cycle and stops.
func (a *App) VideoDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.Store.Remove(id) {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// VideoFavorite toggles the favorite flag.
func (a *App) VideoFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.Store.ToggleFavorite(id) {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	gen, _ := a.Store.Get(id)
	a.json(w, http.StatusOK, gen)
}

// Credits reports the advisory balance; it enforces nothing.
func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	credits, used := a.Store.Credits()
	a.json(w, http.StatusOK, map[string]any{
		"credits":       credits,
		"plan":          "pro",
		"usedThisMonth": used,
	})
}

// DismissError clears the single-slot error banner.
func (a *App) DismissError(w http.ResponseWriter, r *http.Request) {
	a.Store.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// Models serves the selectable model catalog and style list.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"models": domain.Models,
		"styles": domain.Styles,
	})
}

// PromptSuggestions serves starting points for the prompt editor.
func (a *App) PromptSuggestions(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"suggestions": domain.PromptSuggestions})
}
