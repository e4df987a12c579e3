package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"vidforge/internal/domain"
	"vidforge/internal/infra/credentials"
)

// KeysList reports which providers have a server-side key configured.
// Keys are masked; they never leave the process in the clear.
func (a *App) KeysList(w http.ResponseWriter, r *http.Request) {
	items := lo.Map(domain.ProviderTags(), func(tag string, _ int) map[string]any {
		key := a.Credentials.Token(tag)
		return map[string]any{
			"provider":   tag,
			"configured": key != "",
			"key":        credentials.Masked(key),
		}
	})
	a.json(w, http.StatusOK, map[string]any{"keys": items})
}

// KeySet stores or replaces the key for a provider.
func (a *App) KeySet(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !lo.Contains(domain.ProviderTags(), provider) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown provider")
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "key is required")
		return
	}
	a.Credentials.Set(provider, req.Key)
	w.WriteHeader(http.StatusNoContent)
}

// KeyDelete removes the key for a provider.
func (a *App) KeyDelete(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !lo.Contains(domain.ProviderTags(), provider) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown provider")
		return
	}
	a.Credentials.Delete(provider)
	w.WriteHeader(http.StatusNoContent)
}
