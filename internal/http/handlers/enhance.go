package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"vidforge/internal/domain"
	"vidforge/internal/providers/prompt"
)

type enhanceRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	Style          string `json:"style"`
	APIKey         string `json:"apiKey"`
}

// Enhance rewrites a raw prompt into a detailed video-generation prompt.
// The composer falls back to deterministic assembly on any enrichment
// failure, so this always answers with usable text.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	apiKey := a.resolveKey(req.APIKey, domain.ProviderOpenAI)
	if apiKey == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "an OpenAI API key is required for enhancement")
		return
	}

	enhanced := a.Enhancer.Compose(r.Context(), prompt.ComposeRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		APIKey:         apiKey,
	})
	a.json(w, http.StatusOK, map[string]string{"enhancedPrompt": enhanced})
}
