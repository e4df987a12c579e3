package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"vidforge/internal/relay"
)

type downloadRequest struct {
	VideoURL string `json:"videoUrl"`
	APIKey   string `json:"apiKey"`
	Provider string `json:"provider"`
}

// Download relays completed video bytes through the server, attaching the
// provider credential where the locator requires one, so the key never
// travels to a third-party URL from the browser.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "videoUrl is required")
		return
	}
	apiKey := a.resolveKey(req.APIKey, req.Provider)

	ctx, cancel := context.WithTimeout(r.Context(), relay.DefaultTimeout)
	defer cancel()

	result, err := a.Relay.Fetch(ctx, req.VideoURL, apiKey, req.Provider)
	if err != nil {
		var statusErr *relay.StatusError
		if errors.As(err, &statusErr) {
			a.error(w, statusErr.StatusCode, "download", fmt.Sprintf("download failed: %d", statusErr.StatusCode))
			return
		}
		a.error(w, http.StatusBadGateway, "download", err.Error())
		return
	}
	defer func() { _ = result.Body.Close() }()

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="vidforge-video.mp4"`)
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	if _, err := io.Copy(w, result.Body); err != nil {
		a.Logger.Warn().Err(err).Msg("download relay stream interrupted")
	}
}
