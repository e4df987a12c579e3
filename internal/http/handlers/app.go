package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"vidforge/internal/dispatch"
	"vidforge/internal/infra/credentials"
	"vidforge/internal/providers/prompt"
	"vidforge/internal/providers/video"
	"vidforge/internal/relay"
	"vidforge/internal/store"
)

// Dispatcher submits generation requests and passes poll checks through
// to the selected provider adapter.
type Dispatcher interface {
	Submit(ctx context.Context, req dispatch.Request) (video.Job, error)
	Poll(ctx context.Context, taskID, providerTag, apiKey string) (video.PollResult, error)
}

// Tracker drives the poll lifecycle of pending generations and the
// sequential storyboard batch.
type Tracker interface {
	Track(ctx context.Context, genID, taskID, providerTag, apiKey string)
	SubmitStoryboard(ctx context.Context, entries []string, submit func(ctx context.Context, prompt string) error, clear func())
}

// Downloader relays credentialed video fetches.
type Downloader interface {
	Fetch(ctx context.Context, videoURL, apiKey, providerTag string) (*relay.Result, error)
}

// Enhancer rewrites raw prompts; it never fails.
type Enhancer interface {
	Compose(ctx context.Context, req prompt.ComposeRequest) string
}

// App is the handler container; dependencies are injected as interfaces
// so tests can stub them.
type App struct {
	Store       *store.Store
	Dispatcher  Dispatcher
	Driver      Tracker
	Relay       Downloader
	Enhancer    Enhancer
	Credentials *credentials.Store
	Logger      zerolog.Logger

	// MaxReferenceImages caps uploaded conditioning images per request.
	MaxReferenceImages int

	// baseCtx outlives individual requests; poll loops and storyboard
	// submissions run against it so they survive the submitting request.
	baseCtx context.Context
}

// NewApp wires the handler container. baseCtx should be the server
// lifetime context.
func NewApp(baseCtx context.Context, st *store.Store, dispatcher Dispatcher, driver Tracker, rel Downloader, enhancer Enhancer, creds *credentials.Store, maxImages int, logger zerolog.Logger) *App {
	if maxImages <= 0 {
		maxImages = 5
	}
	return &App{
		Store:              st,
		Dispatcher:         dispatcher,
		Driver:             driver,
		Relay:              rel,
		Enhancer:           enhancer,
		Credentials:        creds,
		Logger:             logger,
		MaxReferenceImages: maxImages,
		baseCtx:            baseCtx,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]any{"error": msg, "code": code})
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
