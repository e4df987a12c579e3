package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vidforge/internal/dispatch"
	"vidforge/internal/infra/credentials"
	"vidforge/internal/providers/prompt"
	"vidforge/internal/providers/video"
	"vidforge/internal/relay"
	"vidforge/internal/store"
)

type stubDispatcher struct {
	mu         sync.Mutex
	job        video.Job
	submitErr  error
	pollResult video.PollResult
	pollErr    error
	submits    []dispatch.Request
	pollTags   []string
}

func (s *stubDispatcher) Submit(ctx context.Context, req dispatch.Request) (video.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits = append(s.submits, req)
	return s.job, s.submitErr
}

func (s *stubDispatcher) Poll(ctx context.Context, taskID, providerTag, apiKey string) (video.PollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollTags = append(s.pollTags, providerTag)
	return s.pollResult, s.pollErr
}

func (s *stubDispatcher) submitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submits)
}

type trackedCall struct {
	genID, taskID, provider, apiKey string
}

// stubTracker records Track calls and runs storyboard submissions
// synchronously so tests can assert on the outcome immediately.
type stubTracker struct {
	mu      sync.Mutex
	tracked []trackedCall
}

func (s *stubTracker) Track(ctx context.Context, genID, taskID, providerTag, apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = append(s.tracked, trackedCall{genID, taskID, providerTag, apiKey})
}

func (s *stubTracker) SubmitStoryboard(ctx context.Context, entries []string, submit func(ctx context.Context, prompt string) error, clear func()) {
	for _, entry := range entries {
		_ = submit(ctx, entry)
	}
	clear()
}

func (s *stubTracker) trackedCalls() []trackedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]trackedCall, len(s.tracked))
	copy(out, s.tracked)
	return out
}

type stubDownloader struct {
	result  *relay.Result
	err     error
	lastURL string
	lastKey string
	lastTag string
}

func (s *stubDownloader) Fetch(ctx context.Context, videoURL, apiKey, providerTag string) (*relay.Result, error) {
	s.lastURL = videoURL
	s.lastKey = apiKey
	s.lastTag = providerTag
	return s.result, s.err
}

type stubEnhancer struct {
	lastReq prompt.ComposeRequest
}

func (s *stubEnhancer) Compose(ctx context.Context, req prompt.ComposeRequest) string {
	s.lastReq = req
	return "enhanced: " + req.Prompt
}

type testEnv struct {
	app        *App
	store      *store.Store
	dispatcher *stubDispatcher
	tracker    *stubTracker
	downloader *stubDownloader
	enhancer   *stubEnhancer
	creds      *credentials.Store
	router     chi.Router
}

func newTestEnv(t *testing.T, seedKeys map[string]string) *testEnv {
	t.Helper()
	st := store.New(store.NewMemoryPersister(), zerolog.Nop())
	dispatcher := &stubDispatcher{job: video.Job{TaskID: "task-1", Provider: "openai"}}
	tracker := &stubTracker{}
	downloader := &stubDownloader{}
	enhancer := &stubEnhancer{}
	creds := credentials.NewStore(seedKeys)
	app := NewApp(context.Background(), st, dispatcher, tracker, downloader, enhancer, creds, 5, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/api/generate", app.Generate)
	r.Post("/api/generate/poll", app.Poll)
	r.Post("/api/generate/download", app.Download)
	r.Post("/api/enhance", app.Enhance)
	r.Get("/api/models", app.Models)
	r.Get("/api/prompts/suggestions", app.PromptSuggestions)
	r.Get("/api/credits", app.Credits)
	r.Delete("/api/error", app.DismissError)
	r.Get("/api/videos", app.VideosList)
	r.Get("/api/videos/{id}", app.VideoGet)
	r.Delete("/api/videos/{id}", app.VideoDelete)
	r.Post("/api/videos/{id}/favorite", app.VideoFavorite)
	r.Get("/api/storyboard", app.StoryboardList)
	r.Post("/api/storyboard", app.StoryboardAdd)
	r.Delete("/api/storyboard/{index}", app.StoryboardRemove)
	r.Post("/api/storyboard/generate", app.StoryboardGenerate)
	r.Get("/api/keys", app.KeysList)
	r.Put("/api/keys/{provider}", app.KeySet)
	r.Delete("/api/keys/{provider}", app.KeyDelete)

	return &testEnv{
		app:        app,
		store:      st,
		dispatcher: dispatcher,
		tracker:    tracker,
		downloader: downloader,
		enhancer:   enhancer,
		creds:      creds,
		router:     r,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
