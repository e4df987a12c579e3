package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidforge/internal/dispatch"
	"vidforge/internal/domain"
	"vidforge/internal/providers/video"
)

const maxUploadBytes = 32 << 20

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	Model          string `json:"model"`
	Resolution     string `json:"resolution"`
	Duration       int    `json:"duration"`
	AspectRatio    string `json:"aspectRatio"`
	Style          string `json:"style"`
	APIKey         string `json:"apiKey"`

	images []video.ReferenceImage
}

type generateResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	VideoURL string `json:"videoUrl,omitempty"`
	TaskID   string `json:"taskId,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Generate accepts a generation request as JSON, or as multipart form
// data when reference images are attached, validates it, creates the
// Generation record, and submits it to the selected provider. Pending
// tasks are handed to the poll driver; a synchronously completed job is
// answered directly.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := a.parseGenerateRequest(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	model, ok := domain.ModelByID(req.Model)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown model: %s", req.Model))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	apiKey := a.resolveKey(req.APIKey, model.ProviderTag)
	if apiKey == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", fmt.Sprintf("no API key configured for %s", model.ID))
		return
	}

	gen, job, err := a.startGeneration(r.Context(), req, model, apiKey)
	if err != nil {
		a.error(w, http.StatusBadGateway, "upstream", err.Error())
		return
	}

	resp := generateResponse{ID: gen.ID}
	if job.Completed {
		resp.Status = string(domain.StatusCompleted)
		resp.VideoURL = job.VideoURL
	} else {
		resp.Status = string(domain.StatusProcessing)
		resp.TaskID = job.TaskID
		resp.Provider = job.Provider
	}
	a.json(w, http.StatusOK, resp)
}

// startGeneration inserts the Generation record, submits it, and either
// completes it in place or hands it to the poll driver. Used by both the
// generate handler and the storyboard batch. An upstream submission error
// marks the just-created record failed.
func (a *App) startGeneration(ctx context.Context, req *generateRequest, model domain.ModelInfo, apiKey string) (domain.Generation, video.Job, error) {
	gen := domain.Generation{
		ID:             uuid.NewString(),
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Model:          model.ID,
		Resolution:     req.Resolution,
		Duration:       req.Duration,
		AspectRatio:    req.AspectRatio,
		Style:          req.Style,
		Status:         domain.StatusPending,
		Provider:       model.ProviderTag,
		Cost:           model.Cost(req.Duration, req.Resolution),
		CreatedAt:      time.Now().UTC(),
	}
	a.Store.Insert(gen)

	job, err := a.Dispatcher.Submit(ctx, dispatch.Request{
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		Model:           model.ID,
		Resolution:      req.Resolution,
		DurationSeconds: req.Duration,
		AspectRatio:     req.AspectRatio,
		Style:           req.Style,
		APIKey:          apiKey,
		ReferenceImages: req.images,
	})
	if err != nil {
		a.Store.Fail(gen.ID, err.Error())
		a.Store.SetError(err.Error())
		return gen, video.Job{}, err
	}

	a.Store.ChargeCredits(gen.Cost)
	if job.Completed {
		a.Store.Complete(gen.ID, job.VideoURL, false)
	} else {
		a.Driver.Track(a.baseCtx, gen.ID, job.TaskID, job.Provider, apiKey)
	}
	return gen, job, nil
}

// resolveKey prefers the caller's key and falls back to the server-side
// credential store for the provider.
func (a *App) resolveKey(requestKey, providerTag string) string {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key
	}
	return a.Credentials.Token(providerTag)
}

func (a *App) parseGenerateRequest(r *http.Request) (*generateRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		return a.parseMultipart(r)
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (a *App) parseMultipart(r *http.Request) (*generateRequest, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}

	duration, err := strconv.Atoi(r.FormValue("duration"))
	if err != nil {
		return nil, fmt.Errorf("invalid duration: %w", err)
	}

	req := &generateRequest{
		Prompt:         r.FormValue("prompt"),
		NegativePrompt: r.FormValue("negativePrompt"),
		Model:          r.FormValue("model"),
		Resolution:     r.FormValue("resolution"),
		Duration:       duration,
		AspectRatio:    r.FormValue("aspectRatio"),
		Style:          r.FormValue("style"),
		APIKey:         r.FormValue("apiKey"),
	}

	files := r.MultipartForm.File["images"]
	if len(files) > a.MaxReferenceImages {
		files = files[:a.MaxReferenceImages]
	}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open reference image: %w", err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("read reference image: %w", err)
		}
		req.images = append(req.images, video.ReferenceImage{
			Data:     data,
			MIME:     header.Header.Get("Content-Type"),
			Filename: header.Filename,
		})
	}
	return req, nil
}
