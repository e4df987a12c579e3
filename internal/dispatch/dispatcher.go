package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vidforge/internal/domain"
	"vidforge/internal/providers/prompt"
	"vidforge/internal/providers/video"
)

// Composer finalizes prompt text before submission.
type Composer interface {
	Compose(ctx context.Context, req prompt.ComposeRequest) string
	Assemble(req prompt.ComposeRequest) string
}

// Request is a validated-and-dispatched generation request. Prompt is the
// user's raw text; the dispatcher finalizes it through the composer.
type Request struct {
	Prompt          string
	NegativePrompt  string
	Model           string
	Resolution      string
	DurationSeconds int
	AspectRatio     string
	Style           string
	APIKey          string
	ReferenceImages []video.ReferenceImage
}

type registration struct {
	adapter video.Provider
	tag     string
	enrich  bool
}

// Dispatcher selects the provider adapter for a generation request,
// finalizes the prompt, and submits. It depends only on the Provider
// interface; all provider-specific branching lives in the adapters.
type Dispatcher struct {
	composer Composer
	byModel  map[string]registration
	byTag    map[string]video.Provider
	logger   zerolog.Logger
}

// NewDispatcher constructs an empty dispatcher; adapters are wired in via
// Register.
func NewDispatcher(composer Composer, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		composer: composer,
		byModel:  make(map[string]registration),
		byTag:    make(map[string]video.Provider),
		logger:   logger,
	}
}

// Register binds a model identifier to a provider adapter under the given
// provider tag. enrich selects LLM prompt enrichment over deterministic
// assembly for that model.
func (d *Dispatcher) Register(modelID, providerTag string, adapter video.Provider, enrich bool) {
	d.byModel[modelID] = registration{adapter: adapter, tag: providerTag, enrich: enrich}
	d.byTag[providerTag] = adapter
}

// Submit validates the request, finalizes the prompt, and submits it to
// the adapter selected by the request's model. Validation failures are
// reported before any network call is made.
func (d *Dispatcher) Submit(ctx context.Context, req Request) (video.Job, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return video.Job{}, domain.ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return video.Job{}, domain.ErrEmptyPrompt
	}
	reg, ok := d.byModel[req.Model]
	if !ok {
		return video.Job{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, req.Model)
	}

	composeReq := prompt.ComposeRequest{
		Prompt:             req.Prompt,
		NegativePrompt:     req.NegativePrompt,
		Style:              req.Style,
		HasReferenceImages: len(req.ReferenceImages) > 0,
		APIKey:             req.APIKey,
	}
	var finalPrompt string
	if reg.enrich {
		finalPrompt = d.composer.Compose(ctx, composeReq)
	} else {
		finalPrompt = d.composer.Assemble(composeReq)
	}

	d.logger.Debug().
		Str("model", req.Model).
		Str("provider", reg.tag).
		Int("duration", req.DurationSeconds).
		Str("aspect_ratio", req.AspectRatio).
		Msg("submitting generation")

	job, err := reg.adapter.Submit(ctx, video.SubmitRequest{
		Prompt:          finalPrompt,
		NegativePrompt:  req.NegativePrompt,
		Model:           req.Model,
		Resolution:      req.Resolution,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Style:           req.Style,
		APIKey:          req.APIKey,
		ReferenceImages: req.ReferenceImages,
	})
	if err != nil {
		return video.Job{}, err
	}
	job.Provider = reg.tag
	return job, nil
}

// Poll passes a status check through to the adapter selected by the
// explicit provider tag. The tag is fixed at submission time and is not
// re-derived from the model.
func (d *Dispatcher) Poll(ctx context.Context, taskID, providerTag, apiKey string) (video.PollResult, error) {
	adapter, ok := d.byTag[providerTag]
	if !ok {
		return video.PollResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, providerTag)
	}
	return adapter.Poll(ctx, taskID, apiKey)
}
