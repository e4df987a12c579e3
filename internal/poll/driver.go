package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vidforge/internal/providers/video"
)

const (
	defaultInitialDelay    = 3 * time.Second
	defaultInterval        = 5 * time.Second
	defaultMaxAttempts     = 120 // ~10 minutes at the default interval
	defaultStoryboardDelay = time.Second
	initialProgress        = 5
)

// Poller is the dispatcher's polling entry point.
type Poller interface {
	Poll(ctx context.Context, taskID, providerTag, apiKey string) (video.PollResult, error)
}

// Store is the subset of generation-store transitions the driver applies.
// Every method returns false when the target record is gone or already
// terminal, which stops further scheduling.
type Store interface {
	MarkProcessing(id, taskID, provider string, progress int) bool
	SetProgress(id string, progress int) bool
	Complete(id, videoURL string, needsAuth bool) bool
	Fail(id, reason string) bool
	SetError(msg string)
}

// Options tunes the poll cadence and the attempt ceiling.
type Options struct {
	InitialDelay    time.Duration
	Interval        time.Duration
	MaxAttempts     int
	StoryboardDelay time.Duration
}

// Driver owns the client-visible lifecycle of pending generations. Each
// tracked generation gets its own goroutine whose cycles are strictly
// sequential; different generations progress independently. The driver
// never retries inside a cycle: a transient poll failure simply leaves
// the next cycle scheduled, counted against the same attempt ceiling.
type Driver struct {
	poller          Poller
	store           Store
	initialDelay    time.Duration
	interval        time.Duration
	maxAttempts     int
	storyboardDelay time.Duration
	logger          zerolog.Logger
}

// NewDriver constructs a driver with sane defaults for any unset option.
func NewDriver(poller Poller, store Store, opts Options, logger zerolog.Logger) *Driver {
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = defaultInitialDelay
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.StoryboardDelay <= 0 {
		opts.StoryboardDelay = defaultStoryboardDelay
	}
	return &Driver{
		poller:          poller,
		store:           store,
		initialDelay:    opts.InitialDelay,
		interval:        opts.Interval,
		maxAttempts:     opts.MaxAttempts,
		storyboardDelay: opts.StoryboardDelay,
		logger:          logger,
	}
}

// Track transitions the generation to processing and starts polling the
// given task until a terminal state or the attempt ceiling. It returns
// immediately; the loop runs until ctx is canceled or the generation
// reaches a terminal state.
func (d *Driver) Track(ctx context.Context, genID, taskID, providerTag, apiKey string) {
	if !d.store.MarkProcessing(genID, taskID, providerTag, initialProgress) {
		return
	}
	go d.run(ctx, genID, taskID, providerTag, apiKey)
}

func (d *Driver) run(ctx context.Context, genID, taskID, providerTag, apiKey string) {
	logger := d.logger.With().Str("generation_id", genID).Str("provider", providerTag).Logger()

	// Decouple the first check from the submission burst.
	if !sleep(ctx, d.initialDelay) {
		return
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		result, err := d.poller.Poll(ctx, taskID, providerTag, apiKey)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient failure: no state transition, just the next cycle.
			logger.Debug().Err(err).Int("attempt", attempt).Msg("poll cycle failed, rescheduling")
			if !sleep(ctx, d.interval) {
				return
			}
			continue
		}

		switch result.State {
		case video.StateCompleted:
			if d.store.Complete(genID, result.VideoURL, result.NeedsAuth) {
				logger.Info().Int("attempt", attempt).Msg("generation completed")
			}
			return
		case video.StateFailed:
			reason := result.Reason
			if reason == "" {
				reason = "generation failed"
			}
			if d.store.Fail(genID, reason) {
				d.store.SetError(reason)
				logger.Warn().Int("attempt", attempt).Str("reason", reason).Msg("generation failed")
			}
			return
		default:
			if !d.store.SetProgress(genID, d.estimate(attempt, result.Progress)) {
				// Record removed mid-flight; acting on it would resurrect
				// a deleted generation.
				return
			}
		}

		if !sleep(ctx, d.interval) {
			return
		}
	}

	if d.store.Fail(genID, "timed out waiting for the provider") {
		d.store.SetError("Timeout: generation took too long.")
		logger.Warn().Int("attempts", d.maxAttempts).Msg("generation timed out")
	}
}

// estimate blends the provider-reported progress with a monotonic
// time-based guess; the larger of the two wins, so displayed progress
// never moves backwards.
func (d *Driver) estimate(attempt int, reported *int) int {
	progress := initialProgress + attempt*90/d.maxAttempts
	if reported != nil && *reported > progress {
		progress = *reported
	}
	return progress
}

// SubmitStoryboard feeds each storyboard entry through submit, strictly
// sequentially with a fixed inter-submission delay, then calls clear. It
// returns immediately; submissions run in the background. A failed
// submission does not stop the remaining entries.
func (d *Driver) SubmitStoryboard(ctx context.Context, entries []string, submit func(ctx context.Context, prompt string) error, clear func()) {
	scenes := make([]string, len(entries))
	copy(scenes, entries)

	go func() {
		for i, scene := range scenes {
			if i > 0 && !sleep(ctx, d.storyboardDelay) {
				return
			}
			if err := submit(ctx, scene); err != nil {
				d.logger.Warn().Err(err).Int("scene", i).Msg("storyboard submission failed")
			}
		}
		clear()
	}()
}

// sleep waits for dur or context cancellation; false means canceled.
func sleep(ctx context.Context, dur time.Duration) bool {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
