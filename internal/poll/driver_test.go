package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidforge/internal/providers/video"
)

// fakePoller serves a scripted sequence of poll results; the final entry
// repeats once the script is exhausted.
type fakePoller struct {
	mu      sync.Mutex
	script  []pollStep
	calls   int
	lastTag string
}

type pollStep struct {
	result video.PollResult
	err    error
}

func (f *fakePoller) Poll(ctx context.Context, taskID, providerTag, apiKey string) (video.PollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTag = providerTag
	idx := f.calls - 1
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	step := f.script[idx]
	return step.result, step.err
}

func (f *fakePoller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingStore tracks the transitions the driver applies.
type recordingStore struct {
	mu           sync.Mutex
	processing   bool
	markOK       bool
	progress     []int
	progressOK   bool
	completedURL string
	needsAuth    bool
	failedReason string
	bannerMsg    string
	done         chan struct{}
	doneOnce     sync.Once
}

func newRecordingStore() *recordingStore {
	return &recordingStore{markOK: true, progressOK: true, done: make(chan struct{})}
}

func (r *recordingStore) MarkProcessing(id, taskID, provider string, progress int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processing = true
	return r.markOK
}

func (r *recordingStore) SetProgress(id string, progress int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, progress)
	if !r.progressOK {
		r.doneOnce.Do(func() { close(r.done) })
	}
	return r.progressOK
}

func (r *recordingStore) Complete(id, videoURL string, needsAuth bool) bool {
	r.mu.Lock()
	r.completedURL = videoURL
	r.needsAuth = needsAuth
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
	return true
}

func (r *recordingStore) Fail(id, reason string) bool {
	r.mu.Lock()
	r.failedReason = reason
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
	return true
}

func (r *recordingStore) SetError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bannerMsg = msg
}

func (r *recordingStore) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("driver never reached a terminal transition")
	}
}

func fastOptions(maxAttempts int) Options {
	return Options{
		InitialDelay:    time.Millisecond,
		Interval:        time.Millisecond,
		MaxAttempts:     maxAttempts,
		StoryboardDelay: time.Millisecond,
	}
}

func TestTrackCompletesOnTerminalPoll(t *testing.T) {
	poller := &fakePoller{script: []pollStep{
		{result: video.PollResult{State: video.StateProcessing}},
		{result: video.PollResult{State: video.StateCompleted, VideoURL: "https://v/1.mp4", NeedsAuth: true}},
	}}
	st := newRecordingStore()
	d := NewDriver(poller, st, fastOptions(120), zerolog.Nop())

	d.Track(context.Background(), "g1", "t1", "openai", "key")
	st.wait(t)

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.processing {
		t.Error("Track did not mark the generation processing")
	}
	if st.completedURL != "https://v/1.mp4" || !st.needsAuth {
		t.Errorf("completed url=%q needsAuth=%v", st.completedURL, st.needsAuth)
	}
	if st.failedReason != "" {
		t.Errorf("unexpected failure %q", st.failedReason)
	}
	if poller.lastTag != "openai" {
		t.Errorf("poll tag = %q, want openai", poller.lastTag)
	}
}

func TestTrackFailsWithProviderReason(t *testing.T) {
	poller := &fakePoller{script: []pollStep{
		{result: video.PollResult{State: video.StateFailed, Reason: "content policy"}},
	}}
	st := newRecordingStore()
	d := NewDriver(poller, st, fastOptions(120), zerolog.Nop())

	d.Track(context.Background(), "g1", "t1", "openai", "key")
	st.wait(t)

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.failedReason != "content policy" {
		t.Fatalf("failure reason = %q", st.failedReason)
	}
	if st.bannerMsg != "content policy" {
		t.Errorf("banner = %q, want the failure reason", st.bannerMsg)
	}
}

func TestTrackSkipsWhenRecordAlreadyTerminal(t *testing.T) {
	poller := &fakePoller{script: []pollStep{{result: video.PollResult{State: video.StateProcessing}}}}
	st := newRecordingStore()
	st.markOK = false
	d := NewDriver(poller, st, fastOptions(120), zerolog.Nop())

	d.Track(context.Background(), "g1", "t1", "openai", "key")
	time.Sleep(20 * time.Millisecond)

	if n := poller.callCount(); n != 0 {
		t.Fatalf("poller called %d times for a dead record, want 0", n)
	}
}

func TestTrackStopsWhenRecordRemovedMidFlight(t *testing.T) {
	poller := &fakePoller{script: []pollStep{{result: video.PollResult{State: video.StateProcessing}}}}
	st := newRecordingStore()
	st.progressOK = false
	d := NewDriver(poller, st, fastOptions(120), zerolog.Nop())

	d.Track(context.Background(), "g1", "t1", "openai", "key")
	st.wait(t)
	calls := poller.callCount()
	time.Sleep(20 * time.Millisecond)

	if later := poller.callCount(); later != calls {
		t.Fatalf("poller kept running after removal: %d -> %d calls", calls, later)
	}
}

func TestTransientErrorsCountAgainstCeiling(t *testing.T) {
	poller := &fakePoller{script: []pollStep{{err: errors.New("upstream hiccup")}}}
	st := newRecordingStore()
	d := NewDriver(poller, st, fastOptions(3), zerolog.Nop())

	d.Track(context.Background(), "g1", "t1", "openai", "key")
	st.wait(t)

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.failedReason != "timed out waiting for the provider" {
		t.Fatalf("failure reason = %q, want timeout", st.failedReason)
	}
	if st.bannerMsg != "Timeout: generation took too long." {
		t.Errorf("banner = %q", st.bannerMsg)
	}
	if n := poller.callCount(); n != 3 {
		t.Errorf("poller called %d times, want exactly the ceiling of 3", n)
	}
}

func TestProgressEstimateNeverDecreases(t *testing.T) {
	hi := 60
	poller := &fakePoller{script: []pollStep{
		{result: video.PollResult{State: video.StateProcessing, Progress: &hi}},
		{result: video.PollResult{State: video.StateProcessing}},
		{result: video.PollResult{State: video.StateCompleted, VideoURL: "u"}},
	}}
	st := newRecordingStore()
	d := NewDriver(poller, st, fastOptions(120), zerolog.Nop())

	d.Track(context.Background(), "g1", "t1", "openai", "key")
	st.wait(t)

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.progress) < 2 {
		t.Fatalf("expected at least two progress updates, got %v", st.progress)
	}
	if st.progress[0] != 60 {
		t.Errorf("first estimate = %d, want the provider-reported 60", st.progress[0])
	}
}

func TestEstimate(t *testing.T) {
	t.Parallel()
	d := NewDriver(&fakePoller{script: []pollStep{{}}}, newRecordingStore(), Options{MaxAttempts: 120}, zerolog.Nop())

	if got := d.estimate(1, nil); got != 5 {
		t.Errorf("estimate(1, nil) = %d, want 5", got)
	}
	if got := d.estimate(120, nil); got != 95 {
		t.Errorf("estimate(120, nil) = %d, want 95", got)
	}
	reported := 70
	if got := d.estimate(1, &reported); got != 70 {
		t.Errorf("estimate(1, &70) = %d, want the reported value", got)
	}
	low := 3
	if got := d.estimate(60, &low); got != 50 {
		t.Errorf("estimate(60, &3) = %d, want the time-based 50", got)
	}
}

func TestSubmitStoryboardRunsSequentiallyThenClears(t *testing.T) {
	st := newRecordingStore()
	d := NewDriver(&fakePoller{script: []pollStep{{}}}, st, fastOptions(120), zerolog.Nop())

	var mu sync.Mutex
	var order []string
	cleared := make(chan struct{})
	submit := func(ctx context.Context, prompt string) error {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, prompt)
		if prompt == "scene two" {
			return errors.New("upstream rejected")
		}
		return nil
	}

	d.SubmitStoryboard(context.Background(), []string{"scene one", "scene two", "scene three"}, submit, func() { close(cleared) })

	select {
	case <-cleared:
	case <-time.After(5 * time.Second):
		t.Fatal("clear was never called")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"scene one", "scene two", "scene three"}
	if len(order) != len(want) {
		t.Fatalf("submissions = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("submission %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestSubmitStoryboardCopiesEntries(t *testing.T) {
	st := newRecordingStore()
	d := NewDriver(&fakePoller{script: []pollStep{{}}}, st, fastOptions(120), zerolog.Nop())

	entries := []string{"scene one", "scene two"}
	var mu sync.Mutex
	var got []string
	cleared := make(chan struct{})
	d.SubmitStoryboard(context.Background(), entries, func(ctx context.Context, prompt string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, prompt)
		return nil
	}, func() { close(cleared) })

	// Mutating the caller's slice must not affect in-flight submissions.
	entries[1] = "mutated"

	select {
	case <-cleared:
	case <-time.After(5 * time.Second):
		t.Fatal("clear was never called")
	}

	mu.Lock()
	defer mu.Unlock()
	if got[1] != "scene two" {
		t.Fatalf("second submission = %q, want the original entry", got[1])
	}
}
