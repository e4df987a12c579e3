package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"vidforge/internal/domain"
)

const defaultCredits = 100

// Store exclusively owns the generation list, the advisory credits
// counter, the storyboard, and the single-slot error banner. Every
// mutation is a narrow state transition keyed by generation id, performed
// under one mutex, and followed by a snapshot save through the persister.
type Store struct {
	mu            sync.RWMutex
	generations   []domain.Generation // newest first
	credits       int
	usedThisMonth int
	storyboard    []string
	lastError     string

	persister Persister
	logger    zerolog.Logger
}

type snapshot struct {
	Generations   []domain.Generation `json:"generations"`
	Credits       int                 `json:"credits"`
	UsedThisMonth int                 `json:"usedThisMonth"`
	Storyboard    []string            `json:"storyboard"`
}

// New constructs a store backed by the given persister.
func New(persister Persister, logger zerolog.Logger) *Store {
	return &Store{
		credits:   defaultCredits,
		persister: persister,
		logger:    logger,
	}
}

// Load restores the last saved snapshot. A missing snapshot leaves the
// defaults in place.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations = snap.Generations
	s.credits = snap.Credits
	s.usedThisMonth = snap.UsedThisMonth
	s.storyboard = snap.Storyboard
	return nil
}

// persistLocked saves a snapshot; callers must hold the mutex. Save
// failures are logged, not surfaced, so a flaky persistence backend never
// blocks a state transition.
func (s *Store) persistLocked() {
	snap := snapshot{
		Generations:   s.generations,
		Credits:       s.credits,
		UsedThisMonth: s.usedThisMonth,
		Storyboard:    s.storyboard,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal store snapshot")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.persister.Save(ctx, data); err != nil {
		s.logger.Error().Err(err).Msg("persist store snapshot")
	}
}

// Insert prepends a new generation to the list.
func (s *Store) Insert(gen domain.Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations = append([]domain.Generation{gen}, s.generations...)
	s.persistLocked()
}

// Get returns a copy of the generation with the given id.
func (s *Store) Get(id string) (domain.Generation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.generations, func(g domain.Generation) bool { return g.ID == id })
}

// List returns a copy of all generations, newest first.
func (s *Store) List() []domain.Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Generation, len(s.generations))
	copy(out, s.generations)
	return out
}

// update applies fn to the generation with the given id and persists.
// Returns false when the generation no longer exists, so in-flight poll
// callbacks become no-ops after a user removes the record.
func (s *Store) update(id string, fn func(g *domain.Generation) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.generations {
		if s.generations[i].ID != id {
			continue
		}
		if !fn(&s.generations[i]) {
			return false
		}
		s.persistLocked()
		return true
	}
	return false
}

// MarkProcessing transitions a pending generation to processing and
// records the task handle. No-op on terminal records.
func (s *Store) MarkProcessing(id, taskID, provider string, progress int) bool {
	return s.update(id, func(g *domain.Generation) bool {
		if g.Status.Terminal() {
			return false
		}
		g.Status = domain.StatusProcessing
		g.TaskID = taskID
		g.Provider = provider
		if progress > g.Progress {
			g.Progress = progress
		}
		return true
	})
}

// SetProgress raises the progress estimate. Displayed progress is
// monotonically non-decreasing: a lower figure never overwrites a higher
// one. No-op on terminal records.
func (s *Store) SetProgress(id string, progress int) bool {
	return s.update(id, func(g *domain.Generation) bool {
		if g.Status.Terminal() {
			return false
		}
		if progress > g.Progress {
			g.Progress = progress
		}
		return true
	})
}

// Complete transitions a generation to its completed terminal state.
// Returns false if the record is gone or already terminal, which tells
// the poll driver to stop scheduling.
func (s *Store) Complete(id, videoURL string, needsAuth bool) bool {
	return s.update(id, func(g *domain.Generation) bool {
		if g.Status.Terminal() {
			return false
		}
		g.Status = domain.StatusCompleted
		g.Progress = 100
		g.VideoURL = videoURL
		g.NeedsAuth = needsAuth
		g.ErrorMessage = ""
		return true
	})
}

// Fail transitions a generation to its failed terminal state.
func (s *Store) Fail(id, reason string) bool {
	return s.update(id, func(g *domain.Generation) bool {
		if g.Status.Terminal() {
			return false
		}
		g.Status = domain.StatusFailed
		g.Progress = 0
		g.ErrorMessage = reason
		return true
	})
}

// Remove deletes a generation from the visible list.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.generations)
	s.generations = lo.Filter(s.generations, func(g domain.Generation, _ int) bool { return g.ID != id })
	if len(s.generations) == before {
		return false
	}
	s.persistLocked()
	return true
}

// ToggleFavorite flips the favorite flag.
func (s *Store) ToggleFavorite(id string) bool {
	return s.update(id, func(g *domain.Generation) bool {
		g.IsFavorite = !g.IsFavorite
		return true
	})
}

// Credits returns the advisory balance and month-to-date usage.
func (s *Store) Credits() (credits, usedThisMonth int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credits, s.usedThisMonth
}

// ChargeCredits deducts an advisory cost. The counter never enforces
// anything; it floors at zero for display purposes only.
func (s *Store) ChargeCredits(cost int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits -= cost
	if s.credits < 0 {
		s.credits = 0
	}
	s.usedThisMonth += cost
	s.persistLocked()
}

// Storyboard returns a copy of the storyboard entries in order.
func (s *Store) Storyboard() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.storyboard))
	copy(out, s.storyboard)
	return out
}

// AddStoryboard appends a prompt to the storyboard.
func (s *Store) AddStoryboard(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storyboard = append(s.storyboard, prompt)
	s.persistLocked()
}

// RemoveStoryboard deletes the entry at index.
func (s *Store) RemoveStoryboard(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.storyboard) {
		return false
	}
	s.storyboard = append(s.storyboard[:index], s.storyboard[index+1:]...)
	s.persistLocked()
	return true
}

// ClearStoryboard drops all storyboard entries.
func (s *Store) ClearStoryboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storyboard = nil
	s.persistLocked()
}

// SetError replaces the single user-visible error message. It is
// independent of per-generation failure state.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// ClearError dismisses the error banner.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

// LastError returns the current error banner text, empty when dismissed.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
