package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidforge/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	return New(p, zerolog.Nop()), p
}

func pendingGen(id string) domain.Generation {
	return domain.Generation{
		ID:        id,
		Prompt:    "a fox",
		Model:     "sora-2-pro",
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestInsertPrependsNewestFirst(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("a"))
	st.Insert(pendingGen("b"))

	list := st.List()
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("List order = %v, want newest first", []string{list[0].ID, list[1].ID})
	}
}

func TestLifecycleTransitions(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("g1"))

	if !st.MarkProcessing("g1", "task-1", "openai", 5) {
		t.Fatal("MarkProcessing returned false for a pending record")
	}
	g, ok := st.Get("g1")
	if !ok || g.Status != domain.StatusProcessing || g.TaskID != "task-1" || g.Provider != "openai" || g.Progress != 5 {
		t.Fatalf("after MarkProcessing: %+v", g)
	}

	if !st.Complete("g1", "https://v/1.mp4", true) {
		t.Fatal("Complete returned false for a processing record")
	}
	g, _ = st.Get("g1")
	if g.Status != domain.StatusCompleted || g.Progress != 100 || g.VideoURL != "https://v/1.mp4" || !g.NeedsAuth {
		t.Fatalf("after Complete: %+v", g)
	}
}

func TestTerminalRecordsRejectFurtherTransitions(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("g1"))
	st.Complete("g1", "https://v/1.mp4", false)

	if st.Complete("g1", "https://v/other.mp4", false) {
		t.Error("Complete succeeded twice")
	}
	if st.Fail("g1", "late failure") {
		t.Error("Fail succeeded on a completed record")
	}
	if st.SetProgress("g1", 50) {
		t.Error("SetProgress succeeded on a completed record")
	}
	if st.MarkProcessing("g1", "t", "openai", 5) {
		t.Error("MarkProcessing succeeded on a completed record")
	}

	g, _ := st.Get("g1")
	if g.VideoURL != "https://v/1.mp4" || g.Progress != 100 {
		t.Fatalf("terminal record mutated: %+v", g)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("g1"))
	st.MarkProcessing("g1", "t", "openai", 5)

	st.SetProgress("g1", 40)
	st.SetProgress("g1", 20)

	g, _ := st.Get("g1")
	if g.Progress != 40 {
		t.Fatalf("Progress = %d, want 40 (lower value must not win)", g.Progress)
	}
}

func TestFailRecordsReason(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("g1"))

	if !st.Fail("g1", "content policy") {
		t.Fatal("Fail returned false")
	}
	g, _ := st.Get("g1")
	if g.Status != domain.StatusFailed || g.Progress != 0 || g.ErrorMessage != "content policy" {
		t.Fatalf("after Fail: %+v", g)
	}
}

func TestTransitionsOnRemovedRecordReturnFalse(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("g1"))
	if !st.Remove("g1") {
		t.Fatal("Remove returned false")
	}
	if st.Remove("g1") {
		t.Error("second Remove returned true")
	}
	if st.SetProgress("g1", 50) || st.Complete("g1", "u", false) || st.Fail("g1", "r") {
		t.Error("transition on a removed record returned true")
	}
}

func TestToggleFavorite(t *testing.T) {
	st, _ := newTestStore(t)
	st.Insert(pendingGen("g1"))

	st.ToggleFavorite("g1")
	if g, _ := st.Get("g1"); !g.IsFavorite {
		t.Fatal("favorite not set")
	}
	st.ToggleFavorite("g1")
	if g, _ := st.Get("g1"); g.IsFavorite {
		t.Fatal("favorite not cleared")
	}
	if st.ToggleFavorite("ghost") {
		t.Error("ToggleFavorite on a missing record returned true")
	}
}

func TestCreditsFloorAtZero(t *testing.T) {
	st, _ := newTestStore(t)

	st.ChargeCredits(30)
	credits, used := st.Credits()
	if credits != 70 || used != 30 {
		t.Fatalf("credits=%d used=%d, want 70/30", credits, used)
	}

	st.ChargeCredits(500)
	credits, used = st.Credits()
	if credits != 0 || used != 530 {
		t.Fatalf("credits=%d used=%d, want 0/530", credits, used)
	}
}

func TestStoryboard(t *testing.T) {
	st, _ := newTestStore(t)
	st.AddStoryboard("scene one")
	st.AddStoryboard("scene two")
	st.AddStoryboard("scene three")

	if st.RemoveStoryboard(5) || st.RemoveStoryboard(-1) {
		t.Error("out-of-range removal returned true")
	}
	if !st.RemoveStoryboard(1) {
		t.Fatal("RemoveStoryboard(1) returned false")
	}
	got := st.Storyboard()
	if len(got) != 2 || got[0] != "scene one" || got[1] != "scene three" {
		t.Fatalf("Storyboard = %v", got)
	}

	st.ClearStoryboard()
	if len(st.Storyboard()) != 0 {
		t.Fatal("storyboard not cleared")
	}
}

func TestErrorBanner(t *testing.T) {
	st, _ := newTestStore(t)
	st.SetError("Timeout: generation took too long.")
	if st.LastError() == "" {
		t.Fatal("error banner empty after SetError")
	}
	st.ClearError()
	if st.LastError() != "" {
		t.Fatal("error banner survives ClearError")
	}
}

func TestMutationsPersistSnapshot(t *testing.T) {
	st, p := newTestStore(t)
	st.Insert(pendingGen("g1"))
	st.AddStoryboard("scene one")
	st.ChargeCredits(10)

	data, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if len(snap.Generations) != 1 || snap.Generations[0].ID != "g1" {
		t.Errorf("snapshot generations = %+v", snap.Generations)
	}
	if len(snap.Storyboard) != 1 || snap.Credits != 90 || snap.UsedThisMonth != 10 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestLoadRestoresSnapshot(t *testing.T) {
	first, p := newTestStore(t)
	first.Insert(pendingGen("g1"))
	first.Complete("g1", "https://v/1.mp4", false)
	first.ChargeCredits(25)
	first.AddStoryboard("scene one")

	second := New(p, zerolog.Nop())
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	g, ok := second.Get("g1")
	if !ok || g.Status != domain.StatusCompleted || g.VideoURL != "https://v/1.mp4" {
		t.Fatalf("restored generation = %+v ok=%v", g, ok)
	}
	credits, _ := second.Credits()
	if credits != 75 {
		t.Errorf("restored credits = %d, want 75", credits)
	}
	if sb := second.Storyboard(); len(sb) != 1 || sb[0] != "scene one" {
		t.Errorf("restored storyboard = %v", sb)
	}
}

func TestLoadWithEmptyPersisterKeepsDefaults(t *testing.T) {
	st, _ := newTestStore(t)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	credits, used := st.Credits()
	if credits != 100 || used != 0 {
		t.Fatalf("credits=%d used=%d, want defaults 100/0", credits, used)
	}
}
