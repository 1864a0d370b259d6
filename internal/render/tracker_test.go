package render

import (
	"errors"
	"testing"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	if err := tr.Register("hero"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := tr.MarkGenerating("hero"); err != nil {
		t.Fatalf("MarkGenerating: %v", err)
	}
	if err := tr.MarkComplete("hero", "https://cdn.example/hero.png"); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	jobs := tr.Snapshot()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Status != domain.JobStatusComplete {
		t.Fatalf("status = %s, want complete", job.Status)
	}
	if job.ResultURL == "" || job.ErrorMessage != "" {
		t.Fatalf("complete job must carry exactly a result url: %+v", job)
	}
}

func TestTrackerErrorCarriesMessageOnly(t *testing.T) {
	tr := NewTracker()
	_ = tr.Register("side")
	_ = tr.MarkGenerating("side")
	if err := tr.MarkError("side", "backend unavailable"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	job := tr.Snapshot()[0]
	if job.Status != domain.JobStatusError {
		t.Fatalf("status = %s, want error", job.Status)
	}
	if job.ErrorMessage == "" || job.ResultURL != "" {
		t.Fatalf("error job must carry exactly an error message: %+v", job)
	}
}

func TestTrackerRejectsDuplicateRegistration(t *testing.T) {
	tr := NewTracker()
	_ = tr.Register("hero")
	if err := tr.Register("hero"); !errors.Is(err, domain.ErrDuplicateVariant) {
		t.Fatalf("Register duplicate = %v, want ErrDuplicateVariant", err)
	}
}

func TestTrackerTransitionsAreOneDirectional(t *testing.T) {
	tr := NewTracker()
	_ = tr.Register("hero")

	// pending cannot settle without generating first
	if err := tr.MarkComplete("hero", "url"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("pending->complete = %v, want ErrInvalidTransition", err)
	}

	_ = tr.MarkGenerating("hero")
	_ = tr.MarkComplete("hero", "url")

	// terminal jobs are never re-transitioned within the same run
	if err := tr.MarkError("hero", "late failure"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("complete->error = %v, want ErrInvalidTransition", err)
	}
	if err := tr.MarkGenerating("hero"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("complete->generating = %v, want ErrInvalidTransition", err)
	}
}

func TestTrackerUnknownVariant(t *testing.T) {
	tr := NewTracker()
	if err := tr.MarkGenerating("ghost"); !errors.Is(err, domain.ErrUnknownVariant) {
		t.Fatalf("MarkGenerating unknown = %v, want ErrUnknownVariant", err)
	}
}

func TestTrackerSnapshotPreservesRegistrationOrder(t *testing.T) {
	tr := NewTracker()
	keys := []string{"hero", "side", "rear", "detail"}
	for _, key := range keys {
		_ = tr.Register(key)
	}
	for i, job := range tr.Snapshot() {
		if job.VariantKey != keys[i] {
			t.Fatalf("snapshot[%d] = %s, want %s", i, job.VariantKey, keys[i])
		}
	}
}

func TestTrackerSettled(t *testing.T) {
	tr := NewTracker()
	_ = tr.Register("a")
	_ = tr.Register("b")
	if tr.Settled() {
		t.Fatal("all-pending tracker must not report settled")
	}
	_ = tr.MarkGenerating("a")
	if tr.Settled() {
		t.Fatal("tracker with generating job must not report settled")
	}
	_ = tr.MarkComplete("a", "url")
	if !tr.Settled() {
		t.Fatal("tracker with terminal job and no generating jobs must report settled")
	}
}
