package state

import (
	"testing"

	"paperbank/internal/model"
)

func TestIdentity(t *testing.T) {
	s := New()
	if s.Identity() != "" {
		t.Fatalf("new store should have no identity, got %q", s.Identity())
	}
	if err := s.SetIdentity("  "); err == nil {
		t.Error("expected error for blank identity")
	}
	if err := s.SetIdentity("Guest-ab12cd"); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if s.Identity() != "Guest-ab12cd" {
		t.Errorf("Identity() = %q", s.Identity())
	}
}

func TestViewDefaultsToLanding(t *testing.T) {
	s := New()
	if s.View() != model.ViewLanding {
		t.Errorf("initial view = %q, want landing", s.View())
	}
	s.SetView(model.ViewBanks)
	if s.View() != model.ViewBanks {
		t.Errorf("View() = %q, want banks", s.View())
	}
}

func TestPapersCopySemantics(t *testing.T) {
	s := New()
	papers := []model.QuestionPaper{{ID: 1, Title: "A", Subject: "Physics"}}
	s.SetPapers(papers)

	// Mutating the caller's slice must not leak into the cache.
	papers[0].Title = "mutated"
	if got := s.Papers(); got[0].Title != "A" {
		t.Errorf("cache shares backing array with caller: %q", got[0].Title)
	}

	// Mutating the returned slice must not leak either.
	out := s.Papers()
	out[0].Title = "mutated"
	if got := s.Papers(); got[0].Title != "A" {
		t.Errorf("cache shares backing array with reader: %q", got[0].Title)
	}
}

func TestStats(t *testing.T) {
	s := New()
	if got := s.Stats(); got != (Stats{}) {
		t.Errorf("empty stats = %+v", got)
	}
	s.SetPapers([]model.QuestionPaper{
		{ID: 1, Subject: "Physics", TotalQuestions: 2, TotalMarks: 15},
		{ID: 2, Subject: "Physics", TotalQuestions: 5, TotalMarks: 40},
		{ID: 3, Subject: "Biology", TotalQuestions: 3, TotalMarks: 30},
	})
	got := s.Stats()
	want := Stats{Papers: 3, Questions: 10, Marks: 85, Subjects: 2}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestPracticeLifecycle(t *testing.T) {
	s := New()

	if _, ok := s.Practice(); ok {
		t.Fatal("no practice session should be active initially")
	}
	if _, ok := s.AdvancePractice(1); ok {
		t.Fatal("advance without a session should fail")
	}

	if err := s.StartPractice(7, nil); err == nil {
		t.Error("expected error for empty question list")
	}

	questions := []model.Question{
		{Question: "Define force", Marks: 5},
		{Question: "State Newton's laws", Marks: 10},
	}
	if err := s.StartPractice(7, questions); err != nil {
		t.Fatalf("StartPractice: %v", err)
	}

	p, ok := s.Practice()
	if !ok {
		t.Fatal("expected active practice session")
	}
	if p.PaperID != 7 || p.Index != 0 || len(p.Questions) != 2 {
		t.Errorf("unexpected session: %+v", p)
	}

	q, ok := s.AdvancePractice(1)
	if !ok || q.Question != "State Newton's laws" {
		t.Errorf("AdvancePractice(1) = %+v, ok=%v", q, ok)
	}
	if _, ok := s.AdvancePractice(1); ok {
		t.Error("advance past the last question should fail")
	}
	if p, _ := s.Practice(); p.Index != 1 {
		t.Errorf("failed advance moved the pointer to %d", p.Index)
	}
	if q, ok := s.AdvancePractice(-1); !ok || q.Question != "Define force" {
		t.Errorf("AdvancePractice(-1) = %+v, ok=%v", q, ok)
	}
	if _, ok := s.AdvancePractice(-1); ok {
		t.Error("advance before the first question should fail")
	}

	s.EndPractice()
	if _, ok := s.Practice(); ok {
		t.Error("practice session should be discarded")
	}
}
