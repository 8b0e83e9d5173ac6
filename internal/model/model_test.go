package model

import (
	"strings"
	"testing"
)

func validSubmission() PaperSubmission {
	return PaperSubmission{
		Title:          "Mock Exam 2023",
		UserID:         "Guest-ab12cd",
		Subject:        "Physics",
		ExamYear:       2023,
		UploadDate:     "2023-11-02",
		TotalQuestions: 2,
		TotalMarks:     15,
		Questions: []Question{
			{Question: "Define force", Marks: 5},
			{Question: "State Newton's laws", Marks: 10},
		},
	}
}

func TestSubmissionValidate(t *testing.T) {
	if err := validSubmission().Validate(); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*PaperSubmission)
		wantErr string
	}{
		{"missing title", func(s *PaperSubmission) { s.Title = "  " }, "missing title"},
		{"missing user", func(s *PaperSubmission) { s.UserID = "" }, "missing user_id"},
		{"no questions", func(s *PaperSubmission) { s.Questions = nil }, "no questions"},
		{"count mismatch", func(s *PaperSubmission) { s.TotalQuestions = 3 }, "does not match"},
		{"marks mismatch", func(s *PaperSubmission) { s.TotalMarks = 99 }, "does not match"},
		{"empty question text", func(s *PaperSubmission) { s.Questions[0].Question = "" }, "empty text"},
		{"negative marks", func(s *PaperSubmission) {
			s.Questions[0].Marks = -1
			s.TotalMarks = 9
		}, "negative marks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestExtractionResultTotalMarks(t *testing.T) {
	r := ExtractionResult{
		Subject:  "Physics",
		ExamYear: 2023,
		Questions: []Question{
			{Question: "Define force", Marks: 5},
			{Question: "State Newton's laws", Marks: 10},
		},
	}
	if got := r.TotalMarks(); got != 15 {
		t.Errorf("TotalMarks() = %d, want 15", got)
	}
	if got := (ExtractionResult{}).TotalMarks(); got != 0 {
		t.Errorf("TotalMarks() on empty result = %d, want 0", got)
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView("banks-view")
	if err != nil {
		t.Fatalf("ParseView: %v", err)
	}
	if v != ViewBanks {
		t.Errorf("ParseView(banks-view) = %q", v)
	}
	if _, err := ParseView("bogus"); err == nil {
		t.Error("expected error for unknown view")
	}
}

func TestFragmentPath(t *testing.T) {
	if got := ViewDashboard.FragmentPath(); got != "/static/views/dashboard.html" {
		t.Errorf("FragmentPath() = %q", got)
	}
	if got := ViewStudyTools.FragmentPath(); got != "/static/views/study-tools.html" {
		t.Errorf("FragmentPath() = %q", got)
	}
}

func TestFragmentViewsExcludeLanding(t *testing.T) {
	for _, v := range FragmentViews() {
		if v == ViewLanding {
			t.Fatal("landing must not be fetched as a fragment")
		}
	}
	if len(FragmentViews()) != len(AllViews())-1 {
		t.Errorf("expected %d fragment views, got %d", len(AllViews())-1, len(FragmentViews()))
	}
}
