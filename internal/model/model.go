package model

import (
	"context"
	"fmt"
	"strings"
)

// MIMETypePDF is the only media type accepted for extraction.
const MIMETypePDF = "application/pdf"

// ViewState identifies one of the fixed set of application views.
// The values double as container IDs in the rendered page.
type ViewState string

const (
	ViewLanding    ViewState = "landing-view"
	ViewDashboard  ViewState = "dashboard-view"
	ViewUpload     ViewState = "upload-view"
	ViewBanks      ViewState = "banks-view"
	ViewPractice   ViewState = "practice-view"
	ViewStatistics ViewState = "statistics-view"
	ViewStudyTools ViewState = "study-tools-view"
)

// AllViews returns every view in display order, landing first.
func AllViews() []ViewState {
	return []ViewState{
		ViewLanding,
		ViewDashboard,
		ViewUpload,
		ViewBanks,
		ViewPractice,
		ViewStatistics,
		ViewStudyTools,
	}
}

// FragmentViews returns the views whose markup is fetched from the backend.
// Landing is embedded in the host page and never fetched.
func FragmentViews() []ViewState {
	return []ViewState{
		ViewDashboard,
		ViewUpload,
		ViewBanks,
		ViewPractice,
		ViewStatistics,
		ViewStudyTools,
	}
}

// ParseView maps a view name to a ViewState.
func ParseView(name string) (ViewState, error) {
	for _, v := range AllViews() {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", name)
}

// FragmentPath returns the backend path of a view's markup fragment.
func (v ViewState) FragmentPath() string {
	return "/static/views/" + strings.TrimSuffix(string(v), "-view") + ".html"
}

// QuestionPaper is a persisted record of one uploaded exam paper.
// TotalQuestions and TotalMarks are aggregates over the paper's questions;
// the backend recomputes them on insert so they cannot drift.
type QuestionPaper struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Subject        string `json:"subject"`
	ExamYear       int    `json:"exam_year"`
	UploadDate     string `json:"upload_date"`
	TotalQuestions int    `json:"total_questions"`
	TotalMarks     int    `json:"total_marks"`
}

// Question is a single extracted question owned by one paper.
type Question struct {
	Question string `json:"question"`
	Marks    int    `json:"marks"`
}

// ExtractionResult is the transient output of one AI extraction call.
// It is consumed immediately to build a PaperSubmission and then discarded.
type ExtractionResult struct {
	Subject   string     `json:"subject"`
	ExamYear  int        `json:"exam_year"`
	Questions []Question `json:"questions"`
}

// TotalMarks sums the marks of all extracted questions.
func (r ExtractionResult) TotalMarks() int {
	total := 0
	for _, q := range r.Questions {
		total += q.Marks
	}
	return total
}

// PaperSubmission is the body posted to the backend to persist a new paper.
type PaperSubmission struct {
	Title          string     `json:"title"`
	UserID         string     `json:"user_id"`
	Subject        string     `json:"subject"`
	ExamYear       int        `json:"exam_year"`
	UploadDate     string     `json:"upload_date"`
	TotalQuestions int        `json:"total_questions"`
	TotalMarks     int        `json:"total_marks"`
	Questions      []Question `json:"questions"`
}

// Validate checks the submission invariants before it leaves the client
// and again when it arrives at the backend.
func (s PaperSubmission) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("submission missing title")
	}
	if strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("submission missing user_id")
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("submission has no questions")
	}
	if s.TotalQuestions != len(s.Questions) {
		return fmt.Errorf("total_questions %d does not match %d questions", s.TotalQuestions, len(s.Questions))
	}
	marks := 0
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %d has empty text", i+1)
		}
		if q.Marks < 0 {
			return fmt.Errorf("question %d has negative marks", i+1)
		}
		marks += q.Marks
	}
	if s.TotalMarks != marks {
		return fmt.Errorf("total_marks %d does not match summed marks %d", s.TotalMarks, marks)
	}
	return nil
}

type identityCtxKey struct{}

// ContextWithIdentity stores the session identity in the request context.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext retrieves the session identity, or empty string.
func IdentityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityCtxKey{}).(string)
	return id
}
