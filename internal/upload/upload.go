// Package upload sequences the end-to-end upload flow: validate, convert,
// extract, submit. Stages run strictly in order; any failure aborts the
// remaining stages and the busy indicator is restored on every exit path.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"paperbank/internal/extract"
	"paperbank/internal/i18n"
	"paperbank/internal/model"
	"paperbank/internal/notify"
	"paperbank/internal/state"
)

// Phase labels the pipeline stage currently running.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseConverting Phase = "converting"
	PhaseExtracting Phase = "extracting"
	PhaseSubmitting Phase = "submitting"
)

// Precondition and flow errors. Each precondition gets its own error so the
// user-facing message can name the violated condition.
var (
	ErrBusy            = errors.New("an upload is already in progress")
	ErrMissingIdentity = errors.New("identity not set")
	ErrMissingTitle    = errors.New("title is empty")
	ErrMissingFile     = errors.New("no file selected")
	ErrNotPDF          = errors.New("file is not a PDF")
	ErrNoQuestions     = errors.New("extraction found no questions")
)

// Extractor produces an ExtractionResult from a transport-encoded file.
// The orchestrator owns the encoding step so each pipeline phase covers
// its own work.
type Extractor interface {
	ExtractEncoded(ctx context.Context, base64Data, mimeType string) (*model.ExtractionResult, error)
}

// Submitter persists a paper submission and returns the assigned ID.
type Submitter interface {
	SubmitPaper(ctx context.Context, sub model.PaperSubmission) (int64, error)
}

// NavigateFunc moves the UI to the paper bank after a successful upload,
// reloading the paper list on the way.
type NavigateFunc func(ctx context.Context) error

// Request carries one upload attempt's inputs.
type Request struct {
	Title    string
	MIMEType string
	Data     []byte
}

// Result reports a completed upload.
type Result struct {
	PaperID    int64
	Submission model.PaperSubmission
}

// Orchestrator owns the upload pipeline for one session. A busy flag
// rejects overlapping invocations; the UI's disabled button is advisory
// only.
type Orchestrator struct {
	mu   sync.Mutex
	busy bool

	extractor Extractor
	backend   Submitter
	state     *state.Store
	notifier  *notify.Notifier
	navigate  NavigateFunc
	now       func() time.Time
}

// New creates an Orchestrator.
func New(extractor Extractor, backend Submitter, st *state.Store, n *notify.Notifier, navigate NavigateFunc) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		backend:   backend,
		state:     st,
		notifier:  n,
		navigate:  navigate,
		now:       time.Now,
	}
}

// Busy reports whether a pipeline run is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Run executes the pipeline. It returns the submitted paper on success.
// All precondition checks happen before any network call; failures are
// pushed to the notifier as well as returned.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		o.notifier.Error(i18n.T(ctx, "UploadBusy"))
		return nil, ErrBusy
	}
	o.busy = true
	o.mu.Unlock()

	defer func() {
		// Restore the busy indicator and status line on every exit path.
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
		o.state.SetStatus("")
	}()

	if err := o.checkPreconditions(ctx, req); err != nil {
		return nil, err
	}

	o.setStatus(ctx, PhaseConverting, "StatusConverting")
	encoded := extract.Encode(req.Data)

	o.setStatus(ctx, PhaseExtracting, "StatusExtracting")
	extracted, err := o.extractor.ExtractEncoded(ctx, encoded, req.MIMEType)
	if err != nil {
		slog.Error("extraction failed", "title", req.Title, "error", err)
		o.notifier.Error(i18n.Td(ctx, "UploadFailed", map[string]any{"Error": err.Error()}))
		return nil, err
	}
	if len(extracted.Questions) == 0 {
		o.notifier.Error(i18n.T(ctx, "NoQuestions"))
		return nil, ErrNoQuestions
	}

	sub := model.PaperSubmission{
		Title:          strings.TrimSpace(req.Title),
		UserID:         o.state.Identity(),
		Subject:        extracted.Subject,
		ExamYear:       extracted.ExamYear,
		UploadDate:     o.now().Format("2006-01-02"),
		TotalQuestions: len(extracted.Questions),
		TotalMarks:     extracted.TotalMarks(),
		Questions:      extracted.Questions,
	}
	if err := sub.Validate(); err != nil {
		o.notifier.Error(i18n.Td(ctx, "UploadFailed", map[string]any{"Error": err.Error()}))
		return nil, fmt.Errorf("build submission: %w", err)
	}

	o.setStatus(ctx, PhaseSubmitting, "StatusSubmitting")
	paperID, err := o.backend.SubmitPaper(ctx, sub)
	if err != nil {
		slog.Error("paper submission failed", "title", req.Title, "error", err)
		o.notifier.Error(i18n.Td(ctx, "UploadFailed", map[string]any{"Error": err.Error()}))
		return nil, err
	}

	o.notifier.Success(i18n.Td(ctx, "UploadSuccess", map[string]any{
		"Subject": extracted.Subject,
		"Year":    extracted.ExamYear,
		"Count":   len(extracted.Questions),
	}))
	slog.Info("paper uploaded",
		"paper_id", paperID,
		"subject", extracted.Subject,
		"exam_year", extracted.ExamYear,
		"questions", len(extracted.Questions),
		"marks", sub.TotalMarks,
	)

	if err := o.navigate(ctx); err != nil {
		slog.Error("post-upload navigation failed", "error", err)
	}

	return &Result{PaperID: paperID, Submission: sub}, nil
}

func (o *Orchestrator) checkPreconditions(ctx context.Context, req Request) error {
	if o.state.Identity() == "" {
		o.notifier.Error(i18n.T(ctx, "MissingIdentity"))
		return ErrMissingIdentity
	}
	if strings.TrimSpace(req.Title) == "" {
		o.notifier.Error(i18n.T(ctx, "MissingTitle"))
		return ErrMissingTitle
	}
	if len(req.Data) == 0 {
		o.notifier.Error(i18n.T(ctx, "MissingFile"))
		return ErrMissingFile
	}
	if req.MIMEType != model.MIMETypePDF {
		o.notifier.Error(i18n.T(ctx, "NotPDF"))
		return ErrNotPDF
	}
	return nil
}

func (o *Orchestrator) setStatus(ctx context.Context, phase Phase, msgID string) {
	text := i18n.T(ctx, msgID)
	o.state.SetStatus(text)
	slog.Info("upload phase", "phase", phase, "status", text)
}
