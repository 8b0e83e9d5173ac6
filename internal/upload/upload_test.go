package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"paperbank/internal/i18n"
	"paperbank/internal/model"
	"paperbank/internal/notify"
	"paperbank/internal/state"
)

type fakeExtractor struct {
	mu     sync.Mutex
	calls  int
	result *model.ExtractionResult
	err    error

	// onExtract, when non-nil, observes the payload at call time.
	onExtract func(base64Data string)
	// block, when non-nil, holds the call until the channel closes.
	block chan struct{}
}

func (f *fakeExtractor) ExtractEncoded(ctx context.Context, base64Data, mimeType string) (*model.ExtractionResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if f.onExtract != nil {
		f.onExtract(base64Data)
	}
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSubmitter struct {
	calls int
	last  model.PaperSubmission
	id    int64
	err   error
}

func (f *fakeSubmitter) SubmitPaper(ctx context.Context, sub model.PaperSubmission) (int64, error) {
	f.calls++
	f.last = sub
	if f.err != nil {
		return 0, f.err
	}
	return f.id, nil
}

func physicsResult() *model.ExtractionResult {
	return &model.ExtractionResult{
		Subject:  "Physics",
		ExamYear: 2023,
		Questions: []model.Question{
			{Question: "Define momentum.", Marks: 5},
			{Question: "Derive the work-energy theorem.", Marks: 10},
		},
	}
}

func validRequest() Request {
	return Request{
		Title:    "Physics Final 2023",
		MIMEType: model.MIMETypePDF,
		Data:     []byte("%PDF-1.4 fake"),
	}
}

type testHarness struct {
	orch      *Orchestrator
	extractor *fakeExtractor
	backend   *fakeSubmitter
	state     *state.Store
	notifier  *notify.Notifier
	navigated int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	h := &testHarness{
		extractor: &fakeExtractor{result: physicsResult()},
		backend:   &fakeSubmitter{id: 42},
		state:     state.New(),
		notifier:  notify.New(),
	}
	h.state.SetIdentity("Guest-1a2b3c4d")
	h.orch = New(h.extractor, h.backend, h.state, h.notifier, func(ctx context.Context) error {
		h.navigated++
		return nil
	})
	h.orch.now = func() time.Time {
		return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	}
	return h
}

func lastNotification(t *testing.T, n *notify.Notifier) notify.Notification {
	t.Helper()
	active := n.Active()
	if len(active) == 0 {
		t.Fatal("expected a notification, got none")
	}
	return active[len(active)-1]
}

func TestRunSuccess(t *testing.T) {
	h := newHarness(t)

	res, err := h.orch.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PaperID != 42 {
		t.Errorf("paper ID = %d, want 42", res.PaperID)
	}

	sub := h.backend.last
	if sub.Title != "Physics Final 2023" {
		t.Errorf("title = %q", sub.Title)
	}
	if sub.UserID != "Guest-1a2b3c4d" {
		t.Errorf("user ID = %q", sub.UserID)
	}
	if sub.Subject != "Physics" || sub.ExamYear != 2023 {
		t.Errorf("subject/year = %q/%d", sub.Subject, sub.ExamYear)
	}
	if sub.UploadDate != "2026-08-28" {
		t.Errorf("upload date = %q", sub.UploadDate)
	}
	if sub.TotalQuestions != 2 || sub.TotalMarks != 15 {
		t.Errorf("totals = %d questions / %d marks, want 2/15", sub.TotalQuestions, sub.TotalMarks)
	}

	got := lastNotification(t, h.notifier)
	if got.Severity != notify.SeveritySuccess {
		t.Errorf("severity = %v, want success", got.Severity)
	}
	for _, want := range []string{"Physics", "2023", "2 questions"} {
		if !strings.Contains(got.Message, want) {
			t.Errorf("notification %q missing %q", got.Message, want)
		}
	}

	if h.navigated != 1 {
		t.Errorf("navigated %d times, want 1", h.navigated)
	}
	if h.orch.Busy() {
		t.Error("orchestrator still busy after Run returned")
	}
	if h.state.Status() != "" {
		t.Errorf("status not cleared: %q", h.state.Status())
	}
}

func TestRunEncodesDuringConversion(t *testing.T) {
	h := newHarness(t)

	var gotPayload, statusAtExtract string
	h.extractor.onExtract = func(base64Data string) {
		gotPayload = base64Data
		statusAtExtract = h.state.Status()
	}

	req := validRequest()
	if _, err := h.orch.Run(context.Background(), req); err != nil {
		t.Fatalf("Run: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(gotPayload)
	if err != nil {
		t.Fatalf("extractor received a non-base64 payload: %v", err)
	}
	if string(decoded) != string(req.Data) {
		t.Errorf("decoded payload = %q, want the original file bytes", decoded)
	}
	if !strings.HasPrefix(statusAtExtract, "2/3:") {
		t.Errorf("status at extraction time = %q, want the 2/3 phase", statusAtExtract)
	}
}

func TestRunPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(h *testHarness, req *Request)
		wantErr error
	}{
		{
			name: "missing identity",
			prepare: func(h *testHarness, req *Request) {
				h.state = state.New() // fresh store, no identity
				h.orch.state = h.state
			},
			wantErr: ErrMissingIdentity,
		},
		{
			name: "blank title",
			prepare: func(h *testHarness, req *Request) {
				req.Title = "   "
			},
			wantErr: ErrMissingTitle,
		},
		{
			name: "no file",
			prepare: func(h *testHarness, req *Request) {
				req.Data = nil
			},
			wantErr: ErrMissingFile,
		},
		{
			name: "wrong mime type",
			prepare: func(h *testHarness, req *Request) {
				req.MIMEType = "image/png"
			},
			wantErr: ErrNotPDF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := validRequest()
			tt.prepare(h, &req)

			_, err := h.orch.Run(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run error = %v, want %v", err, tt.wantErr)
			}
			if n := h.extractor.callCount(); n != 0 {
				t.Errorf("extractor called %d times before precondition failure", n)
			}
			if h.backend.calls != 0 {
				t.Errorf("backend called %d times before precondition failure", h.backend.calls)
			}
			got := lastNotification(t, h.notifier)
			if got.Severity != notify.SeverityError {
				t.Errorf("severity = %v, want error", got.Severity)
			}
			if h.navigated != 0 {
				t.Error("navigated after precondition failure")
			}
		})
	}
}

func TestRunZeroQuestions(t *testing.T) {
	h := newHarness(t)
	h.extractor.result = &model.ExtractionResult{Subject: "Physics", ExamYear: 2023}

	_, err := h.orch.Run(context.Background(), validRequest())
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("Run error = %v, want ErrNoQuestions", err)
	}
	if h.backend.calls != 0 {
		t.Errorf("backend called %d times for an empty extraction", h.backend.calls)
	}
	got := lastNotification(t, h.notifier)
	if !strings.Contains(got.Message, "0 questions") {
		t.Errorf("notification %q missing question count", got.Message)
	}
}

func TestRunExtractionFailure(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = errors.New("AI extraction failed after retries: status 500: boom")

	_, err := h.orch.Run(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Run succeeded with a failing extractor")
	}
	if h.backend.calls != 0 {
		t.Error("backend called after extraction failure")
	}
	got := lastNotification(t, h.notifier)
	if !strings.Contains(got.Message, "Upload failed") || !strings.Contains(got.Message, "status 500") {
		t.Errorf("notification %q missing failure detail", got.Message)
	}
	if h.orch.Busy() {
		t.Error("busy flag stuck after failure")
	}
	if h.state.Status() != "" {
		t.Errorf("status not cleared after failure: %q", h.state.Status())
	}
}

func TestRunSubmitFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.err = errors.New("submit paper: backend returned status 503: unavailable")

	_, err := h.orch.Run(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Run succeeded with a failing backend")
	}
	got := lastNotification(t, h.notifier)
	if !strings.Contains(got.Message, "503") {
		t.Errorf("notification %q missing backend status", got.Message)
	}
	if h.navigated != 0 {
		t.Error("navigated after failed submission")
	}
	if h.orch.Busy() {
		t.Error("busy flag stuck after failure")
	}
}

func TestRunRejectsConcurrent(t *testing.T) {
	h := newHarness(t)
	h.extractor.block = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.orch.Run(context.Background(), validRequest())
	}()

	// Wait for the first run to reach the extractor.
	deadline := time.After(2 * time.Second)
	for h.extractor.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run never reached the extractor")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := h.orch.Run(context.Background(), validRequest())
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second Run error = %v, want ErrBusy", err)
	}
	got := lastNotification(t, h.notifier)
	if !strings.Contains(got.Message, "already in progress") {
		t.Errorf("notification %q missing busy message", got.Message)
	}

	close(h.extractor.block)
	<-done

	if n := h.extractor.callCount(); n != 1 {
		t.Errorf("extractor called %d times, want 1", n)
	}
	if h.orch.Busy() {
		t.Error("busy flag stuck after runs finished")
	}
}
