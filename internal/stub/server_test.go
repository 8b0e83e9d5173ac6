package stub

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"paperbank/internal/backend"
	"paperbank/internal/model"
	"paperbank/internal/view"
)

// newTestServer wires a stub server behind an httptest listener and
// returns the production backend client pointed at it.
func newTestServer(t *testing.T) *backend.Client {
	t.Helper()
	store := newTestStore(t)
	r := chi.NewRouter()
	NewServer(store).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return backend.New(srv.URL)
}

func TestSubmitListAndFetchRoundTrip(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	id, err := c.SubmitPaper(ctx, physicsSubmission("Guest-1a2b3c4d"))
	if err != nil {
		t.Fatalf("SubmitPaper: %v", err)
	}

	papers, err := c.ListPapers(ctx, "Guest-1a2b3c4d")
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(papers) != 1 || papers[0].ID != id {
		t.Fatalf("expected the submitted paper back, got %+v", papers)
	}

	questions, err := c.QuestionsByPaper(ctx, id)
	if err != nil {
		t.Fatalf("QuestionsByPaper: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	c := newTestServer(t)

	sub := physicsSubmission("Guest-1a2b3c4d")
	sub.TotalMarks = 7 // does not match the summed marks

	_, err := c.SubmitPaper(context.Background(), sub)
	if err == nil {
		t.Fatal("SubmitPaper accepted a submission with wrong totals")
	}
	var berr *backend.Error
	if !errors.As(err, &berr) || berr.StatusCode != 400 {
		t.Errorf("error = %v, want backend status 400", err)
	}
}

func TestServesAllViewFragments(t *testing.T) {
	c := newTestServer(t)

	fragments, err := view.LoadFragments(context.Background(), c)
	if err != nil {
		t.Fatalf("LoadFragments: %v", err)
	}
	for _, v := range model.FragmentViews() {
		html, ok := fragments.Fragment(v)
		if !ok || !strings.Contains(html, "<h2>") {
			t.Errorf("fragment for %s missing or empty", v)
		}
	}
}

func TestUnknownFragmentIs404(t *testing.T) {
	c := newTestServer(t)

	_, err := c.Fragment(context.Background(), "/static/views/nope.html")
	if err == nil {
		t.Fatal("expected an error for an unknown fragment")
	}
}
