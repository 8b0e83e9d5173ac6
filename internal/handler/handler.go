// Package handler wires the HTTP surface: one full-page render plus POST
// endpoints for identity entry, view switching, uploads, and practice
// stepping. Each browser session gets its own state, notifier, router,
// and upload orchestrator.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"paperbank/internal/backend"
	"paperbank/internal/handler/views"
	"paperbank/internal/i18n"
	"paperbank/internal/model"
	"paperbank/internal/notify"
	"paperbank/internal/state"
	"paperbank/internal/upload"
	"paperbank/internal/view"
)

// maxUploadBytes bounds multipart memory use for PDF uploads.
const maxUploadBytes = 32 << 20

// Config carries handler settings.
type Config struct {
	Lang          string
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	backend       *backend.Client
	extractor     upload.Extractor
	fragments     *view.FragmentSet
	sessions      *registry
	lang          string
	secureCookies bool
}

// New creates a Handler over a loaded fragment set.
func New(b *backend.Client, extractor upload.Extractor, fragments *view.FragmentSet, cfg Config) (*Handler, error) {
	h := &Handler{
		backend:       b,
		extractor:     extractor,
		fragments:     fragments,
		lang:          cfg.Lang,
		secureCookies: cfg.SecureCookies,
	}
	h.sessions = newRegistry(h.newSession)
	return h, nil
}

// newSession wires a fresh session: state store, notifier, router with a
// paper-list reload, and an upload orchestrator that lands on the paper
// bank after success.
func (h *Handler) newSession() *Session {
	st := state.New()
	n := notify.New()

	reload := func(ctx context.Context) error {
		papers, err := h.backend.ListPapers(ctx, st.Identity())
		if err != nil {
			n.Error(i18n.Td(ctx, "PapersLoadFailed", map[string]any{"Error": err.Error()}))
			return err
		}
		st.SetPapers(papers)
		return nil
	}
	router := view.NewRouter(h.fragments, st, n, reload)

	navigate := func(ctx context.Context) error {
		_, err := router.Switch(ctx, model.ViewBanks)
		return err
	}
	uploader := upload.New(h.extractor, h.backend, st, n, navigate)

	return &Session{State: st, Notifier: n, Router: router, Uploader: uploader}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.withSession(h.handleIndex))
	r.Post("/enter", h.withSession(h.handleEnter))
	r.Post("/view/{name}", h.withSession(h.handleSwitchView))
	r.Post("/upload", h.withSession(h.handleUpload))
	r.Post("/practice/{paperID}", h.withSession(h.handleStartPractice))
	r.Post("/practice/next", h.withSession(h.handlePracticeStep(1)))
	r.Post("/practice/prev", h.withSession(h.handlePracticeStep(-1)))
	r.Post("/practice/end", h.withSession(h.handleEndPractice))
}

var navLabels = map[model.ViewState]string{
	model.ViewDashboard:  "Dashboard",
	model.ViewUpload:     "Upload",
	model.ViewBanks:      "Question Banks",
	model.ViewPractice:   "Practice",
	model.ViewStatistics: "Statistics",
	model.ViewStudyTools: "Study Tools",
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request, s *Session) {
	active := s.State.View()

	sections := make([]views.View, 0, len(model.AllViews()))
	for _, v := range model.AllViews() {
		vd := views.View{
			ID:     string(v),
			Label:  navLabels[v],
			Hidden: v != active,
		}
		if html, ok := h.fragments.Fragment(v); ok {
			vd.Fragment = html
		}
		sections = append(sections, vd)
	}

	data := views.PageData{
		Lang:          h.lang,
		Title:         i18n.T(r.Context(), "AppTitle"),
		EnterLabel:    i18n.T(r.Context(), "EnterAsGuest"),
		Identity:      s.State.Identity(),
		Views:         sections,
		Notifications: s.Notifier.Active(),
		Status:        s.State.Status(),
		Stats:         s.State.Stats(),
		Papers:        s.State.Papers(),
	}
	if p, ok := s.State.Practice(); ok {
		data.Practice = &views.Practice{
			Position: p.Index + 1,
			Total:    len(p.Questions),
			Question: p.Questions[p.Index],
			HasPrev:  p.Index > 0,
			HasNext:  p.Index < len(p.Questions)-1,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Page(data).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// handleEnter assigns a guest identity and moves the session to the
// dashboard. Entering again with an identity already set is a no-op
// beyond the redirect.
func (h *Handler) handleEnter(w http.ResponseWriter, r *http.Request, s *Session) {
	if s.State.Identity() == "" {
		identity := "Guest-" + uuid.NewString()[:8]
		if err := s.State.SetIdentity(identity); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.Notifier.Success(i18n.Td(r.Context(), "Welcome", map[string]any{"ID": identity}))
	}

	if _, err := s.Router.Switch(r.Context(), model.ViewDashboard); err != nil {
		slog.Error("switch to dashboard failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSwitchView(w http.ResponseWriter, r *http.Request, s *Session) {
	target, err := model.ParseView(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Gate rejections already queue a notification; the redirect shows it.
	_, _ = s.Router.Switch(r.Context(), target)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, s *Session) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload form", http.StatusBadRequest)
		return
	}

	req := upload.Request{Title: r.FormValue("title")}
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			http.Error(w, "failed to read upload", http.StatusBadRequest)
			return
		}
		req.Data = data
		req.MIMEType = header.Header.Get("Content-Type")
		if req.MIMEType == "" {
			if strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
				req.MIMEType = model.MIMETypePDF
			}
		}
	}

	// Orchestrator failures surface through the notification queue; the
	// page after redirect shows them.
	if _, err := s.Uploader.Run(r.Context(), req); err != nil {
		slog.Warn("upload rejected", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleStartPractice(w http.ResponseWriter, r *http.Request, s *Session) {
	paperID, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid paper ID", http.StatusBadRequest)
		return
	}

	s.Notifier.Info(i18n.Td(r.Context(), "PracticeLoading", map[string]any{"ID": paperID}))

	questions, err := h.backend.QuestionsByPaper(r.Context(), paperID)
	if err != nil {
		slog.Error("question fetch failed", "paper_id", paperID, "error", err)
		s.Notifier.Error(i18n.Td(r.Context(), "QuestionsLoadFailed", map[string]any{"Error": err.Error()}))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.State.StartPractice(paperID, questions); err != nil {
		s.Notifier.Error(i18n.T(r.Context(), "NoQuestions"))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := s.Router.Switch(r.Context(), model.ViewPractice); err != nil {
		slog.Error("switch to practice failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handlePracticeStep(delta int) func(w http.ResponseWriter, r *http.Request, s *Session) {
	return func(w http.ResponseWriter, r *http.Request, s *Session) {
		// Steps past either end are ignored; the pointer stays put.
		s.State.AdvancePractice(delta)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handler) handleEndPractice(w http.ResponseWriter, r *http.Request, s *Session) {
	s.State.EndPractice()
	if _, err := s.Router.Switch(r.Context(), model.ViewBanks); err != nil {
		slog.Error("switch to banks failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
