package stub

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperbank/internal/model"
)

//go:embed views/*.html
var viewFS embed.FS

// Server exposes the stub backend's HTTP surface.
type Server struct {
	store *Store
}

func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Routes registers the backend API and static view routes.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/papers/{identity}", s.handleListPapers)
	r.Get("/api/questions/{paperID}", s.handleQuestions)
	r.Post("/api/upload", s.handleUpload)
	r.Get("/static/views/{name}", s.handleViewFragment)
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := s.store.ListPapers(chi.URLParam(r, "identity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, papers)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	paperID, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid paper ID", http.StatusBadRequest)
		return
	}

	questions, err := s.store.QuestionsForPaper(paperID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var sub model.PaperSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := sub.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	paperID, err := s.store.InsertPaper(sub)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("paper stored",
		"paper_id", paperID,
		"user_id", sub.UserID,
		"subject", sub.Subject,
		"questions", len(sub.Questions),
	)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": paperID})
}

func (s *Server) handleViewFragment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := viewFS.ReadFile("views/" + name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
