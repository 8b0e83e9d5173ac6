// Package state holds the mutable per-session application state behind a
// single guarded entry point per field. Nothing here persists beyond the
// page session.
package state

import (
	"fmt"
	"strings"
	"sync"

	"paperbank/internal/model"
)

// Practice is the in-memory pointer set for a practice walkthrough:
// the active paper, the loaded questions, and the current position.
type Practice struct {
	PaperID   int64
	Index     int
	Questions []model.Question
}

// Stats summarizes the cached paper list for the dashboard.
type Stats struct {
	Papers    int
	Questions int
	Marks     int
	Subjects  int
}

// Store is the session state holder. All access goes through its methods;
// writes to identity and the paper cache have exactly one setter each.
type Store struct {
	mu       sync.RWMutex
	identity string
	view     model.ViewState
	status   string
	papers   []model.QuestionPaper
	practice *Practice
}

// New creates a Store with the landing view active and no identity.
func New() *Store {
	return &Store{view: model.ViewLanding}
}

// SetIdentity establishes the session identity. An empty identity is
// rejected; this is the only write path for the field.
func (s *Store) SetIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return fmt.Errorf("identity must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	return nil
}

// Identity returns the session identity, or empty string before entry.
func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetView records the currently visible view.
func (s *Store) SetView(v model.ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// View returns the currently visible view.
func (s *Store) View() model.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetStatus records the upload status line shown while a pipeline runs.
func (s *Store) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
}

// Status returns the current upload status line, empty when idle.
func (s *Store) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetPapers overwrites the cached paper list. Last writer wins; only the
// load paths call this.
func (s *Store) SetPapers(papers []model.QuestionPaper) {
	cp := make([]model.QuestionPaper, len(papers))
	copy(cp, papers)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers = cp
}

// Papers returns a copy of the cached paper list.
func (s *Store) Papers() []model.QuestionPaper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]model.QuestionPaper, len(s.papers))
	copy(cp, s.papers)
	return cp
}

// Stats computes dashboard aggregates over the cached paper list.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Papers: len(s.papers)}
	subjects := make(map[string]struct{})
	for _, p := range s.papers {
		st.Questions += p.TotalQuestions
		st.Marks += p.TotalMarks
		subjects[p.Subject] = struct{}{}
	}
	st.Subjects = len(subjects)
	return st
}

// StartPractice loads a question list for a paper and resets the position
// to the first question.
func (s *Store) StartPractice(paperID int64, questions []model.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("paper %d has no questions to practice", paperID)
	}
	cp := make([]model.Question, len(questions))
	copy(cp, questions)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.practice = &Practice{PaperID: paperID, Questions: cp}
	return nil
}

// Practice returns the active practice session, or ok=false when none.
func (s *Store) Practice() (Practice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.practice == nil {
		return Practice{}, false
	}
	return *s.practice, true
}

// AdvancePractice moves the question pointer by delta (typically +1 or -1)
// and returns the question at the new position. Moves past either end are
// rejected and leave the pointer unchanged.
func (s *Store) AdvancePractice(delta int) (model.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.practice == nil {
		return model.Question{}, false
	}
	next := s.practice.Index + delta
	if next < 0 || next >= len(s.practice.Questions) {
		return model.Question{}, false
	}
	s.practice.Index = next
	return s.practice.Questions[next], true
}

// EndPractice discards the practice pointers. Questions are never cached
// beyond the active session.
func (s *Store) EndPractice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.practice = nil
}
