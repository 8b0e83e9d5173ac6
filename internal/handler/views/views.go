// Package views holds the templ components for the host page. The six
// non-landing views are opaque markup fragments fetched from the backend
// and injected raw; everything else on the page is rendered here.
package views

import (
	"paperbank/internal/model"
	"paperbank/internal/notify"
	"paperbank/internal/state"
)

// View is one named view container: identifier, nav label, visibility,
// and the fetched markup fragment (empty for the landing view).
type View struct {
	ID       string
	Label    string
	Hidden   bool
	Fragment string
}

// Practice is the rendered position inside a practice walkthrough.
type Practice struct {
	Position int
	Total    int
	Question model.Question
	HasPrev  bool
	HasNext  bool
}

// PageData carries everything one full-page render needs.
type PageData struct {
	Lang          string
	Title         string
	EnterLabel    string
	Identity      string
	Views         []View
	Notifications []notify.Notification
	Status        string
	Stats         state.Stats
	Papers        []model.QuestionPaper
	Practice      *Practice
}
