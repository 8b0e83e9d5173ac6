package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"paperbank/internal/model"
	"paperbank/internal/notify"
	"paperbank/internal/state"
)

func render(t *testing.T, data PageData) string {
	t.Helper()
	var sb strings.Builder
	if err := Page(data).Render(context.Background(), &sb); err != nil {
		t.Fatalf("render page: %v", err)
	}
	return sb.String()
}

func pageWithViews(active string) PageData {
	data := PageData{
		Lang:       "en",
		Title:      "PaperBank",
		EnterLabel: "Continue as guest",
		Identity:   "Guest-1a2b3c4d",
	}
	for _, id := range []string{"landing-view", "dashboard-view", "banks-view"} {
		data.Views = append(data.Views, View{
			ID:       id,
			Label:    id,
			Hidden:   id != active,
			Fragment: "<p>" + id + " fragment</p>",
		})
	}
	return data
}

func TestPageMarksInactiveSectionsHidden(t *testing.T) {
	out := render(t, pageWithViews("dashboard-view"))

	if !strings.Contains(out, `<section id="dashboard-view">`) {
		t.Error("active section rendered hidden")
	}
	for _, id := range []string{"landing-view", "banks-view"} {
		if !strings.Contains(out, `<section id="`+id+`" hidden>`) {
			t.Errorf("section %s not hidden", id)
		}
	}
}

func TestPageInjectsFragmentsUnescaped(t *testing.T) {
	out := render(t, pageWithViews("dashboard-view"))

	if !strings.Contains(out, "<p>dashboard-view fragment</p>") {
		t.Error("fragment markup was escaped or dropped")
	}
	if strings.Contains(out, "&lt;p&gt;") {
		t.Error("fragment markup was HTML-escaped")
	}
}

func TestPageLandingShowsEnterForm(t *testing.T) {
	data := pageWithViews("landing-view")
	data.Identity = ""
	out := render(t, data)

	if !strings.Contains(out, `action="/enter"`) {
		t.Error("landing section missing the enter form")
	}
	if strings.Contains(out, `id="main-nav"`) {
		t.Error("nav rendered without an identity")
	}
}

func TestNotificationGainsRemovingClass(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		age     time.Duration
		want    string
		exclude string
	}{
		{"fresh", time.Second, `class="notification"`, `class="notification removing"`},
		{"fading", notify.DisplayDuration + 100*time.Millisecond, `class="notification removing"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := notify.Notification{
				Message:   "saved",
				Severity:  notify.SeveritySuccess,
				CreatedAt: now.Add(-tt.age),
			}
			var sb strings.Builder
			if err := notificationList([]notify.Notification{n}, now).Render(context.Background(), &sb); err != nil {
				t.Fatalf("render notifications: %v", err)
			}
			out := sb.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("notification markup = %s, want %s", out, tt.want)
			}
			if tt.exclude != "" && strings.Contains(out, tt.exclude) {
				t.Errorf("notification markup = %s, must not contain %s", out, tt.exclude)
			}
		})
	}
}

func TestPracticeCardPosition(t *testing.T) {
	data := pageWithViews("banks-view")
	data.Views = append(data.Views, View{ID: "practice-view", Label: "Practice", Hidden: false, Fragment: "<p>practice fragment</p>"})
	data.Views[2].Hidden = true
	data.Practice = &Practice{
		Position: 2,
		Total:    3,
		Question: model.Question{Question: "Define momentum.", Marks: 5},
		HasPrev:  true,
		HasNext:  true,
	}
	data.Stats = state.Stats{}
	out := render(t, data)

	if !strings.Contains(out, "Question 2 of 3") {
		t.Error("practice position missing")
	}
	if !strings.Contains(out, "Define momentum.") {
		t.Error("question text missing")
	}
	if !strings.Contains(out, "[5 marks]") {
		t.Error("marks missing")
	}
}
