// Package view manages which of the fixed set of named views is visible.
// Fragments are fetched once at startup; switching is identity-gated and
// triggers a paper-list reload when entering the dashboard or paper bank.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paperbank/internal/i18n"
	"paperbank/internal/model"
	"paperbank/internal/notify"
	"paperbank/internal/state"
)

// ErrIdentityRequired is returned when a switch to a non-landing view is
// attempted before an identity is set. The active view stays unchanged.
var ErrIdentityRequired = errors.New("identity required to leave the landing view")

// FragmentFetcher fetches view markup by path. Implemented by the backend
// client.
type FragmentFetcher interface {
	Fragment(ctx context.Context, path string) (string, error)
}

// FragmentSet holds the markup of every non-landing view, fetched exactly
// once. It is immutable after LoadFragments and shared across sessions.
type FragmentSet struct {
	fragments map[model.ViewState]string
}

// LoadFragments fetches every view fragment from its fixed path, with a
// cache-defeating query parameter appended. Any single failure fails the
// whole load; a partial view set is not navigable.
func LoadFragments(ctx context.Context, fetcher FragmentFetcher) (*FragmentSet, error) {
	buster := fmt.Sprintf("?v=%d", time.Now().UnixMilli())
	fragments := make(map[model.ViewState]string, len(model.FragmentViews()))
	for _, v := range model.FragmentViews() {
		html, err := fetcher.Fragment(ctx, v.FragmentPath()+buster)
		if err != nil {
			return nil, fmt.Errorf("load view %s: %w", v, err)
		}
		fragments[v] = html
	}
	return &FragmentSet{fragments: fragments}, nil
}

// Fragment returns the markup of a view.
func (fs *FragmentSet) Fragment(v model.ViewState) (string, bool) {
	html, ok := fs.fragments[v]
	return html, ok
}

// ReloadFunc refreshes the cached paper list from the backend.
type ReloadFunc func(ctx context.Context) error

// SwitchResult describes the outcome of a successful switch.
type SwitchResult struct {
	Active    model.ViewState
	Reloaded  bool // a paper-list reload was triggered and succeeded
	ScrollTop bool // scroll position resets on every successful switch
}

// Router drives view transitions for one session.
type Router struct {
	fragments *FragmentSet
	state     *state.Store
	notifier  *notify.Notifier
	reload    ReloadFunc
}

// NewRouter creates a Router over a loaded fragment set.
func NewRouter(fragments *FragmentSet, st *state.Store, n *notify.Notifier, reload ReloadFunc) *Router {
	return &Router{fragments: fragments, state: st, notifier: n, reload: reload}
}

// Switch makes target the single visible view. Without an identity, only
// the landing view is reachable; the attempt is rejected with a guidance
// notification and the active view is left unchanged.
//
// Entering the dashboard or the paper bank reloads the paper list as a
// side effect. A reload failure is reported but does not undo the switch.
func (r *Router) Switch(ctx context.Context, target model.ViewState) (SwitchResult, error) {
	if r.state.Identity() == "" && target != model.ViewLanding {
		r.notifier.Error(i18n.T(ctx, "IdentityGate"))
		return SwitchResult{Active: r.state.View()}, ErrIdentityRequired
	}

	r.state.SetView(target)
	result := SwitchResult{Active: target, ScrollTop: true}

	if target == model.ViewDashboard || target == model.ViewBanks {
		if err := r.reload(ctx); err != nil {
			slog.Error("paper list reload failed", "view", target, "error", err)
		} else {
			result.Reloaded = true
		}
	}

	return result, nil
}

// Visible reports whether v is the active view. Exactly one view is
// visible at any time.
func (r *Router) Visible(v model.ViewState) bool {
	return r.state.View() == v
}
