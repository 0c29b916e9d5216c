package screens

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/insurebot/core/logger"
	"github.com/m3rciful/insurebot/core/telegram/state"
)

const component = "screens"

// Tracker remembers the current screen of every user in an injected store.
// Each update of a user's screen is a single atomic Set on the store.
type Tracker struct {
	store   state.Store
	catalog *Catalog
}

// NewTracker wires a tracker to store. A nil catalog renders default texts.
func NewTracker(store state.Store, catalog *Catalog) *Tracker {
	if store == nil {
		store = state.NewMemoryStore()
	}
	return &Tracker{store: store, catalog: catalog}
}

// Current returns the user's screen; users never seen before are on Start.
// A stored value that is no longer a screen also reads as Start.
func (t *Tracker) Current(ctx context.Context, userID int64) (Screen, error) {
	st, ok, err := t.store.Get(ctx, userID)
	if err != nil {
		return Start, fmt.Errorf("get screen of %d: %w", userID, err)
	}
	if !ok {
		return Start, nil
	}
	s, valid := Parse(string(st))
	if !valid {
		logger.Warn(ctx, component, "state.stale", slog.String("screen", string(st)))
		return Start, nil
	}
	return s, nil
}

// CurrentView renders the user's current screen.
func (t *Tracker) CurrentView(ctx context.Context, userID int64) (View, error) {
	s, err := t.Current(ctx, userID)
	if err != nil {
		// the layout still renders; only the lookup failed
		v, _ := t.catalog.View(Start)
		return v, err
	}
	return t.catalog.View(s)
}

// Enter moves the user to s and returns its view.
func (t *Tracker) Enter(ctx context.Context, userID int64, s Screen) (View, error) {
	view, err := t.catalog.View(s)
	if err != nil {
		return View{}, err
	}
	prev, err := t.store.Set(ctx, userID, state.State(s))
	if err != nil {
		return View{}, fmt.Errorf("set screen of %d: %w", userID, err)
	}
	from := Start
	if p, ok := Parse(string(prev)); ok {
		from = p
	}
	attrs := []slog.Attr{slog.String("from_screen", string(from)), slog.String("screen", string(s))}
	if from != s {
		if fromView, _ := t.catalog.View(from); !fromView.Leads(s) {
			// buttons of older messages stay pressable
			logger.Debug(ctx, component, "transition.offgraph", attrs...)
			return view, nil
		}
	}
	logger.Debug(ctx, component, "transition", attrs...)
	return view, nil
}

// Navigate handles a button press carrying target. An unknown target
// leaves the state untouched and reports ok=false.
func (t *Tracker) Navigate(ctx context.Context, userID int64, target string) (View, bool, error) {
	s, ok := Parse(target)
	if !ok {
		logger.Warn(ctx, component, "navigate.unknown_target",
			slog.String("status", "skip"),
			slog.String("outcome", "ignored"),
			slog.String("target", logger.SanitizeLimit(target, 64)),
		)
		return View{}, false, nil
	}
	view, err := t.Enter(ctx, userID, s)
	if err != nil {
		return View{}, false, err
	}
	return view, true, nil
}

// Reset puts the user back on Start, as /start does.
func (t *Tracker) Reset(ctx context.Context, userID int64) (View, error) {
	return t.Enter(ctx, userID, Start)
}

// Stats returns how many users are on each screen. Stored values that are
// not screens are folded into Start, matching what Current reports.
func (t *Tracker) Stats(ctx context.Context) (map[Screen]int, error) {
	counts, err := t.store.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count screens: %w", err)
	}
	out := make(map[Screen]int, len(counts))
	for st, n := range counts {
		s, ok := Parse(string(st))
		if !ok {
			s = Start
		}
		out[s] += n
	}
	return out, nil
}
