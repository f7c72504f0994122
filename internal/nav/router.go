package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrNoRoute = errors.New("nav: no route for path")
	// ErrRedirectLoop means the guard kept substituting destinations without
	// ever allowing one. Only a misconfigured table can cause this.
	ErrRedirectLoop = errors.New("nav: redirect loop")
)

// maxRedirectHops bounds guard-substituted redirects per intent. The guard's
// four outcomes can chain at most twice on a sane table; eight leaves room
// for custom tables without risking an unbounded loop.
const maxRedirectHops = 8

// Router serializes navigation intents and runs the guard exactly once per
// attempted destination. A rejected transition is not retried; the redirect
// target becomes a fresh intent within the same Navigate call.
type Router struct {
	table *Table
	guard *Guard
	trail *Trail
	log   *slog.Logger

	mu      sync.Mutex
	current Route
}

func NewRouter(table *Table, guard *Guard, trail *Trail, log *slog.Logger) (*Router, error) {
	if table == nil {
		return nil, errors.New("nav: route table is required")
	}
	if guard == nil {
		return nil, errors.New("nav: guard is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Router{table: table, guard: guard, trail: trail, log: log, current: Route{Path: PathRoot, Name: "home"}}, nil
}

// Current returns the route of the last allowed transition.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate resolves a navigation intent to its effective destination,
// following guard redirects until a transition is allowed. It returns the
// route that was actually entered.
func (r *Router) Navigate(ctx context.Context, path string) (Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.current.Path

	for hop := 0; hop <= maxRedirectHops; hop++ {
		to, ok := r.table.Resolve(path)
		if !ok {
			return Route{}, fmt.Errorf("%w: %q", ErrNoRoute, path)
		}

		d := r.guard.Evaluate(ctx, to)
		r.record(ctx, from, to.Path, d)

		if d.Action == ActionAllow {
			r.current = to
			return to, nil
		}

		r.log.Debug("navigation redirected",
			"from", from, "to", to.Path, "location", d.Location, "reason", d.Reason)
		path = d.Location
	}

	return Route{}, fmt.Errorf("%w: starting at %q", ErrRedirectLoop, from)
}

// Push satisfies the session store's Navigator. The store only ever pushes
// the application root and the login view.
func (r *Router) Push(ctx context.Context, path string) error {
	_, err := r.Navigate(ctx, path)
	return err
}

func (r *Router) record(ctx context.Context, from, to string, d Decision) {
	if r.trail == nil {
		return
	}
	err := r.trail.Append(ctx, Entry{
		From:     from,
		To:       to,
		Action:   d.Action,
		Location: d.Location,
		Reason:   d.Reason,
	})
	if err != nil {
		r.log.Warn("trail append failed", "err", err)
	}
}
