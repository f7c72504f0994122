package nav

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is an immutable, append-only navigation trail record: one line per
// evaluated navigation intent, including the guard's verdict.
//
// Invariants:
// - Entries are never updated or deleted.
// - Recording is best-effort; a navigation never fails because the trail does.
type Entry struct {
	ID string `json:"id"`

	From string `json:"from"`
	To   string `json:"to"`

	Action Action `json:"action"`
	// Location is the substituted destination for redirects.
	Location string `json:"location,omitempty"`
	// Reason mirrors the guard's reason for internal logs and debugging.
	Reason string `json:"reason,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// TrailRepo is the persistence contract for trail entries.
// It is append-only; there is no update or delete.
type TrailRepo interface {
	Append(ctx context.Context, e Entry) error
}

var ErrInvalidEntry = errors.New("nav: invalid trail entry")

// Trail records guard decisions.
type Trail struct {
	repo  TrailRepo
	clock func() time.Time
}

func NewTrail(repo TrailRepo) *Trail {
	return &Trail{repo: repo, clock: time.Now}
}

func (t *Trail) Append(ctx context.Context, e Entry) error {
	if t.repo == nil {
		return errors.New("nav: trail repository not configured")
	}
	if e.To == "" {
		return ErrInvalidEntry
	}
	if e.Action == "" {
		return ErrInvalidEntry
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = t.clock().UTC()
	}
	return t.repo.Append(ctx, e)
}

// MemoryTrailRepo is a simple in-memory append-only repository, the default
// for a single-user client process and for tests.
type MemoryTrailRepo struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryTrailRepo() *MemoryTrailRepo { return &MemoryTrailRepo{} }

func (r *MemoryTrailRepo) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryTrailRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
