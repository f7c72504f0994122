package nav

import (
	"context"

	"tournament-client/internal/session"
)

// Role names. Keep these stable; they are part of the identity contract.
const (
	RoleAdmin    = "admin"
	RoleUser     = "user"
	RolePlayer   = "player"
	RoleDirector = "director"
)

// Canonical destinations the guard redirects to.
const (
	PathRoot  = "/"
	PathLogin = "/login"
)

// roleHomes maps each recognized role to its canonical home destination.
// Both denial branches consult this one table; they differ only in their
// unrecognized-role fallback (login for the auth branch, root for the
// guest branch).
var roleHomes = map[string]string{
	RoleAdmin:    "/dashboard-admin",
	RoleUser:     "/dashboard-user",
	RolePlayer:   "/dashboard-player",
	RoleDirector: "/dashboard-director",
}

// RoleHome returns the canonical home for a role and whether the role is
// recognized.
func RoleHome(role string) (string, bool) {
	home, ok := roleHomes[role]
	return home, ok
}

type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
)

// Decision is the guard's output for one navigation intent.
// Location is set only for redirects. Reason is for logs and the trail.
type Decision struct {
	Action   Action
	Location string
	Reason   string
}

func allow() Decision {
	return Decision{Action: ActionAllow}
}

func redirect(location, reason string) Decision {
	return Decision{Action: ActionRedirect, Location: location, Reason: reason}
}

// SessionSource is the slice of the session store the guard consumes.
type SessionSource interface {
	Snapshot() session.Snapshot
	FetchUserRole(ctx context.Context) (string, bool)
}

// Guard decides the effective destination of every pending transition.
// It keeps no state of its own: the decision is a function of the current
// session snapshot and the target's metadata, with role hydration as the
// single suspension point.
type Guard struct {
	sessions SessionSource
}

func NewGuard(sessions SessionSource) *Guard {
	return &Guard{sessions: sessions}
}

// Evaluate runs the decision procedure for a target route.
//
// Order, short-circuiting:
//  1. lazy role hydration (token held, role unknown)
//  2. auth required, not authenticated  -> login
//  3. auth required, role not in set    -> role home, or login if unrecognized
//  4. guest required, authenticated     -> role home, or root if unrecognized
//  5. allow
//
// A failed hydration leaves the role absent, which the non-member and
// unrecognized branches already handle; there is no separate error path.
func (g *Guard) Evaluate(ctx context.Context, to Route) Decision {
	snap := g.sessions.Snapshot()

	if snap.Token != "" && snap.UserRole == "" {
		g.sessions.FetchUserRole(ctx)
		snap = g.sessions.Snapshot()
	}

	if to.Meta.RequiresAuth {
		if !snap.IsAuthenticated {
			return redirect(PathLogin, "unauthenticated")
		}
		if len(to.Meta.Roles) > 0 && !roleAllowed(snap.UserRole, to.Meta.Roles) {
			if home, ok := RoleHome(snap.UserRole); ok {
				return redirect(home, "role_not_allowed")
			}
			return redirect(PathLogin, "role_unrecognized")
		}
		return allow()
	}

	if to.Meta.RequiresGuest && snap.IsAuthenticated {
		if home, ok := RoleHome(snap.UserRole); ok {
			return redirect(home, "guest_only")
		}
		return redirect(PathRoot, "guest_only_role_unrecognized")
	}

	return allow()
}

func roleAllowed(role string, required []string) bool {
	if role == "" {
		return false
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
