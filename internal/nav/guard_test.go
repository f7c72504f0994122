package nav

import (
	"context"
	"testing"

	"tournament-client/internal/session"
)

// fakeSessions hydrates into hydratedRole when FetchUserRole is called.
type fakeSessions struct {
	snap         session.Snapshot
	hydratedRole string
	hydrateOK    bool
	fetchCalls   int
}

func (f *fakeSessions) Snapshot() session.Snapshot { return f.snap }

func (f *fakeSessions) FetchUserRole(ctx context.Context) (string, bool) {
	f.fetchCalls++
	f.snap.UserRole = f.hydratedRole
	return f.hydratedRole, f.hydrateOK
}

func authed(role string) session.Snapshot {
	return session.Snapshot{Token: "tok", UserID: "u-1", UserEmail: "a@b.com", UserRole: role, IsAuthenticated: true}
}

func TestEvaluate_UnauthenticatedAuthRouteRedirectsToLogin(t *testing.T) {
	g := NewGuard(&fakeSessions{})
	d := g.Evaluate(context.Background(), Route{Path: "/dashboard-admin", Meta: Meta{RequiresAuth: true, Roles: []string{RoleAdmin}}})
	if d.Action != ActionRedirect || d.Location != PathLogin {
		t.Fatalf("expected redirect to login, got %+v", d)
	}
}

func TestEvaluate_WrongRoleRedirectsToOwnHomeNeverTarget(t *testing.T) {
	g := NewGuard(&fakeSessions{snap: authed(RolePlayer)})
	d := g.Evaluate(context.Background(), Route{Path: "/dashboard-admin", Meta: Meta{RequiresAuth: true, Roles: []string{RoleAdmin}}})
	if d.Action != ActionRedirect {
		t.Fatalf("player must not pass an admin route, got %+v", d)
	}
	if d.Location != "/dashboard-player" {
		t.Fatalf("expected redirect to player home, got %q", d.Location)
	}
}

func TestEvaluate_MatchingRoleAllowed(t *testing.T) {
	g := NewGuard(&fakeSessions{snap: authed(RoleDirector)})
	d := g.Evaluate(context.Background(), Route{Path: "/dashboard-director", Meta: Meta{RequiresAuth: true, Roles: []string{RoleDirector}}})
	if d.Action != ActionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestEvaluate_UnrecognizedRoleOnAuthRouteFallsBackToLogin(t *testing.T) {
	g := NewGuard(&fakeSessions{snap: authed("referee")})
	d := g.Evaluate(context.Background(), Route{Path: "/dashboard-admin", Meta: Meta{RequiresAuth: true, Roles: []string{RoleAdmin}}})
	if d.Action != ActionRedirect || d.Location != PathLogin {
		t.Fatalf("expected login fallback for unrecognized role, got %+v", d)
	}
}

func TestEvaluate_AuthRouteWithoutRolesOnlyNeedsAuthentication(t *testing.T) {
	g := NewGuard(&fakeSessions{snap: authed(RoleUser)})
	d := g.Evaluate(context.Background(), Route{Path: "/settings", Meta: Meta{RequiresAuth: true}})
	if d.Action != ActionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestEvaluate_GuestRouteRedirectsAuthenticatedToRoleHome(t *testing.T) {
	g := NewGuard(&fakeSessions{snap: authed(RoleDirector)})
	d := g.Evaluate(context.Background(), Route{Path: "/login", Meta: Meta{RequiresGuest: true}})
	if d.Action != ActionRedirect || d.Location != "/dashboard-director" {
		t.Fatalf("expected redirect to director home, got %+v", d)
	}
}

func TestEvaluate_GuestRouteAllowsUnauthenticated(t *testing.T) {
	g := NewGuard(&fakeSessions{})
	d := g.Evaluate(context.Background(), Route{Path: "/login", Meta: Meta{RequiresGuest: true}})
	if d.Action != ActionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestEvaluate_GuestRouteUnrecognizedRoleFallsBackToRoot(t *testing.T) {
	g := NewGuard(&fakeSessions{snap: authed("referee")})
	d := g.Evaluate(context.Background(), Route{Path: "/login", Meta: Meta{RequiresGuest: true}})
	if d.Action != ActionRedirect || d.Location != PathRoot {
		t.Fatalf("expected root fallback, got %+v", d)
	}
}

func TestEvaluate_PlainRouteAlwaysAllowed(t *testing.T) {
	g := NewGuard(&fakeSessions{})
	if d := g.Evaluate(context.Background(), Route{Path: "/events"}); d.Action != ActionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
	g = NewGuard(&fakeSessions{snap: authed(RoleAdmin)})
	if d := g.Evaluate(context.Background(), Route{Path: "/events"}); d.Action != ActionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestEvaluate_HydratesRoleBeforeDeciding(t *testing.T) {
	src := &fakeSessions{
		snap:         session.Snapshot{Token: "tok", IsAuthenticated: true},
		hydratedRole: RolePlayer,
		hydrateOK:    true,
	}
	g := NewGuard(src)
	d := g.Evaluate(context.Background(), Route{Path: "/dashboard-player", Meta: Meta{RequiresAuth: true, Roles: []string{RolePlayer}}})
	if src.fetchCalls != 1 {
		t.Fatalf("expected one hydration call, got %d", src.fetchCalls)
	}
	if d.Action != ActionAllow {
		t.Fatalf("expected allow after hydration, got %+v", d)
	}
}

func TestEvaluate_NoHydrationWhenRoleKnown(t *testing.T) {
	src := &fakeSessions{snap: authed(RoleUser)}
	g := NewGuard(src)
	g.Evaluate(context.Background(), Route{Path: "/dashboard-user", Meta: Meta{RequiresAuth: true, Roles: []string{RoleUser}}})
	if src.fetchCalls != 0 {
		t.Fatalf("expected no hydration, got %d calls", src.fetchCalls)
	}
}

func TestEvaluate_FailedHydrationBehavesAsRoleAbsent(t *testing.T) {
	// Token held, hydration fails: role stays absent, so a role-restricted
	// route falls into the unrecognized branch and redirects to login.
	src := &fakeSessions{snap: session.Snapshot{Token: "tok", IsAuthenticated: true}}
	g := NewGuard(src)
	d := g.Evaluate(context.Background(), Route{Path: "/dashboard-admin", Meta: Meta{RequiresAuth: true, Roles: []string{RoleAdmin}}})
	if d.Action != ActionRedirect || d.Location != PathLogin {
		t.Fatalf("expected login redirect, got %+v", d)
	}
}

func TestEvaluate_AuthTakesPrecedenceOverGuest(t *testing.T) {
	// A route misconfigured with both flags behaves as auth-required.
	g := NewGuard(&fakeSessions{})
	d := g.Evaluate(context.Background(), Route{Path: "/odd", Meta: Meta{RequiresAuth: true, RequiresGuest: true}})
	if d.Action != ActionRedirect || d.Location != PathLogin {
		t.Fatalf("expected auth branch to win, got %+v", d)
	}

	g = NewGuard(&fakeSessions{snap: authed(RoleUser)})
	if d := g.Evaluate(context.Background(), Route{Path: "/odd", Meta: Meta{RequiresAuth: true, RequiresGuest: true}}); d.Action != ActionAllow {
		t.Fatalf("authenticated user must pass the auth branch, got %+v", d)
	}
}

func TestRoleHome_CoversAllRecognizedRoles(t *testing.T) {
	want := map[string]string{
		RoleAdmin:    "/dashboard-admin",
		RoleUser:     "/dashboard-user",
		RolePlayer:   "/dashboard-player",
		RoleDirector: "/dashboard-director",
	}
	for role, home := range want {
		got, ok := RoleHome(role)
		if !ok || got != home {
			t.Fatalf("RoleHome(%s) = %q ok=%v, want %q", role, got, ok, home)
		}
	}
	if _, ok := RoleHome("referee"); ok {
		t.Fatalf("unexpected home for unrecognized role")
	}
}
