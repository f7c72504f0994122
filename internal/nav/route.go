// Package nav gates navigation: it owns the route table, the guard decision
// procedure run before every transition, and the router that serializes
// navigation intents. The guard is a UX convenience, not a security
// boundary; real enforcement happens server-side.
package nav

import "strings"

// Meta is the optional access metadata a route declares.
// Roles is only meaningful when RequiresAuth is set. A route declaring both
// RequiresAuth and RequiresGuest behaves as auth-required: the guard
// evaluates the auth branch first and short-circuits.
type Meta struct {
	RequiresAuth  bool
	Roles         []string
	RequiresGuest bool
}

// Route is one entry of the route table. Path segments starting with ':'
// are parameters (e.g. "/events/:id").
type Route struct {
	Path string
	Name string
	Meta Meta
}

// Table is an ordered set of route definitions with longest-registration-wins
// semantics: exact matches are preferred, parameterized routes match after.
type Table struct {
	routes []Route
}

func NewTable(routes ...Route) *Table {
	return &Table{routes: routes}
}

// Resolve finds the route for a concrete path. A parameterized match keeps
// the route's name and metadata but carries the concrete path, so callers
// never see a ':' segment in a resolved route.
func (t *Table) Resolve(path string) (Route, bool) {
	for _, r := range t.routes {
		if r.Path == path {
			return r, true
		}
	}
	for _, r := range t.routes {
		if matchPattern(r.Path, path) {
			matched := r
			matched.Path = path
			return matched, true
		}
	}
	return Route{}, false
}

func matchPattern(pattern, path string) bool {
	if !strings.Contains(pattern, ":") {
		return false
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}

// DefaultTable is the tournament application's route set.
func DefaultTable() *Table {
	return NewTable(
		Route{Path: "/", Name: "home"},
		Route{Path: "/events", Name: "events"},
		Route{Path: "/matches", Name: "matches"},
		Route{Path: "/teams", Name: "teams"},
		Route{Path: "/about", Name: "about"},
		Route{Path: "/dashboard-user", Name: "dashboard-user", Meta: Meta{RequiresAuth: true, Roles: []string{RoleUser}}},
		Route{Path: "/dashboard-admin", Name: "dashboard-admin", Meta: Meta{RequiresAuth: true, Roles: []string{RoleAdmin}}},
		Route{Path: "/dashboard-player", Name: "dashboard-player", Meta: Meta{RequiresAuth: true, Roles: []string{RolePlayer}}},
		Route{Path: "/dashboard-director", Name: "dashboard-director", Meta: Meta{RequiresAuth: true, Roles: []string{RoleDirector}}},
		Route{Path: "/login", Name: "login", Meta: Meta{RequiresGuest: true}},
		Route{Path: "/register", Name: "register", Meta: Meta{RequiresGuest: true}},
		Route{Path: "/events/:id", Name: "tournament-details"},
		Route{Path: "/teams/:id", Name: "team-details"},
	)
}
