// Package guard decides whether a session may open a route.
package guard

import (
	"net/url"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// Route paths
const (
	RouteLogin       = "/login"
	RouteJobs        = "/jobs"
	RouteMyContracts = "/my-contracts"
	RouteDashboard   = "/dashboard"
	RouteApplication = "/applications"
	RouteAdmin       = "/admin"
)

// Outcome is the result of a route check
type Outcome int

const (
	// OutcomeAllow lets the session through
	OutcomeAllow Outcome = iota
	// OutcomeRedirect sends the session to Decision.Target
	OutcomeRedirect
	// OutcomeUnconfigured means auth is not configured and nothing is reachable
	OutcomeUnconfigured
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeUnconfigured:
		return "unconfigured"
	default:
		return "unknown"
	}
}

// Decision is the guard's answer for one route
type Decision struct {
	Outcome Outcome
	// Target is the redirect destination
	Target string
	// From is the originally requested path on a redirect to login
	From string
}

// Allowed reports whether the route may be shown
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }

// LoginURL renders the login redirect with the requested path attached
func (d Decision) LoginURL() string {
	if d.From == "" {
		return d.Target
	}
	return d.Target + "?" + url.Values{"from": {d.From}}.Encode()
}

// Routes maps each protected route to the roles allowed on it. A nil slice
// admits any signed-in user.
var Routes = map[string][]domain.Role{
	RouteJobs:        nil,
	RouteMyContracts: {domain.RoleWorker, domain.RoleAdmin},
	RouteDashboard:   {domain.RoleGrower, domain.RoleAdmin},
	RouteApplication: {domain.RoleGrower, domain.RoleAdmin},
	RouteAdmin:       {domain.RoleAdmin},
}

// Check decides whether s may open route
func Check(s auth.Session, route string) Decision {
	if !s.Configured() {
		return Decision{Outcome: OutcomeUnconfigured}
	}

	if !s.SignedIn() {
		return Decision{Outcome: OutcomeRedirect, Target: RouteLogin, From: route}
	}

	allowed, known := Routes[route]
	if !known || allowed == nil {
		return Decision{Outcome: OutcomeAllow}
	}

	for _, r := range allowed {
		if s.Role == r {
			return Decision{Outcome: OutcomeAllow}
		}
	}

	return Decision{Outcome: OutcomeRedirect, Target: s.Role.DefaultPath()}
}
