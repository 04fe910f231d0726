package gateway

import (
	"fmt"

	"github.com/wenex-org/platform-gateway/authz"
)

// Route is the static, per-operation declaration read by the pipeline at
// dispatch time. Routes are registered once at startup and immutable
// afterwards.
type Route struct {
	// Name identifies the operation, e.g. "identity.users.findById".
	Name string

	// Resource is the backend resource class the operation targets,
	// e.g. "identity.users".
	Resource string

	// RequiredScope, when set, must be present in the caller's issued
	// scopes for the call to proceed.
	RequiredScope string

	// Policy, when set, requires a policy engine decision beyond scope
	// membership.
	Policy *authz.Policy

	// Public routes skip identity resolution, the scope gate and the
	// policy gate, but still pass the rate limiter.
	Public bool
}

// Registry is the route table: a static mapping from operation names to
// their declarations. It is populated by the per-resource surface at
// startup and consumed read-only by the pipeline.
type Registry struct {
	routes map[string]Route
}

// NewRegistry creates an empty route table.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]Route)}
}

// MustRegister adds a route declaration, panicking on duplicate names.
// Registration happens only during startup wiring, so a duplicate is a
// programming error, not a runtime condition.
func (r *Registry) MustRegister(route Route) {
	if route.Name == "" {
		panic("route name must not be empty")
	}
	if _, exists := r.routes[route.Name]; exists {
		panic(fmt.Sprintf("duplicate route declaration: %s", route.Name))
	}
	r.routes[route.Name] = route
}

// Get returns the declaration for the named operation.
func (r *Registry) Get(name string) (Route, bool) {
	route, ok := r.routes[name]
	return route, ok
}

// Routes returns all registered declarations, keyed by name.
func (r *Registry) Routes() map[string]Route {
	routes := make(map[string]Route, len(r.routes))
	for name, route := range r.routes {
		routes[name] = route
	}
	return routes
}
