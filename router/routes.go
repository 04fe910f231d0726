package router

import (
	"fmt"
	"strings"

	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/gateway"
)

// authTokenRoute is the one public operation of the gateway: credential
// issuance. It passes the rate limiter but skips every identity stage.
const authTokenRoute = "auth.authentication.token"

// resourceSurface maps URL path segments to backend resource classes. The
// per-resource CRUD surface is fully generic; this table is the only
// per-resource declaration the router needs.
var resourceSurface = map[string]string{
	"users":    "identity.users",
	"profiles": "identity.profiles",
	"sessions": "identity.sessions",
	"apps":     "domain.apps",
	"clients":  "domain.clients",
	"grants":   "auth.grants",
}

// operationActions maps each generic operation to the policy action the
// policy engine decides on.
var operationActions = map[string]string{
	opCount:      "read",
	opFind:       "read",
	opFindByID:   "read",
	opCursor:     "read",
	opCursorWS:   "read",
	opCreate:     "create",
	opUpdate:     "update",
	opUpdateBulk: "update",
	opDelete:     "delete",
	opRestore:    "restore",
	opDestroy:    "destroy",
}

// readOperations use the resource's read scope; everything else requires
// the write scope.
var readOperations = map[string]bool{
	opCount:    true,
	opFind:     true,
	opFindByID: true,
	opCursor:   true,
	opCursorWS: true,
}

// RegisterRoutes populates the route table with the declarations of the
// full resource surface plus the public auth token operation. Scopes follow
// the "read:identity:users" notation issued by the auth backend.
func RegisterRoutes(registry *gateway.Registry) {
	registry.MustRegister(gateway.Route{
		Name:     authTokenRoute,
		Resource: "auth.authentication",
		Public:   true,
	})

	for _, resource := range resourceSurface {
		for op, action := range operationActions {
			registry.MustRegister(gateway.Route{
				Name:          fmt.Sprintf("%s.%s", resource, op),
				Resource:      resource,
				RequiredScope: scopeFor(resource, op),
				Policy:        &authz.Policy{Action: action, Resource: resource},
			})
		}
	}
}

// ResourceSurface returns a copy of the path-segment → resource-class
// table, for transport adapters that resolve routes from URL shapes.
func ResourceSurface() map[string]string {
	surface := make(map[string]string, len(resourceSurface))
	for segment, resource := range resourceSurface {
		surface[segment] = resource
	}
	return surface
}

// scopeFor derives the required scope of an operation, e.g.
// ("identity.users", "findById") → "read:identity:users".
func scopeFor(resource, op string) string {
	prefix := "write"
	if readOperations[op] {
		prefix = "read"
	}
	return fmt.Sprintf("%s:%s", prefix, strings.ReplaceAll(resource, ".", ":"))
}
