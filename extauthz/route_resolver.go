package extauthz

import (
	"fmt"
	"net/http"
	"strings"
)

const pathPrefix = "/v1/"

// PathResolver resolves route names from the URL shapes of the gateway's
// generic resource surface:
//
//	/v1/{segment}/count            GET    → count
//	/v1/{segment}                  GET    → find
//	/v1/{segment}                  POST   → create
//	/v1/{segment}                  PATCH  → updateBulk
//	/v1/{segment}/sse              GET    → cursor
//	/v1/{segment}/ws               GET    → cursorWs
//	/v1/{segment}/{id}             GET    → findById
//	/v1/{segment}/{id}             PATCH  → update
//	/v1/{segment}/{id}             DELETE → delete
//	/v1/{segment}/{id}/restore     PUT    → restore
//	/v1/{segment}/{id}/destroy     DELETE → destroy
//
// Surface maps URL path segments to resource classes, mirroring the HTTP
// router's table.
type PathResolver struct {
	Surface map[string]string
}

// ResolveRoute implements the RouteResolver interface.
func (r *PathResolver) ResolveRoute(method, path string) (string, string, error) {
	if !strings.HasPrefix(path, pathPrefix) {
		return "", "", fmt.Errorf("path %q outside the service prefix", path)
	}

	// Query strings are not part of the route shape.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(strings.TrimPrefix(path, pathPrefix), "/")

	resource, ok := r.Surface[segments[0]]
	if !ok {
		return "", "", fmt.Errorf("unknown resource segment %q", segments[0])
	}

	op, resourceID, err := resolveOperation(method, segments[1:])
	if err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%s.%s", resource, op), resourceID, nil
}

func resolveOperation(method string, rest []string) (string, string, error) {
	switch len(rest) {
	case 0:
		switch method {
		case http.MethodGet:
			return "find", "", nil
		case http.MethodPost:
			return "create", "", nil
		case http.MethodPatch:
			return "updateBulk", "", nil
		}

	case 1:
		switch rest[0] {
		case "count":
			if method == http.MethodGet {
				return "count", "", nil
			}
		case "sse":
			if method == http.MethodGet {
				return "cursor", "", nil
			}
		case "ws":
			if method == http.MethodGet {
				return "cursorWs", "", nil
			}
		default:
			switch method {
			case http.MethodGet:
				return "findById", rest[0], nil
			case http.MethodPatch:
				return "update", rest[0], nil
			case http.MethodDelete:
				return "delete", rest[0], nil
			}
		}

	case 2:
		switch rest[1] {
		case "restore":
			if method == http.MethodPut {
				return "restore", rest[0], nil
			}
		case "destroy":
			if method == http.MethodDelete {
				return "destroy", rest[0], nil
			}
		}
	}

	return "", "", fmt.Errorf("no operation for %s with %d path segments", method, len(rest))
}
