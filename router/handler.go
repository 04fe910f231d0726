package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wenex-org/platform-gateway/backend"
	"github.com/wenex-org/platform-gateway/envelope"
	"github.com/wenex-org/platform-gateway/gateway"
	"github.com/wenex-org/platform-gateway/reqctx"
)

// Generic operation names. Together with a resource they form the route
// name looked up in the route table, e.g. "identity.users.findById".
const (
	opCount      = "count"
	opCreate     = "create"
	opFind       = "find"
	opFindByID   = "findById"
	opUpdate     = "update"
	opUpdateBulk = "updateBulk"
	opDelete     = "delete"
	opRestore    = "restore"
	opDestroy    = "destroy"
	opCursor     = "cursor"
	opCursorWS   = "cursorWs"
)

// operationHandler returns the handler for one (resource, operation) pair.
// All handlers share the same shape: admit through the pipeline, forward to
// the provider with the call's envelope, filter the result with the call's
// permission, serialize.
func (r *router) operationHandler(resource, op string) http.HandlerFunc {
	routeName := fmt.Sprintf("%s.%s", resource, op)

	return func(w http.ResponseWriter, req *http.Request) {
		route, ok := r.routes.Get(routeName)
		if !ok {
			writeErrorBody(w, http.StatusNotFound, "unknown operation")
			return
		}

		id := req.PathValue("id")

		ctx, cc, err := r.pipeline.Admit(req.Context(), route, admitRequestFromHTTP(req, id))
		if err != nil {
			r.writeError(w, err)
			return
		}

		provider, ok := r.providers.Get(route.Resource)
		if !ok {
			writeErrorBody(w, http.StatusNotFound, "unknown resource")
			return
		}

		md := envelope.FromCallContext(cc)

		switch op {
		case opCount:
			count, err := provider.Count(ctx, md, filterFromQuery(req))
			if err != nil {
				r.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"count": count})

		case opCreate:
			data, err := decodeBody(req)
			if err != nil {
				writeErrorBody(w, http.StatusBadRequest, "invalid request body")
				return
			}
			obj, err := provider.Create(ctx, md, data)
			if err != nil {
				r.writeError(w, err)
				return
			}
			r.writeFilteredObject(w, http.StatusCreated, cc, obj)

		case opFind:
			items, err := provider.Find(ctx, md, filterFromQuery(req))
			if err != nil {
				r.writeError(w, err)
				return
			}
			// Fully-redacted items are dropped: the list shrinks, it is
			// never padded with nulls.
			writeJSON(w, http.StatusOK, map[string]any{"items": cc.Permission.FilterMany(items)})

		case opFindByID:
			obj, err := provider.FindByID(ctx, md, id)
			if err != nil {
				r.writeError(w, err)
				return
			}
			r.writeFilteredObject(w, http.StatusOK, cc, obj)

		case opUpdate:
			data, err := decodeBody(req)
			if err != nil {
				writeErrorBody(w, http.StatusBadRequest, "invalid request body")
				return
			}
			obj, err := provider.Update(ctx, md, id, data)
			if err != nil {
				r.writeError(w, err)
				return
			}
			r.writeFilteredObject(w, http.StatusOK, cc, obj)

		case opUpdateBulk:
			data, err := decodeBody(req)
			if err != nil {
				writeErrorBody(w, http.StatusBadRequest, "invalid request body")
				return
			}
			updated, err := provider.UpdateBulk(ctx, md, filterFromQuery(req), data)
			if err != nil {
				r.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"updated": updated})

		case opDelete:
			obj, err := provider.Delete(ctx, md, id)
			if err != nil {
				r.writeError(w, err)
				return
			}
			r.writeFilteredObject(w, http.StatusOK, cc, obj)

		case opRestore:
			obj, err := provider.Restore(ctx, md, id)
			if err != nil {
				r.writeError(w, err)
				return
			}
			r.writeFilteredObject(w, http.StatusOK, cc, obj)

		case opDestroy:
			obj, err := provider.Destroy(ctx, md, id)
			if err != nil {
				r.writeError(w, err)
				return
			}
			r.writeFilteredObject(w, http.StatusOK, cc, obj)

		case opCursor:
			r.handleSSE(w, req, ctx, cc, provider)

		case opCursorWS:
			r.bridge.Serve(w, req, ctx, cc, provider, filterFromQuery(req))

		default:
			writeErrorBody(w, http.StatusNotFound, "unknown operation")
		}
	}
}

// handleAuthToken forwards the public credential issuance operation to the
// auth backend. The route is public: no identity resolution, but the rate
// limiter still applies, keyed by client IP.
func (r *router) handleAuthToken(w http.ResponseWriter, req *http.Request) {
	route, ok := r.routes.Get(authTokenRoute)
	if !ok {
		writeErrorBody(w, http.StatusNotFound, "unknown operation")
		return
	}

	ctx, cc, err := r.pipeline.Admit(req.Context(), route, admitRequestFromHTTP(req, ""))
	if err != nil {
		r.writeError(w, err)
		return
	}

	provider, ok := r.providers.Get(route.Resource)
	if !ok {
		writeErrorBody(w, http.StatusNotFound, "unknown resource")
		return
	}

	data, err := decodeBody(req)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := provider.Create(ctx, envelope.FromCallContext(cc), data)
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

/* --------------------------------- Request extraction -------------------------------- */

// admitRequestFromHTTP constructs the pipeline's transport-neutral input
// from an http.Request.
func admitRequestFromHTTP(req *http.Request, resourceID string) gateway.AdmitRequest {
	return gateway.AdmitRequest{
		Credential: bearerToken(req),
		ClientIP:   clientIP(req),
		TraceID:    traceID(req),
		Locale:     locale(req),
		ResourceID: resourceID,
	}
}

// bearerToken extracts the bearer credential from the Authorization header.
// Returns an empty string when no credential is present; the resolver
// treats that as an authentication failure on non-public routes.
func bearerToken(req *http.Request) string {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	}
	return authHeader
}

// traceID returns the inbound trace ID, generating one when the caller did
// not send any, so every backend call is correlatable.
func traceID(req *http.Request) string {
	if id := req.Header.Get("X-Trace-Id"); id != "" {
		return id
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

func locale(req *http.Request) string {
	if l := req.Header.Get("X-Locale"); l != "" {
		return l
	}
	return req.Header.Get("Accept-Language")
}

// filterFromQuery forwards all query parameters to the backend as the
// operation's filter. Interpretation belongs to the backend.
func filterFromQuery(req *http.Request) backend.Filter {
	filter := make(backend.Filter)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}
	return filter
}

func decodeBody(req *http.Request) (backend.Object, error) {
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	var data backend.Object
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return data, nil
}

/* --------------------------------- Response writing -------------------------------- */

// writeFilteredObject applies the call's permission to a single object. A
// fully-redacted object becomes a generic not-found response: the caller
// cannot distinguish "doesn't exist" from "exists but hidden".
func (r *router) writeFilteredObject(w http.ResponseWriter, status int, cc reqctx.CallContext, obj backend.Object) {
	filtered := cc.Permission.Filter(obj)
	if filtered == nil {
		writeErrorBody(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, status, filtered)
}

func (r *router) writeError(w http.ResponseWriter, err error) {
	status, message := statusForError(err)
	if retryAfter := retryAfterForError(err); retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error().Err(err).Msg("request failed")
	}
	writeErrorBody(w, status, message)
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"code": status, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written; an encode failure can only mean
	// the client went away.
	_ = json.NewEncoder(w).Encode(body)
}
