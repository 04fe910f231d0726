// Package router is the HTTP transport adapter: it constructs an
// AdmitRequest from each inbound http.Request, runs the admission pipeline
// and dispatches admitted calls to the generic per-resource handlers.
package router

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/wenex-org/platform-gateway/backend"
	"github.com/wenex-org/platform-gateway/config"
	"github.com/wenex-org/platform-gateway/gateway"
	"github.com/wenex-org/platform-gateway/stream"
)

type (
	router struct {
		mux       *http.ServeMux
		pipeline  *gateway.Pipeline
		routes    *gateway.Registry
		providers *backend.Registry
		bridge    *stream.Bridge
		healthz   http.HandlerFunc
		config    config.RouterConfig
		logger    polylog.Logger
	}

	// RouterParams groups the dependencies of NewRouter.
	RouterParams struct {
		Pipeline  *gateway.Pipeline
		Routes    *gateway.Registry
		Providers *backend.Registry
		Bridge    *stream.Bridge
		Healthz   http.HandlerFunc
		Config    config.RouterConfig
		Logger    polylog.Logger
	}
)

/* --------------------------------- Init -------------------------------- */

// NewRouter creates a new router instance and mounts the handlers for every
// resource present in the route table.
func NewRouter(params RouterParams) *router {
	r := &router{
		mux:       http.NewServeMux(),
		pipeline:  params.Pipeline,
		routes:    params.Routes,
		providers: params.Providers,
		bridge:    params.Bridge,
		healthz:   params.Healthz,
		config:    params.Config,
		logger:    params.Logger.With("package", "router"),
	}
	r.handleRoutes()
	return r
}

func (r *router) handleRoutes() {
	// GET /healthz - returns the readiness of the gateway's components
	r.mux.HandleFunc("GET /healthz", methodCheckMiddleware(r.healthz))

	// POST /auth/token - public credential issuance, forwarded to the auth
	// backend. Passes the rate limiter only.
	r.mux.HandleFunc("POST /auth/token", r.corsMiddleware(r.handleAuthToken))

	// The operation patterns are method-qualified, so preflight requests
	// would 405 at the mux before any handler runs. The whole API subtree
	// shares these OPTIONS handlers instead.
	r.mux.HandleFunc("OPTIONS /v1/", r.handlePreflight)
	r.mux.HandleFunc("OPTIONS /auth/token", r.handlePreflight)

	for pathSegment, resource := range resourceSurface {
		r.mountResource(pathSegment, resource)
	}
}

// mountResource mounts the full generic CRUD and stream surface of one
// resource under /v1/{pathSegment}.
func (r *router) mountResource(pathSegment, resource string) {
	base := fmt.Sprintf("/v1/%s", pathSegment)

	handle := func(pattern, op string) {
		r.mux.HandleFunc(pattern, r.corsMiddleware(r.operationHandler(resource, op)))
	}

	handle(fmt.Sprintf("GET %s/count", base), opCount)
	handle(fmt.Sprintf("POST %s", base), opCreate)
	handle(fmt.Sprintf("GET %s", base), opFind)
	handle(fmt.Sprintf("GET %s/sse", base), opCursor)
	handle(fmt.Sprintf("GET %s/ws", base), opCursorWS)
	handle(fmt.Sprintf("GET %s/{id}", base), opFindByID)
	handle(fmt.Sprintf("PATCH %s", base), opUpdateBulk)
	handle(fmt.Sprintf("PATCH %s/{id}", base), opUpdate)
	handle(fmt.Sprintf("DELETE %s/{id}", base), opDelete)
	handle(fmt.Sprintf("PUT %s/{id}/restore", base), opRestore)
	handle(fmt.Sprintf("DELETE %s/{id}/destroy", base), opDestroy)
}

// Start starts the API server on the configured port.
func (r *router) Start() error {
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", r.config.Port),
		Handler:        r.mux,
		ReadTimeout:    r.config.ReadTimeout,
		WriteTimeout:   r.config.WriteTimeout,
		IdleTimeout:    r.config.IdleTimeout,
		MaxHeaderBytes: r.config.MaxRequestHeaderBytes,
	}

	r.logger.Info().Msgf("platform gateway running on port %d", r.config.Port)

	if err := server.ListenAndServe(); err != nil {
		return err
	}

	return nil
}

/* --------------------------------- Middleware -------------------------------- */

// methodCheckMiddleware ensures that only GET requests reach the wrapped
// handler.
func methodCheckMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed: only GET requests are allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (r *router) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		setCORSHeaders(w, req)
		next(w, req)
	}
}

// handlePreflight answers CORS preflight requests for the API subtree.
func (r *router) handlePreflight(w http.ResponseWriter, req *http.Request) {
	setCORSHeaders(w, req)
	w.WriteHeader(http.StatusOK)
}

func setCORSHeaders(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", req.Header.Get("Origin"))
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-Id, X-Locale")
}

/* --------------------------------- Request helpers -------------------------------- */

// clientIP returns the caller's IP for rate-limit keying. Only the last
// X-Forwarded-For hop counts: it is the one appended by our own edge proxy,
// while the rest of the chain is client-controlled and spoofable.
func clientIP(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
