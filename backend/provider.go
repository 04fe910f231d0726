// Package backend defines the generic provider interface through which the
// gateway reaches its backend services. One provider exists per domain
// resource; all of them expose the same CRUD and cursor surface, so the
// gateway's handlers stay fully generic.
//
// Providers are consumed as black boxes: the pipeline only guarantees that
// every call carries the metadata envelope produced for the inbound request.
package backend

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Filter is the query shape forwarded to providers for count/find-style
// operations. Its interpretation belongs to the backend.
type Filter map[string]string

// Object is a single backend record in wire-neutral form.
type Object = map[string]any

// Cursor is a live result stream registered on the caller's behalf. Close
// must tear down the backend subscription; no cursor may outlive the
// inbound call that registered it.
type Cursor interface {
	// Recv blocks until the next item, the stream's end (io.EOF) or a
	// stream failure.
	Recv() (Object, error)
	Close() error
}

// Provider is the per-resource backend stub. Every method takes the
// outbound envelope so backend services can audit and authorize the
// original caller themselves.
type Provider interface {
	Count(ctx context.Context, md metadata.MD, filter Filter) (int64, error)
	Create(ctx context.Context, md metadata.MD, data Object) (Object, error)
	Find(ctx context.Context, md metadata.MD, filter Filter) ([]Object, error)
	FindByID(ctx context.Context, md metadata.MD, id string) (Object, error)
	Update(ctx context.Context, md metadata.MD, id string, data Object) (Object, error)
	UpdateBulk(ctx context.Context, md metadata.MD, filter Filter, data Object) (int64, error)
	Delete(ctx context.Context, md metadata.MD, id string) (Object, error)
	Restore(ctx context.Context, md metadata.MD, id string) (Object, error)
	Destroy(ctx context.Context, md metadata.MD, id string) (Object, error)

	// Cursor registers a live stream of objects matching filter.
	Cursor(ctx context.Context, md metadata.MD, filter Filter) (Cursor, error)
}

// Registry maps resource names (e.g. "identity.users") to their providers.
// It is populated once at startup and read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register binds a resource name to its provider. Last registration wins.
func (r *Registry) Register(resource string, p Provider) {
	r.providers[resource] = p
}

// Get returns the provider for resource and whether one is registered.
func (r *Registry) Get(resource string) (Provider, bool) {
	p, ok := r.providers[resource]
	return p, ok
}
