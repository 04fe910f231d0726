package backend

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned by providers when no record matches.
var ErrNotFound = errors.New("record not found")

// ErrUpstreamUnavailable marks a backend failure after the pipeline has
// admitted the call. It is not an authorization failure and is propagated
// as-is to the caller-facing layer.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// MapRPCError normalizes a gRPC stub error into the provider error
// taxonomy, preserving the original as the wrapped cause.
func MapRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}
