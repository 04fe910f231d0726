package authz

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when a scope or policy check denies the call.
var ErrForbidden = errors.New("forbidden")

// ErrPolicyEngineUnavailable is returned when the policy engine collaborator
// cannot be reached. It wraps ErrForbidden so the gateway fails closed, while
// letting operators distinguish outages from real denials.
var ErrPolicyEngineUnavailable = fmt.Errorf("%w: policy engine unavailable", ErrForbidden)

// errMissingScope is wrapped into ErrForbidden by the scope gate.
var errMissingScope = errors.New("missing required scope")
