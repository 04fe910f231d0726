// Package envelope builds the metadata envelope attached to every outbound
// backend call. The field names are the one externally visible contract of
// the pipeline: backends written against this gateway rely on them.
package envelope

import (
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/wenex-org/platform-gateway/reqctx"
)

// Pinned envelope keys. Do not rename: backend services depend on them.
const (
	KeySubjectID = "subject-id"
	KeyScopes    = "scopes"
	KeyTraceID   = "trace-id"
	KeyLocale    = "locale"
)

// FromCallContext is a pure transform from the per-call context to the
// outbound metadata envelope. The same CallContext produces an equivalent
// envelope whether the inbound call was a plain HTTP request, a stream
// registration or an ext_authz check.
//
// Public calls carry the explicit anonymous subject marker, never an empty
// or missing value, so backends can audit every call's caller.
func FromCallContext(cc reqctx.CallContext) metadata.MD {
	md := metadata.New(map[string]string{
		KeySubjectID: cc.Subject(),
		KeyTraceID:   cc.TraceID,
		KeyLocale:    cc.Locale,
	})
	if cc.Identity != nil && len(cc.Identity.Scopes) > 0 {
		md.Set(KeyScopes, strings.Join(cc.Identity.Scopes, " "))
	}
	return md
}
