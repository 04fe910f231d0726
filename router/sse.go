package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wenex-org/platform-gateway/backend"
	"github.com/wenex-org/platform-gateway/envelope"
	"github.com/wenex-org/platform-gateway/reqctx"
)

// handleSSE serves a live cursor as a server-sent event stream.
//
// The Permission captured at admission filters every emitted item for the
// stream's whole lifetime; it is not re-evaluated per event. The backend
// cursor is torn down when the caller disconnects, so no subscription
// outlives its stream.
func (r *router) handleSSE(w http.ResponseWriter, req *http.Request, ctx context.Context, cc reqctx.CallContext, provider backend.Provider) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorBody(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	cursor, err := provider.Cursor(ctx, envelope.FromCallContext(cc), filterFromQuery(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	defer cursor.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		item, err := cursor.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				r.logger.Warn().Err(err).Msg("cursor stream failed")
			}
			return
		}

		filtered := cc.Permission.FilterStreamItem(item)
		if filtered == nil {
			// Redacted items are dropped silently; the stream moves on.
			continue
		}

		if err := writeSSEEvent(w, filtered); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeSSEEvent(w io.Writer, item backend.Object) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	if id, ok := item["id"].(string); ok {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
