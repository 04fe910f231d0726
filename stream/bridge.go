// Package stream bridges live backend cursors to websocket clients.
//
// Full data flow: Client <------> gateway <------> backend cursor
//
// Each bridged connection applies the Permission captured when the stream
// was registered to every emitted item; a stream's permission is fixed for
// its lifetime and only reconsidered when the stream is re-established.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pokt-network/poktroll/pkg/polylog"

	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/backend"
	"github.com/wenex-org/platform-gateway/envelope"
	"github.com/wenex-org/platform-gateway/reqctx"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 30 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Bridge serves live cursor streams over websocket connections. Each
// connection runs independently: a slow consumer only drops its own items
// and never stalls other concurrent streams.
type Bridge struct {
	Logger polylog.Logger

	upgrader websocket.Upgrader
}

// NewBridge creates a websocket bridge. Origin checks are left to the CORS
// layer at the edge.
func NewBridge(logger polylog.Logger) *Bridge {
	return &Bridge{
		Logger: logger.With("package", "stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request to a websocket connection and pumps the
// resource's cursor into it until either side goes away. The backend cursor
// is always torn down when the client disconnects: no subscription may
// outlive its caller.
func (b *Bridge) Serve(
	w http.ResponseWriter,
	req *http.Request,
	ctx context.Context,
	cc reqctx.CallContext,
	provider backend.Provider,
	filter backend.Filter,
) {
	clientConn, err := b.upgrader.Upgrade(w, req, nil)
	if err != nil {
		b.Logger.Warn().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cursor, err := provider.Cursor(streamCtx, envelope.FromCallContext(cc), filter)
	if err != nil {
		b.Logger.Warn().Err(err).Msg("failed to register backend cursor")
		_ = clientConn.Close()
		return
	}

	conn := &bridgedConn{
		logger:     b.Logger.With("trace_id", cc.TraceID),
		client:     clientConn,
		cursor:     cursor,
		permission: cc.Permission,
		cancel:     cancel,
	}

	go conn.readLoop()
	conn.writeLoop(streamCtx)
}

// bridgedConn is one client connection plus its backend cursor.
type bridgedConn struct {
	logger     polylog.Logger
	client     *websocket.Conn
	cursor     backend.Cursor
	permission authz.Permission
	cancel     context.CancelFunc
}

// readLoop consumes client frames solely to detect disconnects and service
// the pong handler. Client payloads are not part of the stream contract.
func (c *bridgedConn) readLoop() {
	defer c.teardown()

	_ = c.client.SetReadDeadline(time.Now().Add(pongWait))
	c.client.SetPongHandler(func(string) error {
		return c.client.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.client.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop pumps filtered cursor items to the client until the cursor
// ends, the write fails or the stream context is cancelled.
func (c *bridgedConn) writeLoop(ctx context.Context) {
	defer c.teardown()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	items := make(chan backend.Object)
	recvErr := make(chan error, 1)
	go func() {
		for {
			item, err := c.cursor.Recv()
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case items <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-recvErr:
			if !errors.Is(err, io.EOF) {
				c.logger.Warn().Err(err).Msg("cursor stream failed")
			}
			return

		case item := <-items:
			filtered := c.permission.FilterStreamItem(item)
			if filtered == nil {
				continue
			}
			payload, err := json.Marshal(filtered)
			if err != nil {
				c.logger.Error().Err(err).Msg("failed to marshal stream item")
				continue
			}
			_ = c.client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.client.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-pingTicker.C:
			_ = c.client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.client.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown closes both legs of the bridge. Safe to call from either loop.
func (c *bridgedConn) teardown() {
	c.cancel()
	_ = c.cursor.Close()
	_ = c.client.Close()
}
