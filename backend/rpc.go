package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
)

// Wire shapes of the generic backend RPC surface. Every backend service
// exposes the same unary methods plus one server-streaming Cursor method,
// so a single provider implementation serves all of them.
type (
	rpcRequest struct {
		ID     string `json:"id,omitempty"`
		Filter Filter `json:"filter,omitempty"`
		Data   Object `json:"data,omitempty"`
	}

	rpcResponse struct {
		Count int64    `json:"count,omitempty"`
		Item  Object   `json:"item,omitempty"`
		Items []Object `json:"items,omitempty"`
	}
)

// jsonCodec serializes the generic wire shapes. Backend services negotiate
// it through the grpc content-subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// RPCProvider reaches one backend service over gRPC. The metadata envelope
// built for the inbound call is attached to every outbound RPC, and stub
// errors are normalized through MapRPCError.
type RPCProvider struct {
	// Conn is the shared client connection to the backend service.
	Conn *grpc.ClientConn

	// Service is the fully-qualified gRPC service name, e.g.
	// "wenex.identity.Users".
	Service string
}

var cursorStreamDesc = grpc.StreamDesc{
	StreamName:    "Cursor",
	ServerStreams: true,
}

func (p *RPCProvider) Count(ctx context.Context, md metadata.MD, filter Filter) (int64, error) {
	resp, err := p.invoke(ctx, md, "Count", rpcRequest{Filter: filter})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (p *RPCProvider) Create(ctx context.Context, md metadata.MD, data Object) (Object, error) {
	resp, err := p.invoke(ctx, md, "Create", rpcRequest{Data: data})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (p *RPCProvider) Find(ctx context.Context, md metadata.MD, filter Filter) ([]Object, error) {
	resp, err := p.invoke(ctx, md, "Find", rpcRequest{Filter: filter})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (p *RPCProvider) FindByID(ctx context.Context, md metadata.MD, id string) (Object, error) {
	resp, err := p.invoke(ctx, md, "FindById", rpcRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (p *RPCProvider) Update(ctx context.Context, md metadata.MD, id string, data Object) (Object, error) {
	resp, err := p.invoke(ctx, md, "Update", rpcRequest{ID: id, Data: data})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (p *RPCProvider) UpdateBulk(ctx context.Context, md metadata.MD, filter Filter, data Object) (int64, error) {
	resp, err := p.invoke(ctx, md, "UpdateBulk", rpcRequest{Filter: filter, Data: data})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (p *RPCProvider) Delete(ctx context.Context, md metadata.MD, id string) (Object, error) {
	resp, err := p.invoke(ctx, md, "Delete", rpcRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (p *RPCProvider) Restore(ctx context.Context, md metadata.MD, id string) (Object, error) {
	resp, err := p.invoke(ctx, md, "Restore", rpcRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (p *RPCProvider) Destroy(ctx context.Context, md metadata.MD, id string) (Object, error) {
	resp, err := p.invoke(ctx, md, "Destroy", rpcRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// Cursor opens the server-streaming subscription. Closing the returned
// cursor cancels the stream's context, which tears the subscription down on
// the backend side.
func (p *RPCProvider) Cursor(ctx context.Context, md metadata.MD, filter Filter) (Cursor, error) {
	ctx, cancel := context.WithCancel(metadata.NewOutgoingContext(ctx, md))

	stream, err := p.Conn.NewStream(ctx, &cursorStreamDesc, p.fullMethod("Cursor"), grpc.ForceCodec(jsonCodec{}))
	if err != nil {
		cancel()
		return nil, MapRPCError(err)
	}
	if err := stream.SendMsg(rpcRequest{Filter: filter}); err != nil {
		cancel()
		return nil, MapRPCError(err)
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		return nil, MapRPCError(err)
	}

	return &rpcCursor{stream: stream, cancel: cancel}, nil
}

func (p *RPCProvider) invoke(ctx context.Context, md metadata.MD, method string, req rpcRequest) (rpcResponse, error) {
	var resp rpcResponse
	ctx = metadata.NewOutgoingContext(ctx, md)
	if err := p.Conn.Invoke(ctx, p.fullMethod(method), req, &resp, grpc.ForceCodec(jsonCodec{})); err != nil {
		return rpcResponse{}, MapRPCError(err)
	}
	return resp, nil
}

func (p *RPCProvider) fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", p.Service, method)
}

type rpcCursor struct {
	stream grpc.ClientStream
	cancel context.CancelFunc
}

func (c *rpcCursor) Recv() (Object, error) {
	var resp rpcResponse
	if err := c.stream.RecvMsg(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, MapRPCError(err)
	}
	return resp.Item, nil
}

func (c *rpcCursor) Close() error {
	c.cancel()
	return nil
}
