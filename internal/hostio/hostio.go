// Package hostio is a reference host-side IOEffect handler (spec.md
// §4.F, §6): it answers a `handle(:io, {op: :open, path, mode}, env)`
// effect by proxying to a gRPC FileService, resolved at connect time
// through server reflection rather than compiled .pb.go stubs, so a
// new RPC method on the host side needs no rebuild of the embedding
// binary. Grounded on the teacher's lib/io virtual package shape
// (internal/modules/virtual_packages_io.go's fileRead/fileWrite/
// fileAppend surface) and on jhump/protoreflect's grpcdynamic pattern
// for dispatching RPCs purely from descriptors.
package hostio

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/uni-lang/uni/internal/value"
)

// ServiceName is the fully qualified gRPC service this handler talks
// to; Open/Write/Close are its three RPC methods.
const ServiceName = "uni.hostio.FileService"

// Client is a connected handle to a host FileService, resolved via
// server reflection. It is safe for concurrent use.
type Client struct {
	conn *grpc.ClientConn
	stub grpcdynamic.Stub

	mu      sync.Mutex
	svc     *desc.ServiceDescriptor
	methods map[string]*desc.MethodDescriptor
}

// Dial connects to target and resolves ServiceName's method
// descriptors through the reflection service exposed at that address.
func Dial(ctx context.Context, target string) (*Client, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("hostio: dialing %s: %w", target, err)
	}
	refl := grpcreflect.NewClientAuto(ctx, conn)
	svc, err := refl.ResolveService(ServiceName)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("hostio: resolving %s: %w", ServiceName, err)
	}
	c := &Client{
		conn:    conn,
		stub:    grpcdynamic.NewStub(conn),
		svc:     svc,
		methods: map[string]*desc.MethodDescriptor{},
	}
	for _, m := range svc.GetMethods() {
		c.methods[m.GetName()] = m
	}
	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) method(name string) (*desc.MethodDescriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.methods[name]
	if !ok {
		return nil, fmt.Errorf("hostio: %s has no method %q", ServiceName, name)
	}
	return m, nil
}

// invoke builds a request message for method from fields, calls it,
// and returns the response as a *dynamic.Message.
func (c *Client) invoke(ctx context.Context, methodName string, fields map[string]any) (*dynamic.Message, error) {
	m, err := c.method(methodName)
	if err != nil {
		return nil, err
	}
	req := dynamic.NewMessage(m.GetInputType())
	for k, v := range fields {
		if err := req.TrySetFieldByName(k, v); err != nil {
			return nil, fmt.Errorf("hostio: %s.%s field %q: %w", ServiceName, methodName, k, err)
		}
	}
	resp, err := c.stub.InvokeRpc(ctx, m, req)
	if err != nil {
		return nil, fmt.Errorf("hostio: %s.%s: %w", ServiceName, methodName, err)
	}
	dm, ok := resp.(*dynamic.Message)
	if !ok {
		dm = dynamic.NewMessage(m.GetOutputType())
		if err := dm.ConvertFrom(resp); err != nil {
			return nil, fmt.Errorf("hostio: %s.%s: decoding response: %w", ServiceName, methodName, err)
		}
	}
	return dm, nil
}

// handle is a gRPC-backed open file descriptor: write appends a
// string, close releases it on the host side. Close is idempotent so
// the evaluator can call it on every exit path, including unwinding
// out of an `inject` body via a thrown effect, without double-closing.
type handle struct {
	client *Client
	id     string

	mu     sync.Mutex
	closed bool
}

func (h *handle) write(ctx context.Context, data string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("hostio: write to closed handle %s", h.id)
	}
	_, err := h.client.invoke(ctx, "Write", map[string]any{"handle": h.id, "data": data})
	return err
}

func (h *handle) close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	_, err := h.client.invoke(ctx, "Close", map[string]any{"handle": h.id})
	return err
}

// Open opens path on the host side under mode ("r", "w", or "a") and
// returns a record of the shape `{write: fn(String) -> Nil, close: fn() -> Nil}`,
// the continuation-facing value a `std/io.open` handler resumes with
// (spec.md §6).
func (c *Client) Open(ctx context.Context, path, mode string) (*value.Record, error) {
	resp, err := c.invoke(ctx, "Open", map[string]any{"path": path, "mode": mode})
	if err != nil {
		return nil, err
	}
	idField, err := resp.TryGetFieldByName("handle")
	if err != nil {
		return nil, fmt.Errorf("hostio: Open response missing handle: %w", err)
	}
	id, _ := idField.(string)
	h := &handle{client: c, id: id}

	rec := value.NewRecord()
	rec.Set(value.String{Value: "write"}, &value.NativeFunc{
		Name: "io.handle.write",
		Fn: func(args []value.Value) (value.Value, error) {
			s, ok := arg0String(args)
			if !ok {
				return nil, fmt.Errorf("io.handle.write: expected a String argument")
			}
			if err := h.write(ctx, s); err != nil {
				return nil, err
			}
			return value.Nil, nil
		},
	})
	rec.Set(value.String{Value: "close"}, &value.NativeFunc{
		Name: "io.handle.close",
		Fn: func(args []value.Value) (value.Value, error) {
			if err := h.close(ctx); err != nil {
				return nil, err
			}
			return value.Nil, nil
		},
	})
	return rec, nil
}

func arg0String(args []value.Value) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(value.String)
	return s.Value, ok
}

// Handler builds the `:io` effect handler record entry: a curried
// native callable following the same (continuation, payload) shape
// package eval's generic dispatch invokes any handler with, so it
// installs directly via `inject({io: hostio.Handler(client)}, body)`.
func Handler(client *Client) *value.Handler {
	return &value.Handler{Fn: curriedOpen(client)}
}

func curriedOpen(client *Client) *value.NativeFunc {
	return &value.NativeFunc{Name: "hostio.open", Fn: func(args []value.Value) (value.Value, error) {
		k := firstOrNil(args)
		return &value.NativeFunc{Name: "hostio.open:payload", Fn: func(args2 []value.Value) (value.Value, error) {
			payload := firstOrNil(args2)
			rec, ok := payload.(*value.Record)
			if !ok {
				return nil, fmt.Errorf("hostio: :io payload must be a record with path/mode fields")
			}
			path, _ := fieldString(rec, "path")
			mode, _ := fieldString(rec, "mode")
			fh, err := client.Open(context.Background(), path, mode)
			if err != nil {
				return nil, err
			}
			return callWith(k, fh)
		}}, nil
	}}
}

func firstOrNil(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Nil
	}
	return args[0]
}

func fieldString(rec *value.Record, name string) (string, bool) {
	v, ok := rec.Get(value.String{Value: name})
	if !ok {
		return "", false
	}
	s, ok := v.(value.String)
	return s.Value, ok
}

// callWith invokes a continuation Value the way package eval's Call
// does for a *value.NativeFunc (single-argument application); hostio
// avoids importing eval so the dependency runs one way, eval->hostio, so
// it only supports resuming a NativeFunc continuation directly, the
// shape the evaluator always hands the handler.
func callWith(k value.Value, arg value.Value) (value.Value, error) {
	nf, ok := k.(*value.NativeFunc)
	if !ok {
		return nil, fmt.Errorf("hostio: continuation is not directly callable from outside the evaluator")
	}
	return nf.Fn([]value.Value{arg})
}
