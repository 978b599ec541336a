package wire

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/schmidtdse/joshsim/internal/errs"
)

// codecName is registered with grpc's encoding registry so the transport
// carries raw §4.8 protocol lines instead of protobuf-encoded messages;
// there is no schema here to generate stubs from, a line IS the message.
const codecName = "joshsim-wire-line"

func init() {
	encoding.RegisterCodec(lineCodec{})
}

// lineCodec marshals a string as its own UTF-8 bytes and back, letting a
// plain gRPC stream carry the §4.8 text protocol verbatim.
type lineCodec struct{}

func (lineCodec) Name() string { return codecName }

func (lineCodec) Marshal(v any) ([]byte, error) {
	s, ok := v.(*string)
	if !ok {
		return nil, errs.New(errs.InvalidWire, "wire transport codec only carries *string, got %T", v)
	}
	return []byte(*s), nil
}

func (lineCodec) Unmarshal(data []byte, v any) error {
	s, ok := v.(*string)
	if !ok {
		return errs.New(errs.InvalidWire, "wire transport codec only carries *string, got %T", v)
	}
	*s = string(data)
	return nil
}

const streamMethod = "/joshsim.wire.Transport/Stream"

// serviceDesc describes the single bidirectional-streaming RPC by hand,
// mirroring what protoc-gen-go-grpc would emit for a service with one
// `rpc Stream(stream Line) returns (stream Line)` method, without
// requiring a .proto toolchain run to generate it.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "joshsim.wire.Transport",
	HandlerType: (*transportServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Stream",
			Handler:       streamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "joshsim/wire/transport.proto",
}

type transportServer interface {
	Stream(grpc.ServerStream) error
}

func streamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(transportServer).Stream(stream)
}

// Handler processes one received line at a time, returning the line to
// write back to the peer ("" means send nothing).
type Handler func(line string) (reply string, err error)

type transportImpl struct {
	handle Handler
}

func (t transportImpl) Stream(stream grpc.ServerStream) error {
	for {
		var line string
		if err := stream.RecvMsg(&line); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		reply, err := t.handle(line)
		if err != nil {
			return err
		}
		if reply == "" {
			continue
		}
		if err := stream.SendMsg(&reply); err != nil {
			return err
		}
	}
}

// RegisterTransport wires handle into s as the leader/worker line
// transport (§4.8). handle is invoked once per received line; its
// non-empty return value is streamed back to the peer.
func RegisterTransport(s *grpc.Server, handle Handler) {
	s.RegisterService(&serviceDesc, transportImpl{handle: handle})
}

// Client is a connected handle to a remote Transport service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a wire transport listening at target (host:port),
// without transport security: the leader/worker protocol is assumed to
// run over a trusted network, matching spec.md's own non-goal of not
// specifying network security.
func Dial(target string) (*Client, error) {
	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Stream is a bidirectional stream of §4.8 protocol lines.
type Stream struct {
	cs grpc.ClientStream
}

// Send writes one line to the peer.
func (s *Stream) Send(line string) error { return s.cs.SendMsg(&line) }

// Recv reads the next line from the peer, returning io.EOF when the peer
// has finished sending.
func (s *Stream) Recv() (string, error) {
	var line string
	if err := s.cs.RecvMsg(&line); err != nil {
		return "", err
	}
	return line, nil
}

// CloseSend signals that no more lines will be sent on this stream.
func (s *Stream) CloseSend() error { return s.cs.CloseSend() }

// Stream opens a new bidirectional line stream to the transport service.
func (c *Client) Stream(ctx context.Context) (*Stream, error) {
	desc := &grpc.StreamDesc{StreamName: "Stream", ServerStreams: true, ClientStreams: true}
	cs, err := c.conn.NewStream(ctx, desc, streamMethod, grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, err
	}
	return &Stream{cs: cs}, nil
}
