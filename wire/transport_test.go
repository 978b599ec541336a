package wire

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func TestTransportRoundTripsLinesOverGRPC(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterTransport(srv, func(line string) (string, error) {
		return FormatEnd(0), nil
	})
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	client := &Client{conn: conn}

	stream, err := client.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := stream.Send(FormatProgress(1)); err != nil {
		t.Fatal(err)
	}
	reply, err := stream.Recv()
	if err != nil {
		t.Fatal(err)
	}
	msg, err := Parse(reply[:len(reply)-1])
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindEnd {
		t.Fatalf("expected an end line back, got %+v", msg)
	}
}
