package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/truckwatch-io/truckwatch/pkg/options"
)

func TestHealth(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(options.NewGrpcOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	defer func() {
		cancel()
		<-done
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	for _, name := range []string{"", ServiceName} {
		rpcCtx, rpcCancel := context.WithTimeout(context.Background(), 2*time.Second)
		resp, err := client.Check(rpcCtx, &healthpb.HealthCheckRequest{Service: name})
		rpcCancel()
		if err != nil {
			t.Fatalf("Check(%q): %v", name, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) = %s", name, resp.GetStatus())
		}
	}
}
