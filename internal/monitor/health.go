package monitor

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/touchd/internal/monitoring"
)

// HealthService is the service name reported alongside the overall status.
const HealthService = "touchd.Device"

// HealthServer exposes the device loop state over the standard gRPC health
// protocol. Both the overall status and HealthService follow SetServing.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
}

// NewHealthServer returns a health server reporting NOT_SERVING until the
// first SetServing(true).
func NewHealthServer() *HealthServer {
	h := &HealthServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	h.SetServing(false)
	return h
}

// SetServing updates the reported status. It matches the runtime's OnHealth
// callback.
func (h *HealthServer) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(HealthService, status)
}

// ListenAndServe serves on address until ctx is cancelled.
func (h *HealthServer) ListenAndServe(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return h.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then stops gracefully.
func (h *HealthServer) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("gRPC health server listening on %s", ln.Addr())
		errc <- h.server.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	h.health.Shutdown()
	h.server.GracefulStop()
	<-errc
	monitoring.Logf("gRPC health server stopped")
	return nil
}
