// Package health publishes the session's liveness over the standard gRPC
// health protocol.
//
// The overall service ("") reports SERVING for as long as the publisher is
// running. The session service reports SERVING while the session is ticking
// and NOT_SERVING while it is paused or reset, so orchestration can tell an
// idle server from a busy one.
package health

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
	"github.com/banshee-data/lidar-active-learning/internal/timeutil"
)

var logf = monitoring.Component("health")

// SessionService is the health service name that tracks ticking.
const SessionService = "lidar.activelearning.Session"

// Config holds configuration for the health gRPC server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50051")
	ListenAddr string

	// PollInterval is how often the session status is sampled (default: 1s)
	PollInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "localhost:50051",
		PollInterval: time.Second,
	}
}

// StatusSource reports whether the session is ticking.
type StatusSource interface {
	Ticking() bool
}

// Publisher manages the gRPC server and its health service.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener
	health   *grpchealth.Server

	mu      sync.Mutex
	ticking bool

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewPublisher creates a new Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Publisher{
		config: cfg,
		health: grpchealth.NewServer(),
	}
}

// Start binds the listener and serves the health service in the background.
func (p *Publisher) Start() error {
	if p.running.Load() {
		return fmt.Errorf("publisher already running")
	}

	logf("Attempting to bind to %s...", p.config.ListenAddr)
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	p.listener = lis

	p.server = grpc.NewServer()
	healthpb.RegisterHealthServer(p.server, p.health)
	p.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	p.health.SetServingStatus(SessionService, p.sessionStatus())

	p.running.Store(true)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		logf("gRPC health server listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			logf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop marks every service NOT_SERVING and stops the server.
func (p *Publisher) Stop() {
	if !p.running.Load() {
		return
	}
	p.running.Store(false)

	p.health.Shutdown()
	if p.server != nil {
		p.server.GracefulStop()
	}
	if p.listener != nil {
		p.listener.Close()
	}

	p.wg.Wait()
	logf("gRPC server stopped")
}

// Publish records the session's ticking state.
func (p *Publisher) Publish(ticking bool) {
	p.mu.Lock()
	changed := p.ticking != ticking
	p.ticking = ticking
	p.mu.Unlock()

	if !changed || !p.running.Load() {
		return
	}
	status := p.sessionStatus()
	p.health.SetServingStatus(SessionService, status)
	logf("session status: %s", status)
}

func (p *Publisher) sessionStatus() healthpb.HealthCheckResponse_ServingStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticking {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Track samples src every PollInterval and publishes its state until ctx is
// cancelled.
func (p *Publisher) Track(ctx context.Context, src StatusSource, clock timeutil.Clock) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ticker := clock.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.Publish(src.Ticking())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.Publish(src.Ticking())
		}
	}
}
