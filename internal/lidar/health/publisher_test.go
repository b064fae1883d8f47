package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
	"github.com/banshee-data/lidar-active-learning/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

type fakeSource struct{ on atomic.Bool }

func (f *fakeSource) Ticking() bool { return f.on.Load() }

func startPublisher(t *testing.T) (*Publisher, healthpb.HealthClient) {
	t.Helper()
	p := NewPublisher(Config{ListenAddr: "127.0.0.1:0", PollInterval: time.Second})
	require.NoError(t, p.Start())
	t.Cleanup(p.Stop)

	conn, err := grpc.NewClient(p.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return p, healthpb.NewHealthClient(conn)
}

func check(c healthpb.HealthClient, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	return resp.GetStatus(), err
}

func status(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	s, err := check(c, service)
	require.NoError(t, err)
	return s
}

func reports(c healthpb.HealthClient, want healthpb.HealthCheckResponse_ServingStatus) bool {
	s, err := check(c, SessionService)
	return err == nil && s == want
}

func TestPublisherReportsSessionStatus(t *testing.T) {
	p, client := startPublisher(t)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, SessionService))

	p.Publish(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client, SessionService))

	p.Publish(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, SessionService))
}

func TestStartTwiceFails(t *testing.T) {
	p, _ := startPublisher(t)
	assert.Error(t, p.Start())
}

func TestPublishBeforeStart(t *testing.T) {
	p := NewPublisher(Config{ListenAddr: "127.0.0.1:0"})
	p.Publish(true)
	require.NoError(t, p.Start())
	defer p.Stop()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, p.sessionStatus())
}

func TestStopIsIdempotent(t *testing.T) {
	p := NewPublisher(DefaultConfig())
	p.Stop()
	assert.Nil(t, p.Addr())
}

func TestTrackFollowsSource(t *testing.T) {
	p, client := startPublisher(t)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	src := &fakeSource{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Track(ctx, src, clock)
		close(done)
	}()

	src.on.Store(true)
	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		return reports(client, healthpb.HealthCheckResponse_SERVING)
	}, 3*time.Second, 5*time.Millisecond)

	src.on.Store(false)
	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		return reports(client, healthpb.HealthCheckResponse_NOT_SERVING)
	}, 3*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
