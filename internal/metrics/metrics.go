package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcprobe"

// Collector holds the session counters. A nil *Collector is valid and
// records nothing, so sessions created without metrics need no checks.
type Collector struct {
	registry *prometheus.Registry

	packetsReceived  *prometheus.CounterVec
	packetsSent      *prometheus.CounterVec
	bytesReceived    prometheus.Counter
	bytesSent        prometheus.Counter
	compressedFrames *prometheus.CounterVec
	unknownPackets   *prometheus.CounterVec
	entitiesSpawned  prometheus.Counter
	playersSpawned   prometheus.Counter
}

// New registers all counters on a private registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Packets read from the server, by connection state",
		}, []string{"state"}),

		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Packets written to the server, by connection state",
		}, []string{"state"}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Frame bytes read, length prefix included",
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Frame bytes written, length prefix included",
		}),

		compressedFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compressed_frames_total",
			Help:      "Frames carrying a zlib body",
		}, []string{"direction"}),

		unknownPackets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_play_packets_total",
			Help:      "Play packets skipped because no decoder handles their ID",
		}, []string{"packet_id"}),

		entitiesSpawned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_spawned_total",
			Help:      "Spawn Entity packets captured",
		}),

		playersSpawned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_spawned_total",
			Help:      "Spawn Player packets captured",
		}),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) PacketReceived(state string, frameBytes int, compressed bool) {
	if c == nil {
		return
	}
	c.packetsReceived.WithLabelValues(state).Inc()
	c.bytesReceived.Add(float64(frameBytes))
	if compressed {
		c.compressedFrames.WithLabelValues("inbound").Inc()
	}
}

func (c *Collector) PacketSent(state string, frameBytes int, compressed bool) {
	if c == nil {
		return
	}
	c.packetsSent.WithLabelValues(state).Inc()
	c.bytesSent.Add(float64(frameBytes))
	if compressed {
		c.compressedFrames.WithLabelValues("outbound").Inc()
	}
}

func (c *Collector) UnknownPacket(packetID int32) {
	if c == nil {
		return
	}
	c.unknownPackets.WithLabelValues(fmt.Sprintf("0x%02x", packetID)).Inc()
}

func (c *Collector) EntitySpawned() {
	if c == nil {
		return
	}
	c.entitiesSpawned.Inc()
}

func (c *Collector) PlayerSpawned() {
	if c == nil {
		return
	}
	c.playersSpawned.Inc()
}

// Handler exposes the private registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, c *Collector) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "listen", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
