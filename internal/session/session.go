package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/Versifine/mcprobe/internal/metrics"
	"github.com/Versifine/mcprobe/internal/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Versifine/mcprobe/internal/session"

// Session drives one connection through handshake, status or login, and
// play. It is not safe for concurrent use.
type Session struct {
	conn net.Conn
	r    *bufio.Reader

	host            string
	port            uint16
	protocolVersion int32

	state       protocol.State
	compression bool
	threshold   int
	username    string

	Entities []protocol.SpawnEntity
	Players  []protocol.SpawnPlayer

	animations            int
	keepAlives            int
	unhandledPacketCounts map[int32]int

	observer Observer
	metrics  *metrics.Collector
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithProtocolVersion(v int32) Option {
	return func(s *Session) {
		s.protocolVersion = v
	}
}

// WithServerAddress sets the host and port written into the handshake.
// Dial sets it from the address it connects to.
func WithServerAddress(host string, port uint16) Option {
	return func(s *Session) {
		s.host = host
		s.port = port
	}
}

// Dial connects to addr ("host:port") and returns a session in the
// Handshake state.
func Dial(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "session.Dial",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("net.peer.address", addr)),
	)
	defer span.End()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("invalid server address %q: %w", addr, errors.Join(protocol.ErrTransport, err)))
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("invalid server port %q: %w", portStr, errors.Join(protocol.ErrTransport, err)))
	}

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("connect %s: %w", addr, errors.Join(protocol.ErrTransport, err)))
	}

	s := New(conn, append([]Option{WithServerAddress(host, uint16(port))}, opts...)...)
	s.log.Info("Connected to server", "address", addr)
	return s, nil
}

// New wraps an established connection.
func New(conn net.Conn, opts ...Option) *Session {
	s := &Session{
		conn:                  conn,
		r:                     bufio.NewReader(conn),
		host:                  "localhost",
		port:                  25565,
		protocolVersion:       protocol.CurrentProtocolVersion,
		state:                 protocol.Handshaking,
		threshold:             -1,
		unhandledPacketCounts: make(map[int32]int),
		observer:              NopObserver{},
		log:                   slog.Default(),
		tracer:                otel.Tracer(tracerName),
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) State() protocol.State {
	return s.state
}

// Compression reports whether compression is active and its threshold.
func (s *Session) Compression() (bool, int) {
	return s.compression, s.threshold
}

// Username is the name the server confirmed in Login Success.
func (s *Session) Username() string {
	return s.username
}

// frameThreshold is the threshold handed to the framer; -1 when compression
// is off.
func (s *Session) frameThreshold() int {
	if !s.compression {
		return -1
	}
	return s.threshold
}

func (s *Session) readPacket() (*protocol.Packet, error) {
	frame, err := protocol.ReadFrame(s.r)
	if err != nil {
		return nil, fmt.Errorf("read packet in %s state: %w", s.state, err)
	}
	body, err := protocol.UnwrapCompression(frame, s.frameThreshold())
	if err != nil {
		return nil, fmt.Errorf("read packet in %s state: %w", s.state, err)
	}
	packet, err := protocol.SplitPacket(body)
	if err != nil {
		return nil, fmt.Errorf("read packet in %s state: %w", s.state, err)
	}

	compressed := s.compression && frame[0] != 0x00
	s.metrics.PacketReceived(s.state.String(), protocol.VarintLen(int32(len(frame)))+len(frame), compressed)
	return packet, nil
}

func (s *Session) writePacket(packet *protocol.Packet) error {
	threshold := s.frameThreshold()
	frame, err := protocol.EncodePacket(packet, threshold)
	if err != nil {
		return fmt.Errorf("encode packet 0x%02x in %s state: %w", packet.ID, s.state, err)
	}
	if err := protocol.WriteFrame(s.conn, frame); err != nil {
		return fmt.Errorf("write packet 0x%02x in %s state: %w", packet.ID, s.state, err)
	}

	compressed := threshold >= 0 && packet.Len() >= threshold
	s.metrics.PacketSent(s.state.String(), len(frame), compressed)
	return nil
}

func (s *Session) handshake(next protocol.NextState) error {
	if s.state != protocol.Handshaking {
		return fmt.Errorf("%w: handshake in %s state", protocol.ErrInvalidState, s.state)
	}
	packet, err := protocol.CreateHandshakePacket(s.protocolVersion, s.host, s.port, next)
	if err != nil {
		return err
	}
	s.log.Info("Starting Handshake", "state", protocol.Handshaking.String(), "next", next.State().String())
	if err := s.writePacket(packet); err != nil {
		return err
	}
	s.state = next.State()
	return nil
}

// watch unblocks pending socket I/O once ctx is done.
func (s *Session) watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = s.conn.SetDeadline(time.Now())
	})
}

// finish reports err on span, preferring the context error when the
// operation was interrupted.
func (s *Session) finish(ctx context.Context, span trace.Span, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		err = fmt.Errorf("%w (%w)", ctxErr, err)
	}
	return recordErr(span, err)
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
