package session

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Versifine/mcprobe/internal/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// StatusResult is what a status query yields: the server list JSON and the
// measured ping.
type StatusResult struct {
	JSON string
	Ping *protocol.PingResponse
}

// Status runs the status flow: handshake, status request, status response,
// ping request, ping response. The session is finished afterwards.
func (s *Session) Status(ctx context.Context) (*StatusResult, error) {
	ctx, span := s.tracer.Start(ctx, "session.Status")
	defer span.End()
	stop := s.watch(ctx)
	defer stop()

	result, err := s.status()
	if err != nil {
		return nil, s.finish(ctx, span, fmt.Errorf("status: %w", err))
	}
	span.SetAttributes(attribute.Int64("mcprobe.ping_seconds", int64(result.Ping.Elapsed.Seconds())))
	return result, nil
}

func (s *Session) status() (*StatusResult, error) {
	if err := s.handshake(protocol.NextStateStatus); err != nil {
		return nil, err
	}

	if err := s.writePacket(protocol.CreateStatusRequestPacket()); err != nil {
		return nil, err
	}
	packet, err := s.readPacket()
	if err != nil {
		return nil, err
	}
	if packet.ID != protocol.S2CStatusResponse {
		return nil, fmt.Errorf("%w: 0x%02x in %s state, expected status response", protocol.ErrUnexpectedPacket, packet.ID, s.state)
	}
	response, err := protocol.ParseStatusResponse(bytes.NewReader(packet.Payload))
	if err != nil {
		return nil, err
	}
	s.log.Debug("Received status response", "bytes", len(response.JSON))

	if err := s.writePacket(protocol.CreatePingRequestPacket(s.now())); err != nil {
		return nil, err
	}
	packet, err = s.readPacket()
	if err != nil {
		return nil, err
	}
	if packet.ID != protocol.S2CPingResponse {
		return nil, fmt.Errorf("%w: 0x%02x in %s state, expected ping response", protocol.ErrUnexpectedPacket, packet.ID, s.state)
	}
	ping, err := protocol.ParsePingResponse(packet.Payload, s.now())
	if err != nil {
		return nil, err
	}
	s.log.Info("Status query complete", "ping", ping.String())

	return &StatusResult{JSON: response.JSON, Ping: ping}, nil
}
