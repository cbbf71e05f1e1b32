package session

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Versifine/mcprobe/internal/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// Login runs the offline-mode login flow and leaves the session in Play.
// Compression negotiated here applies to every later read and write.
func (s *Session) Login(ctx context.Context, username string) (*protocol.LoginSuccess, error) {
	ctx, span := s.tracer.Start(ctx, "session.Login")
	defer span.End()
	span.SetAttributes(attribute.String("mcprobe.username", username))
	stop := s.watch(ctx)
	defer stop()

	success, err := s.login(username)
	if err != nil {
		return nil, s.finish(ctx, span, fmt.Errorf("login: %w", err))
	}
	span.SetAttributes(
		attribute.Bool("mcprobe.compression", s.compression),
		attribute.Int("mcprobe.threshold", s.threshold),
	)
	return success, nil
}

func (s *Session) login(username string) (*protocol.LoginSuccess, error) {
	// Validate the username before anything goes on the wire.
	loginStart, err := protocol.CreateLoginStartPacket(username)
	if err != nil {
		return nil, err
	}
	if err := s.handshake(protocol.NextStateLogin); err != nil {
		return nil, err
	}

	s.log.Info("Starting Login", "state", s.state.String(), "username", username)
	if err := s.writePacket(loginStart); err != nil {
		return nil, err
	}

	for {
		packet, err := s.readPacket()
		if err != nil {
			return nil, err
		}
		s.log.Debug("Received packet in Login state", "packet_id", fmt.Sprintf("0x%02x", packet.ID))
		packetRdr := bytes.NewReader(packet.Payload)

		switch packet.ID {
		case protocol.S2CLoginDisconnect:
			disconnect, err := protocol.ParseDisconnect(packetRdr)
			if err != nil {
				return nil, err
			}
			return nil, &protocol.DisconnectError{State: s.state, Reason: disconnect.Reason}

		case protocol.S2CEncryptionRequest:
			return nil, protocol.ErrEncryptionUnsupported

		case protocol.S2CSetCompression:
			setCompression, err := protocol.ParseSetCompression(packetRdr)
			if err != nil {
				return nil, err
			}
			s.setCompression(int(setCompression.Threshold))

		case protocol.S2CLoginPluginRequest:
			request, err := protocol.ParseLoginPluginRequest(packetRdr)
			if err != nil {
				return nil, err
			}
			s.log.Debug("Declining login plugin request", "message_id", request.MessageID, "channel", request.Channel)
			if err := s.writePacket(protocol.CreateLoginPluginResponsePacket(request.MessageID)); err != nil {
				return nil, err
			}

		case protocol.S2CLoginSuccess:
			success, err := protocol.ParseLoginSuccess(packetRdr)
			if err != nil {
				return nil, err
			}
			for _, prop := range success.Properties {
				s.log.Debug("Login property", "name", prop.Name, "value", prop.Value, "signed", prop.Signature != nil)
			}
			s.username = success.Username
			s.state = protocol.Play
			s.log.Info("Login successful", "username", success.Username, "uuid", success.UUID.String())
			s.observer.LoginSucceeded(success)
			return success, nil

		default:
			return nil, fmt.Errorf("%w: 0x%02x in %s state", protocol.ErrUnexpectedPacket, packet.ID, s.state)
		}
	}
}

// setCompression applies a Set Compression threshold; a negative value turns
// compression off.
func (s *Session) setCompression(threshold int) {
	if threshold < 0 {
		s.compression = false
		s.threshold = -1
		s.log.Info("Compression disabled")
		return
	}
	s.compression = true
	s.threshold = threshold
	s.log.Info("Setting compression", "threshold", threshold)
	s.observer.CompressionEnabled(threshold)
}
