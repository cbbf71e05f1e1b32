package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Versifine/mcprobe/internal/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// Summary counts what a play session captured.
type Summary struct {
	Entities       int
	Players        int
	Animations     int
	KeepAlives     int
	UnknownPackets int
	UnknownIDs     int
}

// Play reads packets until the server disconnects, the connection closes or
// ctx is cancelled. A close at a frame boundary ends Play without error.
func (s *Session) Play(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.Play")
	defer span.End()
	stop := s.watch(ctx)
	defer stop()

	err := s.handlePlayState()
	sum := s.Summary()
	span.SetAttributes(
		attribute.Int("mcprobe.entities", sum.Entities),
		attribute.Int("mcprobe.players", sum.Players),
		attribute.Int("mcprobe.unknown_packets", sum.UnknownPackets),
	)
	if err != nil {
		return s.finish(ctx, span, fmt.Errorf("play: %w", err))
	}
	return nil
}

func (s *Session) handlePlayState() error {
	if s.state != protocol.Play {
		return fmt.Errorf("%w: play requires a completed login, state is %s", protocol.ErrInvalidState, s.state)
	}
	s.log.Info("Starting Play", "state", s.state.String())

	for {
		packet, err := s.readPacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info("Server closed connection")
				return nil
			}
			return err
		}
		if err := s.handlePlayPacket(packet); err != nil {
			return err
		}
	}
}

func (s *Session) handlePlayPacket(packet *protocol.Packet) error {
	packetRdr := bytes.NewReader(packet.Payload)

	switch packet.ID {
	case protocol.S2CSpawnEntity:
		entity, err := protocol.ParseSpawnEntity(packetRdr)
		if err != nil {
			return err
		}
		s.Entities = append(s.Entities, *entity)
		s.metrics.EntitySpawned()
		s.log.Debug("Spawn entity", "entity_id", entity.EntityID, "type", entity.TypeName)
		s.observer.EntitySpawned(entity)

	case protocol.S2CSpawnPlayer:
		player, err := protocol.ParseSpawnPlayer(packetRdr)
		if err != nil {
			return err
		}
		s.Players = append(s.Players, *player)
		s.metrics.PlayerSpawned()
		s.log.Debug("Spawn player", "entity_id", player.EntityID, "uuid", player.PlayerUUID.String())
		s.observer.PlayerSpawned(player)

	case protocol.S2CEntityAnimation:
		animation, err := protocol.ParseEntityAnimation(packetRdr)
		if err != nil {
			return err
		}
		s.animations++
		s.observer.EntityAnimated(animation)

	case protocol.S2CPlayKeepAlive:
		keepAlive, err := protocol.ParseKeepAlive(packetRdr)
		if err != nil {
			return err
		}
		s.keepAlives++
		if err := s.writePacket(protocol.CreateKeepAlivePacket(keepAlive.KeepAliveID, protocol.C2SPlayKeepAlive)); err != nil {
			return err
		}

	case protocol.S2CPlayDisconnect:
		disconnect, err := protocol.ParseDisconnect(packetRdr)
		if err != nil {
			return err
		}
		return &protocol.DisconnectError{State: s.state, Reason: disconnect.Reason}

	default:
		s.logUnhandledPlayPacket(packet.ID)
	}
	return nil
}

func (s *Session) logUnhandledPlayPacket(packetID int32) {
	s.unhandledPacketCounts[packetID]++
	count := s.unhandledPacketCounts[packetID]
	s.metrics.UnknownPacket(packetID)

	// Log first sighting of packet ID and then every 100 repeats.
	if count == 1 || count%100 == 0 {
		s.log.Debug("Unhandled packet in Play state", "packet_id", fmt.Sprintf("0x%02x", packetID), "count", count)
	}
	s.observer.UnknownPacket(s.state, packetID, count)
}

func (s *Session) Summary() Summary {
	sum := Summary{
		Entities:   len(s.Entities),
		Players:    len(s.Players),
		Animations: s.animations,
		KeepAlives: s.keepAlives,
		UnknownIDs: len(s.unhandledPacketCounts),
	}
	for _, n := range s.unhandledPacketCounts {
		sum.UnknownPackets += n
	}
	return sum
}
