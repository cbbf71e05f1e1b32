package protocol

import (
	"bytes"
	"fmt"
	"io"
)

type HandShake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

// CreateHandshakePacket builds the handshake that opens every connection.
func CreateHandshakePacket(protocolVersion int32, serverAddress string, serverPort uint16, nextState NextState) (*Packet, error) {
	if !nextState.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNextState, nextState)
	}
	buf := new(bytes.Buffer)
	_ = WriteVarint(buf, protocolVersion)
	_ = WriteString(buf, serverAddress)
	_ = WriteUnsignedShort(buf, serverPort)
	_ = WriteVarint(buf, int32(nextState))
	return &Packet{
		ID:      C2SHandshake,
		Payload: buf.Bytes(),
	}, nil
}

// ParseHandShake decodes a serverbound handshake; used by test servers.
func ParseHandShake(r io.Reader) (*HandShake, error) {
	protocolVersion, err := ReadVarint(r)
	if err != nil {
		return nil, fieldErr("handshake", "protocol version", err)
	}
	serverAddress, err := ReadString(r)
	if err != nil {
		return nil, fieldErr("handshake", "server address", err)
	}
	serverPort, err := ReadUnsignedShort(r)
	if err != nil {
		return nil, fieldErr("handshake", "server port", err)
	}
	nextState, err := ReadVarint(r)
	if err != nil {
		return nil, fieldErr("handshake", "next state", err)
	}

	return &HandShake{
		ProtocolVersion: protocolVersion,
		ServerAddress:   serverAddress,
		ServerPort:      serverPort,
		NextState:       NextState(nextState),
	}, nil
}
