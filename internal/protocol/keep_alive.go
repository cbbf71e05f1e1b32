package protocol

import (
	"bytes"
	"io"
)

// KeepAlive carries the server's opaque ID, which the client must echo back
// unchanged.
type KeepAlive struct {
	KeepAliveID int64
}

// CreateKeepAlivePacket builds a keep-alive reply. The payload layout is the
// same in both directions, so packetID picks which ID it is sent under:
// C2SPlayKeepAlive when echoing S2CPlayKeepAlive.
func CreateKeepAlivePacket(keepAliveID int64, packetID int32) *Packet {
	buf := new(bytes.Buffer)
	_ = WriteInt64(buf, keepAliveID)
	return &Packet{
		ID:      packetID,
		Payload: buf.Bytes(),
	}
}

func ParseKeepAlive(r io.Reader) (*KeepAlive, error) {
	keepAliveID, err := ReadInt64(r)
	if err != nil {
		return nil, fieldErr("keep alive", "id", err)
	}
	return &KeepAlive{
		KeepAliveID: keepAliveID,
	}, nil
}
