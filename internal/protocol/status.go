package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// StatusResponse carries the server list JSON document verbatim.
type StatusResponse struct {
	JSON string
}

// PingResponse is the decoded pong: the timestamp the client sent and how
// long the round trip took, in whole seconds.
type PingResponse struct {
	Sent    time.Time
	Elapsed time.Duration
}

func (p *PingResponse) String() string {
	secs := int64(p.Elapsed / time.Second)
	if secs == 0 {
		return "ping <1 second"
	}
	return fmt.Sprintf("ping: %d seconds", secs)
}

func CreateStatusRequestPacket() *Packet {
	return &Packet{ID: C2SStatusRequest}
}

// CreatePingRequestPacket embeds now as Unix seconds, big-endian.
func CreatePingRequestPacket(now time.Time) *Packet {
	buf := new(bytes.Buffer)
	_ = WriteInt64(buf, now.Unix())
	return &Packet{
		ID:      C2SPingRequest,
		Payload: buf.Bytes(),
	}
}

func ParseStatusResponse(r io.Reader) (*StatusResponse, error) {
	json, err := ReadString(r)
	if err != nil {
		return nil, fieldErr("status response", "json", err)
	}
	return &StatusResponse{JSON: json}, nil
}

// ParsePingResponse decodes the echoed timestamp and measures it against now.
func ParsePingResponse(payload []byte, now time.Time) (*PingResponse, error) {
	if len(payload) != 8 {
		return nil, fmt.Errorf("%w: expected 8, received %d", ErrInvalidPingPayload, len(payload))
	}
	sentSecs := int64(binary.BigEndian.Uint64(payload))
	elapsed := time.Duration(now.Unix()-sentSecs) * time.Second
	if elapsed < 0 {
		elapsed = 0
	}
	return &PingResponse{
		Sent:    time.Unix(sentSecs, 0),
		Elapsed: elapsed,
	}, nil
}
