package protocol

import (
	"bytes"
	"io"
)

type LoginStart struct {
	Username string
	HasUUID  bool
}

// CreateLoginStartPacket validates username and builds Login Start without a
// player UUID.
func CreateLoginStartPacket(username string) (*Packet, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	_ = WriteString(buf, username)
	_ = WriteBool(buf, false) // no UUID provided
	return &Packet{
		ID:      C2SLoginStart,
		Payload: buf.Bytes(),
	}, nil
}

func ParseLoginStart(r io.Reader) (*LoginStart, error) {
	username, err := ReadString(r)
	if err != nil {
		return nil, fieldErr("login start", "username", err)
	}
	hasUUID, err := ReadBool(r)
	if err != nil {
		return nil, fieldErr("login start", "has uuid", err)
	}
	return &LoginStart{
		Username: username,
		HasUUID:  hasUUID,
	}, nil
}

// Disconnect is sent by the server in Login or Play; Reason is a JSON text component.
type Disconnect struct {
	Reason string
}

func ParseDisconnect(r io.Reader) (*Disconnect, error) {
	reason, err := ReadString(r)
	if err != nil {
		return nil, fieldErr("disconnect", "reason", err)
	}
	return &Disconnect{Reason: reason}, nil
}

type SetCompression struct {
	Threshold int32
}

func ParseSetCompression(r io.Reader) (*SetCompression, error) {
	threshold, err := ReadVarint(r)
	if err != nil {
		return nil, fieldErr("set compression", "threshold", err)
	}
	return &SetCompression{Threshold: threshold}, nil
}

type LoginPluginRequest struct {
	MessageID int32
	Channel   string
	Data      []byte
}

func ParseLoginPluginRequest(r io.Reader) (*LoginPluginRequest, error) {
	messageID, err := ReadVarint(r)
	if err != nil {
		return nil, fieldErr("login plugin request", "message id", err)
	}
	channel, err := ReadString(r)
	if err != nil {
		return nil, fieldErr("login plugin request", "channel", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fieldErr("login plugin request", "data", err)
	}
	return &LoginPluginRequest{
		MessageID: messageID,
		Channel:   channel,
		Data:      data,
	}, nil
}

// CreateLoginPluginResponsePacket answers a plugin request as not understood.
func CreateLoginPluginResponsePacket(messageID int32) *Packet {
	buf := new(bytes.Buffer)
	_ = WriteVarint(buf, messageID)
	_ = WriteBool(buf, false)
	return &Packet{
		ID:      C2SLoginPluginResponse,
		Payload: buf.Bytes(),
	}
}
