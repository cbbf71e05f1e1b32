package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	ErrTransport        = errors.New("transport error")
	ErrFraming          = errors.New("framing error")
	ErrProtocol         = errors.New("protocol violation")
	ErrServerDisconnect = errors.New("server disconnect")
)

var (
	ErrEmptyInput       = kindError(ErrFraming, "varint decode from empty input")
	ErrVarIntTooLong    = kindError(ErrFraming, "varint is too long")
	ErrVarIntTruncated  = kindError(ErrFraming, "varint is truncated")
	ErrPacketTooLarge   = kindError(ErrFraming, "packet size exceeds maximum allowed")
	ErrInvalidPacket    = kindError(ErrFraming, "invalid packet structure")
	ErrDecompressedSize = kindError(ErrFraming, "decompressed size does not match declared data length")

	ErrShortWrite = kindError(ErrTransport, "short write")

	ErrInvalidNextState      = kindError(ErrProtocol, "handshake next state must be status or login")
	ErrUsernameTooLong       = kindError(ErrProtocol, "username longer than 16 characters")
	ErrInvalidUsername       = kindError(ErrProtocol, "username must not be empty")
	ErrEncryptionUnsupported = kindError(ErrProtocol, "server requested encryption (online mode), which is not supported")
	ErrUnexpectedPacket      = kindError(ErrProtocol, "unexpected packet")
	ErrInvalidState          = kindError(ErrProtocol, "operation not allowed in current state")
	ErrInvalidPingPayload    = kindError(ErrProtocol, "ping response must carry exactly 8 bytes")
	ErrStringTooLong         = kindError(ErrProtocol, "string length exceeds maximum allowed")
	ErrNegativeLength        = kindError(ErrProtocol, "negative length")
	ErrMalformedField        = kindError(ErrProtocol, "malformed field")
)

// kindedError is a sentinel that also matches its kind.
type kindedError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &kindedError{kind: kind, msg: msg}
}

func (e *kindedError) Error() string { return e.msg }

func (e *kindedError) Unwrap() error { return e.kind }

// DisconnectError is returned when the server closes the session with an
// explicit disconnect packet.
type DisconnectError struct {
	State  State
	Reason string // JSON text component
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnected by server during %s: %s", e.State, e.Reason)
}

func (e *DisconnectError) Unwrap() error { return ErrServerDisconnect }

// transportErr marks an I/O failure as a transport error while keeping the
// original cause matchable (io.EOF, net.ErrClosed, ...).
func transportErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrTransport, err))
}

// fieldErr wraps a failure to decode a named field of a packet. A payload
// that ends before the field starts is a malformed field.
func fieldErr(packet, field string, err error) error {
	if errors.Is(err, ErrEmptyInput) {
		err = io.ErrUnexpectedEOF
	}
	if errors.Is(err, ErrFraming) || errors.Is(err, ErrProtocol) {
		return fmt.Errorf("%s: read %s: %w", packet, field, err)
	}
	return fmt.Errorf("%s: read %s: %w", packet, field, errors.Join(ErrMalformedField, err))
}
