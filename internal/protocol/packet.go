package protocol

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

const MaxPacketSize = 2097152 // 2MB

type Packet struct {
	ID      int32
	Payload []byte
}

// Len is the uncompressed size of the packet: ID plus payload.
func (p *Packet) Len() int {
	return VarintLen(p.ID) + len(p.Payload)
}

// ReadPacket reads one frame from r, strips compression when threshold >= 0
// and splits off the packet ID.
func ReadPacket(r io.Reader, threshold int) (*Packet, error) {
	frame, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	body, err := UnwrapCompression(frame, threshold)
	if err != nil {
		return nil, err
	}
	return SplitPacket(body)
}

// ReadFrame reads the outer length prefix and then exactly that many bytes.
// Short reads are retried until the frame is complete or the stream fails.
func ReadFrame(r io.Reader) ([]byte, error) {
	// 1. Read Packet Length
	packetLen, err := ReadVarint(r)
	if err != nil {
		if errors.Is(err, ErrFraming) {
			return nil, fmt.Errorf("read frame length: %w", err)
		}
		return nil, transportErr("read frame length", err)
	}

	if packetLen <= 0 {
		return nil, fmt.Errorf("%w: frame length %d", ErrInvalidPacket, packetLen)
	}
	if packetLen > MaxPacketSize {
		return nil, fmt.Errorf("%w: frame length %d", ErrPacketTooLarge, packetLen)
	}

	// 2. Read entire packet data
	data := make([]byte, packetLen)
	if n, err := io.ReadFull(r, data); err != nil {
		// io.EOF is reserved for a close at a frame boundary.
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, transportErr(fmt.Sprintf("read frame body (expected %d bytes, got %d)", packetLen, n), err)
	}
	return data, nil
}

// UnwrapCompression returns the [ID][Payload] bytes of a frame. With
// compression inactive (threshold < 0) the frame is returned as is.
func UnwrapCompression(frame []byte, threshold int) ([]byte, error) {
	if threshold < 0 {
		return frame, nil
	}

	dataLen, n, err := DecodeVarint(frame)
	if err != nil {
		return nil, fmt.Errorf("read data length: %w", err)
	}
	rest := frame[n:]

	// data length 0: the remaining data is uncompressed [ID] [Payload]
	if dataLen == 0 {
		return rest, nil
	}
	if dataLen < 0 {
		return nil, fmt.Errorf("%w: data length %d", ErrInvalidPacket, dataLen)
	}
	if dataLen > MaxPacketSize {
		return nil, fmt.Errorf("%w: data length %d", ErrPacketTooLarge, dataLen)
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: expected %d bytes, got 0", ErrDecompressedSize, dataLen)
	}

	z, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPacket, err)
	}
	defer z.Close()

	// Read one byte past the declared size so an oversized stream is caught
	// instead of truncated.
	decompressed, err := io.ReadAll(io.LimitReader(z, int64(dataLen)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPacket, err)
	}
	if len(decompressed) != int(dataLen) {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrDecompressedSize, dataLen, len(decompressed))
	}
	return decompressed, nil
}

// SplitPacket parses the leading packet ID of an uncompressed body.
func SplitPacket(body []byte) (*Packet, error) {
	id, n, err := DecodeVarint(body)
	if err != nil {
		return nil, fmt.Errorf("read packet id: %w", err)
	}
	return &Packet{
		ID:      id,
		Payload: body[n:],
	}, nil
}

// EncodePacket builds the complete wire frame for packet. threshold < 0 means
// compression is off; otherwise bodies of at least threshold bytes are
// zlib-compressed and shorter ones are sent with a data length of 0.
func EncodePacket(packet *Packet, threshold int) ([]byte, error) {
	// 1. Prepare raw [ID] [Payload]
	uncompressedLen := packet.Len()
	raw := make([]byte, 0, uncompressedLen)
	raw = AppendVarint(raw, packet.ID)
	raw = append(raw, packet.Payload...)

	if threshold < 0 {
		// Format: [Length] [ID] [Payload]
		frame := make([]byte, 0, MaxVarintLen+len(raw))
		frame = AppendVarint(frame, int32(len(raw)))
		return append(frame, raw...), nil
	}

	// Format: [Packet Length] [Data Length] [Data]
	var dataLength int32 // 0 means uncompressed
	packetData := raw
	if uncompressedLen >= threshold {
		var buf bytes.Buffer
		z := zlib.NewWriter(&buf)
		if _, err := z.Write(raw); err != nil {
			return nil, err
		}
		if err := z.Close(); err != nil {
			return nil, err
		}
		packetData = buf.Bytes()
		dataLength = int32(uncompressedLen)
	}

	totalLen := VarintLen(dataLength) + len(packetData)
	frame := make([]byte, 0, MaxVarintLen+totalLen)
	frame = AppendVarint(frame, int32(totalLen))
	frame = AppendVarint(frame, dataLength)
	return append(frame, packetData...), nil
}

// WritePacket encodes packet and writes the frame with a single Write call.
func WritePacket(w io.Writer, packet *Packet, threshold int) error {
	frame, err := EncodePacket(packet, threshold)
	if err != nil {
		return fmt.Errorf("encode packet 0x%02x: %w", packet.ID, err)
	}
	if err := WriteFrame(w, frame); err != nil {
		return fmt.Errorf("write packet 0x%02x: %w", packet.ID, err)
	}
	return nil
}

// WriteFrame writes an encoded frame. Anything short of the full frame is a
// transport error.
func WriteFrame(w io.Writer, frame []byte) error {
	n, err := w.Write(frame)
	if err != nil {
		return transportErr("write frame", err)
	}
	if n != len(frame) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(frame))
	}
	return nil
}
