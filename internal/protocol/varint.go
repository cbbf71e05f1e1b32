package protocol

import (
	"errors"
	"io"
)

const (
	SEGMENT_BITS = 0x7F
	CONTINUE_BIT = 0x80

	// MaxVarintLen is the longest encoding of a 32-bit VarInt.
	MaxVarintLen = 5
)

// ReadVarint reads one VarInt from r, one byte at a time.
//
// An empty reader yields io.EOF untouched so callers can tell a closed stream
// from a broken one; EOF after the first byte becomes io.ErrUnexpectedEOF.
func ReadVarint(r io.Reader) (value int32, err error) {
	var (
		uvalue uint32
		b      [1]byte
	)
	for n := 0; n < MaxVarintLen; n++ {
		if br, ok := r.(io.ByteReader); ok {
			b[0], err = br.ReadByte()
		} else {
			_, err = io.ReadFull(r, b[:])
		}
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		uvalue |= uint32(b[0]&SEGMENT_BITS) << (7 * n)
		if b[0]&CONTINUE_BIT == 0 {
			return int32(uvalue), nil
		}
	}
	return 0, ErrVarIntTooLong
}

// DecodeVarint decodes a VarInt from the front of b and reports how many bytes
// it used.
func DecodeVarint(b []byte) (value int32, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrEmptyInput
	}
	var uvalue uint32
	for n < MaxVarintLen {
		if n >= len(b) {
			return 0, n, ErrVarIntTruncated
		}
		c := b[n]
		uvalue |= uint32(c&SEGMENT_BITS) << (7 * n)
		n++
		if c&CONTINUE_BIT == 0 {
			return int32(uvalue), n, nil
		}
	}
	return 0, n, ErrVarIntTooLong
}

func WriteVarint(w io.Writer, value int32) (err error) {
	var buf [MaxVarintLen]byte
	_, err = w.Write(AppendVarint(buf[:0], value))
	return
}

// AppendVarint appends the encoding of value to dst.
func AppendVarint(dst []byte, value int32) []byte {
	uvalue := uint32(value)
	for {
		temp := byte(uvalue & SEGMENT_BITS)
		uvalue >>= 7
		if uvalue != 0 {
			temp |= CONTINUE_BIT
		}
		dst = append(dst, temp)
		if uvalue == 0 {
			return dst
		}
	}
}

// VarintLen returns the number of bytes WriteVarint emits for value.
func VarintLen(value int32) int {
	uvalue := uint32(value)
	count := 1
	for uvalue >= CONTINUE_BIT {
		uvalue >>= 7
		count++
	}
	return count
}
