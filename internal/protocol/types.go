package protocol

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxStringLength is the protocol's limit on string length in characters.
	MaxStringLength = 32767
	// MaxStringBytes bounds the encoded byte length of a string (up to 3 bytes per UTF-16 unit).
	MaxStringBytes = MaxStringLength * 3

	// MaxUsernameLength is the limit for the Login Start name field.
	MaxUsernameLength = 16
)

// ReadString reads a VarInt-length-prefixed UTF-8 string. Invalid sequences
// are replaced with U+FFFD and NUL bytes are dropped.
//
// An empty reader fails with ErrEmptyInput; a reader that ends inside the
// string fails with ErrMalformedField wrapping io.ErrUnexpectedEOF.
func ReadString(r io.Reader) (string, error) {
	length, err := ReadVarint(r)
	switch {
	case err == io.EOF:
		return "", ErrEmptyInput
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "", shortString("string length is truncated")
	case err != nil:
		return "", err
	}
	if err := checkStringLength(length); err != nil {
		return "", err
	}
	strBytes := make([]byte, length)
	if n, err := io.ReadFull(r, strBytes); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", shortString(fmt.Sprintf("string declares %d bytes, %d available", length, n))
		}
		return "", err
	}
	return cleanString(strBytes), nil
}

// DecodeString is the byte-slice form of ReadString. It reports how many
// bytes of b the string occupied, prefix included.
func DecodeString(b []byte) (string, int, error) {
	length, n, err := DecodeVarint(b)
	if err != nil {
		return "", 0, err
	}
	if err := checkStringLength(length); err != nil {
		return "", 0, err
	}
	end := n + int(length)
	if end > len(b) {
		return "", 0, shortString(fmt.Sprintf("string declares %d bytes, %d available", length, len(b)-n))
	}
	return cleanString(b[n:end]), end, nil
}

func checkStringLength(length int32) error {
	if length < 0 {
		return ErrNegativeLength
	}
	if length > MaxStringBytes {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, length)
	}
	return nil
}

func shortString(msg string) error {
	return fmt.Errorf("%s: %w", msg, errors.Join(ErrMalformedField, io.ErrUnexpectedEOF))
}

func cleanString(b []byte) string {
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return strings.ReplaceAll(s, "\x00", "")
}

func WriteString(w io.Writer, s string) error {
	err := WriteVarint(w, int32(len(s)))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// ValidateUsername checks the Login Start name constraint.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrInvalidUsername
	}
	if n := utf8.RuneCountInString(name); n > MaxUsernameLength {
		return fmt.Errorf("%w: %q has %d characters", ErrUsernameTooLong, name, n)
	}
	return nil
}

func ReadUnsignedShort(r io.Reader) (uint16, error) {
	var buf [2]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func ReadInt16(r io.Reader) (int16, error) {
	v, err := ReadUnsignedShort(r)
	return int16(v), err
}

func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func ReadDouble(r io.Reader) (float64, error) {
	v, err := ReadInt64(r)
	return math.Float64frombits(uint64(v)), err
}

func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

// ReadAngle reads a single-byte rotation (1/256 of a turn).
func ReadAngle(r io.Reader) (int8, error) {
	b, err := ReadByte(r)
	return int8(b), err
}

func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadByte(r)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var id uuid.UUID
	_, err := io.ReadFull(r, id[:])
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func WriteUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

func WriteUnsignedShort(w io.Writer, value uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], value)
	_, err := w.Write(buf[:])
	return err
}

func WriteInt16(w io.Writer, value int16) error {
	return WriteUnsignedShort(w, uint16(value))
}

func WriteBool(w io.Writer, value bool) error {
	var b byte
	if value {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func WriteInt64(w io.Writer, value int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(value))
	_, err := w.Write(buf[:])
	return err
}

func WriteDouble(w io.Writer, value float64) error {
	return WriteInt64(w, int64(math.Float64bits(value)))
}

// OfflineUUID derives the UUID an offline-mode server assigns to username:
// MD5("OfflinePlayer:" + username) with version 3 and the RFC 4122 variant.
func OfflineUUID(username string) uuid.UUID {
	hash := md5.Sum([]byte("OfflinePlayer:" + username))
	hash[6] = (hash[6] & 0x0F) | 0x30
	hash[8] = (hash[8] & 0x3F) | 0x80
	return uuid.UUID(hash)
}
