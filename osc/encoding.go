package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MaxPacketSize is the largest encoded packet the codec will produce or
// accept, the maximum UDP payload over IPv4.
const MaxPacketSize = 65507

const (
	bit32Size = 4
	bit64Size = 8
)

////
// De/Encoding primitives
////

// padBytesNeeded determines how many NUL bytes are needed to fill up to the
// next 4 byte boundary.
func padBytesNeeded(elementLen int) int {
	return (4 - (elementLen % 4)) % 4
}

// writePaddedString writes str to buf as a NUL-terminated string, padded
// with NUL bytes to a 4 byte boundary. Returns the number of bytes written.
func writePaddedString(str string, buf *bytes.Buffer) int {
	buf.WriteString(str)
	n := len(str) + 1
	pad := padBytesNeeded(n)
	for i := 0; i < pad+1; i++ {
		buf.WriteByte(0)
	}
	return n + pad
}

// readPaddedString reads a NUL-terminated padded string from data and
// returns the string and the total field length consumed, padding included.
func readPaddedString(data []byte) (string, int, error) {
	pos := bytes.IndexByte(data, 0)
	if pos == -1 {
		return "", 0, fmt.Errorf("readPaddedString: missing NUL terminator: %w", ErrDecode)
	}

	n := pos + 1 + padBytesNeeded(pos+1)
	if n > len(data) {
		return "", 0, fmt.Errorf("readPaddedString: field padding truncated: %w", ErrDecode)
	}

	return string(data[:pos]), n, nil
}

// writeBlob writes data as an OSC blob: a big-endian 32-bit length followed
// by the payload, padded with NUL bytes to a 4 byte boundary.
func writeBlob(data []byte, buf *bytes.Buffer) int {
	var l [bit32Size]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(data)))
	buf.Write(l[:])
	buf.Write(data)

	n := bit32Size + len(data)
	pad := padBytesNeeded(n)
	for i := 0; i < pad; i++ {
		buf.WriteByte(0)
	}
	return n + pad
}

// readBlob reads an OSC blob from data and returns the payload and the
// total field length consumed. The declared length is validated against the
// remaining buffer before anything is read.
func readBlob(data []byte) ([]byte, int, error) {
	if len(data) < bit32Size {
		return nil, 0, fmt.Errorf("readBlob: truncated length field: %w", ErrDecode)
	}

	blobLen := int(binary.BigEndian.Uint32(data[:bit32Size]))
	if blobLen < 0 || blobLen > len(data)-bit32Size {
		return nil, 0, fmt.Errorf("readBlob: blob length %d exceeds remaining %d bytes: %w",
			blobLen, len(data)-bit32Size, ErrDecode)
	}

	n := bit32Size + blobLen
	blob := make([]byte, blobLen)
	copy(blob, data[bit32Size:n])

	pad := padBytesNeeded(n)
	if n+pad > len(data) {
		return nil, 0, fmt.Errorf("readBlob: blob padding truncated: %w", ErrDecode)
	}

	return blob, n + pad, nil
}
