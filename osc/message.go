package osc

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// Message represents a single OSC message: an address pattern and zero or
// more typed arguments. Timestamp records when the message was built or
// decoded; it is informational only and never transmitted.
type Message struct {
	Address   string
	Arguments []Argument
	Timestamp time.Time
}

var (
	_ encoding.BinaryMarshaler   = (*Message)(nil)
	_ encoding.BinaryUnmarshaler = (*Message)(nil)
)

// NewMessage returns a new Message for the given OSC address. Arguments are
// converted with Arg, so unsupported Go types arrive as strings.
func NewMessage(addr string, args ...interface{}) *Message {
	m := &Message{Address: addr, Timestamp: time.Now()}
	m.Append(args...)
	return m
}

// Append appends the given arguments to the argument list. No wire
// validation happens here; the kind of each argument is fixed by Arg.
func (m *Message) Append(args ...interface{}) {
	for _, a := range args {
		m.Arguments = append(m.Arguments, Arg(a))
	}
}

// CountArguments returns the number of arguments.
func (m *Message) CountArguments() int {
	return len(m.Arguments)
}

// ArgumentAt returns the i-th argument.
func (m *Message) ArgumentAt(i int) (Argument, error) {
	if i < 0 || i >= len(m.Arguments) {
		return Argument{}, fmt.Errorf("ArgumentAt: index %d out of range [0,%d)", i, len(m.Arguments))
	}
	return m.Arguments[i], nil
}

// String implements fmt.Stringer. The rendering is for diagnostics only and
// has nothing to do with the wire format.
func (m *Message) String() string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.Address)
	for i, a := range m.Arguments {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	return sb.String()
}

// MarshalBinary serializes the message to the OSC 1.0 wire format:
// 1. OSC Address Pattern
// 2. OSC Type Tag String
// 3. OSC Arguments
// All strings and blobs are NUL padded to 4 byte boundaries and all numeric
// payloads are big-endian.
func (m *Message) MarshalBinary() ([]byte, error) {
	data := new(bytes.Buffer)
	if err := m.marshal(data); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

func (m *Message) marshal(data *bytes.Buffer) error {
	writePaddedString(m.Address, data)
	writePaddedString(m.TypeTags(), data)

	var scratch [bit64Size]byte
	for _, arg := range m.Arguments {
		switch arg.kind {
		case KindInt32:
			binary.BigEndian.PutUint32(scratch[:bit32Size], uint32(arg.num))
			data.Write(scratch[:bit32Size])
		case KindFloat32:
			binary.BigEndian.PutUint32(scratch[:bit32Size], uint32(arg.num))
			data.Write(scratch[:bit32Size])
		case KindInt64, KindFloat64:
			binary.BigEndian.PutUint64(scratch[:], arg.num)
			data.Write(scratch[:])
		case KindString:
			writePaddedString(arg.str, data)
		case KindBlob:
			writeBlob(arg.blob, data)
		case KindBool:
			// Payload-free, the type tag carries the value.
		}
	}

	if data.Len() > MaxPacketSize {
		return fmt.Errorf("marshal: encoded size %d: %w", data.Len(), ErrPacketTooLarge)
	}
	return nil
}

// UnmarshalBinary decodes an OSC message from data. It never reads past the
// supplied buffer; truncated or inconsistent input fails with an error
// wrapping ErrDecode. The message timestamp is set to the decode time.
func (m *Message) UnmarshalBinary(data []byte) error {
	addr, n, err := readPaddedString(data)
	if err != nil {
		return fmt.Errorf("UnmarshalBinary: address: %w", err)
	}
	data = data[n:]

	typetags, n, err := readPaddedString(data)
	if err != nil {
		return fmt.Errorf("UnmarshalBinary: type tags: %w", err)
	}
	data = data[n:]

	args, err := readArguments(typetags, data)
	if err != nil {
		return fmt.Errorf("UnmarshalBinary: %w", err)
	}

	m.Address = addr
	m.Arguments = args
	m.Timestamp = time.Now()
	return nil
}

// readArguments decodes the payload section according to the type tag
// string.
func readArguments(typetags string, data []byte) ([]Argument, error) {
	if len(typetags) == 0 || typetags[0] != ',' {
		return nil, fmt.Errorf("readArguments: type tag string %q does not start with ',': %w", typetags, ErrDecode)
	}

	args := make([]Argument, 0, len(typetags)-1)
	for _, c := range typetags[1:] {
		switch TypeTag(c) {
		default:
			return nil, fmt.Errorf("readArguments: unsupported type tag %q: %w", c, ErrDecode)

		case TypeInt32:
			if len(data) < bit32Size {
				return nil, fmt.Errorf("readArguments: truncated int32: %w", ErrDecode)
			}
			args = append(args, Int32(int32(binary.BigEndian.Uint32(data))))
			data = data[bit32Size:]

		case TypeFloat32:
			if len(data) < bit32Size {
				return nil, fmt.Errorf("readArguments: truncated float32: %w", ErrDecode)
			}
			args = append(args, Float32(math.Float32frombits(binary.BigEndian.Uint32(data))))
			data = data[bit32Size:]

		case TypeInt64:
			if len(data) < bit64Size {
				return nil, fmt.Errorf("readArguments: truncated int64: %w", ErrDecode)
			}
			args = append(args, Int64(int64(binary.BigEndian.Uint64(data))))
			data = data[bit64Size:]

		case TypeFloat64:
			if len(data) < bit64Size {
				return nil, fmt.Errorf("readArguments: truncated float64: %w", ErrDecode)
			}
			args = append(args, Float64(math.Float64frombits(binary.BigEndian.Uint64(data))))
			data = data[bit64Size:]

		case TypeString:
			str, n, err := readPaddedString(data)
			if err != nil {
				return nil, fmt.Errorf("readArguments: %w", err)
			}
			args = append(args, String(str))
			data = data[n:]

		case TypeBlob:
			blob, n, err := readBlob(data)
			if err != nil {
				return nil, fmt.Errorf("readArguments: %w", err)
			}
			args = append(args, Blob(blob))
			data = data[n:]

		case TypeTrue:
			args = append(args, Bool(true))

		case TypeFalse:
			args = append(args, Bool(false))
		}
	}

	return args, nil
}
