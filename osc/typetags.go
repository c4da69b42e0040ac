package osc

// TypeTag is a single character in an encoded message describing the wire
// type of one argument.
type TypeTag byte

const (
	TypeInt32   TypeTag = 'i'
	TypeFloat32 TypeTag = 'f'
	TypeString  TypeTag = 's'
	TypeTrue    TypeTag = 'T'
	TypeFalse   TypeTag = 'F'
	TypeFloat64 TypeTag = 'd'
	TypeInt64   TypeTag = 'h'
	TypeBlob    TypeTag = 'b'
	TypeInvalid TypeTag = 0
)

// TypeTags returns the type tag string for the message, starting with ','.
// Tags are recomputed from the argument list at every call, never stored.
func (m *Message) TypeTags() string {
	tags := make([]byte, 0, len(m.Arguments)+1)
	tags = append(tags, ',')
	for _, a := range m.Arguments {
		tags = append(tags, byte(a.TypeTag()))
	}
	return string(tags)
}
