package osc

import "errors"

var (
	// ErrDecode is wrapped by every error returned while decoding a
	// malformed packet: missing NUL terminator, type tag string not
	// starting with ',', unknown tag, or a truncated payload.
	ErrDecode = errors.New("invalid OSC packet")

	// ErrInvalidCast is returned by the typed argument accessors when the
	// stored kind does not match the requested one.
	ErrInvalidCast = errors.New("argument kind mismatch")

	// ErrPacketTooLarge is returned when an encoded message would exceed
	// the maximum safe UDP payload size.
	ErrPacketTooLarge = errors.New("packet exceeds maximum size")
)
