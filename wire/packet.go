// Package wire implements the Vivian packet codec: the 6-to-20-byte frame
// described in spec §3/§4.3, plus the little-endian field codec in endian.go.
package wire

import (
	"errors"
	"fmt"

	"github.com/viiiiva/vivian/crc"
)

// Sender/receiver roles, fixed by the protocol.
const (
	RoleHost   uint8 = 3
	RoleDevice uint8 = 1
)

// Sequence numbers. 1..6 cycle through a burst, 7 is the terminal marker
// (and the seqno used for all single-shot command packets), 0 is
// uninitialized. 8 is a reserved in-memory sentinel that must never be
// serialized.
const (
	SeqnoUninitialized uint8 = 0
	SeqnoTerminal      uint8 = 7
	SeqnoInvalid       uint8 = 8
)

// AckBit is set by the device in the command id of every acknowledgement.
const AckBit uint16 = 0x8000

// Ack returns the acknowledgement command id for a host->device command id.
func Ack(cmd uint16) uint16 {
	return cmd | AckBit
}

// MaxPayloadLength is the largest payload a single packet can carry.
const MaxPayloadLength = 14

// HeaderLength is the number of bytes preceding the payload.
const HeaderLength = 6

var (
	// ErrBadLength is returned by Parse when the buffer length is outside
	// [6, 20] or inconsistent with its own payload_length field.
	ErrBadLength = errors.New("wire: bad packet length")
	// ErrBadCRC is returned by Parse when the 5-bit CRC does not match.
	ErrBadCRC = errors.New("wire: bad packet crc")
)

// Packet is a decoded Vivian frame (spec §3). Payload always has exactly
// PayloadLength bytes; it is never padded with the trailing zero bytes a
// wire buffer might carry.
type Packet struct {
	Seqno         uint8
	PayloadLength uint8
	Sender        uint8
	Receiver      uint8
	CommandID     uint16
	Payload       []byte
}

// Build assembles a host-originated packet. seqno must be 0..7 and payload
// must be at most MaxPayloadLength bytes; violating either is a programmer
// error and panics, per spec §4.3/§7 (never surfaced via the result
// callback).
func Build(seqno uint8, cmd uint16, payload []byte) Packet {
	if seqno > SeqnoTerminal {
		panic(fmt.Sprintf("wire: seqno %d out of range", seqno))
	}
	if len(payload) > MaxPayloadLength {
		panic(fmt.Sprintf("wire: payload length %d exceeds maximum", len(payload)))
	}
	p := Packet{
		Seqno:         seqno,
		PayloadLength: uint8(len(payload)),
		Sender:        RoleHost,
		Receiver:      RoleDevice,
		CommandID:     cmd,
	}
	if len(payload) > 0 {
		p.Payload = append([]byte(nil), payload...)
	}
	return p
}

// BuildAck builds the single-shot acknowledgement packet for cmd.
func BuildAck(cmd uint16) Packet {
	return Build(SeqnoTerminal, Ack(cmd), nil)
}

// Serialize renders p as wire bytes, Length(p) bytes long.
func (p Packet) Serialize() []byte {
	buf := make([]byte, HeaderLength+int(p.PayloadLength))
	buf[1] = p.PayloadLength
	buf[2] = p.Sender
	buf[3] = p.Receiver
	PutUint16(buf, 4, p.CommandID)
	copy(buf[6:], p.Payload)
	c := crc.Checksum(buf[1:]) & 0x1F
	buf[0] = (p.Seqno << 5) | c
	return buf
}

// Parse decodes a wire buffer into a Packet, validating length and CRC.
func Parse(buf []byte) (Packet, error) {
	if len(buf) < HeaderLength || len(buf) > HeaderLength+MaxPayloadLength {
		return Packet{}, ErrBadLength
	}
	payloadLength := buf[1]
	if len(buf) != HeaderLength+int(payloadLength) {
		return Packet{}, ErrBadLength
	}
	want := crc.Checksum(buf[1:]) & 0x1F
	got := buf[0] & 0x1F
	if got != want {
		return Packet{}, ErrBadCRC
	}
	p := Packet{
		Seqno:         buf[0] >> 5,
		PayloadLength: payloadLength,
		Sender:        buf[2],
		Receiver:      buf[3],
		CommandID:     Uint16(buf, 4),
	}
	if payloadLength > 0 {
		p.Payload = append([]byte(nil), buf[6:6+payloadLength]...)
	}
	return p, nil
}

// Length returns the total serialized length of p.
func (p Packet) Length() int {
	return HeaderLength + int(p.PayloadLength)
}

// IsFromDevice reports whether p originated from the device.
func (p Packet) IsFromDevice() bool {
	return p.Sender == RoleDevice && p.Receiver == RoleHost
}

// IsFromHost reports whether p originated from the host.
func (p Packet) IsFromHost() bool {
	return p.Sender == RoleHost && p.Receiver == RoleDevice
}

// NextSeqno advances a burst sequence number: 1..6 cycle, wrapping 6 -> 1.
func NextSeqno(s uint8) uint8 {
	return (s % 6) + 1
}

// SeqnoMatches reports whether observed satisfies expected: either an exact
// match, or the terminal marker 7, which always matches.
func SeqnoMatches(observed, expected uint8) bool {
	return observed == expected || observed == SeqnoTerminal
}
