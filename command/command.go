// Package command implements the per-operation state machines (spec §4.7):
// download, erase, and set-time. Each is a small tagged-union member behind
// the Command interface, replacing the reference implementation's
// base-class/subclass polymorphism with concrete Go types, per spec §9.
package command

import (
	"errors"

	"github.com/viiiiva/vivian/wire"
)

// Command ids, host -> device, and their device -> host counterparts.
const (
	DownloadCmd   uint16 = 0x010B
	DownloadReply uint16 = 0x030B
	EraseCmd      uint16 = 0x040B
	EraseReply    uint16 = 0x050B
	SetClockCmd   uint16 = 0x0108
)

var (
	// ErrUnexpected marks a packet that arrived with no corresponding
	// pending exchange, or that violates a protocol expectation not tied
	// to payload contents (wrong sender/receiver, wrong command id).
	ErrUnexpected = errors.New("command: unexpected packet")
	// ErrBadPayload marks a packet that matched a pending exchange but
	// failed variant-specific payload validation.
	ErrBadPayload = errors.New("command: bad payload")
)

// Command is the shared interface every operation's state machine
// implements. At most one Command is active in the engine at a time
// (spec §3, "command slot").
type Command interface {
	// MakePacket returns the outbound command packet to send when the
	// operation is first dispatched.
	MakePacket() wire.Packet
	// ReadPacket routes an inbound packet to this command's state
	// machine. A non-nil error means the packet was rejected; the slot
	// is not cleared as a result (the device may resend).
	ReadPacket(p wire.Packet) error
	// Terminal reports whether the command has reached a terminal state.
	// Unlike MaybeFinish, it is a pure predicate: it never fires the
	// completion callback. The engine uses it to order the reply-ack
	// write ahead of the completion callback on the terminal transition.
	Terminal() bool
	// MaybeFinish reports whether the command has reached a terminal
	// state. As a side effect, the first call that observes the
	// terminal condition invokes the command's completion callback.
	MaybeFinish() bool
	// ShouldAckReply reports whether the engine must send an outbound
	// reply-ack packet after this command goes terminal.
	ShouldAckReply() bool
	// MakeReplyAckPacket returns the reply-ack packet. Only valid when
	// ShouldAckReply returns true.
	MakeReplyAckPacket() wire.Packet
}

// ackSkeleton is the shared "awaiting-ack -> awaiting-reply" bookkeeping
// used by download and erase (spec §4.7's common ack-then-reply skeleton).
type ackSkeleton struct {
	hasAck bool
}

// acceptAck validates that p is the device's acknowledgement of cmd. It
// does not itself flip hasAck; callers do that once any variant-specific
// payload checks also pass.
func acceptAck(p wire.Packet, cmd uint16) error {
	if !p.IsFromDevice() {
		return ErrUnexpected
	}
	if p.CommandID != wire.Ack(cmd) {
		return ErrUnexpected
	}
	return nil
}
