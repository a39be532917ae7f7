package command

import "github.com/viiiiva/vivian/wire"

// Erase implements the erase-file operation (spec §4.7.2). Unlike download,
// the device's reply requires a host-sent reply-ack to close the exchange.
type Erase struct {
	ackSkeleton
	index    uint16
	hasReply bool
	success  bool
	finished bool
	onFinish func(index uint16, success bool)
}

func NewErase(index uint16, onFinish func(index uint16, success bool)) *Erase {
	return &Erase{index: index, onFinish: onFinish}
}

func (e *Erase) MakePacket() wire.Packet {
	payload := make([]byte, 2)
	wire.PutUint16(payload, 0, e.index)
	return wire.Build(wire.SeqnoTerminal, EraseCmd, payload)
}

func (e *Erase) ReadPacket(p wire.Packet) error {
	if !e.hasAck {
		if err := acceptAck(p, EraseCmd); err != nil {
			return err
		}
		e.hasAck = true
		return nil
	}
	if e.hasReply {
		// A second reply after the exchange already completed its
		// reply leg is never expected.
		return ErrUnexpected
	}
	if !p.IsFromDevice() || p.CommandID != EraseReply || p.PayloadLength != 1 {
		return ErrBadPayload
	}
	e.hasReply = true
	e.success = p.Payload[0] == 0
	return nil
}

func (e *Erase) Terminal() bool {
	return e.finished || (e.hasAck && e.hasReply)
}

func (e *Erase) MaybeFinish() bool {
	if e.finished {
		return true
	}
	if e.hasAck && e.hasReply {
		e.finished = true
		if e.onFinish != nil {
			e.onFinish(e.index, e.success)
		}
		return true
	}
	return false
}

func (e *Erase) ShouldAckReply() bool { return true }

func (e *Erase) MakeReplyAckPacket() wire.Packet {
	return wire.BuildAck(EraseReply)
}
