package command

import "github.com/viiiiva/vivian/wire"

// SetTime implements the set-clock operation (spec §4.7.3). The device
// never sends a reply for this command, only an acknowledgement.
type SetTime struct {
	ackSkeleton
	deviceTime uint32
	finished   bool
	onFinish   func(hasAck bool)
}

func NewSetTime(deviceTime uint32, onFinish func(hasAck bool)) *SetTime {
	return &SetTime{deviceTime: deviceTime, onFinish: onFinish}
}

func (s *SetTime) MakePacket() wire.Packet {
	payload := make([]byte, 4)
	wire.PutUint32(payload, 0, s.deviceTime)
	return wire.Build(wire.SeqnoTerminal, SetClockCmd, payload)
}

func (s *SetTime) ReadPacket(p wire.Packet) error {
	// Any packet delivered after the command has already gone terminal
	// is unexpected; the reference does not reject a second ack
	// explicitly, but this spec treats it as such (spec §9, open
	// questions).
	if s.Terminal() {
		return ErrUnexpected
	}
	if err := acceptAck(p, SetClockCmd); err != nil {
		return err
	}
	s.hasAck = true
	return nil
}

func (s *SetTime) Terminal() bool {
	return s.finished || s.hasAck
}

func (s *SetTime) MaybeFinish() bool {
	if s.finished {
		return true
	}
	if s.hasAck {
		s.finished = true
		if s.onFinish != nil {
			s.onFinish(true)
		}
		return true
	}
	return false
}

func (s *SetTime) ShouldAckReply() bool { return false }

func (s *SetTime) MakeReplyAckPacket() wire.Packet {
	return wire.Packet{}
}
