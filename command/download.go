package command

import (
	"github.com/viiiiva/vivian/burst"
	"github.com/viiiiva/vivian/wire"
)

// DefaultLengthLimit is the default length_limit for a download when the
// caller does not impose a ceiling.
const DefaultLengthLimit uint32 = 0xFFFFFFFF

// Download implements the directory/file download operation (spec §4.7.1).
// Index 0 requests the directory listing; any other index requests that
// file's bytes.
type Download struct {
	ackSkeleton
	index           uint16
	offset          uint32
	lengthLimit     uint32
	announcedLength uint32
	accum           []byte
	burst           burst.Burst
	finished        bool
	onFinish        func(index uint16, data []byte)
}

// NewDownload constructs a download command. offset and lengthLimit should
// be set to 0 and DefaultLengthLimit respectively when the caller has no
// specific requirement.
func NewDownload(index uint16, offset, lengthLimit uint32, onFinish func(index uint16, data []byte)) *Download {
	return &Download{
		index:       index,
		offset:      offset,
		lengthLimit: lengthLimit,
		burst:       burst.New(),
		onFinish:    onFinish,
	}
}

func (d *Download) MakePacket() wire.Packet {
	payload := make([]byte, 10)
	wire.PutUint16(payload, 0, d.index)
	wire.PutUint32(payload, 2, d.offset)
	wire.PutUint32(payload, 6, d.lengthLimit)
	return wire.Build(wire.SeqnoTerminal, DownloadCmd, payload)
}

func (d *Download) ReadPacket(p wire.Packet) error {
	if !d.hasAck {
		return d.readAck(p)
	}
	return d.readReply(p)
}

func (d *Download) readAck(p wire.Packet) error {
	if err := acceptAck(p, DownloadCmd); err != nil {
		return err
	}
	if p.PayloadLength != 10 {
		return ErrBadPayload
	}
	gotIndex := wire.Uint16(p.Payload, 0)
	gotOffset := wire.Uint32(p.Payload, 2)
	announced := wire.Uint32(p.Payload, 6)
	if gotIndex != d.index || gotOffset != d.offset {
		return ErrBadPayload
	}
	if announced > d.lengthLimit {
		return ErrBadPayload
	}
	d.announcedLength = announced
	// For a directory download (index 0), the announced value is a
	// record count, each record 16 bytes; otherwise it is a byte count.
	reserve := announced
	if d.index == 0 {
		reserve = announced * 16
	}
	d.accum = make([]byte, 0, reserve)
	d.hasAck = true
	return nil
}

func (d *Download) readReply(p wire.Packet) error {
	if !p.IsFromDevice() || p.CommandID != DownloadReply || p.PayloadLength == 0 {
		return ErrBadPayload
	}
	next := d.burst.ReadPacket(p.Seqno)
	if !next.IsValid() {
		return ErrBadPayload
	}
	d.burst = next
	d.accum = append(d.accum, p.Payload...)
	return nil
}

func (d *Download) Terminal() bool {
	return d.finished || (d.hasAck && d.burst.HasEnded())
}

func (d *Download) MaybeFinish() bool {
	if d.finished {
		return true
	}
	if d.hasAck && d.burst.HasEnded() {
		d.finished = true
		if d.onFinish != nil {
			d.onFinish(d.index, d.accum)
		}
		return true
	}
	return false
}

func (d *Download) ShouldAckReply() bool { return false }

func (d *Download) MakeReplyAckPacket() wire.Packet {
	return wire.Packet{}
}
