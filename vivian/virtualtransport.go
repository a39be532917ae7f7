package vivian

import (
	"log/slog"
	"sync"

	"github.com/viiiiva/vivian/clock"
	"github.com/viiiiva/vivian/command"
	"github.com/viiiiva/vivian/wire"
)

// DeviceSimulator reacts to a single host-originated command packet and
// returns zero or more device-originated reply packets (already
// serialized), in the order they should be delivered.
type DeviceSimulator interface {
	HandleCommand(packet []byte) [][]byte
}

// VirtualTransport is an in-process loopback Transport (spec §6.1),
// grounded on pkg/can/virtual's loopback bus: the same "stand in for the
// real peripheral with an in-memory channel" technique, here applied to a
// single GATT characteristic instead of a CAN interface. It is meant for
// tests and the demo CLI, never for production use against a real device.
type VirtualTransport struct {
	logger *slog.Logger
	device DeviceSimulator

	mu      sync.Mutex
	inbox   [][]byte
	waiting bool
}

// NewVirtualTransport constructs a VirtualTransport fronting device.
func NewVirtualTransport(device DeviceSimulator, logger *slog.Logger) *VirtualTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &VirtualTransport{device: device, logger: logger}
}

// WriteValue hands the outbound packet to the simulated device and queues
// its replies for delivery. It never calls back into the Client directly:
// the engine is single-threaded and cooperative (spec §4.8), so notifying
// it from inside a write would be a re-entrant call. Callers drain the
// queue with Pump once their engine call has returned.
func (t *VirtualTransport) WriteValue(data []byte) error {
	replies := t.device.HandleCommand(data)
	t.mu.Lock()
	t.inbox = append(t.inbox, replies...)
	t.mu.Unlock()
	return nil
}

func (t *VirtualTransport) StartWaiting() {
	t.mu.Lock()
	t.waiting = true
	t.mu.Unlock()
}

func (t *VirtualTransport) FinishWaiting() {
	t.mu.Lock()
	t.waiting = false
	t.mu.Unlock()
}

// Pump delivers every queued device reply to client, in order, by calling
// client.NotifyValue. Call it once after each top-level operation
// (DownloadDirectory, DownloadFile, EraseFile, SetTime) returns.
func (t *VirtualTransport) Pump(client *Client) {
	for {
		t.mu.Lock()
		if len(t.inbox) == 0 {
			t.mu.Unlock()
			return
		}
		next := t.inbox[0]
		t.inbox = t.inbox[1:]
		t.mu.Unlock()
		client.NotifyValue(next)
	}
}

// devicePacket serializes a device-originated packet; wire.Build/BuildAck
// assume a host-originated sender/receiver pair so simulated devices
// cannot use them directly.
func devicePacket(seqno uint8, cmd uint16, payload []byte) []byte {
	p := wire.Packet{
		Seqno:         seqno,
		PayloadLength: uint8(len(payload)),
		Sender:        wire.RoleDevice,
		Receiver:      wire.RoleHost,
		CommandID:     cmd,
		Payload:       payload,
	}
	return p.Serialize()
}

// deviceAck returns the device's acknowledgement packet for cmd.
func deviceAck(cmd uint16) []byte {
	return devicePacket(wire.SeqnoTerminal, wire.Ack(cmd), nil)
}

// StaticDevice is a minimal DeviceSimulator backed by an in-memory
// directory and file store, sufficient for exercising the full set of
// operations end to end without a real BLE peripheral.
type StaticDevice struct {
	ClockPosix int64
	Files      map[uint16][]byte // index 0 is the directory listing itself
}

// NewStaticDevice constructs a StaticDevice with an empty file store; no
// directory listing is present at index 0 until the caller stores one.
func NewStaticDevice(clockPosix int64) *StaticDevice {
	return &StaticDevice{ClockPosix: clockPosix, Files: make(map[uint16][]byte)}
}

func (d *StaticDevice) HandleCommand(packet []byte) [][]byte {
	p, err := wire.Parse(packet)
	if err != nil {
		return nil
	}
	switch p.CommandID {
	case command.DownloadCmd:
		return d.handleDownload(p)
	case command.EraseCmd:
		return d.handleErase(p)
	case command.SetClockCmd:
		return d.handleSetTime(p)
	default:
		return nil
	}
}

func (d *StaticDevice) handleDownload(p wire.Packet) [][]byte {
	if p.PayloadLength != 10 {
		return nil
	}
	index := wire.Uint16(p.Payload, 0)
	data := d.Files[index]

	var announced uint32
	if index == 0 {
		// The announced value for a directory download is a record
		// count, excluding the 16-byte header (spec §4.7.1).
		announced = uint32((len(data) - 16) / 16)
	} else {
		announced = uint32(len(data))
	}

	ackPayload := make([]byte, 10)
	wire.PutUint16(ackPayload, 0, index)
	wire.PutUint32(ackPayload, 2, 0)
	wire.PutUint32(ackPayload, 6, announced)

	replies := [][]byte{devicePacket(wire.SeqnoTerminal, wire.Ack(command.DownloadCmd), ackPayload)}

	if len(data) == 0 {
		replies = append(replies, devicePacket(wire.SeqnoTerminal, command.DownloadReply, nil))
		return replies
	}

	seqno := uint8(1)
	for offset := 0; offset < len(data); offset += wire.MaxPayloadLength {
		end := offset + wire.MaxPayloadLength
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		isLast := end == len(data)
		s := seqno
		if isLast {
			s = wire.SeqnoTerminal
		}
		replies = append(replies, devicePacket(s, command.DownloadReply, chunk))
		seqno = wire.NextSeqno(seqno)
	}
	return replies
}

func (d *StaticDevice) handleErase(p wire.Packet) [][]byte {
	if p.PayloadLength != 2 {
		return nil
	}
	index := wire.Uint16(p.Payload, 0)
	_, existed := d.Files[index]
	delete(d.Files, index)

	success := byte(0)
	if !existed {
		success = 1
	}
	return [][]byte{
		deviceAck(command.EraseCmd),
		devicePacket(wire.SeqnoTerminal, command.EraseReply, []byte{success}),
	}
}

func (d *StaticDevice) handleSetTime(p wire.Packet) [][]byte {
	if p.PayloadLength != 4 {
		return nil
	}
	d.ClockPosix = clock.ToPosix(wire.Uint32(p.Payload, 0))
	return [][]byte{deviceAck(command.SetClockCmd)}
}
