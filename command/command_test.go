package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viiiiva/vivian/wire"
)

func devicePacket(seqno uint8, cmd uint16, payload []byte) wire.Packet {
	return wire.Packet{
		Seqno:         seqno,
		PayloadLength: uint8(len(payload)),
		Sender:        wire.RoleDevice,
		Receiver:      wire.RoleHost,
		CommandID:     cmd,
		Payload:       payload,
	}
}

func TestSetTimeSuccess(t *testing.T) {
	var finishedWith *bool
	st := NewSetTime(0x12345678, func(hasAck bool) { finishedWith = &hasAck })

	pkt := st.MakePacket()
	assert.EqualValues(t, SetClockCmd, pkt.CommandID)
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, pkt.Payload)

	require.NoError(t, st.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(SetClockCmd), nil)))
	assert.True(t, st.MaybeFinish())
	require.NotNil(t, finishedWith)
	assert.True(t, *finishedWith)

	// A further packet after terminal is unexpected.
	err := st.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(SetClockCmd), nil))
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestEraseSuccessWithReplyAck(t *testing.T) {
	var gotIndex uint16
	var gotSuccess bool
	e := NewErase(0x1234, func(index uint16, success bool) {
		gotIndex, gotSuccess = index, success
	})

	pkt := e.MakePacket()
	assert.EqualValues(t, EraseCmd, pkt.CommandID)

	require.NoError(t, e.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(EraseCmd), nil)))
	assert.False(t, e.MaybeFinish())

	require.NoError(t, e.ReadPacket(devicePacket(wire.SeqnoTerminal, EraseReply, []byte{0})))
	assert.True(t, e.MaybeFinish())
	assert.EqualValues(t, 0x1234, gotIndex)
	assert.True(t, gotSuccess)
	assert.True(t, e.ShouldAckReply())
	ack := e.MakeReplyAckPacket()
	assert.EqualValues(t, wire.Ack(EraseReply), ack.CommandID)
}

func TestEraseFailureReply(t *testing.T) {
	var gotSuccess bool
	e := NewErase(1, func(_ uint16, success bool) { gotSuccess = success })
	require.NoError(t, e.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(EraseCmd), nil)))
	require.NoError(t, e.ReadPacket(devicePacket(wire.SeqnoTerminal, EraseReply, []byte{1})))
	assert.True(t, e.MaybeFinish())
	assert.False(t, gotSuccess)
}

func TestEraseRejectsSecondReply(t *testing.T) {
	e := NewErase(1, nil)
	require.NoError(t, e.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(EraseCmd), nil)))
	require.NoError(t, e.ReadPacket(devicePacket(wire.SeqnoTerminal, EraseReply, []byte{0})))
	err := e.ReadPacket(devicePacket(wire.SeqnoTerminal, EraseReply, []byte{0}))
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestDownloadFileAcrossBurst(t *testing.T) {
	var gotData []byte
	d := NewDownload(0x1234, 0, DefaultLengthLimit, func(_ uint16, data []byte) { gotData = data })

	ackPayload := make([]byte, 10)
	wire.PutUint16(ackPayload, 0, 0x1234)
	wire.PutUint32(ackPayload, 2, 0)
	wire.PutUint32(ackPayload, 6, 28)
	require.NoError(t, d.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(DownloadCmd), ackPayload)))
	assert.False(t, d.MaybeFinish())

	first := make([]byte, 14)
	for i := range first {
		first[i] = byte(i + 1)
	}
	require.NoError(t, d.ReadPacket(devicePacket(1, DownloadReply, first)))
	assert.False(t, d.MaybeFinish())

	second := make([]byte, 14)
	for i := range second {
		second[i] = byte(i + 15)
	}
	require.NoError(t, d.ReadPacket(devicePacket(wire.SeqnoTerminal, DownloadReply, second)))
	assert.True(t, d.MaybeFinish())

	want := append(append([]byte{}, first...), second...)
	assert.Equal(t, want, gotData)
}

func TestDownloadRejectsAckMismatch(t *testing.T) {
	d := NewDownload(1, 0, DefaultLengthLimit, nil)
	ackPayload := make([]byte, 10)
	wire.PutUint16(ackPayload, 0, 2) // wrong index
	err := d.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(DownloadCmd), ackPayload))
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestDownloadRejectsOutOfOrderReply(t *testing.T) {
	d := NewDownload(1, 0, DefaultLengthLimit, nil)
	ackPayload := make([]byte, 10)
	wire.PutUint16(ackPayload, 0, 1)
	wire.PutUint32(ackPayload, 6, 100)
	require.NoError(t, d.ReadPacket(devicePacket(wire.SeqnoTerminal, wire.Ack(DownloadCmd), ackPayload)))
	err := d.ReadPacket(devicePacket(3, DownloadReply, []byte{1, 2, 3})) // expected seqno 1
	assert.ErrorIs(t, err, ErrBadPayload)
}
