package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSerializeKnownBytes(t *testing.T) {
	// S1: build(seqno=7, cmd=0x0600, payload=empty)
	p := Build(SeqnoTerminal, 0x0600, nil)
	got := p.Serialize()
	assert.Equal(t, []byte{0xE3, 0x00, 0x03, 0x01, 0x00, 0x06}, got)

	parsed, err := Parse(got)
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
	assert.EqualValues(t, SeqnoTerminal, parsed.Seqno)
	assert.Equal(t, 6, parsed.Length())
	assert.True(t, parsed.IsFromHost())
	assert.False(t, parsed.IsFromDevice())
}

func TestRoundTripWithPayload(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}
	for seqno := uint8(0); seqno <= SeqnoTerminal; seqno++ {
		p := Build(seqno, 0x010B, payload)
		serialized := p.Serialize()
		parsed, err := Parse(serialized)
		require.NoError(t, err)
		assert.Equal(t, p, parsed, "round trip for seqno %d", seqno)
	}
}

func TestBuildPanicsOnOversizedPayload(t *testing.T) {
	assert.Panics(t, func() {
		Build(SeqnoTerminal, 0, make([]byte, MaxPayloadLength+1))
	})
}

func TestBuildPanicsOnBadSeqno(t *testing.T) {
	assert.Panics(t, func() {
		Build(8, 0, nil)
	})
}

func TestBuildAck(t *testing.T) {
	p := BuildAck(0x010B)
	assert.EqualValues(t, SeqnoTerminal, p.Seqno)
	assert.EqualValues(t, 0x010B|AckBit, p.CommandID)
}

func TestParseBadLength(t *testing.T) {
	_, err := Parse([]byte{0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrBadLength)

	_, err = Parse(make([]byte, 21))
	assert.ErrorIs(t, err, ErrBadLength)

	// payload_length says 3 but buffer only carries header + 1 byte.
	buf := []byte{0, 3, 3, 1, 0, 6, 0xAA}
	_, err = Parse(buf)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestParseBadCRC(t *testing.T) {
	p := Build(SeqnoTerminal, 0x0600, nil)
	buf := p.Serialize()
	buf[0] ^= 0x01 // flip a CRC bit, keep seqno bits intact
	_, err := Parse(buf)
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestParseAcceptanceCriterionMatchesCRCMask(t *testing.T) {
	p := Build(3, 0x010B, []byte{1, 2, 3})
	buf := p.Serialize()
	want := buf[0] & 0x1F
	_, err := Parse(buf)
	require.NoError(t, err)
	buf[0] = (buf[0] &^ 0x1F) | ((want + 1) & 0x1F)
	_, err = Parse(buf)
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestNextSeqnoCycle(t *testing.T) {
	assert.EqualValues(t, 2, NextSeqno(1))
	assert.EqualValues(t, 6, NextSeqno(5))
	assert.EqualValues(t, 1, NextSeqno(6))
	for s := uint8(1); s <= 6; s++ {
		next := NextSeqno(s)
		assert.GreaterOrEqual(t, next, uint8(1))
		assert.LessOrEqual(t, next, uint8(6))
	}
}

func TestSeqnoMatches(t *testing.T) {
	assert.True(t, SeqnoMatches(SeqnoTerminal, 3))
	assert.True(t, SeqnoMatches(4, 4))
	assert.False(t, SeqnoMatches(4, 5))
}
