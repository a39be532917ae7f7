// Package burst tracks the mod-6 sequence numbering of a multi-packet
// reply burst (spec §3, §4.4). Burst values are immutable: ReadPacket
// returns a new value rather than mutating the receiver.
package burst

import "github.com/viiiiva/vivian/wire"

// Burst is a single next_expected_seqno field, updated purely functionally.
type Burst struct {
	nextExpected uint8
}

// New returns the initial, empty Burst: no packet has been read yet.
func New() Burst {
	return Burst{nextExpected: wire.SeqnoUninitialized}
}

// IsEmpty reports whether no packet has ever been read.
func (b Burst) IsEmpty() bool {
	return b.nextExpected == wire.SeqnoUninitialized
}

// HasEnded reports whether the terminal marker has been observed.
func (b Burst) HasEnded() bool {
	return b.nextExpected == wire.SeqnoTerminal
}

// IsValid reports whether this Burst is not the invalid sentinel.
func (b Burst) IsValid() bool {
	return b.nextExpected != wire.SeqnoInvalid
}

// ReadPacket returns the Burst that results from observing seqno as the
// next packet in the burst. An empty burst expects seqno 1 (or the terminal
// 7 for a single-packet burst). On an already-invalid or already-ended
// burst, or when seqno is out of order, the result is the invalid sentinel.
func (b Burst) ReadPacket(seqno uint8) Burst {
	if !b.IsValid() || b.HasEnded() {
		return invalid()
	}
	expected := b.nextExpected
	if b.IsEmpty() {
		expected = 1
	}
	if !wire.SeqnoMatches(seqno, expected) {
		return invalid()
	}
	if seqno == wire.SeqnoTerminal {
		return Burst{nextExpected: wire.SeqnoTerminal}
	}
	return Burst{nextExpected: wire.NextSeqno(seqno)}
}

func invalid() Burst {
	return Burst{nextExpected: wire.SeqnoInvalid}
}
