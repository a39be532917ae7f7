// Package directory decodes the ANT-FS-style directory listing returned by
// a directory download (spec §3, §4.5): a 16-byte header followed by
// fixed-length 16-byte records.
package directory

import (
	"errors"

	"github.com/viiiiva/vivian/clock"
	"github.com/viiiiva/vivian/wire"
)

const (
	recordLength       = 16
	headerLength       = 16
	wantVersion        = 1
	wantRecordLength   = 16
	wantTimeFormat     = 1
	headerClockOffset  = 8
	entryIndexOffset   = 0
	entryFileTypeByte  = 2
	entrySubtypeByte   = 3
	entryLengthOffset  = 8
	entryTimeOffset    = 12
)

// ErrBadHeader is returned by Read when the header's fixed fields
// (version, record length, time format) don't match the expected values.
var ErrBadHeader = errors.New("directory: bad header")

// FileType is the closed set of file types a directory entry can carry,
// assembled as (subtype << 8) | file_type.
type FileType uint16

const (
	FileTypeUnknown     FileType = 0x0001
	FileTypeFitDevice   FileType = 0x0180
	FileTypeFitActivity FileType = 0x0480
)

func (f FileType) String() string {
	switch f {
	case FileTypeUnknown:
		return "unknown"
	case FileTypeFitDevice:
		return "fit_device"
	case FileTypeFitActivity:
		return "fit_activity"
	default:
		return "unrecognized"
	}
}

// Header is the fixed 16-byte directory preamble.
type Header struct {
	// ClockPosix is the device's clock at the time the directory was
	// generated, already converted to POSIX seconds.
	ClockPosix int64
}

// Entry is a logical directory entry, converted from the raw 16-byte
// on-wire record.
type Entry struct {
	Index      uint16
	Time       int64
	Length     uint32
	FileType   FileType
}

// Read parses a reassembled directory download buffer into a Header and a
// map of entries keyed by index. Entries with duplicate indices: the last
// one read wins. A trailing partial record (fewer than 16 bytes remaining
// after the last full record) is not an error -- the device pads bursts.
func Read(buffer []byte) (Header, map[uint16]Entry, error) {
	if len(buffer) < headerLength {
		return Header{}, nil, ErrBadHeader
	}
	if buffer[0] != wantVersion || buffer[1] != wantRecordLength || buffer[2] != wantTimeFormat {
		return Header{}, nil, ErrBadHeader
	}
	header := Header{
		ClockPosix: clock.ToPosix(wire.Uint32(buffer, headerClockOffset)),
	}

	entries := make(map[uint16]Entry)
	rest := buffer[headerLength:]
	for len(rest) >= recordLength {
		record := rest[:recordLength]
		rest = rest[recordLength:]

		index := wire.Uint16(record, entryIndexOffset)
		fileTypeRaw := record[entryFileTypeByte]
		subtype := record[entrySubtypeByte]
		entries[index] = Entry{
			Index:    index,
			Length:   wire.Uint32(record, entryLengthOffset),
			Time:     clock.ToPosix(wire.Uint32(record, entryTimeOffset)),
			FileType: FileType(uint16(subtype)<<8 | uint16(fileTypeRaw)),
		}
	}
	return header, entries, nil
}
