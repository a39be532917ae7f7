package vivian

import (
	"github.com/viiiiva/vivian/directory"
	"github.com/viiiiva/vivian/engine"
)

// EventKind identifies which Event field is populated, playing the role of
// a closed tagged union (spec §6.2). Grounded on the same "one struct,
// discriminated by kind" shape pkg/sdo uses for its abort/event reporting.
type EventKind int

const (
	EventError EventKind = iota
	EventParseClock
	EventParseDirectoryEntry
	EventFinishParsingDirectory
	EventDownloadFile
	EventEraseFile
	EventSetTime
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventParseClock:
		return "parse_clock"
	case EventParseDirectoryEntry:
		return "parse_directory_entry"
	case EventFinishParsingDirectory:
		return "finish_parsing_directory"
	case EventDownloadFile:
		return "download_file"
	case EventEraseFile:
		return "erase_file"
	case EventSetTime:
		return "set_time"
	default:
		return "unknown"
	}
}

// Event is a single result-callback invocation, reshaped from the engine's
// ResultSink interface calls into one value so façade callers can use a
// single handler function instead of implementing a seven-method
// interface.
type Event struct {
	Kind EventKind

	// EventError
	ErrorKind    engine.ErrorKind
	ErrorMessage string

	// EventParseClock
	ClockPosix int64

	// EventParseDirectoryEntry
	Entry directory.Entry

	// EventDownloadFile
	FileIndex uint16
	FileData  []byte

	// EventEraseFile
	EraseIndex   uint16
	EraseSuccess bool

	// EventSetTime
	SetTimeOK bool
}

// Handler receives every event the engine produces, in the order the
// engine produces them.
type Handler func(Event)

// sinkAdapter implements engine.ResultSink by reshaping each callback into
// an Event and forwarding it to a single Handler.
type sinkAdapter struct {
	handler Handler
}

func (s *sinkAdapter) dispatch(ev Event) {
	if s.handler != nil {
		s.handler(ev)
	}
}

func (s *sinkAdapter) OnError(kind engine.ErrorKind, message string) {
	s.dispatch(Event{Kind: EventError, ErrorKind: kind, ErrorMessage: message})
}

func (s *sinkAdapter) OnParseClock(posixTime int64) {
	s.dispatch(Event{Kind: EventParseClock, ClockPosix: posixTime})
}

func (s *sinkAdapter) OnParseDirectoryEntry(entry directory.Entry) {
	s.dispatch(Event{Kind: EventParseDirectoryEntry, Entry: entry})
}

func (s *sinkAdapter) OnFinishParsingDirectory() {
	s.dispatch(Event{Kind: EventFinishParsingDirectory})
}

func (s *sinkAdapter) OnDownloadFile(index uint16, data []byte) {
	s.dispatch(Event{Kind: EventDownloadFile, FileIndex: index, FileData: data})
}

func (s *sinkAdapter) OnEraseFile(index uint16, ok bool) {
	s.dispatch(Event{Kind: EventEraseFile, EraseIndex: index, EraseSuccess: ok})
}

func (s *sinkAdapter) OnSetTime(ok bool) {
	s.dispatch(Event{Kind: EventSetTime, SetTimeOK: ok})
}
