// Package engine implements the protocol manager (spec §4.8): the
// top-level orchestrator that holds the current command slot, routes
// inbound notifications to it, dispatches outbound commands, and fans
// events out to a result sink. It is grounded on the teacher's
// pkg/network.Network orchestrator, which plays the same role for
// CANopen's SDO clients: hold at most one active exchange per peer, route
// inbound frames to it, and surface events through a shared logger.
package engine

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/viiiiva/vivian/clock"
	"github.com/viiiiva/vivian/command"
	"github.com/viiiiva/vivian/directory"
	"github.com/viiiiva/vivian/wire"
)

// ErrorKind is the closed set of error kinds surfaced to the client
// (spec §7).
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorBadHeader
	ErrorBadPayload
	ErrorUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorBadHeader:
		return "bad_header"
	case ErrorBadPayload:
		return "bad_payload"
	case ErrorUnexpected:
		return "unexpected"
	default:
		return "none"
	}
}

// Transport is the engine -> client callback surface for delivering
// packets and flow control (spec §6.1). The transport and UI layers that
// implement it are explicitly out of scope for this module.
type Transport interface {
	// WriteValue delivers a serialized packet to the GATT characteristic.
	// A non-nil error is a fatal transport error.
	WriteValue(data []byte) error
	// StartWaiting signals that the engine is now waiting for device
	// traffic.
	StartWaiting()
	// FinishWaiting signals that the engine is no longer waiting.
	FinishWaiting()
}

// ResultSink is the engine -> client event surface (spec §6.2). All
// methods are optional in the sense that Engine never requires a non-nil
// ResultSink.
type ResultSink interface {
	OnError(kind ErrorKind, message string)
	OnParseClock(posixTime int64)
	OnParseDirectoryEntry(entry directory.Entry)
	OnFinishParsingDirectory()
	OnDownloadFile(index uint16, data []byte)
	OnEraseFile(index uint16, ok bool)
	OnSetTime(ok bool)
}

// ErrSlotBusy is a programmer error: an operation was invoked while a
// command was already in flight. The protocol allows exactly one command
// in flight at a time (spec §1 non-goals, §3).
var ErrSlotBusy = errors.New("engine: command already in flight")

// Engine is the protocol manager (spec §4.8, component C8).
type Engine struct {
	transport Transport
	sink      ResultSink
	logger    *slog.Logger

	// Debug enables the re-entrancy assertion (spec §4.8, §5): when true,
	// a manager operation invoked from within a result callback panics
	// instead of merely being logged. Mirrors the teacher's pattern of
	// gating debug behavior through runtime configuration rather than
	// build tags (e.g. log.SetLevel in cmd/sdo_client/main.go).
	Debug bool

	slot       command.Command
	inCallback bool
}

// New constructs an Engine. logger may be nil, in which case
// slog.Default() is used, matching pkg/network.NewNetwork's treatment of
// its logger field.
func New(transport Transport, sink ResultSink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{transport: transport, sink: sink, logger: logger}
}

// guard enforces the no-re-entrancy invariant shared by every public entry
// point; the single-in-flight check is made separately by each operation
// (rejectBusy). It returns a release function to defer.
func (e *Engine) guard() func() {
	if e.inCallback {
		if e.Debug {
			panic("engine: re-entrant call from within a result callback")
		}
		e.logger.Warn("engine operation invoked re-entrantly from a result callback; this is a programming error")
	}
	e.inCallback = true
	return func() { e.inCallback = false }
}

func (e *Engine) emitError(kind ErrorKind, message string) {
	e.logger.Debug("protocol error", "kind", kind.String(), "message", message)
	if e.sink != nil {
		e.sink.OnError(kind, message)
	}
}

// NotifyValue delivers an inbound GATT value notification to the engine
// (spec §6.3, §4.8).
func (e *Engine) NotifyValue(data []byte) {
	release := e.guard()
	defer release()

	p, err := wire.Parse(data)
	if err != nil {
		// Both bad-length and bad-CRC are wire parse failures (spec §7);
		// the slot is left untouched, the device may resend.
		e.emitError(ErrorBadHeader, err.Error())
		return
	}

	if e.slot == nil {
		e.emitError(ErrorUnexpected, "notification received with no active command")
		return
	}

	if err := e.slot.ReadPacket(p); err != nil {
		e.emitError(classifyCommandError(err), err.Error())
		return
	}

	if e.slot.Terminal() {
		e.finishSlot()
	}
}

func classifyCommandError(err error) ErrorKind {
	if errors.Is(err, command.ErrBadPayload) {
		return ErrorBadPayload
	}
	return ErrorUnexpected
}

// finishSlot closes out the active command once it has gone terminal. The
// reply-ack, when required, is written before the slot is cleared and
// finish_waiting is signaled, matching the device's expectation that the
// ack is sent promptly after its reply (spec §4.7.2, §4.8).
func (e *Engine) finishSlot() {
	cmd := e.slot
	if cmd.ShouldAckReply() {
		ack := cmd.MakeReplyAckPacket()
		if err := e.transport.WriteValue(ack.Serialize()); err != nil {
			e.emitError(ErrorUnexpected, "transport write failed sending reply-ack: "+err.Error())
		}
	}
	cmd.MaybeFinish()
	e.transport.FinishWaiting()
	e.slot = nil
}

// NotifyTimeout raises the only cancellation signal the engine recognizes
// (spec §5, §6.3). If no command is active, this is a no-op.
func (e *Engine) NotifyTimeout() {
	release := e.guard()
	defer release()

	if e.slot == nil {
		return
	}
	e.slot = nil
	e.emitError(ErrorUnexpected, "timed out waiting for device response")
	e.transport.FinishWaiting()
}

// DownloadDirectory starts a directory listing download (index 0).
func (e *Engine) DownloadDirectory() {
	e.startDownload(0, 0, command.DefaultLengthLimit, true)
}

// DownloadFile starts a file download by directory index.
func (e *Engine) DownloadFile(index uint16) {
	e.startDownload(index, 0, command.DefaultLengthLimit, false)
}

func (e *Engine) startDownload(index uint16, offset, lengthLimit uint32, isDirectory bool) {
	release := e.guard()
	defer release()

	if e.slot != nil {
		e.rejectBusy()
		return
	}

	var onFinish func(uint16, []byte)
	if isDirectory {
		onFinish = func(_ uint16, data []byte) { e.finishDirectory(data) }
	} else {
		onFinish = func(idx uint16, data []byte) {
			if e.sink != nil {
				e.sink.OnDownloadFile(idx, data)
			}
		}
	}
	e.dispatch(command.NewDownload(index, offset, lengthLimit, onFinish))
}

func (e *Engine) finishDirectory(data []byte) {
	header, entries, err := directory.Read(data)
	if err != nil {
		e.emitError(ErrorBadPayload, err.Error())
		return
	}
	if e.sink == nil {
		return
	}
	e.sink.OnParseClock(header.ClockPosix)

	indices := make([]uint16, 0, len(entries))
	for idx := range entries {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for _, idx := range indices {
		e.sink.OnParseDirectoryEntry(entries[idx])
	}
	e.sink.OnFinishParsingDirectory()
}

// EraseFile starts an erase-file operation.
func (e *Engine) EraseFile(index uint16) {
	release := e.guard()
	defer release()

	if e.slot != nil {
		e.rejectBusy()
		return
	}
	e.dispatch(command.NewErase(index, func(idx uint16, ok bool) {
		if e.sink != nil {
			e.sink.OnEraseFile(idx, ok)
		}
	}))
}

// SetTime starts a set-clock operation from an already whole-second POSIX
// time (spec §6.3). Callers holding a fractional client time should call
// SetTimeAt instead, which applies the §4.6 round-up.
func (e *Engine) SetTime(posix int64) {
	e.setTimeDevice(clock.ToDevice(posix))
}

// SetTimeAt starts a set-clock operation from a wall-clock reading that may
// carry a fractional second, rounding up to the next whole device second
// per spec §4.6 (clock.ToDeviceRoundUp) before dispatch. This is the
// reachable path for a transport sampling time.Now() rather than an
// already-truncated POSIX integer.
func (e *Engine) SetTimeAt(t time.Time) {
	e.setTimeDevice(clock.ToDeviceRoundUp(t))
}

func (e *Engine) setTimeDevice(deviceTime uint32) {
	release := e.guard()
	defer release()

	if e.slot != nil {
		e.rejectBusy()
		return
	}
	e.dispatch(command.NewSetTime(deviceTime, func(ok bool) {
		if e.sink != nil {
			e.sink.OnSetTime(ok)
		}
	}))
}

func (e *Engine) rejectBusy() {
	if e.Debug {
		panic(ErrSlotBusy)
	}
	e.logger.Warn("operation rejected: a command is already in flight")
}

// dispatch installs cmd as the active slot, serializes its outbound
// packet, and enters the waiting state (spec §4.8's per-operation
// dispatch sequence).
func (e *Engine) dispatch(cmd command.Command) {
	e.slot = cmd
	pkt := cmd.MakePacket()
	if err := e.transport.WriteValue(pkt.Serialize()); err != nil {
		e.slot = nil
		e.emitError(ErrorUnexpected, "transport write failed: "+err.Error())
		return
	}
	e.transport.StartWaiting()
}
