// Package vivian is the stable façade over the protocol engine (spec §6,
// component C9): the one import transport and UI code is expected to take.
// Grounded on pkg/gateway.BaseGateway, which plays the same "flat wrapper
// in front of the real state machine" role for CANopen's SDO gateways.
package vivian

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/viiiiva/vivian/directory"
	"github.com/viiiiva/vivian/engine"
)

// Transport is re-exported from engine so callers never need to import
// the engine package directly.
type Transport = engine.Transport

// Client is the façade a transport/UI layer drives: construct once per
// connected device, feed it inbound notifications, and invoke the four
// high-level operations.
type Client struct {
	engine *engine.Engine

	logger            *slog.Logger
	debug             bool
	inactivityTimeout time.Duration
	fileTypeAliases   map[uint16]string
}

// NewClient constructs a Client wired to transport, delivering every
// engine event to handler in order.
func NewClient(transport Transport, handler Handler, opts ...Option) *Client {
	c := &Client{
		fileTypeAliases:   make(map[uint16]string),
		inactivityTimeout: DefaultInactivityTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	sink := &sinkAdapter{handler: handler}
	c.engine = engine.New(transport, sink, c.logger)
	c.engine.Debug = c.debug
	return c
}

// NotifyValue forwards an inbound GATT value notification.
func (c *Client) NotifyValue(data []byte) { c.engine.NotifyValue(data) }

// NotifyTimeout forwards the client's inactivity-timer expiry.
func (c *Client) NotifyTimeout() { c.engine.NotifyTimeout() }

// DownloadDirectory requests the device's directory listing.
func (c *Client) DownloadDirectory() { c.engine.DownloadDirectory() }

// DownloadFile requests the file at the given directory index.
func (c *Client) DownloadFile(index uint16) { c.engine.DownloadFile(index) }

// EraseFile requests deletion of the file at the given directory index.
func (c *Client) EraseFile(index uint16) { c.engine.EraseFile(index) }

// SetTime requests the device's clock be set to posix (whole POSIX
// seconds). Callers holding a fractional client time should call
// SetTimeAt instead, which applies the §4.6 round-up.
func (c *Client) SetTime(posix int64) { c.engine.SetTime(posix) }

// SetTimeAt requests the device's clock be set from t, rounding up to the
// next whole second when t carries a fractional component (spec §4.6,
// clock.ToDeviceRoundUp). This is the call a transport sampling
// time.Now() should use instead of truncating to SetTime's whole-second
// posix argument itself.
func (c *Client) SetTimeAt(t time.Time) { c.engine.SetTimeAt(t) }

// Filename returns the synthetic filename convention for a directory
// entry (spec §6.4): four lowercase hex digits of the 16-bit index,
// followed by ".fit".
func (c *Client) Filename(entry directory.Entry) string {
	return fmt.Sprintf("%04x.fit", entry.Index)
}

// InactivityTimeout returns the duration a transport should wait for
// device traffic before calling NotifyTimeout (spec §5's recommended
// client policy: restart this timer on every start_waiting and every
// write_value observed while waiting, cancel it on finish_waiting).
func (c *Client) InactivityTimeout() time.Duration { return c.inactivityTimeout }

// FileTypeLabel returns a human-readable label for entry's file type,
// preferring a device-profile alias (WithDeviceProfile) over the built-in
// FileType.String().
func (c *Client) FileTypeLabel(entry directory.Entry) string {
	code := uint16(entry.FileType)
	if label, ok := c.fileTypeAliases[code]; ok {
		return label
	}
	return entry.FileType.String()
}
