package vivian

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultInactivityTimeout is the reference client's policy (spec §5):
// (re)start this timer on every start_waiting/write_value observed while
// waiting, cancel it on finish_waiting, and fire NotifyTimeout on expiry.
const DefaultInactivityTimeout = 16 * time.Second

// DeviceProfile carries per-device tuning data loaded from an optional
// .ini file, the way the teacher's EDS parser (pkg/od/parser_v1.go) loads
// per-node object-dictionary data from an .ini-formatted file. Unlike an
// EDS, this profile has no bearing on wire semantics -- only on client
// policy.
type DeviceProfile struct {
	// InactivityTimeout overrides DefaultInactivityTimeout when positive.
	InactivityTimeout time.Duration
	// FileTypeAliases maps a vendor-specific (subtype<<8|file_type) code
	// to a human label, for devices that use directory file types outside
	// the set directory.FileType recognizes natively.
	FileTypeAliases map[uint16]string
}

// LoadDeviceProfile reads a DeviceProfile from an .ini file. Both sections
// are optional: [device] holds inactivity_timeout_ms, and each key of
// [file_types] is a file type code whose value is its label:
//
//	[device]
//	inactivity_timeout_ms = 16000
//	[file_types]
//	0x0280 = garmin_settings
func LoadDeviceProfile(path string) (DeviceProfile, error) {
	profile := DeviceProfile{FileTypeAliases: make(map[uint16]string)}

	cfg, err := ini.Load(path)
	if err != nil {
		return profile, fmt.Errorf("vivian: loading device profile: %w", err)
	}

	if section, err := cfg.GetSection("device"); err == nil {
		if key := section.Key("inactivity_timeout_ms"); key.String() != "" {
			ms, err := key.Int()
			if err != nil {
				return profile, fmt.Errorf("vivian: parsing inactivity_timeout_ms: %w", err)
			}
			profile.InactivityTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if section, err := cfg.GetSection("file_types"); err == nil {
		for _, key := range section.Keys() {
			code, err := strconv.ParseUint(key.Name(), 0, 16)
			if err != nil {
				return profile, fmt.Errorf("vivian: parsing file type code %q: %w", key.Name(), err)
			}
			profile.FileTypeAliases[uint16(code)] = key.String()
		}
	}

	return profile, nil
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger sets the structured logger the Client and its engine use.
// Defaults to slog.Default() when not supplied.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDebug enables the engine's re-entrancy assertion (spec §4.8, §5):
// a manager operation invoked from within a result callback panics
// instead of being logged and tolerated.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.debug = debug }
}

// WithDeviceProfile applies per-device tuning loaded via
// LoadDeviceProfile.
func WithDeviceProfile(profile DeviceProfile) Option {
	return func(c *Client) {
		if profile.InactivityTimeout > 0 {
			c.inactivityTimeout = profile.InactivityTimeout
		}
		for code, label := range profile.FileTypeAliases {
			c.fileTypeAliases[code] = label
		}
	}
}
