// Package clock converts between POSIX time and the device's epoch,
// 1989-12-31T00:00:00Z (spec §4.6).
package clock

import "time"

// DeviceEpochOffset is the POSIX time of the device epoch,
// 1989-12-31T00:00:00Z.
const DeviceEpochOffset int64 = 631065600

// ToDevice converts a POSIX time, in seconds, to the device's 32-bit epoch
// seconds. The result is truncated to 32 bits, matching the device's wire
// representation; it does not apply leap-second adjustment.
func ToDevice(posix int64) uint32 {
	return uint32(posix - DeviceEpochOffset)
}

// ToPosix converts device epoch seconds to POSIX time, in seconds.
func ToPosix(device uint32) int64 {
	return int64(device) + DeviceEpochOffset
}

// ToDeviceRoundUp converts t to device epoch seconds, rounding up to the
// next whole second when t carries a fractional component. This compensates
// for propagation lag when setting the device's clock (spec §4.6).
func ToDeviceRoundUp(t time.Time) uint32 {
	posix := t.Unix()
	if t.Nanosecond() > 0 {
		posix++
	}
	return ToDevice(posix)
}
