//go:build linux

package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// l2capTransport wraps a raw Bluetooth L2CAP socket bound to the BLE ATT
// fixed channel. It is a stub for the real transport boundary spec.md
// §1(a) places out of scope: it gets as far as a connected socket handle
// and stops there, since GATT service/characteristic discovery and ATT
// write/notify framing on top of this socket are the out-of-scope work.
// Nothing in vivianctl's default demo path constructs one; it exists so a
// future real transport has a working raw socket to start from rather than
// an empty package.
type l2capTransport struct {
	fd int
}

// dialL2CAP opens and connects a SOCK_SEQPACKET L2CAP socket to addr.
// hciDevice is not used: the socket is not bound to a local adapter before
// connecting. This mirrors the socket setup the teacher's bus_manager.go opens for
// a raw CAN interface (AF_CAN, SOCK_RAW) -- here AF_BLUETOOTH instead,
// since this spec's transport is BLE rather than CAN.
func dialL2CAP(hciDevice int, addr [6]byte) (*l2capTransport, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP)
	if err != nil {
		return nil, fmt.Errorf("linux_hci: socket: %w", err)
	}
	sa := &unix.SockaddrL2{
		PSM:  0,
		CID:  4, // BLE ATT fixed channel
		Addr: addr,
	}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linux_hci: connect: %w", err)
	}
	return &l2capTransport{fd: fd}, nil
}

func (t *l2capTransport) Close() error {
	return unix.Close(t.fd)
}
