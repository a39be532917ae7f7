// Package crc computes the CRC-8 used to validate Vivian wire packets:
// unreflected, polynomial 0x07, initial value 0, no final XOR.
package crc

import "github.com/viiiiva/vivian/internal/crcgen"

var table = crcgen.Table8(crcgen.Poly)

// Checksum returns the CRC-8 of data: unreflected, polynomial 0x07, initial 0.
// Only the low 5 bits are meaningful for packet validation (see wire.Packet),
// but the full 8-bit value is returned here so callers can mask as needed.
func Checksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = table[crc^b]
	}
	return crc
}
