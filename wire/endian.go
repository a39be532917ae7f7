package wire

import "encoding/binary"

// PutUint16 writes v little-endian at buffer[offset:offset+2].
// The caller must size buffer appropriately; no bounds checking is done
// beyond what the slice index performs.
func PutUint16(buffer []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buffer[offset:offset+2], v)
}

// Uint16 reads a little-endian uint16 from buffer[offset:offset+2].
func Uint16(buffer []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(buffer[offset : offset+2])
}

// PutUint32 writes v little-endian at buffer[offset:offset+4].
func PutUint32(buffer []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buffer[offset:offset+4], v)
}

// Uint32 reads a little-endian uint32 from buffer[offset:offset+4].
func Uint32(buffer []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buffer[offset : offset+4])
}
