// Package codec implements the Bitcoin-family wire primitives: variable-
// length integers and Bitcoin-script element parsing/building.
package codec

import "encoding/binary"

// VarIntSize returns the number of bytes VarIntEncode would produce for n.
func VarIntSize(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// VarIntEncode appends the varint encoding of n to buf and returns the
// result: one byte if n < 0xFD; else a 0xFD/0xFE/0xFF header byte followed
// by a little-endian u16/u32/u64.
func VarIntEncode(buf []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(buf, byte(n))
	case n <= 0xffff:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(n))
		return append(append(buf, 0xfd), b...)
	case n <= 0xffffffff:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		return append(append(buf, 0xfe), b...)
	default:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, n)
		return append(append(buf, 0xff), b...)
	}
}

// VarIntDecode reads a varint from the head of buf, returning the decoded
// value and the number of bytes consumed. It returns (0, 0) if buf is too
// short to hold a complete varint.
func VarIntDecode(buf []byte) (uint64, int) {
	if len(buf) == 0 {
		return 0, 0
	}
	switch buf[0] {
	case 0xfd:
		if len(buf) < 3 {
			return 0, 0
		}
		return uint64(binary.LittleEndian.Uint16(buf[1:3])), 3
	case 0xfe:
		if len(buf) < 5 {
			return 0, 0
		}
		return uint64(binary.LittleEndian.Uint32(buf[1:5])), 5
	case 0xff:
		if len(buf) < 9 {
			return 0, 0
		}
		return binary.LittleEndian.Uint64(buf[1:9]), 9
	default:
		return uint64(buf[0]), 1
	}
}
