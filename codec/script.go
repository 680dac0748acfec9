package codec

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/txscript"
)

// Element is an (offset, length) slice into the original script buffer,
// rather than a raw pointer into it. Storage ownership stays with the
// caller; Element never copies.
type Element struct {
	Offset int
	Length int
}

// Bytes returns the slice of script this element designates.
func (e Element) Bytes(script []byte) []byte { return script[e.Offset : e.Offset+e.Length] }

// ScriptElements walks script and returns one Element per pushed data item
// or opcode: a direct push (1..0x4B) pushes that many bytes,
// OP_PUSHDATA1/2/4 push a length-prefixed blob, and any other opcode is a
// zero-length element. If the walk does not land exactly on the end of
// the script, it returns (nil, false) signalling a parse failure — the
// script is malformed or truncated.
func ScriptElements(script []byte) ([]Element, bool) {
	var elems []Element
	i := 0
	for i < len(script) {
		op := script[i]
		start := i
		i++

		switch {
		case op >= 1 && op <= 0x4b:
			if i+int(op) > len(script) {
				return nil, false
			}
			elems = append(elems, Element{Offset: i, Length: int(op)})
			i += int(op)

		case op == txscript.OP_PUSHDATA1:
			if i+1 > len(script) {
				return nil, false
			}
			n := int(script[i])
			i++
			if i+n > len(script) {
				return nil, false
			}
			elems = append(elems, Element{Offset: i, Length: n})
			i += n

		case op == txscript.OP_PUSHDATA2:
			if i+2 > len(script) {
				return nil, false
			}
			n := int(binary.LittleEndian.Uint16(script[i : i+2]))
			i += 2
			if i+n > len(script) {
				return nil, false
			}
			elems = append(elems, Element{Offset: i, Length: n})
			i += n

		case op == txscript.OP_PUSHDATA4:
			if i+4 > len(script) {
				return nil, false
			}
			n := int(binary.LittleEndian.Uint32(script[i : i+4]))
			i += 4
			if i+n > len(script) {
				return nil, false
			}
			elems = append(elems, Element{Offset: i, Length: n})
			i += n

		default:
			elems = append(elems, Element{Offset: start, Length: 0})
		}
	}

	if i != len(script) {
		return nil, false
	}
	return elems, true
}

// PushData returns the shortest opcode+length encoding that pushes data:
// direct push for 1..0x4B, PUSHDATA1 for <256, PUSHDATA2 for <65536,
// PUSHDATA4 otherwise. Empty data encodes to zero bytes.
func PushData(data []byte) []byte {
	n := len(data)
	if n == 0 {
		return nil
	}

	var out []byte
	switch {
	case n <= 0x4b:
		out = append(out, byte(n))
	case n < 1<<8:
		out = append(out, txscript.OP_PUSHDATA1, byte(n))
	case n < 1<<16:
		lenBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(lenBuf, uint16(n))
		out = append(out, txscript.OP_PUSHDATA2)
		out = append(out, lenBuf...)
	default:
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(n))
		out = append(out, txscript.OP_PUSHDATA4)
		out = append(out, lenBuf...)
	}
	return append(out, data...)
}
