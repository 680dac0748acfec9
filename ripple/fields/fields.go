// Package fields implements the canonical binary field codec XRP
// transactions are built from — field-id tags, length prefixes, typed
// field content, and the canonical type/field sort order.
package fields

import (
	"fmt"
	"sort"

	"github.com/shadowfax-labs/spvcore/ripple/address"
)

// Type codes for the field kinds this codec supports.
const (
	TypeUInt16  = 1
	TypeUInt32  = 2
	TypeHash128 = 4
	TypeHash256 = 5
	TypeAmount  = 6
	TypeBlob    = 7
	TypeAccount = 8
	TypeObject  = 14
	TypeArray   = 15
	TypeUInt8   = 16
	TypeHash160 = 17
)

// Field codes used by the payment transactions this module builds.
const (
	FieldSequence           = 4  // UInt32
	FieldFlags              = 2  // UInt32
	FieldSourceTag          = 3  // UInt32 (optional)
	FieldLastLedgerSequence = 27 // UInt32 (optional)
	FieldTransactionType    = 2  // UInt16
	FieldDestinationTag     = 14 // UInt32 (optional, type 2)
	FieldAmount             = 1  // Amount
	FieldFee                = 8  // Amount
	FieldSigningPubKey      = 3  // Blob
	FieldTxnSignature       = 4  // Blob
	FieldAccount            = 1  // Account
	FieldDestination        = 3  // Account

	FieldMemos      = 9  // STArray of Memo objects
	FieldMemo       = 10 // STObject, one Memo within a Memos array
	FieldMemoType   = 12 // Blob, within a Memo object
	FieldMemoData   = 13 // Blob, within a Memo object
	FieldMemoFormat = 14 // Blob, within a Memo object

	fieldEndOfObject = 1 // (TypeObject, 1) encodes to the 0xE1 object-end marker
	fieldEndOfArray  = 1 // (TypeArray, 1) encodes to the 0xF1 array-end marker
)

// Field is one tagged value in a transaction's field list.
type Field struct {
	TypeCode  int
	FieldCode int

	U16     uint16
	U32     uint32
	Amount  Amount
	Blob    []byte
	Account address.Address

	Nested   []Field // valid when TypeCode == TypeObject
	Elements []Field // valid when TypeCode == TypeArray; each element is itself a nested Field
}

// Memo is one memo object carried in a payment's Memos array: a
// concatenation of optional type/data/format blobs.
type Memo struct {
	Type, Data, Format []byte
}

func memoObjectField(m Memo) Field {
	var nested []Field
	if len(m.Type) > 0 {
		nested = append(nested, BlobField(FieldMemoType, m.Type))
	}
	if len(m.Data) > 0 {
		nested = append(nested, BlobField(FieldMemoData, m.Data))
	}
	if len(m.Format) > 0 {
		nested = append(nested, BlobField(FieldMemoFormat, m.Format))
	}
	return Field{TypeCode: TypeObject, FieldCode: FieldMemo, Nested: nested}
}

// MemosField builds the top-level Memos array field from a list of memo
// objects, each terminated internally by the object-end marker and the
// whole array terminated by the array-end marker on encode.
func MemosField(memos []Memo) Field {
	elements := make([]Field, len(memos))
	for i, m := range memos {
		elements[i] = memoObjectField(m)
	}
	return Field{TypeCode: TypeArray, FieldCode: FieldMemos, Elements: elements}
}

// Memos decodes a Memos array field back into its memo objects; it
// returns nil if f is not a Memos array.
func (f Field) Memos() []Memo {
	if f.TypeCode != TypeArray {
		return nil
	}
	out := make([]Memo, 0, len(f.Elements))
	for _, el := range f.Elements {
		var m Memo
		for _, nf := range el.Nested {
			switch {
			case nf.TypeCode == TypeBlob && nf.FieldCode == FieldMemoType:
				m.Type = nf.Blob
			case nf.TypeCode == TypeBlob && nf.FieldCode == FieldMemoData:
				m.Data = nf.Blob
			case nf.TypeCode == TypeBlob && nf.FieldCode == FieldMemoFormat:
				m.Format = nf.Blob
			}
		}
		out = append(out, m)
	}
	return out
}

// Amount is a transaction amount. An issued-currency amount keeps the
// wire-exact sign/exponent/mantissa triple rather than decoding into a
// lossy float, so a round trip through Decode/Encode never loses
// precision.
type Amount struct {
	IsXRP    bool
	Drops    uint64 // valid when IsXRP
	Negative bool   // valid when !IsXRP
	Exponent int8   // valid when !IsXRP
	Mantissa uint64 // valid when !IsXRP, 54-bit significand
	Currency [20]byte
	Issuer   [20]byte
}

// XRPAmount builds an Amount carrying a plain drops value.
func XRPAmount(drops uint64) Amount { return Amount{IsXRP: true, Drops: drops} }

func u16(typeCode, fieldCode int, v uint16) Field {
	return Field{TypeCode: typeCode, FieldCode: fieldCode, U16: v}
}
func u32(typeCode, fieldCode int, v uint32) Field {
	return Field{TypeCode: typeCode, FieldCode: fieldCode, U32: v}
}

// UInt32Field builds a type-2 field.
func UInt32Field(fieldCode int, v uint32) Field { return u32(TypeUInt32, fieldCode, v) }

// UInt16Field builds a type-1 field.
func UInt16Field(fieldCode int, v uint16) Field { return u16(TypeUInt16, fieldCode, v) }

// AmountField builds a type-6 field.
func AmountField(fieldCode int, v Amount) Field {
	return Field{TypeCode: TypeAmount, FieldCode: fieldCode, Amount: v}
}

// BlobField builds a type-7 field (public key or signature).
func BlobField(fieldCode int, v []byte) Field {
	return Field{TypeCode: TypeBlob, FieldCode: fieldCode, Blob: v}
}

// AccountField builds a type-8 field (an address).
func AccountField(fieldCode int, addr address.Address) Field {
	return Field{TypeCode: TypeAccount, FieldCode: fieldCode, Account: addr}
}

func encodeFieldID(typeCode, fieldCode int) []byte {
	switch {
	case typeCode < 16 && fieldCode < 16:
		return []byte{byte(typeCode<<4 | fieldCode)}
	case typeCode < 16:
		return []byte{byte(typeCode << 4), byte(fieldCode)}
	case fieldCode < 16:
		return []byte{byte(fieldCode), byte(typeCode)}
	default:
		return []byte{0, byte(typeCode), byte(fieldCode)}
	}
}

func decodeFieldID(buf []byte) (typeCode, fieldCode, n int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, 0, false
	}
	switch {
	case buf[0] == 0:
		if len(buf) < 3 {
			return 0, 0, 0, false
		}
		return int(buf[1]), int(buf[2]), 3, true
	case buf[0]&0x0F == 0:
		if len(buf) < 2 {
			return 0, 0, 0, false
		}
		return int(buf[0] >> 4), int(buf[1]), 2, true
	case buf[0]&0xF0 == 0:
		if len(buf) < 2 {
			return 0, 0, 0, false
		}
		return int(buf[1]), int(buf[0]), 2, true
	default:
		return int(buf[0] >> 4), int(buf[0] & 0x0F), 1, true
	}
}

// encodeLength encodes n as Ripple's three-tier variable length prefix.
func encodeLength(n int) ([]byte, error) {
	switch {
	case n <= 192:
		return []byte{byte(n)}, nil
	case n <= 12480:
		n -= 193
		return []byte{byte(193 + n>>8), byte(n & 0xff)}, nil
	case n <= 918744:
		n -= 12481
		return []byte{byte(241 + n>>16), byte((n >> 8) & 0xff), byte(n & 0xff)}, nil
	default:
		return nil, fmt.Errorf("fields: length %d exceeds maximum encodable length", n)
	}
}

func decodeLength(buf []byte) (n, consumed int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, false
	}
	b0 := int(buf[0])
	switch {
	case b0 <= 192:
		return b0, 1, true
	case b0 <= 240:
		if len(buf) < 2 {
			return 0, 0, false
		}
		return 193 + (b0-193)*256 + int(buf[1]), 2, true
	case b0 <= 254:
		if len(buf) < 3 {
			return 0, 0, false
		}
		return 12481 + (b0-241)*65536 + int(buf[1])*256 + int(buf[2]), 3, true
	default:
		return 0, 0, false
	}
}

const xrpAmountSignBit = uint64(0x4000000000000000)

func encodeAmount(a Amount) []byte {
	buf := make([]byte, 8)
	if a.IsXRP {
		v := a.Drops | xrpAmountSignBit
		putU64(buf, v)
		return buf
	}
	// <not-xrp bit=1><sign bit, 1 = positive><8-bit biased exponent><54-bit mantissa>
	out := make([]byte, 48)
	var first byte = 0x80
	if !a.Negative {
		first |= 0x40
	}
	biasedExp := int(a.Exponent) + 97
	first |= byte((biasedExp >> 2) & 0x3F)
	out[0] = first
	out[1] = byte((biasedExp&0x3)<<6) | byte((a.Mantissa>>48)&0x3F)
	out[2] = byte((a.Mantissa >> 40) & 0xff)
	out[3] = byte((a.Mantissa >> 32) & 0xff)
	out[4] = byte((a.Mantissa >> 24) & 0xff)
	out[5] = byte((a.Mantissa >> 16) & 0xff)
	out[6] = byte((a.Mantissa >> 8) & 0xff)
	out[7] = byte(a.Mantissa & 0xff)
	copy(out[8:28], a.Currency[:])
	copy(out[28:48], a.Issuer[:])
	return out
}

func decodeAmount(buf []byte) (Amount, int, bool) {
	if len(buf) < 8 {
		return Amount{}, 0, false
	}
	isXRP := buf[0]&0x80 == 0x00
	if isXRP {
		v := getU64(buf)
		v &^= xrpAmountSignBit
		return Amount{IsXRP: true, Drops: v}, 8, true
	}
	if len(buf) < 48 {
		return Amount{}, 0, false
	}
	negative := buf[0]&0x40 == 0
	biasedExp := int(buf[0]&0x3F)<<2 + int(buf[1]>>6)
	exponent := int8(biasedExp - 97)
	mantissa := uint64(buf[1]&0x3F)<<48 |
		uint64(buf[2])<<40 | uint64(buf[3])<<32 |
		uint64(buf[4])<<24 | uint64(buf[5])<<16 |
		uint64(buf[6])<<8 | uint64(buf[7])
	var a Amount
	a.Negative = negative
	a.Exponent = exponent
	a.Mantissa = mantissa
	copy(a.Currency[:], buf[8:28])
	copy(a.Issuer[:], buf[28:48])
	return a, 48, true
}

func putU64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(v >> (8 * i))
	}
}

func getU64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

func encodeContent(f Field) ([]byte, error) {
	switch f.TypeCode {
	case TypeUInt16:
		return []byte{byte(f.U16 >> 8), byte(f.U16)}, nil
	case TypeUInt32:
		return []byte{byte(f.U32 >> 24), byte(f.U32 >> 16), byte(f.U32 >> 8), byte(f.U32)}, nil
	case TypeAmount:
		return encodeAmount(f.Amount), nil
	case TypeBlob:
		lp, err := encodeLength(len(f.Blob))
		if err != nil {
			return nil, err
		}
		return append(lp, f.Blob...), nil
	case TypeAccount:
		lp, err := encodeLength(address.Size)
		if err != nil {
			return nil, err
		}
		return append(lp, f.Account[:]...), nil
	case TypeObject:
		body, err := Serialize(f.Nested)
		if err != nil {
			return nil, err
		}
		return append(body, encodeFieldID(TypeObject, fieldEndOfObject)...), nil
	case TypeArray:
		var body []byte
		for _, el := range f.Elements {
			body = append(body, encodeFieldID(el.TypeCode, el.FieldCode)...)
			content, err := encodeContent(el)
			if err != nil {
				return nil, err
			}
			body = append(body, content...)
		}
		return append(body, encodeFieldID(TypeArray, fieldEndOfArray)...), nil
	default:
		return nil, fmt.Errorf("fields: unsupported field type %d", f.TypeCode)
	}
}

// Serialize renders fields in canonical sort order (ascending by
// typeCode<<16|fieldCode).
func Serialize(in []Field) ([]byte, error) {
	fs := append([]Field{}, in...)
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].TypeCode<<16|fs[i].FieldCode < fs[j].TypeCode<<16|fs[j].FieldCode
	})

	var buf []byte
	for _, f := range fs {
		buf = append(buf, encodeFieldID(f.TypeCode, f.FieldCode)...)
		content, err := encodeContent(f)
		if err != nil {
			return nil, err
		}
		buf = append(buf, content...)
	}
	return buf, nil
}

// terminatorNone marks a field list with no enclosing end-of-container
// marker (the top level of a transaction's field list).
const terminatorNone = -1

// Deserialize parses a serialized field list back into Fields, stopping
// (without error) at the first field type this package does not decode
// so a round trip stays lossy-but-safe for fields it does not
// understand; n is the number of bytes consumed.
func Deserialize(buf []byte) (fs []Field, n int) {
	return decodeFieldList(buf, terminatorNone)
}

// decodeFieldList parses fields until buf is exhausted or, when
// terminator is not terminatorNone, until the (terminator, 1) end marker
// is consumed — used recursively to parse the contents of a nested
// STObject.
func decodeFieldList(buf []byte, terminator int) (fs []Field, n int) {
	for n < len(buf) {
		typeCode, fieldCode, idLen, ok := decodeFieldID(buf[n:])
		if !ok {
			return fs, n
		}
		if terminator != terminatorNone && typeCode == terminator && fieldCode == 1 {
			n += idLen
			return fs, n
		}

		rest := buf[n+idLen:]
		var f Field
		f.TypeCode, f.FieldCode = typeCode, fieldCode
		var contentLen int
		var decoded bool

		switch typeCode {
		case TypeUInt16:
			if len(rest) >= 2 {
				f.U16 = uint16(rest[0])<<8 | uint16(rest[1])
				contentLen, decoded = 2, true
			}
		case TypeUInt32:
			if len(rest) >= 4 {
				f.U32 = uint32(rest[0])<<24 | uint32(rest[1])<<16 | uint32(rest[2])<<8 | uint32(rest[3])
				contentLen, decoded = 4, true
			}
		case TypeAmount:
			amt, l, ok := decodeAmount(rest)
			if ok {
				f.Amount = amt
				contentLen, decoded = l, true
			}
		case TypeBlob:
			l, lenLen, ok := decodeLength(rest)
			if ok && len(rest) >= lenLen+l {
				f.Blob = append([]byte{}, rest[lenLen:lenLen+l]...)
				contentLen, decoded = lenLen+l, true
			}
		case TypeAccount:
			l, lenLen, ok := decodeLength(rest)
			if ok && l == address.Size && len(rest) >= lenLen+l {
				copy(f.Account[:], rest[lenLen:lenLen+l])
				contentLen, decoded = lenLen+l, true
			}
		case TypeObject:
			nested, nlen := decodeFieldList(rest, TypeObject)
			f.Nested = nested
			contentLen, decoded = nlen, true
		case TypeArray:
			elems, alen := decodeArrayElements(rest)
			f.Elements = elems
			contentLen, decoded = alen, true
		case TypeHash128:
			if len(rest) >= 16 {
				f.Blob = append([]byte{}, rest[:16]...)
				contentLen, decoded = 16, true
			}
		case TypeHash256:
			if len(rest) >= 32 {
				f.Blob = append([]byte{}, rest[:32]...)
				contentLen, decoded = 32, true
			}
		case TypeUInt8:
			if len(rest) >= 1 {
				f.Blob = append([]byte{}, rest[:1]...)
				contentLen, decoded = 1, true
			}
		case TypeHash160:
			if len(rest) >= 20 {
				f.Blob = append([]byte{}, rest[:20]...)
				contentLen, decoded = 20, true
			}
		default:
			// unknown-but-parseable type this codec doesn't implement
			// (PathSet and similar): its length can't be computed
			// generically, so stop collecting further fields at this
			// level rather than guessing. Everything decoded so far is
			// still returned — a round trip is lossy, not broken.
			return fs, n
		}

		if !decoded {
			return fs, n
		}
		fs = append(fs, f)
		n += idLen + contentLen
	}
	return fs, n
}

// decodeArrayElements parses the elements of an STArray up to its
// (TypeArray, 1) end marker. Every element this codec builds is itself
// an STObject (e.g. a Memo); an element of any other shape can't be
// skipped generically, so parsing stops there.
func decodeArrayElements(buf []byte) (elems []Field, n int) {
	for n < len(buf) {
		typeCode, fieldCode, idLen, ok := decodeFieldID(buf[n:])
		if !ok {
			return elems, n
		}
		if typeCode == TypeArray && fieldCode == fieldEndOfArray {
			n += idLen
			return elems, n
		}
		if typeCode != TypeObject {
			return elems, n
		}

		rest := buf[n+idLen:]
		nested, nlen := decodeFieldList(rest, TypeObject)
		elems = append(elems, Field{TypeCode: typeCode, FieldCode: fieldCode, Nested: nested})
		n += idLen + nlen
	}
	return elems, n
}
