// Package address implements XRP account addresses — the 20-byte account
// ID, its base58check string form under the Ripple alphabet, and the two
// sentinel addresses (a fee placeholder and an unresolved-address
// placeholder) the rest of the Ripple packages use when a counterparty is
// not yet known.
package address

import (
	"github.com/shadowfax-labs/spvcore/internal/base58"
	"github.com/shadowfax-labs/spvcore/primitives"
)

// Size is the length of a Ripple account ID in bytes.
const Size = 20

// addressTypeByte prefixes an account ID before base58check encoding,
// identifying it as a Ripple address (as opposed to a seed or other
// Ripple-family payload type).
const addressTypeByte = 0x00

// Address is a 20-byte Ripple account ID.
type Address [Size]byte

// feeBytes and unknownBytes are sentinel account IDs used in place of a
// real address: feeBytes represents "the network, as fee recipient",
// and unknownBytes represents a counterparty that could not be resolved
// from a serialized transaction. Both round-trip through the same
// base58check machinery as a real address would, but are recognized by
// their exact byte pattern and rendered as literal strings instead.
var (
	feeBytes     = [Size]byte{0x42, 0x52, 0x44, 0x5F, 0x5F, 'f', 'e', 'e', 0x5F, 0x5F, 0x42, 0x52, 0x44, 0, 0, 0, 0, 0, 0, 0}
	unknownBytes = [Size]byte{0x42, 0x52, 0x44, 0x5F, 0x5F, 'u', 'n', 'k', 'n', 'o', 'w', 'n', 0x5F, 0x5F, 0x42, 0x52, 0x44, 0, 0, 0}
)

// FeeAddress is the sentinel address for "paid as network fee".
func FeeAddress() Address { return Address(feeBytes) }

// UnknownAddress is the sentinel address for "counterparty unresolved".
func UnknownAddress() Address { return Address(unknownBytes) }

// IsFeeAddress reports whether a is the fee sentinel.
func (a Address) IsFeeAddress() bool { return [Size]byte(a) == feeBytes }

// IsUnknownAddress reports whether a is the unknown sentinel.
func (a Address) IsUnknownAddress() bool { return [Size]byte(a) == unknownBytes }

// FromHash160 builds an account ID directly from a 20-byte hash (the
// RIPEMD160(SHA256(pubkey)) of an account's public key).
func FromHash160(hash [20]byte) Address { return Address(hash) }

// FromPubKey derives the account ID from a compressed or uncompressed
// secp256k1 public key.
func FromPubKey(pubKey []byte) Address {
	return Address(primitives.HASH160(pubKey))
}

// String renders a as its canonical external form: the two sentinels as
// literal strings, everything else as base58check under the Ripple
// alphabet.
func (a Address) String() string {
	switch {
	case a.IsFeeAddress():
		return "__fee__"
	case a.IsUnknownAddress():
		return "unknown"
	default:
		payload := append([]byte{addressTypeByte}, a[:]...)
		return base58.CheckEncode(payload, base58.RippleAlphabet)
	}
}

// Parse reverses String: the empty string and "unknown" both map to the
// unknown sentinel, "__fee__" maps to the fee sentinel, and anything
// else is base58check-decoded under the Ripple alphabet and validated
// to be a 21-byte {addressTypeByte, 20-byte account ID} payload.
func Parse(s string) (Address, bool) {
	switch s {
	case "", "unknown":
		return UnknownAddress(), true
	case "__fee__":
		return FeeAddress(), true
	}

	payload, err := base58.CheckDecode(s, base58.RippleAlphabet)
	if err != nil || len(payload) != 21 || payload[0] != addressTypeByte {
		return Address{}, false
	}
	var a Address
	copy(a[:], payload[1:])
	return a, true
}

// Equal reports whether a and b identify the same account.
func (a Address) Equal(b Address) bool { return a == b }
