// Package base58 implements base58 and base58check encoding over an
// arbitrary 58-character alphabet. The Bitcoin-family address codec and
// the Ripple address codec both need the same big-integer-by-repeated-
// division algorithm but over two different alphabets, so it lives here
// once instead of as two copies.
package base58

import (
	"crypto/sha256"
	"errors"
	"math/big"
)

// BitcoinAlphabet is the standard Bitcoin/IPFS base58 alphabet.
const BitcoinAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// RippleAlphabet is the XRP Ledger's distinct base58 alphabet.
const RippleAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// ErrInvalidChecksum is returned by CheckDecode when the trailing 4-byte
// checksum does not match the double-SHA-256 of the payload.
var ErrInvalidChecksum = errors.New("base58: invalid checksum")

// ErrInvalidCharacter is returned when decoding a string containing a byte
// outside the configured alphabet.
var ErrInvalidCharacter = errors.New("base58: invalid character")

var bigRadix = big.NewInt(58)
var bigZero = big.NewInt(0)

// Encode returns the base58 encoding of b using the given alphabet. Leading
// zero bytes in b become leading alphabet[0] characters, matching the
// convention used by both Bitcoin and Ripple addresses.
func Encode(b []byte, alphabet string) string {
	x := new(big.Int).SetBytes(b)
	mod := new(big.Int)
	var out []byte

	for x.Cmp(bigZero) > 0 {
		x.DivMod(x, bigRadix, mod)
		out = append(out, alphabet[mod.Int64()])
	}

	for _, c := range b {
		if c != 0 {
			break
		}
		out = append(out, alphabet[0])
	}
	reverse(out)
	return string(out)
}

// Decode reverses Encode. It returns ErrInvalidCharacter if s contains a
// byte not present in alphabet.
func Decode(s string, alphabet string) ([]byte, error) {
	index := make(map[byte]int64, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		index[alphabet[i]] = int64(i)
	}

	x := new(big.Int)
	for i := 0; i < len(s); i++ {
		v, ok := index[s[i]]
		if !ok {
			return nil, ErrInvalidCharacter
		}
		x.Mul(x, bigRadix)
		x.Add(x, big.NewInt(v))
	}

	decoded := x.Bytes()

	// restore leading zero bytes, one per leading alphabet[0] character
	numLeadingZeros := 0
	for i := 0; i < len(s) && s[i] == alphabet[0]; i++ {
		numLeadingZeros++
	}

	out := make([]byte, numLeadingZeros+len(decoded))
	copy(out[numLeadingZeros:], decoded)
	return out, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func doubleSHA256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// CheckEncode appends the first 4 bytes of double-SHA-256(payload) to
// payload and base58-encodes the result.
func CheckEncode(payload []byte, alphabet string) string {
	checksum := doubleSHA256(payload)
	buf := make([]byte, 0, len(payload)+4)
	buf = append(buf, payload...)
	buf = append(buf, checksum[:4]...)
	return Encode(buf, alphabet)
}

// CheckDecode reverses CheckEncode, verifying the checksum. It returns
// ErrInvalidChecksum if the trailing 4 bytes don't match.
func CheckDecode(s string, alphabet string) ([]byte, error) {
	full, err := Decode(s, alphabet)
	if err != nil {
		return nil, err
	}
	if len(full) < 4 {
		return nil, ErrInvalidChecksum
	}
	payload := full[:len(full)-4]
	checksum := full[len(full)-4:]
	expected := doubleSHA256(payload)
	for i := 0; i < 4; i++ {
		if checksum[i] != expected[i] {
			return nil, ErrInvalidChecksum
		}
	}
	return payload, nil
}
