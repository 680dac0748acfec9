// Package keys implements private-key import/export, public-key
// derivation, P2PKH address generation, signing/verification and
// compact-signature recovery.
package keys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/shadowfax-labs/spvcore/chainparams"
	"github.com/shadowfax-labs/spvcore/internal/base58"
	"github.com/shadowfax-labs/spvcore/primitives"
	"github.com/shadowfax-labs/spvcore/walleterr"
)

// Key is a secp256k1 keypair plus the compressed/uncompressed shape flag
// that governs WIF export and address derivation.
type Key struct {
	secret     [32]byte
	compressed bool
	priv       *btcec.PrivateKey // nil for a public-key-only Key
	pub        *btcec.PublicKey
}

// KeyFromSecret builds a Key directly from a 256-bit scalar, verifying
// 0 < s < n as BRKeySetSecret does.
func KeyFromSecret(secret [32]byte, compressed bool) (*Key, error) {
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(secret[:]); overflow || s.IsZero() {
		return nil, walleterr.New("KeyFromSecret", walleterr.InvalidKey, fmt.Errorf("scalar out of range"))
	}
	s.Zero()
	priv, pub := btcec.PrivKeyFromBytes(secret[:])
	k := &Key{secret: secret, compressed: compressed, priv: priv, pub: pub}
	zero(secret[:])
	return k, nil
}

// GenerateSecret returns 32 bytes of cryptographically random scalar
// material suitable for KeyFromSecret.
func GenerateSecret() ([32]byte, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return buf, err
	}
	return buf, nil
}

// mini-key validation: SHA-256(key + "?")'s first byte must be zero.
func isValidMiniKey(s string) bool {
	if len(s) != 22 && len(s) != 30 {
		return false
	}
	if s[0] != 'S' {
		return false
	}
	check := primitives.SHA256([]byte(s + "?"))
	return check[0] == 0
}

// PrivKeyIsValid reports whether s parses as any of the three private
// key string forms this package accepts: a WIF base58check key, a
// mini-key, or 64-char hex.
func PrivKeyIsValid(s string) bool {
	if isValidMiniKey(s) {
		return true
	}
	if len(s) == 64 && isHex(s) {
		return true
	}
	if _, _, err := decodeWIF(s); err == nil {
		return true
	}
	return false
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// decodeWIF base58check-decodes a WIF string, returning the 32-byte
// secret and whether the trailing 0x01 compressed marker is present.
func decodeWIF(s string) ([32]byte, bool, error) {
	var secret [32]byte
	payload, err := base58.CheckDecode(s, base58.BitcoinAlphabet)
	if err != nil {
		return secret, false, err
	}
	if len(payload) != 33 && len(payload) != 34 {
		return secret, false, fmt.Errorf("invalid WIF payload length %d", len(payload))
	}
	// payload[0] is the network version byte; caller doesn't need it to
	// decode the scalar (validity across networks is a host policy).
	compressed := len(payload) == 34
	copy(secret[:], payload[1:33])
	return secret, compressed, nil
}

// ImportPrivKey dispatches on shape exactly as BRKeySetPrivKey does:
// mini-key, WIF base58check, or 64-char hex.
func ImportPrivKey(s string) (*Key, error) {
	if isValidMiniKey(s) {
		secret := primitives.SHA256([]byte(s))
		return KeyFromSecret(secret, false)
	}
	if len(s) == 64 && isHex(s) {
		var secret [32]byte
		raw, err := hexDecode(s)
		if err != nil {
			return nil, walleterr.New("ImportPrivKey", walleterr.InvalidEncoding, err)
		}
		copy(secret[:], raw)
		return KeyFromSecret(secret, true)
	}
	secret, compressed, err := decodeWIF(s)
	if err != nil {
		return nil, walleterr.New("ImportPrivKey", walleterr.InvalidEncoding, err)
	}
	return KeyFromSecret(secret, compressed)
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// ExportPrivKey renders the key as WIF base58check under params.
func (k *Key) ExportPrivKey(params chainparams.Params) string {
	payload := make([]byte, 0, 34)
	payload = append(payload, params.PrivateKeyWIFVersion)
	payload = append(payload, k.secret[:]...)
	if k.compressed {
		payload = append(payload, 0x01)
	}
	return base58.CheckEncode(payload, base58.BitcoinAlphabet)
}

// KeyFromPubKey builds a public-key-only Key (no signing capability) from
// a 33- or 65-byte serialized public key.
func KeyFromPubKey(b []byte) (*Key, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, walleterr.New("KeyFromPubKey", walleterr.InvalidKey, err)
	}
	return &Key{pub: pub, compressed: len(b) == 33}, nil
}

// PubKey returns the compressed or uncompressed serialized public key,
// matching the key's compressed flag. The public key itself is derived
// once, when the Key is constructed, and stored.
func (k *Key) PubKey() []byte {
	if k.compressed {
		return k.pub.SerializeCompressed()
	}
	return k.pub.SerializeUncompressed()
}

// Compressed reports the key's compressed/uncompressed shape flag.
func (k *Key) Compressed() bool { return k.compressed }

// Hash160 returns RIPEMD-160(SHA-256(pubkey)), the address hash.
func (k *Key) Hash160() [20]byte {
	return primitives.HASH160(k.PubKey())
}

// Address returns the P2PKH address for this key under params.
func (k *Key) Address(params chainparams.Params) string {
	hash := k.Hash160()
	payload := append([]byte{params.PubKeyAddrVersion}, hash[:]...)
	return base58.CheckEncode(payload, base58.BitcoinAlphabet)
}

// Sign produces a DER-encoded ECDSA signature over a 256-bit digest
// using RFC-6979 deterministic nonces.
func (k *Key) Sign(digest [32]byte) ([]byte, error) {
	if k.priv == nil {
		return nil, walleterr.New("Sign", walleterr.InvalidKey, fmt.Errorf("no private key"))
	}
	sig := ecdsa.Sign(k.priv, digest[:])
	return sig.Serialize(), nil
}

// Verify checks a DER signature over a 256-bit digest against this key's
// public key.
func (k *Key) Verify(digest [32]byte, der []byte) bool {
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], k.pub)
}

// CompactSign produces the 65-byte recoverable signature format
// [27+recid+(compressed?4:0) || r || s].
func (k *Key) CompactSign(digest [32]byte) ([]byte, error) {
	if k.priv == nil {
		return nil, walleterr.New("CompactSign", walleterr.InvalidKey, fmt.Errorf("no private key"))
	}
	sig := ecdsa.SignCompact(k.priv, digest[:], k.compressed)
	// btcec's SignCompact already uses the 27+recid+(compressed?4:0)
	// prefix convention; return as-is.
	return sig, nil
}

// RecoverPubKey recovers the public key from a 65-byte compact signature
// and the signed digest.
func RecoverPubKey(digest [32]byte, compactSig []byte) (*Key, error) {
	pub, compressed, err := ecdsa.RecoverCompact(compactSig, digest[:])
	if err != nil {
		return nil, walleterr.New("RecoverPubKey", walleterr.InvalidKey, err)
	}
	return &Key{pub: pub, compressed: compressed}, nil
}

// Clean zeroes the private scalar so it no longer lingers in memory once
// a caller is done signing with it.
func (k *Key) Clean() {
	zero(k.secret[:])
	k.priv = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
