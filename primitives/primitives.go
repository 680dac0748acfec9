// Package primitives implements the hash and key-derivation building
// blocks this wallet is built from: SHA-1/256/512, RIPEMD-160, HASH160,
// HMAC, PBKDF2, scrypt and Murmur3-32. secp256k1 scalar/point operations
// live in the keys package, layered directly on
// github.com/btcsuite/btcd/btcec/v2 rather than re-implemented here.
package primitives

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for HASH160 compatibility
	"golang.org/x/crypto/scrypt"
)

// SHA1 returns the SHA-1 digest of data.
func SHA1(data []byte) [20]byte { return sha1.Sum(data) }

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte { return sha256.Sum256(data) }

// DoubleSHA256 returns SHA-256(SHA-256(data)), the digest used for
// transaction hashes and base58check checksums throughout the module.
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// SHA512 returns the SHA-512 digest of data.
func SHA512(data []byte) [64]byte { return sha512.Sum512(data) }

// RIPEMD160 returns the RIPEMD-160 digest of data.
func RIPEMD160(data []byte) [20]byte {
	h := ripemd160.New()
	h.Write(data)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HASH160 returns RIPEMD-160(SHA-256(data)), the digest used for
// P2PKH/P2SH address hashes.
func HASH160(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	return RIPEMD160(sha[:])
}

// HMACSHA512 computes HMAC-SHA-512(key, data), the primitive underlying
// both BIP-32 child-key derivation and the master-key construction.
func HMACSHA512(key, data []byte) [64]byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	var out [64]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// HMACSHA256 computes HMAC-SHA-256(key, data).
func HMACSHA256(key, data []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// PBKDF2SHA512 derives keyLen bytes via PBKDF2-HMAC-SHA-512, the function
// BIP-39 uses to stretch a mnemonic + passphrase into a 64-byte seed.
func PBKDF2SHA512(password, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, sha512.New)
}

// PBKDF2SHA256 derives keyLen bytes via PBKDF2-HMAC-SHA-256.
func PBKDF2SHA256(password, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New)
}

// Scrypt derives keyLen bytes via scrypt(N, r, p), the cost-parameterized
// KDF that BIP-38 key encryption builds on.
func Scrypt(password, salt []byte, n, r, p, keyLen int) ([]byte, error) {
	return scrypt.Key(password, salt, n, r, p, keyLen)
}

// Murmur3_32 computes the 32-bit Murmur3 hash with the given seed. It has
// no caller inside this module's wallet components and is provided only so
// a host that wants to build a bloom filter on top of this library does not
// also need to vendor a hashing library for it.
func Murmur3_32(data []byte, seed uint32) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)
	h := seed
	nblocks := len(data) / 4

	for i := 0; i < nblocks; i++ {
		k := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		k *= c1
		k = rotl32(k, 15)
		k *= c2

		h ^= k
		h = rotl32(h, 13)
		h = h*5 + 0xe6546b64
	}

	tail := data[nblocks*4:]
	var k1 uint32
	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= c1
		k1 = rotl32(k1, 15)
		k1 *= c2
		h ^= k1
	}

	h ^= uint32(len(data))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

func rotl32(x uint32, r uint) uint32 { return (x << r) | (x >> (32 - r)) }
