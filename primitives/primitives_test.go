package primitives

import (
	"encoding/hex"
	"testing"
)

func TestSHA256KnownVector(t *testing.T) {
	// NIST vector: SHA-256("abc")
	got := SHA256([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"[:64]
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("SHA256(abc) = %x, want %s", got, want)
	}
}

func TestDoubleSHA256(t *testing.T) {
	data := []byte("hello")
	got := DoubleSHA256(data)
	first := SHA256(data)
	want := SHA256(first[:])
	if got != want {
		t.Errorf("DoubleSHA256() = %x, want %x", got, want)
	}
}

func TestSHA1KnownVector(t *testing.T) {
	got := SHA1([]byte("abc"))
	want := "a9993e364706816aba3e25717850c26c9cd0d89d"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("SHA1(abc) = %x, want %s", got, want)
	}
}

func TestSHA512Length(t *testing.T) {
	got := SHA512([]byte("abc"))
	if len(got) != 64 {
		t.Errorf("SHA512() length = %d, want 64", len(got))
	}
}

func TestRIPEMD160KnownVector(t *testing.T) {
	got := RIPEMD160([]byte(""))
	want := "9c1185a5c5e9fc54612808977ee8f548b2258d31"[:40]
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("RIPEMD160(\"\") = %x, want %s", got, want)
	}
}

func TestHASH160IsRipemdOfSha256(t *testing.T) {
	data := []byte("test pubkey bytes")
	sha := SHA256(data)
	want := RIPEMD160(sha[:])
	got := HASH160(data)
	if got != want {
		t.Errorf("HASH160() = %x, want %x", got, want)
	}
}

func TestHMACSHA512Deterministic(t *testing.T) {
	key := []byte("Bitcoin seed")
	data := []byte{0x01, 0x02, 0x03}
	a := HMACSHA512(key, data)
	b := HMACSHA512(key, data)
	if a != b {
		t.Error("HMACSHA512 should be deterministic")
	}

	c := HMACSHA512(key, []byte{0x01, 0x02, 0x04})
	if a == c {
		t.Error("HMACSHA512 should differ for different input")
	}
}

func TestHMACSHA256Deterministic(t *testing.T) {
	a := HMACSHA256([]byte("key"), []byte("data"))
	b := HMACSHA256([]byte("key"), []byte("data"))
	if a != b {
		t.Error("HMACSHA256 should be deterministic")
	}
}

func TestPBKDF2SHA512Length(t *testing.T) {
	got := PBKDF2SHA512([]byte("mnemonic"), []byte("salt"), 2048, 64)
	if len(got) != 64 {
		t.Errorf("PBKDF2SHA512() length = %d, want 64", len(got))
	}
}

func TestPBKDF2SHA256Deterministic(t *testing.T) {
	a := PBKDF2SHA256([]byte("pw"), []byte("salt"), 100, 32)
	b := PBKDF2SHA256([]byte("pw"), []byte("salt"), 100, 32)
	if hex.EncodeToString(a) != hex.EncodeToString(b) {
		t.Error("PBKDF2SHA256 should be deterministic")
	}
}

func TestScryptDeterministic(t *testing.T) {
	a, err := Scrypt([]byte("password"), []byte("salt"), 16, 8, 1, 32)
	if err != nil {
		t.Fatalf("Scrypt() error = %v", err)
	}
	b, err := Scrypt([]byte("password"), []byte("salt"), 16, 8, 1, 32)
	if err != nil {
		t.Fatalf("Scrypt() error = %v", err)
	}
	if hex.EncodeToString(a) != hex.EncodeToString(b) {
		t.Error("Scrypt should be deterministic for same inputs")
	}
	if len(a) != 32 {
		t.Errorf("Scrypt() length = %d, want 32", len(a))
	}
}

func TestScryptInvalidParams(t *testing.T) {
	// N must be a power of 2 greater than 1.
	if _, err := Scrypt([]byte("pw"), []byte("salt"), 3, 8, 1, 32); err == nil {
		t.Error("Scrypt() with non-power-of-two N should fail")
	}
}

func TestMurmur3_32Deterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	a := Murmur3_32(data, 0)
	b := Murmur3_32(data, 0)
	if a != b {
		t.Error("Murmur3_32 should be deterministic")
	}

	c := Murmur3_32(data, 1)
	if a == c {
		t.Error("Murmur3_32 should differ for different seed")
	}
}

func TestMurmur3_32EmptyInput(t *testing.T) {
	// Must not panic on an empty slice (tail-handling edge case).
	_ = Murmur3_32(nil, 0)
	_ = Murmur3_32([]byte{}, 0)
}

func TestMurmur3_32ShortTail(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i + 1)
		}
		// Must not panic for any tail length.
		_ = Murmur3_32(data, 0)
	}
}
