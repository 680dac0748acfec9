package hdkey

import (
	"encoding/hex"
	"testing"

	"github.com/shadowfax-labs/spvcore/internal/base58"
)

func TestSerializeDeserializeMasterPubKeyRoundTrip(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	mpk, err := MasterPublicKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("MasterPublicKeyFromSeed() error = %v", err)
	}

	xpub := SerializeMasterPubKey(mpk, 1, HardenedStart)
	if xpub[:4] != "xpub" {
		t.Errorf("SerializeMasterPubKey() = %q, want xpub prefix", xpub)
	}

	got, depth, childNum, err := DeserializeMasterPubKey(xpub)
	if err != nil {
		t.Fatalf("DeserializeMasterPubKey() error = %v", err)
	}
	if got != mpk {
		t.Errorf("round trip mpk = %+v, want %+v", got, mpk)
	}
	if depth != 1 {
		t.Errorf("depth = %d, want 1", depth)
	}
	if childNum != HardenedStart {
		t.Errorf("childNum = %d, want %d", childNum, HardenedStart)
	}
}

func TestDeserializeMasterPubKeyRejectsWrongLength(t *testing.T) {
	// A well-formed base58check string that doesn't decode to 78 bytes.
	short := base58.CheckEncode([]byte{0x04, 0x88, 0xb2, 0x1e, 0x00}, base58.BitcoinAlphabet)
	if _, _, _, err := DeserializeMasterPubKey(short); err == nil {
		t.Error("DeserializeMasterPubKey() should fail on a non-78-byte payload")
	}
}

func TestDeserializeMasterPubKeyRejectsBadChecksum(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	mpk, err := MasterPublicKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("MasterPublicKeyFromSeed() error = %v", err)
	}
	xpub := SerializeMasterPubKey(mpk, 1, HardenedStart)

	corrupted := []byte(xpub)
	if corrupted[len(corrupted)-1] == 'a' {
		corrupted[len(corrupted)-1] = 'b'
	} else {
		corrupted[len(corrupted)-1] = 'a'
	}

	if _, _, _, err := DeserializeMasterPubKey(string(corrupted)); err == nil {
		t.Error("DeserializeMasterPubKey() should fail on a corrupted checksum")
	}
}
