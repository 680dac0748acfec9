package hdkey

import (
	"encoding/binary"

	"github.com/shadowfax-labs/spvcore/internal/base58"
)

// Extended-key version prefixes for mainnet xprv/xpub strings.
var (
	xprvVersion = [4]byte{0x04, 0x88, 0xad, 0xe4}
	xpubVersion = [4]byte{0x04, 0x88, 0xb2, 0x1e}
)

// SerializeMasterPubKey renders mpk as a standard BIP-32 extended public
// key string, letting a host hand an xpub to other tooling.
//
// depth and childNum describe this key's position for a host that tracks
// more than the single account level the rest of this package models;
// pass 1 and HardenedStart for a plain m/0' account key.
func SerializeMasterPubKey(mpk MasterPublicKey, depth byte, childNum uint32) string {
	buf := make([]byte, 0, 78)
	buf = append(buf, xpubVersion[:]...)
	buf = append(buf, depth)

	parentFP := make([]byte, 4)
	binary.BigEndian.PutUint32(parentFP, mpk.Fingerprint)
	buf = append(buf, parentFP...)

	childNumBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(childNumBytes, childNum)
	buf = append(buf, childNumBytes...)

	buf = append(buf, mpk.ChainCode[:]...)
	buf = append(buf, mpk.PubKey[:]...)

	return base58.CheckEncode(buf, base58.BitcoinAlphabet)
}

// DeserializeMasterPubKey reverses SerializeMasterPubKey.
func DeserializeMasterPubKey(s string) (mpk MasterPublicKey, depth byte, childNum uint32, err error) {
	buf, err := base58.CheckDecode(s, base58.BitcoinAlphabet)
	if err != nil {
		return mpk, 0, 0, err
	}
	if len(buf) != 78 {
		return mpk, 0, 0, errShortExtendedKey
	}
	depth = buf[4]
	mpk.Fingerprint = binary.BigEndian.Uint32(buf[5:9])
	childNum = binary.BigEndian.Uint32(buf[9:13])
	copy(mpk.ChainCode[:], buf[13:45])
	copy(mpk.PubKey[:], buf[45:78])
	return mpk, depth, childNum, nil
}

var errShortExtendedKey = extendedKeyLengthError{}

type extendedKeyLengthError struct{}

func (extendedKeyLengthError) Error() string { return "hdkey: serialized extended key must be 78 bytes" }
