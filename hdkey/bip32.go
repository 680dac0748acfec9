package hdkey

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/shadowfax-labs/spvcore/primitives"
	"github.com/shadowfax-labs/spvcore/walleterr"
)

// HardenedStart is the child index at and above which derivation is
// hardened.
const HardenedStart = 0x80000000

var curveN = btcec.S256().N

func ser32(i uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, i)
	return b
}

func compressedPubKey(secret *big.Int) []byte {
	b := secret.FillBytes(make([]byte, 32))
	_, pub := btcec.PrivKeyFromBytes(b)
	return pub.SerializeCompressed()
}

// ckdPriv implements private-parent-to-private-child derivation:
// I = HMAC-SHA512(cpar, data); ki = IL + kpar mod n; ci = IR.
func ckdPriv(kpar, cpar []byte, i uint32) (childKey, childChain [32]byte, err error) {
	var data []byte
	if i >= HardenedStart {
		data = append([]byte{0x00}, kpar...)
	} else {
		secret := new(big.Int).SetBytes(kpar)
		data = compressedPubKey(secret)
	}
	data = append(data, ser32(i)...)

	I := primitives.HMACSHA512(cpar, data)
	il := new(big.Int).SetBytes(I[:32])
	if il.Cmp(curveN) >= 0 {
		return childKey, childChain, fmt.Errorf("IL >= n, index %d must be skipped", i)
	}

	k := new(big.Int).SetBytes(kpar)
	ki := new(big.Int).Add(il, k)
	ki.Mod(ki, curveN)
	if ki.Sign() == 0 {
		return childKey, childChain, fmt.Errorf("derived key is zero, index %d must be skipped", i)
	}

	kiBytes := ki.FillBytes(make([]byte, 32))
	copy(childKey[:], kiBytes)
	copy(childChain[:], I[32:])
	return childKey, childChain, nil
}

// ckdPub implements public-parent-to-public-child derivation, defined
// only for non-hardened i: I = HMAC-SHA512(cpar, serP(Kpar)||ser32(i));
// Ki = point(IL) + Kpar; ci = IR.
func ckdPub(kpar []byte, cpar []byte, i uint32) (childPub [33]byte, childChain [32]byte, err error) {
	if i >= HardenedStart {
		return childPub, childChain, fmt.Errorf("public derivation undefined for hardened index %d", i)
	}

	data := append(append([]byte{}, kpar...), ser32(i)...)
	I := primitives.HMACSHA512(cpar, data)

	curve := btcec.S256()
	ilX, ilY := curve.ScalarBaseMult(I[:32])

	parentPub, err := btcec.ParsePubKey(kpar)
	if err != nil {
		return childPub, childChain, walleterr.New("ckdPub", walleterr.InvalidKey, err)
	}
	childX, childY := curve.Add(ilX, ilY, parentPub.X(), parentPub.Y())
	if childX.Sign() == 0 && childY.Sign() == 0 {
		return childPub, childChain, fmt.Errorf("derived point is infinity, index %d must be skipped", i)
	}

	childKey, err := btcec.ParsePubKey(serializePoint(childX, childY))
	if err != nil {
		return childPub, childChain, err
	}
	copy(childPub[:], childKey.SerializeCompressed())
	copy(childChain[:], I[32:])
	return childPub, childChain, nil
}

func serializePoint(x, y *big.Int) []byte {
	out := make([]byte, 65)
	out[0] = 0x04
	x.FillBytes(out[1:33])
	y.FillBytes(out[33:65])
	return out
}

// MasterPublicKey is the account-level public extended key: the
// fingerprint, chain code, and compressed public key captured at the
// legacy derivation path m/0'.
type MasterPublicKey struct {
	Fingerprint uint32
	ChainCode   [32]byte
	PubKey      [33]byte
}

// MasterPublicKeyFromSeed computes HMAC-SHA-512("Bitcoin seed", seed) to
// get the master (k,c), derives the hardened child 0', and captures the
// account's fingerprint as the first 4 bytes of HASH160 of the *parent*
// (master) key — i.e. pre-derivation.
func MasterPublicKeyFromSeed(seed []byte) (MasterPublicKey, error) {
	I := primitives.HMACSHA512([]byte("Bitcoin seed"), seed)
	var masterKey [32]byte
	var masterChain [32]byte
	copy(masterKey[:], I[:32])
	copy(masterChain[:], I[32:])

	masterPub := compressedPubKey(new(big.Int).SetBytes(masterKey[:]))
	fingerprint := binary.BigEndian.Uint32(primitives.HASH160(masterPub)[:4])

	childKey, childChain, err := ckdPriv(masterKey[:], masterChain[:], HardenedStart)
	zero(masterKey[:])
	if err != nil {
		return MasterPublicKey{}, err
	}

	childPub := compressedPubKey(new(big.Int).SetBytes(childKey[:]))
	zero(childKey[:])

	var mpk MasterPublicKey
	mpk.Fingerprint = fingerprint
	mpk.ChainCode = childChain
	copy(mpk.PubKey[:], childPub)
	return mpk, nil
}

// PubKeyDerive returns the 33-byte compressed public key at
// CKDpub(CKDpub((mpk.pub, mpk.chain), internal?1:0), index) — the
// external chain (0) for receive addresses, the internal chain (1) for
// change addresses.
func PubKeyDerive(mpk MasterPublicKey, internal bool, index uint32) ([33]byte, error) {
	chainIdx := uint32(0)
	if internal {
		chainIdx = 1
	}

	chainPub, chainChain, err := ckdPub(mpk.PubKey[:], mpk.ChainCode[:], chainIdx)
	if err != nil {
		return [33]byte{}, err
	}
	addrPub, _, err := ckdPub(chainPub[:], chainChain[:], index)
	if err != nil {
		return [33]byte{}, err
	}
	return addrPub, nil
}

// PrivKeyAtPath re-derives the signing private key at m/0'/(internal?1:0)/index
// from the seed, mirroring BRBIP32PrivKey. The returned 32-byte secret is
// the caller's responsibility to zero after use.
func PrivKeyAtPath(seed []byte, internal bool, index uint32) ([32]byte, error) {
	I := primitives.HMACSHA512([]byte("Bitcoin seed"), seed)
	var key, chain [32]byte
	copy(key[:], I[:32])
	copy(chain[:], I[32:])
	defer zero(key[:])
	defer zero(chain[:])

	accountKey, accountChain, err := ckdPriv(key[:], chain[:], HardenedStart)
	if err != nil {
		return [32]byte{}, err
	}
	defer zero(accountKey[:])
	defer zero(accountChain[:])

	chainIdx := uint32(0)
	if internal {
		chainIdx = 1
	}
	chainKey, chainChain, err := ckdPriv(accountKey[:], accountChain[:], chainIdx)
	if err != nil {
		return [32]byte{}, err
	}
	defer zero(chainKey[:])
	defer zero(chainChain[:])

	addrKey, _, err := ckdPriv(chainKey[:], chainChain[:], index)
	if err != nil {
		return [32]byte{}, err
	}
	return addrKey, nil
}

// DeriveBIP44PrivKey derives the private key at
// m/44'/coinType'/account'/change/index from seed. Account-based chains
// (unlike the single m/0' path used elsewhere in this package) need the
// full BIP-44 shape, since their derivation path was never the legacy
// pre-BIP-44 scheme.
func DeriveBIP44PrivKey(seed []byte, coinType, account, change, index uint32) ([32]byte, error) {
	I := primitives.HMACSHA512([]byte("Bitcoin seed"), seed)
	var key, chain [32]byte
	copy(key[:], I[:32])
	copy(chain[:], I[32:])
	defer zero(key[:])
	defer zero(chain[:])

	path := []uint32{
		HardenedStart + 44,
		HardenedStart + coinType,
		HardenedStart + account,
		change,
		index,
	}

	curKey, curChain := key, chain
	for _, idx := range path {
		nextKey, nextChain, err := ckdPriv(curKey[:], curChain[:], idx)
		zero(curKey[:])
		zero(curChain[:])
		if err != nil {
			return [32]byte{}, err
		}
		curKey, curChain = nextKey, nextChain
	}
	defer zero(curChain[:])
	return curKey, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
