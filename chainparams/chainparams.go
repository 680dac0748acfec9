// Package chainparams carries per-network parameters needed to generate
// and validate addresses — version bytes and a fixed list of block-header
// checkpoints used to skip header validation below a known-good height.
package chainparams

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// CheckPoint is a known-good block used as a starting point for a partial
// chain download or to sanity-check difficulty transitions. No peer
// networking, DNS seeding, or difficulty verification is implemented
// here — only the data structure itself.
type CheckPoint struct {
	Height    uint32
	Hash      chainhash.Hash
	Timestamp uint32
	Target    uint32
}

// Params bundles the address version bytes for one network. Network
// selection is a runtime value rather than a build flag, so a host can
// hold mainnet and testnet wallets side by side in one process.
type Params struct {
	Name              string
	PubKeyAddrVersion    byte // P2PKH version byte
	ScriptAddrVersion    byte // P2SH version byte
	PrivateKeyWIFVersion byte // WIF version byte
	Checkpoints          []CheckPoint
}

// MainNet is the mainnet parameter set: pubkey=0, script=5, privkey=128.
var MainNet = Params{
	Name:                 "mainnet",
	PubKeyAddrVersion:    0x00,
	ScriptAddrVersion:    0x05,
	PrivateKeyWIFVersion: 0x80,
}

// TestNet is the testnet parameter set: pubkey=111, script=196, privkey=239.
var TestNet = Params{
	Name:                 "testnet",
	PubKeyAddrVersion:    0x6f,
	ScriptAddrVersion:    0xc4,
	PrivateKeyWIFVersion: 0xef,
}

func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return *h
}

func init() {
	MainNet.Checkpoints = []CheckPoint{
		{Height: 0, Hash: mustHash("12a765e31ffd4059bada1e25190f6e98c99d9714d334efa41a195a7e7e04bfe2"), Timestamp: 1317972665, Target: 0x1e0ffff0},
		{Height: 20160, Hash: mustHash("633036c8df655531c2449b2d09b264cc0b49d945a89be23fd3c1a97361ca198c"), Timestamp: 1319798300, Target: 0x1d055262},
	}
	TestNet.Checkpoints = []CheckPoint{
		{Height: 0, Hash: mustHash("4966625a4b2851d9fdee139e56211a0d88575f59ed816ff5e6a63deb4e3e29a0"), Timestamp: 1486949366, Target: 0x1e0ffff0},
	}
}
