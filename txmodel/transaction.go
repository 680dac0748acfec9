// Package txmodel implements the UTXO transaction model: wire
// serialization (with subscript substitution for signing), the signing
// loop, and size computation; fee estimation lives in utxowallet. Every
// operation is implemented for real, since the wallet engine depends on
// working versions of all of them.
package txmodel

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/shadowfax-labs/spvcore/chainparams"
	"github.com/shadowfax-labs/spvcore/codec"
	"github.com/shadowfax-labs/spvcore/keys"
	"github.com/shadowfax-labs/spvcore/primitives"
	"github.com/shadowfax-labs/spvcore/script"
)

const (
	// TxVersion is the only transaction version this module emits.
	TxVersion = uint32(1)
	// TxInSequenceFinal marks an input as not subject to replacement.
	TxInSequenceFinal = uint32(0xffffffff)
	// SighashAll is the only sighash type the signing loop uses.
	SighashAll = uint32(0x00000001)
)

// TxIn is a transaction input. Address is a denormalized convenience
// field that the wallet engine sets at registration from the previous
// output's script when that script is recognized (a caller-supplied value
// is kept otherwise); it is NOT part of the wire format. The wallet engine
// decides membership by looking an Address value up in its own address
// index (see utxowallet).
type TxIn struct {
	PrevTxHash   chainhash.Hash
	PrevOutIndex uint32
	Script       []byte // the previous output's scriptPubKey, needed for signing
	Signature    []byte // the scriptSig; empty until signed
	Sequence     uint32
	Address      string
}

// TxOut is a transaction output.
type TxOut struct {
	Amount  uint64
	Script  []byte
	Address string
}

// Transaction is a UTXO transaction.
type Transaction struct {
	TxHash      chainhash.Hash
	Version     uint32
	Inputs      []TxIn
	Outputs     []TxOut
	LockTime    uint32
	BlockHeight uint32 // math.MaxUint32 == unconfirmed
	Timestamp   uint32
}

// UnconfirmedHeight is the sentinel BlockHeight for an unconfirmed tx.
const UnconfirmedHeight = ^uint32(0)

// New returns an empty transaction ready to have inputs/outputs appended.
func New() *Transaction {
	return &Transaction{Version: TxVersion, BlockHeight: UnconfirmedHeight}
}

func (tx *Transaction) AddInput(in TxIn) { tx.Inputs = append(tx.Inputs, in) }

func (tx *Transaction) AddOutput(out TxOut) { tx.Outputs = append(tx.Outputs, out) }

// data serializes tx's wire format. If subscriptIdx is a valid input
// index, that input's script field is replaced with its prevOut
// scriptPubKey (substituted as the signing subscript) and all other
// inputs' signature scripts are emptied, with a trailing little-endian
// SIGHASH_ALL u32 appended. Pass subscriptIdx = len(tx.Inputs) (or any
// out-of-range value) for the final, fully-signed serialization.
func (tx *Transaction) data(subscriptIdx int) []byte {
	var buf []byte

	verBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(verBuf, tx.Version)
	buf = append(buf, verBuf...)

	buf = codec.VarIntEncode(buf, uint64(len(tx.Inputs)))
	for i, in := range tx.Inputs {
		buf = append(buf, reverseBytes(in.PrevTxHash[:])...)

		idxBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(idxBuf, in.PrevOutIndex)
		buf = append(buf, idxBuf...)

		var sigScript []byte
		switch {
		case i == subscriptIdx:
			sigScript = in.Script
		case subscriptIdx >= 0 && subscriptIdx < len(tx.Inputs):
			sigScript = nil
		default:
			sigScript = in.Signature
		}

		buf = codec.VarIntEncode(buf, uint64(len(sigScript)))
		buf = append(buf, sigScript...)

		seqBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(seqBuf, in.Sequence)
		buf = append(buf, seqBuf...)
	}

	buf = codec.VarIntEncode(buf, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		amtBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(amtBuf, out.Amount)
		buf = append(buf, amtBuf...)
		buf = codec.VarIntEncode(buf, uint64(len(out.Script)))
		buf = append(buf, out.Script...)
	}

	lockBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lockBuf, tx.LockTime)
	buf = append(buf, lockBuf...)

	if subscriptIdx >= 0 && subscriptIdx < len(tx.Inputs) {
		sigHashBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(sigHashBuf, SighashAll)
		buf = append(buf, sigHashBuf...)
	}

	return buf
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// Serialize returns the fully-assembled wire form (no signing-subscript
// substitution), used both for network transmission and for the final
// txHash.
func (tx *Transaction) Serialize() []byte { return tx.data(len(tx.Inputs)) }

// Deserialize parses a serialized transaction, reversing Serialize.
func Deserialize(buf []byte) (*Transaction, bool) {
	tx := New()
	if len(buf) < 4+1+1+4 {
		return nil, false
	}
	off := 0
	tx.Version = binary.LittleEndian.Uint32(buf[off:])
	off += 4

	inCount, n := codec.VarIntDecode(buf[off:])
	if n == 0 {
		return nil, false
	}
	off += n

	for i := uint64(0); i < inCount; i++ {
		if off+32+4 > len(buf) {
			return nil, false
		}
		var in TxIn
		copy(in.PrevTxHash[:], reverseBytes(buf[off:off+32]))
		off += 32
		in.PrevOutIndex = binary.LittleEndian.Uint32(buf[off:])
		off += 4

		scriptLen, n := codec.VarIntDecode(buf[off:])
		if n == 0 {
			return nil, false
		}
		off += n
		if off+int(scriptLen) > len(buf) {
			return nil, false
		}
		in.Signature = append([]byte{}, buf[off:off+int(scriptLen)]...)
		off += int(scriptLen)

		if off+4 > len(buf) {
			return nil, false
		}
		in.Sequence = binary.LittleEndian.Uint32(buf[off:])
		off += 4

		tx.Inputs = append(tx.Inputs, in)
	}

	outCount, n := codec.VarIntDecode(buf[off:])
	if n == 0 {
		return nil, false
	}
	off += n

	for i := uint64(0); i < outCount; i++ {
		if off+8 > len(buf) {
			return nil, false
		}
		var out TxOut
		out.Amount = binary.LittleEndian.Uint64(buf[off:])
		off += 8

		scriptLen, n := codec.VarIntDecode(buf[off:])
		if n == 0 {
			return nil, false
		}
		off += n
		if off+int(scriptLen) > len(buf) {
			return nil, false
		}
		out.Script = append([]byte{}, buf[off:off+int(scriptLen)]...)
		off += int(scriptLen)

		tx.Outputs = append(tx.Outputs, out)
	}

	if off+4 > len(buf) {
		return nil, false
	}
	tx.LockTime = binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if off != len(buf) {
		return nil, false
	}

	digest := primitives.DoubleSHA256(tx.Serialize())
	copy(tx.TxHash[:], reverseBytes(digest[:]))
	return tx, true
}

// Size returns the serialized size in bytes.
func (tx *Transaction) Size() int { return len(tx.data(len(tx.Inputs))) }

// ShuffleOutputs performs a Fisher-Yates shuffle of tx.Outputs using the
// process RNG, so a wallet's change output isn't predictably last.
func (tx *Transaction) ShuffleOutputs() {
	for i := 0; i+1 < len(tx.Outputs); i++ {
		j := i + randIntn(len(tx.Outputs)-i)
		tx.Outputs[i], tx.Outputs[j] = tx.Outputs[j], tx.Outputs[i]
	}
}

func randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// IsSigned reports whether every input carries a non-empty signature.
func (tx *Transaction) IsSigned() bool {
	for _, in := range tx.Inputs {
		if len(in.Signature) == 0 {
			return false
		}
	}
	return len(tx.Inputs) > 0
}

// SeedSupplier re-derives the private key authorizing a wallet-chain
// position; it returns ok=false if the caller declines to sign (e.g. a
// user cancelled an auth prompt), producing SignerRefused.
type SeedSupplier func(internal bool, index uint32) (*keys.Key, bool)

// Sign walks tx's inputs, signing any whose scriptPubKey is P2PKH and
// whose hash matches a key the supplier can produce. For each match it
// serializes tx with that input's subscript substituted, double-SHA-256s
// the result, signs with RFC-6979, and writes
// push(DER(sig) || SIGHASH_ALL byte) || push(pubkey) as the scriptSig.
// Each key the supplier returns is cleaned right after it signs.
// Non-matching inputs are left untouched. Returns true iff every input
// ends up signed.
func Sign(tx *Transaction, params chainparams.Params, addressAt func(address string) (internal bool, index uint32, ok bool), supplier SeedSupplier) bool {
	for i := range tx.Inputs {
		in := &tx.Inputs[i]

		addr, ok := script.AddressFromScriptPubKey(in.Script, params)
		if !ok {
			continue
		}
		internal, index, ok := addressAt(addr)
		if !ok {
			continue
		}
		key, ok := supplier(internal, index)
		if !ok || key == nil {
			continue
		}

		digest := primitives.DoubleSHA256(tx.data(i))
		der, err := key.Sign(digest)
		key.Clean()
		if err != nil {
			continue
		}

		sigScript := make([]byte, 0, len(der)+2+35)
		sigScript = append(sigScript, codec.PushData(append(der, byte(SighashAll)))...)
		sigScript = append(sigScript, codec.PushData(key.PubKey())...)
		in.Signature = sigScript
	}

	if !tx.IsSigned() {
		return false
	}

	digest := primitives.DoubleSHA256(tx.Serialize())
	copy(tx.TxHash[:], reverseBytes(digest[:]))
	return true
}
