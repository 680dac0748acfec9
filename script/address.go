// Package script implements recognizing standard Bitcoin scripts and
// converting between scripts and base58check addresses.
package script

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/shadowfax-labs/spvcore/chainparams"
	"github.com/shadowfax-labs/spvcore/codec"
	"github.com/shadowfax-labs/spvcore/internal/base58"
	"github.com/shadowfax-labs/spvcore/primitives"
)

// AddressFromScriptPubKey recognizes exactly the three standard receive
// script templates. Strict by design: accepting the wrong thing
// here means crediting funds nobody can spend; missing a real one means
// missing funds. Returns ("", false) for anything else.
func AddressFromScriptPubKey(scriptPubKey []byte, params chainparams.Params) (string, bool) {
	elems, ok := codec.ScriptElements(scriptPubKey)
	if !ok {
		return "", false
	}

	// P2PKH: OP_DUP OP_HASH160 <20> <hash20> OP_EQUALVERIFY OP_CHECKSIG
	if len(elems) == 5 &&
		opAt(scriptPubKey, elems[0]) == txscript.OP_DUP &&
		opAt(scriptPubKey, elems[1]) == txscript.OP_HASH160 &&
		elems[2].Length == 20 &&
		opAt(scriptPubKey, elems[3]) == txscript.OP_EQUALVERIFY &&
		opAt(scriptPubKey, elems[4]) == txscript.OP_CHECKSIG {
		return hashToAddress(elems[2].Bytes(scriptPubKey), params.PubKeyAddrVersion, params), true
	}

	// P2SH: OP_HASH160 <20> <hash20> OP_EQUAL
	if len(elems) == 3 &&
		opAt(scriptPubKey, elems[0]) == txscript.OP_HASH160 &&
		elems[1].Length == 20 &&
		opAt(scriptPubKey, elems[2]) == txscript.OP_EQUAL {
		return hashToAddress(elems[1].Bytes(scriptPubKey), params.ScriptAddrVersion, params), true
	}

	// P2PK: <33|65> <pubkey> OP_CHECKSIG
	if len(elems) == 2 &&
		(elems[0].Length == 33 || elems[0].Length == 65) &&
		opAt(scriptPubKey, elems[1]) == txscript.OP_CHECKSIG {
		hash := primitives.HASH160(elems[0].Bytes(scriptPubKey))
		return hashToAddress(hash[:], params.PubKeyAddrVersion, params), true
	}

	return "", false
}

// AddressFromScriptSig recognizes spend scripts permissively: it helps
// with attribution only, so guessing wrong merely mislabels a
// transaction rather than losing funds.
func AddressFromScriptSig(scriptSig []byte, params chainparams.Params) (string, bool) {
	elems, ok := codec.ScriptElements(scriptSig)
	if !ok || len(elems) == 0 {
		return "", false
	}

	last := elems[len(elems)-1]

	// (a) trailing push of 33/65 bytes is a pubkey over a prior signature
	// push → P2PKH for HASH160(pubkey).
	if len(elems) >= 2 && (last.Length == 33 || last.Length == 65) {
		hash := primitives.HASH160(last.Bytes(scriptSig))
		return hashToAddress(hash[:], params.PubKeyAddrVersion, params), true
	}

	// (b) two trailing data pushes, the last interpreted as the
	// redeemscript → P2SH for HASH160(redeemscript).
	if len(elems) >= 2 {
		hash := primitives.HASH160(last.Bytes(scriptSig))
		return hashToAddress(hash[:], params.ScriptAddrVersion, params), true
	}

	// (c) a lone signature push is not yet recoverable.
	return "", false
}

func opAt(script []byte, e codec.Element) byte {
	if e.Length != 0 {
		return 0 // data push, not an opcode
	}
	return script[e.Offset]
}

func hashToAddress(hash []byte, version byte, params chainparams.Params) string {
	payload := append([]byte{version}, hash...)
	return base58.CheckEncode(payload, base58.BitcoinAlphabet)
}

// ScriptPubKeyFromAddress decodes a base58check address and emits the
// matching scriptPubKey template (25-byte P2PKH or 23-byte P2SH), or nil
// if the version byte matches neither.
func ScriptPubKeyFromAddress(address string, params chainparams.Params) []byte {
	payload, err := base58.CheckDecode(address, base58.BitcoinAlphabet)
	if err != nil || len(payload) != 21 {
		return nil
	}
	version, hash := payload[0], payload[1:]

	switch version {
	case params.PubKeyAddrVersion:
		out := []byte{txscript.OP_DUP, txscript.OP_HASH160}
		out = append(out, codec.PushData(hash)...)
		return append(out, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)
	case params.ScriptAddrVersion:
		out := []byte{txscript.OP_HASH160}
		out = append(out, codec.PushData(hash)...)
		return append(out, txscript.OP_EQUAL)
	default:
		return nil
	}
}

// AddressIsValid reports whether s decodes as base58check with a valid
// checksum and a recognized version byte for params.
func AddressIsValid(s string, params chainparams.Params) bool {
	payload, err := base58.CheckDecode(s, base58.BitcoinAlphabet)
	if err != nil || len(payload) != 21 {
		return false
	}
	return payload[0] == params.PubKeyAddrVersion || payload[0] == params.ScriptAddrVersion
}
