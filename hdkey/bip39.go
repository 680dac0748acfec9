// Package hdkey implements BIP-39 mnemonic/seed derivation and BIP-32
// hierarchical child-key derivation along the legacy m/0' account path
// (not BIP-44's m/44'/0'/0' — the historical path this wallet family
// has always used for its Bitcoin-side keys). DeriveBIP44PrivKey
// separately derives private keys along a BIP-44 path
// (m/44'/coin'/account'/change/index).
package hdkey

import (
	"github.com/tyler-smith/go-bip39"

	"github.com/shadowfax-labs/spvcore/walleterr"
)

// MnemonicEncode renders entropy (a multiple of 4 bytes) as a BIP-39
// phrase using the English wordlist.
func MnemonicEncode(entropy []byte) (string, error) {
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", walleterr.New("MnemonicEncode", walleterr.InvalidEncoding, err)
	}
	return phrase, nil
}

// MnemonicDecode reverses MnemonicEncode, rejecting unknown words or a
// bad checksum.
func MnemonicDecode(phrase string) ([]byte, error) {
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, walleterr.New("MnemonicDecode", walleterr.InvalidEncoding, err)
	}
	return entropy, nil
}

// MnemonicValid reports whether phrase is a valid BIP-39 mnemonic without
// returning its entropy.
func MnemonicValid(phrase string) bool {
	return bip39.IsMnemonicValid(phrase)
}

// SeedFromMnemonic derives the 64-byte BIP-39 seed via
// PBKDF2-HMAC-SHA-512(mnemonic, "mnemonic"+passphrase, 2048, 64). The
// go-bip39 library performs its own NFKD normalization internally.
func SeedFromMnemonic(phrase, passphrase string) [64]byte {
	seed := bip39.NewSeed(phrase, passphrase)
	var out [64]byte
	copy(out[:], seed)
	return out
}
