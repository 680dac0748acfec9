package keys

import (
	"fmt"

	"github.com/shadowfax-labs/spvcore/walleterr"
)

// BIP-38 (passphrase-encrypted private keys) is declared but not
// implemented: the surface stays present and returns Unsupported rather
// than silently dropping it. The scrypt primitive it would need is
// already wired (see primitives.Scrypt) so a host that implements
// decryption on top of this package does not need to add a new KDF
// dependency.

// DecryptBIP38Key would decrypt a BIP-38 encrypted private key string
// given a passphrase. Not implemented; always returns Unsupported.
func DecryptBIP38Key(encryptedKey, passphrase string) (*Key, error) {
	return nil, walleterr.New("DecryptBIP38Key", walleterr.Unsupported,
		fmt.Errorf("BIP-38 decryption is declared but not implemented"))
}

// EncryptBIP38Key would encrypt a private key under a passphrase per
// BIP-38. Not implemented; always returns Unsupported.
func EncryptBIP38Key(key *Key, passphrase string) (string, error) {
	return "", walleterr.New("EncryptBIP38Key", walleterr.Unsupported,
		fmt.Errorf("BIP-38 encryption is declared but not implemented"))
}
