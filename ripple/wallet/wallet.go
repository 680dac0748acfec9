// Package wallet implements the XRP account wallet — balance and
// sequence tracking derived from a transfer history, rather than from a
// spendable-output set the way the UTXO side works.
package wallet

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/shadowfax-labs/spvcore/hdkey"
	"github.com/shadowfax-labs/spvcore/keys"
	"github.com/shadowfax-labs/spvcore/ripple/address"
	"github.com/shadowfax-labs/spvcore/ripple/transaction"
	"github.com/shadowfax-labs/spvcore/walleterr"
)

// CoinType is XRP's BIP-44 coin type, used in the m/44'/144'/0'/0/index
// derivation path.
const CoinType = 144

// Transfer records one observed movement of value into or out of the
// account, whether the account originated it or merely received it.
type Transfer struct {
	Hash        [32]byte
	Source      address.Address
	Destination address.Address
	Amount      uint64
	Fee         uint64
}

func (t Transfer) equal(o Transfer) bool {
	return t.Hash == o.Hash && t.Source == o.Source && t.Destination == o.Destination
}

// Wallet tracks one XRP account's single address, balance, sequence
// number, and transfer history. XRP accounts have exactly one address
// (unlike the UTXO side's rotating chains), so GetAddress serves as
// both the source and target address of its own wallet.
type Wallet struct {
	mu sync.Mutex

	account Address
	seed    func() []byte // nil for watch-only

	balance  uint64
	feeBasis uint64

	transfers []Transfer

	log hclog.Logger
}

// Address is the account this wallet tracks: its account ID plus the
// derivation index used to re-derive its signing key.
type Address struct {
	Account address.Address
	Index   uint32
}

// New builds a wallet tracking accountID. index is the position on seed's
// m/44'/144'/0'/0 chain from which Sign re-derives the signing key; New
// itself derives nothing. Pass a nil seed function to build a watch-only
// wallet for accountID.
func New(accountID address.Address, index uint32, seed func() []byte) *Wallet {
	return &Wallet{
		account: Address{Account: accountID, Index: index},
		seed:    seed,
		log:     hclog.NewNullLogger().Named("ripplewallet"),
	}
}

// SetLogger replaces the wallet's logger.
func (w *Wallet) SetLogger(logger hclog.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	w.log = logger.Named("ripplewallet")
}

// FromPaperKey derives the account at index 0 from a BIP-39 mnemonic.
func FromPaperKey(mnemonic, passphrase string) (*Wallet, error) {
	if !hdkey.MnemonicValid(mnemonic) {
		return nil, walleterr.New("FromPaperKey", walleterr.InvalidKey, errInvalidMnemonic{})
	}
	seed := hdkey.SeedFromMnemonic(mnemonic, passphrase)
	key, err := deriveKey(seed[:], 0)
	if err != nil {
		return nil, err
	}
	acct := address.FromPubKey(key.PubKey())
	key.Clean()
	return New(acct, 0, func() []byte { s := seed; return s[:] }), nil
}

type errInvalidMnemonic struct{}

func (errInvalidMnemonic) Error() string { return "wallet: mnemonic failed checksum validation" }

func deriveKey(seed []byte, index uint32) (*keys.Key, error) {
	secret, err := hdkey.DeriveBIP44PrivKey(seed, CoinType, 0, 0, index)
	if err != nil {
		return nil, walleterr.New("deriveKey", walleterr.InvalidKey, err)
	}
	return keys.KeyFromSecret(secret, true)
}

// GetAddress returns the wallet's single address (an XRP account is
// both source and target of its own wallet).
func (w *Wallet) GetAddress() address.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account.Account
}

// HasAddress reports whether addr is this wallet's account.
func (w *Wallet) HasAddress(addr address.Address) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account.Account.Equal(addr)
}

// Balance returns the account's current balance in drops.
func (w *Wallet) Balance() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// SetBalance overrides the tracked balance, used when a host learns the
// authoritative balance from elsewhere (e.g. a ledger query).
func (w *Wallet) SetBalance(drops uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = drops
}

// SetDefaultFeeBasis / DefaultFeeBasis track the fee rate to apply to
// new payments.
func (w *Wallet) SetDefaultFeeBasis(drops uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.feeBasis = drops
}

func (w *Wallet) DefaultFeeBasis() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.feeBasis
}

// Sequence returns the account sequence number, recomputed as the count
// of transfers this account originated.
func (w *Wallet) Sequence() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sequenceLocked()
}

func (w *Wallet) sequenceLocked() uint32 {
	var n uint32
	for _, t := range w.transfers {
		if t.Source.Equal(w.account.Account) {
			n++
		}
	}
	return n
}

// HasTransfer reports whether an equal transfer (by hash, source, and
// destination) is already recorded.
func (w *Wallet) HasTransfer(t Transfer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasTransferLocked(t)
}

func (w *Wallet) hasTransferLocked(t Transfer) bool {
	for _, existing := range w.transfers {
		if existing.equal(t) {
			return true
		}
	}
	return false
}

// AddTransfer records a transfer if it is not a duplicate, adjusting the
// balance by -(amount+fee) when the account is the source or +amount
// when it is the destination.
func (w *Wallet) AddTransfer(t Transfer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hasTransferLocked(t) {
		w.log.Debug("duplicate transfer ignored", "hash", t.Hash)
		return false
	}
	w.transfers = append(w.transfers, t)

	switch {
	case t.Source.Equal(w.account.Account):
		w.balance -= t.Amount + t.Fee
	case t.Destination.Equal(w.account.Account):
		w.balance += t.Amount
	}
	w.log.Debug("recorded transfer", "hash", t.Hash, "balance", w.balance)
	return true
}

// CreatePayment builds an unsigned payment transaction from this account
// to destination for amount drops, stamped with the current sequence
// number and default fee basis. destinationTag may be nil; if
// destination is registered via address.AddDestinationTagRequired and no
// tag is supplied, CreatePayment refuses rather than build a payment
// that would likely strand funds at a custodial destination.
func (w *Wallet) CreatePayment(destination address.Address, amount uint64, destinationTag *uint32) (*transaction.Payment, error) {
	if destinationTag == nil && address.RequiresDestinationTag(destination.String()) {
		return nil, walleterr.New("CreatePayment", walleterr.InvalidTransaction,
			errDestinationTagRequired{addr: destination.String()})
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	p := transaction.NewPayment(w.account.Account, destination, amount, w.feeBasis)
	p.Sequence = w.sequenceLocked()
	p.DestinationTag = destinationTag
	return p, nil
}

type errDestinationTagRequired struct{ addr string }

func (e errDestinationTagRequired) Error() string {
	return "wallet: destination " + e.addr + " requires a destination tag"
}

// Sign signs p with the account's re-derived private key. Returns
// SignerRefused for a watch-only wallet.
func (w *Wallet) Sign(p *transaction.Payment) error {
	w.mu.Lock()
	seedFn := w.seed
	index := w.account.Index
	w.mu.Unlock()

	if seedFn == nil {
		return walleterr.New("Sign", walleterr.SignerRefused, errWatchOnly{})
	}
	seed := seedFn()
	key, err := deriveKey(seed, index)
	if err != nil {
		return err
	}
	defer key.Clean()
	return p.Sign(key)
}

type errWatchOnly struct{}

func (errWatchOnly) Error() string { return "wallet: watch-only account has no seed" }
