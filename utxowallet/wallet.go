// Package utxowallet implements the UTXO wallet engine — address-chain
// management with gap-limit lookahead, balance and UTXO set
// maintenance, transaction construction with coin selection, and
// signing.
package utxowallet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/hashicorp/go-hclog"

	"github.com/shadowfax-labs/spvcore/chainparams"
	"github.com/shadowfax-labs/spvcore/hdkey"
	"github.com/shadowfax-labs/spvcore/keys"
	"github.com/shadowfax-labs/spvcore/script"
	"github.com/shadowfax-labs/spvcore/txmodel"
	"github.com/shadowfax-labs/spvcore/walleterr"
)

// GapLimitExternal and GapLimitInternal are the number of consecutive
// unused addresses kept generated on the receive and change chains,
// respectively. The change chain needs a shorter lookahead since change
// outputs are only ever produced by this wallet's own spends.
const (
	GapLimitExternal = 10
	GapLimitInternal = 5
)

// defaultFeePerKB is the wallet's relay-fee rate in satoshis per
// kilobyte until a caller overrides it with SetFeePerKB.
const defaultFeePerKB = uint64(1000)

// TxFeePerKB is the flat, configuration-independent floor fee rate: no
// transaction is charged less than this per kilobyte regardless of the
// wallet's configured feePerKB.
const TxFeePerKB = uint64(1000)

// TxMinSize is the floor below which a transaction's size is not
// discounted for fee purposes.
const TxMinSize = 60

// DustLimit is the minimum amount a change output is allowed to carry;
// a smaller remainder is folded into the fee instead of creating an
// uneconomical output.
const DustLimit = uint64(294)

// outPoint identifies a spendable output by its containing transaction
// and output index.
type outPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// EventHandler receives wallet-state notifications. Every method is
// called with the wallet's lock released, so a handler is free to call
// back into the wallet without deadlocking.
type EventHandler interface {
	BalanceChanged(balance uint64)
	TxAdded(tx *txmodel.Transaction)
	TxUpdated(txHashes []chainhash.Hash, blockHeight uint32, timestamp uint32)
	TxDeleted(txHash chainhash.Hash, notifyUser, recommendRescan bool)
}

// NullEventHandler discards every event; callers that don't need
// notifications can embed it instead of implementing every method.
type NullEventHandler struct{}

func (NullEventHandler) BalanceChanged(uint64)                                {}
func (NullEventHandler) TxAdded(*txmodel.Transaction)                         {}
func (NullEventHandler) TxUpdated([]chainhash.Hash, uint32, uint32)           {}
func (NullEventHandler) TxDeleted(chainhash.Hash, bool, bool)                 {}

// Wallet tracks one chain's address chains, transaction set, and
// derived balance for a single master public key.
type Wallet struct {
	mu sync.Mutex

	params chainparams.Params
	mpk    hdkey.MasterPublicKey
	seed   func() []byte // returns the seed for signing; nil for watch-only

	externalAddrs []string
	internalAddrs []string

	transactions []*txmodel.Transaction
	txByHash     map[chainhash.Hash]*txmodel.Transaction

	utxos      map[outPoint]bool
	utxoOrder  []outPoint // utxos, in the order they were discovered by recomputeBalanceLocked
	spentOuts  map[outPoint]bool
	invalidTx  map[chainhash.Hash]bool // unconfirmed transactions that spend an invalid or already-spent output

	addressIndex map[string]addrPosition

	balance       uint64
	totalSent     uint64
	totalReceived uint64
	balanceHist   []uint64
	feePerKB      uint64

	handler EventHandler
	log     hclog.Logger
}

type addrPosition struct {
	internal bool
	index    uint32
}

// New builds an empty wallet for mpk. handler may be nil, in which case
// events are discarded. logger may be nil, in which case logging is
// discarded.
func New(params chainparams.Params, mpk hdkey.MasterPublicKey, seed func() []byte, handler EventHandler, logger hclog.Logger) *Wallet {
	if handler == nil {
		handler = NullEventHandler{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	w := &Wallet{
		params:       params,
		mpk:          mpk,
		seed:         seed,
		txByHash:     make(map[chainhash.Hash]*txmodel.Transaction),
		utxos:        make(map[outPoint]bool),
		spentOuts:    make(map[outPoint]bool),
		invalidTx:    make(map[chainhash.Hash]bool),
		addressIndex: make(map[string]addrPosition),
		feePerKB:     defaultFeePerKB,
		handler:      handler,
		log:          logger.Named("utxowallet"),
	}
	w.fillAddressChain(false)
	w.fillAddressChain(true)
	return w
}

// fillAddressChain extends the given chain (external=false, internal=true)
// until there are GapLimitExternal (resp. GapLimitInternal) unused
// addresses past the last used one.
func (w *Wallet) fillAddressChain(internal bool) {
	chain := &w.externalAddrs
	gapLimit := GapLimitExternal
	if internal {
		chain = &w.internalAddrs
		gapLimit = GapLimitInternal
	}

	lastUsed := -1
	for i, addr := range *chain {
		if w.addressUsedLocked(addr) {
			lastUsed = i
		}
	}

	for len(*chain)-lastUsed-1 < gapLimit {
		index := uint32(len(*chain))
		pub, err := hdkey.PubKeyDerive(w.mpk, internal, index)
		if err != nil {
			return
		}
		k, err := keys.KeyFromPubKey(pub[:])
		if err != nil {
			return
		}
		addr := k.Address(w.params)
		*chain = append(*chain, addr)
		w.addressIndex[addr] = addrPosition{internal: internal, index: index}
	}
}

func (w *Wallet) addressUsedLocked(addr string) bool {
	for _, tx := range w.transactions {
		for _, out := range tx.Outputs {
			if out.Address == addr {
				return true
			}
		}
	}
	return false
}

// ReceiveAddress returns the first unused external address.
func (w *Wallet) ReceiveAddress() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, addr := range w.externalAddrs {
		if !w.addressUsedLocked(addr) {
			return addr
		}
	}
	return ""
}

// ChangeAddress returns the first unused internal address.
func (w *Wallet) ChangeAddress() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, addr := range w.internalAddrs {
		if !w.addressUsedLocked(addr) {
			return addr
		}
	}
	return ""
}

// ContainsAddress reports whether addr belongs to either chain.
func (w *Wallet) ContainsAddress(addr string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.addressIndex[addr]
	return ok
}

// AllAddresses returns every address generated on both chains so far, in
// generation order: external first, then internal.
func (w *Wallet) AllAddresses() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.externalAddrs)+len(w.internalAddrs))
	out = append(out, w.externalAddrs...)
	out = append(out, w.internalAddrs...)
	return out
}

// Balance returns the wallet's current confirmed+unconfirmed balance.
func (w *Wallet) Balance() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// SetFeePerKB sets the relay-fee rate used for size-based fee estimation.
func (w *Wallet) SetFeePerKB(satPerKB uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.feePerKB = satPerKB
}

// FeeForTxSize estimates the fee for a transaction of the given
// serialized size, taking the larger of a flat TxFeePerKB floor and the
// wallet's configured feePerKB rate.
func (w *Wallet) FeeForTxSize(size int) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return feeForSize(size, w.feePerKB)
}

// feeForSize computes max(ceil(size/1000)*TxFeePerKB,
// round-up-to-100(size*feePerKB/1000)), with TxMinSize as a floor on
// size. The first term is a configuration-independent relay-fee floor;
// the second scales with the wallet's own fee-rate setting.
func feeForSize(size int, feePerKB uint64) uint64 {
	if size < TxMinSize {
		size = TxMinSize
	}
	sz := uint64(size)
	standardFee := ((sz + 999) / 1000) * TxFeePerKB
	dynamicFee := ((sz*feePerKB/1000 + 99) / 100) * 100
	if dynamicFee > standardFee {
		return dynamicFee
	}
	return standardFee
}

// RegisterTransaction inserts tx into the wallet's transaction set,
// updates its address chains, recomputes the spendable UTXO set and
// balance, and fires TxAdded/BalanceChanged (outside the lock).
func (w *Wallet) RegisterTransaction(tx *txmodel.Transaction) error {
	w.mu.Lock()
	if _, exists := w.txByHash[tx.TxHash]; exists {
		w.mu.Unlock()
		return nil
	}

	for i := range tx.Outputs {
		if addr, ok := script.AddressFromScriptPubKey(tx.Outputs[i].Script, w.params); ok {
			tx.Outputs[i].Address = addr
		}
	}
	for i := range tx.Inputs {
		if addr, ok := script.AddressFromScriptPubKey(tx.Inputs[i].Script, w.params); ok {
			tx.Inputs[i].Address = addr
		}
	}

	w.transactions = append(w.transactions, tx)
	w.txByHash[tx.TxHash] = tx
	w.sortTransactionsLocked()
	w.fillAddressChain(false)
	w.fillAddressChain(true)
	w.recomputeBalanceLocked()
	balance := w.balance
	w.log.Debug("registered transaction", "hash", tx.TxHash.String(), "balance", balance)
	w.mu.Unlock()

	w.handler.TxAdded(tx)
	w.handler.BalanceChanged(balance)
	return nil
}

// RemoveTransaction removes tx and any transaction that spends one of
// its outputs (a dependent chain), recomputes balance, and fires
// TxDeleted for each. notifyUser/recommendRescan distinguish the root
// removal (notifies the user) from cascaded dependents (do not), and a
// removal that dropped a transaction believed confirmed recommends a
// rescan.
func (w *Wallet) RemoveTransaction(txHash chainhash.Hash) {
	w.mu.Lock()
	removed := w.removeTransactionLocked(txHash, true)
	w.recomputeBalanceLocked()
	balance := w.balance
	w.mu.Unlock()

	for _, r := range removed {
		w.handler.TxDeleted(r.hash, r.notifyUser, r.recommendRescan)
	}
	w.handler.BalanceChanged(balance)
}

type removedTx struct {
	hash            chainhash.Hash
	notifyUser      bool
	recommendRescan bool
}

func (w *Wallet) removeTransactionLocked(txHash chainhash.Hash, isRoot bool) []removedTx {
	tx, ok := w.txByHash[txHash]
	if !ok {
		return nil
	}

	var removed []removedTx
	wasConfirmed := tx.BlockHeight != txmodel.UnconfirmedHeight

	// Range over a copy: the recursive removals shrink w.transactions in place.
	for _, other := range append([]*txmodel.Transaction(nil), w.transactions...) {
		if other.TxHash == txHash {
			continue
		}
		for _, in := range other.Inputs {
			if in.PrevTxHash == txHash {
				removed = append(removed, w.removeTransactionLocked(other.TxHash, false)...)
				break
			}
		}
	}

	delete(w.txByHash, txHash)
	for i, t := range w.transactions {
		if t.TxHash == txHash {
			w.transactions = append(w.transactions[:i], w.transactions[i+1:]...)
			break
		}
	}

	removed = append(removed, removedTx{
		hash:            txHash,
		notifyUser:      isRoot,
		recommendRescan: wasConfirmed,
	})
	return removed
}

// sortTransactionsLocked orders transactions with a stable comparison
// sort whose comparator puts a transaction after any transaction it
// spends from (directly or transitively), then orders by block height
// (unconfirmed last) and timestamp. The comparator is not a total order,
// so the result is a best-effort topological order.
func (w *Wallet) sortTransactionsLocked() {
	sort.SliceStable(w.transactions, func(i, j int) bool {
		a, b := w.transactions[i], w.transactions[j]
		if w.txSpendsLocked(b, a) {
			return true
		}
		if w.txSpendsLocked(a, b) {
			return false
		}
		if a.BlockHeight != b.BlockHeight {
			if a.BlockHeight == txmodel.UnconfirmedHeight {
				return false
			}
			if b.BlockHeight == txmodel.UnconfirmedHeight {
				return true
			}
			return a.BlockHeight < b.BlockHeight
		}
		return a.Timestamp < b.Timestamp
	})
}

// txSpendsLocked reports whether tx spends one of prior's outputs,
// directly or transitively through one or more intermediate
// transactions also held by this wallet.
func (w *Wallet) txSpendsLocked(tx, prior *txmodel.Transaction) bool {
	visited := make(map[chainhash.Hash]bool)
	return w.txSpendsVisitedLocked(tx, prior, visited)
}

func (w *Wallet) txSpendsVisitedLocked(tx, prior *txmodel.Transaction, visited map[chainhash.Hash]bool) bool {
	for _, in := range tx.Inputs {
		if in.PrevTxHash == prior.TxHash {
			return true
		}
		if visited[in.PrevTxHash] {
			continue
		}
		visited[in.PrevTxHash] = true
		if mid, ok := w.txByHash[in.PrevTxHash]; ok {
			if w.txSpendsVisitedLocked(mid, prior, visited) {
				return true
			}
		}
	}
	return false
}

// recomputeBalanceLocked rebuilds the UTXO set and running balance from
// scratch by replaying transactions in their sorted (ascending) order.
// An unconfirmed transaction whose inputs spend an output that is
// either already spent or itself invalid is marked invalid and skipped:
// it stays registered but contributes nothing to balance or UTXOs.
func (w *Wallet) recomputeBalanceLocked() {
	w.utxos = make(map[outPoint]bool)
	w.utxoOrder = w.utxoOrder[:0]
	w.spentOuts = make(map[outPoint]bool)
	w.invalidTx = make(map[chainhash.Hash]bool)
	w.balanceHist = w.balanceHist[:0]
	w.totalSent = 0
	w.totalReceived = 0

	var balance, prevBalance uint64
	for _, tx := range w.transactions {
		spent := make(map[outPoint]bool, len(tx.Inputs))
		for _, in := range tx.Inputs {
			spent[outPoint{Hash: in.PrevTxHash, Index: in.PrevOutIndex}] = true
		}

		if tx.BlockHeight == txmodel.UnconfirmedHeight && w.spendsInvalidOrSpentLocked(spent) {
			w.invalidTx[tx.TxHash] = true
			w.balanceHist = append(w.balanceHist, balance)
			continue
		}

		for op := range spent {
			w.spentOuts[op] = true
		}

		for idx, out := range tx.Outputs {
			if out.Address == "" || !w.ownsAddressLocked(out.Address) {
				continue
			}
			op := outPoint{Hash: tx.TxHash, Index: uint32(idx)}
			if !w.utxos[op] {
				w.utxos[op] = true
				w.utxoOrder = append(w.utxoOrder, op)
				balance += out.Amount
			}
		}

		// Transaction ordering is only a best-effort topological sort, so
		// re-check the entire UTXO set against the entire spent-output
		// set rather than trusting this tx's outputs alone.
		kept := w.utxoOrder[:0]
		for _, op := range w.utxoOrder {
			if !w.spentOuts[op] {
				kept = append(kept, op)
				continue
			}
			delete(w.utxos, op)
			if owner, ok := w.txByHash[op.Hash]; ok && int(op.Index) < len(owner.Outputs) {
				balance -= owner.Outputs[op.Index].Amount
			}
		}
		w.utxoOrder = kept

		if balance > prevBalance {
			w.totalReceived += balance - prevBalance
		} else if balance < prevBalance {
			w.totalSent += prevBalance - balance
		}
		w.balanceHist = append(w.balanceHist, balance)
		prevBalance = balance
	}
	w.balance = balance
}

// spendsInvalidOrSpentLocked reports whether any outpoint in spent is
// already recorded as spent, or belongs to a transaction already marked
// invalid (invalidity propagates to anything that spends from it).
func (w *Wallet) spendsInvalidOrSpentLocked(spent map[outPoint]bool) bool {
	for op := range spent {
		if w.spentOuts[op] || w.invalidTx[op.Hash] {
			return true
		}
	}
	return false
}

// TotalSent returns the cumulative amount this wallet has sent,
// excluding change.
func (w *Wallet) TotalSent() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalSent
}

// TotalReceived returns the cumulative amount this wallet has received,
// excluding change.
func (w *Wallet) TotalReceived() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalReceived
}

// BalanceAfterTx returns the wallet's balance immediately after applying
// txHash under the wallet's ordering, or the current balance if txHash
// isn't registered.
func (w *Wallet) BalanceAfterTx(txHash chainhash.Hash) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, tx := range w.transactions {
		if tx.TxHash == txHash && i < len(w.balanceHist) {
			return w.balanceHist[i]
		}
	}
	return w.balance
}

func (w *Wallet) ownsAddressLocked(addr string) bool {
	_, ok := w.addressIndex[addr]
	return ok
}

// UTXOs returns the current set of unspent outputs the wallet controls,
// each annotated with its amount and scriptPubKey for spending.
type UTXO struct {
	Hash    chainhash.Hash
	Index   uint32
	Amount  uint64
	Script  []byte
	Address string
}

func (w *Wallet) UTXOs() []UTXO {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []UTXO
	for op := range w.utxos {
		tx, ok := w.txByHash[op.Hash]
		if !ok || int(op.Index) >= len(tx.Outputs) {
			continue
		}
		txOut := tx.Outputs[op.Index]
		out = append(out, UTXO{
			Hash:    op.Hash,
			Index:   op.Index,
			Amount:  txOut.Amount,
			Script:  txOut.Script,
			Address: txOut.Address,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Hash.String() < out[j].Hash.String()
	})
	return out
}

// CreateTransaction selects UTXOs in wallet order (the order
// recomputeBalanceLocked discovered them, not amount-sorted) and builds
// an unsigned transaction paying outputs. An input drawn from an
// unconfirmed transaction this wallet didn't itself create imposes a
// child-pays-for-parent penalty: its parent's size is added to the fee
// base, since relay policy charges the child for the parent it's
// rescuing from the mempool. Selection stops once the running total
// equals amount+fee exactly or exceeds it by at least DustLimit; while the
// excess is positive but below DustLimit it keeps adding inputs, and if
// none remain that excess is left to the fee.
func (w *Wallet) CreateTransaction(outputs []txmodel.TxOut) (*txmodel.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var target uint64
	for _, o := range outputs {
		target += o.Amount
	}
	if target == 0 {
		return nil, walleterr.New("CreateTransaction", walleterr.InvalidTransaction, fmt.Errorf("no outputs"))
	}

	utxos := w.utxosLocked()

	tx := txmodel.New()
	for _, o := range outputs {
		tx.AddOutput(o)
	}

	var selected, cpfpSize uint64
	var fee uint64
	for _, u := range utxos {
		tx.AddInput(txmodel.TxIn{
			PrevTxHash:   u.Hash,
			PrevOutIndex: u.Index,
			Script:       u.Script,
			Sequence:     txmodel.TxInSequenceFinal,
		})
		selected += u.Amount

		if parent, ok := w.txByHash[u.Hash]; ok && parent.BlockHeight == txmodel.UnconfirmedHeight && w.amountSentByTxLocked(parent) == 0 {
			cpfpSize += uint64(parent.Size())
		}

		// +34 accounts for a change output not yet added.
		fee = feeForSize(tx.Size()+34+int(cpfpSize), w.feePerKB)
		if selected == target+fee || selected >= target+fee+DustLimit {
			break
		}
	}

	if selected < target+fee {
		w.log.Debug("insufficient funds for transaction", "have", selected, "need", target+fee)
		return nil, walleterr.New("CreateTransaction", walleterr.InsufficientFunds,
			fmt.Errorf("have %d, need %d", selected, target+fee))
	}

	if change := selected - target - fee; change >= DustLimit {
		changeAddr := w.firstUnusedLocked(true)
		tx.AddOutput(txmodel.TxOut{
			Amount:  change,
			Script:  script.ScriptPubKeyFromAddress(changeAddr, w.params),
			Address: changeAddr,
		})
	}

	tx.ShuffleOutputs()
	return tx, nil
}

// amountSentByTxLocked sums the amount tx spent from this wallet's own
// outputs — the inputs whose previous output belonged to an address this
// wallet controls. A tx with no wallet-owned inputs wasn't created by
// this wallet, so a child spending its output is charged its size as a
// CPFP penalty.
func (w *Wallet) amountSentByTxLocked(tx *txmodel.Transaction) uint64 {
	var sent uint64
	for _, in := range tx.Inputs {
		prev, ok := w.txByHash[in.PrevTxHash]
		if !ok || int(in.PrevOutIndex) >= len(prev.Outputs) {
			continue
		}
		out := prev.Outputs[in.PrevOutIndex]
		if out.Address != "" && w.ownsAddressLocked(out.Address) {
			sent += out.Amount
		}
	}
	return sent
}

// utxosLocked returns the wallet's UTXOs in the order
// recomputeBalanceLocked discovered them.
func (w *Wallet) utxosLocked() []UTXO {
	out := make([]UTXO, 0, len(w.utxoOrder))
	for _, op := range w.utxoOrder {
		tx, ok := w.txByHash[op.Hash]
		if !ok || int(op.Index) >= len(tx.Outputs) {
			continue
		}
		txOut := tx.Outputs[op.Index]
		out = append(out, UTXO{Hash: op.Hash, Index: op.Index, Amount: txOut.Amount, Script: txOut.Script, Address: txOut.Address})
	}
	return out
}

func (w *Wallet) firstUnusedLocked(internal bool) string {
	chain := w.externalAddrs
	if internal {
		chain = w.internalAddrs
	}
	for _, addr := range chain {
		if !w.addressUsedLocked(addr) {
			return addr
		}
	}
	if len(chain) > 0 {
		return chain[len(chain)-1]
	}
	return ""
}

// Sign signs every input of tx this wallet can authorize, re-deriving
// the needed private key from the seed on demand. Returns SignerRefused
// if no seed function was supplied (a watch-only wallet).
func (w *Wallet) Sign(tx *txmodel.Transaction) error {
	w.mu.Lock()
	seedFn := w.seed
	addrAt := func(addr string) (internal bool, index uint32, ok bool) {
		pos, found := w.addressIndex[addr]
		return pos.internal, pos.index, found
	}
	w.mu.Unlock()

	if seedFn == nil {
		return walleterr.New("Sign", walleterr.SignerRefused, fmt.Errorf("watch-only wallet has no seed"))
	}

	supplier := func(internal bool, index uint32) (*keys.Key, bool) {
		seed := seedFn()
		if seed == nil {
			return nil, false
		}
		secret, err := hdkey.PrivKeyAtPath(seed, internal, index)
		if err != nil {
			return nil, false
		}
		k, err := keys.KeyFromSecret(secret, true)
		if err != nil {
			return nil, false
		}
		return k, true
	}

	if !txmodel.Sign(tx, w.params, addrAt, supplier) {
		return walleterr.New("Sign", walleterr.SignerRefused, fmt.Errorf("not all inputs could be signed"))
	}
	return nil
}
