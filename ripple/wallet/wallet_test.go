package wallet

import (
	"bytes"
	"testing"

	"github.com/shadowfax-labs/spvcore/ripple/address"
)

func testAccount() address.Address {
	return address.FromHash160([20]byte{0x01, 0x02, 0x03})
}

func TestNewWatchOnly(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)

	if !w.GetAddress().Equal(acct) {
		t.Errorf("GetAddress() = %x, want %x", w.GetAddress(), acct)
	}
	if !w.HasAddress(acct) {
		t.Error("HasAddress() should report true for the wallet's own account")
	}
	if w.HasAddress(address.FromHash160([20]byte{0xff})) {
		t.Error("HasAddress() should report false for an unrelated account")
	}
	if w.Balance() != 0 {
		t.Errorf("Balance() = %d, want 0 for a fresh wallet", w.Balance())
	}
}

func TestFromPaperKeyRejectsInvalidMnemonic(t *testing.T) {
	if _, err := FromPaperKey("not a valid mnemonic phrase at all nope nope nope", ""); err == nil {
		t.Error("FromPaperKey() should reject a mnemonic that fails checksum validation")
	}
}

func TestSetBalanceAndFeeBasis(t *testing.T) {
	w := New(testAccount(), 0, nil)
	w.SetBalance(1000000)
	if w.Balance() != 1000000 {
		t.Errorf("Balance() = %d, want 1000000", w.Balance())
	}

	w.SetDefaultFeeBasis(12)
	if w.DefaultFeeBasis() != 12 {
		t.Errorf("DefaultFeeBasis() = %d, want 12", w.DefaultFeeBasis())
	}
}

func TestAddTransferAdjustsBalanceAsSource(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)
	w.SetBalance(1000000)

	transfer := Transfer{
		Hash:        [32]byte{0x01},
		Source:      acct,
		Destination: address.FromHash160([20]byte{0xaa}),
		Amount:      500000,
		Fee:         12,
	}
	if !w.AddTransfer(transfer) {
		t.Fatal("AddTransfer() should succeed for a new transfer")
	}
	if want := uint64(1000000 - 500000 - 12); w.Balance() != want {
		t.Errorf("Balance() = %d, want %d", w.Balance(), want)
	}
	if w.Sequence() != 1 {
		t.Errorf("Sequence() = %d, want 1 after one originated transfer", w.Sequence())
	}
}

func TestAddTransferAdjustsBalanceAsDestination(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)

	transfer := Transfer{
		Hash:        [32]byte{0x02},
		Source:      address.FromHash160([20]byte{0xbb}),
		Destination: acct,
		Amount:      250000,
		Fee:         12,
	}
	if !w.AddTransfer(transfer) {
		t.Fatal("AddTransfer() should succeed for a new transfer")
	}
	if w.Balance() != 250000 {
		t.Errorf("Balance() = %d, want 250000 (fee is paid by the source, not credited to us)", w.Balance())
	}
	if w.Sequence() != 0 {
		t.Errorf("Sequence() = %d, want 0 (this account did not originate the transfer)", w.Sequence())
	}
}

func TestAddTransferRejectsDuplicate(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)
	transfer := Transfer{Hash: [32]byte{0x03}, Source: acct, Destination: address.FromHash160([20]byte{0xcc}), Amount: 1000}

	if !w.AddTransfer(transfer) {
		t.Fatal("first AddTransfer() should succeed")
	}
	if w.AddTransfer(transfer) {
		t.Error("second AddTransfer() of an identical transfer should be rejected as a duplicate")
	}
	if w.Sequence() != 1 {
		t.Errorf("Sequence() = %d, want 1 (duplicate must not be counted twice)", w.Sequence())
	}
}

func TestHasTransfer(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)
	transfer := Transfer{Hash: [32]byte{0x04}, Source: acct, Destination: address.FromHash160([20]byte{0xdd}), Amount: 1000}

	if w.HasTransfer(transfer) {
		t.Error("HasTransfer() should be false before the transfer is added")
	}
	w.AddTransfer(transfer)
	if !w.HasTransfer(transfer) {
		t.Error("HasTransfer() should be true after the transfer is added")
	}
}

func TestCreatePaymentStampsSequenceAndFee(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)
	w.SetDefaultFeeBasis(12)
	w.AddTransfer(Transfer{Hash: [32]byte{0x05}, Source: acct, Destination: address.FromHash160([20]byte{0xee}), Amount: 1000})

	dest := address.FromHash160([20]byte{0xff})
	p, err := w.CreatePayment(dest, 50000, nil)
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if !p.Source.Equal(acct) || !p.Destination.Equal(dest) {
		t.Error("CreatePayment() built a payment with the wrong source/destination")
	}
	if p.Fee != 12 {
		t.Errorf("Fee = %d, want 12 (the wallet's default fee basis)", p.Fee)
	}
	if p.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1 (one prior originated transfer)", p.Sequence)
	}
}

func TestCreatePaymentRefusesMissingDestinationTag(t *testing.T) {
	acct := testAccount()
	w := New(acct, 0, nil)

	dest := address.FromHash160([20]byte{0x77})
	address.AddDestinationTagRequired(dest.String())
	defer address.RemoveDestinationTagRequired(dest.String())

	if _, err := w.CreatePayment(dest, 1000, nil); err == nil {
		t.Error("CreatePayment() should refuse a tag-required destination with no tag supplied")
	}

	tag := uint32(7)
	p, err := w.CreatePayment(dest, 1000, &tag)
	if err != nil {
		t.Fatalf("CreatePayment() with a tag supplied should succeed, got error = %v", err)
	}
	if p.DestinationTag == nil || *p.DestinationTag != tag {
		t.Errorf("DestinationTag = %v, want %d", p.DestinationTag, tag)
	}
}

func TestSignWatchOnlyRefuses(t *testing.T) {
	w := New(testAccount(), 0, nil)
	p, err := w.CreatePayment(address.FromHash160([20]byte{0x01}), 1000, nil)
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if err := w.Sign(p); err == nil {
		t.Error("Sign() should refuse on a watch-only wallet with no seed")
	}
}

func TestSignDerivesKeyFromSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 64)
	key, err := deriveKey(seed, 0)
	if err != nil {
		t.Fatalf("deriveKey() error = %v", err)
	}
	acct := address.FromPubKey(key.PubKey())
	key.Clean()

	w := New(acct, 0, func() []byte { return append([]byte{}, seed...) })
	w.SetDefaultFeeBasis(12)

	p, err := w.CreatePayment(address.FromHash160([20]byte{0x09}), 1000, nil)
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if err := w.Sign(p); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(p.Signature) == 0 {
		t.Error("Sign() should populate the payment's Signature")
	}

	ok, err := p.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() should accept the signature produced by the wallet's re-derived key")
	}
}
