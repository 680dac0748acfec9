// Package transaction implements XRP payment transaction construction,
// canonical serialization, signing, and hash computation.
package transaction

import (
	"fmt"

	"github.com/shadowfax-labs/spvcore/keys"
	"github.com/shadowfax-labs/spvcore/primitives"
	"github.com/shadowfax-labs/spvcore/ripple/address"
	"github.com/shadowfax-labs/spvcore/ripple/fields"
	"github.com/shadowfax-labs/spvcore/walleterr"
)

// PaymentTxType is the Ripple "TransactionType" code for a Payment.
const PaymentTxType = 0

// FullyCanonicalSig is the flag bit this module always sets on new
// payments, requiring a canonically-encoded signature.
const FullyCanonicalSig = uint32(0x80000000)

// Payment is an XRP payment transaction.
type Payment struct {
	Source      address.Address
	Destination address.Address
	Amount      uint64 // drops
	Fee         uint64 // drops
	Sequence    uint32
	Flags       uint32

	SourceTag          *uint32
	DestinationTag      *uint32
	LastLedgerSequence *uint32

	Memos []fields.Memo

	PubKey    []byte // 33-byte compressed public key
	Signature []byte // DER, set after Sign

	Hash [32]byte // set after Sign or Deserialize
}

// NewPayment builds an unsigned payment with the canonical-signature
// flag set.
func NewPayment(source, destination address.Address, amount, fee uint64) *Payment {
	return &Payment{
		Source:      source,
		Destination: destination,
		Amount:      amount,
		Fee:         fee,
		Flags:       FullyCanonicalSig,
	}
}

// fieldList builds the field array for serialization. When includeSig is
// false, the signature field is omitted and PubKey is still included —
// this is the canonical "to-be-signed" form; when true, both PubKey and
// Signature are included for the final, broadcastable form.
func (p *Payment) fieldList(includeSig bool) []fields.Field {
	fs := []fields.Field{
		fields.AccountField(fields.FieldAccount, p.Source),
		fields.UInt16Field(fields.FieldTransactionType, PaymentTxType),
		fields.UInt32Field(fields.FieldSequence, p.Sequence),
		fields.AmountField(fields.FieldFee, fields.XRPAmount(p.Fee)),
		fields.AccountField(fields.FieldDestination, p.Destination),
		fields.AmountField(fields.FieldAmount, fields.XRPAmount(p.Amount)),
		fields.BlobField(fields.FieldSigningPubKey, p.PubKey),
		fields.UInt32Field(fields.FieldFlags, p.Flags),
	}
	if p.SourceTag != nil {
		fs = append(fs, fields.UInt32Field(fields.FieldSourceTag, *p.SourceTag))
	}
	if p.DestinationTag != nil {
		fs = append(fs, fields.UInt32Field(fields.FieldDestinationTag, *p.DestinationTag))
	}
	if p.LastLedgerSequence != nil {
		fs = append(fs, fields.UInt32Field(fields.FieldLastLedgerSequence, *p.LastLedgerSequence))
	}
	if len(p.Memos) > 0 {
		fs = append(fs, fields.MemosField(p.Memos))
	}
	if includeSig && len(p.Signature) > 0 {
		fs = append(fs, fields.BlobField(fields.FieldTxnSignature, p.Signature))
	}
	return fs
}

// signing-digest and hash prefixes: 'S','T','X',0 for the to-be-signed
// digest, 'T','X','N',0 for the canonical transaction hash.
var (
	signingPrefix = []byte{'S', 'T', 'X', 0}
	hashPrefix    = []byte{'T', 'X', 'N', 0}
)

func digestFor(prefix, serialized []byte) [32]byte {
	buf := append(append([]byte{}, prefix...), serialized...)
	full := primitives.SHA512(buf)
	var out [32]byte
	copy(out[:], full[:32])
	return out
}

// Sign serializes the unsigned transaction, signs its digest with key,
// re-serializes with the signature attached, and computes the final
// transaction hash.
func (p *Payment) Sign(key *keys.Key) error {
	p.PubKey = key.PubKey()

	unsigned, err := fields.Serialize(p.fieldList(false))
	if err != nil {
		return walleterr.New("Sign", walleterr.InvalidTransaction, err)
	}
	digest := digestFor(signingPrefix, unsigned)

	der, err := key.Sign(digest)
	if err != nil {
		return walleterr.New("Sign", walleterr.SignerRefused, err)
	}
	p.Signature = der

	signed, err := fields.Serialize(p.fieldList(true))
	if err != nil {
		return walleterr.New("Sign", walleterr.InvalidTransaction, err)
	}
	p.Hash = digestFor(hashPrefix, signed)
	return nil
}

// Verify checks the transaction's signature against its public key, the
// check an account layer relies on before broadcast.
func (p *Payment) Verify() (bool, error) {
	if len(p.Signature) == 0 || len(p.PubKey) == 0 {
		return false, fmt.Errorf("transaction is unsigned")
	}
	unsigned, err := fields.Serialize(p.fieldList(false))
	if err != nil {
		return false, err
	}
	digest := digestFor(signingPrefix, unsigned)

	k, err := keys.KeyFromPubKey(p.PubKey)
	if err != nil {
		return false, err
	}
	return k.Verify(digest, p.Signature), nil
}

// Serialize renders the final, signed wire form.
func (p *Payment) Serialize() ([]byte, error) {
	return fields.Serialize(p.fieldList(true))
}

// Deserialize rebuilds a Payment from its serialized field list. The
// account/destination address fields fall back to the unknown sentinel
// if absent, so a deserialized transaction with missing account fields
// still parses.
func Deserialize(buf []byte) (*Payment, error) {
	fs, n := fields.Deserialize(buf)
	if n == 0 {
		return nil, walleterr.New("Deserialize", walleterr.InvalidTransaction, fmt.Errorf("empty field list"))
	}

	p := &Payment{Source: address.UnknownAddress(), Destination: address.UnknownAddress()}
	for _, f := range fs {
		switch {
		case f.TypeCode == fields.TypeAccount && f.FieldCode == fields.FieldAccount:
			p.Source = f.Account
		case f.TypeCode == fields.TypeAccount && f.FieldCode == fields.FieldDestination:
			p.Destination = f.Account
		case f.TypeCode == fields.TypeAmount && f.FieldCode == fields.FieldAmount:
			p.Amount = f.Amount.Drops
		case f.TypeCode == fields.TypeAmount && f.FieldCode == fields.FieldFee:
			p.Fee = f.Amount.Drops
		case f.TypeCode == fields.TypeUInt32 && f.FieldCode == fields.FieldSequence:
			p.Sequence = f.U32
		case f.TypeCode == fields.TypeUInt32 && f.FieldCode == fields.FieldFlags:
			p.Flags = f.U32
		case f.TypeCode == fields.TypeUInt32 && f.FieldCode == fields.FieldSourceTag:
			v := f.U32
			p.SourceTag = &v
		case f.TypeCode == fields.TypeUInt32 && f.FieldCode == fields.FieldDestinationTag:
			v := f.U32
			p.DestinationTag = &v
		case f.TypeCode == fields.TypeUInt32 && f.FieldCode == fields.FieldLastLedgerSequence:
			v := f.U32
			p.LastLedgerSequence = &v
		case f.TypeCode == fields.TypeBlob && f.FieldCode == fields.FieldSigningPubKey:
			p.PubKey = f.Blob
		case f.TypeCode == fields.TypeBlob && f.FieldCode == fields.FieldTxnSignature:
			p.Signature = f.Blob
		case f.TypeCode == fields.TypeArray && f.FieldCode == fields.FieldMemos:
			p.Memos = f.Memos()
		}
	}

	signed, err := fields.Serialize(p.fieldList(true))
	if err == nil {
		p.Hash = digestFor(hashPrefix, signed)
	}
	return p, nil
}
