package address

import (
	"bytes"
	"testing"
)

func TestSentinelAddressStrings(t *testing.T) {
	if got := FeeAddress().String(); got != "__fee__" {
		t.Errorf("FeeAddress().String() = %q, want %q", got, "__fee__")
	}
	if got := UnknownAddress().String(); got != "unknown" {
		t.Errorf("UnknownAddress().String() = %q, want %q", got, "unknown")
	}
}

func TestSentinelAddressPredicates(t *testing.T) {
	if !FeeAddress().IsFeeAddress() {
		t.Error("FeeAddress() should report IsFeeAddress() true")
	}
	if FeeAddress().IsUnknownAddress() {
		t.Error("FeeAddress() should not report IsUnknownAddress() true")
	}
	if !UnknownAddress().IsUnknownAddress() {
		t.Error("UnknownAddress() should report IsUnknownAddress() true")
	}

	normal := FromHash160([20]byte{0x01, 0x02, 0x03})
	if normal.IsFeeAddress() || normal.IsUnknownAddress() {
		t.Error("an ordinary address should not match either sentinel")
	}
}

func TestParseSentinelForms(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want Address
	}{
		{"empty string", "", UnknownAddress()},
		{"unknown literal", "unknown", UnknownAddress()},
		{"fee literal", "__fee__", FeeAddress()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.s)
			if !ok {
				t.Fatalf("Parse(%q) failed", tt.s)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %x, want %x", tt.s, got, tt.want)
			}
		})
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	hash := [20]byte{}
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	addr := FromHash160(hash)

	s := addr.String()
	if s == "__fee__" || s == "unknown" {
		t.Fatalf("String() collided with a sentinel: %q", s)
	}

	got, ok := Parse(s)
	if !ok {
		t.Fatalf("Parse(%q) failed", s)
	}
	if !got.Equal(addr) {
		t.Errorf("round trip = %x, want %x", got, addr)
	}
}

func TestFromPubKeyIsHash160(t *testing.T) {
	pubKey := bytes.Repeat([]byte{0x02}, 33)
	addr := FromPubKey(pubKey)
	if addr.IsFeeAddress() || addr.IsUnknownAddress() {
		t.Error("a derived address should not collide with a sentinel")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		s    string
	}{
		{"garbage", "not a real ripple address"},
		{"bitcoin-alphabet address", "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Parse(tt.s); ok {
				t.Errorf("Parse(%q) should fail", tt.s)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := FromHash160([20]byte{0x01})
	b := FromHash160([20]byte{0x01})
	c := FromHash160([20]byte{0x02})

	if !a.Equal(b) {
		t.Error("identical account IDs should be Equal")
	}
	if a.Equal(c) {
		t.Error("different account IDs should not be Equal")
	}
}
