package codec

import "testing"

func TestVarIntEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		value    uint64
		wantSize int
	}{
		{"zero", 0, 1},
		{"max single byte", 0xfc, 1},
		{"min two-byte prefix", 0xfd, 3},
		{"max u16", 0xffff, 3},
		{"min u32 prefix", 0x10000, 5},
		{"max u32", 0xffffffff, 5},
		{"min u64 prefix", 0x100000000, 9},
		{"max u64", ^uint64(0), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VarIntSize(tt.value); got != tt.wantSize {
				t.Errorf("VarIntSize(%d) = %d, want %d", tt.value, got, tt.wantSize)
			}

			buf := VarIntEncode(nil, tt.value)
			if len(buf) != tt.wantSize {
				t.Errorf("VarIntEncode(%d) length = %d, want %d", tt.value, len(buf), tt.wantSize)
			}

			got, n := VarIntDecode(buf)
			if n != tt.wantSize {
				t.Errorf("VarIntDecode() consumed = %d, want %d", n, tt.wantSize)
			}
			if got != tt.value {
				t.Errorf("VarIntDecode() = %d, want %d", got, tt.value)
			}
		})
	}
}

func TestVarIntEncodeAppendsToPrefix(t *testing.T) {
	prefix := []byte{0xaa, 0xbb}
	buf := VarIntEncode(prefix, 5)
	if len(buf) != 3 || buf[0] != 0xaa || buf[1] != 0xbb || buf[2] != 5 {
		t.Errorf("VarIntEncode() = %x, want prefix preserved with encoded value appended", buf)
	}
}

func TestVarIntDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"fd header, no payload", []byte{0xfd}},
		{"fd header, short payload", []byte{0xfd, 0x01}},
		{"fe header, short payload", []byte{0xfe, 0x01, 0x02}},
		{"ff header, short payload", []byte{0xff, 0x01, 0x02, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n := VarIntDecode(tt.buf)
			if n != 0 {
				t.Errorf("VarIntDecode(%x) consumed = %d, want 0", tt.buf, n)
			}
		})
	}
}
