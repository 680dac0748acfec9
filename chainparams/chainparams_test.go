package chainparams

import "testing"

func TestMainNetVersionBytes(t *testing.T) {
	if MainNet.PubKeyAddrVersion != 0x00 {
		t.Errorf("MainNet.PubKeyAddrVersion = %#x, want 0x00", MainNet.PubKeyAddrVersion)
	}
	if MainNet.ScriptAddrVersion != 0x05 {
		t.Errorf("MainNet.ScriptAddrVersion = %#x, want 0x05", MainNet.ScriptAddrVersion)
	}
	if MainNet.PrivateKeyWIFVersion != 0x80 {
		t.Errorf("MainNet.PrivateKeyWIFVersion = %#x, want 0x80", MainNet.PrivateKeyWIFVersion)
	}
}

func TestTestNetVersionBytes(t *testing.T) {
	if TestNet.PubKeyAddrVersion != 0x6f {
		t.Errorf("TestNet.PubKeyAddrVersion = %#x, want 0x6f", TestNet.PubKeyAddrVersion)
	}
	if TestNet.ScriptAddrVersion != 0xc4 {
		t.Errorf("TestNet.ScriptAddrVersion = %#x, want 0xc4", TestNet.ScriptAddrVersion)
	}
	if TestNet.PrivateKeyWIFVersion != 0xef {
		t.Errorf("TestNet.PrivateKeyWIFVersion = %#x, want 0xef", TestNet.PrivateKeyWIFVersion)
	}
}

func TestNetworksHaveDistinctVersionBytes(t *testing.T) {
	if MainNet.PubKeyAddrVersion == TestNet.PubKeyAddrVersion {
		t.Error("mainnet and testnet should use different pubkey address version bytes")
	}
}

func TestCheckpointsLoaded(t *testing.T) {
	if len(MainNet.Checkpoints) == 0 {
		t.Error("MainNet.Checkpoints should be populated by init()")
	}
	if len(TestNet.Checkpoints) == 0 {
		t.Error("TestNet.Checkpoints should be populated by init()")
	}

	for _, cp := range MainNet.Checkpoints {
		var zero [32]byte
		if [32]byte(cp.Hash) == zero {
			t.Errorf("checkpoint at height %d has a zero hash", cp.Height)
		}
	}
}

func TestCheckpointsOrderedByHeight(t *testing.T) {
	for i := 1; i < len(MainNet.Checkpoints); i++ {
		if MainNet.Checkpoints[i].Height <= MainNet.Checkpoints[i-1].Height {
			t.Errorf("checkpoints not strictly increasing in height at index %d", i)
		}
	}
}
