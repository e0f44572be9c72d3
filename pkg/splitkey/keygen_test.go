package splitkey

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
)

const strongPasswordKey = "388D2BC28A1C7DE5695651EA4D6ED3029B4F75B7F767736182577667F8C8D997"

func TestDeriveScalar_KnownVector(t *testing.T) {
	k, err := DeriveScalar("A Strong Password")
	if err != nil {
		t.Fatalf("DeriveScalar: %v", err)
	}
	if got := FormatHex(k); got != strongPasswordKey {
		t.Errorf("Expected %s, got %s", strongPasswordKey, got)
	}
}

func TestKeyDeriver_Deterministic(t *testing.T) {
	d := NewKeyDeriver(NewSecp256k1(), NewBitcoinCodec(nil), nil)

	a, err := d.DeriveKeyPair("A Strong Password", false, Compressed)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	b, err := d.DeriveKeyPair("A Strong Password", false, Compressed)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	if a.PrivateKey.Cmp(b.PrivateKey) != 0 {
		t.Error("Derivation without paranoid mode must be reproducible")
	}
	if FormatHex(a.PrivateKey) != strongPasswordKey {
		t.Errorf("Unexpected key %s", FormatHex(a.PrivateKey))
	}
	if !a.Compressed || !strings.HasPrefix(a.PublicKeyHex, "0") || len(a.PublicKeyHex) != 66 {
		t.Errorf("Unexpected compressed key pair: %+v", a)
	}

	u, err := d.DeriveKeyPair("A Strong Password", false, Uncompressed)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	if u.PrivateKey.Cmp(a.PrivateKey) != 0 {
		t.Error("Compression must not change the private key")
	}
	if u.Compressed || !strings.HasPrefix(u.WIF, "5") || len(u.PublicKeyHex) != 130 {
		t.Errorf("Unexpected uncompressed key pair: WIF=%s pub=%s", u.WIF, u.PublicKeyHex)
	}
}

func TestKeyDeriver_Paranoid(t *testing.T) {
	zeros := bytes.NewReader(make([]byte, 16))
	d := NewKeyDeriver(NewSecp256k1(), NewBitcoinCodec(nil), zeros)

	kp, err := d.DeriveKeyPair("A Strong Password", true, Compressed)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	// 16 zero bytes append 32 '0' characters.
	want := "27673DB22604B080F947CA13C1150B78C7B359562AD262E18D219452FFB49EFC"
	if got := FormatHex(kp.PrivateKey); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestKeyDeriver_ParanoidDiffers(t *testing.T) {
	d := NewKeyDeriver(NewSecp256k1(), NewBitcoinCodec(nil), nil)

	a, err := d.DeriveKeyPair("A Strong Password", true, Compressed)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	b, err := d.DeriveKeyPair("A Strong Password", true, Compressed)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	if a.PrivateKey.Cmp(b.PrivateKey) == 0 {
		t.Error("Paranoid derivations must differ")
	}
}

func TestKeyDeriver_Errors(t *testing.T) {
	d := NewKeyDeriver(NewSecp256k1(), NewBitcoinCodec(nil), bytes.NewReader(nil))

	if _, err := d.DeriveKeyPair("short", false, Compressed); !errors.Is(err, ErrSeedTooShort) {
		t.Errorf("Expected ErrSeedTooShort, got %v", err)
	}
	if _, err := d.DeriveKeyPair("A Strong Password", false, Both); !errors.Is(err, ErrBothModesKeyPair) {
		t.Errorf("Expected ErrBothModesKeyPair, got %v", err)
	}
	if _, err := d.DeriveKeyPair("A Strong Password", false, Both); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
	// Eight runes, more than eight bytes.
	if _, err := d.DeriveKeyPair("ééééééé", false, Compressed); !errors.Is(err, ErrSeedTooShort) {
		t.Errorf("Expected seven runes to be rejected, got %v", err)
	}
	if _, err := d.DeriveKeyPair("éééééééé", false, Compressed); err != nil {
		t.Errorf("Expected eight runes to be accepted, got %v", err)
	}
	// Empty random source.
	if _, err := d.DeriveKeyPair("A Strong Password", true, Compressed); err == nil {
		t.Error("Expected an error from an exhausted random source")
	}
}

func TestScalarFromDigest(t *testing.T) {
	var zero [32]byte
	if _, err := scalarFromDigest(zero); !errors.Is(err, ErrDerivedKeyOutOfRange) {
		t.Errorf("Expected zero digest to be rejected, got %v", err)
	}

	var n [32]byte
	Secp256k1CurveOrder.FillBytes(n[:])
	if _, err := scalarFromDigest(n); !errors.Is(err, ErrCryptoRange) {
		t.Errorf("Expected n to be rejected, got %v", err)
	}

	var max [32]byte
	for i := range max {
		max[i] = 0xff
	}
	if _, err := scalarFromDigest(max); err == nil {
		t.Error("Expected 2^256-1 to be rejected")
	}

	var below [32]byte
	new(big.Int).Sub(Secp256k1CurveOrder, big.NewInt(1)).FillBytes(below[:])
	k, err := scalarFromDigest(below)
	if err != nil {
		t.Fatalf("Expected n-1 to be accepted: %v", err)
	}
	if k.Cmp(new(big.Int).Sub(Secp256k1CurveOrder, big.NewInt(1))) != 0 {
		t.Errorf("Unexpected scalar %s", k.Text(16))
	}
}

func TestParanoidSeed(t *testing.T) {
	seed, err := ParanoidSeed("A Strong Password", bytes.NewReader(bytes.Repeat([]byte{0xab}, 16)))
	if err != nil {
		t.Fatalf("ParanoidSeed: %v", err)
	}
	if want := "A Strong Password" + strings.Repeat("ab", 16); seed != want {
		t.Errorf("Expected %s, got %s", want, seed)
	}
}
