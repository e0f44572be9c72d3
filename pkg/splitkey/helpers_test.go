package splitkey

import (
	"io"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Well-known vectors for private key 1.
const (
	keyOneP2PKHCompressed   = "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"
	keyOneP2PKHUncompressed = "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm"
	keyOneP2SHP2WPKH        = "3JvL6Ymt8MVWiCNHC7oWU6nLeHNJKLZGLN"
	keyOneP2WPKH            = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	keyOneWIFCompressed     = "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"
	keyOneWIFUncompressed   = "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf"
)

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	k, ok := new(big.Int).SetString(s, 16)
	if !ok {
		t.Fatalf("bad hex literal %q", s)
	}
	return k
}

func pointFor(t *testing.T, k *big.Int) *btcec.PublicKey {
	t.Helper()
	p, err := NewSecp256k1().ScalarBaseMult(k)
	if err != nil {
		t.Fatalf("ScalarBaseMult(%s): %v", k.Text(16), err)
	}
	return p
}

func addressFor(t *testing.T, k *big.Int, kind AddressKind, compressed bool) string {
	t.Helper()
	addr, err := NewBitcoinCodec(nil).Address(kind, compressed, pointFor(t, k))
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	return addr
}

func wifFor(t *testing.T, k *big.Int, compressed bool) string {
	t.Helper()
	wif, err := NewBitcoinCodec(nil).EncodePrivateKey(k, compressed)
	if err != nil {
		t.Fatalf("EncodePrivateKey: %v", err)
	}
	return wif
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partial_keys.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// countingCurve counts scalar multiplications.
type countingCurve struct {
	Curve
	mults int
}

func (c *countingCurve) ScalarBaseMult(k *big.Int) (*btcec.PublicKey, error) {
	c.mults++
	return c.Curve.ScalarBaseMult(k)
}
