package splitkey

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// AddressKind is the encoding of an address derived from a public key.
type AddressKind int

const (
	P2PKH      AddressKind = iota // legacy, leading '1'
	P2SHP2WPKH                    // nested segwit, leading '3'
	P2WPKH                        // native segwit (bech32), leading 'b'/'B'
)

func (k AddressKind) String() string {
	switch k {
	case P2PKH:
		return "P2PKH"
	case P2SHP2WPKH:
		return "P2SH"
	case P2WPKH:
		return "BECH32"
	default:
		return "UNKNOWN"
	}
}

// Tag is the prefix written in front of a WIF key in result files.
func (k AddressKind) Tag() string {
	switch k {
	case P2PKH:
		return "p2pkh"
	case P2SHP2WPKH:
		return "p2wpkh-p2sh"
	case P2WPKH:
		return "p2wpkh"
	default:
		return "unknown"
	}
}

// AddressKinds returns every supported kind.
func AddressKinds() []AddressKind {
	return []AddressKind{P2PKH, P2SHP2WPKH, P2WPKH}
}

// KindOf derives the address kind from the leading character of address.
func KindOf(address string) (AddressKind, bool) {
	if address == "" {
		return 0, false
	}
	switch address[0] {
	case '1':
		return P2PKH, true
	case '3':
		return P2SHP2WPKH, true
	case 'b', 'B':
		return P2WPKH, true
	default:
		return 0, false
	}
}

// SameAddress compares two addresses of the given kind. Bech32 is case
// insensitive; base58 is not.
func SameAddress(kind AddressKind, a, b string) bool {
	if kind == P2WPKH {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// AddressCodec encodes points into addresses and converts private keys
// to and from their text forms.
type AddressCodec interface {
	// Address encodes p as an address of the given kind.
	Address(kind AddressKind, compressed bool, p *btcec.PublicKey) (string, error)

	// EncodePrivateKey returns the WIF form of k.
	EncodePrivateKey(k *big.Int, compressed bool) (string, error)

	// DecodePrivateKey accepts a WIF or hex private key and returns the
	// scalar and its compression flag. Hex keys are reported as compressed.
	DecodePrivateKey(text string) (*big.Int, bool, error)

	// PublicKeyHex serializes p as hex.
	PublicKeyHex(p *btcec.PublicKey, compressed bool) string

	// ParsePublicKeyHex parses a hex public key and reports whether it was
	// in compressed form.
	ParsePublicKeyHex(text string) (*btcec.PublicKey, bool, error)
}

// BitcoinCodec implements AddressCodec with btcutil for one network.
type BitcoinCodec struct {
	Net *chaincfg.Params
}

// NewBitcoinCodec returns a codec for net, or mainnet when net is nil.
func NewBitcoinCodec(net *chaincfg.Params) *BitcoinCodec {
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	return &BitcoinCodec{Net: net}
}

// Address implements AddressCodec.
func (c *BitcoinCodec) Address(kind AddressKind, compressed bool, p *btcec.PublicKey) (string, error) {
	var serialized []byte
	if compressed {
		serialized = p.SerializeCompressed()
	} else {
		serialized = p.SerializeUncompressed()
	}
	pubKeyHash := btcutil.Hash160(serialized)

	var (
		addr btcutil.Address
		err  error
	)
	switch kind {
	case P2PKH:
		addr, err = btcutil.NewAddressPubKeyHash(pubKeyHash, c.Net)
	case P2SHP2WPKH:
		redeemScript, serr := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(pubKeyHash).
			Script()
		if serr != nil {
			return "", fmt.Errorf("failed to build redeem script: %w", serr)
		}
		addr, err = btcutil.NewAddressScriptHash(redeemScript, c.Net)
	case P2WPKH:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, c.Net)
	default:
		return "", fmt.Errorf("%w: unsupported address kind %d", ErrConfig, int(kind))
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode %s address: %w", kind, err)
	}
	return addr.EncodeAddress(), nil
}

// EncodePrivateKey implements AddressCodec. Zero is accepted so that split-key
// offsets can be written back out.
func (c *BitcoinCodec) EncodePrivateKey(k *big.Int, compressed bool) (string, error) {
	if k == nil || k.Sign() < 0 || k.Cmp(Secp256k1CurveOrder) >= 0 {
		return "", fmt.Errorf("%w: private key out of range", ErrCryptoRange)
	}
	privKey, _ := btcec.PrivKeyFromBytes(scalarBytes(k))
	wif, err := btcutil.NewWIF(privKey, c.Net, compressed)
	if err != nil {
		return "", fmt.Errorf("failed to encode WIF: %w", err)
	}
	return wif.String(), nil
}

// DecodePrivateKey implements AddressCodec.
func (c *BitcoinCodec) DecodePrivateKey(text string) (*big.Int, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, fmt.Errorf("%w: empty private key", ErrCryptoRange)
	}
	if c.looksLikeWIF(text) {
		return c.decodeWIF(text)
	}
	k, err := decodeHexScalar(text)
	if err != nil {
		return nil, false, err
	}
	return k, true, nil
}

// looksLikeWIF checks the length and leading character of a base58 WIF
// string for the codec network.
func (c *BitcoinCodec) looksLikeWIF(text string) bool {
	if len(text) != 51 && len(text) != 52 {
		return false
	}
	switch c.Net.PrivateKeyID {
	case chaincfg.MainNetParams.PrivateKeyID:
		return strings.IndexByte("5KL", text[0]) >= 0
	default:
		return strings.IndexByte("9c", text[0]) >= 0
	}
}

func (c *BitcoinCodec) decodeWIF(text string) (*big.Int, bool, error) {
	wif, err := btcutil.DecodeWIF(text)
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid WIF private key: %v", ErrCryptoRange, err)
	}
	if !wif.IsForNet(c.Net) {
		return nil, false, fmt.Errorf("%w: WIF private key is not for %s", ErrCryptoRange, c.Net.Name)
	}
	k := new(big.Int).SetBytes(wif.PrivKey.Serialize())
	return k, wif.CompressPubKey, nil
}

// decodeHexScalar parses an optionally 0x-prefixed hex scalar below n.
func decodeHexScalar(text string) (*big.Int, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	if s == "" || len(s) > 64 {
		return nil, fmt.Errorf("%w: invalid hex private key %q", ErrCryptoRange, text)
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex private key %q", ErrCryptoRange, text)
	}
	k := new(big.Int).SetBytes(b)
	if k.Cmp(Secp256k1CurveOrder) >= 0 {
		return nil, fmt.Errorf("%w: private key not below the curve order", ErrCryptoRange)
	}
	return k, nil
}

// PublicKeyHex implements AddressCodec.
func (c *BitcoinCodec) PublicKeyHex(p *btcec.PublicKey, compressed bool) string {
	if compressed {
		return strings.ToUpper(hex.EncodeToString(p.SerializeCompressed()))
	}
	return strings.ToUpper(hex.EncodeToString(p.SerializeUncompressed()))
}

// ParsePublicKeyHex implements AddressCodec.
func (c *BitcoinCodec) ParsePublicKeyHex(text string) (*btcec.PublicKey, bool, error) {
	b, err := hex.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid public key hex: %v", ErrConfig, err)
	}
	p, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid public key: %v", ErrConfig, err)
	}
	return p, len(b) == btcec.PubKeyBytesLenCompressed, nil
}

// FormatHex renders k as 64 upper-case hex digits.
func FormatHex(k *big.Int) string {
	return fmt.Sprintf("%064X", k)
}
