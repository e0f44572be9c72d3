package splitkey

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcec/v2"
	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinSeedLength is the minimum passphrase length, in characters.
	MinSeedLength = 8

	seedSalt         = "VanitySearch"
	seedIterations   = 2048
	seedStretchedLen = 64
	paranoidBytes    = 16 // hex encoded to 32 characters
)

// CompressionMode selects which public key serialization is used.
type CompressionMode int

const (
	Compressed CompressionMode = iota
	Uncompressed
	Both
)

func (m CompressionMode) String() string {
	switch m {
	case Compressed:
		return "compressed"
	case Uncompressed:
		return "uncompressed"
	case Both:
		return "compressed or uncompressed"
	default:
		return "unknown"
	}
}

// KeyPair is a derived private key with its public key and text forms.
type KeyPair struct {
	PrivateKey   *big.Int
	PublicKey    *btcec.PublicKey
	Compressed   bool
	WIF          string
	PublicKeyHex string
}

// KeyDeriver turns passphrases into private keys.
type KeyDeriver struct {
	curve Curve
	codec AddressCodec
	rand  io.Reader
}

// NewKeyDeriver returns a deriver. A nil random source means crypto/rand.
func NewKeyDeriver(curve Curve, codec AddressCodec, random io.Reader) *KeyDeriver {
	if random == nil {
		random = rand.Reader
	}
	return &KeyDeriver{curve: curve, codec: codec, rand: random}
}

// DeriveKeyPair derives a key pair from passphrase. With paranoid set, 32
// random characters are appended to the passphrase first, so the result is
// no longer reproducible.
func (d *KeyDeriver) DeriveKeyPair(passphrase string, paranoid bool, mode CompressionMode) (*KeyPair, error) {
	if utf8.RuneCountInString(passphrase) < MinSeedLength {
		return nil, ErrSeedTooShort
	}
	if mode != Compressed && mode != Uncompressed {
		return nil, ErrBothModesKeyPair
	}
	if paranoid {
		var err error
		if passphrase, err = ParanoidSeed(passphrase, d.rand); err != nil {
			return nil, err
		}
	}
	compressed := mode == Compressed

	priv, err := DeriveScalar(passphrase)
	if err != nil {
		return nil, err
	}
	pub, err := d.curve.ScalarBaseMult(priv)
	if err != nil {
		return nil, err
	}
	wif, err := d.codec.EncodePrivateKey(priv, compressed)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		PrivateKey:   priv,
		PublicKey:    pub,
		Compressed:   compressed,
		WIF:          wif,
		PublicKeyHex: d.codec.PublicKeyHex(pub, compressed),
	}, nil
}

// ParanoidSeed appends 32 random hex characters read from r to seed.
func ParanoidSeed(seed string, r io.Reader) (string, error) {
	buf := make([]byte, paranoidBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random seed: %w", err)
	}
	return seed + hex.EncodeToString(buf), nil
}

// DeriveScalar stretches seed with PBKDF2-HMAC-SHA512 and hashes the result
// with SHA-256 into a private key.
func DeriveScalar(seed string) (*big.Int, error) {
	stretched := pbkdf2.Key([]byte(seed), []byte(seedSalt), seedIterations, seedStretchedLen, sha512.New)
	return scalarFromDigest(sha256simd.Sum256(stretched))
}

// scalarFromDigest interprets digest as a big-endian private key. Digests
// equal to zero or not below n are rejected rather than reduced.
func scalarFromDigest(digest [32]byte) (*big.Int, error) {
	k := new(big.Int).SetBytes(digest[:])
	if k.Sign() == 0 || k.Cmp(Secp256k1CurveOrder) >= 0 {
		return nil, ErrDerivedKeyOutOfRange
	}
	return k, nil
}
