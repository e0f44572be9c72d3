package splitkey

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Secp256k1CurveOrder is the order n of the secp256k1 group.
var Secp256k1CurveOrder, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// Lambda1 and Lambda2 are the non-trivial cube roots of unity modulo n.
// Lambda2 == Lambda1^2 mod n.
var (
	Lambda1, _ = new(big.Int).SetString("5363ad4cc05c30e0a5261c028812645a122e22ea20816678df02967c1b23bd72", 16)
	Lambda2, _ = new(big.Int).SetString("ac9c52b33fa3cf1f5ad9e3fd77ed9ba4a880b9fc8ec739c2e0cfc810b51283ce", 16)
)

// beta[i] (i = 1, 2) is the cube root of unity modulo p matching Lambda_i:
// Lambda_i * (x, y) == (beta[i] * x, y).
var beta [3]secp256k1.FieldVal

func init() {
	b, _ := hex.DecodeString("7ae96a2b657c07106e64479eac3434e99cf0497512f58995c1396c28719501ee")
	beta[1].SetByteSlice(b)
	beta[2].Set(&beta[1]).Mul(&beta[1]).Normalize()
}

// Curve is the elliptic-curve arithmetic used by the reconstruction engine
// and the search engine.
type Curve interface {
	// Order returns the group order n.
	Order() *big.Int

	// IsValidScalar reports whether k is usable as a private key (0 < k < n).
	IsValidScalar(k *big.Int) bool

	// ScalarBaseMult returns k*G. A scalar outside [0, n) or equal to zero is
	// rejected.
	ScalarBaseMult(k *big.Int) (*btcec.PublicKey, error)

	// Negate returns -p, the point with the same x and negated y.
	Negate(p *btcec.PublicKey) *btcec.PublicKey

	// Endomorphism returns the point whose discrete log is Lambda_i times the
	// discrete log of p. i must be 0, 1 or 2; 0 is the identity.
	Endomorphism(p *btcec.PublicKey, i int) *btcec.PublicKey

	// Add returns p + q, or ErrPointAtInfinity when q == -p.
	Add(p, q *btcec.PublicKey) (*btcec.PublicKey, error)
}

// Secp256k1 implements Curve on top of the dcrd secp256k1 package.
type Secp256k1 struct{}

// NewSecp256k1 returns the secp256k1 curve.
func NewSecp256k1() *Secp256k1 {
	return &Secp256k1{}
}

// Order implements Curve.
func (c *Secp256k1) Order() *big.Int {
	return new(big.Int).Set(Secp256k1CurveOrder)
}

// IsValidScalar implements Curve.
func (c *Secp256k1) IsValidScalar(k *big.Int) bool {
	return k != nil && k.Sign() > 0 && k.Cmp(Secp256k1CurveOrder) < 0
}

// ScalarBaseMult implements Curve.
func (c *Secp256k1) ScalarBaseMult(k *big.Int) (*btcec.PublicKey, error) {
	s, err := modNScalar(k)
	if err != nil {
		return nil, err
	}
	if s.IsZero() {
		return nil, ErrPointAtInfinity
	}

	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(s, &result)
	result.ToAffine()
	return secp256k1.NewPublicKey(&result.X, &result.Y), nil
}

// Negate implements Curve.
func (c *Secp256k1) Negate(p *btcec.PublicKey) *btcec.PublicKey {
	var point secp256k1.JacobianPoint
	p.AsJacobian(&point)
	point.Y.Negate(1).Normalize()
	return secp256k1.NewPublicKey(&point.X, &point.Y)
}

// Endomorphism implements Curve.
func (c *Secp256k1) Endomorphism(p *btcec.PublicKey, i int) *btcec.PublicKey {
	if i <= 0 || i >= len(beta) {
		return p
	}
	var point secp256k1.JacobianPoint
	p.AsJacobian(&point)
	point.X.Mul(&beta[i]).Normalize()
	return secp256k1.NewPublicKey(&point.X, &point.Y)
}

// Add implements Curve.
func (c *Secp256k1) Add(p, q *btcec.PublicKey) (*btcec.PublicKey, error) {
	var a, b, sum secp256k1.JacobianPoint
	p.AsJacobian(&a)
	q.AsJacobian(&b)
	secp256k1.AddNonConst(&a, &b, &sum)
	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, ErrPointAtInfinity
	}
	sum.ToAffine()
	return secp256k1.NewPublicKey(&sum.X, &sum.Y), nil
}

// modNScalar converts k to a ModNScalar, rejecting values outside [0, n).
func modNScalar(k *big.Int) (*secp256k1.ModNScalar, error) {
	if k == nil || k.Sign() < 0 || k.BitLen() > 256 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrCryptoRange)
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(k.Bytes()); overflow {
		return nil, fmt.Errorf("%w: scalar not below the curve order", ErrCryptoRange)
	}
	return &s, nil
}

// scalarBytes returns k as a 32-byte big-endian slice.
func scalarBytes(k *big.Int) []byte {
	b := make([]byte, 32)
	k.FillBytes(b)
	return b
}
