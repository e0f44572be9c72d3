package splitkey

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Transform is one of the six scalar maps that preserve the x-coordinate
// class of a point: d, d*l1, d*l2 and their negations (all mod n).
//
// For a point P = d*G the transformed scalar satisfies
// Transform.Apply(d)*G == Transform.Point(curve, P).
type Transform struct {
	ID     int
	Name   string
	Endo   int  // 0: none, 1: Lambda1, 2: Lambda2
	Negate bool // applied after the endomorphism
	fn     func(d *big.Int) *big.Int
}

// Apply returns the transformed scalar reduced mod n. d is left untouched.
func (t Transform) Apply(d *big.Int) *big.Int {
	return t.fn(d)
}

// Point maps p = d*G to Apply(d)*G using point operations only.
func (t Transform) Point(c Curve, p *btcec.PublicKey) *btcec.PublicKey {
	q := c.Endomorphism(p, t.Endo)
	if t.Negate {
		q = c.Negate(q)
	}
	return q
}

func (t Transform) String() string {
	return t.Name
}

// Identity returns d mod n.
func Identity(d *big.Int) *big.Int {
	return new(big.Int).Mod(d, Secp256k1CurveOrder)
}

// Endo1 returns d*Lambda1 mod n.
func Endo1(d *big.Int) *big.Int {
	k := new(big.Int).Mul(d, Lambda1)
	return k.Mod(k, Secp256k1CurveOrder)
}

// Endo2 returns d*Lambda2 mod n.
func Endo2(d *big.Int) *big.Int {
	k := new(big.Int).Mul(d, Lambda2)
	return k.Mod(k, Secp256k1CurveOrder)
}

// Sym returns n - d, reduced so that Sym(0) == 0.
func Sym(d *big.Int) *big.Int {
	k := Identity(d)
	k.Sub(Secp256k1CurveOrder, k)
	return k.Mod(k, Secp256k1CurveOrder)
}

// SymEndo1 returns n - (d*Lambda1 mod n).
func SymEndo1(d *big.Int) *big.Int {
	return Sym(Endo1(d))
}

// SymEndo2 returns n - (d*Lambda2 mod n).
func SymEndo2(d *big.Int) *big.Int {
	return Sym(Endo2(d))
}

// transforms lists the candidates in evaluation order. The order is part of
// the contract: the first matching transform wins.
var transforms = [...]Transform{
	{ID: 0, Name: "identity", Endo: 0, Negate: false, fn: Identity},
	{ID: 1, Name: "endo1", Endo: 1, Negate: false, fn: Endo1},
	{ID: 2, Name: "endo2", Endo: 2, Negate: false, fn: Endo2},
	{ID: 3, Name: "sym", Endo: 0, Negate: true, fn: Sym},
	{ID: 4, Name: "sym+endo1", Endo: 1, Negate: true, fn: SymEndo1},
	{ID: 5, Name: "sym+endo2", Endo: 2, Negate: true, fn: SymEndo2},
}

// Transforms returns the six transforms in evaluation order.
func Transforms() []Transform {
	out := make([]Transform, len(transforms))
	copy(out, transforms[:])
	return out
}
