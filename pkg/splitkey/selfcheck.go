package splitkey

import (
	"errors"
	"fmt"
	"math/big"
)

// SelfCheck verifies the endomorphism constants and that every transform
// agrees with its point-level counterpart for k, then round-trips k through
// the codec. It returns the first inconsistency found.
func SelfCheck(curve Curve, codec AddressCodec, k *big.Int) error {
	n := curve.Order()

	cube := new(big.Int).Exp(Lambda1, big.NewInt(3), n)
	if cube.Cmp(big.NewInt(1)) != 0 {
		return errors.New("lambda1 is not a cube root of unity")
	}
	sq := new(big.Int).Mul(Lambda1, Lambda1)
	if sq.Mod(sq, n).Cmp(Lambda2) != 0 {
		return errors.New("lambda2 != lambda1^2 mod n")
	}

	if !curve.IsValidScalar(k) {
		return fmt.Errorf("%w: check key out of range", ErrCryptoRange)
	}
	p, err := curve.ScalarBaseMult(k)
	if err != nil {
		return err
	}
	for _, t := range Transforms() {
		want, err := curve.ScalarBaseMult(t.Apply(k))
		if err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}
		if !t.Point(curve, p).IsEqual(want) {
			return fmt.Errorf("%s: scalar and point transforms disagree", t)
		}
	}

	for _, compressed := range []bool{true, false} {
		wif, err := codec.EncodePrivateKey(k, compressed)
		if err != nil {
			return err
		}
		got, gotCompressed, err := codec.DecodePrivateKey(wif)
		if err != nil {
			return err
		}
		if got.Cmp(k) != 0 || gotCompressed != compressed {
			return fmt.Errorf("WIF round trip failed for %s", wif)
		}
	}
	return nil
}
