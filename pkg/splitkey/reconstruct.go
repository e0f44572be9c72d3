package splitkey

import (
	"errors"
	"fmt"
	"math/big"
)

// BaseKey is the private key the split-key search was run against.
type BaseKey struct {
	Scalar     *big.Int
	Compressed bool
}

// ReconstructionResult is the outcome of one record.
type ReconstructionResult struct {
	Record     *PartialKeyRecord
	FullScalar *big.Int  // set when Matched
	Transform  Transform // winning transform, set when Matched
	Matched    bool

	// Warning is set when the record was skipped or no transform matched.
	Warning *SkipWarning
}

// Found returns the sink view of a matched result, or nil.
func (r *ReconstructionResult) Found() *Found {
	if !r.Matched {
		return nil
	}
	return &Found{
		Address:    r.Record.TargetAddress,
		Kind:       r.Record.Kind,
		PrivateKey: r.FullScalar,
		Compressed: r.Record.Compressed,
	}
}

// Engine recovers full private keys from partial key records.
type Engine struct {
	curve      Curve
	codec      AddressCodec
	transforms []Transform
}

// NewEngine returns an engine evaluating the six transforms in order.
func NewEngine(curve Curve, codec AddressCodec) *Engine {
	return &Engine{
		curve:      curve,
		codec:      codec,
		transforms: Transforms(),
	}
}

// Reconstruct searches the transform space for rec. For each transform T, in
// order, the candidate T(base) + rec.PartialScalar (mod n) is multiplied by G,
// encoded with the record's kind and compression and compared with the
// target address. The first match wins.
//
// A record whose compression differs from the base key is skipped without
// evaluating any transform.
func (e *Engine) Reconstruct(base *BaseKey, rec *PartialKeyRecord) (*ReconstructionResult, error) {
	if base == nil || base.Scalar == nil || base.Scalar.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative base private key", ErrCryptoRange)
	}

	result := &ReconstructionResult{Record: rec}
	if rec.Compressed != base.Compressed {
		result.Warning = &SkipWarning{
			Line:    rec.Line,
			Reason:  SkipCompressionMismatch,
			Address: rec.TargetAddress,
			Partial: rec.PartialText,
		}
		return result, nil
	}

	for _, t := range e.transforms {
		full := t.Apply(base.Scalar)
		full.Add(full, rec.PartialScalar)
		full.Mod(full, Secp256k1CurveOrder)

		ok, err := e.matches(full, rec)
		if err != nil {
			return nil, err
		}
		if ok {
			result.FullScalar = full
			result.Transform = t
			result.Matched = true
			return result, nil
		}
	}

	result.Warning = &SkipWarning{
		Line:    rec.Line,
		Reason:  SkipUnreconstructable,
		Address: rec.TargetAddress,
		Partial: rec.PartialText,
	}
	return result, nil
}

// matches reports whether full*G encodes to the record's target address.
func (e *Engine) matches(full *big.Int, rec *PartialKeyRecord) (bool, error) {
	p, err := e.curve.ScalarBaseMult(full)
	if errors.Is(err, ErrPointAtInfinity) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	addr, err := e.codec.Address(rec.Kind, rec.Compressed, p)
	if err != nil {
		return false, err
	}
	return SameAddress(rec.Kind, addr, rec.TargetAddress), nil
}
