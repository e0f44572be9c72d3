package splitkey

import (
	"errors"
	"fmt"
)

// Error kinds. Every fatal error returned by this package wraps exactly one
// of these, so callers can classify with errors.Is.
var (
	ErrConfig       = errors.New("invalid configuration")
	ErrFile         = errors.New("file error")
	ErrRecordFormat = errors.New("invalid partial key file")
	ErrCryptoRange  = errors.New("invalid scalar")
)

var (
	ErrSeedTooShort         = fmt.Errorf("%w: use a seed of at least %d characters to generate a key pair", ErrConfig, MinSeedLength)
	ErrBothModesKeyPair     = fmt.Errorf("%w: use compressed or uncompressed to generate a key pair", ErrConfig)
	ErrDerivedKeyOutOfRange = fmt.Errorf("%w: derived private key is zero or not below the curve order", ErrCryptoRange)
	ErrPointAtInfinity      = fmt.Errorf("%w: scalar maps to the point at infinity", ErrCryptoRange)
)

// RecordFormatError reports a structurally corrupt partial key file. It is
// fatal for the whole batch.
type RecordFormatError struct {
	Line     int    // zero-based index among non-empty lines
	Expected string // marker that was expected at Line
}

func (e *RecordFormatError) Error() string {
	return fmt.Sprintf("invalid partial key file at line %d (%q expected)", e.Line, e.Expected)
}

func (e *RecordFormatError) Unwrap() error { return ErrRecordFormat }

// SkipReason classifies a record that was skipped without aborting the batch.
type SkipReason int

const (
	SkipUnsupportedKind SkipReason = iota
	SkipCompressionMismatch
	SkipUnreconstructable
)

func (r SkipReason) String() string {
	switch r {
	case SkipUnsupportedKind:
		return "address format not supported"
	case SkipCompressionMismatch:
		return "wrong compression mode, ignoring key"
	case SkipUnreconstructable:
		return "unable to reconstruct final key"
	default:
		return "unknown"
	}
}

// SkipWarning describes a record that produced no output. It is logged and
// collected, never returned as a fatal error.
type SkipWarning struct {
	Line    int
	Reason  SkipReason
	Address string
	Partial string
}

func (w *SkipWarning) Error() string {
	switch w.Reason {
	case SkipUnreconstructable:
		return fmt.Sprintf("%s from partialkey line %d (addr: %s, partkey: %s)", w.Reason, w.Line, w.Address, w.Partial)
	default:
		return fmt.Sprintf("invalid partialkey at line %d: %s (%s)", w.Line, w.Reason, w.Address)
	}
}
