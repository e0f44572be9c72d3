package parser

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

// ParseInt parses a decimal command line value. name identifies the
// argument in the error.
func ParseInt(name, v string) (int, error) {
	r, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s argument, number expected", splitkey.ErrConfig, name)
	}
	return r, nil
}

// ParseUint64 is ParseInt for non-negative 64-bit values.
func ParseUint64(name, v string) (uint64, error) {
	r, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s argument, number expected", splitkey.ErrConfig, name)
	}
	return r, nil
}

// ParseInts parses a sep-separated list of decimal values, such as "0,1,2".
func ParseInts(name, text string, sep string) ([]int, error) {
	parts := strings.Split(text, sep)
	tokens := make([]int, 0, len(parts))
	for _, p := range parts {
		item, err := ParseInt(name, p)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, item)
	}
	return tokens, nil
}

// ParseBigInt parses a scalar given in hex (with or without 0x) or decimal.
// Values containing hex letters, or longer than 20 digits, are read as hex.
func ParseBigInt(v string) (*big.Int, error) {
	s := strings.TrimSpace(v)
	hexOnly := strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, fmt.Errorf("%w: empty number", splitkey.ErrConfig)
	}

	z := new(big.Int)
	if hexOnly || strings.ContainsAny(s, "abcdefABCDEF") || len(s) > 20 {
		if _, ok := z.SetString(s, 16); ok {
			return z, nil
		}
		if hexOnly {
			return nil, fmt.Errorf("%w: invalid number format: %s", splitkey.ErrConfig, v)
		}
	}
	if _, ok := z.SetString(s, 10); !ok {
		return nil, fmt.Errorf("%w: invalid number format: %s", splitkey.ErrConfig, v)
	}
	return z, nil
}
