package search

import (
	"fmt"
	"strings"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

const (
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	bech32Charset  = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	bech32Prefix   = "bc1q"
)

// Pattern is a wanted address prefix. '?' matches any single character and
// '*' any sequence; a pattern with wildcards must match the whole address.
type Pattern struct {
	Text          string
	Kind          splitkey.AddressKind
	wildcard      bool
	caseSensitive bool
}

// ParsePattern validates text and derives its address kind from the leading
// character. Bech32 patterns are always matched case-insensitively.
func ParsePattern(text string, caseSensitive bool) (*Pattern, error) {
	kind, ok := splitkey.KindOf(text)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported prefix %q", splitkey.ErrConfig, text)
	}

	p := &Pattern{
		Text:          text,
		Kind:          kind,
		wildcard:      strings.ContainsAny(text, "?*"),
		caseSensitive: caseSensitive && kind != splitkey.P2WPKH,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParsePatterns parses every prefix and drops duplicates.
func ParsePatterns(prefixes []string, caseSensitive bool) ([]*Pattern, error) {
	seen := make(map[string]bool, len(prefixes))
	patterns := make([]*Pattern, 0, len(prefixes))
	for _, text := range prefixes {
		p, err := ParsePattern(text, caseSensitive)
		if err != nil {
			return nil, err
		}
		key := p.Text
		if !p.caseSensitive {
			key = strings.ToLower(key)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func (p *Pattern) validate() error {
	switch p.Kind {
	case splitkey.P2WPKH:
		lower := strings.ToLower(p.Text)
		n := min(len(lower), len(bech32Prefix))
		if !wildcardMatch(lower[:n], bech32Prefix[:n], true) {
			return fmt.Errorf("%w: bech32 prefix %q must start with %s", splitkey.ErrConfig, p.Text, bech32Prefix)
		}
		return checkAlphabet(p.Text, lower[n:], bech32Charset)
	default:
		if !p.caseSensitive {
			// Either case may be valid base58.
			return checkAlphabet(p.Text, p.Text, base58Alphabet+strings.ToUpper(base58Alphabet)+strings.ToLower(base58Alphabet))
		}
		return checkAlphabet(p.Text, p.Text, base58Alphabet)
	}
}

func checkAlphabet(text, part, alphabet string) error {
	for _, r := range part {
		if r == '?' || r == '*' {
			continue
		}
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("%w: prefix %q contains invalid character %q", splitkey.ErrConfig, text, r)
		}
	}
	return nil
}

// Match reports whether address satisfies the pattern.
func (p *Pattern) Match(address string) bool {
	if p.wildcard {
		return wildcardMatch(p.Text, address, !p.caseSensitive)
	}
	if len(address) < len(p.Text) {
		return false
	}
	if p.caseSensitive {
		return address[:len(p.Text)] == p.Text
	}
	return strings.EqualFold(address[:len(p.Text)], p.Text)
}

func (p *Pattern) String() string {
	return p.Text
}

// wildcardMatch matches pattern against s with '?' and '*' wildcards.
func wildcardMatch(pattern, s string, fold bool) bool {
	if fold {
		pattern, s = strings.ToLower(pattern), strings.ToLower(s)
	}
	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star, mark = pi, si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
