package search

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

const (
	// DefaultMaxFound caps the hits reported per batch of keys.
	DefaultMaxFound = 65536

	// DefaultGridBlocks of -1 lets the device pick its block count.
	DefaultGridBlocks  = -1
	DefaultGridThreads = 128
)

// ErrIncoherentGrid is returned when the grid list does not hold two values
// per GPU.
var ErrIncoherentGrid = fmt.Errorf("%w: invalid gridSize or gpuId argument, must have coherent size", splitkey.ErrConfig)

// Options are the raw search settings collected from the command line.
type Options struct {
	Prefixes      []string
	Threads       int
	ThreadsPinned bool // Threads was given explicitly
	GPU           bool
	GPUIDs        []int
	GridSize      []int
	MaxFound      int
	Rekey         uint64 // in millions of keys, 0 disables
	CaseSensitive bool
	Mode          splitkey.CompressionMode
	StartPubKey   string // hex; enables split-key mode
	Seed          string
	Paranoid      bool
	Stop          bool
	KeyLimit      uint64 // keys per worker, 0 is unlimited
}

// Grid is the launch shape of one GPU.
type Grid struct {
	Blocks  int
	Threads int
}

// Config is a validated search configuration.
type Config struct {
	Patterns      []*Pattern
	Threads       int
	GPU           bool
	GPUIDs        []int
	Grids         []Grid // one per GPUIDs entry
	MaxFound      int
	Rekey         uint64
	CaseSensitive bool
	Mode          splitkey.CompressionMode
	StartPubKey   *btcec.PublicKey // nil unless split-key mode
	Seed          string
	Paranoid      bool
	Stop          bool
	KeyLimit      uint64
}

// SplitKey reports whether the search adds a start public key.
func (c *Config) SplitKey() bool {
	return c.StartPubKey != nil
}

// Assemble validates opts and fills in defaults. cores is the host core
// count. Grid coherence is checked before any engine is built.
func Assemble(opts Options, cores int, codec splitkey.AddressCodec) (*Config, error) {
	cfg := &Config{
		Threads:       opts.Threads,
		GPU:           opts.GPU,
		GPUIDs:        opts.GPUIDs,
		MaxFound:      opts.MaxFound,
		Rekey:         opts.Rekey,
		CaseSensitive: opts.CaseSensitive,
		Mode:          opts.Mode,
		Seed:          opts.Seed,
		Paranoid:      opts.Paranoid,
		Stop:          opts.Stop,
		KeyLimit:      opts.KeyLimit,
	}

	if len(cfg.GPUIDs) == 0 {
		cfg.GPUIDs = []int{0}
	}
	for _, id := range cfg.GPUIDs {
		if id < 0 {
			return nil, fmt.Errorf("%w: invalid gpuId %d", splitkey.ErrConfig, id)
		}
	}

	switch {
	case len(opts.GridSize) == 0:
		for range cfg.GPUIDs {
			cfg.Grids = append(cfg.Grids, Grid{Blocks: DefaultGridBlocks, Threads: DefaultGridThreads})
		}
	case len(opts.GridSize) != 2*len(cfg.GPUIDs):
		return nil, ErrIncoherentGrid
	default:
		for i := 0; i < len(opts.GridSize); i += 2 {
			cfg.Grids = append(cfg.Grids, Grid{Blocks: opts.GridSize[i], Threads: opts.GridSize[i+1]})
		}
	}

	if !opts.ThreadsPinned {
		cfg.Threads = cores
		if cfg.GPU && cfg.Threads > 1 {
			cfg.Threads -= len(cfg.GPUIDs)
		}
	}
	if cfg.Threads < 0 {
		cfg.Threads = 0
	}

	if cfg.MaxFound <= 0 {
		cfg.MaxFound = DefaultMaxFound
	}

	if opts.Mode < splitkey.Compressed || opts.Mode > splitkey.Both {
		return nil, fmt.Errorf("%w: unknown search mode %d", splitkey.ErrConfig, int(opts.Mode))
	}
	if opts.StartPubKey != "" {
		pub, compressed, err := codec.ParsePublicKeyHex(opts.StartPubKey)
		if err != nil {
			return nil, err
		}
		cfg.StartPubKey = pub
		if compressed {
			cfg.Mode = splitkey.Compressed
		} else {
			cfg.Mode = splitkey.Uncompressed
		}
	}

	if len(opts.Prefixes) == 0 {
		return nil, fmt.Errorf("%w: no prefix to search", splitkey.ErrConfig)
	}
	patterns, err := ParsePatterns(opts.Prefixes, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}
	cfg.Patterns = patterns

	// Segwit kinds are only searched with compressed keys, so an
	// uncompressed-only search cannot produce them.
	if cfg.Mode == splitkey.Uncompressed {
		for _, p := range patterns {
			if p.Kind != splitkey.P2PKH {
				return nil, fmt.Errorf("%w: %s addresses require compressed keys (prefix %s)", splitkey.ErrConfig, p.Kind, p)
			}
		}
	}

	return cfg, nil
}
