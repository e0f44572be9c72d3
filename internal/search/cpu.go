package search

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/schollz/progressbar/v3"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

const (
	defaultBatchSize = 1024
	maxRandomTries   = 16
)

// CPUEngine searches with one goroutine per configured thread. Worker i
// starts at base + i*2^64 and walks consecutive keys, testing the six
// endomorphism and negation images of every point.
type CPUEngine struct {
	curve    splitkey.Curve
	codec    splitkey.AddressCodec
	logger   *log.Logger
	progress io.Writer
	batch    uint64

	randMu sync.Mutex
	rand   io.Reader
}

// NewCPUEngine returns a CPU engine logging to stderr.
func NewCPUEngine(curve splitkey.Curve, codec splitkey.AddressCodec) *CPUEngine {
	return &CPUEngine{
		curve:  curve,
		codec:  codec,
		logger: log.New(os.Stderr, "", 0),
		batch:  defaultBatchSize,
		rand:   rand.Reader,
	}
}

// WithLogger sets the logger.
func (e *CPUEngine) WithLogger(logger *log.Logger) *CPUEngine {
	e.logger = logger
	return e
}

// WithProgress sets where the key counter is shown. nil disables it.
func (e *CPUEngine) WithProgress(w io.Writer) *CPUEngine {
	e.progress = w
	return e
}

// WithRand sets the source of random base keys.
func (e *CPUEngine) WithRand(r io.Reader) *CPUEngine {
	e.rand = r
	return e
}

// WithBatchSize sets how many keys a worker tests between cancellation
// checks. MaxFound applies per batch.
func (e *CPUEngine) WithBatchSize(n uint64) *CPUEngine {
	if n > 0 {
		e.batch = n
	}
	return e
}

// searchState is shared by the workers of one search.
type searchState struct {
	cfg          *Config
	sink         splitkey.ResultSink
	kinds        []splitkey.AddressKind
	byKind       map[splitkey.AddressKind][]*Pattern
	compressions []bool
	transforms   []splitkey.Transform
	cancel       context.CancelFunc
	bar          *progressbar.ProgressBar

	keys atomic.Uint64

	mu      sync.Mutex
	found   map[*Pattern]bool
	hits    int
	dropped int
	stopped bool
}

func newSearchState(cfg *Config, sink splitkey.ResultSink, cancel context.CancelFunc) *searchState {
	s := &searchState{
		cfg:        cfg,
		sink:       sink,
		byKind:     make(map[splitkey.AddressKind][]*Pattern),
		transforms: splitkey.Transforms(),
		cancel:     cancel,
		found:      make(map[*Pattern]bool),
	}
	for _, p := range cfg.Patterns {
		if len(s.byKind[p.Kind]) == 0 {
			s.kinds = append(s.kinds, p.Kind)
		}
		s.byKind[p.Kind] = append(s.byKind[p.Kind], p)
	}
	switch cfg.Mode {
	case splitkey.Compressed:
		s.compressions = []bool{true}
	case splitkey.Uncompressed:
		s.compressions = []bool{false}
	default:
		s.compressions = []bool{true, false}
	}
	return s
}

// Search implements Engine.
func (e *CPUEngine) Search(ctx context.Context, cfg *Config, sink splitkey.ResultSink) (*Stats, error) {
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("%w: no CPU thread to search with", splitkey.ErrConfig)
	}
	base, err := e.baseKey(cfg)
	if err != nil {
		return nil, err
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s := newSearchState(cfg, sink, cancel)

	e.logStart(cfg, base)
	if e.progress != nil {
		s.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(e.progress),
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("keys"),
			progressbar.OptionThrottle(200*time.Millisecond),
		)
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	start := time.Now()
	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if err := e.worker(searchCtx, s, base, workerID); err != nil {
				errOnce.Do(func() { firstErr = err })
				cancel()
			}
		}(i)
	}
	wg.Wait()

	if s.bar != nil {
		_ = s.bar.Finish()
		fmt.Fprintln(e.progress)
	}

	s.mu.Lock()
	stats := &Stats{
		Keys:    s.keys.Load(),
		Found:   s.hits,
		Dropped: s.dropped,
		Stopped: s.stopped,
		Elapsed: time.Since(start),
	}
	s.mu.Unlock()

	if firstErr != nil {
		return stats, firstErr
	}
	if s.dropped > 0 {
		e.logger.Printf("Warning: %d hits dropped, more than %d found in one batch", s.dropped, cfg.MaxFound)
	}
	return stats, ctx.Err()
}

func (e *CPUEngine) logStart(cfg *Config, base *big.Int) {
	prefixes := make([]string, len(cfg.Patterns))
	for i, p := range cfg.Patterns {
		prefixes[i] = p.Text
	}
	e.logger.Printf("Search: %s [%s]", strings.Join(prefixes, " "), cfg.Mode)
	if cfg.SplitKey() {
		e.logger.Printf("Split-key search from %s", e.codec.PublicKeyHex(cfg.StartPubKey, cfg.Mode == splitkey.Compressed))
	}
	if cfg.Rekey > 0 {
		e.logger.Printf("Base Key: Randomly changed every %d Mkeys", cfg.Rekey)
	} else {
		e.logger.Printf("Base Key: %s", splitkey.FormatHex(base))
	}
	e.logger.Printf("Number of CPU thread: %d", cfg.Threads)
}

// baseKey derives the starting key from the seed, or draws a random one.
func (e *CPUEngine) baseKey(cfg *Config) (*big.Int, error) {
	if cfg.Seed == "" {
		return e.randomKey()
	}
	seed := cfg.Seed
	if cfg.Paranoid {
		e.randMu.Lock()
		var err error
		seed, err = splitkey.ParanoidSeed(seed, e.rand)
		e.randMu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	return splitkey.DeriveScalar(seed)
}

func (e *CPUEngine) randomKey() (*big.Int, error) {
	e.randMu.Lock()
	defer e.randMu.Unlock()

	buf := make([]byte, 32)
	for i := 0; i < maxRandomTries; i++ {
		if _, err := io.ReadFull(e.rand, buf); err != nil {
			return nil, fmt.Errorf("failed to read random key: %w", err)
		}
		k := new(big.Int).SetBytes(buf)
		if e.curve.IsValidScalar(k) {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: random source produced no valid key", splitkey.ErrCryptoRange)
}

// workerStart returns base + id*2^64 mod n, never zero.
func workerStart(base *big.Int, id int) *big.Int {
	k := new(big.Int).Lsh(big.NewInt(int64(id)), 64)
	k.Add(k, base).Mod(k, splitkey.Secp256k1CurveOrder)
	if k.Sign() == 0 {
		k.SetInt64(1)
	}
	return k
}

// pointAt returns the searched point for key k, adding the start public key
// in split-key mode. nil means the point at infinity.
func (e *CPUEngine) pointAt(cfg *Config, k *big.Int) (*btcec.PublicKey, error) {
	p, err := e.curve.ScalarBaseMult(k)
	if errors.Is(err, splitkey.ErrPointAtInfinity) {
		if cfg.SplitKey() {
			return cfg.StartPubKey, nil
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cfg.SplitKey() {
		return p, nil
	}
	q, err := e.curve.Add(p, cfg.StartPubKey)
	if errors.Is(err, splitkey.ErrPointAtInfinity) {
		return nil, nil
	}
	return q, err
}

func (e *CPUEngine) worker(ctx context.Context, s *searchState, base *big.Int, id int) error {
	cfg := s.cfg
	g, err := e.curve.ScalarBaseMult(big.NewInt(1))
	if err != nil {
		return err
	}

	k := workerStart(base, id)
	p, err := e.pointAt(cfg, k)
	if err != nil {
		return err
	}

	n := splitkey.Secp256k1CurveOrder
	rekeyEvery := cfg.Rekey * 1_000_000
	var done, sinceRekey uint64

	for {
		if ctx.Err() != nil {
			return nil
		}

		var tested uint64
		hits := 0
		for ; tested < e.batch; tested++ {
			if cfg.KeyLimit > 0 && done >= cfg.KeyLimit {
				break
			}
			if p != nil {
				if err := e.check(s, k, p, &hits); err != nil {
					return err
				}
			}

			k.Add(k, big.NewInt(1)).Mod(k, n)
			if p == nil {
				p, err = e.pointAt(cfg, k)
			} else {
				p, err = e.curve.Add(p, g)
				if errors.Is(err, splitkey.ErrPointAtInfinity) {
					p, err = nil, nil
				}
			}
			if err != nil {
				return err
			}
			done++
			sinceRekey++
		}

		s.keys.Add(tested)
		if s.bar != nil {
			_ = s.bar.Add64(int64(tested))
		}
		if cfg.KeyLimit > 0 && done >= cfg.KeyLimit {
			return nil
		}

		if rekeyEvery > 0 && sinceRekey >= rekeyEvery {
			fresh, err := e.randomKey()
			if err != nil {
				return err
			}
			k = workerStart(fresh, id)
			if p, err = e.pointAt(cfg, k); err != nil {
				return err
			}
			sinceRekey = 0
		}
	}
}

// check tests the six images of p against every pattern. k is the key of p
// without the split-key start.
func (e *CPUEngine) check(s *searchState, k *big.Int, p *btcec.PublicKey, hits *int) error {
	for _, t := range s.transforms {
		q := t.Point(e.curve, p)
		for _, compressed := range s.compressions {
			for _, kind := range s.kinds {
				if !compressed && kind != splitkey.P2PKH {
					continue
				}
				addr, err := e.codec.Address(kind, compressed, q)
				if err != nil {
					return err
				}
				for _, pat := range s.byKind[kind] {
					if !pat.Match(addr) {
						continue
					}
					f := &splitkey.Found{
						Address:    addr,
						Kind:       kind,
						PrivateKey: t.Apply(k),
						Compressed: compressed,
						Partial:    s.cfg.SplitKey(),
					}
					if err := s.report(f, pat, hits); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// report writes f unless the batch cap is reached, and stops the search once
// every pattern has a hit when the configuration asks for it.
func (s *searchState) report(f *splitkey.Found, pat *Pattern, hits *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	if *hits >= s.cfg.MaxFound {
		s.dropped++
		return nil
	}
	*hits++

	if err := s.sink.Write(f); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	s.hits++
	s.found[pat] = true

	if s.cfg.Stop && len(s.found) == len(s.cfg.Patterns) {
		s.stopped = true
		s.cancel()
	}
	return nil
}
