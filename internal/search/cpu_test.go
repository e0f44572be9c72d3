package search

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

const testSeed = "A Strong Password"

type recordingSink struct {
	mu    sync.Mutex
	found []*splitkey.Found
}

func (s *recordingSink) Write(f *splitkey.Found) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.found = append(s.found, f)
	return nil
}

func newTestEngine() *CPUEngine {
	return NewCPUEngine(splitkey.NewSecp256k1(), splitkey.NewBitcoinCodec(nil)).
		WithLogger(log.New(io.Discard, "", 0))
}

func seedKey(t *testing.T, offset int64) *big.Int {
	t.Helper()
	base, err := splitkey.DeriveScalar(testSeed)
	if err != nil {
		t.Fatalf("DeriveScalar: %v", err)
	}
	return base.Add(base, big.NewInt(offset))
}

func address(t *testing.T, k *big.Int, kind splitkey.AddressKind, compressed bool) string {
	t.Helper()
	p, err := splitkey.NewSecp256k1().ScalarBaseMult(k)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}
	addr, err := splitkey.NewBitcoinCodec(nil).Address(kind, compressed, p)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	return addr
}

func assemble(t *testing.T, opts Options) *Config {
	t.Helper()
	if !opts.ThreadsPinned {
		opts.Threads, opts.ThreadsPinned = 1, true
	}
	cfg, err := Assemble(opts, 1, splitkey.NewBitcoinCodec(nil))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return cfg
}

func TestCPUEngine_FindsTransformedKey(t *testing.T) {
	k := seedKey(t, 2)
	want := splitkey.Sym(k)
	target := address(t, want, splitkey.P2PKH, true)

	cfg := assemble(t, Options{
		Prefixes:      []string{target},
		CaseSensitive: true,
		Seed:          testSeed,
		KeyLimit:      4,
	})
	sink := &recordingSink{}
	stats, err := newTestEngine().WithBatchSize(3).Search(context.Background(), cfg, sink)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if stats.Keys != 4 {
		t.Errorf("Expected 4 keys, got %d", stats.Keys)
	}
	if len(sink.found) != 1 || stats.Found != 1 {
		t.Fatalf("Expected one hit, got %d", len(sink.found))
	}
	f := sink.found[0]
	if f.Address != target || f.PrivateKey.Cmp(want) != 0 || f.Partial || !f.Compressed {
		t.Errorf("Unexpected hit %+v", f)
	}
}

func TestCPUEngine_SplitKeyRoundTrip(t *testing.T) {
	codec := splitkey.NewBitcoinCodec(nil)
	curve := splitkey.NewSecp256k1()

	d := big.NewInt(123456789)
	startPub, err := curve.ScalarBaseMult(d)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}

	// The owner's key plus the searcher's key, seen through endo2.
	k := seedKey(t, 1)
	full := new(big.Int).Add(d, k)
	full = splitkey.Endo2(full)
	target := address(t, full, splitkey.P2WPKH, true)

	cfg := assemble(t, Options{
		Prefixes:    []string{target},
		Seed:        testSeed,
		StartPubKey: codec.PublicKeyHex(startPub, true),
		KeyLimit:    3,
	})
	var out bytes.Buffer
	if _, err := newTestEngine().Search(context.Background(), cfg, splitkey.NewTextSink(&out, codec)); err != nil {
		t.Fatalf("Search: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	records, _, err := splitkey.ParseRecords(lines, codec)
	if err != nil {
		t.Fatalf("Search output is not a partial key file: %v\n%s", err, out.String())
	}
	if len(records) != 1 {
		t.Fatalf("Expected one partial key, got %d", len(records))
	}
	if records[0].PartialScalar.Cmp(splitkey.Endo2(k)) != 0 {
		t.Errorf("Expected partial endo2(k), got %s", records[0].PartialScalar.Text(16))
	}

	res, err := splitkey.NewEngine(curve, codec).Reconstruct(&splitkey.BaseKey{Scalar: d, Compressed: true}, records[0])
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if !res.Matched || res.FullScalar.Cmp(full) != 0 {
		t.Errorf("Expected reconstruction of %s, got %+v", full.Text(16), res)
	}
}

func TestCPUEngine_StopWhenAllFound(t *testing.T) {
	cfg := assemble(t, Options{
		Prefixes:      []string{address(t, seedKey(t, 1), splitkey.P2PKH, true)},
		CaseSensitive: true,
		Seed:          testSeed,
		Threads:       2,
		ThreadsPinned: true,
		Stop:          true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sink := &recordingSink{}
	stats, err := newTestEngine().WithBatchSize(8).Search(ctx, cfg, sink)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !stats.Stopped || len(sink.found) != 1 {
		t.Errorf("Expected a stopped search with one hit, got %+v", stats)
	}
}

func TestCPUEngine_MaxFoundPerBatch(t *testing.T) {
	cfg := assemble(t, Options{
		Prefixes: []string{"1"},
		Seed:     testSeed,
		MaxFound: 3,
		KeyLimit: 2,
	})

	sink := &recordingSink{}
	stats, err := newTestEngine().WithBatchSize(2).Search(context.Background(), cfg, sink)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Two keys, six images each, all P2PKH addresses start with '1'.
	if stats.Found != 3 || stats.Dropped != 9 || len(sink.found) != 3 {
		t.Errorf("Expected 3 hits and 9 dropped, got %+v", stats)
	}
}

func TestCPUEngine_BothCompressions(t *testing.T) {
	cfg := assemble(t, Options{
		Prefixes: []string{"1"},
		Mode:     splitkey.Both,
		Seed:     testSeed,
		KeyLimit: 1,
	})

	sink := &recordingSink{}
	if _, err := newTestEngine().Search(context.Background(), cfg, sink); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(sink.found) != 12 {
		t.Fatalf("Expected 12 hits, got %d", len(sink.found))
	}
	compressed := 0
	for _, f := range sink.found {
		if f.Compressed {
			compressed++
		}
		if got := address(t, f.PrivateKey, f.Kind, f.Compressed); got != f.Address {
			t.Errorf("Hit %s does not match its key (%s)", f.Address, got)
		}
	}
	if compressed != 6 {
		t.Errorf("Expected 6 compressed hits, got %d", compressed)
	}
}

func TestCPUEngine_Cancelled(t *testing.T) {
	cfg := assemble(t, Options{Prefixes: []string{"1Test"}, Seed: testSeed})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := newTestEngine().Search(ctx, cfg, &recordingSink{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if stats == nil || stats.Keys != 0 {
		t.Errorf("Expected no keys tested, got %+v", stats)
	}
}

func TestCPUEngine_RandomBase(t *testing.T) {
	cfg := assemble(t, Options{Prefixes: []string{"1Test"}, KeyLimit: 1})

	zeros := bytes.NewReader(make([]byte, 32*maxRandomTries))
	if _, err := newTestEngine().WithRand(zeros).Search(context.Background(), cfg, &recordingSink{}); !errors.Is(err, splitkey.ErrCryptoRange) {
		t.Errorf("Expected ErrCryptoRange from an all-zero source, got %v", err)
	}

	if _, err := newTestEngine().WithRand(bytes.NewReader(nil)).Search(context.Background(), cfg, &recordingSink{}); err == nil {
		t.Error("Expected an error from an empty random source")
	}

	stats, err := newTestEngine().Search(context.Background(), cfg, &recordingSink{})
	if err != nil || stats.Keys != 1 {
		t.Errorf("Expected one key from crypto/rand, got %+v, %v", stats, err)
	}
}

func TestCPUEngine_ProgressOutput(t *testing.T) {
	cfg := assemble(t, Options{Prefixes: []string{"1Test"}, Seed: testSeed, KeyLimit: 4})

	var progress bytes.Buffer
	if _, err := newTestEngine().WithProgress(&progress).Search(context.Background(), cfg, &recordingSink{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if progress.Len() == 0 {
		t.Error("Expected progress output")
	}
}

func TestWorkerStart(t *testing.T) {
	base := big.NewInt(5)
	got := workerStart(base, 3)
	want := new(big.Int).Lsh(big.NewInt(3), 64)
	want.Add(want, base)
	if got.Cmp(want) != 0 {
		t.Errorf("Expected %s, got %s", want.Text(16), got.Text(16))
	}
	if base.Cmp(big.NewInt(5)) != 0 {
		t.Error("workerStart mutated base")
	}

	wrap := new(big.Int).Sub(splitkey.Secp256k1CurveOrder, big.NewInt(1))
	if got := workerStart(wrap, 0); got.Cmp(wrap) != 0 {
		t.Errorf("Unexpected start %s", got.Text(16))
	}
	zero := new(big.Int).Sub(splitkey.Secp256k1CurveOrder, new(big.Int).Lsh(big.NewInt(1), 64))
	if got := workerStart(zero, 1); got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("Expected a zero start to become 1, got %s", got.Text(16))
	}
}
