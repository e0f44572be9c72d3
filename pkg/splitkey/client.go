package splitkey

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Client is the main entry point for split-key reconstruction and key
// derivation.
type Client struct {
	curve    Curve
	codec    AddressCodec
	sink     ResultSink
	logger   *log.Logger
	rand     io.Reader
	progress io.Writer
	workers  int
}

// NewClient creates a client for mainnet secp256k1 keys writing results to
// stdout.
func NewClient() *Client {
	codec := NewBitcoinCodec(nil)
	return &Client{
		curve:   NewSecp256k1(),
		codec:   codec,
		sink:    NewTextSink(os.Stdout, codec),
		logger:  log.New(os.Stderr, "", 0),
		rand:    rand.Reader,
		workers: 1,
	}
}

// WithCurve sets the curve arithmetic.
func (c *Client) WithCurve(curve Curve) *Client {
	c.curve = curve
	return c
}

// WithCodec sets the address codec.
func (c *Client) WithCodec(codec AddressCodec) *Client {
	c.codec = codec
	return c
}

// WithSink sets where matched keys are written.
func (c *Client) WithSink(sink ResultSink) *Client {
	c.sink = sink
	return c
}

// WithLogger sets the logger used for skip warnings.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	c.logger = logger
	return c
}

// WithRand sets the randomness source used by paranoid key derivation.
func (c *Client) WithRand(r io.Reader) *Client {
	c.rand = r
	return c
}

// WithProgress sets where file loading progress is shown. nil disables it.
func (c *Client) WithProgress(w io.Writer) *Client {
	c.progress = w
	return c
}

// WithWorkers sets how many records are reconstructed concurrently. Results
// are written in file order whatever the value.
func (c *Client) WithWorkers(n int) *Client {
	if n < 1 {
		n = 1
	}
	c.workers = n
	return c
}

// Codec returns the address codec of the client.
func (c *Client) Codec() AddressCodec {
	return c.codec
}

// Curve returns the curve of the client.
func (c *Client) Curve() Curve {
	return c.curve
}

// BatchReport summarizes a reconstruction run.
type BatchReport struct {
	Results []*ReconstructionResult // one per constructed record, file order
	Skipped []*SkipWarning          // unsupported kinds, mismatches, failures
}

// Matched returns the number of reconstructed keys.
func (r *BatchReport) Matched() int {
	n := 0
	for _, res := range r.Results {
		if res.Matched {
			n++
		}
	}
	return n
}

// DecodeBaseKey decodes the private key a split-key search was run against.
func (c *Client) DecodeBaseKey(text string) (*BaseKey, error) {
	k, compressed, err := c.codec.DecodePrivateKey(text)
	if err != nil {
		return nil, err
	}
	if k.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative private key", ErrCryptoRange)
	}
	return &BaseKey{Scalar: k, Compressed: compressed}, nil
}

// Reconstruct decodes baseKeyText, loads the partial key file at
// recordsPath and reconstructs every record, writing matches to the sink.
//
// The file is fully parsed before any record is processed: a format error
// aborts the run without writing anything.
func (c *Client) Reconstruct(ctx context.Context, baseKeyText, recordsPath string) (*BatchReport, error) {
	base, err := c.DecodeBaseKey(baseKeyText)
	if err != nil {
		return nil, err
	}

	lines, err := ReadLines(recordsPath, c.progress)
	if err != nil {
		return nil, err
	}

	records, skipped, err := ParseRecords(lines, c.codec)
	if err != nil {
		return nil, err
	}
	for _, w := range skipped {
		c.warn(w)
	}

	report, err := c.ReconstructRecords(ctx, base, records)
	if report != nil {
		report.Skipped = append(skipped, report.Skipped...)
	}
	return report, err
}

// ReconstructRecords reconstructs already parsed records against base.
func (c *Client) ReconstructRecords(ctx context.Context, base *BaseKey, records []*PartialKeyRecord) (*BatchReport, error) {
	engine := NewEngine(c.curve, c.codec)
	report := &BatchReport{Results: make([]*ReconstructionResult, 0, len(records))}

	if c.workers <= 1 {
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			res, err := engine.Reconstruct(base, rec)
			if err != nil {
				return report, err
			}
			if err := c.emit(report, res); err != nil {
				return report, err
			}
		}
		return report, nil
	}

	results, err := c.reconstructParallel(ctx, engine, base, records)
	for _, res := range results {
		if res == nil {
			break
		}
		if err := c.emit(report, res); err != nil {
			return report, err
		}
	}
	return report, err
}

// reconstructParallel fans records out to the configured number of workers.
// The returned slice is indexed like records; entries after a failure may be
// nil.
func (c *Client) reconstructParallel(ctx context.Context, engine *Engine, base *BaseKey, records []*PartialKeyRecord) ([]*ReconstructionResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*ReconstructionResult, len(records))
	jobs := make(chan int, c.workers*2)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := engine.Reconstruct(base, records[i])
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					cancel()
					return
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := range records {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return results, firstErr
	}
	return results, ctx.Err()
}

// emit records res in the report, logs warnings and writes matches.
func (c *Client) emit(report *BatchReport, res *ReconstructionResult) error {
	report.Results = append(report.Results, res)
	if res.Warning != nil {
		report.Skipped = append(report.Skipped, res.Warning)
		c.warn(res.Warning)
	}
	if f := res.Found(); f != nil {
		if err := c.sink.Write(f); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}

func (c *Client) warn(w *SkipWarning) {
	if c.logger != nil {
		c.logger.Printf("Warning: %v", w)
	}
}

// DeriveKeyPair derives a key pair from a passphrase using the client's curve,
// codec and randomness source.
func (c *Client) DeriveKeyPair(passphrase string, paranoid bool, mode CompressionMode) (*KeyPair, error) {
	return NewKeyDeriver(c.curve, c.codec, c.rand).DeriveKeyPair(passphrase, paranoid, mode)
}
