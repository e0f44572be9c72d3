package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/urfave/cli/v2"

	"github.com/mahdiidarabi/vanitysplit/internal/config"
	"github.com/mahdiidarabi/vanitysplit/internal/parser"
	"github.com/mahdiidarabi/vanitysplit/internal/search"
	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

// commands holds what every action shares. env is set by the app's Before
// hook.
type commands struct {
	env *config.Config
}

func usageError(c *cli.Context) error {
	return fmt.Errorf("%w: usage: %s %s %s", splitkey.ErrConfig, c.App.Name, c.Command.Name, c.Command.ArgsUsage)
}

// warnWriter colors everything written through it.
type warnWriter struct{ w io.Writer }

func (w warnWriter) Write(p []byte) (int, error) {
	if _, err := colorWarn.Fprint(w.w, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func newLogger(c *cli.Context) *log.Logger {
	return log.New(warnWriter{c.App.ErrWriter}, "", 0)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// openOutput returns the --output file, the environment default, or the
// app writer.
func (cm *commands) openOutput(c *cli.Context, logger *log.Logger) io.WriteCloser {
	path := cm.env.Output
	if c.IsSet("output") {
		path = c.String("output")
	}
	if path == "" {
		return nopWriteCloser{c.App.Writer}
	}
	return splitkey.OpenOutput(path, logger)
}

func (cm *commands) newSink(c *cli.Context, w io.Writer, codec splitkey.AddressCodec) (splitkey.ResultSink, error) {
	format := cm.env.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	switch format {
	case "text":
		return splitkey.NewTextSink(w, codec), nil
	case "json":
		return splitkey.NewJSONSink(w, codec), nil
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", splitkey.ErrConfig, format)
	}
}

func (cm *commands) reconstruct(c *cli.Context) error {
	if c.NArg() != 2 {
		return usageError(c)
	}
	logger := newLogger(c)
	client := splitkey.NewClient()

	out := cm.openOutput(c, logger)
	defer out.Close()
	sink, err := cm.newSink(c, out, client.Codec())
	if err != nil {
		return err
	}

	workers := cm.env.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	client.WithSink(sink).
		WithLogger(logger).
		WithProgress(c.App.ErrWriter).
		WithWorkers(workers)

	report, err := client.Reconstruct(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	colorInfo.Fprintf(c.App.ErrWriter, "Reconstructed %d key(s), %d record(s) skipped\n", report.Matched(), len(report.Skipped))
	return nil
}

func (cm *commands) keypair(c *cli.Context) error {
	mode := splitkey.Compressed
	switch {
	case c.Bool("both"):
		mode = splitkey.Both
	case c.Bool("uncompressed"):
		mode = splitkey.Uncompressed
	}

	seed := c.String("seed")
	if seed == "" {
		var err error
		if seed, err = config.PromptPassphrase("Seed: "); err != nil {
			return err
		}
	}

	kp, err := splitkey.NewClient().DeriveKeyPair(seed, c.Bool("paranoid"), mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Priv : %s\n", kp.WIF)
	fmt.Fprintf(c.App.Writer, "Pub  : %s\n", kp.PublicKeyHex)
	return nil
}

func (cm *commands) computePub(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	client := splitkey.NewClient()
	codec := client.Codec()

	k, compressed, err := codec.DecodePrivateKey(c.Args().First())
	if err != nil {
		return err
	}
	p, err := client.Curve().ScalarBaseMult(k)
	if err != nil {
		return err
	}
	wif, err := codec.EncodePrivateKey(k, compressed)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "PrivAddr: p2pkh:%s\n", wif)
	fmt.Fprintf(c.App.Writer, "PubKey: %s\n", codec.PublicKeyHex(p, compressed))
	return printAddresses(c.App.Writer, codec, p, compressed)
}

func (cm *commands) computeAddr(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c)
	}
	codec := splitkey.NewClient().Codec()
	p, compressed, err := codec.ParsePublicKeyHex(c.Args().First())
	if err != nil {
		return err
	}
	return printAddresses(c.App.Writer, codec, p, compressed)
}

func printAddresses(w io.Writer, codec splitkey.AddressCodec, p *btcec.PublicKey, compressed bool) error {
	for _, kind := range splitkey.AddressKinds() {
		addr, err := codec.Address(kind, compressed, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Addr (%s): %s\n", kind, addr)
	}
	return nil
}

func (cm *commands) search(c *cli.Context) error {
	logger := newLogger(c)
	client := splitkey.NewClient()
	codec := client.Codec()

	opts, err := cm.searchOptions(c)
	if err != nil {
		return err
	}
	cfg, err := search.Assemble(opts, runtime.NumCPU(), codec)
	if err != nil {
		return err
	}

	cpu := search.NewCPUEngine(client.Curve(), codec).WithLogger(logger)
	if !c.Bool("no-progress") {
		cpu.WithProgress(c.App.ErrWriter)
	}
	engine, err := search.Select(cfg, cpu)
	if err != nil {
		return err
	}

	out := cm.openOutput(c, logger)
	defer out.Close()
	sink, err := cm.newSink(c, out, codec)
	if err != nil {
		return err
	}

	stats, err := engine.Search(c.Context, cfg, sink)
	if errors.Is(err, context.Canceled) {
		colorWarn.Fprintln(c.App.ErrWriter, "Interrupted")
		err = nil
	}
	if stats != nil {
		colorFound.Fprintf(c.App.ErrWriter, "[%.3f Mkey/s][Total %d][Found %d]\n", stats.Rate()/1e6, stats.Keys, stats.Found)
	}
	return err
}

// searchOptions collects the search flags, falling back to the environment
// defaults.
func (cm *commands) searchOptions(c *cli.Context) (search.Options, error) {
	opts := search.Options{
		Prefixes:      c.Args().Slice(),
		GPU:           c.Bool("gpu"),
		GPUIDs:        cm.env.GPUIDs,
		MaxFound:      cm.env.MaxFound,
		CaseSensitive: !c.Bool("ignore-case"),
		StartPubKey:   c.String("start-pub"),
		Seed:          c.String("seed"),
		Paranoid:      c.Bool("paranoid"),
		Stop:          c.Bool("stop"),
		KeyLimit:      c.Uint64("max-keys"),
	}

	switch {
	case c.Bool("both"):
		opts.Mode = splitkey.Both
	case c.Bool("uncompressed"):
		opts.Mode = splitkey.Uncompressed
	default:
		opts.Mode = splitkey.Compressed
	}

	if path := c.String("input"); path != "" {
		lines, err := splitkey.ReadLines(path, nil)
		if err != nil {
			return opts, err
		}
		opts.Prefixes = append(opts.Prefixes, lines...)
	}

	var err error
	switch {
	case c.IsSet("threads"):
		if opts.Threads, err = parser.ParseInt("nbCPUThread", c.String("threads")); err != nil {
			return opts, err
		}
		opts.ThreadsPinned = true
	case cm.env.Threads > 0:
		opts.Threads, opts.ThreadsPinned = cm.env.Threads, true
	}
	if c.IsSet("gpu-id") {
		if opts.GPUIDs, err = parser.ParseInts("gpuId", c.String("gpu-id"), ","); err != nil {
			return opts, err
		}
	}
	if c.IsSet("grid") {
		if opts.GridSize, err = parser.ParseInts("gridSize", c.String("grid"), ","); err != nil {
			return opts, err
		}
	}
	if c.IsSet("max-found") {
		if opts.MaxFound, err = parser.ParseInt("maxFound", c.String("max-found")); err != nil {
			return opts, err
		}
	}
	if c.IsSet("rekey") {
		if opts.Rekey, err = parser.ParseUint64("rekey", c.String("rekey")); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (cm *commands) check(c *cli.Context) error {
	client := splitkey.NewClient()

	var (
		k   *big.Int
		err error
	)
	if c.IsSet("key") {
		k, err = parser.ParseBigInt(c.String("key"))
	} else {
		k, err = rand.Int(rand.Reader, new(big.Int).Sub(splitkey.Secp256k1CurveOrder, big.NewInt(1)))
		if err == nil {
			k.Add(k, big.NewInt(1))
		}
	}
	if err != nil {
		return err
	}

	if err := splitkey.SelfCheck(client.Curve(), client.Codec(), k); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	colorFound.Fprintf(c.App.Writer, "Check OK (key %s)\n", splitkey.FormatHex(k))
	return nil
}

func (cm *commands) envUsage(c *cli.Context) error {
	return config.Usage(c.App.Writer)
}
