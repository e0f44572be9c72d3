package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/mahdiidarabi/vanitysplit/internal/config"
)

var version = "1.0.0"

var (
	colorError = color.New(color.FgRed)
	colorWarn  = color.New(color.FgYellow)
	colorFound = color.New(color.FgGreen, color.Bold)
	colorInfo  = color.New(color.FgCyan)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		colorError.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cmds := &commands{}

	return &cli.App{
		Name:    "vanitysplit",
		Usage:   "split-key vanity address search and private key reconstruction",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Before: func(c *cli.Context) error {
			env, err := config.Load()
			if err != nil {
				return err
			}
			cmds.env = env
			if env.NoColor || c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "reconstruct",
				Aliases:   []string{"rp"},
				Usage:     "reconstruct full private keys from a partial key file",
				ArgsUsage: "<private key> <partial key file>",
				Flags: []cli.Flag{
					outputFlag(),
					formatFlag(),
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "records reconstructed in parallel"},
				},
				Action: cmds.reconstruct,
			},
			{
				Name:    "keypair",
				Aliases: []string{"kp"},
				Usage:   "derive a key pair from a passphrase",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "seed", Aliases: []string{"s"}, Usage: "passphrase, prompted for when empty"},
					&cli.BoolFlag{Name: "paranoid", Usage: "append 32 random characters to the passphrase"},
					&cli.BoolFlag{Name: "uncompressed", Aliases: []string{"u"}, Usage: "uncompressed public key"},
					&cli.BoolFlag{Name: "both", Aliases: []string{"b"}, Usage: "compressed and uncompressed (rejected)"},
				},
				Action: cmds.keypair,
			},
			{
				Name:      "compute-pub",
				Aliases:   []string{"cp"},
				Usage:     "compute the public key and addresses of a private key",
				ArgsUsage: "<private key>",
				Action:    cmds.computePub,
			},
			{
				Name:      "compute-addr",
				Aliases:   []string{"ca"},
				Usage:     "compute the addresses of a public key",
				ArgsUsage: "<public key hex>",
				Action:    cmds.computeAddr,
			},
			{
				Name:      "search",
				Usage:     "search for vanity addresses",
				ArgsUsage: "[prefix...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "read prefixes from `FILE`"},
					outputFlag(),
					formatFlag(),
					&cli.StringFlag{Name: "threads", Aliases: []string{"t"}, Usage: "number of CPU threads"},
					&cli.BoolFlag{Name: "gpu", Usage: "enable GPU search"},
					&cli.StringFlag{Name: "gpu-id", Usage: "comma separated GPU ids"},
					&cli.StringFlag{Name: "grid", Aliases: []string{"g"}, Usage: "comma separated block,thread pairs, one per GPU"},
					&cli.StringFlag{Name: "max-found", Aliases: []string{"m"}, Usage: "maximum hits per batch"},
					&cli.StringFlag{Name: "rekey", Aliases: []string{"r"}, Usage: "change the base key every N Mkeys"},
					&cli.BoolFlag{Name: "ignore-case", Aliases: []string{"c"}, Usage: "case insensitive search"},
					&cli.BoolFlag{Name: "uncompressed", Aliases: []string{"u"}, Usage: "search uncompressed addresses"},
					&cli.BoolFlag{Name: "both", Aliases: []string{"b"}, Usage: "search compressed and uncompressed addresses"},
					&cli.StringFlag{Name: "start-pub", Aliases: []string{"sp"}, Usage: "split-key search from this public key"},
					&cli.StringFlag{Name: "seed", Aliases: []string{"s"}, Usage: "derive the base key from a passphrase"},
					&cli.BoolFlag{Name: "paranoid", Usage: "append random characters to the seed"},
					&cli.BoolFlag{Name: "stop", Usage: "stop when all prefixes are found"},
					&cli.Uint64Flag{Name: "max-keys", Usage: "stop after N keys per thread"},
					&cli.BoolFlag{Name: "no-progress", Usage: "hide the key counter"},
				},
				Action: cmds.search,
			},
			{
				Name:  "check",
				Usage: "self-test curve constants, transforms and key encoding",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "private key to check with, hex or decimal"},
				},
				Action: cmds.check,
			},
			{
				Name:   "env",
				Usage:  "list the environment variables that set defaults",
				Action: cmds.envUsage,
			},
		},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "append results to `FILE` instead of stdout"}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Usage: "result format (text, json)"}
}
