// Ruletool evaluates the scanrules primitives from the command line, mostly
// for poking at target expressions and schedules while debugging scan
// configurations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quay/zlog"
	"github.com/rs/zerolog"

	"github.com/quay/scanrules/settings"
)

type commonConfig struct {
	MaxHosts int
}

type subcmd func(context.Context, *commonConfig, []string) error

// ErrNoMatch is reported via exit status 1 rather than a printed error.
var errNoMatch = fmt.Errorf("no match")

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()
	ctx, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()

	var cfg commonConfig
	fs := flag.NewFlagSet("ruletool", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nSubcommands\n\n")
		fmt.Fprintln(out, "contains <expression> [host...]")
		fmt.Fprintln(out, "\treport which of the hosts (arguments or stdin) are in the expression")
		fmt.Fprintln(out, "count <expression> [exclude]")
		fmt.Fprintln(out, "\tprint the capped distinct host count")
		fmt.Fprintln(out, "next [-zone name] [-offset n] <file>")
		fmt.Fprintln(out, "\tprint the next occurrence of the schedule in file (\"-\" for stdin)")
		fmt.Fprintln(out)
	}
	fs.IntVar(&cfg.MaxHosts, "max", settings.DefaultMaxHosts, "max-hosts cap used when counting")
	debug := fs.Bool("D", false, "print debug logs")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(99)
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	zlog.Set(&l)

	var cmd subcmd
	switch n := fs.Arg(0); n {
	case "contains":
		cmd = Contains
	case "count":
		cmd = Count
	case "next":
		cmd = Next
	case "":
		fs.Usage()
		os.Exit(99)
	default:
		fs.Usage()
		fmt.Fprintf(os.Stderr, "\nunknown subcommand %q\n", n)
		os.Exit(99)
	}

	switch err := cmd(ctx, &cfg, fs.Args()[1:]); {
	case err == nil:
	case err == errNoMatch:
		exit = 1
	default:
		zlog.Error(ctx).Err(err).Send()
		exit = 2
	}
}
