package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quay/scanrules/icalendar"
)

// Next implements the "next" subcommand: parse the schedule in the named
// file ("-" for stdin) and print its next occurrence. Exit status is 1 when
// the schedule has none.
func Next(ctx context.Context, _ *commonConfig, args []string) error {
	fs := flag.NewFlagSet("next", flag.ExitOnError)
	zone := fs.String("zone", "", "timezone the schedule's local instants are in")
	offset := fs.Int("offset", 0, "preview this many periods past the next occurrence")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("next: want exactly one schedule file argument")
	}
	if *offset < 0 {
		return fmt.Errorf("next: negative offset %d", *offset)
	}

	var in io.Reader = os.Stdin
	if n := fs.Arg(0); n != "-" {
		f, err := os.Open(n)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	s, err := icalendar.Parse(ctx, string(b), *zone)
	if err != nil {
		return fmt.Errorf("next: %w", err)
	}
	t, ok := s.NextTime(time.Now(), *offset)
	if !ok {
		fmt.Println("none")
		return errNoMatch
	}
	fmt.Println(t.Format(time.RFC3339))
	return nil
}
