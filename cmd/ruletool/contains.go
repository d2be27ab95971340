package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/quay/scanrules/hostlist"
)

// Contains implements the "contains" subcommand.
//
// The first argument is the host-list expression; remaining arguments are
// candidate hosts, read from stdin when absent. Candidates are checked
// concurrently. Exit status is 0 when every candidate matched and 1
// otherwise.
func Contains(ctx context.Context, cfg *commonConfig, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("contains: missing expression argument")
	}
	expr, hosts := args[0], args[1:]
	if len(hosts) == 0 {
		s := bufio.NewScanner(os.Stdin)
		for s.Scan() {
			if h := s.Text(); h != "" {
				hosts = append(hosts, h)
			}
		}
		if err := s.Err(); err != nil {
			return err
		}
	}

	results := make([]bool, len(hosts))
	eg, ctx := errgroup.WithContext(ctx)
	for i, h := range hosts {
		i, h := i, h
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			got, err := hostlist.Contains(expr, h, cfg.MaxHosts)
			if err != nil {
				return fmt.Errorf("contains: %q: %w", h, err)
			}
			results[i] = got
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	all := true
	w := tabwriter.NewWriter(os.Stdout, 4, 8, 2, ' ', 0)
	for i, h := range hosts {
		verdict := "in"
		if !results[i] {
			verdict, all = "out", false
		}
		fmt.Fprintf(w, "%s\t%s\n", h, verdict)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !all {
		return errNoMatch
	}
	return nil
}
