package main

import (
	"context"
	"fmt"

	"github.com/quay/scanrules/hostlist"
)

// Count implements the "count" subcommand: the capped distinct host count of
// an expression, minus an optional exclusion expression.
func Count(ctx context.Context, cfg *commonConfig, args []string) error {
	var expr, exclude string
	switch len(args) {
	case 2:
		exclude = args[1]
		fallthrough
	case 1:
		expr = args[0]
	default:
		return fmt.Errorf("count: want 1 or 2 arguments, got %d", len(args))
	}
	n, err := hostlist.Count(expr, exclude, cfg.MaxHosts)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	fmt.Println(n)
	return nil
}
