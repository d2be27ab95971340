package settings

import (
	"context"
	"testing"

	"github.com/quay/zlog"
)

func TestStatic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tt := []struct {
		In   int
		Want int
	}{
		{In: 100, Want: 100},
		{In: 1, Want: 1},
		{In: 0, Want: DefaultMaxHosts},
		{In: -5, Want: DefaultMaxHosts},
	}
	for _, tc := range tt {
		if got := Static(tc.In)(ctx); got != tc.Want {
			t.Errorf("Static(%d): got %d, want %d", tc.In, got, tc.Want)
		}
	}
}

func TestParseMaxHosts(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	tt := []struct {
		In   string
		Want int
	}{
		{In: "4095", Want: 4095},
		{In: "20", Want: 20},
		{In: "", Want: DefaultMaxHosts},
		{In: "lots", Want: DefaultMaxHosts},
		{In: "12.5", Want: DefaultMaxHosts},
		{In: "0", Want: DefaultMaxHosts},
		{In: "-1", Want: DefaultMaxHosts},
	}
	for _, tc := range tt {
		if got := parseMaxHosts(ctx, tc.In); got != tc.Want {
			t.Errorf("parseMaxHosts(%q): got %d, want %d", tc.In, got, tc.Want)
		}
	}
}
