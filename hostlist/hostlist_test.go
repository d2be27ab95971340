package hostlist

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/quay/scanrules"
)

func addr(s string) netip.Addr { return netip.MustParseAddr(s) }

func TestParse(t *testing.T) {
	t.Parallel()
	cmpAddrs := cmpopts.EquateComparable(netip.Addr{})
	tt := []struct {
		Name string
		In   string
		Want []Atom
	}{
		{
			Name: "Empty",
			In:   "",
			Want: nil,
		},
		{
			Name: "SingleAddress",
			In:   "192.0.2.1",
			Want: []Atom{{Kind: Address, First: addr("192.0.2.1"), Last: addr("192.0.2.1")}},
		},
		{
			Name: "Hostname",
			In:   "Scanner-01.Example.COM",
			Want: []Atom{{Kind: Hostname, Name: "scanner-01.example.com"}},
		},
		{
			Name: "CIDRTrimsEnds",
			In:   "10.0.0.0/24",
			Want: []Atom{{Kind: CIDR, First: addr("10.0.0.1"), Last: addr("10.0.0.254")}},
		},
		{
			Name: "CIDRSlash31Untrimmed",
			In:   "10.0.0.0/31",
			Want: []Atom{{Kind: CIDR, First: addr("10.0.0.0"), Last: addr("10.0.0.1")}},
		},
		{
			Name: "CIDRSlash32Single",
			In:   "10.0.0.7/32",
			Want: []Atom{{Kind: CIDR, First: addr("10.0.0.7"), Last: addr("10.0.0.7")}},
		},
		{
			Name: "CIDRMasksHostBits",
			In:   "10.0.0.77/24",
			Want: []Atom{{Kind: CIDR, First: addr("10.0.0.1"), Last: addr("10.0.0.254")}},
		},
		{
			Name: "LongRange",
			In:   "10.0.0.1-10.0.0.9",
			Want: []Atom{{Kind: Range, First: addr("10.0.0.1"), Last: addr("10.0.0.9")}},
		},
		{
			Name: "ShortRange",
			In:   "10.0.0.1-9",
			Want: []Atom{{Kind: Range, First: addr("10.0.0.1"), Last: addr("10.0.0.9")}},
		},
		{
			Name: "V6ShortRange",
			In:   "2001:db8::1-ffff",
			Want: []Atom{{Kind: Range, First: addr("2001:db8::1"), Last: addr("2001:db8::ffff")}},
		},
		{
			Name: "V6CIDR",
			In:   "2001:db8::/126",
			Want: []Atom{{Kind: CIDR, First: addr("2001:db8::1"), Last: addr("2001:db8::2")}},
		},
		{
			Name: "MixedListTrimsWhitespace",
			In:   " 10.0.0.1 , web-01.example.com ,10.0.0.0/30,",
			Want: []Atom{
				{Kind: Address, First: addr("10.0.0.1"), Last: addr("10.0.0.1")},
				{Kind: Hostname, Name: "web-01.example.com"},
				{Kind: CIDR, First: addr("10.0.0.1"), Last: addr("10.0.0.2")},
			},
		},
		{
			Name: "HyphenatedHostname",
			In:   "db-primary-3",
			Want: []Atom{{Kind: Hostname, Name: "db-primary-3"}},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := Parse(tc.In)
			if err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(got, tc.Want, cmpAddrs) {
				t.Error(cmp.Diff(got, tc.Want, cmpAddrs))
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tt := []struct {
		Name string
		In   string
		Kind scanrules.ErrorKind
	}{
		{Name: "BadAddress", In: "10.0.0.256", Kind: scanrules.ErrParse},
		{Name: "BadCIDRAddress", In: "10.0.0.x/8", Kind: scanrules.ErrParse},
		{Name: "BadPrefixNumber", In: "10.0.0.0/abc", Kind: scanrules.ErrParse},
		{Name: "PrefixTooWide", In: "10.0.0.0/33", Kind: scanrules.ErrRange},
		{Name: "V6PrefixTooWide", In: "2001:db8::/129", Kind: scanrules.ErrRange},
		{Name: "NegativePrefix", In: "10.0.0.0/-1", Kind: scanrules.ErrRange},
		{Name: "InvertedLongRange", In: "10.0.0.9-10.0.0.1", Kind: scanrules.ErrRange},
		{Name: "InvertedShortRange", In: "10.0.0.9-1", Kind: scanrules.ErrRange},
		{Name: "ShortRangeOctetTooBig", In: "10.0.0.1-999", Kind: scanrules.ErrParse},
		{Name: "MixedFamilyRange", In: "10.0.0.1-::9", Kind: scanrules.ErrParse},
		{Name: "JunkToken", In: "not a host!", Kind: scanrules.ErrParse},
		{Name: "BadTokenInList", In: "10.0.0.1,10.0.0.300", Kind: scanrules.ErrParse},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := Parse(tc.In)
			if err == nil {
				t.Fatalf("got: %+v, expected error", got)
			}
			if !errors.Is(err, tc.Kind) {
				t.Errorf("got: %v, want kind %q", err, tc.Kind)
			}
		})
	}
}
