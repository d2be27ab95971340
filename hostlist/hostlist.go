// Package hostlist parses and evaluates the compact host-list expressions
// used to describe scan target scopes.
//
// An expression is a comma-separated list of atoms. An atom is a single
// address, an opaque hostname, a CIDR block, a long-form address range
// ("10.0.0.1-10.0.0.9"), or a short-form range where only the final address
// component varies ("10.0.0.1-9", "2001:db8::1-ffff").
//
// Expressions routinely denote address sets far too large to materialize
// (consider "0.0.0.0/0"), so nothing in this package ever builds the full
// set: containment is answered by integer address arithmetic and counting by
// cap-bounded lazy enumeration.
package hostlist

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/quay/scanrules"
)

// Kind discriminates the shapes an [Atom] can take.
type Kind int

// Atom shapes.
const (
	Hostname Kind = iota // opaque name, exact-match only
	Address              // single address
	CIDR                 // address block
	Range                // inclusive address range
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Hostname:
		return "hostname"
	case Address:
		return "address"
	case CIDR:
		return "cidr"
	case Range:
		return "range"
	}
	return "invalid"
}

// Atom is one parsed unit of a host-list expression. Atoms are immutable
// once parsed.
//
// Hostname atoms carry only Name (lowercased). All other kinds carry the
// inclusive [First, Last] address span; single addresses have First == Last.
type Atom struct {
	Name  string
	First netip.Addr
	Last  netip.Addr
	Kind  Kind
}

// Parse tokenizes a host-list expression into its atoms.
//
// Tokens are comma-separated and whitespace-trimmed; empty tokens are
// skipped. Atom order is preserved: it has no effect on containment but
// determines the order in which [Count] reaches its cap.
//
// Hostnames are kept opaque; no resolution is attempted. Malformed atoms
// fail with a [scanrules.ErrParse] error, inverted ranges and out-of-bounds
// prefix lengths with [scanrules.ErrRange].
func Parse(expression string) ([]Atom, error) {
	var atoms []Atom
	for _, tok := range strings.Split(expression, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		a, err := parseAtom(tok)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func parseAtom(tok string) (Atom, error) {
	switch {
	case strings.Contains(tok, "/"):
		return parseCIDR(tok)
	case strings.Contains(tok, "-"):
		// Only a range if the left side is an address; hostnames are
		// full of hyphens.
		return parseRange(tok)
	}
	if a, err := netip.ParseAddr(tok); err == nil {
		a = a.Unmap()
		return Atom{Kind: Address, First: a, Last: a}, nil
	}
	return parseHostname(tok)
}

func parseHostname(tok string) (Atom, error) {
	// A token of only digits and dots is a botched address, not a name.
	if strings.Trim(tok, "0123456789.") == "" {
		return Atom{}, &scanrules.Error{
			Kind:    scanrules.ErrParse,
			Op:      "hostlist.Parse",
			Message: fmt.Sprintf("unparseable address %q", tok),
		}
	}
	// Reject tokens no resolver would accept rather than letting
	// arbitrary junk ride along as a "hostname".
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_':
		default:
			return Atom{}, &scanrules.Error{
				Kind:    scanrules.ErrParse,
				Op:      "hostlist.Parse",
				Message: fmt.Sprintf("malformed atom %q", tok),
			}
		}
	}
	return Atom{Kind: Hostname, Name: strings.ToLower(tok)}, nil
}

func parseCIDR(tok string) (Atom, error) {
	i := strings.LastIndex(tok, "/")
	addr, err := netip.ParseAddr(tok[:i])
	if err != nil {
		return Atom{}, &scanrules.Error{
			Inner:   err,
			Kind:    scanrules.ErrParse,
			Op:      "hostlist.Parse",
			Message: fmt.Sprintf("malformed cidr %q", tok),
		}
	}
	addr = addr.Unmap()
	bits, err := strconv.Atoi(tok[i+1:])
	if err != nil {
		return Atom{}, &scanrules.Error{
			Inner:   err,
			Kind:    scanrules.ErrParse,
			Op:      "hostlist.Parse",
			Message: fmt.Sprintf("malformed prefix length in %q", tok),
		}
	}
	if bits < 0 || bits > addr.BitLen() {
		return Atom{}, &scanrules.Error{
			Kind:    scanrules.ErrRange,
			Op:      "hostlist.Parse",
			Message: fmt.Sprintf("prefix length out of bounds in %q", tok),
		}
	}
	p := netip.PrefixFrom(addr, bits).Masked()
	first, last := p.Addr(), lastAddr(p)
	// The network and broadcast addresses aren't scannable hosts; drop
	// them from blocks wide enough to have them.
	if bits <= addr.BitLen()-2 {
		first, last = first.Next(), last.Prev()
	}
	return Atom{Kind: CIDR, First: first, Last: last}, nil
}

func parseRange(tok string) (Atom, error) {
	i := strings.LastIndex(tok, "-")
	first, err := netip.ParseAddr(strings.TrimSpace(tok[:i]))
	if err != nil {
		return parseHostname(tok)
	}
	first = first.Unmap()
	var last netip.Addr
	rest := strings.TrimSpace(tok[i+1:])
	switch l, err := netip.ParseAddr(rest); {
	case err == nil:
		last = l.Unmap()
		if first.Is4() != last.Is4() {
			return Atom{}, &scanrules.Error{
				Kind:    scanrules.ErrParse,
				Op:      "hostlist.Parse",
				Message: fmt.Sprintf("mixed address families in range %q", tok),
			}
		}
	case first.Is4():
		n, err := strconv.ParseUint(rest, 10, 8)
		if err != nil {
			return Atom{}, &scanrules.Error{
				Inner:   err,
				Kind:    scanrules.ErrParse,
				Op:      "hostlist.Parse",
				Message: fmt.Sprintf("bad trailing octet in range %q", tok),
			}
		}
		b := first.As4()
		b[3] = byte(n)
		last = netip.AddrFrom4(b)
	default:
		n, err := strconv.ParseUint(rest, 16, 16)
		if err != nil {
			return Atom{}, &scanrules.Error{
				Inner:   err,
				Kind:    scanrules.ErrParse,
				Op:      "hostlist.Parse",
				Message: fmt.Sprintf("bad trailing segment in range %q", tok),
			}
		}
		b := first.As16()
		b[14], b[15] = byte(n>>8), byte(n)
		last = netip.AddrFrom16(b)
	}
	if last.Less(first) {
		return Atom{}, &scanrules.Error{
			Kind:    scanrules.ErrRange,
			Op:      "hostlist.Parse",
			Message: fmt.Sprintf("inverted range %q", tok),
		}
	}
	return Atom{Kind: Range, First: first, Last: last}, nil
}

// lastAddr returns the final address of the prefix.
func lastAddr(p netip.Prefix) netip.Addr {
	if p.Addr().Is4() {
		b := p.Addr().As4()
		for i := p.Bits(); i < 32; i++ {
			b[i/8] |= 1 << (7 - i%8)
		}
		return netip.AddrFrom4(b)
	}
	b := p.Addr().As16()
	for i := p.Bits(); i < 128; i++ {
		b[i/8] |= 1 << (7 - i%8)
	}
	return netip.AddrFrom16(b)
}
