package hostlist

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/quay/scanrules"
)

// Contains reports whether candidate is denoted by the host-list expression.
//
// Membership is decided by arithmetic on address spans (string equality for
// hostname atoms) and short-circuits on the first matching atom; no range is
// ever enumerated, so the answer is exact regardless of maxHosts. The cap is
// accepted for interface parity with [Count] and validated the same way: a
// non-positive cap is a caller defect and fails with
// [scanrules.ErrPrecondition].
//
// A parse failure is reported as an error so the call boundary can apply its
// documented non-match default.
func Contains(expression, candidate string, maxHosts int) (bool, error) {
	if maxHosts <= 0 {
		return false, capError("hostlist.Contains", maxHosts)
	}
	atoms, err := Parse(expression)
	if err != nil {
		return false, err
	}
	candidate = strings.TrimSpace(candidate)
	if addr, err := netip.ParseAddr(candidate); err == nil {
		addr = addr.Unmap()
		for i := range atoms {
			if atoms[i].contains(addr) {
				return true, nil
			}
		}
		return false, nil
	}
	if candidate == "" {
		return false, nil
	}
	name := strings.ToLower(candidate)
	for i := range atoms {
		if atoms[i].Kind == Hostname && atoms[i].Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of distinct hosts denoted by expression and not
// denoted by exclude, capped at maxHosts.
//
// Enumeration is lazy and proceeds atom by atom in parse order, deduplicating
// as it goes; it stops the instant the running distinct count reaches the
// cap, so the result is min(maxHosts, true distinct count). Excluded spans
// are jumped over by arithmetic rather than visited, keeping the work
// proportional to the cap and the textual size of the inputs, never to the
// numeric width of any range.
//
// An empty exclude excludes nothing. A host named by both expression and
// exclude is omitted entirely, even if expression lists it more than once.
func Count(expression, exclude string, maxHosts int) (int, error) {
	if maxHosts <= 0 {
		return 0, capError("hostlist.Count", maxHosts)
	}
	atoms, err := Parse(expression)
	if err != nil {
		return 0, err
	}
	excl, err := Parse(exclude)
	if err != nil {
		return 0, err
	}
	exclNames := make(map[string]struct{})
	for i := range excl {
		if excl[i].Kind == Hostname {
			exclNames[excl[i].Name] = struct{}{}
		}
	}

	seenAddrs := make(map[netip.Addr]struct{})
	seenNames := make(map[string]struct{})
	for i := range atoms {
		at := &atoms[i]
		if at.Kind == Hostname {
			if _, ok := exclNames[at.Name]; ok {
				continue
			}
			seenNames[at.Name] = struct{}{}
			if len(seenAddrs)+len(seenNames) >= maxHosts {
				return maxHosts, nil
			}
			continue
		}
		for a := at.First; ; a = a.Next() {
			a = skipExcluded(a, excl)
			if !a.IsValid() || at.Last.Less(a) {
				break
			}
			if _, ok := seenAddrs[a]; !ok {
				seenAddrs[a] = struct{}{}
				if len(seenAddrs)+len(seenNames) >= maxHosts {
					return maxHosts, nil
				}
			}
		}
	}
	return len(seenAddrs) + len(seenNames), nil
}

// contains reports arithmetic membership of addr in the atom's span.
func (a *Atom) contains(addr netip.Addr) bool {
	if a.Kind == Hostname || a.First.Is4() != addr.Is4() {
		return false
	}
	return !addr.Less(a.First) && !a.Last.Less(addr)
}

// skipExcluded advances a past every excluded span covering it. The returned
// address is invalid when the jump walks off the end of the address space.
func skipExcluded(a netip.Addr, excl []Atom) netip.Addr {
	for again := true; again && a.IsValid(); {
		again = false
		for i := range excl {
			if excl[i].contains(a) {
				a = excl[i].Last.Next()
				again = true
				break
			}
		}
	}
	return a
}

func capError(op string, maxHosts int) error {
	return &scanrules.Error{
		Kind:    scanrules.ErrPrecondition,
		Op:      op,
		Message: fmt.Sprintf("non-positive max-hosts cap %d", maxHosts),
	}
}
