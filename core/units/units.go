// Package units implements symbolic unit algebra: parsing, canonicalization,
// multiplication/division composition, and the conversion graph used to
// reconcile mismatched units during arithmetic.
package units

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/width"

	"github.com/schmidtdse/joshsim/internal/errs"
)

// Units is a pair of multisets of symbolic base names: numerator over
// denominator. "count" and the empty unit are semantically identical.
// Denominator depth is at most one level: a/b is fine, a/b/c is rejected by
// Parse. Multiply and Divide flatten their results into a single
// numerator/denominator pair, so they never produce a deeper unit.
type Units struct {
	canonical string
	num       []string // sorted
	den       []string // sorted, depth 1 only
}

var (
	internMu sync.Mutex
	intern   = map[string]*Units{}
)

// Count is the dimensionless unit, identical to the empty unit.
var Count = internFromParts(nil, nil)

func normalizeSymbol(sym string) string {
	sym = strings.TrimSpace(sym)
	sym = width.Fold.String(sym)
	if sym == "" || sym == "count" {
		return ""
	}
	return sym
}

// internFromParts returns the canonical, reference-equal Units for the
// given sorted numerator/denominator multisets.
func internFromParts(num, den []string) *Units {
	numC := append([]string(nil), num...)
	denC := append([]string(nil), den...)
	sort.Strings(numC)
	sort.Strings(denC)
	key := strings.Join(numC, "*") + "/" + strings.Join(denC, "*")

	internMu.Lock()
	defer internMu.Unlock()
	if u, ok := intern[key]; ok {
		return u
	}
	u := &Units{canonical: formatCanonical(numC, denC), num: numC, den: denC}
	intern[key] = u
	return u
}

func formatCanonical(num, den []string) string {
	if len(num) == 0 && len(den) == 0 {
		return "count"
	}
	n := "count"
	if len(num) > 0 {
		n = strings.Join(num, "*")
	}
	if len(den) == 0 {
		return n
	}
	return n + "/" + strings.Join(den, "*")
}

// Parse parses unit text such as "m", "m/s", "count", or "". It rejects
// texts with more than one denominator level ("m/s/kg") in every call
// path, per spec.
func Parse(text string) (*Units, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "count" {
		return Count, nil
	}
	parts := strings.Split(text, "/")
	if len(parts) > 2 {
		return nil, errs.New(errs.ParseError, "unit %q has more than one denominator level", text)
	}
	num := splitFactors(parts[0])
	var den []string
	if len(parts) == 2 {
		den = splitFactors(parts[1])
	}
	return internFromParts(num, den), nil
}

func splitFactors(s string) []string {
	raw := strings.Split(s, "*")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if n := normalizeSymbol(r); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// String returns the cached canonical textual form.
func (u *Units) String() string {
	if u == nil {
		return "count"
	}
	return u.canonical
}

// IsCount reports whether u is the dimensionless unit.
func (u *Units) IsCount() bool {
	return u == nil || (len(u.num) == 0 && len(u.den) == 0)
}

// Equal reports whether two Units are the same canonical unit. Because
// Units are interned, this is a pointer comparison.
func (u *Units) Equal(o *Units) bool {
	if u == nil {
		u = Count
	}
	if o == nil {
		o = Count
	}
	return u == o
}

// Multiply composes two units' numerators/denominators, cancelling common
// factors. The result is always a flat numerator/denominator pair, so the
// returned error is always nil.
func (u *Units) Multiply(o *Units) (*Units, error) {
	if u == nil {
		u = Count
	}
	if o == nil {
		o = Count
	}
	num := append(append([]string(nil), u.num...), o.num...)
	den := append(append([]string(nil), u.den...), o.den...)
	num, den = cancel(num, den)
	return internFromParts(num, den), nil
}

// Divide composes u/o, cancelling common factors.
func (u *Units) Divide(o *Units) (*Units, error) {
	if u == nil {
		u = Count
	}
	if o == nil {
		o = Count
	}
	num := append(append([]string(nil), u.num...), o.den...)
	den := append(append([]string(nil), u.den...), o.num...)
	num, den = cancel(num, den)
	return internFromParts(num, den), nil
}

// cancel removes common factors between num and den, one occurrence each.
func cancel(num, den []string) ([]string, []string) {
	for _, d := range append([]string(nil), den...) {
		if idx := indexOf(num, d); idx >= 0 {
			num = removeAt(num, idx)
			den = removeAt(den, indexOf(den, d))
		}
	}
	return num, den
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func removeAt(s []string, i int) []string {
	out := append([]string(nil), s[:i]...)
	return append(out, s[i+1:]...)
}
