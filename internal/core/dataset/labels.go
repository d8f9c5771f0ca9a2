package dataset

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// label chains are stateful so each call takes a fresh one from the pool
var labelChains = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)), // zero width and BOM
			width.Fold,
		)
	},
}

// NormalizeLabel canonicalizes a crime type or unit label
// NFKC, format characters dropped, fullwidth folded, whitespace collapsed, case kept
func NormalizeLabel(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := labelChains.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	labelChains.Put(tr)
	if err != nil {
		ns = s
	}
	return strings.Join(strings.Fields(ns), " ")
}

// foldLabel is the matching key for filters, labels compare case insensitively
func foldLabel(s string) string {
	return cases.Fold().String(NormalizeLabel(s))
}

// foldSet builds a lookup of folded labels, nil means match everything
func foldSet(in []string) map[string]struct{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(in))
	for _, v := range in {
		if k := foldLabel(v); k != "" {
			out[k] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
