// Package interval provides recombination-rate interval parsing functionality.
package interval

import "sort"

// Record is a single genomic interval [Start, End) with its recombination rate.
type Record struct {
	Chrom string
	Start int64
	End   int64
	Rate  float64
}

// Len returns the interval length in bases.
func (r Record) Len() int64 {
	return r.End - r.Start
}

// Keep reports whether a parsed record should reach aggregation.
// An End of zero is the default substituted for a missing or unparsable
// coordinate, so such rows are dropped rather than treated as real data.
func Keep(r Record) bool {
	return r.End != 0
}

// Set maps chromosome name to its records in input order.
type Set map[string][]Record

// Add appends a record to its chromosome's list.
func (s Set) Add(r Record) {
	s[r.Chrom] = append(s[r.Chrom], r)
}

// Names returns the chromosome names in lexicographic order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of records across all chromosomes.
func (s Set) Count() int {
	n := 0
	for _, recs := range s {
		n += len(recs)
	}
	return n
}
