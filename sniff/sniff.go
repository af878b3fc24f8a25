// Package sniff chooses a field delimiter from a leading sample of
// the input when the caller did not configure one.
package sniff

import (
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/pkoss/csvstream/scan"
)

// DefaultCandidates is the delimiter set tried in order when the
// caller supplies none.
var DefaultCandidates = []string{",", "\t", "|", ";", scan.RecordSep, scan.UnitSep}

// probeRows bounds how many non-comment, non-empty rows of the sample
// each candidate is scored on.
const probeRows = 10

type (
	// Options parameterise a detection run.
	Options struct {
		// Candidates overrides DefaultCandidates when non-empty.
		Candidates []string
		// Comment excludes comment lines from the probe.
		Comment string
		// Newline pins the row terminator; empty auto-detects.
		Newline string
	}

	score struct {
		rows      int
		avgFields float64
		deviation float64
	}
)

// Detect scores every candidate over the sample and returns the best
// one. ok is false when no candidate split any probed row into more
// than one field; the caller should then fall back to its default
// delimiter and report the failure.
func Detect(sample string, opts Options) (string, bool) {
	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	var (
		best      string
		bestScore score
		found     bool
		tried     []string
	)

	for _, cand := range candidates {
		if !scan.ValidDelimiter(cand) || slices.Contains(tried, cand) {
			continue
		}
		tried = append(tried, cand)

		sc, err := scan.New(scan.Config{
			Delimiter: cand,
			Comment:   opts.Comment,
			Newline:   opts.Newline,
		}, cand)
		if err != nil {
			continue
		}

		s, ok := probe(sc, sample)
		if !ok {
			continue
		}

		if !found || better(s, bestScore) {
			best, bestScore, found = cand, s, true
		}
	}

	if !found {
		return "", false
	}

	log.WithFields(log.Fields{
		"delimiter": best,
		"rows":      bestScore.rows,
		"avgFields": bestScore.avgFields,
		"deviation": bestScore.deviation,
	}).Debug("delimiter detected")

	return best, true
}

// better prefers the lower field-count deviation, then the higher
// average field count. Earlier candidates win exact ties because the
// caller only replaces the incumbent on strict improvement.
func better(a, b score) bool {
	if a.deviation != b.deviation {
		return a.deviation < b.deviation
	}

	return a.avgFields > b.avgFields
}

// probe scans the sample with the candidate scanner and scores the
// first probeRows rows that carry content. ok demands at least one
// row with two or more fields.
func probe(sc *scan.Scanner, sample string) (score, bool) {
	var (
		res    = sc.Scan(sample, 0, false)
		counts []int
		split  bool
	)

	for _, row := range res.Rows {
		if len(row) == 1 && row[0] == "" {
			continue
		}

		counts = append(counts, len(row))
		if len(row) > 1 {
			split = true
		}

		if len(counts) == probeRows {
			break
		}
	}

	if !split || len(counts) == 0 {
		return score{}, false
	}

	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	avg := sum / float64(len(counts))

	var dev float64
	for _, c := range counts {
		dev += math.Abs(float64(c) - avg)
	}
	dev /= float64(len(counts))

	return score{rows: len(counts), avgFields: avg, deviation: dev}, true
}
