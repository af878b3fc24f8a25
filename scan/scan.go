package scan

import (
	"strings"
)

type (
	// Scanner walks delimited text and emits rows of fields. It is a
	// pure function of its input except for the newline lock, which
	// persists across calls so chunked input keeps one convention.
	Scanner struct {
		cfg Config
		nl  string // locked newline, empty until first detection
	}

	// Result is the outcome of one Scan call.
	Result struct {
		Rows   [][]string
		Errors []ParseError
		// Cursor is the absolute index just past the last committed
		// row, or the start of the withheld row when the buffer ended
		// mid-row under ignoreLastRow.
		Cursor int
		// Halted is set when the halt flag stopped the scan at a row
		// boundary before end of input.
		Halted bool
	}
)

// New builds a Scanner from cfg. An invalid delimiter falls back to
// fallbackDelim. The only rejected configuration is a comment marker
// equal to the delimiter.
func New(cfg Config, fallbackDelim string) (*Scanner, error) {
	c, err := cfg.normalized(fallbackDelim)
	if err != nil {
		return nil, err
	}

	return &Scanner{cfg: c, nl: c.Newline}, nil
}

// Delimiter returns the delimiter the scanner settled on.
func (s *Scanner) Delimiter() string { return s.cfg.Delimiter }

// Newline returns the locked newline sequence, or "\n" when no
// newline has been seen yet.
func (s *Scanner) Newline() string {
	if s.nl == "" {
		return "\n"
	}

	return s.nl
}

// Scan parses input and returns every fully terminated row. baseIndex
// is the absolute position of input[0] within the original document;
// reported cursors are absolute. With ignoreLastRow the final
// (possibly partial) row is withheld so that re-feeding from the
// returned cursor onward yields identical results once more input
// arrives.
func (s *Scanner) Scan(input string, baseIndex int, ignoreLastRow bool) Result {
	var (
		n    = len(input)
		res  = Result{Cursor: baseIndex}
		row  []string
		fld  strings.Builder
		pos  int
		last int // just past the newline of the last committed row
		open int // row start, the rollback point under ignoreLastRow
	)

	if n == 0 {
		return res
	}

	var (
		delim   = s.cfg.Delimiter
		quote   = s.cfg.Quote
		escape  = s.cfg.Escape
		comment = s.cfg.Comment
		doubled = escape == quote

		// quotedFrom is the content start of the open quoted field;
		// pending tracks whether an uncommitted row exists at end of
		// input.
		inQuotes   bool
		quotedFrom int
		pending    = true
	)

	commit := func(end int) bool {
		row = append(row, fld.String())
		fld.Reset()
		res.Rows = append(res.Rows, row)
		row = nil
		pos = end
		last = end
		open = end

		if s.cfg.Halt != nil && s.cfg.Halt.Load() {
			res.Halted = true
			return false
		}

		return true
	}

	// withhold rolls back to the start of the current row; errors found
	// inside the withheld row are dropped so the next, larger scan
	// reports them exactly once.
	withhold := func() Result {
		res.Errors = trimErrors(res.Errors, len(res.Rows))
		res.Cursor = baseIndex + open
		return res
	}

	halted := func() Result {
		res.Errors = trimErrors(res.Errors, len(res.Rows))
		res.Cursor = baseIndex + last
		return res
	}

	for pos < n {
		if !inQuotes {
			// Comment lines are recognised only at start of row.
			if comment != "" && pos == open && strings.HasPrefix(input[pos:], comment) {
				at, skip, split := s.newlineAt(input, pos, ignoreLastRow)
				if split {
					return withhold()
				}
				if at < 0 {
					if ignoreLastRow {
						return withhold()
					}
					// Comment runs to end of input; nothing pends.
					pos = n
					last = n
					open = n
					pending = false
					break
				}
				pos = at + skip
				last = pos
				open = pos
				continue
			}

			if strings.HasPrefix(input[pos:], delim) {
				row = append(row, fld.String())
				fld.Reset()
				pos += len(delim)
				continue
			}

			if skip, split := s.matchNewline(input, pos, ignoreLastRow); split {
				return withhold()
			} else if skip > 0 {
				if !commit(pos + skip) {
					return halted()
				}
				continue
			}

			// A quote opens a quoted field only when the field has no
			// content yet. Anywhere else it is literal.
			if fld.Len() == 0 && strings.HasPrefix(input[pos:], quote) {
				pos += len(quote)
				quotedFrom = pos
				inQuotes = true
				continue
			}

			fld.WriteByte(input[pos])
			pos++
			continue
		}

		// Quoted mode.
		if !doubled && strings.HasPrefix(input[pos:], escape) &&
			strings.HasPrefix(input[pos+len(escape):], quote) {
			fld.WriteString(quote)
			pos += len(escape) + len(quote)
			continue
		}

		if doubled && strings.HasPrefix(input[pos:], quote+quote) {
			fld.WriteString(quote)
			pos += 2 * len(quote)
			continue
		}

		if strings.HasPrefix(input[pos:], quote) {
			// Candidate closing quote: decide by what follows, looking
			// past any run of spaces and tabs.
			after := pos + len(quote)
			next := after
			for next < n && (input[next] == ' ' || input[next] == '\t') {
				next++
			}

			if next >= n {
				if ignoreLastRow {
					return withhold()
				}
				inQuotes = false
				pos = n
				break
			}

			if strings.HasPrefix(input[next:], delim) {
				row = append(row, fld.String())
				fld.Reset()
				inQuotes = false
				pos = next + len(delim)
				continue
			}

			if skip, split := s.matchNewline(input, next, ignoreLastRow); split {
				return withhold()
			} else if skip > 0 {
				inQuotes = false
				if !commit(next + skip) {
					return halted()
				}
				continue
			}

			res.Errors = append(res.Errors, invalidQuotes(len(res.Rows), pos-open))
			fld.WriteString(quote)
			pos = after
			continue
		}

		// Newlines inside quotes are literal content.
		fld.WriteByte(input[pos])
		pos++
	}

	if inQuotes {
		if ignoreLastRow {
			return withhold()
		}
		res.Errors = append(res.Errors, missingQuotes(len(res.Rows), quotedFrom-open))
	}

	if ignoreLastRow {
		if open < n {
			return withhold()
		}
		res.Cursor = baseIndex + last
		return res
	}

	if pending {
		row = append(row, fld.String())
		res.Rows = append(res.Rows, row)
		last = n
	}

	res.Cursor = baseIndex + last

	return res
}

// matchNewline reports the length of the newline sequence at pos, or
// zero. Auto-detection locks the convention on first sight. split is
// set when a bare "\r" at the very end of the buffer cannot be
// distinguished from a truncated "\r\n" yet.
func (s *Scanner) matchNewline(input string, pos int, ignoreLastRow bool) (skip int, split bool) {
	if s.nl != "" {
		if strings.HasPrefix(input[pos:], s.nl) {
			return len(s.nl), false
		}
		if s.nl == "\r\n" && input[pos] == '\r' && pos == len(input)-1 && ignoreLastRow {
			return 0, true
		}
		return 0, false
	}

	switch input[pos] {
	case '\n':
		s.nl = "\n"
		return 1, false
	case '\r':
		if pos+1 < len(input) {
			if input[pos+1] == '\n' {
				s.nl = "\r\n"
				return 2, false
			}
			s.nl = "\r"
			return 1, false
		}
		if ignoreLastRow {
			return 0, true
		}
		s.nl = "\r"
		return 1, false
	}

	return 0, false
}

// newlineAt finds the next newline at or after pos, returning its
// index and length. It participates in auto-detection the same way
// matchNewline does.
func (s *Scanner) newlineAt(input string, pos int, ignoreLastRow bool) (at, skip int, split bool) {
	for i := pos; i < len(input); i++ {
		c := input[i]
		if c != '\r' && c != '\n' {
			continue
		}
		n, sp := s.matchNewline(input, i, ignoreLastRow)
		if sp {
			return -1, 0, true
		}
		if n > 0 {
			return i, n, false
		}
		// A bare newline byte that does not match the locked
		// convention is ordinary content here.
	}

	return -1, 0, false
}

// trimErrors drops errors attributed to rows at or beyond limit.
func trimErrors(errs []ParseError, limit int) []ParseError {
	out := errs[:0]
	for _, e := range errs {
		if e.Row < limit {
			out = append(out, e)
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
