package scan

import (
	"errors"
	"strings"
	"sync/atomic"
)

// Characters that may never appear inside a delimiter. A delimiter
// containing any of them is silently replaced with the fallback, the
// multi-character case included.
const BadDelimiters = "\r\n\"\uFEFF"

const (
	DefaultQuote = `"`

	// ASCII record and unit separators, offered as delimiter
	// candidates during auto-detection.
	RecordSep = "\x1e"
	UnitSep   = "\x1f"
)

var ErrCommentDelimiterClash = errors.New("comment marker collides with the delimiter")

// Config is snapshotted by the Scanner at construction; changing it
// afterwards has no effect on an existing Scanner.
type Config struct {
	// Delimiter separates fields. One or more characters.
	Delimiter string
	// Newline is "\r", "\n" or "\r\n". Empty means auto-detect on the
	// first bare newline encountered, then lock that choice.
	Newline string
	// Quote wraps fields that contain structural characters.
	// Defaults to `"`.
	Quote string
	// Escape precedes a quote character inside a quoted field.
	// Defaults to the quote character itself (RFC 4180 doubling).
	Escape string
	// Comment, when non-empty, marks lines to be skipped when it
	// appears at start of row. Empty disables comment handling.
	Comment string
	// Halt is polled at every row boundary; once set the scanner
	// stops committing rows.
	Halt *atomic.Bool
}

// ValidDelimiter reports whether d can serve as a delimiter.
func ValidDelimiter(d string) bool {
	return d != "" && !strings.ContainsAny(d, BadDelimiters)
}

// normalized returns a copy of c with defaults applied. The fallback
// delimiter is substituted for a missing or invalid one.
func (c Config) normalized(fallback string) (Config, error) {
	if !ValidDelimiter(c.Delimiter) {
		c.Delimiter = fallback
	}

	if c.Quote == "" {
		c.Quote = DefaultQuote
	}

	if c.Escape == "" {
		c.Escape = c.Quote
	}

	switch c.Newline {
	case "\r", "\n", "\r\n":
	default:
		c.Newline = ""
	}

	if c.Comment != "" && c.Comment == c.Delimiter {
		return c, ErrCommentDelimiterClash
	}

	return c, nil
}
