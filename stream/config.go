package stream

import (
	"github.com/pkoss/csvstream/transport"
)

type (
	// SkipMode controls empty-line filtering.
	SkipMode uint8

	// Config describes one parse. It is snapshotted by NewStreamer;
	// later changes have no effect.
	Config struct {
		// Delimiter fixes the field separator. Empty triggers
		// auto-detection. A delimiter containing a bad character
		// (newline, quote, byte-order mark) silently falls back to
		// the default delimiter.
		Delimiter string
		// DelimiterFunc, when set and Delimiter is empty, derives the
		// delimiter from the leading input instead of auto-detection.
		DelimiterFunc func(sample string) string
		// Newline pins the row terminator ("\r", "\n" or "\r\n");
		// empty auto-detects.
		Newline string
		// Quote and Escape configure quoting; see scan.Config.
		Quote  string
		Escape string
		// Header consumes the first row as column names and projects
		// every following row to a Record.
		Header bool
		// Comment, when non-empty, skips lines it prefixes.
		Comment string
		// SkipEmptyLines filters structurally empty rows, and with
		// SkipGreedy also rows whose every field is blank.
		SkipEmptyLines SkipMode
		// DelimitersToGuess overrides the auto-detection candidates.
		DelimitersToGuess []string
		// Preview caps the number of emitted data rows; zero means no
		// cap.
		Preview int
		// SkipFirstNLines discards that many logical lines before
		// parsing starts. Zero or negative is a no-op.
		SkipFirstNLines int
		// ChunkSize overrides the snapshot of the default chunk size:
		// bytes per range for remote input, bytes per slice for
		// in-memory input.
		ChunkSize int
		// BeforeFirstChunk may rewrite the first chunk before any
		// parsing happens.
		BeforeFirstChunk func(chunk string) string

		Step     StepFunc
		Chunk    ChunkFunc
		Complete CompleteFunc
		Error    ErrorFunc

		// Fetcher overrides the HTTP transport for remote parses.
		Fetcher transport.Fetcher
		// RequestHeaders are sent with every range request.
		RequestHeaders map[string]string
		// RequestBody switches range requests to POST.
		RequestBody []byte
		// WithCredentials applies the transport's credentials.
		WithCredentials bool
		// Offset starts the first range at this byte offset. The
		// caller must ensure it falls on a row boundary.
		Offset int64
	}
)

const (
	// SkipNone keeps empty rows.
	SkipNone SkipMode = iota
	// SkipEmpty drops rows that are a single empty field.
	SkipEmpty
	// SkipGreedy additionally drops rows whose fields are all
	// whitespace.
	SkipGreedy
)
