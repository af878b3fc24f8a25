package stream

import (
	"github.com/pkoss/csvstream/scan"
)

// ExtraFieldsKey holds surplus fields on a projected record when a
// row carries more fields than the header named.
const ExtraFieldsKey = "__parsed_extra"

type (
	// Record is one row projected through the header: header name to
	// field value, plus ExtraFieldsKey ([]string) for surplus fields.
	Record map[string]any

	// Meta is the observable state of a parse.
	Meta struct {
		// Delimiter and Linebreak are the sequences the parse settled
		// on, configured or detected.
		Delimiter string
		Linebreak string
		// Aborted is set once a callback used its Handle.
		Aborted bool
		// Truncated is set when the preview cap cut the parse short.
		Truncated bool
		// Cursor is the offset within the input just past the last
		// fully parsed row.
		Cursor int
		// Fields holds the deduplicated header names under header
		// interpretation.
		Fields []string
		// RenamedHeaders maps each assigned unique name back to the
		// duplicated original, nil when nothing was renamed.
		RenamedHeaders map[string]string
		// FirstByte and NumBytes describe remote parses: the byte
		// offset the first range started at, and the total bytes
		// fetched.
		FirstByte int64
		NumBytes  int64
	}

	// Result carries parsed rows. Rows is populated without header
	// interpretation, Records with it. A step Result holds exactly
	// one row; the complete Result holds everything accumulated, or
	// no data at all when a step or chunk callback consumed the rows
	// incrementally.
	Result struct {
		Rows    [][]string
		Records []Record
		Errors  []scan.ParseError
		Meta    Meta
	}

	// StepFunc receives each data row in document order.
	StepFunc func(Result, *Handle)

	// ChunkFunc receives the rows produced by one ingested chunk.
	ChunkFunc func(Result, *Handle)

	// CompleteFunc receives the terminal result exactly once, also
	// after an abort.
	CompleteFunc func(Result)

	// ErrorFunc receives fatal errors; Complete is not invoked after
	// a fatal error.
	ErrorFunc func(error)
)

// Handle lets step and chunk callbacks stop the parse. The flag is
// observed by the scanner at every row boundary and by the streamer
// before requesting further input.
type Handle struct {
	s *Streamer
}

// Abort stops the parse. The terminal result reports Aborted.
func (h *Handle) Abort() {
	h.s.halt.Store(true)
	h.s.meta.Aborted = true
}
