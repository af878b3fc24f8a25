// Package stream drives the scanner over chunked input: it carries
// partial rows across chunk boundaries, applies header interpretation
// and empty-line filtering, enforces the preview cap, and dispatches
// the step/chunk/complete/error callbacks.
package stream

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/pkoss/csvstream/scan"
	"github.com/pkoss/csvstream/sniff"
)

// Streamer owns one parse: a scanner, the cross-chunk tail, and the
// accumulated result. Feed it chunks in document order; the last one
// with final set.
type Streamer struct {
	cfg Config
	def Defaults
	id  uuid.UUID

	machine *fsm.FSM
	handle  *Handle
	halt    atomic.Bool

	scanner  *scan.Scanner
	proj     *projector
	tail     string
	base     int
	first    bool
	skipLeft int
	rowCount int
	pending  []scan.ParseError
	meta     Meta
	acc      *Result
	done     bool
	finished bool
}

// NewStreamer snapshots cfg and the process-wide defaults. Nothing is
// read from either after this point.
func NewStreamer(cfg Config) *Streamer {
	s := Streamer{
		cfg:   cfg,
		def:   CurrentDefaults(),
		id:    uuid.New(),
		first: true,
		acc:   &Result{},
		meta:  Meta{FirstByte: cfg.Offset},
	}

	if cfg.SkipFirstNLines > 0 {
		s.skipLeft = cfg.SkipFirstNLines
	}

	s.handle = &Handle{s: &s}
	s.machine = newMachine(&s)

	return &s
}

// Done reports whether the parse terminated: end of input, abort,
// preview satisfaction or failure.
func (s *Streamer) Done() bool { return s.done || s.finished }

// Aborted reports whether a callback aborted the parse.
func (s *Streamer) Aborted() bool { return s.meta.Aborted }

// Result returns what has accumulated so far; after the final Feed it
// is the terminal result.
func (s *Streamer) Result() *Result {
	s.acc.Meta = s.meta
	return s.acc
}

// Feed ingests the next chunk. final marks the end of input; it
// triggers the complete callback once the chunk is consumed. Feeding
// a finished streamer is a no-op.
func (s *Streamer) Feed(chunk string, final bool) error {
	if s.done || s.finished {
		return nil
	}

	if s.machine.Current() == Fresh {
		_ = s.machine.Event(context.Background(), Begin)
	}

	if s.first {
		chunk = strings.TrimPrefix(chunk, "\uFEFF")

		if s.cfg.BeforeFirstChunk != nil {
			chunk = s.cfg.BeforeFirstChunk(chunk)
		}

		s.first = false
	}

	buffer := s.tail + chunk
	s.tail = ""

	if s.skipLeft > 0 {
		before := len(buffer)
		buffer, s.skipLeft = scan.DropLines(buffer, s.skipLeft, s.cfg.Newline, final)
		s.base += before - len(buffer)

		if s.skipLeft > 0 {
			if final {
				s.meta.Cursor = s.base
				s.finish()
				return nil
			}

			s.tail = buffer
			return nil
		}
	}

	if s.scanner == nil {
		if err := s.setup(buffer); err != nil {
			s.fail(err)
			return err
		}
	}

	res := s.scanner.Scan(buffer, s.base, !final)

	s.tail = buffer[res.Cursor-s.base:]
	s.base = res.Cursor
	s.meta.Cursor = res.Cursor
	s.meta.Linebreak = s.scanner.Newline()

	s.process(res, final)

	if final || s.done {
		s.finish()
	}

	return nil
}

// setup fixes the delimiter (configured, derived or detected) and
// builds the scanner. It runs once, on the first parsed buffer.
func (s *Streamer) setup(sample string) error {
	delim := s.cfg.Delimiter

	if delim == "" && s.cfg.DelimiterFunc != nil {
		delim = s.cfg.DelimiterFunc(sample)
	}

	if delim == "" {
		d, ok := sniff.Detect(sample, sniff.Options{
			Candidates: s.cfg.DelimitersToGuess,
			Comment:    s.cfg.Comment,
			Newline:    s.cfg.Newline,
		})
		if ok {
			delim = d
		} else {
			delim = s.def.Delimiter
			s.pending = append(s.pending, scan.ParseError{
				Type:    scan.Delimiter,
				Code:    scan.UndetectableDelimiter,
				Message: fmt.Sprintf("unable to auto-detect delimiting character; defaulted to %q", delim),
				Row:     -1,
				Index:   -1,
			})
		}
	}

	sc, err := scan.New(scan.Config{
		Delimiter: delim,
		Newline:   s.cfg.Newline,
		Quote:     s.cfg.Quote,
		Escape:    s.cfg.Escape,
		Comment:   s.cfg.Comment,
		Halt:      &s.halt,
	}, s.def.Delimiter)
	if err != nil {
		return err
	}

	s.scanner = sc
	s.meta.Delimiter = sc.Delimiter()

	return nil
}

// process filters, projects and dispatches the rows of one scan.
func (s *Streamer) process(res scan.Result, final bool) {
	byRow := make(map[int][]scan.ParseError, len(res.Errors))
	for _, e := range res.Errors {
		byRow[e.Row] = append(byRow[e.Row], e)
	}

	var out *Result
	if s.cfg.Chunk != nil {
		out = &Result{}
	}

	// Detector errors ride along with the first processed batch.
	carried := s.pending
	s.pending = nil

	for i, row := range res.Rows {
		if s.halt.Load() && s.meta.Aborted {
			s.done = true
			break
		}

		rowErrs := append(carried, remap(byRow[i], s.rowCount)...)
		carried = nil

		if s.skipRow(row) {
			// The row vanishes; its errors keep the index the next
			// data row will take.
			s.collect(rowErrs, out)
			continue
		}

		if s.cfg.Header && s.proj == nil {
			s.proj = newProjector(row)
			s.meta.Fields = s.proj.fields
			s.meta.RenamedHeaders = s.proj.renamed
			s.collect(rowErrs, out)
			continue
		}

		var rec Record
		if s.proj != nil {
			var perr *scan.ParseError
			rec, perr = s.proj.project(row, s.rowCount)
			if perr != nil {
				rowErrs = append(rowErrs, *perr)
			}
		}

		s.dispatchRow(row, rec, rowErrs, out)
		s.rowCount++

		if s.cfg.Preview > 0 && s.rowCount >= s.cfg.Preview {
			if i < len(res.Rows)-1 || !final || len(s.tail) > 0 {
				s.meta.Truncated = true
			}

			s.halt.Store(true)
			s.done = true
			break
		}
	}

	if len(carried) > 0 {
		s.collect(carried, out)
	}

	if out != nil {
		out.Meta = s.meta
		s.cfg.Chunk(*out, s.handle)
	}

	if s.halt.Load() && s.meta.Aborted {
		s.done = true
	}
}

// dispatchRow hands one data row to the step callback, the chunk
// buffer, or the accumulated result.
func (s *Streamer) dispatchRow(row []string, rec Record, errs []scan.ParseError, out *Result) {
	s.collect(errs, nil)

	if out != nil {
		out.Errors = append(out.Errors, errs...)
		if rec != nil {
			out.Records = append(out.Records, rec)
		} else {
			out.Rows = append(out.Rows, row)
		}
	}

	if s.cfg.Step != nil {
		step := Result{Errors: errs, Meta: s.meta}
		if rec != nil {
			step.Records = []Record{rec}
		} else {
			step.Rows = [][]string{row}
		}

		s.cfg.Step(step, s.handle)
		return
	}

	if s.cfg.Chunk == nil {
		if rec != nil {
			s.acc.Records = append(s.acc.Records, rec)
		} else {
			s.acc.Rows = append(s.acc.Rows, row)
		}
	}
}

// collect accumulates errors on the terminal result and, when given,
// on the chunk result.
func (s *Streamer) collect(errs []scan.ParseError, out *Result) {
	if len(errs) == 0 {
		return
	}

	s.acc.Errors = append(s.acc.Errors, errs...)

	if out != nil {
		out.Errors = append(out.Errors, errs...)
	}
}

func (s *Streamer) skipRow(row []string) bool {
	switch s.cfg.SkipEmptyLines {
	case SkipEmpty:
		return len(row) == 1 && row[0] == ""
	case SkipGreedy:
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				return false
			}
		}

		return true
	}

	return false
}

// finish fires the terminal transition once. The machine dispatches
// the complete callback.
func (s *Streamer) finish() {
	if s.finished {
		return
	}

	s.finished = true
	s.done = true
	s.acc.Meta = s.meta

	event := Finish
	if s.meta.Aborted {
		event = Abort
	}

	_ = s.machine.Event(context.Background(), event)
}

func (s *Streamer) dispatchComplete() {
	if s.cfg.Complete != nil {
		s.cfg.Complete(*s.acc)
	}
}

// fail fires the failure transition once; complete never follows.
func (s *Streamer) fail(err error) {
	if s.finished {
		return
	}

	s.finished = true
	s.done = true

	_ = s.machine.Event(context.Background(), Fail, err)
}

func remap(errs []scan.ParseError, dataRow int) []scan.ParseError {
	if len(errs) == 0 {
		return nil
	}

	out := make([]scan.ParseError, len(errs))
	for i, e := range errs {
		e.Row = dataRow
		out[i] = e
	}

	return out
}
