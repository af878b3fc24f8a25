package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/bytedance/sonic"

	"github.com/pkoss/csvstream/stream"
)

// sink receives rows from the step callback and renders them in the
// selected output format. JSON output buffers; csv and jsonl write as
// rows arrive.
type sink struct {
	mode   string
	stats  bool
	w      io.Writer
	rows   []any
	counts []float64
	err    error
}

func newSink(mode string, stats bool, w io.Writer) *sink {
	return &sink{mode: strings.ToLower(mode), stats: stats, w: w}
}

func (s *sink) step(r stream.Result, _ *stream.Handle) {
	if s.err != nil {
		return
	}

	if s.stats {
		for _, row := range r.Rows {
			s.counts = append(s.counts, float64(len(row)))
		}
		for _, rec := range r.Records {
			s.counts = append(s.counts, float64(fieldCount(rec)))
		}

		return
	}

	switch s.mode {
	case "json":
		for _, row := range r.Rows {
			s.rows = append(s.rows, row)
		}
		for _, rec := range r.Records {
			s.rows = append(s.rows, rec)
		}
	case "jsonl":
		for _, row := range r.Rows {
			s.writeJSON(row)
		}
		for _, rec := range r.Records {
			s.writeJSON(rec)
		}
	default:
		for _, row := range r.Rows {
			fmt.Fprintln(s.w, strings.Join(row, r.Meta.Delimiter))
		}
		for _, rec := range r.Records {
			fmt.Fprintln(s.w, strings.Join(recordFields(rec, r.Meta.Fields), r.Meta.Delimiter))
		}
	}
}

func (s *sink) flush() error {
	if s.err != nil {
		return s.err
	}

	if s.stats {
		if len(s.counts) == 0 {
			fmt.Fprintln(s.w, "no rows")
			return nil
		}

		h := histogram.Hist(9, s.counts)
		return histogram.Fprint(s.w, h, histogram.Linear(40))
	}

	if s.mode == "json" {
		if s.rows == nil {
			s.rows = []any{}
		}

		b, err := sonic.Marshal(s.rows)
		if err != nil {
			return fmt.Errorf("failed to encode rows: %w", err)
		}

		if _, err := s.w.Write(append(b, '\n')); err != nil {
			return err
		}
	}

	return nil
}

func (s *sink) writeJSON(v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		s.err = fmt.Errorf("failed to encode row: %w", err)
		return
	}

	if _, err := s.w.Write(append(b, '\n')); err != nil {
		s.err = err
	}
}

// recordFields renders a record back into header order; surplus
// fields follow in their original order.
func recordFields(rec stream.Record, fields []string) []string {
	out := make([]string, 0, len(rec))

	for _, f := range fields {
		v, _ := rec[f].(string)
		out = append(out, v)
	}

	if extra, ok := rec[stream.ExtraFieldsKey].([]string); ok {
		out = append(out, extra...)
	}

	return out
}

func fieldCount(rec stream.Record) int {
	n := len(rec)

	if extra, ok := rec[stream.ExtraFieldsKey].([]string); ok {
		n += len(extra) - 1
	}

	return n
}
