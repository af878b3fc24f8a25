package stream

import (
	"fmt"

	"github.com/emirpasic/gods/sets/hashset"

	"github.com/pkoss/csvstream/scan"
)

// projector turns array rows into keyed records once the header row
// has been consumed.
type projector struct {
	fields  []string
	renamed map[string]string
}

// newProjector deduplicates the header row. The first occurrence of a
// name keeps it; later occurrences get the smallest _N suffix not yet
// taken by the growing set.
func newProjector(header []string) *projector {
	var (
		p    = projector{fields: make([]string, 0, len(header))}
		seen = hashset.New()
	)

	for _, name := range header {
		if !seen.Contains(name) {
			seen.Add(name)
			p.fields = append(p.fields, name)
			continue
		}

		for i := 1; ; i++ {
			unique := fmt.Sprintf("%s_%d", name, i)
			if seen.Contains(unique) {
				continue
			}

			seen.Add(unique)
			p.fields = append(p.fields, unique)

			if p.renamed == nil {
				p.renamed = make(map[string]string)
			}
			p.renamed[unique] = name

			break
		}
	}

	return &p
}

// project maps row onto the header names. A field-count mismatch is
// reported against dataRow, the row's index among emitted data rows.
// A structurally empty row projects to a record with every header
// empty and no error.
func (p *projector) project(row []string, dataRow int) (Record, *scan.ParseError) {
	rec := make(Record, len(p.fields))

	if len(row) == 1 && row[0] == "" {
		for _, f := range p.fields {
			rec[f] = ""
		}

		return rec, nil
	}

	n := len(row)
	if n > len(p.fields) {
		n = len(p.fields)
	}

	for i := 0; i < n; i++ {
		rec[p.fields[i]] = row[i]
	}

	switch {
	case len(row) < len(p.fields):
		err := fieldMismatch(scan.TooFewFields, dataRow,
			fmt.Sprintf("too few fields: expected %d fields but parsed %d", len(p.fields), len(row)))
		return rec, &err
	case len(row) > len(p.fields):
		rec[ExtraFieldsKey] = append([]string(nil), row[len(p.fields):]...)
		err := fieldMismatch(scan.TooManyFields, dataRow,
			fmt.Sprintf("too many fields: expected %d fields but parsed %d", len(p.fields), len(row)))
		return rec, &err
	}

	return rec, nil
}

func fieldMismatch(code scan.ErrorCode, row int, msg string) scan.ParseError {
	return scan.ParseError{
		Type:    scan.FieldMismatch,
		Code:    code,
		Message: msg,
		Row:     row,
		Index:   -1,
	}
}
