package scan

import (
	"reflect"
	"sync/atomic"
	"testing"
)

func mustScanner(t *testing.T, cfg Config) *Scanner {
	t.Helper()

	s, err := New(cfg, ",")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

func TestScanBasics(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		input  string
		rows   [][]string
		cursor int
	}{
		{
			name:   "two rows",
			input:  "A,b,c\nd,E,f",
			rows:   [][]string{{"A", "b", "c"}, {"d", "E", "f"}},
			cursor: 11,
		},
		{
			name:   "doubled quotes",
			input:  `A,"B""B""B",C`,
			rows:   [][]string{{"A", `B"B"B`, "C"}},
			cursor: 13,
		},
		{
			name:   "trailing newline yields empty row",
			input:  "a,b\n",
			rows:   [][]string{{"a", "b"}, {""}},
			cursor: 4,
		},
		{
			name:   "blank line between rows",
			input:  "a\n\nb",
			rows:   [][]string{{"a"}, {""}, {"b"}},
			cursor: 4,
		},
		{
			name:   "crlf rows",
			input:  "a,b\r\nc,d",
			rows:   [][]string{{"a", "b"}, {"c", "d"}},
			cursor: 8,
		},
		{
			name:   "bare cr rows",
			input:  "a\rb\rc",
			rows:   [][]string{{"a"}, {"b"}, {"c"}},
			cursor: 5,
		},
		{
			name:   "quoted field with embedded newline and delimiter",
			input:  "a,\"b,c\nd\",e",
			rows:   [][]string{{"a", "b,c\nd", "e"}},
			cursor: 11,
		},
		{
			name:   "stray quote inside unquoted field is literal",
			input:  `a,b"c,d`,
			rows:   [][]string{{"a", `b"c`, "d"}},
			cursor: 7,
		},
		{
			name:   "spaces between closing quote and delimiter",
			input:  `"a"  ,b`,
			rows:   [][]string{{"a", "b"}},
			cursor: 7,
		},
		{
			name:   "comment lines skipped",
			cfg:    Config{Comment: "#"},
			input:  "#one\na,b\n#two\nc,d",
			rows:   [][]string{{"a", "b"}, {"c", "d"}},
			cursor: 17,
		},
		{
			name:   "comment to end of input",
			cfg:    Config{Comment: "#"},
			input:  "a,b\n#tail",
			rows:   [][]string{{"a", "b"}},
			cursor: 9,
		},
		{
			name:   "custom escape character",
			cfg:    Config{Escape: `\`},
			input:  `a,"b\"c"`,
			rows:   [][]string{{"a", `b"c`}},
			cursor: 8,
		},
		{
			name:   "multi-character delimiter",
			cfg:    Config{Delimiter: "||"},
			input:  "a||b||c\nd||e||f",
			rows:   [][]string{{"a", "b", "c"}, {"d", "e", "f"}},
			cursor: 15,
		},
		{
			name:   "tab delimiter",
			cfg:    Config{Delimiter: "\t"},
			input:  "a\tb\nc\td",
			rows:   [][]string{{"a", "b"}, {"c", "d"}},
			cursor: 7,
		},
		{
			name:   "empty input",
			input:  "",
			rows:   nil,
			cursor: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := mustScanner(t, test.cfg)

			res := s.Scan(test.input, 0, false)
			if len(res.Errors) != 0 {
				t.Fatalf("unexpected errors: %v", res.Errors)
			}
			if !reflect.DeepEqual(res.Rows, test.rows) {
				t.Errorf("rows = %q but expected %q", res.Rows, test.rows)
			}
			if res.Cursor != test.cursor {
				t.Errorf("cursor = %d but expected %d", res.Cursor, test.cursor)
			}
		})
	}
}

func TestScanMissingQuotes(t *testing.T) {
	s := mustScanner(t, Config{})

	res := s.Scan("a,\"b,c\nd,e,f", 0, false)

	want := [][]string{{"a", "b,c\nd,e,f"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("rows = %q but expected %q", res.Rows, want)
	}

	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}

	e := res.Errors[0]
	if e.Type != Quotes || e.Code != MissingQuotes {
		t.Errorf("error = %s/%s but expected Quotes/MissingQuotes", e.Type, e.Code)
	}
	if e.Row != 0 || e.Index != 3 {
		t.Errorf("error at row %d index %d but expected row 0 index 3", e.Row, e.Index)
	}
}

func TestScanInvalidQuotes(t *testing.T) {
	s := mustScanner(t, Config{})

	res := s.Scan(`a,"b"x`, 0, false)

	// The malformed closing quote stays literal and the field never
	// terminates, so both defects are reported.
	if len(res.Errors) != 2 {
		t.Fatalf("expected two errors, got %v", res.Errors)
	}
	if res.Errors[0].Code != InvalidQuotes || res.Errors[1].Code != MissingQuotes {
		t.Errorf("errors = %v but expected InvalidQuotes then MissingQuotes", res.Errors)
	}
	if res.Errors[0].Index != 4 {
		t.Errorf("InvalidQuotes index = %d but expected 4", res.Errors[0].Index)
	}

	want := [][]string{{"a", `b"x`}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("rows = %q but expected %q", res.Rows, want)
	}
}

func TestScanIgnoreLastRow(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		rows   [][]string
		cursor int
	}{
		{"mid row", "a,b\nc,d", [][]string{{"a", "b"}}, 4},
		{"at boundary", "a,b\n", [][]string{{"a", "b"}}, 4},
		{"open quote", `a,"b`, nil, 0},
		{"split crlf", "a\r", nil, 0},
		{"lone partial field", "abc", nil, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := mustScanner(t, Config{})

			res := s.Scan(test.input, 0, true)
			if !reflect.DeepEqual(res.Rows, test.rows) {
				t.Errorf("rows = %q but expected %q", res.Rows, test.rows)
			}
			if res.Cursor != test.cursor {
				t.Errorf("cursor = %d but expected %d", res.Cursor, test.cursor)
			}
			if len(res.Errors) != 0 {
				t.Errorf("withheld rows must not leak errors, got %v", res.Errors)
			}
		})
	}
}

func TestScanNewlineLockPersists(t *testing.T) {
	s := mustScanner(t, Config{})

	res := s.Scan("a\r", 0, true)
	if len(res.Rows) != 0 || res.Cursor != 0 {
		t.Fatalf("split CR must withhold the row, got %v cursor %d", res.Rows, res.Cursor)
	}

	res = s.Scan("a\r\nb", 0, false)
	want := [][]string{{"a"}, {"b"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("rows = %q but expected %q", res.Rows, want)
	}
	if s.Newline() != "\r\n" {
		t.Errorf("newline = %q but expected CRLF", s.Newline())
	}
}

func TestScanHalt(t *testing.T) {
	var halt atomic.Bool
	halt.Store(true)

	s := mustScanner(t, Config{Halt: &halt})

	res := s.Scan("a\nb\nc\n", 0, false)
	if !res.Halted {
		t.Fatal("expected halted result")
	}
	if len(res.Rows) != 1 {
		t.Errorf("halt must stop at the first row boundary, got %q", res.Rows)
	}
	if res.Cursor != 2 {
		t.Errorf("cursor = %d but expected 2", res.Cursor)
	}
}

func TestScanChunkedMatchesWhole(t *testing.T) {
	inputs := []string{
		"A,b,c\nd,E,f",
		"a,\"b\nc\",d\ne,f,g\n",
		"#c\r\nx,y\r\nw,\"z\"\"z\"\r\n",
		"one,two\nthree\nfour,five,six",
		"\"padded\"  ,x\n\"q\",y",
	}

	for _, input := range inputs {
		whole := mustScanner(t, Config{Comment: "#"})
		want := whole.Scan(input, 0, false)

		for size := 1; size <= len(input); size++ {
			var (
				chunked = mustScanner(t, Config{Comment: "#"})
				got     Result
				tail    string
				base    int
			)

			for at := 0; at < len(input); at += size {
				end := at + size
				if end > len(input) {
					end = len(input)
				}

				buf := tail + input[at:end]
				res := chunked.Scan(buf, base, end != len(input))

				got.Rows = append(got.Rows, res.Rows...)
				got.Errors = append(got.Errors, res.Errors...)
				got.Cursor = res.Cursor

				tail = buf[res.Cursor-base:]
				base = res.Cursor
			}

			if !reflect.DeepEqual(got.Rows, want.Rows) {
				t.Errorf("chunk size %d: rows = %q but expected %q", size, got.Rows, want.Rows)
			}
			if len(got.Errors) != len(want.Errors) {
				t.Errorf("chunk size %d: errors = %v but expected %v", size, got.Errors, want.Errors)
			}
			if got.Cursor != want.Cursor {
				t.Errorf("chunk size %d: cursor = %d but expected %d", size, got.Cursor, want.Cursor)
			}
		}
	}
}

func TestScanCursorMonotonic(t *testing.T) {
	s := mustScanner(t, Config{})

	input := "a,b\nc,d\ne,f\n"
	prev := 0

	for at := 0; at < len(input); at += 3 {
		end := at + 3
		if end > len(input) {
			end = len(input)
		}

		res := s.Scan(input[prev:end], prev, end != len(input))
		if res.Cursor < prev {
			t.Fatalf("cursor went backwards: %d < %d", res.Cursor, prev)
		}
		prev = res.Cursor
	}

	if prev != len(input) {
		t.Errorf("final cursor = %d but expected %d", prev, len(input))
	}
}

func TestDropLines(t *testing.T) {
	tests := []struct {
		s         string
		n         int
		newline   string
		final     bool
		rest      string
		remaining int
	}{
		{"a\nb\nc", 1, "", false, "b\nc", 0},
		{"a\nb\nc", 2, "", false, "c", 0},
		{"a\r\nb", 1, "", false, "b", 0},
		{"a\rb", 1, "", false, "b", 0},
		{"abc", 1, "", false, "abc", 1},
		{"abc", 1, "", true, "", 0},
		{"a\r", 1, "", false, "a\r", 1},
		{"a\r", 1, "", true, "", 0},
		{"a\nb", 0, "", false, "a\nb", 0},
		{"a\r\nb\r\nc", 2, "\r\n", false, "c", 0},
		{"a\nb", 5, "", false, "b", 4},
	}

	for _, test := range tests {
		rest, remaining := DropLines(test.s, test.n, test.newline, test.final)
		if rest != test.rest || remaining != test.remaining {
			t.Errorf("DropLines(%q, %d, %q, %v) = (%q, %d) but expected (%q, %d)",
				test.s, test.n, test.newline, test.final, rest, remaining, test.rest, test.remaining)
		}
	}
}

func TestValidDelimiter(t *testing.T) {
	tests := []struct {
		d  string
		ok bool
	}{
		{",", true},
		{"||", true},
		{"\t", true},
		{"", false},
		{"\n", false},
		{"a\rb", false},
		{`"`, false},
		{"\xef\xbb\xbf", false},
	}

	for _, test := range tests {
		if ok := ValidDelimiter(test.d); ok != test.ok {
			t.Errorf("ValidDelimiter(%q) = %v but expected %v", test.d, ok, test.ok)
		}
	}
}

func TestCommentDelimiterClash(t *testing.T) {
	if _, err := New(Config{Delimiter: "#", Comment: "#"}, ","); err == nil {
		t.Error("expected an error for comment equal to delimiter")
	}
}
