package scan

import "fmt"

type (
	// ErrorType groups parse errors by the subsystem that raised them.
	ErrorType uint8

	// ErrorCode identifies the exact defect within an ErrorType.
	ErrorCode uint8

	// ParseError describes a non-fatal defect found while parsing.
	// Parsing continues past every ParseError; callers collect them
	// alongside the emitted rows.
	ParseError struct {
		Type    ErrorType
		Code    ErrorCode
		Message string
		// Row is the zero-based index of the offending row among the
		// emitted data rows, or -1 when the error is not tied to a row.
		Row int
		// Index is the character offset within the row at which the
		// error was detected, or -1 when not applicable.
		Index int
	}
)

const (
	Quotes ErrorType = iota + 1
	Delimiter
	FieldMismatch
)

const (
	MissingQuotes ErrorCode = iota + 1
	InvalidQuotes
	UndetectableDelimiter
	TooFewFields
	TooManyFields
)

var (
	errorTypeKeys = [...]string{
		"Quotes",
		"Delimiter",
		"FieldMismatch",
	}

	errorCodeKeys = [...]string{
		"MissingQuotes",
		"InvalidQuotes",
		"UndetectableDelimiter",
		"TooFewFields",
		"TooManyFields",
	}
)

func (t ErrorType) String() string {
	if t < Quotes || t > FieldMismatch {
		return "Unknown"
	}

	return errorTypeKeys[t-1]
}

func (c ErrorCode) String() string {
	if c < MissingQuotes || c > TooManyFields {
		return "Unknown"
	}

	return errorCodeKeys[c-1]
}

func (e ParseError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s(%s) row %d: %s", e.Type, e.Code, e.Row, e.Message)
	}

	return fmt.Sprintf("%s(%s): %s", e.Type, e.Code, e.Message)
}

func missingQuotes(row, index int) ParseError {
	return ParseError{
		Type:    Quotes,
		Code:    MissingQuotes,
		Message: "quoted field unterminated",
		Row:     row,
		Index:   index,
	}
}

func invalidQuotes(row, index int) ParseError {
	return ParseError{
		Type:    Quotes,
		Code:    InvalidQuotes,
		Message: "trailing quote on quoted field is malformed",
		Row:     row,
		Index:   index,
	}
}
