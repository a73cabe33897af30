package query

import "fmt"

// ParseError is returned by Parse (and the lexer it drives) when query
// text is malformed. Pos is the rune offset into the original text
// where the problem was detected, so a caller can point at the exact
// spot instead of just printing a message (spec §4.4: "parse failure
// returns a structured error with position").
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query: %s (at position %d)", e.Msg, e.Pos)
}
