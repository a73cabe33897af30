package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyRejected(t *testing.T) {
	_, err := Parse("   ")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseBareWord(t *testing.T) {
	node, err := Parse("invoice")
	require.NoError(t, err)
	assert.Equal(t, Word{Text: "invoice"}, node)
}

func TestParsePhrase(t *testing.T) {
	node, err := Parse(`"quarterly report"`)
	require.NoError(t, err)
	assert.Equal(t, Phrase{Text: "quarterly report"}, node)
}

func TestParseTagAndAttr(t *testing.T) {
	node, err := Parse(`tag:work/invoices attr:status=paid`)
	require.NoError(t, err)
	assert.Equal(t, And{
		Left:  TagTerm{Path: "work/invoices"},
		Right: AttrTerm{Key: "status", Value: "paid"},
	}, node)
}

func TestParseImplicitAndExplicitOr(t *testing.T) {
	node, err := Parse("tag:work OR tag:home invoice")
	require.NoError(t, err)
	assert.Equal(t, Or{
		Left: TagTerm{Path: "work"},
		Right: And{
			Left:  TagTerm{Path: "home"},
			Right: Word{Text: "invoice"},
		},
	}, node)
}

func TestParseNotAndParens(t *testing.T) {
	node, err := Parse(`NOT (tag:archive OR attr:status=done)`)
	require.NoError(t, err)
	assert.Equal(t, Not{Inner: Or{
		Left:  TagTerm{Path: "archive"},
		Right: AttrTerm{Key: "status", Value: "done"},
	}}, node)
}

func TestParseUnterminatedPhrase(t *testing.T) {
	_, err := Parse(`"unterminated`)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.Pos)
}

func TestParseMalformedAttr(t *testing.T) {
	_, err := Parse("attr:noequals")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.Pos)
}

func TestParseUnbalancedParens(t *testing.T) {
	_, err := Parse("(tag:work")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 9, perr.Pos)
}

func TestCompileProducesExistsPerLeaf(t *testing.T) {
	node, err := Parse("NOT tag:archive")
	require.NoError(t, err)
	sqlText, args := Compile(node)
	assert.Contains(t, sqlText, "NOT (")
	require.Len(t, args, 1)
	assert.Equal(t, `tags_text : "archive"`, args[0])
}
