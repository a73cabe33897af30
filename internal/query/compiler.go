package query

import "strings"

// Compile translates an AST into a SQL predicate over the `files` table
// (aliased `f`), plus its positional arguments. Each leaf term becomes a
// correlated EXISTS against an FTS mirror table (`fts_files` for path
// and attribute text, `fts_tags` for tag-path text, since the two use
// different tokenizers — schema.go), which lets NOT be expressed at any
// nesting depth (including as the sole term) without running into
// FTS5's MATCH operator being binary-only for NOT. A bare Word/Phrase
// term checks both mirrors so free-text search still reaches tags.
//
// This is the "AST -> FTS match expression plus SQL predicate" split
// spec §4.4 calls for: each leaf's MATCH expression is the FTS half,
// and the EXISTS/AND/OR/NOT scaffolding around it is the SQL half.
func Compile(n Node) (string, []any) {
	switch v := n.(type) {
	case And:
		ls, la := Compile(v.Left)
		rs, ra := Compile(v.Right)
		return "(" + ls + ") AND (" + rs + ")", append(la, ra...)
	case Or:
		ls, la := Compile(v.Left)
		rs, ra := Compile(v.Right)
		return "(" + ls + ") OR (" + rs + ")", append(la, ra...)
	case Not:
		is, ia := Compile(v.Inner)
		return "NOT (" + is + ")", ia
	case Word:
		return existsClause() + " OR " + existsTagsClause(), []any{ftsQuote(v.Text), ftsQuote(v.Text)}
	case Phrase:
		return existsClause() + " OR " + existsTagsClause(), []any{ftsQuote(v.Text), ftsQuote(v.Text)}
	case TagTerm:
		return existsTagsClause(), []any{"tags_text : " + ftsQuote(v.Path)}
	case AttrTerm:
		return existsClause(), []any{"attrs_text : " + ftsQuote(v.Key + "=" + v.Value)}
	default:
		return "0", nil
	}
}

func existsClause() string {
	return "EXISTS (SELECT 1 FROM fts_files ff WHERE ff.file_id = f.id AND ff MATCH ?)"
}

// existsTagsClause targets fts_tags rather than fts_files: fts_tags'
// tokenizer keeps a full tag path as one token (schema.go), so the
// quoted match below is a single-token exact match, not a multi-word
// phrase/adjacency match.
func existsTagsClause() string {
	return "EXISTS (SELECT 1 FROM fts_tags ff WHERE ff.file_id = f.id AND ff MATCH ?)"
}

// ftsQuote wraps text in FTS5 phrase-query double quotes, doubling any
// embedded quote, so arbitrary user text (hyphens, punctuation, other
// FTS5 operator characters) is always treated as a literal token match
// rather than being parsed as FTS5 query syntax.
func ftsQuote(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}
