// Package query implements Marlin's search DSL (spec §4.4, §6 grammar):
// tokenizing, parsing into an AST, and compiling that AST into a SQL
// predicate executed against the store's FTS mirror.
package query

// Node is one node of the parsed query AST.
type Node interface {
	isNode()
}

// And is a conjunction of two subqueries (explicit AND or implicit
// juxtaposition per the grammar's `and := unary ( ('AND'|ε) unary )*`).
type And struct{ Left, Right Node }

// Or is a disjunction of two subqueries.
type Or struct{ Left, Right Node }

// Not negates a subquery.
type Not struct{ Inner Node }

// Word is a bare full-text token matched against the FTS mirror's path,
// tag-path, or key=value text (spec §4.4).
type Word struct{ Text string }

// Phrase is an exact quoted phrase match across the mirror.
type Phrase struct{ Text string }

// TagTerm is `tag:<path>`: matches when tags_text contains path as a
// full token (prefix matching works because ancestor forms are
// materialized, spec §4.1/§4.4).
type TagTerm struct{ Path string }

// AttrTerm is `attr:<key>=<value>`: matches the literal token
// `<key>=<value>` in attrs_text.
type AttrTerm struct {
	Key   string
	Value string
}

func (And) isNode()      {}
func (Or) isNode()       {}
func (Not) isNode()      {}
func (Word) isNode()     {}
func (Phrase) isNode()   {}
func (TagTerm) isNode()  {}
func (AttrTerm) isNode() {}
