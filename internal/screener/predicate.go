package screener

import "strings"

// Node is a node of a compiled predicate tree.
type Node interface {
	writeSQL(b *sqlBuilder)
	visit(fn func(Leaf))
}

// Conj is the connective of a Group.
type Conj string

const (
	ConjAnd Conj = "AND"
	ConjOr  Conj = "OR"
)

// Group combines its children with Conj.
type Group struct {
	Conj     Conj
	Children []Node
}

func (g *Group) writeSQL(b *sqlBuilder) {
	b.sb.WriteString("(")
	for i, c := range g.Children {
		if i > 0 {
			b.sb.WriteString(" " + string(g.Conj) + " ")
		}
		c.writeSQL(b)
	}
	b.sb.WriteString(")")
}

func (g *Group) visit(fn func(Leaf)) {
	for _, c := range g.Children {
		c.visit(fn)
	}
}

// Leaf is a single comparison against one operand.
type Leaf struct {
	Operand  Operand
	Operator Operator
	// Number is the operand of numeric comparisons, Low/High of between.
	Number float64
	Low    float64
	High   float64
	// Text is the operand of text comparisons. For wildcard matches Segments
	// holds the literal pieces between '*'.
	Text     string
	Wildcard bool
	Segments []string
}

func (l Leaf) writeSQL(b *sqlBuilder) {
	col := l.Operand.Column
	switch l.Operator {
	case OpEquals:
		if l.Operand.Kind == KindNumeric {
			b.write(col+" = "+numericParam, l.Number)
		} else {
			b.write("LOWER("+col+") = ?", strings.ToLower(l.Text))
		}
	case OpGreaterThan:
		b.write(col+" > "+numericParam, l.Number)
	case OpLessThan:
		b.write(col+" < "+numericParam, l.Number)
	case OpGreaterThanOrEqual:
		b.write(col+" >= "+numericParam, l.Number)
	case OpLessThanOrEqual:
		b.write(col+" <= "+numericParam, l.Number)
	case OpBetween:
		b.write(col+" BETWEEN "+numericParam+" AND "+numericParam, l.Low, l.High)
	case OpContains:
		if l.Wildcard {
			escaped := make([]string, len(l.Segments))
			for i, seg := range l.Segments {
				escaped[i] = escapeLike(seg)
			}
			b.write(col+` ILIKE ? ESCAPE '\'`, strings.Join(escaped, "%"))
		} else {
			b.write(col+` ILIKE ? ESCAPE '\'`, "%"+escapeLike(l.Text)+"%")
		}
	}
}

func (l Leaf) visit(fn func(Leaf)) {
	fn(l)
}

// numericParam binds a filter value as double precision so integer columns
// such as bars.close compare against fractional values.
const numericParam = "CAST(? AS double precision)"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type sqlBuilder struct {
	sb   strings.Builder
	args []interface{}
}

func (b *sqlBuilder) write(sql string, args ...interface{}) {
	b.sb.WriteString(sql)
	b.args = append(b.args, args...)
}

// Predicate is a compiled filter. A Predicate with a nil root matches every
// row.
type Predicate struct {
	root Node
}

func (p *Predicate) Root() Node {
	return p.root
}

func (p *Predicate) MatchAll() bool {
	return p.root == nil
}

// SQL renders the predicate as a WHERE fragment with '?' placeholders. It
// returns an empty string for a match-all predicate.
func (p *Predicate) SQL() (string, []interface{}) {
	if p.root == nil {
		return "", nil
	}
	b := &sqlBuilder{}
	p.root.writeSQL(b)
	return b.sb.String(), b.args
}

// NeedsLatestPrice reports whether any leaf reads the latest bar close.
func (p *Predicate) NeedsLatestPrice() bool {
	if p.root == nil {
		return false
	}
	needs := false
	p.root.visit(func(l Leaf) {
		if l.Operand.LatestBar {
			needs = true
		}
	})
	return needs
}
