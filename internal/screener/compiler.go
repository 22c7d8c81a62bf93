package screener

import "strings"

// Compile turns criteria into a predicate. Criteria on the same operand form
// one group: all-numeric groups are intersected, any other group is a union.
// Groups on different operands are always intersected. An empty input yields a
// match-all predicate.
func Compile(criteria []Criterion) (*Predicate, error) {
	if len(criteria) == 0 {
		return &Predicate{}, nil
	}

	type group struct {
		leaves     []Node
		allNumeric bool
	}
	order := make([]string, 0, len(criteria))
	groups := make(map[string]*group, len(criteria))

	for i, c := range criteria {
		leaf, err := compileLeaf(i, c)
		if err != nil {
			return nil, err
		}
		name := leaf.Operand.Name
		g, ok := groups[name]
		if !ok {
			g = &group{allNumeric: true}
			groups[name] = g
			order = append(order, name)
		}
		g.leaves = append(g.leaves, leaf)
		if c.FilterType != FilterNumeric {
			g.allNumeric = false
		}
	}

	root := &Group{Conj: ConjAnd, Children: make([]Node, 0, len(order))}
	for _, name := range order {
		g := groups[name]
		if len(g.leaves) == 1 {
			root.Children = append(root.Children, g.leaves[0])
			continue
		}
		conj := ConjOr
		if g.allNumeric {
			conj = ConjAnd
		}
		root.Children = append(root.Children, &Group{Conj: conj, Children: g.leaves})
	}
	return &Predicate{root: root}, nil
}

func compileLeaf(index int, c Criterion) (Leaf, error) {
	operand, ok := LookupOperand(c.Operand)
	if !ok {
		return Leaf{}, newFilterError(index, c.Operand, "unknown operand")
	}
	leaf := Leaf{Operand: operand, Operator: c.Operator}

	switch c.FilterType {
	case FilterNumeric:
		if operand.Kind != KindNumeric {
			return Leaf{}, newFilterError(index, c.Operand, "numeric filter on a text field")
		}
		return compileNumeric(index, c, leaf)
	case FilterCategorical, FilterString:
		if operand.Kind != KindString {
			return Leaf{}, newFilterError(index, c.Operand, "%s filter on a numeric field", c.FilterType)
		}
		return compileText(index, c, leaf)
	default:
		return Leaf{}, newFilterError(index, c.Operand, "unsupported filter_type %q", c.FilterType)
	}
}

func compileNumeric(index int, c Criterion, leaf Leaf) (Leaf, error) {
	switch c.Operator {
	case OpEquals, OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		n, ok := toFloat(c.Value)
		if !ok {
			return Leaf{}, newFilterError(index, c.Operand, "value must be numeric")
		}
		leaf.Number = n
	case OpBetween:
		low, high, err := toRange(c.Value)
		if err != nil {
			return Leaf{}, newFilterError(index, c.Operand, "%s", err.Error())
		}
		leaf.Low, leaf.High = low, high
	case OpContains:
		return Leaf{}, newFilterError(index, c.Operand, "contains is not supported on numeric filters")
	default:
		return Leaf{}, newFilterError(index, c.Operand, "unsupported operator %q", c.Operator)
	}
	return leaf, nil
}

func compileText(index int, c Criterion, leaf Leaf) (Leaf, error) {
	text, ok := c.Value.(string)
	if !ok {
		return Leaf{}, newFilterError(index, c.Operand, "value must be a string")
	}
	leaf.Text = text

	switch c.Operator {
	case OpEquals:
	case OpContains:
		if strings.Contains(text, "*") {
			leaf.Wildcard = true
			leaf.Segments = strings.Split(text, "*")
		}
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual, OpBetween:
		return Leaf{}, newFilterError(index, c.Operand, "%s requires a numeric filter", c.Operator)
	default:
		return Leaf{}, newFilterError(index, c.Operand, "unsupported operator %q", c.Operator)
	}
	return leaf, nil
}
