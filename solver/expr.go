package solver

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// LinExpr is a container for a linear expression: a weighted sum of
// variables plus a constant offset.
type LinExpr struct {
	terms    []Term
	constant float64
}

// NewLinExpr creates a new empty LinExpr.
func NewLinExpr() *LinExpr {
	return &LinExpr{}
}

// NewConstant creates a LinExpr holding only the constant c.
func NewConstant(c float64) *LinExpr {
	return &LinExpr{constant: c}
}

// Sum creates a LinExpr adding every variable with coefficient 1.
func Sum(vars ...Var) *LinExpr {
	e := &LinExpr{terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.AddTerm(1, v)
	}
	return e
}

// AddTerm adds coef*v to the expression and returns it for chaining.
func (e *LinExpr) AddTerm(coef float64, v Var) *LinExpr {
	e.terms = append(e.terms, Term{Var: v, Coef: coef})
	return e
}

// AddConstant adds c to the constant offset.
func (e *LinExpr) AddConstant(c float64) *LinExpr {
	e.constant += c
	return e
}

// AddExpr adds coef*other to the expression.
func (e *LinExpr) AddExpr(coef float64, other *LinExpr) *LinExpr {
	if other == nil {
		return e
	}
	for _, t := range other.terms {
		e.terms = append(e.terms, Term{Var: t.Var, Coef: coef * t.Coef})
	}
	e.constant += coef * other.constant
	return e
}

// Terms returns a copy of the terms, duplicates included.
func (e *LinExpr) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

// Constant returns the constant offset.
func (e *LinExpr) Constant() float64 { return e.constant }

// Len is the number of terms, duplicates included.
func (e *LinExpr) Len() int { return len(e.terms) }

// normalize moves everything of lhs-rhs onto the left and merges duplicate
// variables. Terms that cancel out are dropped; the returned rhs is the
// negated constant.
func normalize(lhs, rhs *LinExpr) ([]Coef, float64) {
	merged := make(map[int]float64)
	order := make([]int, 0, lhs.Len()+rhs.Len())
	add := func(t Term, sign float64) {
		idx := t.Var.Index()
		if _, ok := merged[idx]; !ok {
			order = append(order, idx)
		}
		merged[idx] += sign * t.Coef
	}
	for _, t := range lhs.terms {
		add(t, 1)
	}
	for _, t := range rhs.terms {
		add(t, -1)
	}

	coefs := make([]Coef, 0, len(order))
	for _, idx := range order {
		if c := merged[idx]; c != 0 {
			coefs = append(coefs, Coef{Var: idx, Value: c})
		}
	}
	return coefs, rhs.constant - lhs.constant
}
