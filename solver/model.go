package solver

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
)

type constrEntry struct {
	row       Row
	committed bool
	removing  bool
	removed   bool
}

// Model is a mixed integer linear program under construction. Additions and
// removals are staged and only become part of the model on Update, the way
// commercial engines integrate pending changes. A Model is not safe for
// concurrent use; a copy obtained through Relax is independent of it.
type Model struct {
	name        string
	backend     Backend
	ownsBackend bool
	sense       ObjectiveSense

	vars      []VarSpec
	committed int
	constrs   []constrEntry

	result   Result
	solved   bool
	disposed bool
}

// Forker is implemented by backends that can hand out an independent
// instance of themselves, so that a relaxed copy owns its own engine.
type Forker interface {
	Fork() Backend
}

// NewModel creates an empty model that will be optimized by backend. The
// model owns the backend and closes it on Dispose.
func NewModel(name string, backend Backend) *Model {
	return &Model{name: name, backend: backend, ownsBackend: true}
}

// Name is the model name.
func (m *Model) Name() string { return m.name }

// Backend is the engine optimizing the model.
func (m *Model) Backend() Backend { return m.backend }

// AddVar stages a new variable. Binary variables are clamped to [0, 1].
func (m *Model) AddVar(lb, ub, obj float64, vtype VarType, name string) (Var, error) {
	if m.disposed {
		return Var{}, ErrDisposed
	}
	if vtype == Binary {
		lb, ub = math.Max(lb, 0), math.Min(ub, 1)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsInf(lb, 1) || math.IsInf(ub, -1) || lb > ub {
		return Var{}, fmt.Errorf("%w: %s in [%g, %g]", ErrInvalidBounds, name, lb, ub)
	}
	if name == "" {
		name = fmt.Sprintf("C%d", len(m.vars))
	}
	m.vars = append(m.vars, VarSpec{Name: name, LB: lb, UB: ub, Obj: obj, Type: vtype})
	return Var{ref: len(m.vars)}, nil
}

// AddConstr stages the named constraint lhs sense rhs. Every variable it
// references must already be committed.
func (m *Model) AddConstr(lhs *LinExpr, sense Sense, rhs *LinExpr, name string) (Constr, error) {
	if m.disposed {
		return Constr{}, ErrDisposed
	}
	if lhs == nil {
		lhs = NewLinExpr()
	}
	if rhs == nil {
		rhs = NewLinExpr()
	}
	for _, e := range []*LinExpr{lhs, rhs} {
		for _, t := range e.terms {
			if err := m.checkVar(t.Var); err != nil {
				return Constr{}, fmt.Errorf("constraint %s: %w", name, err)
			}
		}
	}
	if name == "" {
		name = fmt.Sprintf("R%d", len(m.constrs))
	}

	coefs, constant := normalize(lhs, rhs)
	if !finite(constant) {
		return Constr{}, fmt.Errorf("%w: %s rhs %g", ErrInvalidCoefficient, name, constant)
	}
	for _, c := range coefs {
		if !finite(c.Value) {
			return Constr{}, fmt.Errorf("%w: %s coefficient %g of %s", ErrInvalidCoefficient, name, c.Value, m.vars[c.Var].Name)
		}
	}
	m.constrs = append(m.constrs, constrEntry{row: Row{Name: name, Coefs: coefs, Sense: sense, RHS: constant}})
	return Constr{ref: len(m.constrs)}, nil
}

// RemoveConstr stages the removal of c.
func (m *Model) RemoveConstr(c Constr) error {
	if m.disposed {
		return ErrDisposed
	}
	if !c.Valid() || c.ref > len(m.constrs) {
		return ErrUnknownConstr
	}
	e := &m.constrs[c.ref-1]
	if e.removed || e.removing {
		return fmt.Errorf("%w: %s already removed", ErrUnknownConstr, e.row.Name)
	}
	e.removing = true
	return nil
}

// SetObjectiveSense sets the optimization direction.
func (m *Model) SetObjectiveSense(sense ObjectiveSense) error {
	if m.disposed {
		return ErrDisposed
	}
	m.sense = sense
	return nil
}

// Update commits every staged addition and removal.
func (m *Model) Update() error {
	if m.disposed {
		return ErrDisposed
	}
	m.committed = len(m.vars)
	for i := range m.constrs {
		e := &m.constrs[i]
		e.committed = true
		if e.removing {
			e.removing = false
			e.removed = true
		}
	}
	return nil
}

// NumVars is the number of committed variables.
func (m *Model) NumVars() int { return m.committed }

// NumConstrs is the number of committed, live constraints.
func (m *Model) NumConstrs() int {
	n := 0
	for _, e := range m.constrs {
		if e.committed && !e.removed {
			n++
		}
	}
	return n
}

// ConstrName returns the name c was added with.
func (m *Model) ConstrName(c Constr) (string, error) {
	if m.disposed {
		return "", ErrDisposed
	}
	if !c.Valid() || c.ref > len(m.constrs) {
		return "", ErrUnknownConstr
	}
	return m.constrs[c.ref-1].row.Name, nil
}

// VarName returns the name v was added with.
func (m *Model) VarName(v Var) (string, error) {
	if m.disposed {
		return "", ErrDisposed
	}
	if !v.Valid() || v.Index() >= len(m.vars) {
		return "", ErrUnknownVar
	}
	return m.vars[v.Index()].Name, nil
}

// Optimize commits pending changes and hands a snapshot to the backend.
// Errors from the backend are returned as-is; the model keeps no solution
// in that case.
func (m *Model) Optimize(ctx context.Context) (Status, error) {
	if m.disposed {
		return Unsolved, ErrDisposed
	}
	if err := m.Update(); err != nil {
		return Unsolved, err
	}
	m.solved = false
	m.result = Result{}

	res, err := m.backend.Solve(ctx, m.problem())
	if err != nil {
		return Unsolved, fmt.Errorf("%s: %w", m.backend.Name(), err)
	}
	if res.Status.HasValues() && len(res.Values) != len(m.vars) {
		return Unsolved, fmt.Errorf("%s: returned %d values for %d variables", m.backend.Name(), len(res.Values), len(m.vars))
	}
	m.result = res
	m.solved = true
	return res.Status, nil
}

// Result is the last optimization result.
func (m *Model) Result() (Result, error) {
	if m.disposed {
		return Result{}, ErrDisposed
	}
	if !m.solved {
		return Result{}, ErrNoSolution
	}
	return m.result, nil
}

// ObjVal is the objective value of the current solution.
func (m *Model) ObjVal() (float64, error) {
	if m.disposed {
		return 0, ErrDisposed
	}
	if !m.solved || !m.result.Status.HasValues() {
		return 0, ErrNoSolution
	}
	return m.result.Objective, nil
}

// Value is the value of v in the current solution.
func (m *Model) Value(v Var) (float64, error) {
	if m.disposed {
		return 0, ErrDisposed
	}
	if !v.Valid() || v.Index() >= len(m.vars) {
		return 0, ErrUnknownVar
	}
	if !m.solved || !m.result.Status.HasValues() {
		return 0, ErrNoSolution
	}
	return m.result.Values[v.Index()], nil
}

// Relax returns an independent copy of the committed model in which every
// variable is continuous. Variable and constraint handles of m are valid on
// the copy.
func (m *Model) Relax() (*Model, error) {
	if m.disposed {
		return nil, ErrDisposed
	}
	if err := m.Update(); err != nil {
		return nil, err
	}

	cp := &Model{
		name:      m.name,
		backend:   m.backend,
		sense:     m.sense,
		vars:      make([]VarSpec, len(m.vars)),
		committed: m.committed,
		constrs:   make([]constrEntry, len(m.constrs)),
	}
	if f, ok := m.backend.(Forker); ok {
		cp.backend = f.Fork()
		cp.ownsBackend = true
	}
	copy(cp.vars, m.vars)
	for i := range cp.vars {
		cp.vars[i].Type = Continuous
	}
	for i, e := range m.constrs {
		e.row.Coefs = append([]Coef(nil), e.row.Coefs...)
		cp.constrs[i] = e
	}
	return cp, nil
}

// Write serializes the model (".lp") or its current solution (".sol") to
// path.
func (m *Model) Write(path string) error {
	if m.disposed {
		return ErrDisposed
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lp":
		if err := m.Update(); err != nil {
			return err
		}
		p := m.problem()
		return writeFile(path, func(out io.Writer) error { return writeLP(out, p) })
	case ".sol":
		if !m.solved || !m.result.Status.HasValues() {
			return ErrNoSolution
		}
		return writeFile(path, func(out io.Writer) error {
			return writeSolution(out, m.name, m.vars[:len(m.result.Values)], m.result)
		})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Dispose releases the backend. It is safe to call more than once; only the
// first call releases anything. Every other operation fails afterwards.
func (m *Model) Dispose() error {
	if m.disposed {
		return nil
	}
	m.disposed = true
	m.vars, m.constrs, m.result = nil, nil, Result{}
	if m.ownsBackend && m.backend != nil {
		return m.backend.Close()
	}
	return nil
}

func (m *Model) checkVar(v Var) error {
	if !v.Valid() || v.Index() >= len(m.vars) {
		return ErrUnknownVar
	}
	if v.Index() >= m.committed {
		return fmt.Errorf("%w: %s", ErrUncommittedVar, m.vars[v.Index()].Name)
	}
	return nil
}

// problem snapshots the committed part of the model.
func (m *Model) problem() *Problem {
	p := &Problem{
		Name:     m.name,
		Maximize: m.sense == Maximize,
		Vars:     make([]VarSpec, m.committed),
		Rows:     make([]Row, 0, len(m.constrs)),
	}
	copy(p.Vars, m.vars[:m.committed])
	for _, e := range m.constrs {
		if e.committed && !e.removed {
			p.Rows = append(p.Rows, e.row)
		}
	}
	return p
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
