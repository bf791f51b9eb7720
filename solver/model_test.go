package solver

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoBackend returns a fixed objective and the upper bound of every
// variable as its value.
type echoBackend struct {
	calls  int
	closed int
	last   *Problem
}

func (b *echoBackend) Name() string { return "echo" }

func (b *echoBackend) Solve(_ context.Context, p *Problem) (Result, error) {
	b.calls++
	b.last = p
	values := make([]float64, len(p.Vars))
	var obj float64
	for i, v := range p.Vars {
		values[i] = v.UB
		obj += v.Obj * v.UB
	}
	return Result{Status: Optimal, Objective: obj, Values: values}, nil
}

func (b *echoBackend) Close() error {
	b.closed++
	return nil
}

func TestModel_StagedAdditions(t *testing.T) {
	m := NewModel("staged", &echoBackend{})
	x, err := m.AddVar(0, 1, 1, Binary, "x")
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumVars())

	_, err = m.AddConstr(Sum(x), LessEqual, NewConstant(1), "cap")
	require.ErrorIs(t, err, ErrUncommittedVar)

	require.NoError(t, m.Update())
	assert.Equal(t, 1, m.NumVars())

	c, err := m.AddConstr(Sum(x), LessEqual, NewConstant(1), "cap")
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumConstrs())
	require.NoError(t, m.Update())
	assert.Equal(t, 1, m.NumConstrs())

	name, err := m.ConstrName(c)
	require.NoError(t, err)
	assert.Equal(t, "cap", name)
}

func TestModel_RemoveConstr(t *testing.T) {
	m := NewModel("remove", &echoBackend{})
	x, err := m.AddVar(0, 1, 0, Binary, "x")
	require.NoError(t, err)
	require.NoError(t, m.Update())

	c, err := m.AddConstr(Sum(x), Equal, NewConstant(0), "fix")
	require.NoError(t, err)
	require.NoError(t, m.Update())
	require.Equal(t, 1, m.NumConstrs())

	require.NoError(t, m.RemoveConstr(c))
	assert.Equal(t, 1, m.NumConstrs(), "removal is staged until Update")
	require.NoError(t, m.Update())
	assert.Equal(t, 0, m.NumConstrs())

	require.ErrorIs(t, m.RemoveConstr(c), ErrUnknownConstr)
	require.ErrorIs(t, m.RemoveConstr(Constr{}), ErrUnknownConstr)
}

func TestModel_InvalidVariables(t *testing.T) {
	m := NewModel("invalid", &echoBackend{})
	_, err := m.AddVar(2, 1, 0, Continuous, "bad")
	require.ErrorIs(t, err, ErrInvalidBounds)

	require.NoError(t, m.Update())
	_, err = m.AddConstr(Sum(Var{ref: 7}), Equal, nil, "foreign")
	require.ErrorIs(t, err, ErrUnknownVar)
}

func TestModel_InvalidCoefficients(t *testing.T) {
	m := NewModel("invalid", &echoBackend{})
	x, err := m.AddVar(0, 1, 0, Binary, "x")
	require.NoError(t, err)
	require.NoError(t, m.Update())

	_, err = m.AddConstr(NewLinExpr().AddTerm(math.Inf(1), x), LessEqual, NewConstant(1), "inf")
	require.ErrorIs(t, err, ErrInvalidCoefficient)
	_, err = m.AddConstr(Sum(x), LessEqual, NewConstant(math.NaN()), "nan")
	require.ErrorIs(t, err, ErrInvalidCoefficient)
	assert.Zero(t, m.NumConstrs())
}

func TestModel_OptimizeAndQuery(t *testing.T) {
	b := &echoBackend{}
	m := NewModel("query", b)
	x, err := m.AddVar(0, 1, 3, Binary, "x")
	require.NoError(t, err)
	z, err := m.AddVar(0, 5, 0, Continuous, "z")
	require.NoError(t, err)

	_, err = m.Value(x)
	require.ErrorIs(t, err, ErrNoSolution)

	require.NoError(t, m.SetObjectiveSense(Maximize))
	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	assert.True(t, b.last.Maximize)

	obj, err := m.ObjVal()
	require.NoError(t, err)
	assert.InDelta(t, 3, obj, 1e-9)

	zv, err := m.Value(z)
	require.NoError(t, err)
	assert.InDelta(t, 5, zv, 1e-9)

	name, err := m.VarName(z)
	require.NoError(t, err)
	assert.Equal(t, "z", name)
}

func TestModel_NormalizesBothSides(t *testing.T) {
	b := &echoBackend{}
	m := NewModel("normalize", b)
	x, _ := m.AddVar(0, 1, 0, Binary, "x")
	y, _ := m.AddVar(0, 1, 0, Binary, "y")
	require.NoError(t, m.Update())

	// 2x + y + 3 = x + 4  ->  x + y = 1
	lhs := NewLinExpr().AddTerm(2, x).AddTerm(1, y).AddConstant(3)
	rhs := NewLinExpr().AddTerm(1, x).AddConstant(4)
	_, err := m.AddConstr(lhs, Equal, rhs, "n")
	require.NoError(t, err)

	_, err = m.Optimize(context.Background())
	require.NoError(t, err)
	require.Len(t, b.last.Rows, 1)
	row := b.last.Rows[0]
	assert.Equal(t, []Coef{{Var: 0, Value: 1}, {Var: 1, Value: 1}}, row.Coefs)
	assert.InDelta(t, 1, row.RHS, 1e-12)
}

func TestModel_RelaxIsIndependent(t *testing.T) {
	m := NewModel("relax", &echoBackend{})
	x, _ := m.AddVar(0, 1, 1, Binary, "x")
	require.NoError(t, m.Update())
	c, err := m.AddConstr(Sum(x), LessEqual, NewConstant(1), "cap")
	require.NoError(t, err)

	r, err := m.Relax()
	require.NoError(t, err)
	assert.Equal(t, m.NumConstrs(), r.NumConstrs())

	require.NoError(t, r.RemoveConstr(c))
	require.NoError(t, r.Update())
	assert.Equal(t, 0, r.NumConstrs())
	assert.Equal(t, 1, m.NumConstrs())

	_, err = r.Optimize(context.Background())
	require.NoError(t, err)
	v, err := r.Value(x)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-9)
	_, err = m.Value(x)
	require.ErrorIs(t, err, ErrNoSolution)
}

func TestModel_DisposeOnce(t *testing.T) {
	b := &echoBackend{}
	m := NewModel("dispose", b)
	x, _ := m.AddVar(0, 1, 0, Binary, "x")

	require.NoError(t, m.Dispose())
	require.NoError(t, m.Dispose())
	assert.Equal(t, 1, b.closed)

	_, err := m.AddVar(0, 1, 0, Binary, "y")
	require.ErrorIs(t, err, ErrDisposed)
	_, err = m.Value(x)
	require.ErrorIs(t, err, ErrDisposed)
	_, err = m.Optimize(context.Background())
	require.ErrorIs(t, err, ErrDisposed)
}

func TestModel_Write(t *testing.T) {
	dir := t.TempDir()
	m := NewModel("write", &echoBackend{})
	x, _ := m.AddVar(0, 1, 10, Binary, "y_0")
	z, _ := m.AddVar(0, 50, 0, Continuous, "z_0_1")
	require.NoError(t, m.Update())
	_, err := m.AddConstr(NewLinExpr().AddTerm(1, z).AddTerm(-50, x), LessEqual, nil, "gate")
	require.NoError(t, err)
	require.NoError(t, m.SetObjectiveSense(Maximize))

	require.ErrorIs(t, m.Write(filepath.Join(dir, "write.sol")), ErrNoSolution)
	require.ErrorIs(t, m.Write(filepath.Join(dir, "write.mps")), ErrUnsupportedFormat)

	require.NoError(t, m.Write(filepath.Join(dir, "write.lp")))
	raw, err := os.ReadFile(filepath.Join(dir, "write.lp"))
	require.NoError(t, err)
	lp := string(raw)
	assert.Contains(t, lp, "Maximize\n obj: 10 y_0\n")
	assert.Contains(t, lp, " gate: z_0_1 - 50 y_0 <= 0\n")
	assert.Contains(t, lp, " 0 <= z_0_1 <= 50\n")
	assert.Contains(t, lp, "Binaries\n y_0\n")
	assert.True(t, strings.HasSuffix(lp, "End\n"))

	_, err = m.Optimize(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Write(filepath.Join(dir, "write.sol")))
	raw, err = os.ReadFile(filepath.Join(dir, "write.sol"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Objective value = 10\n")
	assert.Contains(t, string(raw), "z_0_1 50\n")
}

func TestWriteLP_EmptyRow(t *testing.T) {
	var buf bytes.Buffer
	p := &Problem{
		Name: "empty",
		Vars: []VarSpec{{Name: "a", UB: 1, Type: Binary}},
		Rows: []Row{{Name: "r", Sense: LessEqual, RHS: 1}},
	}
	require.NoError(t, writeLP(&buf, p))
	assert.Contains(t, buf.String(), " r: 0 a <= 1\n")
	assert.Contains(t, buf.String(), "Minimize\n obj:\n")
}
