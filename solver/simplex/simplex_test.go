package simplex

import (
	"context"
	"math"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/your_project/orienteering/solver"
)

// knapsack: max 10a + 13b + 7c s.t. 4a + 6b + 3c <= 9, binary.
// Best is b + c = 20; the relaxation is fractional.
func knapsack(t *testing.T, b solver.Backend) (*solver.Model, [3]solver.Var) {
	t.Helper()
	m := solver.NewModel("knapsack", b)
	var vs [3]solver.Var
	for i, profit := range []float64{10, 13, 7} {
		v, err := m.AddVar(0, 1, profit, solver.Binary, "")
		require.NoError(t, err)
		vs[i] = v
	}
	require.NoError(t, m.Update())
	w := solver.NewLinExpr().AddTerm(4, vs[0]).AddTerm(6, vs[1]).AddTerm(3, vs[2])
	_, err := m.AddConstr(w, solver.LessEqual, solver.NewConstant(9), "weight")
	require.NoError(t, err)
	require.NoError(t, m.SetObjectiveSense(solver.Maximize))
	return m, vs
}

func TestSimplex_ContinuousLP(t *testing.T) {
	m := solver.NewModel("lp", New())
	x, err := m.AddVar(0, math.Inf(1), 1, solver.Continuous, "x")
	require.NoError(t, err)
	y, err := m.AddVar(0, math.Inf(1), 1, solver.Continuous, "y")
	require.NoError(t, err)
	require.NoError(t, m.Update())
	_, err = m.AddConstr(solver.NewLinExpr().AddTerm(1, x).AddTerm(2, y), solver.LessEqual, solver.NewConstant(4), "a")
	require.NoError(t, err)
	_, err = m.AddConstr(solver.NewLinExpr().AddTerm(3, x).AddTerm(1, y), solver.LessEqual, solver.NewConstant(6), "b")
	require.NoError(t, err)
	require.NoError(t, m.SetObjectiveSense(solver.Maximize))

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)

	obj, err := m.ObjVal()
	require.NoError(t, err)
	assert.InDelta(t, 2.8, obj, 1e-6)
	xv, _ := m.Value(x)
	yv, _ := m.Value(y)
	assert.InDelta(t, 1.6, xv, 1e-6)
	assert.InDelta(t, 1.2, yv, 1e-6)
}

func TestSimplex_BinaryKnapsack(t *testing.T) {
	m, vs := knapsack(t, New())

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)

	obj, err := m.ObjVal()
	require.NoError(t, err)
	assert.InDelta(t, 20, obj, 1e-6)

	want := []float64{0, 1, 1}
	for i, v := range vs {
		got, err := m.Value(v)
		require.NoError(t, err)
		assert.InDelta(t, want[i], got, 1e-9, "item %d", i)
	}

	res, err := m.Result()
	require.NoError(t, err)
	assert.Greater(t, res.Nodes, 1, "the relaxation is fractional so branching must happen")
}

func TestSimplex_RelaxedKnapsackBoundsInteger(t *testing.T) {
	m, _ := knapsack(t, New())
	r, err := m.Relax()
	require.NoError(t, err)

	status, err := r.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)
	relaxed, err := r.ObjVal()
	require.NoError(t, err)

	_, err = m.Optimize(context.Background())
	require.NoError(t, err)
	integer, err := m.ObjVal()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, relaxed, integer-1e-9)
	// a = c = 1 and a third of b
	assert.InDelta(t, 17+13.0/3, relaxed, 1e-6)
}

func TestSimplex_Infeasible(t *testing.T) {
	m := solver.NewModel("infeasible", New())
	x, err := m.AddVar(0, 1, 1, solver.Binary, "x")
	require.NoError(t, err)
	require.NoError(t, m.Update())
	_, err = m.AddConstr(solver.Sum(x), solver.GreaterEqual, solver.NewConstant(2), "too_much")
	require.NoError(t, err)

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, status)
	_, err = m.ObjVal()
	require.ErrorIs(t, err, solver.ErrNoSolution)
}

func TestSimplex_Unbounded(t *testing.T) {
	m := solver.NewModel("unbounded", New())
	_, err := m.AddVar(0, math.Inf(1), 1, solver.Continuous, "x")
	require.NoError(t, err)
	require.NoError(t, m.SetObjectiveSense(solver.Maximize))

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Unbounded, status)
}

func TestSimplex_EqualityWithFixedVariable(t *testing.T) {
	m := solver.NewModel("fixed", New())
	x, err := m.AddVar(0, 5, 1, solver.Integer, "x")
	require.NoError(t, err)
	y, err := m.AddVar(1, 1, 1, solver.Continuous, "y")
	require.NoError(t, err)
	require.NoError(t, m.Update())
	_, err = m.AddConstr(solver.Sum(x, y), solver.Equal, solver.NewConstant(3), "total")
	require.NoError(t, err)

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)
	xv, _ := m.Value(x)
	yv, _ := m.Value(y)
	assert.InDelta(t, 2, xv, 1e-9)
	assert.InDelta(t, 1, yv, 1e-9)
}

func TestSimplex_NodeLimitWithoutIncumbent(t *testing.T) {
	m, _ := knapsack(t, New(WithNodeLimit(1)))

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.TimeLimit, status)
	res, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Nodes)
	assert.False(t, res.Status.HasValues())
}

func TestSimplex_ExpiredTimeLimit(t *testing.T) {
	m, _ := knapsack(t, New(WithTimeLimit(time.Nanosecond)))
	time.Sleep(time.Millisecond)

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	assert.Contains(t, []solver.Status{solver.TimeLimit, solver.Feasible, solver.Optimal}, status)
}

func TestSimplex_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, _ := knapsack(t, New())

	status, err := m.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, solver.TimeLimit, status)
}

func TestSimplex_LogsIncumbents(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	m, _ := knapsack(t, New(WithLogger(logger)))

	_, err := m.Optimize(context.Background())
	require.NoError(t, err)

	var incumbents int
	for _, e := range hook.AllEntries() {
		if e.Message == "new incumbent" {
			incumbents++
		}
	}
	assert.GreaterOrEqual(t, incumbents, 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "branch and bound finished", hook.LastEntry().Message)
	assert.Equal(t, "optimal", hook.LastEntry().Data["status"])
}

func TestSimplex_Fork(t *testing.T) {
	b := New(WithNodeLimit(7))
	f, ok := b.Fork().(*Backend)
	require.True(t, ok)
	assert.NotSame(t, b, f)
	assert.Equal(t, 7, f.nodeLimit)
	assert.Equal(t, "simplex", f.Name())
	require.NoError(t, f.Close())
}

// Beale's example cycles under Dantzig's rule without a fallback.
func TestSimplex_DegenerateCycling(t *testing.T) {
	m := solver.NewModel("beale", New(WithTimeLimit(10*time.Second)))
	var x [4]solver.Var
	for i, obj := range []float64{-0.75, 20, -0.5, 6} {
		v, err := m.AddVar(0, math.Inf(1), obj, solver.Continuous, "")
		require.NoError(t, err)
		x[i] = v
	}
	require.NoError(t, m.Update())
	rows := [][4]float64{
		{0.25, -8, -1, 9},
		{0.5, -12, -0.5, 3},
	}
	for _, r := range rows {
		lhs := solver.NewLinExpr()
		for i, c := range r {
			lhs.AddTerm(c, x[i])
		}
		_, err := m.AddConstr(lhs, solver.LessEqual, nil, "")
		require.NoError(t, err)
	}
	_, err := m.AddConstr(solver.Sum(x[2]), solver.LessEqual, solver.NewConstant(1), "")
	require.NoError(t, err)
	require.NoError(t, m.SetObjectiveSense(solver.Minimize))

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)
	obj, err := m.ObjVal()
	require.NoError(t, err)
	assert.InDelta(t, -1.25, obj, 1e-6)
}

func TestSolveLP_StopsBetweenPivots(t *testing.T) {
	p := &solver.Problem{
		Name:     "interrupt",
		Maximize: true,
		Vars: []solver.VarSpec{
			{Name: "a", UB: 1, Obj: 10, Type: solver.Continuous},
			{Name: "b", UB: 1, Obj: 13, Type: solver.Continuous},
			{Name: "c", UB: 1, Obj: 7, Type: solver.Continuous},
		},
		Rows: []solver.Row{{
			Name:  "weight",
			Coefs: []solver.Coef{{Var: 0, Value: 4}, {Var: 1, Value: 6}, {Var: 2, Value: 3}},
			Sense: solver.LessEqual,
			RHS:   9,
		}},
	}
	lb := []float64{0, 0, 0}
	ub := []float64{1, 1, 1}

	polls := 0
	_, err := solveLP(p, lb, ub, defaultTol, func() bool {
		polls++
		return polls > 1
	})
	require.ErrorIs(t, err, errInterrupted)
	assert.Equal(t, 2, polls)

	r, err := solveLP(p, lb, ub, defaultTol, nil)
	require.NoError(t, err)
	require.Equal(t, lpOptimal, r.status)
	assert.InDelta(t, 17+13.0/3, r.objective, 1e-6)
}
