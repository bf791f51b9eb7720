// Package highs optimizes solver models with the HiGHS provider of the
// nextmv mip package.
package highs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nextmv-io/sdk/mip"
	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/solver"
)

// ErrProvider is returned when the HiGHS provider cannot be loaded or
// fails before producing a solution.
var ErrProvider = errors.New("highs: provider unavailable")

// Option configures a Backend.
type Option func(*Backend)

// WithDuration sets the maximum solve duration.
func WithDuration(d time.Duration) Option {
	return func(b *Backend) { b.duration = d }
}

// WithGap sets the relative MIP gap. HiGHS defaults to 5%.
func WithGap(gap float64) Option {
	return func(b *Backend) { b.gap = gap }
}

// WithLogger sets the logger the solve summary is reported to.
func WithLogger(l log.FieldLogger) Option {
	return func(b *Backend) { b.log = l }
}

// Backend translates every snapshot into a fresh mip.Model.
type Backend struct {
	duration time.Duration
	gap      float64
	log      log.FieldLogger
}

// New creates a Backend with a 10s limit and a zero gap.
func New(opts ...Option) *Backend {
	b := &Backend{duration: 10 * time.Second, log: log.StandardLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements solver.Backend.
func (b *Backend) Name() string { return "highs" }

// Fork returns an independent Backend with the same settings.
func (b *Backend) Fork() solver.Backend {
	cp := *b
	return &cp
}

// Close implements solver.Backend.
func (b *Backend) Close() error { return nil }

// Solve implements solver.Backend. The context is only checked before
// handing the model over; the provider enforces the duration itself.
func (b *Backend) Solve(ctx context.Context, p *solver.Problem) (res solver.Result, err error) {
	if err := ctx.Err(); err != nil {
		return solver.Result{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = solver.Result{}, fmt.Errorf("%w: %v", ErrProvider, r)
		}
	}()

	m, vars := build(p)

	mipSolver, err := mip.NewSolver("highs", m)
	if err != nil {
		return solver.Result{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	solveOptions := mip.NewSolveOptions()
	if err = solveOptions.SetMaximumDuration(b.duration); err != nil {
		return solver.Result{}, err
	}
	if err = solveOptions.SetMIPGapRelative(b.gap); err != nil {
		return solver.Result{}, err
	}
	solveOptions.SetVerbosity(mip.Off)

	solution, err := mipSolver.Solve(solveOptions)
	if err != nil {
		return solver.Result{}, err
	}
	res = decode(p, solution, vars, b.duration)

	b.log.WithFields(log.Fields{
		"model":     p.Name,
		"status":    res.Status.String(),
		"objective": res.Objective,
		"runtime":   res.Runtime.String(),
	}).Debug("highs finished")
	return res, nil
}

func build(p *solver.Problem) (mip.Model, []mip.Var) {
	m := mip.NewModel()
	vars := make([]mip.Var, len(p.Vars))
	for j, v := range p.Vars {
		switch v.Type {
		case solver.Binary:
			if v.LB == 0 && v.UB == 1 {
				vars[j] = m.NewBool()
			} else {
				vars[j] = m.NewInt(int64(v.LB), int64(v.UB))
			}
		case solver.Integer:
			vars[j] = m.NewInt(intBound(v.LB), intBound(v.UB))
		default:
			vars[j] = m.NewFloat(v.LB, v.UB)
		}
	}

	for _, r := range p.Rows {
		c := m.NewConstraint(sense(r.Sense), r.RHS)
		for _, coef := range r.Coefs {
			c.NewTerm(coef.Value, vars[coef.Var])
		}
	}

	if p.Maximize {
		m.Objective().SetMaximize()
	} else {
		m.Objective().SetMinimize()
	}
	for j, v := range p.Vars {
		if v.Obj != 0 {
			m.Objective().NewTerm(v.Obj, vars[j])
		}
	}
	return m, vars
}

func decode(p *solver.Problem, solution mip.Solution, vars []mip.Var, limit time.Duration) solver.Result {
	res := solver.Result{Status: solver.Infeasible}
	if solution == nil {
		return res
	}
	res.Runtime = solution.RunTime()
	if !solution.HasValues() {
		if limit > 0 && res.Runtime >= limit {
			res.Status = solver.TimeLimit
		}
		return res
	}

	res.Status = solver.Feasible
	if solution.IsOptimal() {
		res.Status = solver.Optimal
	}
	res.Objective = solution.ObjectiveValue()
	res.Values = make([]float64, len(vars))
	for j, v := range vars {
		res.Values[j] = solution.Value(v)
	}
	if res.Status == solver.Optimal {
		res.Bound = res.Objective
	}
	return res
}

func sense(s solver.Sense) mip.Sense {
	switch s {
	case solver.Equal:
		return mip.Equal
	case solver.GreaterEqual:
		return mip.GreaterThanOrEqual
	default:
		return mip.LessThanOrEqual
	}
}

func intBound(x float64) int64 {
	switch {
	case math.IsInf(x, 1):
		return math.MaxInt32
	case math.IsInf(x, -1):
		return math.MinInt32
	default:
		return int64(math.Round(x))
	}
}
