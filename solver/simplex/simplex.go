// Package simplex is a pure Go backend for solver models. Linear relaxations
// are solved with a dense two phase tableau on gonum matrices; integrality is
// enforced with a depth-first branch and bound on top of it.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/solver"
)

// ErrNumerical is returned when the simplex iterations break down and no
// usable solution was found.
var ErrNumerical = errors.New("simplex: numerical failure")

const (
	defaultTol    = 1e-9
	integralTol   = 1e-6
	pruneEps      = 1e-7
	fixedBoundTol = 1e-12
)

// Option configures a Backend.
type Option func(*Backend)

// WithTimeLimit bounds the wall clock time of a single Solve. Zero means no
// limit.
func WithTimeLimit(d time.Duration) Option {
	return func(b *Backend) { b.timeLimit = d }
}

// WithNodeLimit bounds the number of branch and bound nodes. Zero means no
// limit.
func WithNodeLimit(n int) Option {
	return func(b *Backend) { b.nodeLimit = n }
}

// WithLogger sets the logger progress is reported to.
func WithLogger(l log.FieldLogger) Option {
	return func(b *Backend) { b.log = l }
}

// Backend solves problems with LP based branch and bound. It keeps no state
// between Solve calls.
type Backend struct {
	timeLimit time.Duration
	nodeLimit int
	tol       float64
	log       log.FieldLogger
}

// New creates a Backend.
func New(opts ...Option) *Backend {
	b := &Backend{tol: defaultTol, log: log.StandardLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements solver.Backend.
func (b *Backend) Name() string { return "simplex" }

// Fork returns an independent Backend with the same settings.
func (b *Backend) Fork() solver.Backend {
	cp := *b
	return &cp
}

// Close implements solver.Backend. There is nothing to release.
func (b *Backend) Close() error { return nil }

// Solve implements solver.Backend.
func (b *Backend) Solve(ctx context.Context, p *solver.Problem) (solver.Result, error) {
	start := time.Now()
	e := newEngine(ctx, b, p)
	if b.timeLimit > 0 {
		e.useDeadline = true
		e.deadline = start.Add(b.timeLimit)
	}
	res, err := e.run()
	res.Runtime = time.Since(start)
	if err != nil {
		return res, err
	}

	b.log.WithFields(log.Fields{
		"model":     p.Name,
		"status":    res.Status.String(),
		"objective": res.Objective,
		"nodes":     res.Nodes,
		"runtime":   res.Runtime.String(),
	}).Debug("branch and bound finished")
	return res, nil
}

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

type lpResult struct {
	status    lpStatus
	x         []float64
	objective float64
}

// solveLP solves the continuous relaxation of p with the variable bounds
// replaced by lb and ub.
//
// Every variable is shifted to y = x - lb, so that y >= 0, and fixed
// variables are substituted. Each row becomes one or two "<=" rows with a
// dedicated slack and every finite upper bound becomes a row of its own.
// stop is polled between pivots; when it fires solveLP returns
// errInterrupted.
func solveLP(p *solver.Problem, lb, ub []float64, tol float64, stop func() bool) (lpResult, error) {
	n := len(p.Vars)
	sign := 1.0
	if p.Maximize {
		sign = -1
	}

	x := make([]float64, n)
	col := make([]int, n)
	free := 0
	for j, v := range p.Vars {
		if math.IsInf(lb[j], -1) {
			return lpResult{}, fmt.Errorf("simplex: variable %s has no finite lower bound", v.Name)
		}
		if lb[j] > ub[j]+fixedBoundTol {
			return lpResult{status: lpInfeasible}, nil
		}
		x[j] = lb[j]
		if ub[j]-lb[j] <= fixedBoundTol {
			col[j] = -1
			continue
		}
		col[j] = free
		free++
	}

	type denseRow struct {
		coefs map[int]float64
		rhs   float64
	}
	rows := make([]denseRow, 0, 2*len(p.Rows)+free)
	used := make([]bool, free)

	for _, r := range p.Rows {
		rhs := r.RHS
		coefs := make(map[int]float64, len(r.Coefs))
		for _, c := range r.Coefs {
			rhs -= c.Value * lb[c.Var]
			if k := col[c.Var]; k >= 0 {
				coefs[k] += c.Value
			}
		}
		for k, v := range coefs {
			if v == 0 {
				delete(coefs, k)
			}
		}
		if len(coefs) == 0 {
			if !constantHolds(r.Sense, rhs) {
				return lpResult{status: lpInfeasible}, nil
			}
			continue
		}
		for k := range coefs {
			used[k] = true
		}
		if r.Sense == solver.LessEqual || r.Sense == solver.Equal {
			rows = append(rows, denseRow{coefs: coefs, rhs: rhs})
		}
		if r.Sense == solver.GreaterEqual || r.Sense == solver.Equal {
			neg := make(map[int]float64, len(coefs))
			for k, v := range coefs {
				neg[k] = -v
			}
			rows = append(rows, denseRow{coefs: neg, rhs: -rhs})
		}
	}

	cost := make([]float64, 0, free)
	keep := make([]int, 0, free)
	for j := range p.Vars {
		k := col[j]
		if k < 0 {
			continue
		}
		c := sign * p.Vars[j].Obj
		if !math.IsInf(ub[j], 1) {
			rows = append(rows, denseRow{coefs: map[int]float64{k: 1}, rhs: ub[j] - lb[j]})
			used[k] = true
		}
		if !used[k] {
			// No row touches the variable; it sits on its lower bound
			// unless the objective pulls it to infinity.
			if c < 0 {
				return lpResult{status: lpUnbounded}, nil
			}
			col[j] = -1
			continue
		}
		keep = append(keep, k)
		cost = append(cost, c)
	}

	m := len(rows)
	if m == 0 {
		return lpResult{status: lpOptimal, x: x, objective: objective(p, x)}, nil
	}

	// Compact column indices to the kept variables.
	remap := make(map[int]int, len(keep))
	for i, k := range keep {
		remap[k] = i
	}
	a := make([][]float64, m)
	b := make([]float64, m)
	for i, r := range rows {
		a[i] = make([]float64, len(keep))
		for k, v := range r.coefs {
			a[i][remap[k]] = v
		}
		b[i] = r.rhs
	}

	tab := newTableau(a, b, tol, stop)
	status, err := tab.solve(cost)
	if err != nil {
		return lpResult{}, err
	}
	if status != lpOptimal {
		return lpResult{status: status}, nil
	}
	y := tab.values()

	for j := range p.Vars {
		k := col[j]
		if k < 0 {
			continue
		}
		idx, ok := remap[k]
		if !ok {
			continue
		}
		x[j] = lb[j] + math.Max(y[idx], 0)
		if x[j] > ub[j] {
			x[j] = ub[j]
		}
	}
	return lpResult{status: lpOptimal, x: x, objective: objective(p, x)}, nil
}

func constantHolds(sense solver.Sense, rhs float64) bool {
	const eps = 1e-9
	switch sense {
	case solver.Equal:
		return math.Abs(rhs) <= eps
	case solver.GreaterEqual:
		return rhs <= eps
	default:
		return rhs >= -eps
	}
}

func objective(p *solver.Problem, x []float64) float64 {
	var obj float64
	for j, v := range p.Vars {
		obj += v.Obj * x[j]
	}
	return obj
}
