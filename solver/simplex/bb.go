package simplex

import (
	"context"
	"errors"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/solver"
)

// bbEngine holds the branch and bound search state. Bounds are tightened in
// place while descending and restored on the way back up.
type bbEngine struct {
	ctx context.Context
	p   *solver.Problem
	tol float64
	log log.FieldLogger

	lb, ub   []float64
	integral []bool

	// Budget
	nodeLimit   int
	useDeadline bool
	deadline    time.Time

	nodes     int
	truncated bool
	unbounded bool
	failures  int

	rootBound float64
	rootSet   bool

	best     []float64
	bestObj  float64
	foundAny bool
}

func newEngine(ctx context.Context, b *Backend, p *solver.Problem) *bbEngine {
	e := &bbEngine{
		ctx:       ctx,
		p:         p,
		tol:       b.tol,
		log:       b.log,
		nodeLimit: b.nodeLimit,
		lb:        make([]float64, len(p.Vars)),
		ub:        make([]float64, len(p.Vars)),
		integral:  make([]bool, len(p.Vars)),
	}
	for j, v := range p.Vars {
		e.lb[j], e.ub[j] = v.LB, v.UB
		if v.Type != solver.Continuous {
			e.integral[j] = true
			e.lb[j] = math.Ceil(v.LB - integralTol)
			e.ub[j] = math.Floor(v.UB + integralTol)
		}
	}
	return e
}

func (e *bbEngine) run() (solver.Result, error) {
	if err := e.search(); err != nil {
		return solver.Result{Status: solver.Unsolved, Nodes: e.nodes}, err
	}

	res := solver.Result{Nodes: e.nodes, Bound: e.rootBound}
	switch {
	case e.unbounded:
		res.Status = solver.Unbounded
		return res, nil
	case e.foundAny:
		res.Status = solver.Feasible
		if !e.truncated && e.failures == 0 {
			res.Status = solver.Optimal
			res.Bound = e.bestObj
		}
		res.Objective = e.bestObj
		res.Values = e.best
		return res, nil
	case e.truncated:
		res.Status = solver.TimeLimit
		return res, nil
	case e.failures > 0:
		return solver.Result{Status: solver.Unsolved, Nodes: e.nodes}, ErrNumerical
	default:
		res.Status = solver.Infeasible
		return res, nil
	}
}

// stop reports whether the node or time budget is exhausted.
func (e *bbEngine) stop() bool {
	if e.nodeLimit > 0 && e.nodes >= e.nodeLimit {
		return true
	}
	return e.interrupted()
}

// interrupted reports whether the context is done or the deadline passed.
// It is also polled between simplex pivots.
func (e *bbEngine) interrupted() bool {
	if e.ctx.Err() != nil {
		return true
	}
	return e.useDeadline && time.Now().After(e.deadline)
}

// better reports whether obj strictly improves on the incumbent.
func (e *bbEngine) better(obj float64) bool {
	if !e.foundAny {
		return true
	}
	if e.p.Maximize {
		return obj > e.bestObj+pruneEps
	}
	return obj < e.bestObj-pruneEps
}

func (e *bbEngine) search() error {
	if e.unbounded {
		return nil
	}
	if e.stop() {
		e.truncated = true
		return nil
	}
	e.nodes++

	r, err := solveLP(e.p, e.lb, e.ub, e.tol, e.interrupted)
	if err != nil {
		if errors.Is(err, errInterrupted) {
			e.truncated = true
			return nil
		}
		if errors.Is(err, ErrNumerical) {
			e.failures++
			e.log.WithField("node", e.nodes).Warn(err)
			return nil
		}
		return err
	}
	switch r.status {
	case lpInfeasible:
		return nil
	case lpUnbounded:
		e.unbounded = true
		return nil
	}
	if !e.rootSet {
		e.rootBound, e.rootSet = r.objective, true
	}
	if !e.better(r.objective) {
		return nil
	}

	j := e.branchVar(r.x)
	if j < 0 {
		e.record(r.x)
		return nil
	}

	v := r.x[j]
	lo, hi := e.lb[j], e.ub[j]
	down := func() { e.ub[j] = math.Floor(v) }
	up := func() { e.lb[j] = math.Ceil(v) }
	branches := [2]func(){down, up}
	if e.p.Maximize {
		branches = [2]func(){up, down}
	}
	for _, tighten := range branches {
		tighten()
		err := e.search()
		e.lb[j], e.ub[j] = lo, hi
		if err != nil {
			return err
		}
	}
	return nil
}

// branchVar picks the most fractional integral variable, or -1 when x is
// integral. Ties go to the lowest index.
func (e *bbEngine) branchVar(x []float64) int {
	best, bestDist := -1, integralTol
	for j, v := range x {
		if !e.integral[j] {
			continue
		}
		frac := v - math.Floor(v)
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

// record commits x as the new incumbent with integral variables rounded.
func (e *bbEngine) record(x []float64) {
	sol := make([]float64, len(x))
	copy(sol, x)
	for j := range sol {
		if e.integral[j] {
			sol[j] = math.Round(sol[j])
		}
	}
	obj := objective(e.p, sol)
	if !e.better(obj) {
		return
	}
	e.best, e.bestObj, e.foundAny = sol, obj, true
	e.log.WithFields(log.Fields{
		"model":     e.p.Name,
		"objective": obj,
		"nodes":     e.nodes,
	}).Debug("new incumbent")
}
