// Package orienteering turns a clustered orienteering instance into a mixed
// integer program, optimizes it through a solver backend and decodes the
// solution into vehicle paths and served clusters.
//
// Variables:
//
//	x_v_i_j  binary, vehicle v travels the arc i -> j
//	y_c      binary, cluster c is fully served, objective coefficient profit(c)
//	z_i_j    continuous in [0, tmax], arrival time at j when coming from i
//
// Arcs exist between distinct nodes, never into the start depot and never
// out of the end depot. The arc from the start depot straight to the end
// depot lets a vehicle stay idle.
package orienteering

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/instance"
	"example.com/your_project/orienteering/solver"
)

// ErrUnusable is returned by every operation after a solver failure left the
// model in an undefined state, or after Dispose.
var ErrUnusable = errors.New("orienteering: model unusable")

// RelaxedVariant is the artifact variant of relaxed copies.
const RelaxedVariant = "relaxed"

// Option configures an Orienteering.
type Option func(*Orienteering)

// WithLogger sets the logger construction and decoding are reported to.
func WithLogger(l log.FieldLogger) Option {
	return func(o *Orienteering) { o.log = l }
}

// Orienteering is the model of one instance. It owns its solver model and
// must be released with Dispose. It is not safe for concurrent use; a copy
// from Relaxed is independent and may be optimized concurrently with it.
type Orienteering struct {
	inst    *instance.Instance
	model   *solver.Model
	log     log.FieldLogger
	variant string

	// x[v][i][j], y[c] and z[i][j]; the zero Var marks a missing arc.
	x [][][]solver.Var
	y []solver.Var
	z [][]solver.Var

	timeGates  []TimeGate
	heuristics []solver.Constr

	err error
}

// New builds the model of inst on backend: variables, constraint families
// 1 to 12 and the objective. On failure the model is released and the error
// returned.
func New(inst *instance.Instance, backend solver.Backend, opts ...Option) (*Orienteering, error) {
	o := &Orienteering{
		inst:  inst,
		model: solver.NewModel(inst.Name(), backend),
		log:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithFields(log.Fields{"instance": inst.Name(), "engine": backend.Name()})

	if err := o.build(); err != nil {
		o.log.WithError(err).Error("model construction failed")
		if derr := o.model.Dispose(); derr != nil {
			o.log.WithError(derr).Warn("releasing solver model")
		}
		return nil, err
	}
	o.log.WithFields(log.Fields{
		"vars":   o.model.NumVars(),
		"constr": o.model.NumConstrs(),
	}).Debug("model built")
	return o, nil
}

func (o *Orienteering) build() error {
	if err := o.addVariables(); err != nil {
		return err
	}
	if err := o.model.Update(); err != nil {
		return err
	}
	if err := o.addConstraints(); err != nil {
		return err
	}
	if err := o.model.SetObjectiveSense(solver.Maximize); err != nil {
		return err
	}
	return o.model.Update()
}

// Instance is the instance the model was built from.
func (o *Orienteering) Instance() *instance.Instance { return o.inst }

// Model is the underlying solver model.
func (o *Orienteering) Model() *solver.Model { return o.model }

// Variant is "" for the full model and RelaxedVariant for relaxed copies.
func (o *Orienteering) Variant() string { return o.variant }

// X is the arc variable of vehicle v on i -> j.
func (o *Orienteering) X(v, i, j int) (solver.Var, bool) {
	x := o.x[v][i][j]
	return x, x.Valid()
}

// Y is the served indicator of cluster c.
func (o *Orienteering) Y(c int) solver.Var { return o.y[c] }

// Z is the arrival time variable of arc i -> j.
func (o *Orienteering) Z(i, j int) (solver.Var, bool) {
	z := o.z[i][j]
	return z, z.Valid()
}

// Optimize solves the model.
func (o *Orienteering) Optimize(ctx context.Context) (solver.Status, error) {
	if o.err != nil {
		return solver.Unsolved, o.err
	}
	status, err := o.model.Optimize(ctx)
	if err != nil {
		o.log.WithError(err).WithField("variant", o.variant).Error("optimization failed")
		return status, err
	}
	entry := o.log.WithFields(log.Fields{"variant": o.variant, "status": status.String()})
	if obj, err := o.model.ObjVal(); err == nil {
		entry = entry.WithField("objective", obj)
	}
	entry.Info("optimization finished")
	return status, nil
}

// Objective is the objective value of the current solution.
func (o *Orienteering) Objective() (float64, error) {
	if o.err != nil {
		return 0, o.err
	}
	return o.model.ObjVal()
}

// Relaxed returns an independent copy whose variables are all continuous.
// Variable handles and the time gates carry over; the heuristic registry is
// copied so the relaxed copy can toggle its own constraints off.
func (o *Orienteering) Relaxed() (*Orienteering, error) {
	if o.err != nil {
		return nil, o.err
	}
	m, err := o.model.Relax()
	if err != nil {
		o.log.WithError(err).Error("relaxing model")
		return nil, err
	}
	cp := *o
	cp.model = m
	cp.variant = RelaxedVariant
	cp.heuristics = append([]solver.Constr(nil), o.heuristics...)
	cp.timeGates = append([]TimeGate(nil), o.timeGates...)
	return &cp, nil
}

// Dispose releases the solver model. Later calls return ErrUnusable.
func (o *Orienteering) Dispose() error {
	if o.model == nil {
		return nil
	}
	err := o.model.Dispose()
	o.err = fmt.Errorf("%w: disposed", ErrUnusable)
	o.model = nil
	return err
}

// fail marks the model unusable after a solver failure during a mutation.
func (o *Orienteering) fail(err error) error {
	o.err = fmt.Errorf("%w: %v", ErrUnusable, err)
	return err
}
