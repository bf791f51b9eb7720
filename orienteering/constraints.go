package orienteering

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/solver"
)

// TimeGate is a retained "z_i_j <= tmax * sum_v x_v_i_j" constraint together
// with the arc variables bounding it.
type TimeGate struct {
	Constr solver.Constr
	Arc    Arc
	Vars   []solver.Var
}

// TimeGates returns the time gating constraints in arc order.
func (o *Orienteering) TimeGates() []TimeGate {
	return append([]TimeGate(nil), o.timeGates...)
}

func (o *Orienteering) add(lhs *solver.LinExpr, sense solver.Sense, rhs *solver.LinExpr, name string) (solver.Constr, error) {
	c, err := o.model.AddConstr(lhs, sense, rhs, name)
	if err != nil {
		o.log.WithError(err).WithField("constraint", name).Error("adding constraint")
		return solver.Constr{}, err
	}
	return c, nil
}

func (o *Orienteering) addConstraints() error {
	families := []struct {
		name string
		add  func() error
	}{
		{"depot flow", o.addDepotFlow},
		{"cluster linkage", o.addClusterLinkage},
		{"flow conservation", o.addFlowConservation},
		{"time propagation", o.addTimePropagation},
		{"depot time base", o.addDepotTimeBase},
		{"time gating", o.addTimeGates},
		{"skill feasibility", o.addSkills},
		{"precedence", o.addPrecedence},
		{"structural pruning", o.addPruning},
	}
	for _, f := range families {
		before := o.model.NumConstrs()
		if err := f.add(); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if err := o.model.Update(); err != nil {
			return err
		}
		o.log.WithFields(log.Fields{
			"family": f.name,
			"added":  o.model.NumConstrs() - before,
		}).Debug("constraints added")
	}
	return nil
}

// addDepotFlow: every vehicle leaves the start depot once and enters the end
// depot once (1, 2).
func (o *Orienteering) addDepotFlow() error {
	end := o.inst.NumNodes() - 1
	for v := range o.x {
		if _, err := o.add(o.out(v, 0), solver.Equal, solver.NewConstant(1), fmt.Sprintf("depot_out_%d", v)); err != nil {
			return err
		}
		if _, err := o.add(o.in(v, end), solver.Equal, solver.NewConstant(1), fmt.Sprintf("depot_in_%d", v)); err != nil {
			return err
		}
	}
	return nil
}

// addClusterLinkage: every node of a served cluster is entered and left
// exactly once over all vehicles, and nodes of other clusters not at all
// (3, 4).
func (o *Orienteering) addClusterLinkage() error {
	for c, cluster := range o.inst.Clusters() {
		y := solver.Sum(o.y[c])
		for _, node := range cluster.Nodes() {
			i := node.ID()
			in, out := solver.NewLinExpr(), solver.NewLinExpr()
			for v := range o.x {
				in.AddExpr(1, o.in(v, i))
				out.AddExpr(1, o.out(v, i))
			}
			if _, err := o.add(in, solver.Equal, y, fmt.Sprintf("cluster_in_%d_%d", c, i)); err != nil {
				return err
			}
			if _, err := o.add(out, solver.Equal, y, fmt.Sprintf("cluster_out_%d_%d", c, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// addFlowConservation: a vehicle entering a service node leaves it (5).
func (o *Orienteering) addFlowConservation() error {
	for v := range o.x {
		for _, node := range o.inst.InteriorNodes() {
			i := node.ID()
			if _, err := o.add(o.in(v, i), solver.Equal, o.out(v, i), fmt.Sprintf("flow_%d_%d", v, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// addTimePropagation: leaving a service node takes the arrival time plus
// the service duration plus the travel time of the arc used (6).
func (o *Orienteering) addTimePropagation() error {
	n := o.inst.NumNodes()
	for _, node := range o.inst.InteriorNodes() {
		i := node.ID()
		lhs := solver.NewLinExpr()
		for j := 0; j < n; j++ {
			if o.isArc(i, j) {
				lhs.AddTerm(1, o.z[i][j])
			}
		}
		lhs.AddExpr(-1, o.arrival(i))

		rhs := solver.NewLinExpr()
		for j := 0; j < n; j++ {
			if !o.isArc(i, j) {
				continue
			}
			rhs.AddExpr(o.inst.Distance(i, j)+node.Cost(), o.arcUse(i, j))
		}
		if _, err := o.add(lhs, solver.Equal, rhs, fmt.Sprintf("time_%d", i)); err != nil {
			return err
		}
	}
	return nil
}

// addDepotTimeBase: arriving from the start depot takes the travel time of
// the arc used (7).
func (o *Orienteering) addDepotTimeBase() error {
	for j := 1; j < o.inst.NumNodes(); j++ {
		rhs := solver.NewLinExpr().AddExpr(o.inst.Distance(0, j), o.arcUse(0, j))
		if _, err := o.add(solver.Sum(o.z[0][j]), solver.Equal, rhs, fmt.Sprintf("time_base_%d", j)); err != nil {
			return err
		}
	}
	return nil
}

// addTimeGates: z_i_j is zero unless some vehicle uses i -> j (8).
func (o *Orienteering) addTimeGates() error {
	n := o.inst.NumNodes()
	tmax := o.inst.TMax()
	o.timeGates = o.timeGates[:0]
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if !o.isArc(i, j) {
				continue
			}
			vars := make([]solver.Var, len(o.x))
			for v := range o.x {
				vars[v] = o.x[v][i][j]
			}
			rhs := solver.NewLinExpr().AddExpr(tmax, solver.Sum(vars...))
			c, err := o.add(solver.Sum(o.z[i][j]), solver.LessEqual, rhs, fmt.Sprintf("time_gate_%d_%d", i, j))
			if err != nil {
				return err
			}
			o.timeGates = append(o.timeGates, TimeGate{Constr: c, Arc: Arc{From: i, To: j}, Vars: vars})
		}
	}
	return nil
}

// addSkills: a vehicle touches a node only if it has the node's skill (9).
func (o *Orienteering) addSkills() error {
	for v, vehicle := range o.inst.Vehicles() {
		for _, node := range o.inst.InteriorNodes() {
			i := node.ID()
			skill := 0.0
			if vehicle.CanServe(node.Service()) {
				skill = 1
			}
			lhs := o.out(v, i).AddExpr(1, o.in(v, i))
			if _, err := o.add(lhs, solver.LessEqual, solver.NewConstant(2*skill), fmt.Sprintf("skill_%d_%d", v, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// addPrecedence: inside a cluster, a node preceding another is reached at
// least its weighted service duration earlier (10).
func (o *Orienteering) addPrecedence() error {
	for _, cluster := range o.inst.Clusters() {
		nodes := cluster.Nodes()
		for _, a := range nodes {
			for _, b := range nodes {
				i, j := a.ID(), b.ID()
				p := o.inst.Precedence(i, j)
				if i == j || p <= 0 {
					continue
				}
				lhs := o.arrival(j).AddExpr(-1, o.arrival(i))
				for k := range o.z {
					lhs.AddExpr(-p*a.Cost(), o.arcUse(k, j))
				}
				if _, err := o.add(lhs, solver.GreaterEqual, nil, fmt.Sprintf("precedence_%d_%d", i, j)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// addPruning: the start depot only leads to the first node of a cluster,
// and arcs inside a cluster follow the cluster order (11, 12).
func (o *Orienteering) addPruning() error {
	for _, cluster := range o.inst.Clusters() {
		nodes := cluster.Nodes()
		for _, node := range nodes[1:] {
			j := node.ID()
			if _, err := o.add(o.arcUse(0, j), solver.Equal, nil, fmt.Sprintf("depot_first_%d", j)); err != nil {
				return err
			}
		}
		for pi, a := range nodes {
			for pj, b := range nodes {
				if pi == pj || pj > pi {
					continue
				}
				i, j := a.ID(), b.ID()
				if _, err := o.add(o.arcUse(i, j), solver.Equal, nil, fmt.Sprintf("order_%d_%d", i, j)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
