package orienteering

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/solver"
)

// ToggleOn adds the heuristic constraints: no cluster node but the last one
// leads straight to the end depot (13), and a vehicle that enters a streak of
// its own leaves each node of it for the next one (14). They may cut off
// optimal solutions; ToggleOff removes them again. Calling ToggleOn while
// they are on does nothing.
func (o *Orienteering) ToggleOn() error {
	if o.err != nil {
		return o.err
	}
	if len(o.heuristics) > 0 {
		return nil
	}
	if err := o.addHeuristics(); err != nil {
		return o.fail(err)
	}
	if err := o.model.Update(); err != nil {
		return o.fail(err)
	}
	o.log.WithField("added", len(o.heuristics)).Debug("heuristics on")
	return nil
}

// ToggleOff removes every constraint added by ToggleOn. It is a no-op when
// the heuristics are off.
func (o *Orienteering) ToggleOff() error {
	if o.err != nil {
		return o.err
	}
	if len(o.heuristics) == 0 {
		return nil
	}
	for _, c := range o.heuristics {
		if err := o.model.RemoveConstr(c); err != nil {
			o.log.WithError(err).Error("removing heuristic constraint")
			return o.fail(err)
		}
	}
	if err := o.model.Update(); err != nil {
		return o.fail(err)
	}
	o.log.WithField("removed", len(o.heuristics)).Debug("heuristics off")
	o.heuristics = nil
	return nil
}

// HeuristicsOn reports whether the heuristic constraints are in the model.
func (o *Orienteering) HeuristicsOn() bool { return len(o.heuristics) > 0 }

// NumHeuristicConstrs is the number of heuristic constraints in the model.
func (o *Orienteering) NumHeuristicConstrs() int { return len(o.heuristics) }

func (o *Orienteering) addHeuristics() error {
	end := o.inst.NumNodes() - 1
	for _, cluster := range o.inst.Clusters() {
		nodes := cluster.Nodes()
		for _, node := range nodes[:len(nodes)-1] {
			i := node.ID()
			c, err := o.add(o.arcUse(i, end), solver.Equal, nil, fmt.Sprintf("h_end_%d", i))
			if err != nil {
				return err
			}
			o.heuristics = append(o.heuristics, c)
		}
	}

	for v, vehicle := range o.inst.Vehicles() {
		for _, cluster := range o.inst.Clusters() {
			for _, streak := range cluster.Streaks(vehicle) {
				if streak.Len() < 2 {
					continue
				}
				nodes := streak.Nodes()
				for k := 0; k < len(nodes)-1; k++ {
					a, b := nodes[k].ID(), nodes[k+1].ID()
					lhs := solver.NewLinExpr()
					for j, x := range o.x[v][a] {
						if j != b && o.isArc(a, j) {
							lhs.AddTerm(1, x)
						}
					}
					c, err := o.add(lhs, solver.Equal, nil, fmt.Sprintf("h_streak_%d_%d", v, a))
					if err != nil {
						return err
					}
					o.heuristics = append(o.heuristics, c)
				}
			}
		}
		o.log.WithFields(log.Fields{"vehicle": v}).Trace("streak heuristics added")
	}
	return nil
}
