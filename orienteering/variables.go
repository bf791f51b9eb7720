package orienteering

import (
	"fmt"

	"example.com/your_project/orienteering/solver"
)

// Arc is a directed pair of node ids.
type Arc struct {
	From int
	To   int
}

// isArc reports whether i -> j exists in the model.
func (o *Orienteering) isArc(i, j int) bool {
	last := o.inst.NumNodes() - 1
	return i != j && j != 0 && i != last
}

func (o *Orienteering) addVariables() error {
	n := o.inst.NumNodes()
	tmax := o.inst.TMax()

	o.x = make([][][]solver.Var, o.inst.NumVehicles())
	for v := range o.x {
		o.x[v] = make([][]solver.Var, n)
		for i := 0; i < n; i++ {
			o.x[v][i] = make([]solver.Var, n)
			for j := 0; j < n; j++ {
				if !o.isArc(i, j) {
					continue
				}
				x, err := o.model.AddVar(0, 1, 0, solver.Binary, fmt.Sprintf("x_%d_%d_%d", v, i, j))
				if err != nil {
					return fmt.Errorf("variable x_%d_%d_%d: %w", v, i, j, err)
				}
				o.x[v][i][j] = x
			}
		}
	}

	o.y = make([]solver.Var, o.inst.NumClusters())
	for c, cluster := range o.inst.Clusters() {
		y, err := o.model.AddVar(0, 1, cluster.Profit(), solver.Binary, fmt.Sprintf("y_%d", c))
		if err != nil {
			return fmt.Errorf("variable y_%d: %w", c, err)
		}
		o.y[c] = y
	}

	o.z = make([][]solver.Var, n)
	for i := 0; i < n; i++ {
		o.z[i] = make([]solver.Var, n)
		for j := 0; j < n; j++ {
			if !o.isArc(i, j) {
				continue
			}
			z, err := o.model.AddVar(0, tmax, 0, solver.Continuous, fmt.Sprintf("z_%d_%d", i, j))
			if err != nil {
				return fmt.Errorf("variable z_%d_%d: %w", i, j, err)
			}
			o.z[i][j] = z
		}
	}
	return nil
}

// arcUse is the sum over vehicles of x_v_i_j.
func (o *Orienteering) arcUse(i, j int) *solver.LinExpr {
	e := solver.NewLinExpr()
	if !o.isArc(i, j) {
		return e
	}
	for v := range o.x {
		e.AddTerm(1, o.x[v][i][j])
	}
	return e
}

// out is the sum of x_v_i_j over every successor j.
func (o *Orienteering) out(v, i int) *solver.LinExpr {
	e := solver.NewLinExpr()
	for j, x := range o.x[v][i] {
		if o.isArc(i, j) {
			e.AddTerm(1, x)
		}
	}
	return e
}

// in is the sum of x_v_j_i over every predecessor j.
func (o *Orienteering) in(v, i int) *solver.LinExpr {
	e := solver.NewLinExpr()
	for j := range o.x[v] {
		if o.isArc(j, i) {
			e.AddTerm(1, o.x[v][j][i])
		}
	}
	return e
}

// arrival is the sum of z_k_i over every predecessor k.
func (o *Orienteering) arrival(i int) *solver.LinExpr {
	e := solver.NewLinExpr()
	for k := range o.z {
		if o.isArc(k, i) {
			e.AddTerm(1, o.z[k][i])
		}
	}
	return e
}
