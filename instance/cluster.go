package instance

import (
	"fmt"
	"sort"
)

// VehicleBounds is the minimum and maximum number of distinct vehicles
// needed to serve every node of a cluster.
type VehicleBounds struct {
	Min int
	Max int
}

// derived holds the fields computed when a cluster is bound to a roster.
type derived struct {
	bounds         VehicleBounds
	weightedProfit float64
}

// Cluster is a group of co-located nodes sharing one profit. The profit is
// only collected if every node of the cluster is served.
type Cluster struct {
	id        int
	profit    float64
	nodes     []*Node
	pos       map[int]int
	totalCost float64

	bound *derived
}

// NewCluster creates a cluster whose internal order is the order of nodes.
func NewCluster(id int, profit float64, nodes []*Node) (*Cluster, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("cluster %d: %w", id, ErrEmptyCluster)
	}
	if profit < 0 {
		return nil, fmt.Errorf("cluster %d: %w: %g", id, ErrNegativeProfit, profit)
	}
	c := &Cluster{
		id:     id,
		profit: profit,
		nodes:  make([]*Node, len(nodes)),
		pos:    make(map[int]int, len(nodes)),
	}
	copy(c.nodes, nodes)
	for k, n := range nodes {
		if _, ok := c.pos[n.id]; ok {
			return nil, fmt.Errorf("cluster %d: %w: node %d", id, ErrDuplicateNode, n.id)
		}
		if !n.SameLocation(nodes[0]) {
			return nil, fmt.Errorf("cluster %d: %w: node %d at (%g, %g), node %d at (%g, %g)",
				id, ErrCoordinateMismatch, nodes[0].id, nodes[0].x, nodes[0].y, n.id, n.x, n.y)
		}
		c.pos[n.id] = k
		c.totalCost += n.cost
	}
	return c, nil
}

func (c *Cluster) ID() int { return c.id }
func (c *Cluster) Profit() float64 { return c.profit }
func (c *Cluster) Len() int { return len(c.nodes) }

// TotalCost is the summed service duration of the cluster nodes.
func (c *Cluster) TotalCost() float64 { return c.totalCost }

// Nodes returns the cluster nodes in cluster order.
func (c *Cluster) Nodes() []*Node {
	out := make([]*Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// First is the first node in cluster order.
func (c *Cluster) First() *Node { return c.nodes[0] }

// Last is the last node in cluster order.
func (c *Cluster) Last() *Node { return c.nodes[len(c.nodes)-1] }

// Position is the index of the node inside the cluster.
func (c *Cluster) Position(nodeID int) (int, bool) {
	k, ok := c.pos[nodeID]
	return k, ok
}

// Contains reports whether the node belongs to the cluster.
func (c *Cluster) Contains(nodeID int) bool {
	_, ok := c.pos[nodeID]
	return ok
}

// Streaks splits the cluster into the maximal runs of consecutive nodes v
// can serve. Empty streaks are never returned.
func (c *Cluster) Streaks(v *Vehicle) []*Streak {
	var (
		out []*Streak
		cur *Streak
	)
	for k, n := range c.nodes {
		if !v.CanServe(n.service) {
			if cur != nil {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &Streak{vehicle: v, clusterID: c.id}
		}
		cur.nodes = append(cur.nodes, n)
		cur.pos = append(cur.pos, k)
	}
	if cur != nil {
		out = append(out, cur)
	}
	return out
}

// SetInstanceVehicles binds the cluster to the vehicle roster and computes
// the vehicle bounds and the weighted profit. Binding again replaces them.
func (c *Cluster) SetInstanceVehicles(vs []*Vehicle) {
	b := VehicleBounds{
		Min: c.vehiclesNeeded(vs, true),
		Max: c.vehiclesNeeded(vs, false),
	}
	c.bound = &derived{
		bounds:         b,
		weightedProfit: c.profit / (1 + float64(b.Min)*c.totalCost),
	}
}

// Bounds returns the vehicle bounds and whether the cluster is bound.
func (c *Cluster) Bounds() (VehicleBounds, bool) {
	if c.bound == nil {
		return VehicleBounds{}, false
	}
	return c.bound.bounds, true
}

// MinVehiclesNeeded is the lower bound on distinct vehicles.
func (c *Cluster) MinVehiclesNeeded() (int, error) {
	if c.bound == nil {
		return 0, fmt.Errorf("cluster %d: %w", c.id, ErrNotBound)
	}
	return c.bound.bounds.Min, nil
}

// MaxVehiclesNeeded is the upper bound on distinct vehicles.
func (c *Cluster) MaxVehiclesNeeded() (int, error) {
	if c.bound == nil {
		return 0, fmt.Errorf("cluster %d: %w", c.id, ErrNotBound)
	}
	return c.bound.bounds.Max, nil
}

// WeightedProfit is profit / (1 + MinVehiclesNeeded * TotalCost).
func (c *Cluster) WeightedProfit() (float64, error) {
	if c.bound == nil {
		return 0, fmt.Errorf("cluster %d: %w", c.id, ErrNotBound)
	}
	return c.bound.weightedProfit, nil
}

// vehiclesNeeded reduces the streaks of every vehicle against each other
// and counts the vehicles left with nodes. Streaks are ordered by start
// position, then by size (largest first for the lower bound, smallest first
// for the upper bound), then by vehicle id. Each streak loses the nodes
// claimed by the streaks before it.
func (c *Cluster) vehiclesNeeded(vs []*Vehicle, minimum bool) int {
	var streaks []*Streak
	for _, v := range vs {
		streaks = append(streaks, c.Streaks(v)...)
	}

	sort.SliceStable(streaks, func(a, b int) bool {
		sa, sb := streaks[a], streaks[b]
		if sa.Start() != sb.Start() {
			return sa.Start() < sb.Start()
		}
		if sa.Len() != sb.Len() {
			if minimum {
				return sa.Len() > sb.Len()
			}
			return sa.Len() < sb.Len()
		}
		return sa.vehicle.id < sb.vehicle.id
	})

	for a := range streaks {
		for b := 0; b < a; b++ {
			streaks[a].RemoveAll(streaks[b])
		}
	}

	used := make(map[int]struct{})
	for _, s := range streaks {
		if !s.IsEmpty() {
			used[s.vehicle.id] = struct{}{}
		}
	}
	return len(used)
}
