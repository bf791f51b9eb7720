package instance

import (
	"fmt"
	"math"
	"sort"

	"github.com/nextmv-io/sdk/measure"
)

// Config is everything needed to build an Instance.
type Config struct {
	Name  string
	Nodes []*Node
	// Clusters are bound to Vehicles by NewInstance and belong to the
	// instance afterwards.
	Clusters []*Cluster
	Vehicles []*Vehicle
	// Distance is the travel time between node indices. Nil means
	// Euclidean distance over the node coordinates.
	Distance measure.ByIndex
	// Precedence[i][j] > 0 means node i must be served before node j, scaled
	// by the weight. Nil means every cluster node precedes its successor in
	// cluster order with weight 1. The matrix is copied.
	Precedence [][]float64
	TMax       float64
}

// Instance is a complete, read-only clustered orienteering problem.
type Instance struct {
	name       string
	nodes      []*Node
	clusters   []*Cluster
	vehicles   []*Vehicle
	distance   measure.ByIndex
	precedence [][]float64
	tmax       float64

	clusterOf []int
}

// NewInstance validates cfg and binds every cluster to the vehicle roster.
func NewInstance(cfg Config) (*Instance, error) {
	n := len(cfg.Nodes)
	if n < 3 {
		return nil, fmt.Errorf("%w: got %d nodes", ErrTooFewNodes, n)
	}
	for i, node := range cfg.Nodes {
		if node == nil || node.id != i {
			return nil, fmt.Errorf("%w: position %d", ErrNodeIndex, i)
		}
	}
	if len(cfg.Vehicles) == 0 {
		return nil, ErrNoVehicles
	}
	if cfg.TMax <= 0 || math.IsNaN(cfg.TMax) {
		return nil, fmt.Errorf("%w: %g", ErrNonPositiveTmax, cfg.TMax)
	}

	clusterOf := make([]int, n)
	for i := range clusterOf {
		clusterOf[i] = -1
	}
	for ci, c := range cfg.Clusters {
		for _, node := range c.nodes {
			switch {
			case node.id <= 0 || node.id >= n-1:
				return nil, fmt.Errorf("cluster %d: %w: node %d", c.id, ErrDepotInCluster, node.id)
			case cfg.Nodes[node.id] != node:
				return nil, fmt.Errorf("cluster %d: %w: node %d is not the instance node", c.id, ErrNodeIndex, node.id)
			case clusterOf[node.id] >= 0:
				return nil, fmt.Errorf("%w: node %d", ErrNodeInManyClusters, node.id)
			}
			clusterOf[node.id] = ci
		}
	}
	for i := 1; i < n-1; i++ {
		if clusterOf[i] < 0 {
			return nil, fmt.Errorf("%w: node %d", ErrUnclusteredNode, i)
		}
	}

	precedence := consecutivePrecedence(n, cfg.Clusters)
	if cfg.Precedence != nil {
		if !square(cfg.Precedence, n) {
			return nil, fmt.Errorf("%w: want %dx%d", ErrPrecedenceShape, n, n)
		}
		precedence = cloneMatrix(cfg.Precedence)
	}

	distance := cfg.Distance
	if distance == nil {
		points := make([]measure.Point, n)
		for i, node := range cfg.Nodes {
			points[i] = node.Point()
		}
		distance = measure.Indexed(measure.EuclideanByPoint(), points)
	}

	inst := &Instance{
		name:       cfg.Name,
		nodes:      append([]*Node(nil), cfg.Nodes...),
		clusters:   append([]*Cluster(nil), cfg.Clusters...),
		vehicles:   append([]*Vehicle(nil), cfg.Vehicles...),
		distance:   distance,
		precedence: precedence,
		tmax:       cfg.TMax,
		clusterOf:  clusterOf,
	}
	for _, c := range inst.clusters {
		c.SetInstanceVehicles(inst.vehicles)
	}
	return inst, nil
}

func (in *Instance) Name() string { return in.name }
func (in *Instance) NumNodes() int { return len(in.nodes) }
func (in *Instance) NumClusters() int { return len(in.clusters) }
func (in *Instance) NumVehicles() int { return len(in.vehicles) }
func (in *Instance) TMax() float64 { return in.tmax }
func (in *Instance) Node(i int) *Node { return in.nodes[i] }
func (in *Instance) StartDepot() *Node { return in.nodes[0] }
func (in *Instance) EndDepot() *Node { return in.nodes[len(in.nodes)-1] }
func (in *Instance) Vehicle(v int) *Vehicle { return in.vehicles[v] }
func (in *Instance) Cluster(c int) *Cluster { return in.clusters[c] }

// Nodes returns every node, depots included, by index.
func (in *Instance) Nodes() []*Node { return append([]*Node(nil), in.nodes...) }

// InteriorNodes returns the service nodes, depots excluded.
func (in *Instance) InteriorNodes() []*Node {
	return append([]*Node(nil), in.nodes[1:len(in.nodes)-1]...)
}

func (in *Instance) Clusters() []*Cluster { return append([]*Cluster(nil), in.clusters...) }
func (in *Instance) Vehicles() []*Vehicle { return append([]*Vehicle(nil), in.vehicles...) }

// Distance is the travel time from node i to node j.
func (in *Instance) Distance(i, j int) float64 { return in.distance.Cost(i, j) }

// Precedence is the weight of "i before j", zero when unrelated.
func (in *Instance) Precedence(i, j int) float64 { return in.precedence[i][j] }

// ClusterOf returns the cluster holding the node. Depots have none.
func (in *Instance) ClusterOf(nodeID int) (*Cluster, bool) {
	if nodeID < 0 || nodeID >= len(in.clusterOf) || in.clusterOf[nodeID] < 0 {
		return nil, false
	}
	return in.clusters[in.clusterOf[nodeID]], true
}

// ClustersByWeightedProfit returns the clusters by descending weighted
// profit, ties broken by id.
func (in *Instance) ClustersByWeightedProfit() []*Cluster {
	out := in.Clusters()
	sort.SliceStable(out, func(a, b int) bool {
		wa, _ := out[a].WeightedProfit()
		wb, _ := out[b].WeightedProfit()
		if wa != wb {
			return wa > wb
		}
		return out[a].id < out[b].id
	})
	return out
}

func consecutivePrecedence(n int, clusters []*Cluster) [][]float64 {
	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)
	}
	for _, c := range clusters {
		for k := 1; k < len(c.nodes); k++ {
			p[c.nodes[k-1].id][c.nodes[k].id] = 1
		}
	}
	return p
}

func square(m [][]float64, n int) bool {
	if len(m) != n {
		return false
	}
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
