package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextmv-io/sdk/measure"
)

// Input is the JSON form of an instance. Node, cluster and vehicle ids are
// their positions in the lists; the first node is the start depot and the
// last node the end depot.
type Input struct {
	Name       string         `json:"name"`
	TMax       float64        `json:"tmax"`
	Nodes      []NodeInput    `json:"nodes"`
	Clusters   []ClusterInput `json:"clusters"`
	Vehicles   []VehicleInput `json:"vehicles"`
	Distances  [][]float64    `json:"distances,omitempty"`
	Precedence [][]float64    `json:"precedence,omitempty"`
}

// NodeInput is a node of the input.
type NodeInput struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Service int     `json:"service"`
	Cost    float64 `json:"cost"`
}

// ClusterInput is a cluster of the input, nodes in cluster order.
type ClusterInput struct {
	Profit float64 `json:"profit"`
	Nodes  []int   `json:"nodes"`
}

// VehicleInput is a vehicle of the input.
type VehicleInput struct {
	Skills []int `json:"skills"`
}

// Instance builds and validates the instance described by the input.
func (i Input) Instance() (*Instance, error) {
	nodes := make([]*Node, len(i.Nodes))
	for k, n := range i.Nodes {
		nodes[k] = NewNode(k, n.X, n.Y, n.Service, n.Cost)
	}

	clusters := make([]*Cluster, len(i.Clusters))
	for k, c := range i.Clusters {
		members := make([]*Node, len(c.Nodes))
		for m, id := range c.Nodes {
			if id < 0 || id >= len(nodes) {
				return nil, fmt.Errorf("cluster %d: %w: node %d", k, ErrNodeIndex, id)
			}
			members[m] = nodes[id]
		}
		cluster, err := NewCluster(k, c.Profit, members)
		if err != nil {
			return nil, err
		}
		clusters[k] = cluster
	}

	vehicles := make([]*Vehicle, len(i.Vehicles))
	for k, v := range i.Vehicles {
		vehicles[k] = NewVehicle(k, v.Skills...)
	}

	cfg := Config{
		Name:       i.Name,
		Nodes:      nodes,
		Clusters:   clusters,
		Vehicles:   vehicles,
		Precedence: i.Precedence,
		TMax:       i.TMax,
	}
	if i.Distances != nil {
		if !square(i.Distances, len(nodes)) {
			return nil, fmt.Errorf("%w: want %dx%d", ErrDistanceShape, len(nodes), len(nodes))
		}
		cfg.Distance = measure.Matrix(cloneMatrix(i.Distances))
	}
	return NewInstance(cfg)
}

// Load reads a JSON instance from path. An unnamed instance is named after
// the file.
func Load(path string) (*Instance, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if in.Name == "" {
		in.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return in.Instance()
}
