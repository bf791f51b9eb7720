// Package instance holds the entities of a clustered orienteering problem:
// service nodes, skilled vehicles, clusters of co-located nodes and the
// instance tying them to a distance function and a time budget.
package instance

import "github.com/nextmv-io/sdk/measure"

// Node is a service point. Node 0 is the start depot and the last node of an
// instance is the end depot.
type Node struct {
	id      int
	x, y    float64
	service int
	cost    float64
}

// NewNode creates a node with the given service type and service duration.
func NewNode(id int, x, y float64, service int, cost float64) *Node {
	return &Node{id: id, x: x, y: y, service: service, cost: cost}
}

func (n *Node) ID() int { return n.id }
func (n *Node) X() float64 { return n.x }
func (n *Node) Y() float64 { return n.y }
func (n *Node) Service() int { return n.service }

// Cost is the service duration spent at the node.
func (n *Node) Cost() float64 { return n.cost }

// Point is the node location as a measure point.
func (n *Node) Point() measure.Point {
	return measure.Point{n.x, n.y}
}

// SameLocation reports whether both nodes have identical coordinates.
func (n *Node) SameLocation(o *Node) bool {
	return n.x == o.x && n.y == o.y
}
