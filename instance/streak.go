package instance

// Streak is a run of consecutive cluster nodes a single vehicle can serve
// back to back. Nodes keep the order they have in the cluster.
type Streak struct {
	vehicle   *Vehicle
	clusterID int
	nodes     []*Node
	// pos[k] is the position of nodes[k] inside the cluster.
	pos []int
}

func (s *Streak) Vehicle() *Vehicle { return s.vehicle }
func (s *Streak) ClusterID() int { return s.clusterID }
func (s *Streak) Len() int { return len(s.nodes) }
func (s *Streak) IsEmpty() bool { return len(s.nodes) == 0 }

// Nodes returns a copy of the streak nodes.
func (s *Streak) Nodes() []*Node {
	out := make([]*Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Start is the cluster position of the first node, or -1 when empty.
func (s *Streak) Start() int {
	if len(s.pos) == 0 {
		return -1
	}
	return s.pos[0]
}

// Contains reports whether the node with the given id is in the streak.
func (s *Streak) Contains(nodeID int) bool {
	for _, n := range s.nodes {
		if n.id == nodeID {
			return true
		}
	}
	return false
}

// Remove drops the given nodes from the streak, keeping the order of the
// rest.
func (s *Streak) Remove(nodes ...*Node) {
	if len(nodes) == 0 || len(s.nodes) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(nodes))
	for _, n := range nodes {
		drop[n.id] = struct{}{}
	}
	kept, keptPos := s.nodes[:0], s.pos[:0]
	for k, n := range s.nodes {
		if _, ok := drop[n.id]; ok {
			continue
		}
		kept = append(kept, n)
		keptPos = append(keptPos, s.pos[k])
	}
	s.nodes, s.pos = kept, keptPos
}

// RemoveAll drops every node of other from s.
func (s *Streak) RemoveAll(other *Streak) {
	s.Remove(other.nodes...)
}

// Equal reports whether both streaks belong to the same vehicle and cluster
// and hold the same node sequence.
func (s *Streak) Equal(o *Streak) bool {
	if s.vehicle.id != o.vehicle.id || s.clusterID != o.clusterID || len(s.nodes) != len(o.nodes) {
		return false
	}
	for k := range s.nodes {
		if s.nodes[k].id != o.nodes[k].id {
			return false
		}
	}
	return true
}

// Precedes reports whether s starts at an earlier cluster position than o.
// Streaks starting at the same position are ordered by vehicle id.
func (s *Streak) Precedes(o *Streak) bool {
	if s.Start() != o.Start() {
		return s.Start() < o.Start()
	}
	return s.vehicle.id < o.vehicle.id
}
