package orienteering

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"example.com/your_project/orienteering/solver"
)

const (
	// active is the threshold above which a binary counts as one.
	active = 0.5
	// nonzero is the threshold above which a value counts as used.
	nonzero = 1e-6
)

var (
	// ErrSubtour is matched by every SubtourError.
	ErrSubtour = errors.New("orienteering: subtour detected")
	// ErrIncompletePath is returned when a vehicle path stops before the end
	// depot.
	ErrIncompletePath = errors.New("orienteering: path does not reach the end depot")
)

// SubtourError reports a cycle in the solution of a vehicle. Path is the
// partial path that closed the cycle.
type SubtourError struct {
	Vehicle int
	Path    []int
}

func (e *SubtourError) Error() string {
	return fmt.Sprintf("orienteering: subtour detected for vehicle %d: %v", e.Vehicle, e.Path)
}

// Is makes errors.Is(err, ErrSubtour) hold.
func (e *SubtourError) Is(target error) bool { return target == ErrSubtour }

// Path is the node sequence of one vehicle from the start to the end depot.
type Path struct {
	Vehicle int   `json:"vehicle"`
	Nodes   []int `json:"nodes"`
}

// NodeVisit is a node of a served cluster.
type NodeVisit struct {
	Node        int     `json:"node"`
	Visited     bool    `json:"visited"`
	Predecessor int     `json:"predecessor"`
	Arrival     float64 `json:"arrival"`
}

// ClusterVisit is a served cluster.
type ClusterVisit struct {
	Cluster int         `json:"cluster"`
	Profit  float64     `json:"profit"`
	Nodes   []NodeVisit `json:"nodes"`
}

func (o *Orienteering) value(v solver.Var) (float64, error) {
	return o.model.Value(v)
}

func (o *Orienteering) isActive(v, i, j int) (bool, error) {
	if !o.isArc(i, j) {
		return false, nil
	}
	val, err := o.value(o.x[v][i][j])
	if err != nil {
		return false, err
	}
	return val > active, nil
}

// VehiclePaths follows, for every vehicle, the active arcs from the start
// depot to the end depot. Revisiting a node, or an active arc left over that
// is not on the path, fails with a SubtourError.
func (o *Orienteering) VehiclePaths() ([]Path, error) {
	if o.err != nil {
		return nil, o.err
	}
	paths := make([]Path, 0, len(o.x))
	for v := range o.x {
		p, err := o.vehiclePath(v)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (o *Orienteering) vehiclePath(v int) (Path, error) {
	n := o.inst.NumNodes()
	end := n - 1
	onPath := make([]bool, n)
	path := []int{0}
	onPath[0] = true

	for cur := 0; cur != end; {
		next, err := o.successor(v, cur)
		if err != nil {
			return Path{}, err
		}
		if next < 0 {
			return Path{}, fmt.Errorf("%w: vehicle %d stops at node %d", ErrIncompletePath, v, cur)
		}
		path = append(path, next)
		if onPath[next] {
			return Path{}, &SubtourError{Vehicle: v, Path: path}
		}
		onPath[next] = true
		cur = next
	}

	// Any active arc leaving a node off the path belongs to a cycle that
	// never touches the depot.
	for i := 1; i < end; i++ {
		if onPath[i] {
			continue
		}
		next, err := o.successor(v, i)
		if err != nil {
			return Path{}, err
		}
		if next >= 0 {
			return Path{}, &SubtourError{Vehicle: v, Path: o.cycleFrom(v, i)}
		}
	}
	return Path{Vehicle: v, Nodes: path}, nil
}

// successor is the first node reached over an active arc of v from i, or -1.
func (o *Orienteering) successor(v, i int) (int, error) {
	for j := range o.x[v][i] {
		ok, err := o.isActive(v, i, j)
		if err != nil {
			return -1, err
		}
		if ok {
			return j, nil
		}
	}
	return -1, nil
}

// cycleFrom walks active arcs of v from start until a node repeats.
func (o *Orienteering) cycleFrom(v, start int) []int {
	seen := map[int]bool{start: true}
	path := []int{start}
	for cur := start; ; {
		next, err := o.successor(v, cur)
		if err != nil || next < 0 {
			return path
		}
		path = append(path, next)
		if seen[next] {
			return path
		}
		seen[next] = true
		cur = next
	}
}

// LogVehiclePaths decodes the vehicle paths and logs each of them.
func (o *Orienteering) LogVehiclePaths() ([]Path, error) {
	paths, err := o.VehiclePaths()
	if err != nil {
		entry := o.log.WithError(err)
		var sub *SubtourError
		if errors.As(err, &sub) {
			entry = entry.WithFields(log.Fields{"vehicle": sub.Vehicle, "path": sub.Path})
		}
		entry.Error("decoding vehicle paths")
		return nil, err
	}
	for _, p := range paths {
		o.log.WithFields(log.Fields{"vehicle": p.Vehicle, "path": p.Nodes}).Info("vehicle path")
	}
	return paths, nil
}

// IsVisited reports whether any arc into node i carries flow.
func (o *Orienteering) IsVisited(i int) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	for v := range o.x {
		for k := range o.x[v] {
			if !o.isArc(k, i) {
				continue
			}
			val, err := o.value(o.x[v][k][i])
			if err != nil {
				return false, err
			}
			if val > nonzero {
				return true, nil
			}
		}
	}
	return false, nil
}

// PreviousNode is the node from which i is entered in the solution.
func (o *Orienteering) PreviousNode(i int) (int, bool, error) {
	if o.err != nil {
		return 0, false, o.err
	}
	for v := range o.x {
		for k := range o.x[v] {
			ok, err := o.isActive(v, k, i)
			if err != nil {
				return 0, false, err
			}
			if ok {
				return k, true, nil
			}
		}
	}
	return 0, false, nil
}

// VisitedClusters reports every served cluster with, per node, whether it is
// entered, from where, and the arrival time on that arc.
func (o *Orienteering) VisitedClusters() ([]ClusterVisit, error) {
	if o.err != nil {
		return nil, o.err
	}
	var out []ClusterVisit
	for c, cluster := range o.inst.Clusters() {
		y, err := o.value(o.y[c])
		if err != nil {
			return nil, err
		}
		if y <= active {
			continue
		}
		visit := ClusterVisit{Cluster: c, Profit: cluster.Profit()}
		for _, node := range cluster.Nodes() {
			i := node.ID()
			nv := NodeVisit{Node: i, Predecessor: -1}
			if nv.Visited, err = o.IsVisited(i); err != nil {
				return nil, err
			}
			pred, ok, err := o.PreviousNode(i)
			if err != nil {
				return nil, err
			}
			if ok {
				nv.Predecessor = pred
				if nv.Arrival, err = o.value(o.z[pred][i]); err != nil {
					return nil, err
				}
			}
			visit.Nodes = append(visit.Nodes, nv)
		}
		out = append(out, visit)
	}
	return out, nil
}

// LogVisitedClusters decodes the served clusters and logs each node.
func (o *Orienteering) LogVisitedClusters() ([]ClusterVisit, error) {
	visits, err := o.VisitedClusters()
	if err != nil {
		o.log.WithError(err).Error("decoding visited clusters")
		return nil, err
	}
	for _, cv := range visits {
		for _, nv := range cv.Nodes {
			o.log.WithFields(log.Fields{
				"cluster":     cv.Cluster,
				"node":        nv.Node,
				"visited":     nv.Visited,
				"predecessor": nv.Predecessor,
				"arrival":     nv.Arrival,
			}).Info("cluster node")
		}
	}
	return visits, nil
}
