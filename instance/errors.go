package instance

import "errors"

var (
	// ErrEmptyCluster is returned when a cluster is built without nodes.
	ErrEmptyCluster = errors.New("instance: cluster has no nodes")
	// ErrCoordinateMismatch is returned when the nodes of a cluster are not
	// all at the same location.
	ErrCoordinateMismatch = errors.New("instance: cluster nodes do not share coordinates")
	// ErrNegativeProfit is returned for a cluster with a profit below zero.
	ErrNegativeProfit = errors.New("instance: negative cluster profit")
	// ErrDuplicateNode is returned when a node appears twice in a cluster.
	ErrDuplicateNode = errors.New("instance: duplicate node in cluster")
	// ErrNotBound is returned when derived cluster fields are read before the
	// vehicle roster was bound with SetInstanceVehicles.
	ErrNotBound = errors.New("instance: cluster not bound to vehicles")

	ErrNodeIndex          = errors.New("instance: node ids must match their index")
	ErrTooFewNodes        = errors.New("instance: need two depots and at least one service node")
	ErrDepotInCluster     = errors.New("instance: depot inside a cluster")
	ErrUnclusteredNode    = errors.New("instance: node belongs to no cluster")
	ErrNodeInManyClusters = errors.New("instance: node belongs to more than one cluster")
	ErrPrecedenceShape    = errors.New("instance: precedence matrix has the wrong shape")
	ErrDistanceShape      = errors.New("instance: distance matrix has the wrong shape")
	ErrNonPositiveTmax    = errors.New("instance: tmax must be positive")
	ErrNoVehicles         = errors.New("instance: no vehicles")
)
