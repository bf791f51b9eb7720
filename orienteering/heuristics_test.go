package orienteering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/your_project/orienteering/solver"
	"example.com/your_project/orienteering/solver/simplex"
)

func TestToggle_RoundTrip(t *testing.T) {
	o := build(t, singleCluster(t), simplex.New())
	before := o.Model().NumConstrs()

	require.NoError(t, o.ToggleOff(), "toggling off while off is a no-op")
	assert.Equal(t, before, o.Model().NumConstrs())

	require.NoError(t, o.ToggleOn())
	assert.True(t, o.HeuristicsOn())
	// h_end for nodes 1 and 2, h_streak for nodes 1 and 2 of the streak.
	assert.Equal(t, 4, o.NumHeuristicConstrs())
	assert.Equal(t, before+4, o.Model().NumConstrs())

	require.NoError(t, o.ToggleOn())
	assert.Equal(t, before+4, o.Model().NumConstrs(), "second ToggleOn adds nothing")

	status, err := o.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)
	withHeuristics, err := o.Objective()
	require.NoError(t, err)

	require.NoError(t, o.ToggleOff())
	assert.False(t, o.HeuristicsOn())
	assert.Zero(t, o.NumHeuristicConstrs())
	assert.Equal(t, before, o.Model().NumConstrs())

	status, err = o.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, status)
	without, err := o.Objective()
	require.NoError(t, err)

	fresh := build(t, singleCluster(t), simplex.New())
	_, err = fresh.Optimize(context.Background())
	require.NoError(t, err)
	never, err := fresh.Objective()
	require.NoError(t, err)

	assert.InDelta(t, never, without, 1e-6)
	assert.InDelta(t, 10, withHeuristics, 1e-6)
}

func TestToggle_Names(t *testing.T) {
	o := build(t, disjointSkills(t), simplex.New())
	require.NoError(t, o.ToggleOn())
	// Single-node clusters have no early exit and no streak to complete.
	assert.Zero(t, o.NumHeuristicConstrs())

	o = build(t, singleCluster(t), simplex.New())
	require.NoError(t, o.ToggleOn())
	var names []string
	for _, c := range o.heuristics {
		name, err := o.Model().ConstrName(c)
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"h_end_1", "h_end_2", "h_streak_0_1", "h_streak_0_2"}, names)
}

func TestToggle_RelaxedCopyIsIndependent(t *testing.T) {
	o := build(t, singleCluster(t), simplex.New())
	require.NoError(t, o.ToggleOn())
	before := o.Model().NumConstrs()

	r, err := o.Relaxed()
	require.NoError(t, err)
	defer r.Dispose()
	require.NoError(t, r.ToggleOff())
	assert.Equal(t, before-4, r.Model().NumConstrs())
	assert.Equal(t, before, o.Model().NumConstrs())
	assert.True(t, o.HeuristicsOn())
}
