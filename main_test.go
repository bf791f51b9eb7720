package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/your_project/orienteering/instance"
	"example.com/your_project/orienteering/orienteering"
)

func testInput() instance.Input {
	return instance.Input{
		Name: "runner",
		TMax: 100,
		Nodes: []instance.NodeInput{
			{X: 0, Y: 0},
			{X: 3, Y: 4, Service: 0, Cost: 1},
			{X: 3, Y: 4, Service: 0, Cost: 1},
			{X: 3, Y: 4, Service: 0, Cost: 1},
			{X: 0, Y: 0},
		},
		Clusters: []instance.ClusterInput{{Profit: 10, Nodes: []int{1, 2, 3}}},
		Vehicles: []instance.VehicleInput{{Skills: []int{0}}},
	}
}

func testOptions() Option {
	var opts Option
	opts.Solver.Engine = engineSimplex
	opts.Log.Level = "error"
	return opts
}

func TestSolve(t *testing.T) {
	opts := testOptions()
	opts.Model.Heuristics = true
	opts.Model.Relax = true
	opts.Output.Dir = filepath.Join(t.TempDir(), "out")

	outputs, err := solve(testInput(), opts)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	out := outputs[0]

	assert.Equal(t, "optimal", out.Status)
	assert.NotEmpty(t, out.Runtime)
	assert.InDelta(t, 10, out.Value, 1e-6)
	require.NotNil(t, out.RelaxedBound)
	assert.GreaterOrEqual(t, *out.RelaxedBound, out.Value-1e-6)

	assert.Equal(t, []orienteering.Path{{Vehicle: 0, Nodes: []int{0, 1, 2, 3, 4}}}, out.Paths)
	require.Len(t, out.Served, 1)
	assert.Equal(t, 0, out.Served[0].Cluster)

	assert.Equal(t, []clusterReport{{
		Cluster:        0,
		Profit:         10,
		MinVehicles:    1,
		MaxVehicles:    1,
		WeightedProfit: 2.5,
	}}, out.Clusters)
	assert.Equal(t, []int{0}, out.Ranking)

	want := []string{"runner.lp", "runner.sol", "runner.relaxed.lp", "runner.relaxed.sol"}
	require.Len(t, out.Artifacts, len(want))
	for k, name := range want {
		assert.Equal(t, filepath.Join(opts.Output.Dir, name), out.Artifacts[k])
		_, err := os.Stat(out.Artifacts[k])
		assert.NoError(t, err)
	}
}

func TestSolve_WithoutRelaxation(t *testing.T) {
	outputs, err := solve(testInput(), testOptions())
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Nil(t, outputs[0].RelaxedBound)
	assert.Empty(t, outputs[0].Artifacts)
}

func TestSolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  func() instance.Input
		engine string
		target error
	}{
		{
			name:   "unknown engine",
			input:  testInput,
			engine: "cplex",
		},
		{
			name: "invalid instance",
			input: func() instance.Input {
				in := testInput()
				in.TMax = 0
				return in
			},
			engine: engineSimplex,
			target: instance.ErrNonPositiveTmax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Solver.Engine = tt.engine
			_, err := solve(tt.input(), opts)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	var opts Option
	b, err := newBackend(opts)
	require.NoError(t, err)
	assert.Equal(t, engineHighs, b.Name(), "highs is the default engine")

	opts.Solver.Engine = engineSimplex
	b, err = newBackend(opts)
	require.NoError(t, err)
	assert.Equal(t, engineSimplex, b.Name())
}
