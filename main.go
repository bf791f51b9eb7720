// package main holds the runner of the clustered team orienteering model.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nextmv-io/sdk/run"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"example.com/your_project/orienteering/instance"
	"example.com/your_project/orienteering/orienteering"
	"example.com/your_project/orienteering/solver"
	"example.com/your_project/orienteering/solver/highs"
	"example.com/your_project/orienteering/solver/simplex"
)

// This runner reads a clustered orienteering instance, builds the mixed
// integer program where a cluster only pays its profit once every one of its
// nodes is visited, and solves it. With model.relax set, the continuous
// relaxation is solved next to it and reported as an upper bound.
func main() {
	err := run.CLI(solve).Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
}

// Engines the runner can solve with.
const (
	engineSimplex = "simplex"
	engineHighs   = "highs"
)

// The Option for the solver.
type Option struct {
	// A duration limit of 0 is treated as infinity.
	Limits struct {
		Duration time.Duration `json:"duration" default:"10s"`
	} `json:"limits"`
	Solver struct {
		Engine    string  `json:"engine" default:"highs"`
		Gap       float64 `json:"gap" default:"0"`
		NodeLimit int     `json:"node_limit" default:"0"`
	} `json:"solver"`
	Model struct {
		Heuristics bool `json:"heuristics" default:"false"`
		Relax      bool `json:"relax" default:"false"`
	} `json:"model"`
	Output struct {
		// Dir receives the .lp and .sol artifacts when set.
		Dir string `json:"dir"`
	} `json:"output"`
	Log struct {
		Level string `json:"level" default:"info"`
	} `json:"log"`
}

// Output is the output of the solver.
type Output struct {
	Status       string                      `json:"status,omitempty"`
	Runtime      string                      `json:"runtime,omitempty"`
	Value        float64                     `json:"value"`
	RelaxedBound *float64                    `json:"relaxed_bound,omitempty"`
	Paths        []orienteering.Path         `json:"paths"`
	Served       []orienteering.ClusterVisit `json:"served"`
	Clusters     []clusterReport             `json:"clusters"`
	Ranking      []int                       `json:"ranking"`
	Artifacts    []string                    `json:"artifacts,omitempty"`
}

// clusterReport holds the vehicle bounds of a cluster.
type clusterReport struct {
	Cluster        int     `json:"cluster"`
	Profit         float64 `json:"profit"`
	MinVehicles    int     `json:"min_vehicles"`
	MaxVehicles    int     `json:"max_vehicles"`
	WeightedProfit float64 `json:"weighted_profit"`
}

func solve(input instance.Input, opts Option) ([]Output, error) {
	if level, err := log.ParseLevel(opts.Log.Level); err == nil {
		log.SetLevel(level)
	}
	start := time.Now()

	inst, err := input.Instance()
	if err != nil {
		return nil, err
	}

	// The model built on backend owns it and closes it on Dispose.
	backend, err := newBackend(opts)
	if err != nil {
		return nil, err
	}

	full, err := orienteering.New(inst, backend)
	if err != nil {
		return nil, err
	}
	defer full.Dispose()

	if opts.Model.Heuristics {
		if err := full.ToggleOn(); err != nil {
			return nil, err
		}
	}

	// The relaxed copy is forked before any solve so both start from the
	// same model.
	models := []*orienteering.Orienteering{full}
	if opts.Model.Relax {
		relaxed, err := full.Relaxed()
		if err != nil {
			return nil, err
		}
		defer relaxed.Dispose()
		models = append(models, relaxed)
	}

	statuses := make([]solver.Status, len(models))
	g, ctx := errgroup.WithContext(context.Background())
	for k, m := range models {
		k, m := k, m
		g.Go(func() error {
			status, err := m.Optimize(ctx)
			statuses[k] = status
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output, err := format(full, statuses[0])
	if err != nil {
		return nil, err
	}
	output.Runtime = time.Since(start).String()

	if opts.Model.Relax && statuses[1].HasValues() {
		bound, err := models[1].Objective()
		if err != nil {
			return nil, err
		}
		output.RelaxedBound = &bound
	}

	if opts.Output.Dir != "" {
		if output.Artifacts, err = writeArtifacts(opts.Output.Dir, models, statuses); err != nil {
			return nil, err
		}
	}

	return []Output{output}, nil
}

func newBackend(opts Option) (solver.Backend, error) {
	switch opts.Solver.Engine {
	case engineSimplex:
		return simplex.New(
			simplex.WithTimeLimit(opts.Limits.Duration),
			simplex.WithNodeLimit(opts.Solver.NodeLimit),
		), nil
	case engineHighs, "":
		return highs.New(
			highs.WithDuration(opts.Limits.Duration),
			highs.WithGap(opts.Solver.Gap),
		), nil
	default:
		return nil, fmt.Errorf("unknown solver engine %q", opts.Solver.Engine)
	}
}

func format(o *orienteering.Orienteering, status solver.Status) (output Output, err error) {
	output.Status = status.String()
	output.Clusters = clusters(o.Instance())
	for _, c := range o.Instance().ClustersByWeightedProfit() {
		output.Ranking = append(output.Ranking, c.ID())
	}

	if !status.HasValues() {
		return output, errors.New("no solution found")
	}

	if output.Value, err = o.Objective(); err != nil {
		return output, err
	}
	if output.Paths, err = o.LogVehiclePaths(); err != nil {
		return output, err
	}
	if output.Served, err = o.LogVisitedClusters(); err != nil {
		return output, err
	}
	return output, nil
}

func clusters(inst *instance.Instance) []clusterReport {
	reports := make([]clusterReport, 0, inst.NumClusters())
	for _, c := range inst.Clusters() {
		// Every cluster of a built instance is bound.
		b, _ := c.Bounds()
		weighted, _ := c.WeightedProfit()
		reports = append(reports, clusterReport{
			Cluster:        c.ID(),
			Profit:         c.Profit(),
			MinVehicles:    b.Min,
			MaxVehicles:    b.Max,
			WeightedProfit: weighted,
		})
	}
	return reports
}

func writeArtifacts(dir string, models []*orienteering.Orienteering, statuses []solver.Status) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for k, m := range models {
		path, err := m.WriteModel(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
		if !statuses[k].HasValues() {
			continue
		}
		if path, err = m.WriteSolution(dir); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
