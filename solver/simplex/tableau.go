package simplex

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// errInterrupted is returned when the stop function fires between two
// pivots.
var errInterrupted = errors.New("simplex: interrupted")

const (
	pivotTol = 1e-9
	feasTol  = 1e-7
	// blandAfter is the number of consecutive degenerate pivots after which
	// pricing falls back from Dantzig's rule to Bland's rule.
	blandAfter = 20
)

// tableau is a dense two phase simplex tableau for
//
//	min c'y  s.t.  Ay + s = b,  y, s >= 0
//
// Rows with a negative right-hand side are negated and get an artificial
// column. Row m holds the reduced costs and, in its last column, the negated
// objective value.
type tableau struct {
	t     *mat.Dense
	m, n  int
	nf    int
	art   int
	basis []int
	tol   float64
	stop  func() bool
}

func newTableau(a [][]float64, b []float64, tol float64, stop func() bool) *tableau {
	m, nf := len(a), 0
	if m > 0 {
		nf = len(a[0])
	}
	na := 0
	for _, bi := range b {
		if bi < 0 {
			na++
		}
	}
	n := nf + m + na
	tab := &tableau{
		t:     mat.NewDense(m+1, n+1, nil),
		m:     m,
		n:     n,
		nf:    nf,
		art:   nf + m,
		basis: make([]int, m),
		tol:   tol,
		stop:  stop,
	}
	k := tab.art
	for i := 0; i < m; i++ {
		row := tab.t.RawRowView(i)
		copy(row, a[i])
		row[nf+i] = 1
		row[n] = b[i]
		if b[i] < 0 {
			floats.Scale(-1, row)
			row[k] = 1
			tab.basis[i] = k
			k++
			continue
		}
		tab.basis[i] = nf + i
	}
	return tab
}

// solve minimizes cost, given over the structural columns.
func (tab *tableau) solve(cost []float64) (lpStatus, error) {
	if tab.art < tab.n {
		c := make([]float64, tab.n)
		var scale float64
		for j := tab.art; j < tab.n; j++ {
			c[j] = 1
		}
		for i, j := range tab.basis {
			if j >= tab.art {
				scale += tab.t.At(i, tab.n)
			}
		}
		tab.price(c)
		status, err := tab.optimize(tab.n)
		if err != nil {
			return 0, err
		}
		if status != lpOptimal {
			return 0, fmt.Errorf("%w: unbounded phase one", ErrNumerical)
		}
		if -tab.t.At(tab.m, tab.n) > feasTol*(1+scale) {
			return lpInfeasible, nil
		}
		tab.evictArtificials()
	}

	c := make([]float64, tab.n)
	copy(c, cost)
	tab.price(c)
	return tab.optimize(tab.art)
}

// price rewrites the objective row for cost c under the current basis.
func (tab *tableau) price(c []float64) {
	z := tab.t.RawRowView(tab.m)
	copy(z, c)
	z[tab.n] = 0
	for i, j := range tab.basis {
		if cb := c[j]; cb != 0 {
			floats.AddScaled(z, -cb, tab.t.RawRowView(i))
		}
	}
}

// optimize pivots until no column below limit has a negative reduced cost.
func (tab *tableau) optimize(limit int) (lpStatus, error) {
	maxIter := 50 * (tab.m + tab.n)
	z := tab.t.RawRowView(tab.m)
	degenerate := 0
	for iter := 0; ; iter++ {
		if tab.stop != nil && tab.stop() {
			return 0, errInterrupted
		}
		if iter >= maxIter {
			return 0, fmt.Errorf("%w: no convergence after %d pivots", ErrNumerical, iter)
		}

		bland := degenerate >= blandAfter
		q := -1
		for j := 0; j < limit; j++ {
			if z[j] >= -tab.tol {
				continue
			}
			if bland {
				q = j
				break
			}
			if q < 0 || z[j] < z[q] {
				q = j
			}
		}
		if q < 0 {
			return lpOptimal, nil
		}

		r := tab.ratio(q)
		if r < 0 {
			return lpUnbounded, nil
		}
		if tab.t.At(r, tab.n) <= tab.tol {
			degenerate++
		} else {
			degenerate = 0
		}
		tab.pivot(r, q)
	}
}

// ratio is the leaving row for entering column q, or -1 when the column is
// unbounded. Ties go to the row whose basic variable has the lowest index.
func (tab *tableau) ratio(q int) int {
	r, best := -1, math.Inf(1)
	for i := 0; i < tab.m; i++ {
		a := tab.t.At(i, q)
		if a <= pivotTol {
			continue
		}
		ratio := math.Max(tab.t.At(i, tab.n), 0) / a
		switch {
		case ratio < best-tab.tol:
			r, best = i, ratio
		case ratio <= best+tab.tol && tab.basis[i] < tab.basis[r]:
			r, best = i, math.Min(best, ratio)
		}
	}
	return r
}

func (tab *tableau) pivot(r, q int) {
	pr := tab.t.RawRowView(r)
	floats.Scale(1/pr[q], pr)
	pr[q] = 1
	for i := 0; i <= tab.m; i++ {
		if i == r {
			continue
		}
		row := tab.t.RawRowView(i)
		if f := row[q]; f != 0 {
			floats.AddScaled(row, -f, pr)
			row[q] = 0
		}
	}
	tab.basis[r] = q
}

// evictArtificials pivots basic artificials out after phase one. A row with
// nothing but artificials left is redundant and keeps its artificial at zero.
func (tab *tableau) evictArtificials() {
	for i := range tab.basis {
		if tab.basis[i] < tab.art {
			continue
		}
		row := tab.t.RawRowView(i)
		for k := 0; k < tab.art; k++ {
			if math.Abs(row[k]) > pivotTol {
				tab.pivot(i, k)
				break
			}
		}
	}
}

// values are the structural variables of the current basis.
func (tab *tableau) values() []float64 {
	y := make([]float64, tab.nf)
	for i, j := range tab.basis {
		if j < tab.nf {
			y[j] = math.Max(tab.t.At(i, tab.n), 0)
		}
	}
	return y
}
