package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// lpWriter writes the CPLEX LP text format and the plain "name value"
// solution format read by most MILP engines.
type lpWriter struct {
	w   *bufio.Writer
	err error
}

func writeFile(path string, fn func(out io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = fn(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// writeLP writes p in LP format to out.
func writeLP(out io.Writer, p *Problem) error {
	w := &lpWriter{w: bufio.NewWriter(out)}
	w.model(p)
	return w.flush()
}

// writeSolution writes the values of res in "name value" lines to out.
func writeSolution(out io.Writer, name string, vars []VarSpec, res Result) error {
	w := &lpWriter{w: bufio.NewWriter(out)}
	w.solution(name, vars, res)
	return w.flush()
}

func (w *lpWriter) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

func (w *lpWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *lpWriter) model(p *Problem) {
	w.printf("\\ Model %s\n", p.Name)
	if p.Maximize {
		w.printf("Maximize\n")
	} else {
		w.printf("Minimize\n")
	}
	obj := make([]Coef, 0, len(p.Vars))
	for i, v := range p.Vars {
		if v.Obj != 0 {
			obj = append(obj, Coef{Var: i, Value: v.Obj})
		}
	}
	w.printf(" obj:")
	w.terms(p, obj)
	w.printf("\n")

	w.printf("Subject To\n")
	for _, r := range p.Rows {
		w.printf(" %s:", r.Name)
		w.terms(p, r.Coefs)
		if len(r.Coefs) == 0 && len(p.Vars) > 0 {
			w.printf(" 0 %s", p.Vars[0].Name)
		}
		w.printf(" %s %s\n", r.Sense, num(r.RHS))
	}

	w.printf("Bounds\n")
	for _, v := range p.Vars {
		if v.Type == Binary {
			continue
		}
		switch {
		case math.IsInf(v.UB, 1):
			w.printf(" %s >= %s\n", v.Name, num(v.LB))
		case math.IsInf(v.LB, -1):
			w.printf(" -inf <= %s <= %s\n", v.Name, num(v.UB))
		default:
			w.printf(" %s <= %s <= %s\n", num(v.LB), v.Name, num(v.UB))
		}
	}
	w.section(p, "Binaries", Binary)
	w.section(p, "Generals", Integer)
	w.printf("End\n")
}

func (w *lpWriter) section(p *Problem, title string, t VarType) {
	header := false
	for _, v := range p.Vars {
		if v.Type != t {
			continue
		}
		if !header {
			w.printf("%s\n", title)
			header = true
		}
		w.printf(" %s\n", v.Name)
	}
}

func (w *lpWriter) terms(p *Problem, coefs []Coef) {
	for i, c := range coefs {
		switch {
		case i == 0 && c.Value == 1:
			w.printf(" %s", p.Vars[c.Var].Name)
		case i == 0:
			w.printf(" %s %s", num(c.Value), p.Vars[c.Var].Name)
		case c.Value == 1:
			w.printf(" + %s", p.Vars[c.Var].Name)
		case c.Value == -1:
			w.printf(" - %s", p.Vars[c.Var].Name)
		default:
			w.printf(" %s %s", signed(c.Value), p.Vars[c.Var].Name)
		}
	}
}

func (w *lpWriter) solution(name string, vars []VarSpec, res Result) {
	w.printf("# Solution for model %s\n", name)
	w.printf("# Objective value = %s\n", num(res.Objective))
	for i, v := range vars {
		w.printf("%s %s\n", v.Name, num(res.Values[i]))
	}
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func signed(x float64) string {
	if x < 0 {
		return "- " + num(-x)
	}
	return "+ " + num(x)
}
