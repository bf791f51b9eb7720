// Package solver holds the solver-agnostic model used to describe mixed
// integer linear programs. A Model stores variables, named linear constraints
// and the objective; a Backend is the engine that actually optimizes a
// snapshot of it.
package solver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDisposed is returned by every Model operation after Dispose.
	ErrDisposed = errors.New("solver: model disposed")
	// ErrUnknownVar is returned when a variable handle does not belong to
	// the model.
	ErrUnknownVar = errors.New("solver: unknown variable")
	// ErrUnknownConstr is returned when a constraint handle does not belong
	// to the model or was already removed.
	ErrUnknownConstr = errors.New("solver: unknown constraint")
	// ErrUncommittedVar is returned when a constraint references a variable
	// that was added but not yet committed with Update.
	ErrUncommittedVar = errors.New("solver: variable not committed")
	// ErrInvalidBounds is returned for a variable whose lower bound exceeds
	// its upper bound or is not finite.
	ErrInvalidBounds = errors.New("solver: invalid variable bounds")
	// ErrInvalidCoefficient is returned for a constraint with a coefficient
	// or right-hand side that is NaN or infinite.
	ErrInvalidCoefficient = errors.New("solver: invalid constraint coefficient")
	// ErrNoSolution is returned when values are queried before a successful
	// optimization.
	ErrNoSolution = errors.New("solver: no solution available")
	// ErrUnsupportedFormat is returned by Write for unknown file extensions.
	ErrUnsupportedFormat = errors.New("solver: unsupported file format")
)

// VarType is the domain of a decision variable.
type VarType int

const (
	Continuous VarType = iota
	Binary
	Integer
)

func (t VarType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return "continuous"
	}
}

// Sense is the relation between the two sides of a constraint.
type Sense int

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	default:
		return "<="
	}
}

// ObjectiveSense is the optimization direction.
type ObjectiveSense int

const (
	Minimize ObjectiveSense = iota
	Maximize
)

// Status is the outcome of an optimization.
type Status int

const (
	Unsolved Status = iota
	Optimal
	// Feasible means a solution exists but the search stopped before
	// proving optimality.
	Feasible
	Infeasible
	Unbounded
	// TimeLimit means the search stopped on its budget without any solution.
	TimeLimit
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "suboptimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case TimeLimit:
		return "time_limit"
	default:
		return "unsolved"
	}
}

// HasValues reports whether a solution with variable values is available.
func (s Status) HasValues() bool {
	return s == Optimal || s == Feasible
}

// Var is a handle to a decision variable. The zero value is not a valid
// variable.
type Var struct {
	ref int
}

// Valid reports whether v refers to a variable.
func (v Var) Valid() bool { return v.ref > 0 }

// Index is the position of the variable in its model.
func (v Var) Index() int { return v.ref - 1 }

// Constr is a handle to a named constraint.
type Constr struct {
	ref int
}

// Valid reports whether c refers to a constraint.
func (c Constr) Valid() bool { return c.ref > 0 }

// VarSpec describes a variable inside a Problem.
type VarSpec struct {
	Name string
	LB   float64
	UB   float64
	Obj  float64
	Type VarType
}

// Coef is one variable/coefficient pair of a row.
type Coef struct {
	Var   int
	Value float64
}

// Row is a constraint in normalized form: sum(Coefs) Sense RHS.
type Row struct {
	Name  string
	Coefs []Coef
	Sense Sense
	RHS   float64
}

// Problem is the immutable snapshot handed to a Backend.
type Problem struct {
	Name     string
	Maximize bool
	Vars     []VarSpec
	Rows     []Row
}

// Result is what a Backend reports back for a Problem.
type Result struct {
	Status    Status
	Objective float64
	// Bound is the best proven bound on the objective, when known.
	Bound   float64
	Values  []float64
	Nodes   int
	Runtime time.Duration
}

// Backend is an optimization engine. Implementations must not keep state
// between Solve calls that would make concurrent solves of independent
// problems unsafe.
type Backend interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (Result, error)
	Close() error
}
