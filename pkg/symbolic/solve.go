package symbolic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"electrosolve/pkg/circuit"
	"electrosolve/pkg/diag"
	"electrosolve/pkg/matrix"

	sym "github.com/njchilds90/gosymbol"
	"gonum.org/v1/gonum/mat"
)

// Solution is the outcome of substituting numeric component values into a
// formulation and resolving the remaining unknowns.
type Solution struct {
	Values          map[string]float64 // symbol name -> value, every resolved node voltage
	SubstitutedDefs map[string]sym.Expr
	SubstitutedKCL  map[string]sym.Expr
	Missing         []string // node symbols that did not resolve to a number
	Complete        bool
}

// Voltage reports the resolved potential of a node by name.
func (s *Solution) Voltage(node string) (float64, bool) {
	v, ok := s.Values[NodeSymbolName(node)]
	return v, ok
}

var errNonNumeric = errors.New("non-numeric residue in reduced system")

// Solve substitutes every component value, resolves pinned nodes from
// their explicit definitions, folds those into the KCL equations and
// solves whatever linear system is left. A singular residue fails with
// matrix.ErrSingular, same class as the numeric path; a non-numeric
// residue is the soft "incomplete" outcome: partial Values, Missing
// populated, a diagnostic recorded, no error.
func Solve(ckt *circuit.Circuit, f *Formulation, rec *diag.Recorder) (*Solution, error) {
	sol := &Solution{
		Values:          make(map[string]float64),
		SubstitutedDefs: make(map[string]sym.Expr, len(f.ExplicitDefs)),
		SubstitutedKCL:  make(map[string]sym.Expr, len(f.KCL)),
	}

	subs := make(map[string]sym.Expr, len(f.ComponentSymbols))
	for id, name := range f.ComponentSymbols {
		dev := ckt.Component(id)
		if dev == nil {
			rec.Warn("no component behind value symbol", "id", id, "symbol", name)
			continue
		}
		subs[name] = sym.NFloat(dev.GetValue())
	}

	apply := func(e sym.Expr) sym.Expr {
		for name, value := range subs {
			e = e.Sub(name, value)
		}
		return e.Simplify()
	}

	// Pinned nodes resolve directly from their definitions.
	for _, node := range sortedKeys(f.ExplicitDefs) {
		rhs := apply(f.ExplicitDefs[node])
		sol.SubstitutedDefs[node] = rhs
		if num, ok := rhs.Eval(); ok {
			nodeSym := f.NodeSymbols[node]
			sol.Values[nodeSym] = num.Float64()
			subs[nodeSym] = num
		} else {
			rec.Warn("explicit definition did not resolve to a number",
				"node", node, "expr", rhs.String())
		}
	}

	// Fold resolved voltages into the KCL equations and collect what is
	// still free.
	nodeSyms := make(map[string]struct{}, len(f.NodeSymbols))
	for _, name := range f.NodeSymbols {
		nodeSyms[name] = struct{}{}
	}

	var unknowns []string
	seen := make(map[string]struct{})
	kclNodes := sortedKeys(f.KCL)
	residue := make([]sym.Expr, 0, len(kclNodes))
	for _, node := range kclNodes {
		e := apply(f.KCL[node])
		sol.SubstitutedKCL[node] = e
		residue = append(residue, e)
		for name := range sym.FreeSymbols(e) {
			if !strings.HasPrefix(name, nodeSymbolPrefix) {
				continue
			}
			if _, isNode := nodeSyms[name]; !isNode {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			unknowns = append(unknowns, name)
		}
	}
	sort.Strings(unknowns)

	if len(unknowns) > 0 {
		values, err := solveReduced(residue, unknowns)
		switch {
		case errors.Is(err, errNonNumeric):
			rec.Warn("symbolic solve incomplete", "reason", err.Error())
		case err != nil:
			return nil, err
		default:
			for i, name := range unknowns {
				sol.Values[name] = values[i]
			}
		}
	}

	for _, node := range sortedKeys(f.NodeSymbols) {
		name := f.NodeSymbols[node]
		if _, ok := sol.Values[name]; !ok {
			sol.Missing = append(sol.Missing, name)
		}
	}
	sol.Complete = len(sol.Missing) == 0
	if !sol.Complete {
		rec.Warn("symbolic solve incomplete", "missing", strings.Join(sol.Missing, ","))
	}

	return sol, nil
}

// solveReduced treats the substituted KCL expressions as a linear system
// in the remaining node symbols: coefficients come from evaluating each
// expression with unit/zero substitutions, the dense solve from gonum.
// For this component set the residue is linear by construction.
func solveReduced(exprs []sym.Expr, unknowns []string) ([]float64, error) {
	rows, cols := len(exprs), len(unknowns)
	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)

	for i, e := range exprs {
		base, err := evalAt(e, unknowns, -1)
		if err != nil {
			return nil, err
		}
		b.SetVec(i, -base)
		for j := range unknowns {
			v, err := evalAt(e, unknowns, j)
			if err != nil {
				return nil, err
			}
			a.Set(i, j, v-base)
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: reduced nodal system is not solvable (%v)", matrix.ErrSingular, err)
	}

	out := make([]float64, cols)
	for j := range out {
		out[j] = x.AtVec(j)
	}
	return out, nil
}

// evalAt evaluates e with unknown[one] set to 1 and every other unknown
// set to 0; one < 0 zeroes them all.
func evalAt(e sym.Expr, unknowns []string, one int) (float64, error) {
	for k, name := range unknowns {
		if k == one {
			e = e.Sub(name, sym.N(1))
		} else {
			e = e.Sub(name, sym.N(0))
		}
	}
	num, ok := e.Simplify().Eval()
	if !ok {
		return 0, fmt.Errorf("%w: %s", errNonNumeric, e.String())
	}
	return num.Float64(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
