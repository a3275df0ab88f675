package attributes

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mrzor/tracelog-converter/internal/events"
)

// Filter selects events with a boolean expression.
type Filter struct {
	program *vm.Program
	rawExpr string
}

// NewFilter compiles exprStr. An empty expression yields a nil Filter, which
// keeps every event.
func NewFilter(exprStr string) (*Filter, error) {
	if exprStr == "" {
		return nil, nil
	}

	program, err := expr.Compile(exprStr, expr.Env(exprEnv()), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", err)
	}

	return &Filter{
		program: program,
		rawExpr: exprStr,
	}, nil
}

// Match reports whether e passes the filter. On an evaluation error the event
// is kept and the error returned for logging.
func (f *Filter) Match(e events.Event) (bool, error) {
	if f == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, Env(e))
	if err != nil {
		return true, fmt.Errorf("failed to evaluate filter %q: %w", f.rawExpr, err)
	}

	keep, ok := output.(bool)
	if !ok {
		return true, fmt.Errorf("filter returned %T, want bool", output)
	}
	return keep, nil
}
