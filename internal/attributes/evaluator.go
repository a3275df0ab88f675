package attributes

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/mrzor/tracelog-converter/internal/config"
	"github.com/mrzor/tracelog-converter/internal/events"
)

// Evaluator handles compilation and evaluation of custom attribute expressions.
type Evaluator struct {
	customAttrs   []config.CustomAttribute
	compiledExprs []*vm.Program
	logger        *zap.Logger
}

// NewEvaluator creates a new attribute evaluator.
// It pre-compiles all custom attribute expressions for efficiency.
func NewEvaluator(customAttrs []config.CustomAttribute, logger *zap.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	compiledExprs := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := expr.Compile(attr.Expression, expr.Env(exprEnv()))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression for attribute %q: %w", attr.Name, err)
		}
		compiledExprs[i] = program
	}

	return &Evaluator{
		customAttrs:   customAttrs,
		compiledExprs: compiledExprs,
		logger:        logger,
	}, nil
}

// Len returns the number of custom attributes.
func (e *Evaluator) Len() int {
	if e == nil {
		return 0
	}
	return len(e.customAttrs)
}

// Evaluate computes the custom attributes of ev. Values are rendered as
// strings. A map result expands into one field per key, named
// "<attribute>.<key>" and sorted by key. Attributes failing to evaluate are
// skipped.
func (e *Evaluator) Evaluate(ev events.Event) []events.Field {
	if e.Len() == 0 {
		return nil
	}

	env := Env(ev)

	var fields []events.Field
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.compiledExprs[i], env)
		if err != nil {
			e.logger.Debug("Failed to evaluate custom attribute",
				zap.String("attribute", customAttr.Name),
				zap.Error(err))
			continue
		}

		outputValue := reflect.ValueOf(output)
		if outputValue.Kind() != reflect.Map {
			fields = append(fields, events.Field{Key: customAttr.Name, Value: fmt.Sprint(output)})
			continue
		}

		// Expand map into separate fields with dot notation
		expanded := make([]events.Field, 0, outputValue.Len())
		for _, key := range outputValue.MapKeys() {
			keyStr := fmt.Sprintf("%v", key.Interface())
			expanded = append(expanded, events.Field{
				Key:   customAttr.Name + "." + sanitizeAttributeName(keyStr),
				Value: fmt.Sprintf("%v", outputValue.MapIndex(key).Interface()),
			})
		}
		sort.Slice(expanded, func(a, b int) bool { return expanded[a].Key < expanded[b].Key })
		fields = append(fields, expanded...)
	}

	return fields
}

// sanitizeAttributeName replaces non-alphanumeric characters with underscores.
func sanitizeAttributeName(name string) string {
	result := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result[i] = c
		} else {
			result[i] = '_'
		}
	}
	return string(result)
}
