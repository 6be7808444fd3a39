package rig

import (
	"fmt"
	stdmath "math"

	"go.uber.org/zap"
	"gopkg.in/Knetic/govaluate.v3"

	"github.com/Faultbox/morpher/internal/logger"
)

// exprFunctions are available to percent expressions in addition to the
// govaluate operators.
var exprFunctions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(stdmath.Sin),
	"cos":   unary(stdmath.Cos),
	"abs":   unary(stdmath.Abs),
	"sqrt":  unary(stdmath.Sqrt),
	"floor": unary(stdmath.Floor),
	"min": func(args ...any) (any, error) {
		x, err := floatArgs(args, 2)
		if err != nil {
			return nil, err
		}
		return stdmath.Min(x[0], x[1]), nil
	},
	"max": func(args ...any) (any, error) {
		x, err := floatArgs(args, 2)
		if err != nil {
			return nil, err
		}
		return stdmath.Max(x[0], x[1]), nil
	},
	"clamp": func(args ...any) (any, error) {
		x, err := floatArgs(args, 3)
		if err != nil {
			return nil, err
		}
		return stdmath.Max(x[1], stdmath.Min(x[2], x[0])), nil
	},
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		x, err := floatArgs(args, 1)
		if err != nil {
			return nil, err
		}
		return fn(x[0]), nil
	}
}

func floatArgs(args []any, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("argument %d is not a number: %v", i, a)
		}
		out[i] = f
	}
	return out, nil
}

// ExprSource is a morph.PercentSource computed from an expression of the
// evaluation time t, for example "50 + 50 * sin(t)".
type ExprSource struct {
	text   string
	expr   *govaluate.EvaluableExpression
	params map[string]any
	failed bool
}

// NewExprSource compiles text. The only variable it may reference is t.
func NewExprSource(text string) (*ExprSource, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(text, exprFunctions)
	if err != nil {
		return nil, err
	}
	for _, tok := range expr.Tokens() {
		if tok.Kind == govaluate.VARIABLE && tok.Value != "t" {
			return nil, fmt.Errorf("unknown variable %v", tok.Value)
		}
	}
	return &ExprSource{text: text, expr: expr, params: map[string]any{"t": 0.0}}, nil
}

// String returns the expression text.
func (s *ExprSource) String() string { return s.text }

// Percent implements morph.PercentSource. Evaluation errors and non-numeric
// results yield 0; the first one is logged.
func (s *ExprSource) Percent(t float64) float32 {
	s.params["t"] = t
	v, err := s.expr.Evaluate(s.params)
	if err == nil {
		if f, ok := v.(float64); ok && !stdmath.IsNaN(f) {
			return float32(f)
		}
		err = fmt.Errorf("result %v is not a number", v)
	}
	if !s.failed {
		s.failed = true
		logger.Warn("percent expression failed", zap.String("expr", s.text), zap.Float64("t", t), zap.Error(err))
	}
	return 0
}
