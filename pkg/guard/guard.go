package guard

import (
	"strings"
	"sync"
)

// Evaluator decides whether a guard expression holds for a set of values.
type Evaluator interface {
	Eval(expr string, values map[string]any) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(expr string, values map[string]any) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(expr string, values map[string]any) (bool, error) {
	return fn(expr, values)
}

// Default evaluates expressions through the package-level compile cache.
var Default Evaluator = EvaluatorFunc(Eval)

var cache sync.Map // map[string]*Expr

// Eval compiles src (memoised by source text) and evaluates it against values.
// An empty expression holds.
func Eval(src string, values map[string]any) (bool, error) {
	key := strings.TrimSpace(src)
	if key == "" {
		return true, nil
	}
	if cached, ok := cache.Load(key); ok {
		return cached.(*Expr).Eval(values)
	}
	expr, err := Compile(key)
	if err != nil {
		return false, err
	}
	cache.Store(key, expr)
	return expr.Eval(values)
}
