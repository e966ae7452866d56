package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
)

// AssertionError is returned when an assertion fails.
// It includes the final state to help debug the failure.
type AssertionError struct {
	Expr    string // The expression that failed
	Message string // Optional explanation from the scenario
	Cause   error  // Compile or runtime error, nil for a false result
	Env     map[string]any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Expr)
	if e.Message != "" {
		fmt.Fprintf(&buf, "  Message: %s\n", e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&buf, "  Error: %v\n", e.Cause)
	}
	for _, key := range []string{"state", "fields", "overrides", "stale_count", "diagnostics"} {
		if v, ok := e.Env[key]; ok {
			fmt.Fprintf(&buf, "  %s: %v\n", key, v)
		}
	}
	return buf.String()
}

func (e *AssertionError) Unwrap() error { return e.Cause }

// Evaluate compiles and runs one assertion against env. The expression
// must yield a boolean.
//
// Besides the env variables, expressions can call overridden(path), which
// reports whether path is in the overrides list.
func Evaluate(a Assertion, env map[string]any) error {
	fail := func(cause error) error {
		return &AssertionError{Expr: a.Expr, Message: a.Message, Cause: cause, Env: env}
	}
	program, err := expr.Compile(a.Expr,
		expr.Env(env),
		expr.AsBool(),
		expr.Function("overridden", overriddenFunc(env), new(func(string) bool)),
	)
	if err != nil {
		return fail(err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return fail(err)
	}
	if ok, _ := out.(bool); !ok {
		return fail(nil)
	}
	return nil
}

// EvaluateAssertions checks every assertion and returns the failure messages.
// Failing assertions do not stop evaluation of the rest.
func EvaluateAssertions(assertions []Assertion, env map[string]any) []string {
	var errs []string
	for i, a := range assertions {
		if err := Evaluate(a, env); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i+1, err))
		}
	}
	return errs
}

func overriddenFunc(env map[string]any) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		path, _ := params[0].(string)
		list, _ := env["overrides"].([]any)
		return slices.Contains(list, any(path)), nil
	}
}
