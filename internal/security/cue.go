package security

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/crudzilla/crudzilla/internal/domain"
)

// Env is the evaluation scope exposed to delegate expressions.
type Env struct {
	Key         string
	Operation   Operation
	Authorities []string
	User        string
}

// Evaluator decides delegated rules.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, env Env) (bool, error)
}

// CUEEvaluator evaluates delegate rules as CUE expressions. The expression
// sees the fields key, operation, authorities and user, for example:
//
//	@operation == "SEARCH" || len([for a in authorities if a == "ADMIN" {a}]) > 0
//
// A result that is not a concrete bool counts as a denial.
type CUEEvaluator struct{}

func NewCUEEvaluator() *CUEEvaluator { return &CUEEvaluator{} }

func (e *CUEEvaluator) Evaluate(ctx context.Context, expr string, env Env) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	src, err := cueSource(strings.TrimPrefix(strings.TrimSpace(expr), "@"), env)
	if err != nil {
		return false, err
	}

	// cue.Context is not safe for concurrent use.
	cctx := cuecontext.New()
	v := cctx.CompileString(src, cue.Filename("rule.cue"))
	if v.Err() != nil {
		return false, fmt.Errorf("%w: rule %q: %v", domain.ErrInvalidOperation, expr, v.Err())
	}
	res := v.LookupPath(cue.ParsePath("allowed"))
	if res.Err() != nil {
		return false, fmt.Errorf("%w: rule %q: %v", domain.ErrInvalidOperation, expr, res.Err())
	}
	ok, err := res.Bool()
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func cueSource(expr string, env Env) (string, error) {
	if expr == "" {
		return "", fmt.Errorf("%w: empty rule expression", domain.ErrInvalidOperation)
	}
	authorities := env.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	scope := map[string]any{
		"key":         env.Key,
		"operation":   string(env.Operation),
		"authorities": authorities,
		"user":        env.User,
	}

	var b strings.Builder
	for _, name := range []string{"key", "operation", "authorities", "user"} {
		raw, err := json.Marshal(scope[name])
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", name, err)
		}
		fmt.Fprintf(&b, "%s: %s\n", name, raw)
	}
	fmt.Fprintf(&b, "allowed: %s\n", expr)
	return b.String(), nil
}
