package security

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/pkg/ctxutil"
)

type policySource interface {
	// PolicyFor returns domain.ErrUnknownKey for unregistered keys and a nil
	// policy for keys registered without any security configuration.
	PolicyFor(key string) (*Policy, error)
}

// Gate authorizes entity operations for the caller found in the context.
type Gate struct {
	policies policySource
	eval     Evaluator
	log      *slog.Logger
}

// NewGate creates a Gate. eval may be nil when no delegate rules are used.
func NewGate(log *slog.Logger, policies policySource, eval Evaluator) *Gate {
	return &Gate{
		policies: policies,
		eval:     eval,
		log:      log.With("component", "security"),
	}
}

// Check reports whether the caller may perform op on key.
func (g *Gate) Check(ctx context.Context, key string, op Operation) (bool, error) {
	policy, err := g.policies.PolicyFor(key)
	if err != nil {
		return false, err
	}
	if policy == nil {
		return false, fmt.Errorf("%w: no security configuration for %q", domain.ErrNotImplemented, key)
	}

	rule, ok := policy.RuleFor(op)
	if !ok {
		return true, nil
	}

	authorities := ctxutil.AuthoritiesFromCtx(ctx)

	switch rule.Kind {
	case KindAllow:
		return true, nil
	case KindDeny:
		return false, nil
	case KindAuthority:
		if len(authorities) == 0 || rule.Value == "" {
			return false, nil
		}
		return slices.Contains(authorities, rule.Value), nil
	case KindDelegate:
		if g.eval == nil {
			return false, fmt.Errorf("%w: no evaluator for rule %q", domain.ErrInvalidOperation, rule.Value)
		}
		env := Env{Key: key, Operation: op, Authorities: authorities}
		if id, ok := ctxutil.UserIDFromCtx(ctx); ok {
			env.User = id.String()
		}
		allowed, err := g.eval.Evaluate(ctx, rule.Value, env)
		if err != nil {
			g.log.WarnContext(ctx, "delegate rule failed", slog.String("key", key), slog.String("operation", string(op)), slog.String("error", err.Error()))
			return false, err
		}
		return allowed, nil
	default:
		return false, fmt.Errorf("%w: unknown rule kind %s", domain.ErrInvalidOperation, rule.Kind)
	}
}

// Require is Check that turns a denial into domain.ErrForbidden.
func (g *Gate) Require(ctx context.Context, key string, op Operation) error {
	ok, err := g.Check(ctx, key, op)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s on %q", domain.ErrForbidden, op, key)
	}
	return nil
}
