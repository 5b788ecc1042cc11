// Package security decides whether an operation on an entity key is
// permitted for the current caller.
package security

import (
	"fmt"
	"strings"
)

// Operation is a gated entity operation.
type Operation string

const (
	Search  Operation = "SEARCH"
	Save    Operation = "SAVE"
	Delete  Operation = "DELETE"
	GetByID Operation = "GET_BY_ID"
	GetAll  Operation = "GET_ALL"
)

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToUpper(strings.TrimSpace(s))); op {
	case Search, Save, Delete, GetByID, GetAll:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// Kind discriminates rule variants.
type Kind int

const (
	KindAllow Kind = iota
	KindDeny
	KindAuthority
	KindDelegate
)

func (k Kind) String() string {
	switch k {
	case KindAllow:
		return "allow"
	case KindDeny:
		return "deny"
	case KindAuthority:
		return "authority"
	case KindDelegate:
		return "delegate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Rule governs one operation. Value holds the authority name for
// KindAuthority and the expression for KindDelegate.
type Rule struct {
	Operation Operation
	Kind      Kind
	Value     string
}

func Allow(op Operation) Rule { return Rule{Operation: op, Kind: KindAllow} }
func Deny(op Operation) Rule  { return Rule{Operation: op, Kind: KindDeny} }

func RequireAuthority(op Operation, authority string) Rule {
	return Rule{Operation: op, Kind: KindAuthority, Value: authority}
}

func Delegate(op Operation, expr string) Rule {
	return Rule{Operation: op, Kind: KindDelegate, Value: expr}
}

// ParseRule interprets the textual rule form: "deny" denies, a leading "@"
// delegates to the expression evaluator and anything else names the required
// authority. An empty value requires the empty authority, which nobody holds.
func ParseRule(op Operation, value string) Rule {
	value = strings.TrimSpace(value)
	switch {
	case value == "deny":
		return Deny(op)
	case strings.HasPrefix(value, "@"):
		return Delegate(op, value)
	default:
		return RequireAuthority(op, value)
	}
}

// Policy is the ordered rule set of one entity key.
type Policy struct {
	Rules []Rule
}

// NewPolicy creates a Policy. A policy with no rules allows everything.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{Rules: rules}
}

// RuleFor returns the first rule governing op.
func (p *Policy) RuleFor(op Operation) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Operation == op {
			return r, true
		}
	}
	return Rule{}, false
}
