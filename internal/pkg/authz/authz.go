// Package authz builds the casbin enforcer that gates role-scoped actions.
//
// Policies are held in memory and loaded from configuration entries of the
// form "<role>:<object>:<action>", e.g. "admin:password:reset".
package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/samber/lo"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// ErrInvalidPolicy is returned for a policy entry that is not role:object:action.
var ErrInvalidPolicy = errors.New("authz: policy must be <role>:<object>:<action>")

// Enforcer checks whether a role may perform an action on an object.
type Enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

// NewEnforcer returns an in-memory casbin enforcer loaded with policies.
func NewEnforcer(policies []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}

	rules, err := ParsePolicies(policies)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		if _, err := e.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("authz: add policies: %w", err)
		}
	}

	return e, nil
}

// ParsePolicies converts "role:object:action" entries to casbin rules.
// Duplicates are dropped.
func ParsePolicies(policies []string) ([][]string, error) {
	rules := make([][]string, 0, len(policies))
	for _, p := range lo.Uniq(policies) {
		parts := lo.Map(strings.Split(p, ":"), func(s string, _ int) string { return strings.TrimSpace(s) })
		if len(parts) != 3 || lo.Contains(parts, "") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, p)
		}
		rules = append(rules, parts)
	}
	return rules, nil
}
