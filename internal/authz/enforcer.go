// Package authz decides who may read and write recipes using Casbin.
//
// Reads are open to every role. Writes are granted by the admin role, or
// to the resource's author through the ownership clause of the matcher.
package authz

import (
	"fmt"
	"strconv"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/pageza/foodgram/backend/internal/models"
)

// Action is the kind of access requested
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// RoleAnonymous is the role of requests without credentials
const RoleAnonymous = "anonymous"

const modelText = `
[request_definition]
r = role, sub, owner, act

[policy_definition]
p = role, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (r.role == p.role && r.act == p.act) || (r.act == "write" && r.sub != "" && r.sub == r.owner)
`

var defaultPolicies = [][]string{
	{RoleAnonymous, string(ActionRead)},
	{string(models.RoleUser), string(ActionRead)},
	{string(models.RoleAdmin), string(ActionRead)},
	{string(models.RoleAdmin), string(ActionWrite)},
}

// Subject is the caller. The zero value is anonymous.
type Subject struct {
	UserID uint
	Role   models.Role
}

func (s Subject) role() string {
	if s.UserID == 0 {
		return RoleAnonymous
	}
	if s.Role == "" {
		return string(models.RoleUser)
	}
	return string(s.Role)
}

func (s Subject) id() string {
	if s.UserID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(s.UserID), 10)
}

// Enforcer wraps a synced casbin enforcer
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the embedded model and default policies
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	for _, p := range defaultPolicies {
		if _, err := e.AddPolicy(p[0], p[1]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	return &Enforcer{enforcer: e}, nil
}

// Can reports whether sub may perform act on a resource owned by ownerID
func (e *Enforcer) Can(sub Subject, ownerID uint, act Action) (bool, error) {
	owner := ""
	if ownerID != 0 {
		owner = strconv.FormatUint(uint64(ownerID), 10)
	}
	return e.enforcer.Enforce(sub.role(), sub.id(), owner, string(act))
}
