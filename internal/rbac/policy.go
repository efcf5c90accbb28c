package rbac

import "strings"

// Policy decides whether a portal role may perform an action. Permission
// patterns are exact strings, a bare "*" (admin), or a "prefix*" wildcard.
type Policy struct {
	perms map[string][]string
}

func NewPolicy(perms map[string][]string) *Policy {
	if perms == nil {
		perms = RolePermissions
	}
	return &Policy{perms: perms}
}

func (p *Policy) Allows(role, perm string) bool {
	for _, pat := range p.perms[role] {
		if pat == "*" || pat == perm {
			return true
		}
		if strings.HasSuffix(pat, "*") && strings.HasPrefix(perm, strings.TrimSuffix(pat, "*")) {
			return true
		}
	}
	return false
}

func (p *Policy) AllowsAny(role string, perms ...string) bool {
	for _, perm := range perms {
		if p.Allows(role, perm) {
			return true
		}
	}
	return false
}
