// README: AuthorizationPolicy; folds the allow-list and stored role into one capability set.
package identity

import "strings"

type Policy struct {
	allowList map[string]struct{}
}

func NewPolicy(adminEmails []string) *Policy {
	m := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			m[e] = struct{}{}
		}
	}
	return &Policy{allowList: m}
}

func (p *Policy) InAllowList(email string) bool {
	_, ok := p.allowList[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// AllowList returns the configured emails, used for admin alert fan-out.
func (p *Policy) AllowList() []string {
	out := make([]string, 0, len(p.allowList))
	for e := range p.allowList {
		out = append(out, e)
	}
	return out
}

// ResolveRole derives the effective role. A missing profile is a customer
// unless allow-listed; a soft-deleted profile is always a customer.
func (p *Policy) ResolveRole(email string, profile *StoredProfile) Role {
	if profile != nil && !profile.Active() {
		return RoleCustomer
	}
	if profile != nil && profile.Role == RoleAdmin {
		return RoleAdmin
	}
	if p.InAllowList(email) {
		return RoleAdmin
	}
	if profile != nil && profile.Role == RoleDriver {
		return RoleDriver
	}
	return RoleCustomer
}

// Resolve is the single place role and capabilities are computed.
func (p *Policy) Resolve(userID, email string, profile *StoredProfile) Actor {
	role := p.ResolveRole(email, profile)
	return Actor{
		UserID:       userID,
		Email:        strings.ToLower(email),
		Role:         role,
		Capabilities: CapabilitiesFor(role),
	}
}

func CapabilitiesFor(role Role) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{CanViewAdmin: true, CanMutatePickups: true, CanManageUsers: true}
	case RoleDriver:
		return Capabilities{CanViewAdmin: true, CanMutatePickups: true}
	default:
		return Capabilities{}
	}
}
