// README: Roles, capability sets, and the resolved caller identity.
package identity

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

var Roles = []Role{RoleCustomer, RoleDriver, RoleAdmin}

func ParseRole(v string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == v {
			return r, true
		}
	}
	return "", false
}

// Capabilities is the normalized permission set every gate consults.
type Capabilities struct {
	CanViewAdmin     bool `json:"can_view_admin"`
	CanMutatePickups bool `json:"can_mutate_pickups"`
	CanManageUsers   bool `json:"can_manage_users"`
}

type Capability int

const (
	CapViewAdmin Capability = iota
	CapMutatePickups
	CapManageUsers
)

func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case CapViewAdmin:
		return c.CanViewAdmin
	case CapMutatePickups:
		return c.CanMutatePickups
	case CapManageUsers:
		return c.CanManageUsers
	}
	return false
}

// Actor is the caller of a service operation after resolution.
type Actor struct {
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	// ClaimRole is the provider's role custom claim. It never grants
	// capabilities; it only seeds the role of a first-login directory row.
	ClaimRole Role `json:"-"`
}

func (a Actor) Owns(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}

func (a Actor) Can(cap Capability) bool {
	return a.Capabilities.Has(cap)
}

// StoredProfile is the slice of a directory row the resolver needs.
type StoredProfile struct {
	Role      Role
	DeletedAt *time.Time
}

func (p *StoredProfile) Active() bool {
	return p != nil && p.DeletedAt == nil
}
