// README: Directory profile linked 1:1 to an identity.
package profile

import (
	"time"

	"vdrop/internal/modules/identity"
	"vdrop/internal/types"
)

type Profile struct {
	ID             types.ID      `json:"id"`
	UserID         string        `json:"user_id"`
	Email          string        `json:"email"`
	FullName       string        `json:"full_name"`
	Phone          *string       `json:"phone"`
	Role           identity.Role `json:"role"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
	MarketingEmail bool          `json:"notification_marketing_email"`
	// OrderEmail is always true; order updates are not optional.
	OrderEmail bool      `json:"notification_order_email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ListFilter struct {
	Query string
	Role  *identity.Role
}
