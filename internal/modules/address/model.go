// README: Saved pickup addresses and the served-city catalogue.
package address

import (
	"time"

	"vdrop/internal/types"
)

type City struct {
	ID    types.ID `json:"id"`
	Name  string   `json:"name"`
	State string   `json:"state"`
}

type Address struct {
	ID            types.ID  `json:"id"`
	UserID        string    `json:"user_id"`
	StreetAddress string    `json:"street_address"`
	Unit          *string   `json:"unit"`
	CityID        types.ID  `json:"city_id"`
	City          *City     `json:"city,omitempty"`
	ZipCode       string    `json:"zip_code"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}
