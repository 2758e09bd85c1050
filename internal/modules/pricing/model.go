// README: Service tier rate table.
package pricing

import "vdrop/internal/types"

type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Rate is a flat per-pickup price; there is no distance or size component.
type Rate struct {
	Tier  Tier        `json:"tier"`
	Price types.Money `json:"price"`
}

// DefaultRates is the published price list.
var DefaultRates = []Rate{
	{Tier: TierStandard, Price: types.CAD(7)},
	{Tier: TierPremium, Price: types.CAD(15)},
}
