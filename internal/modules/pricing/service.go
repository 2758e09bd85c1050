// README: Pricing service resolves the fixed price of a service tier.
package pricing

import (
	"context"
	"errors"

	"vdrop/internal/types"
)

var ErrUnknownTier = errors.New("unknown service tier")

type Service struct {
	rates map[Tier]types.Money
}

func NewService(rates []Rate) *Service {
	m := make(map[Tier]types.Money, len(rates))
	for _, r := range rates {
		m[r.Tier] = r.Price
	}
	return &Service{rates: m}
}

func (s *Service) Quote(_ context.Context, tier string) (types.Money, error) {
	price, ok := s.rates[Tier(tier)]
	if !ok {
		return types.Money{}, ErrUnknownTier
	}
	return price, nil
}

func (s *Service) Rates() []Rate {
	out := make([]Rate, 0, len(s.rates))
	for _, tier := range []Tier{TierStandard, TierPremium} {
		if p, ok := s.rates[tier]; ok {
			out = append(out, Rate{Tier: tier, Price: p})
		}
	}
	return out
}
