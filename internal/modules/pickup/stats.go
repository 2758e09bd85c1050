// README: Aggregate statistics recomputed from the current pickup set.
package pickup

import (
	"time"

	"vdrop/internal/types"
)

type Stats struct {
	Pending   int    `json:"pending_count"`
	Active    int    `json:"active_count"`
	Completed int    `json:"completed_count"`
	Cancelled int    `json:"cancelled_count"`
	Total     int    `json:"total_count"`
	Revenue   int64  `json:"total_revenue"`
	Currency  string `json:"currency"`
}

// RevenueMoney pairs the revenue sum with its currency.
func (st Stats) RevenueMoney() types.Money {
	return types.Money{Amount: st.Revenue, Currency: st.Currency}
}

// ComputeStats scans every pickup; revenue counts all statuses.
func ComputeStats(pickups []Pickup) Stats {
	st := Stats{Currency: types.CurrencyCAD}
	for _, p := range pickups {
		st.Total++
		st.Revenue += p.Price
		switch {
		case p.Status == StatusPending:
			st.Pending++
		case p.Status.IsActive():
			st.Active++
		case p.Status == StatusCompleted:
			st.Completed++
		case p.Status == StatusCancelled:
			st.Cancelled++
		}
	}
	return st
}

type CustomerStats struct {
	Total     int `json:"total"`
	ThisMonth int `json:"this_month"`
	Completed int `json:"completed"`
}

func ComputeCustomerStats(pickups []Pickup, now time.Time) CustomerStats {
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var st CustomerStats
	for _, p := range pickups {
		st.Total++
		if !p.CreatedAt.Before(startOfMonth) {
			st.ThisMonth++
		}
		if p.Status == StatusCompleted {
			st.Completed++
		}
	}
	return st
}
