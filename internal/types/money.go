// README: Common money value object used for tier prices and revenue.
package types

import "fmt"

const CurrencyCAD = "CAD"

// Money is a whole-unit amount; tier prices have no fractional part.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func CAD(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencyCAD}
}

func (m Money) String() string {
	return fmt.Sprintf("$%d %s", m.Amount, m.Currency)
}
