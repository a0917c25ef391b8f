package settings

import "github.com/shopspring/decimal"

type Offer struct {
	ID     string
	Signed bool
}

type Balance struct {
	Type     string
	Amount   decimal.Decimal
	Currency string
}

// Settings состояние страницы биллинга одного пространства
type Settings struct {
	Offer    Offer
	Balances []Balance
}
