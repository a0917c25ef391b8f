package settings

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/offer-bot/internal/infra/billing"
)

const (
	DefaultBalanceType = "main"
	DefaultCurrency    = "RUB"
)

// DefaultBalances приводит балансы биллинга к виду страницы настроек.
// Нечитаемая сумма превращается в ноль, пустой список в один нулевой основной баланс.
func DefaultBalances(in []billing.Balance) []Balance {
	if len(in) == 0 {
		return []Balance{{Type: DefaultBalanceType, Amount: decimal.Zero, Currency: DefaultCurrency}}
	}

	out := make([]Balance, 0, len(in))
	for _, b := range in {
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(b.Amount), ",", "."))
		if err != nil {
			amount = decimal.Zero
		}
		typ := b.Type
		if typ == "" {
			typ = DefaultBalanceType
		}
		cur := b.Currency
		if cur == "" {
			cur = DefaultCurrency
		}
		out = append(out, Balance{Type: typ, Amount: amount, Currency: cur})
	}
	return out
}
