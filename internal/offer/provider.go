package offer

import "github.com/Spok95/offer-bot/internal/domain/company"

// newSession собирает состояние одной сессии окна: значения по умолчанию из реквизитов,
// общий Store и форму поверх него. Схема статична и приходит готовой.
func newSession(schema *Schema, profile *company.Profile, props Props, deps Deps, closeModal func(*Form)) *Form {
	defaults := DefaultValues(profile)
	store := NewStore(schema, defaults)
	return newForm(store, defaults, props, deps, closeModal)
}
