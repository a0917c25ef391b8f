package offer

import (
	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/infra/billing"
)

const (
	// SoleProprietorINNLength длина ИНН индивидуального предпринимателя (и физлица).
	// Такой ИНН не предполагает КПП.
	SoleProprietorINNLength = 12
	LegalEntityINNLength    = 10
	KPPLength               = 9
)

type PaymentType string

const (
	PaymentCard PaymentType = "card" // физлицо
	PaymentBill PaymentType = "bill" // юрлицо
)

func (t PaymentType) Valid() bool {
	return t == PaymentCard || t == PaymentBill
}

func (t PaymentType) billing() billing.PaymentType {
	if t == PaymentBill {
		return billing.PaymentBill
	}
	return billing.PaymentCard
}

func paymentTypeOf(t billing.PaymentType) PaymentType {
	if t == billing.PaymentBill {
		return PaymentBill
	}
	return PaymentCard
}

type Field string

const (
	FieldINN              Field = "inn"
	FieldKPP              Field = "kpp"
	FieldRequiredPayments Field = "requiredPayments"
	FieldBusinessStatus   Field = "businessStatus"
)

// Values значения полей формы. Хранятся все поля, даже скрытые.
type Values struct {
	INN              string
	KPP              string
	RequiredPayments bool
	BusinessStatus   PaymentType
}

func (v Values) diff(o Values) []Field {
	var out []Field
	if v.INN != o.INN {
		out = append(out, FieldINN)
	}
	if v.KPP != o.KPP {
		out = append(out, FieldKPP)
	}
	if v.RequiredPayments != o.RequiredPayments {
		out = append(out, FieldRequiredPayments)
	}
	if v.BusinessStatus != o.BusinessStatus {
		out = append(out, FieldBusinessStatus)
	}
	return out
}

// DefaultValues начальные значения формы из реквизитов компании
func DefaultValues(p *company.Profile) Values {
	v := Values{BusinessStatus: PaymentCard}
	if p != nil {
		v.INN = p.INN
		v.KPP = p.KPP
	}
	return v
}
