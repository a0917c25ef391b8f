package offer

import (
	"errors"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

type schemaInput struct {
	INN              string      `validate:"required_if=BusinessStatus bill,omitempty,number,inn_len"`
	KPP              string      `validate:"omitempty,number,kpp_len"`
	RequiredPayments bool        `validate:"eq=true"`
	BusinessStatus   PaymentType `validate:"oneof=card bill"`
}

var structFields = map[string]Field{
	"INN":              FieldINN,
	"KPP":              FieldKPP,
	"RequiredPayments": FieldRequiredPayments,
	"BusinessStatus":   FieldBusinessStatus,
}

var messages = map[Field]map[string]string{
	FieldINN: {
		"required_if": "Укажите ИНН",
		"number":      "ИНН должен состоять только из цифр",
		"inn_len":     "ИНН должен содержать 10 или 12 цифр",
	},
	FieldKPP: {
		"kpp_required": "Укажите КПП",
		"number":       "КПП должен состоять только из цифр",
		"kpp_len":      "КПП должен содержать 9 цифр",
	},
	FieldRequiredPayments: {
		"eq": "Необходимо принять условия соглашения",
	},
	FieldBusinessStatus: {
		"oneof": "Выберите, кто оплачивает тариф",
	},
}

const fallbackFieldMessage = "Некорректное значение"

// Schema правила проверки формы оферты. Не имеет состояния, строится один раз.
type Schema struct {
	v *validator.Validate
}

func NewSchema() *Schema {
	v := validator.New()
	_ = v.RegisterValidation("inn_len", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(fl.Field().String())
		return n == LegalEntityINNLength || n == SoleProprietorINNLength
	})
	_ = v.RegisterValidation("kpp_len", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) == KPPLength
	})
	// у ИП нет КПП, для остальных юрлиц он обязателен
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(schemaInput)
		if in.BusinessStatus == PaymentBill && in.KPP == "" &&
			utf8.RuneCountInString(in.INN) != SoleProprietorINNLength {
			sl.ReportError(in.KPP, "KPP", "KPP", "kpp_required", "")
		}
	}, schemaInput{})
	return &Schema{v: v}
}

// Validate возвращает первую ошибку по каждому невалидному полю
func (s *Schema) Validate(v Values) map[Field]string {
	out := map[Field]string{}
	in := schemaInput{
		INN:              v.INN,
		KPP:              v.KPP,
		RequiredPayments: v.RequiredPayments,
		BusinessStatus:   v.BusinessStatus,
	}
	// реквизиты проверяются только у юрлица; у физлица они скрыты и не отправляются в расчёт
	if v.BusinessStatus != PaymentBill {
		in.INN, in.KPP = "", ""
	}
	err := s.v.Struct(in)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[FieldBusinessStatus] = fallbackFieldMessage
		return out
	}
	for _, fe := range verrs {
		f, ok := structFields[fe.StructField()]
		if !ok {
			continue
		}
		if _, seen := out[f]; seen {
			continue
		}
		msg, ok := messages[f][fe.Tag()]
		if !ok {
			msg = fallbackFieldMessage
		}
		out[f] = msg
	}
	return out
}
