package billing

type PaymentType string

const (
	PaymentCard PaymentType = "CARD"
	PaymentBill PaymentType = "BILL"
)

// SignOfferRequest тело запроса на принятие оферты. KPP не отправляется для физлиц и ИП.
type SignOfferRequest struct {
	KPP         *string     `json:"kpp,omitempty"`
	INN         string      `json:"inn"`
	OfferID     string      `json:"offerId"`
	PaymentType PaymentType `json:"paymentType"`
}

type Balance struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type Tariff struct {
	Name     string    `json:"name"`
	Balances []Balance `json:"balances"`
}

// OfferPDF pdf приходит в base64
type OfferPDF struct {
	PDF      string `json:"pdf"`
	FileName string `json:"fileName"`
}

type Offer struct {
	ID     string `json:"id"`
	Signed bool   `json:"signed"`
}
