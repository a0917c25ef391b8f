package offers

import "time"

// Acceptance запись о принятой оферте
type Acceptance struct {
	ID          int64
	WorkspaceID string
	OfferID     string
	PaymentType string // "card" | "bill"
	INN         string
	KPP         string
	AcceptedBy  int64 // telegram id
	AcceptedAt  time.Time
}
