package dialog

type State string

const (
	StateIdle State = "idle"

	// Страница биллинга
	StateBilling State = "billing"

	// Окно оферты
	StateOfferForm     State = "offer_form"
	StateOfferAwaitINN State = "offer_await_inn" // ждём ИНН сообщением
	StateOfferAwaitKPP State = "offer_await_kpp" // ждём КПП сообщением
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
