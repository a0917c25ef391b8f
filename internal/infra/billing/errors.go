package billing

import "fmt"

// APIError ответ биллинга с кодом не 2xx.
// Message заполняется из поля message тела ответа, если оно есть.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("billing: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("billing: status %d", e.Status)
}
