package offer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/domain/offers"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/settings"
)

// Аналитика окна оферты
const (
	EventBillingCloseOffer  = "BillingCloseOffer"
	LabelBillingCloseOffer  = "billing-close-offer"
	EventBillingChoiceOffer = "BillingChoiceOffer"
	LabelBillingChoiceOffer = "billing-choice-offer"
)

// FallbackErrorMessage показывается, когда сервер не прислал текст ошибки
const FallbackErrorMessage = "Что-то пошло не так"

type Billing interface {
	UpdateOffer(ctx context.Context, workspaceID string, req billing.SignOfferRequest) error
	GetTariff(ctx context.Context, workspaceID string) (*billing.Tariff, error)
	GetOfferPDF(ctx context.Context, offerID string) (*billing.OfferPDF, error)
}

type WorkspaceLookup interface {
	Map(ctx context.Context) (map[string]workspaces.Workspace, error)
}

type CompanyFinder interface {
	GetByWorkspace(ctx context.Context, workspaceID string) (*company.Profile, error)
}

type SettingsState interface {
	Get(workspaceID string) settings.Settings
	SetSigned(workspaceID string, signed bool)
	SetBalances(workspaceID string, balances []settings.Balance)
}

type Notifier interface {
	Notify(ctx context.Context, message string)
}

type FileSink interface {
	SendFile(ctx context.Context, f File) error
}

type Analytics interface {
	Click(ctx context.Context, event, label string)
	Tech(ctx context.Context, event, label, value string)
}

type AcceptanceRecorder interface {
	RecordAcceptance(ctx context.Context, a offers.Acceptance) error
}

// Deps внешние участники окна оферты. Acceptances может быть nil.
type Deps struct {
	Billing     Billing
	Workspaces  WorkspaceLookup
	Companies   CompanyFinder
	Settings    SettingsState
	Notifier    Notifier
	Files       FileSink
	Analytics   Analytics
	Acceptances AcceptanceRecorder
	Log         *slog.Logger
}

// ErrorMessage текст для пользователя: сообщение сервера или запасной вариант
func ErrorMessage(err error) string {
	var apiErr *billing.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackErrorMessage
}
