package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/offer-bot/internal/dialog"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/settings"
)

// userWorkspace пространство пользователя; если его нет, пользователь получает подсказку
func (b *Bot) userWorkspace(ctx context.Context, chatID, tgID int64) *workspaces.Workspace {
	u, err := b.users.GetByTelegramID(ctx, tgID)
	if err != nil {
		b.log.Error("get user failed", "tg_id", tgID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка загрузки профиля"))
		return nil
	}
	if u == nil {
		b.send(tgbotapi.NewMessage(chatID, "Сначала нажмите /start"))
		return nil
	}
	if u.WorkspaceID == "" {
		b.send(tgbotapi.NewMessage(chatID, "Выберите пространство: /workspace <id>"))
		return nil
	}
	ws, err := b.workspaces.GetByID(ctx, u.WorkspaceID)
	if err != nil {
		b.log.Error("get workspace failed", "workspace_id", u.WorkspaceID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка загрузки пространства"))
		return nil
	}
	if ws == nil {
		b.send(tgbotapi.NewMessage(chatID, "Пространство больше недоступно. Выберите другое: /workspace <id>"))
		return nil
	}
	return ws
}

// refreshBilling перечитывает оферту и тариф пространства из биллинга
func (b *Bot) refreshBilling(ctx context.Context, workspaceID string) {
	o, err := b.billing.GetOffer(ctx, workspaceID)
	if err != nil {
		b.log.Warn("get offer failed", "workspace_id", workspaceID, "err", err)
		return
	}
	b.settings.SetOffer(workspaceID, settings.Offer{ID: o.ID, Signed: o.Signed})
	if !o.Signed {
		return
	}
	t, err := b.billing.GetTariff(ctx, workspaceID)
	if err != nil {
		b.log.Warn("get tariff failed", "workspace_id", workspaceID, "err", err)
		return
	}
	b.settings.SetBalances(workspaceID, settings.DefaultBalances(t.Balances))
}

// showBilling страница биллинга; при msgID == nil новым сообщением
func (b *Bot) showBilling(ctx context.Context, chatID int64, msgID *int, ws workspaces.Workspace, refresh bool) {
	if refresh || b.settings.Get(ws.ID).Offer.ID == "" {
		b.refreshBilling(ctx, ws.ID)
	}
	s := b.settings.Get(ws.ID)
	mid := b.sendOrEdit(chatID, msgID, billingText(ws, s), billingKeyboard(s))
	b.saveLastStep(ctx, chatID, dialog.StateBilling, dialog.Payload{"ws": ws.ID}, mid)
}

func (b *Bot) showBillingByID(ctx context.Context, chatID int64, msgID int, workspaceID string, refresh bool) {
	ws, err := b.workspaces.GetByID(ctx, workspaceID)
	if err != nil || ws == nil {
		b.log.Warn("billing screen: workspace unavailable", "workspace_id", workspaceID, "err", err)
		b.editTextAndClear(chatID, msgID, "Пространство недоступно.")
		return
	}
	b.showBilling(ctx, chatID, &msgID, *ws, refresh)
}

// drawBilling перерисовывает страницу биллинга без смены состояния диалога
func (b *Bot) drawBilling(ctx context.Context, chatID int64, msgID int, workspaceID string) {
	ws, err := b.workspaces.GetByID(ctx, workspaceID)
	if err != nil || ws == nil {
		b.log.Warn("billing screen: workspace unavailable", "workspace_id", workspaceID, "err", err)
		return
	}
	s := b.settings.Get(ws.ID)
	b.sendOrEdit(chatID, &msgID, billingText(*ws, s), billingKeyboard(s))
}
