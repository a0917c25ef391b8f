package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/offer-bot/internal/dialog"
	"github.com/Spok95/offer-bot/internal/domain/users"
)

const helpText = "Команды:\n" +
	"/start — начать работу\n" +
	"/workspace <id> — выбрать пространство\n" +
	"/billing — тариф и оферта\n" +
	"/help — помощь"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	tgID := msg.From.ID
	switch msg.Command() {
	case "start":
		role := users.RoleMember
		if tgID == b.adminChat {
			role = users.RoleAdmin
		}
		u, err := b.users.UpsertFromTelegram(ctx, users.Telegram{
			ID:        tgID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		}, role)
		if err != nil {
			b.log.Error("upsert user failed", "tg_id", tgID, "err", err)
			b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось сохранить профиль"))
			return
		}
		_ = b.states.Reset(ctx, chatID)
		if u.WorkspaceID == "" {
			b.send(tgbotapi.NewMessage(chatID, "Привет! Выберите пространство: /workspace <id>\n\n"+helpText))
			return
		}
		b.send(tgbotapi.NewMessage(chatID, "Привет! Тариф и оферта: /billing\n\n"+helpText))
		return

	case "help":
		b.send(tgbotapi.NewMessage(chatID, helpText))
		return

	case "workspace":
		id := strings.TrimSpace(msg.CommandArguments())
		if id == "" {
			b.send(tgbotapi.NewMessage(chatID, "Укажите id пространства: /workspace <id>"))
			return
		}
		ws, err := b.workspaces.GetByID(ctx, id)
		if err != nil {
			b.log.Error("get workspace failed", "workspace_id", id, "err", err)
			b.send(tgbotapi.NewMessage(chatID, "Ошибка загрузки пространства"))
			return
		}
		if ws == nil {
			b.send(tgbotapi.NewMessage(chatID, "Пространство не найдено"))
			return
		}
		u, err := b.users.BindWorkspace(ctx, tgID, ws.ID)
		if err != nil {
			b.log.Error("bind workspace failed", "tg_id", tgID, "workspace_id", ws.ID, "err", err)
			b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось сохранить пространство"))
			return
		}
		if u == nil {
			b.send(tgbotapi.NewMessage(chatID, "Сначала нажмите /start"))
			return
		}
		b.dropOfferSession(chatID)
		b.clearPrevStep(ctx, chatID)
		_ = b.states.Reset(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Выбрано пространство «%s». Тариф и оферта: /billing", ws.Name)))
		return

	case "billing":
		ws := b.userWorkspace(ctx, chatID, tgID)
		if ws == nil {
			return
		}
		b.clearPrevStep(ctx, chatID)
		b.showBilling(ctx, chatID, nil, *ws, false)
		return

	case "acceptances":
		if chatID != b.adminChat {
			b.send(tgbotapi.NewMessage(chatID, "Доступ запрещён"))
			return
		}
		b.exportAcceptances(ctx, chatID)
		return

	default:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Наберите /help"))
		return
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("get dialog state failed", "chat_id", chatID, "err", err)
		return
	}

	switch st.State {
	case dialog.StateOfferAwaitINN, dialog.StateOfferAwaitKPP:
		b.handleOfferInput(ctx, msg, st.State)
	default:
		b.send(tgbotapi.NewMessage(chatID, helpText))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	fromChat := cb.Message.Chat.ID

	// Общая навигация
	if data == cbNavCancel {
		st, _ := b.states.Get(ctx, fromChat)
		switch st.State {
		case dialog.StateOfferAwaitINN, dialog.StateOfferAwaitKPP:
			// вернулись к форме, её сообщение не трогаем
			_ = b.states.Set(ctx, fromChat, dialog.StateOfferForm, st.Payload)
			b.editTextAndClear(fromChat, cb.Message.MessageID, "Ввод отменён.")
		default:
			_ = b.states.Reset(ctx, fromChat)
			b.editTextAndClear(fromChat, cb.Message.MessageID, "Операция отменена.")
		}
		_ = b.answerCallback(cb, "Отменено", false)
		return
	}

	switch {
	case data == cbBillingOffer:
		b.openOffer(ctx, cb)
	case data == cbBillingRefresh:
		ws := b.userWorkspace(ctx, fromChat, cb.From.ID)
		if ws != nil {
			mid := cb.Message.MessageID
			b.showBilling(ctx, fromChat, &mid, *ws, true)
		}
		_ = b.answerCallback(cb, "", false)
	case strings.HasPrefix(data, "offer:"):
		b.handleOfferCallback(ctx, cb)
	default:
		_ = b.answerCallback(cb, "", false)
	}
}
