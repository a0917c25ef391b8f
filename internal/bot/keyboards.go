package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/offer"
	"github.com/Spok95/offer-bot/internal/settings"
)

const (
	cbBillingOffer   = "bill:offer"
	cbBillingRefresh = "bill:refresh"

	cbOfferCard   = "offer:pay:card"
	cbOfferBill   = "offer:pay:bill"
	cbOfferINN    = "offer:inn"
	cbOfferKPP    = "offer:kpp"
	cbOfferAccept = "offer:accept"
	cbOfferPDF    = "offer:pdf"
	cbOfferSubmit = "offer:submit"
	cbOfferChange = "offer:change"
	cbOfferLater  = "offer:later"

	cbNavCancel = "nav:cancel"
)

func navKeyboard(cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", cbNavCancel))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func billingKeyboard(s settings.Settings) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if s.Offer.ID != "" && !s.Offer.Signed {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Подключить тариф", cbBillingOffer),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", cbBillingRefresh),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func billingText(ws workspaces.Workspace, s settings.Settings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Биллинг: %s</b>\n\n", html.EscapeString(ws.Name))
	switch {
	case s.Offer.ID == "":
		sb.WriteString("Оферта пока недоступна.\n")
	default:
		fmt.Fprintf(&sb, "Оферта %s: %s\n", html.EscapeString(s.Offer.ID), badge(s.Offer.Signed))
	}
	if len(s.Balances) > 0 {
		sb.WriteString("\nБалансы:\n")
		for _, bl := range s.Balances {
			fmt.Fprintf(&sb, "• %s: %s %s\n", html.EscapeString(bl.Type), bl.Amount.StringFixed(2), html.EscapeString(bl.Currency))
		}
	}
	return sb.String()
}

func radio(on bool) string {
	if on {
		return "🔘"
	}
	return "⚪️"
}

func checkbox(on bool) string {
	if on {
		return "☑️"
	}
	return "⬜️"
}

func offerKeyboard(v offer.View) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(radio(v.PaymentType == offer.PaymentCard)+" Физлицо", cbOfferCard),
			tgbotapi.NewInlineKeyboardButtonData(radio(v.PaymentType == offer.PaymentBill)+" Юрлицо", cbOfferBill),
		),
	}
	if v.ShowTaxFields {
		kpp := "✏️ КПП"
		if v.KPPLocked {
			kpp = "🔒 КПП"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ ИНН", cbOfferINN),
			tgbotapi.NewInlineKeyboardButtonData(kpp, cbOfferKPP),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(checkbox(v.Values.RequiredPayments)+" Я принимаю", cbOfferAccept),
			tgbotapi.NewInlineKeyboardButtonData("📄 условия соглашения", cbOfferPDF),
		),
	)

	submit := "Подключить"
	switch {
	case v.Submitting:
		submit = "⏳ Подключаем…"
	case !v.CanSubmit:
		submit = "🚫 Подключить"
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(submit, cbOfferSubmit),
			tgbotapi.NewInlineKeyboardButtonData("Позже", cbOfferLater),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Выбрать другую оферту", cbOfferChange),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func offerText(v offer.View) string {
	var sb strings.Builder
	sb.WriteString("<b>Подключение тарифа</b>\n\n")
	if v.PaymentType == offer.PaymentBill {
		sb.WriteString("Оплата по счёту от юридического лица или ИП. Укажите реквизиты плательщика.\n\n")
		fmt.Fprintf(&sb, "ИНН: %s\n", valueOrDash(v.Values.INN))
		writeFieldError(&sb, v.Errors[offer.FieldINN])
		if v.KPPLocked {
			sb.WriteString("КПП: не требуется для ИП 🔒\n")
		} else {
			fmt.Fprintf(&sb, "КПП: %s\n", valueOrDash(v.Values.KPP))
		}
		writeFieldError(&sb, v.Errors[offer.FieldKPP])
	} else {
		sb.WriteString("Оплата банковской картой физического лица.\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s Я принимаю условия соглашения\n", checkbox(v.Values.RequiredPayments))
	writeFieldError(&sb, v.Errors[offer.FieldRequiredPayments])
	writeFieldError(&sb, v.Errors[offer.FieldBusinessStatus])
	return sb.String()
}

func valueOrDash(s string) string {
	if s == "" {
		return "—"
	}
	return "<code>" + html.EscapeString(s) + "</code>"
}

func writeFieldError(sb *strings.Builder, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(sb, "⚠️ %s\n", html.EscapeString(msg))
}
