package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/offer-bot/internal/dialog"
	"github.com/Spok95/offer-bot/internal/infra/metrics"
	"github.com/Spok95/offer-bot/internal/offer"
)

// offerSession окно оферты одного чата и сообщение, в котором оно нарисовано
type offerSession struct {
	workspaceID string
	modal       *offer.Modal

	mu    sync.Mutex
	msgID int
	// gen растёт, когда сообщение окна занимает другой экран;
	// фоновые операции рисуют только в своём поколении
	gen int
}

func (s *offerSession) bump() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

func (s *offerSession) generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// owns сообщение всё ещё принадлежит окну, запустившему операцию
func (s *offerSession) owns(gen int) bool { return s.generation() == gen }

// submitCompletion что сделать с сообщением, когда отправка завершилась
type submitCompletion int

const (
	completionIgnore  submitCompletion = iota // окно закрыто или сообщение занято другим экраном
	completionBilling                         // оферта принята: в сообщении страница биллинга
	completionForm                            // ошибка: перерисовать форму
)

func completionFor(err error, owned bool) submitCompletion {
	switch {
	case !owned:
		return completionIgnore
	case err == nil:
		return completionBilling
	case errors.Is(err, offer.ErrSessionClosed), errors.Is(err, offer.ErrSubmitInFlight):
		return completionIgnore
	default:
		return completionForm
	}
}

// pendingView форма в состоянии отправки до того, как её увидит фоновая горутина
func pendingView(v offer.View) offer.View {
	v.Submitting = true
	v.CanSubmit = false
	return v
}

func (s *offerSession) setMsg(id int) {
	s.mu.Lock()
	s.msgID = id
	s.mu.Unlock()
}

func (s *offerSession) msg() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgID
}

// chatNotifier уведомления окна оферты уходят отдельным сообщением в чат
type chatNotifier struct {
	b      *Bot
	chatID int64
}

func (n chatNotifier) Notify(_ context.Context, message string) {
	n.b.send(tgbotapi.NewMessage(n.chatID, "⚠️ "+message))
}

// chatFiles отдаёт файл документом в чат
type chatFiles struct {
	b      *Bot
	chatID int64
}

func (f chatFiles) SendFile(_ context.Context, file offer.File) error {
	doc := tgbotapi.NewDocument(f.chatID, tgbotapi.FileBytes{
		Name:  file.Name,
		Bytes: file.Data,
	})
	doc.Caption = "Условия соглашения"
	_, err := f.b.api.Send(doc)
	return err
}

// sessionFor окно чата для пространства; при смене пространства старое закрывается
func (b *Bot) sessionFor(ctx context.Context, chatID int64, workspaceID string, acceptedBy int64) *offerSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[chatID]; ok {
		if s.workspaceID == workspaceID {
			return s
		}
		s.modal.Close()
	}

	s := &offerSession{workspaceID: workspaceID}
	s.modal = offer.NewModal(offer.Props{
		WorkspaceID: workspaceID,
		AcceptedBy:  acceptedBy,
		ChangeOffer: func() { b.changeOffer(ctx, chatID, s) },
	}, offer.Deps{
		Billing:     b.billing,
		Workspaces:  b.workspaces,
		Companies:   b.companies,
		Settings:    b.settings,
		Notifier:    chatNotifier{b: b, chatID: chatID},
		Files:       chatFiles{b: b, chatID: chatID},
		Analytics:   b.analytics.For(workspaceID),
		Acceptances: b.acceptances,
		Log:         b.log.With("chat_id", chatID),
	})
	b.sessions[chatID] = s
	return s
}

// activeOffer открытое окно чата или nil
func (b *Bot) activeOffer(chatID int64) (*offerSession, *offer.Form) {
	b.mu.Lock()
	s := b.sessions[chatID]
	b.mu.Unlock()
	if s == nil {
		return nil, nil
	}
	f := s.modal.Form()
	if f == nil {
		return nil, nil
	}
	return s, f
}

func (b *Bot) dropOfferSession(chatID int64) {
	b.mu.Lock()
	s := b.sessions[chatID]
	delete(b.sessions, chatID)
	b.mu.Unlock()
	if s != nil {
		s.bump()
		s.modal.Close()
	}
}

func (b *Bot) currentSession(chatID int64) *offerSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) openOffer(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	ws := b.userWorkspace(ctx, chatID, cb.From.ID)
	if ws == nil {
		_ = b.answerCallback(cb, "", false)
		return
	}
	s := b.sessionFor(ctx, chatID, ws.ID, cb.From.ID)
	if !s.modal.Visible() {
		metrics.ModalOpens.Inc()
		s.bump()
	}
	form := s.modal.Open(ctx)
	s.setMsg(cb.Message.MessageID)
	b.renderOffer(ctx, chatID, s, form)
	_ = b.answerCallback(cb, "", false)
}

func (b *Bot) renderOffer(ctx context.Context, chatID int64, s *offerSession, form *offer.Form) {
	mid := b.drawOffer(chatID, s, form.View())
	b.saveLastStep(ctx, chatID, dialog.StateOfferForm, dialog.Payload{"ws": s.workspaceID}, mid)
}

// drawOffer только правит сообщение, состояние диалога не трогает
func (b *Bot) drawOffer(chatID int64, s *offerSession, v offer.View) int {
	mid := s.msg()
	return b.sendOrEdit(chatID, &mid, offerText(v), offerKeyboard(v))
}

func (b *Bot) handleOfferCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	s, form := b.activeOffer(chatID)
	if form == nil {
		b.editTextAndClear(chatID, cb.Message.MessageID, "Окно оферты закрыто. Откройте /billing заново.")
		_ = b.answerCallback(cb, "Окно уже закрыто", false)
		return
	}

	switch cb.Data {
	case cbOfferCard, cbOfferBill:
		t := offer.PaymentCard
		if cb.Data == cbOfferBill {
			t = offer.PaymentBill
		}
		if err := form.SelectPaymentType(t); err != nil {
			b.log.Error("select payment type failed", "chat_id", chatID, "err", err)
		}
		b.renderOffer(ctx, chatID, s, form)
		_ = b.answerCallback(cb, "", false)

	case cbOfferINN:
		b.askOfferField(ctx, chatID, s, dialog.StateOfferAwaitINN,
			"Введите ИНН: 10 цифр для организации или 12 цифр для ИП.")
		_ = b.answerCallback(cb, "", false)

	case cbOfferKPP:
		if form.View().KPPLocked {
			_ = b.answerCallback(cb, "У ИП нет КПП, поле заполнять не нужно.", true)
			return
		}
		b.askOfferField(ctx, chatID, s, dialog.StateOfferAwaitKPP, "Введите КПП (9 цифр).")
		_ = b.answerCallback(cb, "", false)

	case cbOfferAccept:
		if err := form.ToggleRequiredPayments(); err != nil {
			b.log.Error("toggle agreement failed", "chat_id", chatID, "err", err)
		}
		b.renderOffer(ctx, chatID, s, form)
		_ = b.answerCallback(cb, "", false)

	case cbOfferPDF:
		_ = b.answerCallback(cb, "Готовим файл…", false)
		go func() {
			err := form.DownloadPDF(ctx)
			metrics.OfferDownloads.WithLabelValues(metrics.Result(err)).Inc()
		}()

	case cbOfferSubmit:
		v := form.View()
		if v.Submitting {
			_ = b.answerCallback(cb, "Уже отправляем, подождите.", true)
			return
		}
		if !v.CanSubmit {
			// покажет ошибки всех полей
			_ = form.Submit(ctx)
			b.renderOffer(ctx, chatID, s, form)
			_ = b.answerCallback(cb, "Проверьте реквизиты и примите условия соглашения.", true)
			return
		}
		_ = b.answerCallback(cb, "Подключаем…", false)
		b.drawOffer(chatID, s, pendingView(v))
		go b.submitOffer(ctx, chatID, s, form, s.generation())

	case cbOfferChange:
		_ = b.answerCallback(cb, "", false)
		form.ChangeOffer()

	case cbOfferLater:
		s.bump()
		form.Close(ctx)
		b.showBillingByID(ctx, chatID, cb.Message.MessageID, s.workspaceID, false)
		_ = b.answerCallback(cb, "", false)

	default:
		_ = b.answerCallback(cb, "", false)
	}
}

// submitOffer работает в своей горутине: пока идёт запрос, пользователь может
// закрыть окно или перейти к вводу ИНН, поэтому здесь правится только сообщение
func (b *Bot) submitOffer(ctx context.Context, chatID int64, s *offerSession, form *offer.Form, gen int) {
	err := form.Submit(ctx)
	metrics.OfferSubmissions.WithLabelValues(metrics.Result(err)).Inc()

	owned := b.currentSession(chatID) == s && s.owns(gen)
	switch completionFor(err, owned) {
	case completionBilling:
		// окно закрыто, страница биллинга показывает подписанную оферту и балансы
		b.drawBilling(ctx, chatID, s.msg(), s.workspaceID)
	case completionForm:
		if s.modal.Form() == form {
			b.drawOffer(chatID, s, form.View())
		}
	}
}

// changeOffer выбор другой оферты: окно закрывается, оферта перечитывается из биллинга
func (b *Bot) changeOffer(ctx context.Context, chatID int64, s *offerSession) {
	s.bump()
	s.modal.Close()
	b.showBillingByID(ctx, chatID, s.msg(), s.workspaceID, true)
}

func (b *Bot) askOfferField(ctx context.Context, chatID int64, s *offerSession, state dialog.State, prompt string) {
	m := tgbotapi.NewMessage(chatID, prompt)
	m.ReplyMarkup = navKeyboard(true)
	b.send(m)
	if err := b.states.Set(ctx, chatID, state, dialog.Payload{"ws": s.workspaceID, "last_mid": float64(s.msg())}); err != nil {
		b.log.Error("save dialog state failed", "chat_id", chatID, "err", err)
	}
}

// handleOfferInput текстовый ввод ИНН/КПП
func (b *Bot) handleOfferInput(ctx context.Context, msg *tgbotapi.Message, state dialog.State) {
	chatID := msg.Chat.ID
	s, form := b.activeOffer(chatID)
	if form == nil {
		_ = b.states.Reset(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, "Окно оферты закрыто. Откройте /billing заново."))
		return
	}

	// у физлица реквизитов нет: ввод, начатый до смены типа, не принимаем
	if !form.View().ShowTaxFields {
		_ = b.states.Set(ctx, chatID, dialog.StateOfferForm, dialog.Payload{"ws": s.workspaceID, "last_mid": float64(s.msg())})
		b.send(tgbotapi.NewMessage(chatID, "Реквизиты нужны только при оплате юрлицом."))
		return
	}

	text := strings.TrimSpace(msg.Text)
	var err error
	if state == dialog.StateOfferAwaitINN {
		err = form.SetINN(text)
	} else {
		err = form.SetKPP(text)
	}
	if errors.Is(err, offer.ErrReadOnly) {
		b.send(tgbotapi.NewMessage(chatID, "У ИП нет КПП, поле заполнять не нужно."))
	} else if err != nil {
		b.log.Error("offer input failed", "chat_id", chatID, "state", string(state), "err", err)
	}

	// форма уехала вверх: старые кнопки убираем, рисуем заново внизу
	b.clearPrevStep(ctx, chatID)
	v := form.View()
	mid := b.sendOrEdit(chatID, nil, offerText(v), offerKeyboard(v))
	s.setMsg(mid)
	b.saveLastStep(ctx, chatID, dialog.StateOfferForm, dialog.Payload{"ws": s.workspaceID}, mid)
}
