package offer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/Spok95/offer-bot/internal/domain/offers"
	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/settings"
)

var (
	ErrInvalid            = errors.New("offer: form is invalid")
	ErrSubmitInFlight     = errors.New("offer: submission already in progress")
	ErrSessionClosed      = errors.New("offer: dialog already closed")
	ErrUnknownPaymentType = errors.New("offer: unknown payment type")
)

// View то, что нужно для отрисовки формы. Видимость полей лишь проекция,
// значения скрытых полей остаются в Store.
type View struct {
	PaymentType   PaymentType
	Values        Values
	Errors        map[Field]string
	ShowTaxFields bool
	KPPLocked     bool
	Submitting    bool
	CanSubmit     bool
}

// Form тело окна оферты: тип плательщика, ИНН/КПП, согласие, скачивание и отправка
type Form struct {
	store       *Store
	defaults    Values
	workspaceID string
	acceptedBy  int64
	deps        Deps
	log         *slog.Logger
	closeModal  func(*Form)
	changeOffer func()

	mu         sync.Mutex
	submitting bool
	closed     bool
	// signed оферта уже принята биллингом, повторная отправка только дочитывает тариф
	signed bool
}

func newForm(store *Store, defaults Values, props Props, deps Deps, closeModal func(*Form)) *Form {
	f := &Form{
		store:       store,
		defaults:    defaults,
		workspaceID: props.WorkspaceID,
		acceptedBy:  props.AcceptedBy,
		deps:        deps,
		log:         deps.Log.With("workspace_id", props.WorkspaceID),
		closeModal:  closeModal,
		changeOffer: props.ChangeOffer,
	}
	store.Watch(FieldINN, lockKPPForSoleProprietor)
	// начальные значения проходят через то же правило, что и ввод
	_ = store.Update(func(tx *Tx) error {
		tx.Touch(FieldINN)
		return nil
	})
	return f
}

// lockKPPForSoleProprietor у ИП нет КПП: поле очищается и блокируется.
// Сброс и проверка выполняются в одной транзакции Store, поэтому проверка
// всегда видит уже очищенный КПП.
func lockKPPForSoleProprietor(tx *Tx) {
	v := tx.Values()
	locked := utf8.RuneCountInString(v.INN) == SoleProprietorINNLength
	tx.SetReadOnly(FieldKPP, locked)
	if !locked {
		return
	}
	v.KPP = ""
	tx.Reset(v)
	tx.Trigger(FieldINN, FieldKPP)
}

func (f *Form) View() View {
	snap := f.store.Snapshot()
	f.mu.Lock()
	submitting := f.submitting
	f.mu.Unlock()
	return View{
		PaymentType:   snap.Values.BusinessStatus,
		Values:        snap.Values,
		Errors:        snap.Errors,
		ShowTaxFields: snap.Values.BusinessStatus == PaymentBill,
		KPPLocked:     snap.ReadOnly[FieldKPP],
		Submitting:    submitting,
		CanSubmit:     snap.Valid && !submitting,
	}
}

func (f *Form) PaymentType() PaymentType { return f.store.Values().BusinessStatus }

// SelectPaymentType физлицо очищает ИНН/КПП, юрлицо возвращает реквизиты компании
func (f *Form) SelectPaymentType(t PaymentType) error {
	if !f.alive() {
		return ErrSessionClosed
	}
	if !t.Valid() {
		return ErrUnknownPaymentType
	}
	return f.store.Update(func(tx *Tx) error {
		if t == PaymentCard {
			v := tx.Values()
			v.INN, v.KPP = "", ""
			tx.Reset(v)
		} else {
			tx.Reset(f.defaults)
		}
		// реквизиты могли вернуться с тем же ИНН: правило ИП должно отработать в любом случае
		tx.Touch(FieldINN)
		if err := tx.SetBusinessStatus(t); err != nil {
			return err
		}
		tx.Trigger(FieldINN, FieldKPP)
		return nil
	})
}

// SetINN ввод ИНН; длиннее ИНН ИП ввести нельзя
func (f *Form) SetINN(v string) error {
	if !f.alive() {
		return ErrSessionClosed
	}
	v = truncate(v, SoleProprietorINNLength)
	return f.store.Update(func(tx *Tx) error { return tx.SetINN(v) })
}

func (f *Form) SetKPP(v string) error {
	if !f.alive() {
		return ErrSessionClosed
	}
	v = truncate(v, KPPLength)
	return f.store.Update(func(tx *Tx) error { return tx.SetKPP(v) })
}

func (f *Form) SetRequiredPayments(v bool) error {
	if !f.alive() {
		return ErrSessionClosed
	}
	return f.store.Update(func(tx *Tx) error { return tx.SetRequiredPayments(v) })
}

func (f *Form) ToggleRequiredPayments() error {
	if !f.alive() {
		return ErrSessionClosed
	}
	return f.store.Update(func(tx *Tx) error {
		return tx.SetRequiredPayments(!tx.Values().RequiredPayments)
	})
}

// ChangeOffer передаёт управление родителю (выбор другой оферты)
func (f *Form) ChangeOffer() {
	if f.alive() && f.changeOffer != nil {
		f.changeOffer()
	}
}

// Submit принимает оферту. Ошибки сервера уходят в уведомление, окно остаётся открытым.
// Отправляется ровно тот срез значений, который прошёл проверку.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return ErrSessionClosed
	case f.submitting:
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	signed := f.signed
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	snap := f.store.Snapshot()
	if !snap.Valid {
		_ = f.store.Update(func(tx *Tx) error {
			tx.Trigger()
			return nil
		})
		return ErrInvalid
	}

	vals := snap.Values
	offerID := f.deps.Settings.Get(f.workspaceID).Offer.ID
	if !signed {
		req := billing.SignOfferRequest{
			OfferID:     offerID,
			PaymentType: vals.BusinessStatus.billing(),
		}
		// скрытые реквизиты физлица не проверялись и не отправляются
		if vals.BusinessStatus == PaymentBill {
			req.INN = vals.INN
		}
		if req.INN != "" && vals.KPP != "" {
			kpp := vals.KPP
			req.KPP = &kpp
		}
		if err := f.deps.Billing.UpdateOffer(ctx, f.workspaceID, req); err != nil {
			return f.fail(ctx, "update offer", err)
		}
		f.mu.Lock()
		f.signed = true
		f.mu.Unlock()
		f.deps.Settings.SetSigned(f.workspaceID, true)
		f.record(ctx, offerID, req)
	}

	tariff, err := f.deps.Billing.GetTariff(ctx, f.workspaceID)
	if err != nil {
		return f.fail(ctx, "get tariff", err)
	}
	f.deps.Settings.SetBalances(f.workspaceID, settings.DefaultBalances(tariff.Balances))

	if f.alive() {
		f.closeModal(f)
	}
	f.deps.Analytics.Tech(ctx, EventBillingChoiceOffer, LabelBillingChoiceOffer, "")
	f.log.Info("offer accepted", "offer_id", offerID, "payment_type", string(vals.BusinessStatus))
	return nil
}

func (f *Form) record(ctx context.Context, offerID string, req billing.SignOfferRequest) {
	if f.deps.Acceptances == nil {
		return
	}
	var kpp string
	if req.KPP != nil {
		kpp = *req.KPP
	}
	err := f.deps.Acceptances.RecordAcceptance(ctx, offers.Acceptance{
		WorkspaceID: f.workspaceID,
		OfferID:     offerID,
		PaymentType: string(paymentTypeOf(req.PaymentType)),
		INN:         req.INN,
		KPP:         kpp,
		AcceptedBy:  f.acceptedBy,
	})
	if err != nil {
		f.log.Error("record acceptance failed", "offer_id", offerID, "err", err)
	}
}

// DownloadPDF скачивает условия оферты и отдаёт файл пользователю
func (f *Form) DownloadPDF(ctx context.Context) error {
	if !f.alive() {
		return ErrSessionClosed
	}
	offerID := f.deps.Settings.Get(f.workspaceID).Offer.ID
	pdf, err := f.deps.Billing.GetOfferPDF(ctx, offerID)
	if err != nil {
		return f.fail(ctx, "get offer pdf", err)
	}
	file, err := DecodePDF(pdf.PDF, pdf.FileName)
	if err != nil {
		return f.fail(ctx, "decode offer pdf", err)
	}
	// окно закрыли, пока файл скачивался
	if !f.alive() {
		return ErrSessionClosed
	}
	if err := f.deps.Files.SendFile(ctx, file); err != nil {
		return f.fail(ctx, "send offer pdf", fmt.Errorf("send %s: %w", file.Name, err))
	}
	return nil
}

// Close кнопка «Позже»: без подтверждений. Закрывает только своё окно.
func (f *Form) Close(ctx context.Context) {
	if !f.alive() {
		return
	}
	f.deps.Analytics.Click(ctx, EventBillingCloseOffer, LabelBillingCloseOffer)
	f.closeModal(f)
}

func (f *Form) fail(ctx context.Context, op string, err error) error {
	f.log.Warn("offer action failed", "op", op, "err", err)
	if !f.alive() {
		return ErrSessionClosed
	}
	f.deps.Notifier.Notify(ctx, ErrorMessage(err))
	return err
}

func (f *Form) alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *Form) detach() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
