package offer_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/offer"
)

var legalEntity = &company.Profile{WorkspaceID: testWorkspace, Name: "ООО Ромашка", INN: "7707083893", KPP: "773601001"}

func TestForm_SelectPaymentType(t *testing.T) {
	ctx := context.Background()

	t.Run("Bill restores profile and keeps kpp editable", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, legalEntity)
		form := h.modal.Open(ctx)

		require.NoError(t, form.SelectPaymentType(offer.PaymentBill))

		v := form.View()
		assert.Equal(t, offer.PaymentBill, v.PaymentType)
		assert.True(t, v.ShowTaxFields)
		assert.Equal(t, "7707083893", v.Values.INN)
		assert.Equal(t, "773601001", v.Values.KPP)
		assert.False(t, v.KPPLocked)

		require.NoError(t, form.SetKPP("773601002"))
		assert.Equal(t, "773601002", form.View().Values.KPP)
	})

	t.Run("Card clears inn and kpp", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, legalEntity)
		form := h.modal.Open(ctx)
		require.NoError(t, form.SelectPaymentType(offer.PaymentBill))

		require.NoError(t, form.SelectPaymentType(offer.PaymentCard))

		v := form.View()
		assert.Equal(t, offer.PaymentCard, v.PaymentType)
		assert.False(t, v.ShowTaxFields)
		assert.Empty(t, v.Values.INN)
		assert.Empty(t, v.Values.KPP)
		assert.False(t, v.KPPLocked)
	})

	t.Run("Bill is idempotent", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, legalEntity)
		form := h.modal.Open(ctx)

		require.NoError(t, form.SelectPaymentType(offer.PaymentBill))
		once := form.View().Values

		for i := 0; i < 2; i++ {
			require.NoError(t, form.SelectPaymentType(offer.PaymentCard))
			require.NoError(t, form.SelectPaymentType(offer.PaymentBill))
		}
		assert.Equal(t, once, form.View().Values)
	})

	t.Run("Sole proprietor profile locks kpp", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, &company.Profile{INN: "500100732259", KPP: "773601001"})
		form := h.modal.Open(ctx)

		for i := 0; i < 2; i++ {
			require.NoError(t, form.SelectPaymentType(offer.PaymentBill))
			v := form.View()
			assert.Equal(t, "500100732259", v.Values.INN)
			assert.Empty(t, v.Values.KPP)
			assert.True(t, v.KPPLocked)
		}
	})

	t.Run("Unknown type", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, legalEntity)
		form := h.modal.Open(ctx)

		assert.ErrorIs(t, form.SelectPaymentType("cash"), offer.ErrUnknownPaymentType)
	})
}

func TestForm_SoleProprietorINN(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypeBusiness, legalEntity)
	form := h.modal.Open(ctx)
	require.NoError(t, form.SelectPaymentType(offer.PaymentBill))

	for _, inn := range []string{"500100732259", "123456789012", "000000000000"} {
		require.NoError(t, form.SetINN("7707083893"))
		require.NoError(t, form.SetKPP("773601001"))

		require.NoError(t, form.SetINN(inn))

		v := form.View()
		assert.Equal(t, inn, v.Values.INN)
		assert.Empty(t, v.Values.KPP, inn)
		assert.True(t, v.KPPLocked, inn)
		assert.ErrorIs(t, form.SetKPP("773601001"), offer.ErrReadOnly)
		assert.Empty(t, form.View().Values.KPP)
	}

	// ввод длиннее ИНН ИП обрезается
	require.NoError(t, form.SetINN("7707083893"))
	assert.False(t, form.View().KPPLocked)
	require.NoError(t, form.SetINN("5001007322591234"))
	assert.Equal(t, "500100732259", form.View().Values.INN)
	assert.True(t, form.View().KPPLocked)
}

func TestForm_SubmitGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypeBusiness, legalEntity)
	form := h.modal.Open(ctx)
	require.NoError(t, form.SelectPaymentType(offer.PaymentBill))

	assert.False(t, form.View().CanSubmit)
	assert.ErrorIs(t, form.Submit(ctx), offer.ErrInvalid)
	assert.Equal(t, 0, h.billing.calls())
	assert.Equal(t, "Необходимо принять условия соглашения", form.View().Errors[offer.FieldRequiredPayments])

	require.NoError(t, form.ToggleRequiredPayments())
	require.NoError(t, form.SetINN("77070838"))
	assert.False(t, form.View().CanSubmit)
	assert.ErrorIs(t, form.Submit(ctx), offer.ErrInvalid)

	require.NoError(t, form.SetINN("7707083893"))
	assert.True(t, form.View().CanSubmit)
}

func TestForm_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, legalEntity)
		h.billing.tariff = &billing.Tariff{Balances: []billing.Balance{{Type: "main", Amount: "990.00", Currency: "RUB"}}}
		form := h.modal.Open(ctx)
		require.NoError(t, form.SelectPaymentType(offer.PaymentBill))
		require.NoError(t, form.SetRequiredPayments(true))

		require.NoError(t, form.Submit(ctx))

		require.Len(t, h.billing.requests, 1)
		req := h.billing.requests[0]
		assert.Equal(t, "7707083893", req.INN)
		require.NotNil(t, req.KPP)
		assert.Equal(t, "773601001", *req.KPP)
		assert.Equal(t, "offer-7", req.OfferID)
		assert.Equal(t, billing.PaymentBill, req.PaymentType)

		st := h.settings.Get(testWorkspace)
		assert.True(t, st.Offer.Signed)
		require.Len(t, st.Balances, 1)
		assert.True(t, decimal.RequireFromString("990").Equal(st.Balances[0].Amount))

		assert.False(t, h.modal.Visible())
		assert.Nil(t, h.modal.Form())
		assert.Equal(t, []event{{"tech", offer.EventBillingChoiceOffer, offer.LabelBillingChoiceOffer}}, h.analytics.events)
		require.Len(t, h.acceptances.list, 1)
		assert.Equal(t, int64(42), h.acceptances.list[0].AcceptedBy)
		assert.Empty(t, h.notifier.all())
	})

	t.Run("Card omits kpp", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		form := h.modal.Open(ctx)
		require.NoError(t, form.SetRequiredPayments(true))

		require.NoError(t, form.Submit(ctx))

		require.Len(t, h.billing.requests, 1)
		assert.Nil(t, h.billing.requests[0].KPP)
		assert.Empty(t, h.billing.requests[0].INN)
		assert.Equal(t, billing.PaymentCard, h.billing.requests[0].PaymentType)
	})

	t.Run("Server message is shown and form stays", func(t *testing.T) {
		h := newHarness(workspaces.TypeBusiness, legalEntity)
		h.billing.updateErr = &billing.APIError{Status: 422, Message: "INN invalid"}
		form := h.modal.Open(ctx)
		require.NoError(t, form.SelectPaymentType(offer.PaymentBill))
		require.NoError(t, form.SetRequiredPayments(true))

		err := form.Submit(ctx)

		var apiErr *billing.APIError
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, []string{"INN invalid"}, h.notifier.all())
		assert.True(t, h.modal.Visible())
		assert.Same(t, form, h.modal.Form())
		v := form.View()
		assert.Equal(t, "7707083893", v.Values.INN)
		assert.Equal(t, "773601001", v.Values.KPP)
		assert.True(t, v.Values.RequiredPayments)
		assert.True(t, v.CanSubmit)
		assert.Empty(t, h.analytics.events)
		assert.False(t, h.settings.Get(testWorkspace).Offer.Signed)
	})

	t.Run("Transport error uses fallback", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		h.billing.tariffErr = errors.New("connection reset")
		form := h.modal.Open(ctx)
		require.NoError(t, form.SetRequiredPayments(true))

		assert.Error(t, form.Submit(ctx))
		assert.Equal(t, []string{offer.FallbackErrorMessage}, h.notifier.all())
		assert.True(t, h.modal.Visible())
	})
}

func TestForm_SubmitInFlight(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypePersonal, nil)
	h.billing.gate = make(chan error)
	h.billing.started = make(chan struct{})
	form := h.modal.Open(ctx)
	require.NoError(t, form.SetRequiredPayments(true))

	done := make(chan error, 1)
	go func() { done <- form.Submit(ctx) }()
	<-h.billing.started

	v := form.View()
	assert.True(t, v.Submitting)
	assert.False(t, v.CanSubmit)
	assert.ErrorIs(t, form.Submit(ctx), offer.ErrSubmitInFlight)

	h.billing.gate <- nil
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("submit did not finish")
	}
	assert.Equal(t, 1, h.billing.calls())
}

func TestForm_ClosedMidFlight(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypePersonal, nil)
	h.billing.gate = make(chan error)
	h.billing.started = make(chan struct{})
	form := h.modal.Open(ctx)
	require.NoError(t, form.SetRequiredPayments(true))

	done := make(chan error, 1)
	go func() { done <- form.Submit(ctx) }()
	<-h.billing.started

	form.Close(ctx)
	assert.False(t, h.modal.Visible())

	h.billing.gate <- &billing.APIError{Status: 500, Message: "boom"}
	select {
	case err := <-done:
		assert.ErrorIs(t, err, offer.ErrSessionClosed)
	case <-time.After(time.Second):
		t.Fatal("submit did not finish")
	}
	assert.Empty(t, h.notifier.all())
	assert.ErrorIs(t, form.Submit(ctx), offer.ErrSessionClosed)
}

func TestForm_DownloadPDF(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		content := []byte("%PDF-1.4 offer terms")
		h.billing.pdf = &billing.OfferPDF{PDF: base64.StdEncoding.EncodeToString(content), FileName: "offer.pdf"}
		form := h.modal.Open(ctx)

		require.NoError(t, form.DownloadPDF(ctx))

		require.Len(t, h.files.files, 1)
		assert.Equal(t, "offer.pdf", h.files.files[0].Name)
		assert.Equal(t, content, h.files.files[0].Data)
		assert.Equal(t, []string{"offer-7"}, h.billing.pdfOffers)
	})

	t.Run("Failure notifies", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		h.billing.pdfErr = &billing.APIError{Status: 404}
		form := h.modal.Open(ctx)

		assert.Error(t, form.DownloadPDF(ctx))
		assert.Equal(t, []string{offer.FallbackErrorMessage}, h.notifier.all())
		assert.Empty(t, h.files.files)
		assert.True(t, h.modal.Visible())
	})

	t.Run("Broken payload", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		h.billing.pdf = &billing.OfferPDF{PDF: "not base64!", FileName: "offer.pdf"}
		form := h.modal.Open(ctx)

		assert.Error(t, form.DownloadPDF(ctx))
		assert.Equal(t, []string{offer.FallbackErrorMessage}, h.notifier.all())
	})
}

func TestForm_Close(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypePersonal, nil)
	form := h.modal.Open(ctx)
	require.NoError(t, form.SetRequiredPayments(true))

	form.Close(ctx)

	assert.False(t, h.modal.Visible())
	assert.Nil(t, h.modal.Form())
	assert.Equal(t, []event{{"click", offer.EventBillingCloseOffer, offer.LabelBillingCloseOffer}}, h.analytics.events)
	assert.Equal(t, 0, h.billing.calls())
}

func TestForm_ChangeOffer(t *testing.T) {
	h := newHarness(workspaces.TypePersonal, nil)
	form := h.modal.Open(context.Background())

	form.ChangeOffer()

	assert.Equal(t, 1, h.changed)
}

func TestForm_ClosedFormRejectsActions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypeBusiness, legalEntity)
	h.billing.pdf = &billing.OfferPDF{PDF: base64.StdEncoding.EncodeToString([]byte("%PDF")), FileName: "offer.pdf"}
	form := h.modal.Open(ctx)
	form.Close(ctx)

	assert.ErrorIs(t, form.DownloadPDF(ctx), offer.ErrSessionClosed)
	assert.ErrorIs(t, form.SetINN("7707083893"), offer.ErrSessionClosed)
	assert.ErrorIs(t, form.SetKPP("773601001"), offer.ErrSessionClosed)
	assert.ErrorIs(t, form.SelectPaymentType(offer.PaymentBill), offer.ErrSessionClosed)
	assert.ErrorIs(t, form.SetRequiredPayments(true), offer.ErrSessionClosed)
	assert.ErrorIs(t, form.ToggleRequiredPayments(), offer.ErrSessionClosed)
	form.ChangeOffer()
	form.Close(ctx)

	assert.Empty(t, h.billing.pdfOffers)
	assert.Empty(t, h.files.files)
	assert.Empty(t, h.notifier.all())
	assert.Equal(t, 0, h.changed)
	// повторное «Позже» не шлёт второе событие
	assert.Len(t, h.analytics.events, 1)
}

func TestForm_InvalidClosedSubmit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypePersonal, nil)
	form := h.modal.Open(ctx)
	form.Close(ctx)

	assert.ErrorIs(t, form.Submit(ctx), offer.ErrSessionClosed)
	assert.Empty(t, form.View().Errors)
	assert.Equal(t, 0, h.billing.calls())
}

func TestForm_StaleFormDoesNotCloseNewSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Close", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		old := h.modal.Open(ctx)
		old.Close(ctx)
		fresh := h.modal.Open(ctx)

		old.Close(ctx)

		assert.True(t, h.modal.Visible())
		assert.Same(t, fresh, h.modal.Form())
		require.NoError(t, fresh.SetRequiredPayments(true))
		require.NoError(t, fresh.Submit(ctx))
	})

	t.Run("Late success", func(t *testing.T) {
		h := newHarness(workspaces.TypePersonal, nil)
		h.billing.gate = make(chan error)
		h.billing.started = make(chan struct{})
		old := h.modal.Open(ctx)
		require.NoError(t, old.SetRequiredPayments(true))

		done := make(chan error, 1)
		go func() { done <- old.Submit(ctx) }()
		<-h.billing.started
		h.modal.Close()
		fresh := h.modal.Open(ctx)

		h.billing.gate <- nil
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("submit did not finish")
		}

		assert.True(t, h.modal.Visible())
		assert.Same(t, fresh, h.modal.Form())
		assert.True(t, h.settings.Get(testWorkspace).Offer.Signed)
	})
}

func TestForm_RetryAfterTariffFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypePersonal, nil)
	h.billing.tariffErr = errors.New("connection reset")
	form := h.modal.Open(ctx)
	require.NoError(t, form.SetRequiredPayments(true))

	require.Error(t, form.Submit(ctx))
	assert.True(t, h.modal.Visible())
	assert.True(t, h.settings.Get(testWorkspace).Offer.Signed)

	h.billing.tariffErr = nil
	require.NoError(t, form.Submit(ctx))

	assert.Equal(t, 1, h.billing.calls())
	assert.Len(t, h.acceptances.list, 1)
	assert.False(t, h.modal.Visible())
	require.Len(t, h.settings.Get(testWorkspace).Balances, 1)
}

func TestForm_CardIgnoresHiddenTaxIDs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(workspaces.TypeBusiness, legalEntity)
	form := h.modal.Open(ctx)
	require.NoError(t, form.SetINN("12ab"))
	require.NoError(t, form.SetRequiredPayments(true))

	v := form.View()
	assert.False(t, v.ShowTaxFields)
	assert.Empty(t, v.Errors)
	assert.True(t, v.CanSubmit)

	require.NoError(t, form.Submit(ctx))
	require.Len(t, h.billing.requests, 1)
	assert.Empty(t, h.billing.requests[0].INN)
	assert.Nil(t, h.billing.requests[0].KPP)
	require.Len(t, h.acceptances.list, 1)
	assert.Equal(t, "card", h.acceptances.list[0].PaymentType)
	assert.Empty(t, h.acceptances.list[0].INN)
	assert.Empty(t, h.acceptances.list[0].KPP)
}
