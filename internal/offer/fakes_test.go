package offer_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/domain/offers"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/offer"
	"github.com/Spok95/offer-bot/internal/settings"
)

type fakeBilling struct {
	mu        sync.Mutex
	requests  []billing.SignOfferRequest
	updateErr error
	// gate если задан, UpdateOffer ждёт значения из канала
	gate      chan error
	started   chan struct{}
	tariff    *billing.Tariff
	tariffErr error
	pdf       *billing.OfferPDF
	pdfErr    error
	pdfOffers []string
}

func (f *fakeBilling) UpdateOffer(_ context.Context, _ string, req billing.SignOfferRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		return <-gate
	}
	return f.updateErr
}

func (f *fakeBilling) GetTariff(context.Context, string) (*billing.Tariff, error) {
	if f.tariffErr != nil {
		return nil, f.tariffErr
	}
	if f.tariff == nil {
		return &billing.Tariff{}, nil
	}
	return f.tariff, nil
}

func (f *fakeBilling) GetOfferPDF(_ context.Context, offerID string) (*billing.OfferPDF, error) {
	f.mu.Lock()
	f.pdfOffers = append(f.pdfOffers, offerID)
	f.mu.Unlock()
	return f.pdf, f.pdfErr
}

func (f *fakeBilling) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeWorkspaces struct {
	m   map[string]workspaces.Workspace
	err error
}

func (f fakeWorkspaces) Map(context.Context) (map[string]workspaces.Workspace, error) {
	return f.m, f.err
}

type fakeCompanies struct {
	profile *company.Profile
	err     error
	calls   int
}

func (f *fakeCompanies) GetByWorkspace(context.Context, string) (*company.Profile, error) {
	f.calls++
	return f.profile, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeFiles struct {
	files []offer.File
	err   error
}

func (f *fakeFiles) SendFile(_ context.Context, file offer.File) error {
	if f.err != nil {
		return f.err
	}
	f.files = append(f.files, file)
	return nil
}

type event struct {
	Class, Name, Label string
}

type fakeAnalytics struct {
	mu     sync.Mutex
	events []event
}

func (f *fakeAnalytics) Click(_ context.Context, name, label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{"click", name, label})
}

func (f *fakeAnalytics) Tech(_ context.Context, name, label, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{"tech", name, label})
}

type fakeAcceptances struct {
	mu   sync.Mutex
	list []offers.Acceptance
}

func (f *fakeAcceptances) RecordAcceptance(_ context.Context, a offers.Acceptance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, a)
	return nil
}

const testWorkspace = "ws-1"

type harness struct {
	billing     *fakeBilling
	companies   *fakeCompanies
	notifier    *fakeNotifier
	files       *fakeFiles
	analytics   *fakeAnalytics
	acceptances *fakeAcceptances
	settings    *settings.Store
	changed     int
	modal       *offer.Modal
}

func newHarness(wsType workspaces.Type, profile *company.Profile) *harness {
	h := &harness{
		billing:     &fakeBilling{},
		companies:   &fakeCompanies{profile: profile},
		notifier:    &fakeNotifier{},
		files:       &fakeFiles{},
		analytics:   &fakeAnalytics{},
		acceptances: &fakeAcceptances{},
		settings:    settings.NewStore(),
	}
	h.settings.SetOffer(testWorkspace, settings.Offer{ID: "offer-7"})
	h.modal = offer.NewModal(offer.Props{
		WorkspaceID: testWorkspace,
		ChangeOffer: func() { h.changed++ },
		AcceptedBy:  42,
	}, offer.Deps{
		Billing: h.billing,
		Workspaces: fakeWorkspaces{m: map[string]workspaces.Workspace{
			testWorkspace: {ID: testWorkspace, Name: "Ромашка", Type: wsType},
		}},
		Companies:   h.companies,
		Settings:    h.settings,
		Notifier:    h.notifier,
		Files:       h.files,
		Analytics:   h.analytics,
		Acceptances: h.acceptances,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return h
}
