package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/offer-bot/internal/dialog"
	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/domain/offers"
	"github.com/Spok95/offer-bot/internal/domain/users"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/infra/analytics"
	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/settings"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	log       *slog.Logger
	users     *users.Repo
	states    *dialog.Repo
	adminChat int64

	workspaces  *workspaces.Repo
	companies   *company.Cached
	acceptances *offers.Repo
	billing     *billing.Client
	settings    *settings.Store
	analytics   *analytics.Publisher
	loc         *time.Location

	mu       sync.Mutex
	sessions map[int64]*offerSession // окно оферты по чату
}

type Deps struct {
	Users       *users.Repo
	States      *dialog.Repo
	Workspaces  *workspaces.Repo
	Companies   *company.Cached
	Acceptances *offers.Repo
	Billing     *billing.Client
	Settings    *settings.Store
	Analytics   *analytics.Publisher
	// Location часовой пояс дат в выгрузках, по умолчанию UTC
	Location *time.Location
}

func New(api *tgbotapi.BotAPI, log *slog.Logger, adminChatID int64, d Deps) *Bot {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		api: api, log: log, adminChat: adminChatID,
		users: d.Users, states: d.States,
		workspaces: d.Workspaces, companies: d.Companies,
		acceptances: d.Acceptances, billing: d.Billing,
		settings: d.Settings, analytics: d.Analytics, loc: loc,
		sessions: make(map[int64]*offerSession),
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd)
			}
		}
	}
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	b.handleCallback(ctx, upd.CallbackQuery)
}
