package offer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
)

// Props входные параметры окна от родителя
type Props struct {
	WorkspaceID string
	// ChangeOffer обязательный колбэк родителя
	ChangeOffer func()
	// AcceptedBy кто принимает оферту (telegram id), попадает в журнал
	AcceptedBy int64
}

// Modal окно принятия оферты. Снаружи доступны только Open и Close;
// признак видимости внутренний.
type Modal struct {
	props  Props
	deps   Deps
	schema *Schema

	mu      sync.Mutex
	visible bool
	form    *Form
}

func NewModal(props Props, deps Deps) *Modal {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Modal{
		props:  props,
		deps:   deps,
		schema: NewSchema(),
	}
}

// Open показывает окно. Реквизиты компании запрашиваются только для бизнес-пространств.
// Повторный вызов при открытом окне ничего не меняет.
func (m *Modal) Open(ctx context.Context) *Form {
	m.mu.Lock()
	if m.visible {
		f := m.form
		m.mu.Unlock()
		return f
	}
	m.mu.Unlock()

	profile := m.loadCompany(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visible {
		return m.form
	}
	m.form = newSession(m.schema, profile, m.props, m.deps, m.hideIf)
	m.visible = true
	return m.form
}

// Close скрывает окно и выбрасывает состояние формы
func (m *Modal) Close() { m.hide() }

// Form текущая форма или nil, если окно скрыто
func (m *Modal) Form() *Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

func (m *Modal) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *Modal) hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form != nil {
		m.form.detach()
	}
	m.form = nil
	m.visible = false
}

// hideIf закрывает окно, только если в нём всё ещё эта форма
func (m *Modal) hideIf(f *Form) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form != f {
		f.detach()
		return
	}
	m.form.detach()
	m.form = nil
	m.visible = false
}

func (m *Modal) isBusiness(ctx context.Context) bool {
	spaceMap, err := m.deps.Workspaces.Map(ctx)
	if err != nil {
		m.deps.Log.Warn("workspaces lookup failed", "workspace_id", m.props.WorkspaceID, "err", err)
		return false
	}
	ws, ok := spaceMap[m.props.WorkspaceID]
	return ok && ws.Type == workspaces.TypeBusiness
}

func (m *Modal) loadCompany(ctx context.Context) *company.Profile {
	if !m.isBusiness(ctx) {
		return nil
	}
	p, err := m.deps.Companies.GetByWorkspace(ctx, m.props.WorkspaceID)
	if err != nil {
		m.deps.Log.Warn("company fetch failed", "workspace_id", m.props.WorkspaceID, "err", err)
		return nil
	}
	return p
}
