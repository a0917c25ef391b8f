package company

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// GetByWorkspace возвращает nil, nil если реквизиты ещё не заполнены
func (r *Repo) GetByWorkspace(ctx context.Context, workspaceID string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT workspace_id, name, inn, kpp
		FROM companies WHERE workspace_id = $1
	`, workspaceID)

	var p Profile
	if err := row.Scan(&p.WorkspaceID, &p.Name, &p.INN, &p.KPP); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
