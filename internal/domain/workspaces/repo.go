package workspaces

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

// Map все активные пространства по ID
func (r *Repo) Map(ctx context.Context) (map[string]Workspace, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, type FROM workspaces WHERE NOT obsolete ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Workspace)
	for rows.Next() {
		var w Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.Type); err != nil {
			return nil, err
		}
		out[w.ID] = w
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Workspace, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, type FROM workspaces WHERE id = $1 AND NOT obsolete`, id)
	var w Workspace
	if err := row.Scan(&w.ID, &w.Name, &w.Type); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
