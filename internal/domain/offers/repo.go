package offers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) RecordAcceptance(ctx context.Context, a Acceptance) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO offer_acceptances (workspace_id, offer_id, payment_type, inn, kpp, accepted_by)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, a.WorkspaceID, a.OfferID, a.PaymentType, a.INN, a.KPP, a.AcceptedBy)
	return err
}

// ListAcceptances последние принятия, новые сверху
func (r *Repo) ListAcceptances(ctx context.Context, limit int) ([]Acceptance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, offer_id, payment_type, inn, kpp, accepted_by, accepted_at
		FROM offer_acceptances
		ORDER BY accepted_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Acceptance
	for rows.Next() {
		var a Acceptance
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.OfferID, &a.PaymentType, &a.INN, &a.KPP, &a.AcceptedBy, &a.AcceptedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
