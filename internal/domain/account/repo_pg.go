package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db"
)

type accountRepoPG struct{ q db.Querier }

func NewAccountRepoPG(q db.Querier) AccountRepository {
	return &accountRepoPG{q: q}
}

const accountCols = `id, username, email, password_hash, role, created_at`

func (r *accountRepoPG) scanRow(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt)
	return &a, err
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	_, err := r.q.Exec(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.CreatedAt)
	return db.TranslatePG("insert account", err)
}

func (r *accountRepoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE email = $1`, email))
	if err != nil {
		return nil, db.TranslatePG("get account by email", err)
	}
	return a, nil
}

func (r *accountRepoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	a, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE username = $1`, username))
	if err != nil {
		return nil, db.TranslatePG("get account by username", err)
	}
	return a, nil
}

func (r *accountRepoPG) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return db.TranslatePG("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
