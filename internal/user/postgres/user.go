package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/user"
	"github.com/jmoiron/sqlx"
)

const selectUsers = `SELECT id, name, email, role, status, last_login, created_at, updated_at FROM users`

func NewRepository(db *sqlx.DB) user.RepositoryAPI {
	return &pgRepo{db: db}
}

type pgRepo struct {
	db *sqlx.DB
}

func (p *pgRepo) List(ctx context.Context, status string) ([]*user.Row, error) {
	query := selectUsers
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows := []*user.Row{}
	if err := p.db.SelectContext(ctx, &rows, p.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list users query: %w", err)
	}
	return rows, nil
}

func (p *pgRepo) GetByID(ctx context.Context, id int64) (*user.Row, error) {
	var u user.Row
	if err := p.db.GetContext(ctx, &u, p.db.Rebind(selectUsers+` WHERE id = ?`), id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user query: %w", err)
	}
	return &u, nil
}

func (p *pgRepo) Update(ctx context.Context, id int64, changes user.Changes) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if changes.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*changes.Role))
	}
	if changes.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*changes.Status))
	}
	args = append(args, id)

	query := p.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user query: %w", err)
	}
	return expectRow(res)
}

func (p *pgRepo) Delete(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, p.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user query: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}
