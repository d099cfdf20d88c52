package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// Postgres is a Store over a pgx connection pool. Money and dates travel as
// text and are cast on the server.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connected, migrated pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func pgErr(err error) error {
	var pe *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pe) && pe.Code == "23505":
		return fmt.Errorf("%w: %s", ErrDuplicate, pe.ConstraintName)
	default:
		return err
	}
}

func (p *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users(name, username, email, password_hash) VALUES($1, $2, $3, $4) RETURNING id`,
		u.Name, u.Username, u.Email, u.PasswordHash).Scan(&u.ID)
	return pgErr(err)
}

func (p *Postgres) userBy(ctx context.Context, col string, arg any) (*model.User, error) {
	var u model.User
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, username, email, password_hash FROM users WHERE `+col+` = $1`, arg).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return p.userBy(ctx, "email", email)
}

func (p *Postgres) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return p.userBy(ctx, "id", id)
}

func (p *Postgres) CreateCategory(ctx context.Context, c *model.Category) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO categories(user_id, name, color, monthly_limit)
		VALUES($1, $2, $3, $4::text::numeric) RETURNING id`,
		c.UserID, c.Name, c.Color, pgDecimal(c.MonthlyLimit)).Scan(&c.ID)
	return pgErr(err)
}

const pgCategoryCols = `id, user_id, name, color, monthly_limit::text`

func scanPgCategory(row pgx.Row) (*model.Category, error) {
	var (
		c     model.Category
		limit *string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &limit); err != nil {
		return nil, err
	}
	if limit != nil {
		d, err := decimal.NewFromString(*limit)
		if err != nil {
			return nil, fmt.Errorf("category %d monthly_limit: %w", c.ID, err)
		}
		c.MonthlyLimit = &d
	}
	return &c, nil
}

func (p *Postgres) Category(ctx context.Context, userID, id int64) (*model.Category, error) {
	c, err := scanPgCategory(p.pool.QueryRow(ctx,
		`SELECT `+pgCategoryCols+` FROM categories WHERE user_id = $1 AND id = $2`, userID, id))
	return c, pgErr(err)
}

func (p *Postgres) CategoryByName(ctx context.Context, userID int64, name string) (*model.Category, error) {
	c, err := scanPgCategory(p.pool.QueryRow(ctx,
		`SELECT `+pgCategoryCols+` FROM categories WHERE user_id = $1 AND name = $2`, userID, name))
	return c, pgErr(err)
}

func (p *Postgres) ListCategories(ctx context.Context, userID int64, limit, offset int) (model.Page[model.Category], error) {
	page := model.Page[model.Category]{Results: []model.Category{}}
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&page.Count); err != nil {
		return page, err
	}
	rows, err := p.pool.Query(ctx,
		`SELECT `+pgCategoryCols+` FROM categories WHERE user_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`,
		userID, pgLimit(limit), offset)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanPgCategory(rows)
		if err != nil {
			return page, err
		}
		page.Results = append(page.Results, *c)
	}
	return page, rows.Err()
}

func (p *Postgres) UpdateCategory(ctx context.Context, c *model.Category) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE categories SET name = $1, color = $2, monthly_limit = $3::text::numeric
		WHERE user_id = $4 AND id = $5`,
		c.Name, c.Color, pgDecimal(c.MonthlyLimit), c.UserID, c.ID)
	if err != nil {
		return pgErr(err)
	}
	return pgAffected(tag)
}

func (p *Postgres) DeleteCategory(ctx context.Context, userID, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	return pgAffected(tag)
}

func (p *Postgres) CreateTransaction(ctx context.Context, t *model.Transaction, rowHash string) error {
	var hash *string
	if rowHash != "" {
		hash = &rowHash
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO transactions(user_id, category_id, description, value, transaction_type, txn_date, row_hash)
		VALUES($1, $2, $3, $4::text::numeric, $5, $6::text::date, $7) RETURNING id`,
		t.UserID, t.CategoryID, t.Description, t.Value.StringFixed(2), string(t.Type), t.Date, hash).Scan(&t.ID)
	return pgErr(err)
}

const pgTransactionSelect = `
	SELECT t.id, t.user_id, t.description, t.value::text, t.transaction_type, t.txn_date::text, t.category_id, COALESCE(c.name, '')
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

func scanPgTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		t     model.Transaction
		value string
		typ   string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &value, &typ, &t.Date, &t.CategoryID, &t.CategoryName); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("transaction %d value: %w", t.ID, err)
	}
	t.Value = d
	t.Type = model.TransactionType(typ)
	return &t, nil
}

func (p *Postgres) Transaction(ctx context.Context, userID, id int64) (*model.Transaction, error) {
	t, err := scanPgTransaction(p.pool.QueryRow(ctx,
		pgTransactionSelect+` WHERE t.user_id = $1 AND t.id = $2`, userID, id))
	return t, pgErr(err)
}

func (p *Postgres) ListTransactions(ctx context.Context, userID int64, f model.TransactionFilter) (model.Page[model.Transaction], error) {
	page := model.Page[model.Transaction]{Results: []model.Transaction{}}
	w := postgresDialect.transactionWhere(userID, f)
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions t`+w.String(), w.args...).Scan(&page.Count); err != nil {
		return page, err
	}
	q := pgTransactionSelect + w.String() + postgresDialect.orderBy(f.Ordering) +
		` LIMIT ` + w.next(pgLimit(f.Limit)) + ` OFFSET ` + w.next(f.Offset)
	rows, err := p.pool.Query(ctx, q, w.args...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanPgTransaction(rows)
		if err != nil {
			return page, err
		}
		page.Results = append(page.Results, *t)
	}
	return page, rows.Err()
}

func (p *Postgres) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE transactions
		SET category_id = $1, description = $2, value = $3::text::numeric, transaction_type = $4, txn_date = $5::text::date
		WHERE user_id = $6 AND id = $7`,
		t.CategoryID, t.Description, t.Value.StringFixed(2), string(t.Type), t.Date, t.UserID, t.ID)
	if err != nil {
		return pgErr(err)
	}
	return pgAffected(tag)
}

func (p *Postgres) DeleteTransaction(ctx context.Context, userID, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	return pgAffected(tag)
}

func (p *Postgres) CategorizedHistory(ctx context.Context, userID int64, limit int) ([]model.TransactionRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.description, c.name
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.id DESC
		LIMIT $2`, userID, pgLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TransactionRecord{}
	for rows.Next() {
		var r model.TransactionRecord
		if err := rows.Scan(&r.Description, &r.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := p.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM categories),
			COUNT(*) FILTER (WHERE transaction_type = 'income'),
			COUNT(*) FILTER (WHERE transaction_type = 'expense'),
			COUNT(*) FILTER (WHERE category_id IS NULL)
		FROM transactions`).
		Scan(&st.Users, &st.Categories, &st.IncomeCount, &st.ExpenseCount, &st.Uncategorized)
	return st, err
}

func pgAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func pgDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

// pgLimit maps a non-positive page size to LIMIT NULL, which is no limit.
func pgLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
