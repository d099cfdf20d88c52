package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// SQLite is a Store over a database/sql connection to modernc sqlite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open, migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Close() error { return s.db.Close() }

// sqliteErr maps driver errors onto the package sentinels.
func sqliteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(name, username, email, password_hash) VALUES(?, ?, ?, ?)`,
		u.Name, u.Username, u.Email, u.PasswordHash)
	if err != nil {
		return sqliteErr(err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) userBy(ctx context.Context, col string, arg any) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, username, email, password_hash FROM users WHERE `+col+` = ?`, arg).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &u, nil
}

func (s *SQLite) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userBy(ctx, "email", email)
}

func (s *SQLite) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userBy(ctx, "id", id)
}

func (s *SQLite) CreateCategory(ctx context.Context, c *model.Category) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories(user_id, name, color, monthly_limit) VALUES(?, ?, ?, ?)`,
		c.UserID, c.Name, c.Color, nullDecimal(c.MonthlyLimit))
	if err != nil {
		return sqliteErr(err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

const sqliteCategoryCols = `id, user_id, name, color, monthly_limit`

func scanCategory(sc interface{ Scan(...any) error }) (*model.Category, error) {
	var (
		c     model.Category
		limit sql.NullString
	)
	if err := sc.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &limit); err != nil {
		return nil, err
	}
	if limit.Valid {
		d, err := decimal.NewFromString(limit.String)
		if err != nil {
			return nil, fmt.Errorf("category %d monthly_limit: %w", c.ID, err)
		}
		c.MonthlyLimit = &d
	}
	return &c, nil
}

func (s *SQLite) Category(ctx context.Context, userID, id int64) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCategoryCols+` FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCategory(row)
	return c, sqliteErr(err)
}

func (s *SQLite) CategoryByName(ctx context.Context, userID int64, name string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCategoryCols+` FROM categories WHERE user_id = ? AND name = ?`, userID, name)
	c, err := scanCategory(row)
	return c, sqliteErr(err)
}

func (s *SQLite) ListCategories(ctx context.Context, userID int64, limit, offset int) (model.Page[model.Category], error) {
	page := model.Page[model.Category]{Results: []model.Category{}}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&page.Count); err != nil {
		return page, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCategoryCols+` FROM categories WHERE user_id = ? ORDER BY name, id LIMIT ? OFFSET ?`,
		userID, limitOrAll(limit), offset)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return page, err
		}
		page.Results = append(page.Results, *c)
	}
	return page, rows.Err()
}

func (s *SQLite) UpdateCategory(ctx context.Context, c *model.Category) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, monthly_limit = ? WHERE user_id = ? AND id = ?`,
		c.Name, c.Color, nullDecimal(c.MonthlyLimit), c.UserID, c.ID)
	if err != nil {
		return sqliteErr(err)
	}
	return affected(res)
}

func (s *SQLite) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (s *SQLite) CreateTransaction(ctx context.Context, t *model.Transaction, rowHash string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions(user_id, category_id, description, value, transaction_type, txn_date, row_hash)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, t.Description, t.Value.StringFixed(2), string(t.Type), t.Date, nullString(rowHash))
	if err != nil {
		return sqliteErr(err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

const sqliteTransactionSelect = `
	SELECT t.id, t.user_id, t.description, t.value, t.transaction_type, t.txn_date, t.category_id, COALESCE(c.name, '')
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(sc interface{ Scan(...any) error }) (*model.Transaction, error) {
	var (
		t     model.Transaction
		value string
		typ   string
		catID sql.NullInt64
	)
	if err := sc.Scan(&t.ID, &t.UserID, &t.Description, &value, &typ, &t.Date, &catID, &t.CategoryName); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("transaction %d value: %w", t.ID, err)
	}
	t.Value = d
	t.Type = model.TransactionType(typ)
	if catID.Valid {
		id := catID.Int64
		t.CategoryID = &id
	}
	return &t, nil
}

func (s *SQLite) Transaction(ctx context.Context, userID, id int64) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, sqliteTransactionSelect+` WHERE t.user_id = ? AND t.id = ?`, userID, id)
	t, err := scanTransaction(row)
	return t, sqliteErr(err)
}

func (s *SQLite) ListTransactions(ctx context.Context, userID int64, f model.TransactionFilter) (model.Page[model.Transaction], error) {
	page := model.Page[model.Transaction]{Results: []model.Transaction{}}
	w := sqliteDialect.transactionWhere(userID, f)
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t`+w.String(), w.args...).Scan(&page.Count); err != nil {
		return page, err
	}
	q := sqliteTransactionSelect + w.String() + sqliteDialect.orderBy(f.Ordering) +
		` LIMIT ` + w.next(limitOrAll(f.Limit)) + ` OFFSET ` + w.next(f.Offset)
	rows, err := s.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return page, err
		}
		page.Results = append(page.Results, *t)
	}
	return page, rows.Err()
}

func (s *SQLite) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, description = ?, value = ?, transaction_type = ?, txn_date = ?
		WHERE user_id = ? AND id = ?`,
		t.CategoryID, t.Description, t.Value.StringFixed(2), string(t.Type), t.Date, t.UserID, t.ID)
	if err != nil {
		return sqliteErr(err)
	}
	return affected(res)
}

func (s *SQLite) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (s *SQLite) CategorizedHistory(ctx context.Context, userID int64, limit int) ([]model.TransactionRecord, error) {
	q := `
		SELECT t.description, c.name
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?
		ORDER BY t.id DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
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

func (s *SQLite) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM categories),
			COALESCE(SUM(CASE WHEN transaction_type = 'income' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN transaction_type = 'expense' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN category_id IS NULL THEN 1 ELSE 0 END), 0)
		FROM transactions`).
		Scan(&st.Users, &st.Categories, &st.IncomeCount, &st.ExpenseCount, &st.Uncategorized)
	return st, err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// limitOrAll turns a non-positive page size into "no limit" for LIMIT ?.
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
