package importer

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/store"
)

// Result counts what an import did. Rows excludes the header.
type Result struct {
	Rows     int `json:"rows"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// ErrFormat marks a file that is not a readable ledger CSV.
var ErrFormat = errors.New("malformed csv")

// dateLayouts are tried in order.
var dateLayouts = []string{model.DateLayout, "02/01/2006", "02 Jan 06"}

// ImportCSV imports a ledger CSV for userID.
//
// Columns are located by header name (case-insensitive): Date, Description
// and Amount are required, Type and Category optional. A negative amount is
// an expense unless Type says otherwise. Unknown categories are created.
// Rows that fail to parse or validate are skipped, and so are rows already
// imported: each row is stored with a sha256 row hash, so a file can be
// re-imported safely.
func ImportCSV(ctx context.Context, st store.Store, userID int64, r io.Reader, now time.Time) (Result, error) {
	var res Result
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, fmt.Errorf("%w: empty file", ErrFormat)
	}
	if err != nil {
		return res, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	idx := indexMap(header)
	for _, col := range []string{"date", "description", "amount"} {
		if _, ok := idx[col]; !ok {
			return res, fmt.Errorf("%w: missing %q column", ErrFormat, col)
		}
	}

	cats := map[string]int64{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%w: row %d: %v", ErrFormat, res.Rows+1, err)
		}
		res.Rows++

		get := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		t, err := parseRow(get("date"), get("description"), get("amount"), get("type"))
		if err != nil {
			res.Skipped++
			continue
		}
		t.UserID = userID
		if err := t.Validate(now); err != nil {
			res.Skipped++
			continue
		}

		catName := get("category")
		if catName != "" {
			id, err := categoryID(ctx, st, userID, catName, cats)
			if errors.Is(err, model.ErrInvalid) {
				res.Skipped++
				continue
			}
			if err != nil {
				return res, err
			}
			t.CategoryID = &id
		}

		err = st.CreateTransaction(ctx, t, hashRow(t, catName))
		if errors.Is(err, store.ErrDuplicate) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("insert row %d: %w", res.Rows, err)
		}
		res.Inserted++
	}
	return res, nil
}

func parseRow(date, desc, amount, typ string) (*model.Transaction, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	v, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	t := &model.Transaction{Description: desc, Date: d.Format(model.DateLayout), Value: v.Abs()}
	switch strings.ToLower(typ) {
	case "":
		t.Type = model.TypeIncome
		if v.IsNegative() {
			t.Type = model.TypeExpense
		}
	case "income", "receita":
		t.Type = model.TypeIncome
	case "expense", "despesa":
		t.Type = model.TypeExpense
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	return t, nil
}

// categoryID finds or creates the user's category named name.
func categoryID(ctx context.Context, st store.Store, userID int64, name string, cache map[string]int64) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	c, err := st.CategoryByName(ctx, userID, name)
	if errors.Is(err, store.ErrNotFound) {
		c = &model.Category{UserID: userID, Name: name}
		if err = c.Validate(); err == nil {
			err = st.CreateCategory(ctx, c)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("category %q: %w", name, err)
	}
	cache[name] = c.ID
	return c.ID, nil
}

func indexMap(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if h == "" {
			continue
		}
		if _, dup := m[h]; !dup {
			m[h] = i
		}
	}
	return m
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount accepts 1234.56, -1234.56 and the comma-decimal 1.234,56.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func hashRow(t *model.Transaction, category string) string {
	canon := strings.Join([]string{
		"date=" + t.Date,
		"amount=" + t.Value.StringFixed(2),
		"type=" + string(t.Type),
		"description=" + t.Description,
		"category=" + category,
	}, "\n")
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])
}
