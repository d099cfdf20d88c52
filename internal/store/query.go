package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// placeholder renders the n-th (1-based) bind parameter of a driver.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// where accumulates AND-ed conditions and their arguments.
type where struct {
	ph      placeholder
	clauses []string
	args    []any
}

// add appends a condition; each %s in format becomes the next placeholder.
func (w *where) add(format string, args ...any) {
	phs := make([]any, len(args))
	for i := range args {
		phs[i] = w.ph(len(w.args) + i + 1)
	}
	w.clauses = append(w.clauses, fmt.Sprintf(format, phs...))
	w.args = append(w.args, args...)
}

// next returns the placeholder for an argument appended after the conditions.
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return w.ph(len(w.args))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// dialect holds the SQL that differs between drivers.
type dialect struct {
	ph        placeholder
	like      string // case-insensitive LIKE
	dateExpr  string // t.txn_date as YYYY-MM-DD text
	valueExpr string // t.value as a sortable number
}

var (
	sqliteDialect   = dialect{ph: questionMark, like: "LIKE", dateExpr: "t.txn_date", valueExpr: "CAST(t.value AS REAL)"}
	postgresDialect = dialect{ph: dollar, like: "ILIKE", dateExpr: "t.txn_date::text", valueExpr: "t.value"}
)

// transactionWhere builds the filter of a transaction listing.
func (d dialect) transactionWhere(userID int64, f model.TransactionFilter) *where {
	w := &where{ph: d.ph}
	w.add("t.user_id = %s", userID)
	if f.Type != "" {
		w.add("t.transaction_type = %s", string(f.Type))
	}
	if f.CategoryID != nil {
		w.add("t.category_id = %s", *f.CategoryID)
	}
	if f.Date != "" {
		w.add(d.dateExpr+" = %s", f.Date)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		w.add("t.description "+d.like+" %s ESCAPE '\\'", likePattern(s))
	}
	return w
}

// orderBy maps an accepted ordering to SQL; unknown values sort newest first.
func (d dialect) orderBy(ordering string) string {
	switch ordering {
	case "date":
		return " ORDER BY t.txn_date ASC, t.id ASC"
	case "value":
		return " ORDER BY " + d.valueExpr + " ASC, t.id ASC"
	case "-value":
		return " ORDER BY " + d.valueExpr + " DESC, t.id DESC"
	default:
		return " ORDER BY t.txn_date DESC, t.id DESC"
	}
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
