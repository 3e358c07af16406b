package sqlite

import "github.com/Olprog59/go-freightdesk/internal/repository/sqlstore"

var _ sqlstore.Dialect = Dialect{}

// Dialect is the SQLite flavour of SQL (JSON1 functions) / Variante SQLite du SQL
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Rebind(query string) string { return query }

func (Dialect) JSONText() string { return "json_extract(payload, ?)" }

func (Dialect) JSONArrayHas() string {
	return "EXISTS (SELECT 1 FROM json_each(payload, ?) WHERE json_each.value = ?)"
}

func (Dialect) JSONArrayAny(pred func(elem string) string) string {
	return "EXISTS (SELECT 1 FROM json_each(payload, ?) WHERE " + pred("json_each.value") + ")"
}

func (Dialect) PathArg(path string) any { return sqlstore.DollarPath(path) }

func (Dialect) Numeric(expr string) string { return "CAST(" + expr + " AS REAL)" }

// BoolArg matches json_extract, which yields 1 or 0 for JSON booleans
func (Dialect) BoolArg(b bool) any {
	if b {
		return 1
	}
	return 0
}

func (Dialect) TranslateError(err error) error { return handleError(err) }
