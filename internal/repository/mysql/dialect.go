package mysql

import "github.com/Olprog59/go-freightdesk/internal/repository/sqlstore"

var _ sqlstore.Dialect = Dialect{}

// Dialect is the MySQL flavour of SQL (JSON functions) / Variante MySQL du SQL
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

func (Dialect) Rebind(query string) string { return query }

func (Dialect) JSONText() string { return "JSON_UNQUOTE(JSON_EXTRACT(payload, ?))" }

func (Dialect) JSONArrayHas() string {
	return "COALESCE(JSON_CONTAINS(JSON_EXTRACT(payload, ?), JSON_QUOTE(?)), 0) = 1"
}

// JSONArrayAny expands the array with JSON_TABLE (MySQL 8.0+)
func (Dialect) JSONArrayAny(pred func(elem string) string) string {
	return "EXISTS (SELECT 1 FROM JSON_TABLE(COALESCE(JSON_EXTRACT(payload, ?), JSON_ARRAY()), '$[*]' " +
		"COLUMNS (v VARCHAR(255) PATH '$')) AS tag WHERE " + pred("tag.v") + ")"
}

func (Dialect) PathArg(path string) any { return sqlstore.DollarPath(path) }

func (Dialect) Numeric(expr string) string { return "CAST(" + expr + " AS DECIMAL(20,4))" }

func (Dialect) BoolArg(b bool) any {
	if b {
		return "true"
	}
	return "false"
}

func (Dialect) TranslateError(err error) error { return handleError(err) }
