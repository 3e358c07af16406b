package postgres

import (
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/repository/sqlstore"
	"github.com/lib/pq"
)

var _ sqlstore.Dialect = Dialect{}

// Dialect is the PostgreSQL flavour of SQL (jsonb operators) / Variante PostgreSQL du SQL
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Rebind(query string) string { return sqlstore.RebindDollar(query) }

func (Dialect) JSONText() string { return "(payload #>> ?)" }

func (Dialect) JSONArrayHas() string {
	return "COALESCE(payload #> ?, '[]'::jsonb) @> jsonb_build_array(?::text)"
}

func (Dialect) JSONArrayAny(pred func(elem string) string) string {
	return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(COALESCE(payload #> ?, '[]'::jsonb)) AS tag(v) WHERE " +
		pred("tag.v") + ")"
}

// PathArg binds the path as a text[] / Lie le chemin comme text[]
func (Dialect) PathArg(path string) any { return pq.Array(strings.Split(path, ".")) }

func (Dialect) Numeric(expr string) string { return "CAST(" + expr + " AS NUMERIC)" }

func (Dialect) BoolArg(b bool) any {
	if b {
		return "true"
	}
	return "false"
}

func (Dialect) TranslateError(err error) error { return handleError(err) }
