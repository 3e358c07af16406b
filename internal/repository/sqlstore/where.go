package sqlstore

import (
	"fmt"
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/query"
)

// clientColumns maps field paths that have a dedicated column / Chemins disposant d'une colonne dédiée
var clientColumns = map[string]string{
	"id":                             "id",
	"client_type":                    "client_type",
	"status":                         "status",
	"contact_info.email":             "email",
	"business_info.legal_info.siret": "siret",
	"version":                        "version",
	"created_by":                     "created_by",
	"created_at":                     "created_at",
	"updated_at":                     "updated_at",
	"deleted_at":                     "deleted_at",
}

// arrayPaths hold JSON arrays of scalars / Chemins contenant des tableaux JSON de scalaires
var arrayPaths = map[string]bool{
	"tags": true,
}

// numericPaths are sorted numerically / Chemins triés numériquement
var numericPaths = map[string]bool{
	"commercial_info.credit_limit":                  true,
	"commercial_info.payment_terms_days":            true,
	"commercial_history.total_orders":               true,
	"commercial_history.total_amount":               true,
	"commercial_history.current_balance":            true,
	"commercial_history.average_payment_delay_days": true,
}

// likeEscaper escapes LIKE wildcards with '!' / Échappe les jokers LIKE avec '!'
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// builder renders query conditions to SQL with bound arguments /
// Traduit les conditions en SQL avec paramètres liés
type builder struct {
	d    Dialect
	args []any
}

func (b *builder) bind(v any) string {
	if bv, ok := v.(bool); ok {
		v = b.d.BoolArg(bv)
	}
	b.args = append(b.args, v)
	return "?"
}

func (b *builder) expr(field string) string {
	if col, ok := clientColumns[field]; ok {
		return col
	}
	b.args = append(b.args, b.d.PathArg(field))
	return b.d.JSONText()
}

func (b *builder) where(conds []query.Condition) (string, error) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		s, err := b.condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (b *builder) condition(c query.Condition) (string, error) {
	if c.IsGroup() {
		parts := make([]string, 0, len(c.Any))
		for _, sub := range c.Any {
			s, err := b.condition(sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}
	if err := query.ValidateField(c.Field); err != nil {
		return "", err
	}
	if arrayPaths[c.Field] && c.Op != query.IsNull && c.Op != query.IsNotNull {
		return b.arrayCondition(c)
	}

	switch c.Op {
	case query.IsNull:
		return b.expr(c.Field) + " IS NULL", nil
	case query.IsNotNull:
		return b.expr(c.Field) + " IS NOT NULL", nil
	case query.Equals, query.NotEquals, query.GreaterThan, query.LessThan:
		e := b.expr(c.Field)
		if _, numeric := query.ToFloat(c.Value); numeric {
			if _, isColumn := clientColumns[c.Field]; !isColumn {
				e = b.d.Numeric(e)
			}
		}
		return e + " " + comparator(c.Op) + " " + b.bind(c.Value), nil
	case query.Contains, query.StartsWith:
		e := b.expr(c.Field)
		return "LOWER(" + e + ") LIKE " + b.bind(likePattern(c)) + " ESCAPE '!'", nil
	case query.In:
		list, _ := c.Value.([]any)
		if len(list) == 0 {
			return "1 = 0", nil
		}
		e := b.expr(c.Field)
		marks := make([]string, len(list))
		for i, v := range list {
			marks[i] = b.bind(v)
		}
		return e + " IN (" + strings.Join(marks, ", ") + ")", nil
	}
	return "", fmt.Errorf("%w: %v", query.ErrUnknownOperator, c.Op)
}

// likePattern is the lower-cased, escaped LIKE pattern of a Contains or
// StartsWith condition / Motif LIKE d'une condition Contains ou StartsWith
func likePattern(c query.Condition) string {
	p := likeEscaper.Replace(strings.ToLower(fmt.Sprint(c.Value))) + "%"
	if c.Op == query.Contains {
		p = "%" + p
	}
	return p
}

// arrayCondition handles array fields element by element: equality means
// membership, the other comparisons hold when any element satisfies them.
func (b *builder) arrayCondition(c query.Condition) (string, error) {
	has := func(v any) string {
		b.args = append(b.args, b.d.PathArg(c.Field), fmt.Sprint(v))
		return b.d.JSONArrayHas()
	}
	switch c.Op {
	case query.Equals:
		return has(c.Value), nil
	case query.NotEquals:
		return "NOT (" + has(c.Value) + ")", nil
	case query.In:
		list, _ := c.Value.([]any)
		if len(list) == 0 {
			return "1 = 0", nil
		}
		parts := make([]string, len(list))
		for i, v := range list {
			parts[i] = has(v)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case query.Contains, query.StartsWith:
		b.args = append(b.args, b.d.PathArg(c.Field))
		return b.d.JSONArrayAny(func(elem string) string {
			return "LOWER(" + elem + ") LIKE " + b.bind(likePattern(c)) + " ESCAPE '!'"
		}), nil
	case query.GreaterThan, query.LessThan:
		b.args = append(b.args, b.d.PathArg(c.Field))
		return b.d.JSONArrayAny(func(elem string) string {
			return elem + " " + comparator(c.Op) + " " + b.bind(fmt.Sprint(c.Value))
		}), nil
	}
	return "", fmt.Errorf("%w: %v on array field %s", query.ErrUnknownOperator, c.Op, c.Field)
}

func comparator(op query.Operator) string {
	switch op {
	case query.NotEquals:
		return "<>"
	case query.GreaterThan:
		return ">"
	case query.LessThan:
		return "<"
	default:
		return "="
	}
}

func (b *builder) orderBy(orders []query.Order) (string, error) {
	parts := make([]string, 0, len(orders)+1)
	for _, o := range orders {
		if err := query.ValidateField(o.Field); err != nil {
			return "", err
		}
		e := b.expr(o.Field)
		if numericPaths[o.Field] {
			e = b.d.Numeric(e)
		}
		if o.Desc {
			e += " DESC"
		}
		parts = append(parts, e)
	}
	parts = append(parts, "id")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}
