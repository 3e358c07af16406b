package sqlstore

import (
	"testing"

	"github.com/Olprog59/go-freightdesk/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dollarDialect mimics a $n engine without importing a driver package
type dollarDialect struct{}

func (dollarDialect) Name() string                   { return "test" }
func (dollarDialect) Rebind(q string) string         { return RebindDollar(q) }
func (dollarDialect) JSONText() string               { return "(payload #>> ?)" }
func (dollarDialect) JSONArrayHas() string           { return "has(?, ?)" }
func (dollarDialect) PathArg(path string) any        { return path }
func (dollarDialect) Numeric(expr string) string     { return "NUM(" + expr + ")" }
func (dollarDialect) BoolArg(b bool) any             { return b }
func (dollarDialect) TranslateError(err error) error { return err }

func (dollarDialect) JSONArrayAny(pred func(elem string) string) string {
	return "any(?, " + pred("elem") + ")"
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", RebindDollar("a = ? AND b IN (?, ?)"))
	assert.Equal(t, "SELECT 1", RebindDollar("SELECT 1"))
}

func TestBuilder_Where(t *testing.T) {
	tests := []struct {
		name     string
		conds    []query.Condition
		wantSQL  string
		wantArgs []any
	}{
		{
			"column equality",
			[]query.Condition{query.Eq("status", "active")},
			" WHERE status = ?",
			[]any{"active"},
		},
		{
			"json path with numeric cast",
			[]query.Condition{{Field: "commercial_info.credit_limit", Op: query.GreaterThan, Value: 10}},
			" WHERE NUM((payload #>> ?)) > ?",
			[]any{"commercial_info.credit_limit", 10},
		},
		{
			"like escapes wildcards",
			[]query.Condition{query.Like("notes", "50%_off")},
			" WHERE LOWER((payload #>> ?)) LIKE ? ESCAPE '!'",
			[]any{"notes", "%50!%!_off%"},
		},
		{
			"starts with",
			[]query.Condition{{Field: "contact_info.email", Op: query.StartsWith, Value: "Jean"}},
			" WHERE LOWER(email) LIKE ? ESCAPE '!'",
			[]any{"jean%"},
		},
		{
			"array membership and or group",
			[]query.Condition{query.Or(query.Eq("tags", "vip"), query.Null("deleted_at"))},
			" WHERE (has(?, ?) OR deleted_at IS NULL)",
			[]any{"tags", "vip"},
		},
		{
			"contains on array matches elements",
			[]query.Condition{query.Like("tags", "V_p")},
			" WHERE any(?, LOWER(elem) LIKE ? ESCAPE '!')",
			[]any{"tags", "%v!_p%"},
		},
		{
			"starts with on array matches elements",
			[]query.Condition{{Field: "tags", Op: query.StartsWith, Value: "Exp"}},
			" WHERE any(?, LOWER(elem) LIKE ? ESCAPE '!')",
			[]any{"tags", "exp%"},
		},
		{
			"array not equals",
			[]query.Condition{query.Ne("tags", "vip")},
			" WHERE NOT (has(?, ?))",
			[]any{"tags", "vip"},
		},
		{
			"empty in list matches nothing",
			[]query.Condition{query.InValues("status", []string{})},
			" WHERE 1 = 0",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &builder{d: dollarDialect{}}
			got, err := b.where(tt.conds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, got)
			assert.Equal(t, tt.wantArgs, b.args)
		})
	}
}

func TestBuilder_OrderBy(t *testing.T) {
	b := &builder{d: dollarDialect{}}
	got, err := b.orderBy([]query.Order{{Field: "commercial_info.credit_limit", Desc: true}, {Field: "created_at"}})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY NUM((payload #>> ?)) DESC, created_at, id", got)
	assert.Equal(t, []any{"commercial_info.credit_limit"}, b.args)

	_, err = b.orderBy([]query.Order{{Field: "1; DROP"}})
	assert.Error(t, err)
}
