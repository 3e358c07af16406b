package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in      string
		want    Operator
		wantErr bool
	}{
		{"equals", Equals, false},
		{"not_equals", NotEquals, false},
		{"contains", Contains, false},
		{"starts_with", StartsWith, false},
		{"in", In, false},
		{"greater_than", GreaterThan, false},
		{"less_than", LessThan, false},
		{"is_null", IsNull, false},
		{"is_not_null", IsNotNull, false},
		{"ilike", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			op, err := ParseOperator(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownOperator)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
			assert.Equal(t, tt.in, op.String())
		})
	}
}

func TestValidateField(t *testing.T) {
	assert.NoError(t, ValidateField("contact_info.address.country"))
	assert.NoError(t, ValidateField("tags"))
	assert.Error(t, ValidateField("contact_info..email"))
	assert.Error(t, ValidateField("payload'); DROP TABLE clients;--"))
	assert.Error(t, ValidateField("Status"))
}

func TestQuery_Validate(t *testing.T) {
	ok := Query{
		Where:   []Condition{Eq("status", "active"), Or(Like("notes", "x"), Null("deleted_at"))},
		OrderBy: []Order{{Field: "created_at", Desc: true}},
	}
	assert.NoError(t, ok.Validate())

	badIn := Query{Where: []Condition{{Field: "status", Op: In, Value: "active"}}}
	assert.Error(t, badIn.Validate())

	badNested := Query{Where: []Condition{Or(Eq("bad field", 1))}}
	assert.ErrorIs(t, badNested.Validate(), ErrInvalidField)

	assert.Error(t, Query{Limit: -1}.Validate())
}

func TestDocument_Matches(t *testing.T) {
	doc := Document{
		"status": "active",
		"tags":   []any{"vip", "export"},
		"notes":  "Prefers Sea Freight",
		"commercial_info": map[string]any{
			"credit_limit": float64(5000),
		},
		"contact_info": map[string]any{
			"email": "jean@x.com",
		},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals scalar", Eq("status", "active"), true},
		{"equals mismatch", Eq("status", "inactive"), false},
		{"not equals", Ne("status", "inactive"), true},
		{"contains is case-insensitive", Like("notes", "sea freight"), true},
		{"starts_with", Condition{Field: "contact_info.email", Op: StartsWith, Value: "JEAN"}, true},
		{"in", InValues("status", []string{"prospect", "active"}), true},
		{"greater than numeric", Condition{Field: "commercial_info.credit_limit", Op: GreaterThan, Value: 1000}, true},
		{"less than numeric", Condition{Field: "commercial_info.credit_limit", Op: LessThan, Value: 1000}, false},
		{"array membership", Eq("tags", "vip"), true},
		{"array substring", Like("tags", "xpo"), true},
		{"array not equals", Ne("tags", "vip"), false},
		{"missing is null", Null("deleted_at"), true},
		{"present is not null", NotNull("status"), true},
		{"missing never equals", Eq("business_info.industry", "retail"), false},
		{"or group", Or(Eq("status", "inactive"), Eq("tags", "export")), true},
		{"or group none", Or(Eq("status", "inactive"), Eq("tags", "import")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.Matches([]Condition{tt.cond}))
		})
	}
}

func TestSortDocuments(t *testing.T) {
	docs := []Document{
		{"id": "a", "commercial_info": map[string]any{"credit_limit": float64(100)}},
		{"id": "b", "commercial_info": map[string]any{"credit_limit": float64(20)}},
		{"id": "c", "commercial_info": map[string]any{"credit_limit": float64(3000)}},
	}

	SortDocuments(docs, []Order{{Field: "commercial_info.credit_limit", Desc: true}})

	ids := []any{docs[0]["id"], docs[1]["id"], docs[2]["id"]}
	assert.Equal(t, []any{"c", "a", "b"}, ids)
}

func TestToDocument(t *testing.T) {
	type inner struct {
		Country string `json:"country"`
	}
	type rec struct {
		Name    string `json:"name"`
		Address inner  `json:"address"`
	}

	doc, err := ToDocument(rec{Name: "x", Address: inner{Country: "FR"}})
	require.NoError(t, err)

	v, ok := doc.Lookup("address.country")
	assert.True(t, ok)
	assert.Equal(t, "FR", v)

	_, ok = doc.Lookup("address.city")
	assert.False(t, ok)
}
