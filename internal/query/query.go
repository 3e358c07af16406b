// Package query is the storage-neutral predicate model shared by services and
// repositories. Fields are addressed by dotted JSON paths such as
// "contact_info.address.country".
//
// Package query est le modèle de prédicats indépendant du stockage.
package query

import (
	"errors"
	"fmt"
	"regexp"
)

// Operator is a comparison operator / Opérateur de comparaison
type Operator int

const (
	Equals Operator = iota + 1
	NotEquals
	Contains // case-insensitive substring
	StartsWith
	In
	GreaterThan
	LessThan
	IsNull
	IsNotNull
)

var operatorNames = map[Operator]string{
	Equals:      "equals",
	NotEquals:   "not_equals",
	Contains:    "contains",
	StartsWith:  "starts_with",
	In:          "in",
	GreaterThan: "greater_than",
	LessThan:    "less_than",
	IsNull:      "is_null",
	IsNotNull:   "is_not_null",
}

// String returns the wire name / Retourne le nom externe
func (o Operator) String() string {
	if n, ok := operatorNames[o]; ok {
		return n
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// NeedsValue reports whether the operator takes an operand / Indique si l'opérateur attend une valeur
func (o Operator) NeedsValue() bool {
	return o != IsNull && o != IsNotNull
}

// ErrUnknownOperator is returned by ParseOperator / Retourné par ParseOperator
var ErrUnknownOperator = errors.New("unknown operator")

// ParseOperator maps a wire name to an Operator / Convertit un nom externe en Operator
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// Condition is a single predicate, or an OR group when Any is set /
// Un prédicat simple, ou un groupe OR quand Any est renseigné
type Condition struct {
	Field string
	Op    Operator
	Value any
	Any   []Condition
}

// IsGroup reports an OR group / Indique un groupe OR
func (c Condition) IsGroup() bool {
	return len(c.Any) > 0
}

// Order is one sort key / Une clé de tri
type Order struct {
	Field string
	Desc  bool
}

// Query is an AND of conditions with ordering and range pagination /
// Conjonction de conditions avec tri et pagination par plage
type Query struct {
	Where   []Condition
	OrderBy []Order
	Offset  int
	Limit   int // 0 means unbounded
}

// Eq builds an equality condition / Construit une égalité
func Eq(field string, v any) Condition { return Condition{Field: field, Op: Equals, Value: v} }

// Ne builds an inequality condition / Construit une inégalité
func Ne(field string, v any) Condition { return Condition{Field: field, Op: NotEquals, Value: v} }

// Like builds a case-insensitive substring condition / Construit une recherche de sous-chaîne
func Like(field, s string) Condition { return Condition{Field: field, Op: Contains, Value: s} }

// InValues builds a membership condition / Construit une appartenance
func InValues[T any](field string, values []T) Condition {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Condition{Field: field, Op: In, Value: vs}
}

// Null builds an IS NULL condition / Construit un IS NULL
func Null(field string) Condition { return Condition{Field: field, Op: IsNull} }

// NotNull builds an IS NOT NULL condition / Construit un IS NOT NULL
func NotNull(field string) Condition { return Condition{Field: field, Op: IsNotNull} }

// Or groups conditions with OR / Regroupe des conditions avec OR
func Or(conds ...Condition) Condition { return Condition{Any: conds} }

var fieldPath = regexp.MustCompile(`^[a-z_]+(\.[a-z_]+)*$`)

// ErrInvalidField is returned for malformed field paths / Retourné pour un chemin invalide
var ErrInvalidField = errors.New("invalid field path")

// ValidateField checks a dotted path / Vérifie un chemin pointé
func ValidateField(path string) error {
	if !fieldPath.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrInvalidField, path)
	}
	return nil
}

// Validate checks every condition and order key / Vérifie chaque condition et clé de tri
func (q Query) Validate() error {
	if err := validateConditions(q.Where); err != nil {
		return err
	}
	for _, o := range q.OrderBy {
		if err := ValidateField(o.Field); err != nil {
			return err
		}
	}
	if q.Offset < 0 || q.Limit < 0 {
		return errors.New("negative offset or limit")
	}
	return nil
}

func validateConditions(conds []Condition) error {
	for _, c := range conds {
		if c.IsGroup() {
			if err := validateConditions(c.Any); err != nil {
				return err
			}
			continue
		}
		if err := ValidateField(c.Field); err != nil {
			return err
		}
		if _, ok := operatorNames[c.Op]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownOperator, int(c.Op))
		}
		if c.Op == In {
			if _, ok := c.Value.([]any); !ok {
				return fmt.Errorf("operator in on %q expects a list", c.Field)
			}
		}
	}
	return nil
}
