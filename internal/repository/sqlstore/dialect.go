// Package sqlstore implements the repository ports on database/sql.
// SQL differences between engines are isolated behind Dialect.
package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect isolates engine-specific SQL / Isole le SQL propre à chaque moteur
type Dialect interface {
	// Name returns the engine name / Retourne le nom du moteur
	Name() string

	// Rebind converts '?' placeholders to the engine style / Convertit les '?' au style du moteur
	Rebind(query string) string

	// JSONText is a text expression for payload at the path bound by one placeholder
	JSONText() string

	// JSONArrayHas is a boolean expression with two placeholders: array path, element
	JSONArrayHas() string

	// JSONArrayAny is true when pred holds for any element of the array at
	// the path bound by the first placeholder. pred receives the element
	// text expression and may add placeholders of its own.
	JSONArrayAny(pred func(elem string) string) string

	// PathArg is the bind value for a dotted path / Valeur liée pour un chemin pointé
	PathArg(path string) any

	// Numeric casts a text expression for numeric comparison / Convertit une expression pour comparaison numérique
	Numeric(expr string) string

	// BoolArg is the bind value comparable with JSONText of a JSON boolean
	BoolArg(b bool) any

	// TranslateError maps driver errors to repository errors / Traduit les erreurs du driver
	TranslateError(err error) error
}

// RebindDollar numbers placeholders as $1, $2, ... / Numérote les paramètres en $1, $2, ...
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DollarPath renders a dotted path as a '$.a.b' JSON path / Rend un chemin pointé en chemin JSON
func DollarPath(path string) string {
	return "$." + path
}
