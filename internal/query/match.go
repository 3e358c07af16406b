package query

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Document is a JSON object view of a record / Vue objet JSON d'un enregistrement
type Document map[string]any

// ToDocument converts a struct to its JSON object view / Convertit une structure en vue JSON
func ToDocument(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// Lookup walks a dotted path / Parcourt un chemin pointé
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Matches reports whether the document satisfies every condition /
// Indique si le document satisfait toutes les conditions
func (d Document) Matches(conds []Condition) bool {
	for _, c := range conds {
		if !d.match(c) {
			return false
		}
	}
	return true
}

func (d Document) match(c Condition) bool {
	if c.IsGroup() {
		return slices.ContainsFunc(c.Any, d.match)
	}
	v, ok := d.Lookup(c.Field)
	if !ok {
		v = nil
	}
	switch c.Op {
	case IsNull:
		return v == nil
	case IsNotNull:
		return v != nil
	}
	if v == nil {
		// NULL never satisfies a value comparison, as in SQL
		return false
	}
	if arr, isArr := v.([]any); isArr {
		switch c.Op {
		case NotEquals:
			return !slices.ContainsFunc(arr, func(e any) bool { return matchScalar(e, Equals, c.Value) })
		default:
			return slices.ContainsFunc(arr, func(e any) bool { return matchScalar(e, c.Op, c.Value) })
		}
	}
	return matchScalar(v, c.Op, c.Value)
}

func matchScalar(v any, op Operator, want any) bool {
	switch op {
	case Equals:
		return equal(v, want)
	case NotEquals:
		return !equal(v, want)
	case Contains:
		return strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(want)))
	case StartsWith:
		return strings.HasPrefix(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(want)))
	case In:
		list, _ := want.([]any)
		return slices.ContainsFunc(list, func(w any) bool { return equal(v, w) })
	case GreaterThan:
		return Compare(v, want) > 0
	case LessThan:
		return Compare(v, want) < 0
	}
	return false
}

func equal(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Compare orders two scalar values, numerically when both are numbers /
// Compare deux valeurs, numériquement si les deux sont des nombres
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// ToFloat converts numeric values / Convertit les valeurs numériques
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// SortDocuments orders documents in place / Trie les documents sur place
func SortDocuments(docs []Document, orders []Order) {
	if len(orders) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b Document) int {
		for _, o := range orders {
			va, _ := a.Lookup(o.Field)
			vb, _ := b.Lookup(o.Field)
			r := Compare(va, vb)
			if o.Desc {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	})
}
