package domain

// SortOrder is the sort direction / Sens du tri
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterRule is one user-supplied {field, operator, value} triple /
// Un triplet {champ, opérateur, valeur} fourni par l'utilisateur
type FilterRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// FilterGroup combines rules with AND or OR / Combine des règles avec AND ou OR
type FilterGroup struct {
	Logic string       `json:"logic"` // "and" (default) or "or"
	Rules []FilterRule `json:"rules"`
}

// SearchParams are the inputs of a faceted search / Paramètres d'une recherche à facettes
type SearchParams struct {
	Query         string         `json:"query,omitempty"`
	ClientTypes   []ClientType   `json:"client_types,omitempty"`
	Statuses      []ClientStatus `json:"statuses,omitempty"`
	Countries     []string       `json:"countries,omitempty"`
	Priorities    []Priority     `json:"priorities,omitempty"`
	Languages     []string       `json:"languages,omitempty"`
	Industries    []string       `json:"industries,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Filters       *FilterGroup   `json:"filters,omitempty"`
	SortBy        string         `json:"sort_by,omitempty"`
	SortOrder     SortOrder      `json:"sort_order,omitempty"`
	Page          int            `json:"page,omitempty"`
	PageSize      int            `json:"page_size,omitempty"`
	IncludeFacets bool           `json:"include_facets,omitempty"`
}

// FacetValue is one bucket / Un compartiment de facette
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets are the per-field tallies / Décomptes par champ
type Facets struct {
	ClientType []FacetValue `json:"client_type"`
	Status     []FacetValue `json:"status"`
	Country    []FacetValue `json:"country"`
	Industry   []FacetValue `json:"industry"`
}

// SearchHit is a client with its computed display name / Client avec son nom d'affichage
type SearchHit struct {
	*Client
	DisplayName string `json:"display_name"`
}

// SearchResults is a page of hits plus optional facets / Page de résultats et facettes éventuelles
type SearchResults struct {
	Clients    []SearchHit `json:"clients"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	Facets     *Facets     `json:"facets,omitempty"`
}
