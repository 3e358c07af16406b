package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/query"
)

// textSearchFields are scanned by the free-text query / Champs parcourus par la recherche libre
var textSearchFields = []string{
	"individual_info.first_name",
	"individual_info.last_name",
	"business_info.company_name",
	"contact_info.email",
	"notes",
	"tags",
}

// SearchService runs faceted client searches / Exécute les recherches à facettes
type SearchService struct {
	reader  ports.ClientReader
	records config.RecordsConfig
	metrics MetricsRecorder
}

// NewSearchService creates search service instance / Crée une instance du service de recherche
func NewSearchService(reader ports.ClientReader, records config.RecordsConfig, metrics MetricsRecorder) *SearchService {
	return &SearchService{
		reader:  reader,
		records: records,
		metrics: metricsOrNoop(metrics),
	}
}

// Search returns one page of live clients matching p. When facets are
// requested they are tallied over the same predicate without pagination,
// and the total count is the size of that corpus.
//
// Search retourne une page de clients correspondant à p.
func (s *SearchService) Search(ctx context.Context, p domain.SearchParams) (*domain.SearchResults, error) {
	start := time.Now()

	where, err := searchConditions(p)
	if err != nil {
		return nil, err
	}
	orders, inMemory, err := sortOrders(p.SortBy, p.SortOrder)
	if err != nil {
		return nil, err
	}
	page, size := clampPage(p.Page, p.PageSize, s.records)

	var (
		total  int
		facets *domain.Facets
	)
	if p.IncludeFacets {
		corpus, err := s.reader.Find(ctx, query.Query{Where: where})
		if err != nil {
			return nil, fmt.Errorf("search facets: %w", err)
		}
		total = len(corpus)
		facets = tallyFacets(corpus)
	} else {
		total, err = s.reader.Count(ctx, where)
		if err != nil {
			return nil, fmt.Errorf("search count: %w", err)
		}
	}

	clients, err := s.reader.Find(ctx, query.Query{
		Where:   where,
		OrderBy: orders,
		Offset:  (page - 1) * size,
		Limit:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	if inMemory {
		sortByDisplayName(clients, p.SortOrder == domain.SortDesc)
	}

	hits := make([]domain.SearchHit, 0, len(clients))
	for _, c := range clients {
		hits = append(hits, domain.SearchHit{Client: c, DisplayName: c.DisplayName()})
	}

	elapsed := time.Since(start)
	s.metrics.RecordSearch(elapsed, total)
	slog.Debug("search executed", "query", p.Query, "total", total, "page", page, "facets", p.IncludeFacets, "duration", elapsed)

	return &domain.SearchResults{
		Clients:    hits,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: domain.TotalPagesFor(total, size),
		Facets:     facets,
	}, nil
}

// searchConditions builds the single predicate shared by the page and the facets
func searchConditions(p domain.SearchParams) ([]query.Condition, error) {
	where := []query.Condition{query.Null("deleted_at")}
	if len(p.ClientTypes) > 0 {
		where = append(where, query.InValues("client_type", p.ClientTypes))
	}
	if len(p.Statuses) > 0 {
		where = append(where, query.InValues("status", p.Statuses))
	}
	if len(p.Countries) > 0 {
		where = append(where, query.InValues("contact_info.address.country", p.Countries))
	}
	if len(p.Priorities) > 0 {
		where = append(where, query.InValues("commercial_info.priority", p.Priorities))
	}
	if len(p.Languages) > 0 {
		where = append(where, query.InValues("contact_info.preferred_language", p.Languages))
	}
	if len(p.Industries) > 0 {
		where = append(where,
			query.Eq("client_type", domain.ClientTypeBusiness),
			query.InValues("business_info.industry", p.Industries),
		)
	}
	for _, tag := range domain.NormalizeTags(p.Tags) {
		where = append(where, query.Eq("tags", tag))
	}
	if text := strings.TrimSpace(p.Query); text != "" {
		alts := make([]query.Condition, len(textSearchFields))
		for i, f := range textSearchFields {
			alts[i] = query.Like(f, text)
		}
		where = append(where, query.Or(alts...))
	}
	if p.Filters != nil && len(p.Filters.Rules) > 0 {
		group, err := filterGroup(*p.Filters)
		if err != nil {
			return nil, err
		}
		where = append(where, group...)
	}
	return where, nil
}

// filterGroup converts user rules to conditions / Convertit les règles utilisateur en conditions
func filterGroup(g domain.FilterGroup) ([]query.Condition, error) {
	conds := make([]query.Condition, 0, len(g.Rules))
	for _, r := range g.Rules {
		c, err := filterRule(r)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	switch strings.ToLower(g.Logic) {
	case "", "and":
		return conds, nil
	case "or":
		return []query.Condition{query.Or(conds...)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown filter logic %q", ErrInvalidArgument, g.Logic)
	}
}

func filterRule(r domain.FilterRule) (query.Condition, error) {
	op, err := query.ParseOperator(r.Operator)
	if err != nil {
		return query.Condition{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := query.ValidateField(r.Field); err != nil {
		return query.Condition{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	c := query.Condition{Field: r.Field, Op: op, Value: r.Value}
	if !op.NeedsValue() {
		c.Value = nil
		return c, nil
	}
	if r.Value == nil {
		return query.Condition{}, fmt.Errorf("%w: operator %s on %q needs a value", ErrInvalidArgument, op, r.Field)
	}
	if op == query.In {
		switch v := r.Value.(type) {
		case []any:
		case []string:
			c = query.InValues(r.Field, v)
		default:
			c.Value = []any{v}
		}
	}
	return c, nil
}

// tallyFacets counts the corpus per facet field, most frequent first
func tallyFacets(corpus []*domain.Client) *domain.Facets {
	types := map[string]int{}
	statuses := map[string]int{}
	countries := map[string]int{}
	industries := map[string]int{}
	for _, c := range corpus {
		types[string(c.ClientType)]++
		statuses[string(c.Status)]++
		if country := c.ContactInfo.Address.Country; country != "" {
			countries[country]++
		}
		if c.IsBusiness() && c.BusinessInfo != nil && c.BusinessInfo.Industry != "" {
			industries[c.BusinessInfo.Industry]++
		}
	}
	return &domain.Facets{
		ClientType: facetValues(types),
		Status:     facetValues(statuses),
		Country:    facetValues(countries),
		Industry:   facetValues(industries),
	}
}

func facetValues(counts map[string]int) []domain.FacetValue {
	out := make([]domain.FacetValue, 0, len(counts))
	for v, n := range counts {
		out = append(out, domain.FacetValue{Value: v, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.FacetValue) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}

// sortByDisplayName orders a fetched page by its computed display name
func sortByDisplayName(clients []*domain.Client, desc bool) {
	slices.SortStableFunc(clients, func(a, b *domain.Client) int {
		r := cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
		if desc {
			return -r
		}
		return r
	})
}
