package services

import (
	"strings"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// Expander rewrites user queries by appending the formal medical term
// for every informal term found in the query. Expansion is additive:
// the original query text is always preserved, so a query containing no
// informal term passes through unchanged.
type Expander struct {
	table domain.SynonymTable
}

// NewExpander creates an expander over the given synonym table. The
// table is sorted by informal term so that append order, and the
// fallback term choice, do not depend on load order.
func NewExpander(table domain.SynonymTable) *Expander {
	return &Expander{table: table.Sorted()}
}

// Expand normalises the query (lower-case, trimmed) and appends the
// formal term for every informal term occurring as a substring. It
// returns the expanded query and the matched formal terms in table
// order; the first matched term drives the retriever's fallback search.
func (e *Expander) Expand(query string) (string, []string) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return "", nil
	}

	expanded := normalized
	var matched []string

	for _, pair := range e.table {
		if strings.Contains(normalized, strings.ToLower(pair.Informal)) {
			expanded += " " + pair.Formal
			matched = append(matched, pair.Formal)
		}
	}

	if len(matched) > 0 {
		logger.Debug("Expanded query %q -> %q", query, expanded)
	}
	return expanded, matched
}
