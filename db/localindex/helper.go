package localindex

import (
	"fmt"
	"strings"
	"sync"
)

// queryHelper compiles user text the way the platform helper does: every
// whitespace separated word becomes a prefix CONTAINS over the first content
// property, followed by the where restrictions and the sort order.
type queryHelper struct {
	catalog string

	mu                sync.Mutex
	columns           string
	contentProperties string
	sortOrder         string
	whereRestriction  string
}

func (h *queryHelper) SetOutputColumns(columns string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.columns = columns
	return nil
}

func (h *queryHelper) SetContentProperties(properties string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contentProperties = properties
	return nil
}

func (h *queryHelper) SetSortOrder(order string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sortOrder = order
	return nil
}

func (h *queryHelper) SetWhereRestriction(restriction string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.whereRestriction = restriction
	return nil
}

func (h *queryHelper) Compile(userText string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.columns == "" {
		return "", fmt.Errorf("output columns are not set")
	}

	property := strings.TrimSpace(strings.Split(h.contentProperties, ",")[0])
	var conditions []string
	if property != "" {
		for _, word := range strings.Fields(sanitize(userText)) {
			conditions = append(conditions, fmt.Sprintf(`CONTAINS(%s, '"%s*"')`, property, word))
		}
	}

	restriction := strings.TrimSpace(h.whereRestriction)
	var where string
	switch {
	case len(conditions) > 0:
		where = strings.TrimSpace(strings.Join(conditions, " AND ") + " " + restriction)
	default:
		where = strings.TrimSpace(strings.TrimPrefix(restriction, "AND "))
	}

	var query strings.Builder
	fmt.Fprintf(&query, "SELECT %s FROM %s", h.columns, h.catalog)
	if where != "" {
		fmt.Fprintf(&query, " WHERE %s", where)
	}
	if h.sortOrder != "" {
		fmt.Fprintf(&query, " ORDER BY %s", h.sortOrder)
	}

	return query.String(), nil
}

// sanitize drops characters that would break out of a CONTAINS literal.
func sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '*', '(', ')':
			return ' '
		}
		return r
	}, text)
}
