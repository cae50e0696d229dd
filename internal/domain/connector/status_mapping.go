package connector

import (
	"sort"
	"strings"

	"github.com/erp/connector/internal/domain/commerce"
)

// StatusMapping maps ERP status codes to store statuses.
// Keys are stored upper-cased, so lookups ignore case.
type StatusMapping map[string]commerce.Status

// DefaultStatusMapping returns the mapping used when none is configured
func DefaultStatusMapping() StatusMapping {
	return StatusMapping{
		"EN_COURS":   commerce.StatusProcessing,
		"EXPEDIEE":   commerce.StatusShipped,
		"LIVREE":     commerce.StatusDelivered,
		"ANNULEE":    commerce.StatusCancelled,
		"REMBOURSEE": commerce.StatusRefunded,
		"EN_ATTENTE": commerce.StatusOnHold,
	}
}

// NewStatusMapping builds a mapping from raw external → local pairs.
// Blank keys are dropped; local statuses are normalized with the store prefix.
func NewStatusMapping(raw map[string]string) StatusMapping {
	m := make(StatusMapping, len(raw))
	for external, local := range raw {
		key := normalizeExternal(external)
		if key == "" {
			continue
		}
		m[key] = commerce.ParseStatus(local)
	}
	return m
}

// Resolve returns the store status for an external code
func (m StatusMapping) Resolve(external string) (commerce.Status, bool) {
	status, ok := m[normalizeExternal(external)]
	if !ok || status == "" {
		return "", false
	}
	return status, true
}

// Keys returns the external codes in lexical order
func (m StatusMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeExternal(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
