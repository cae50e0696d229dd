package commerce

import (
	"strings"
	"time"
)

// Metadata keys written by the connector
const (
	MetaExported   = "_erp_exported"
	MetaExportDate = "_erp_export_date"
	MetaVATExempt  = "is_vat_exempt"

	// ExportedFlag is the value stored under MetaExported once a record is exported
	ExportedFlag = "1"

	// ExportDateLayout is the layout of the MetaExportDate value
	ExportDateLayout = "2006-01-02 15:04:05"
)

// Metadata is the free-form key/value bag attached to orders and customers.
type Metadata map[string]string

// Get returns the value for key, or "" when absent
func (m Metadata) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

// Truthy reports whether the value stored under key reads as true:
// present, non-empty and not one of "0", "false", "no".
func (m Metadata) Truthy(key string) bool {
	v := strings.ToLower(strings.TrimSpace(m.Get(key)))
	switch v {
	case "", "0", "false", "no":
		return false
	}
	return true
}

// exported reports whether the export marker is set
func (m Metadata) exported() bool {
	return m.Get(MetaExported) == ExportedFlag
}

// setExportMarker writes the flag and its timestamp together
func (m Metadata) setExportMarker(at time.Time) {
	m[MetaExported] = ExportedFlag
	m[MetaExportDate] = at.Format(ExportDateLayout)
}

func (m Metadata) clearExportMarker() {
	delete(m, MetaExported)
	delete(m, MetaExportDate)
}
