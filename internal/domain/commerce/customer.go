package commerce

import "time"

// Customer is a registered store customer
type Customer struct {
	ID      CustomerID
	Billing Address
	Meta    Metadata
}

// IsVATExempt reports whether the customer carries a truthy VAT-exempt flag
func (c *Customer) IsVATExempt() bool {
	return c.Meta.Truthy(MetaVATExempt)
}

// IsExported reports whether the export marker is set
func (c *Customer) IsExported() bool {
	return c.Meta.exported()
}

// MarkExported sets the export flag together with its timestamp
func (c *Customer) MarkExported(at time.Time) {
	if c.Meta == nil {
		c.Meta = Metadata{}
	}
	c.Meta.setExportMarker(at)
}

// ResetExportMarker clears the flag and timestamp
func (c *Customer) ResetExportMarker() {
	if c.Meta == nil {
		return
	}
	c.Meta.clearExportMarker()
}
