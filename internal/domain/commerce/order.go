package commerce

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderID identifies an order in the store
type OrderID int64

// CustomerID identifies a registered customer. Zero means guest checkout.
type CustomerID int64

// GuestCustomerID is the customer id of orders placed without an account
const GuestCustomerID CustomerID = 0

// ExportNote is the audit note appended when an order is exported
const ExportNote = "order exported"

// Address is a postal address with its contact details
type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	Postcode  string
	City      string
	Country   string // ISO 3166-1 alpha-2 code
	Phone     string
	Email     string
}

// LineItem is one product line of an order
type LineItem struct {
	ID        int64
	ProductID int64
	SKU       string
	Name      string
	Quantity  int
	Total     decimal.Decimal // line total excluding tax
	TotalTax  decimal.Decimal
}

// Note is an order note. Notes added during a run stay pending until saved.
type Note struct {
	ID        int64
	Content   string
	CreatedAt time.Time
}

// Order is a store order as seen by the connector
type Order struct {
	ID            OrderID
	Number        string
	Status        Status
	CustomerID    CustomerID
	ShippingTotal decimal.Decimal
	DiscountTotal decimal.Decimal
	Billing       Address
	Shipping      Address
	Items         []LineItem
	CouponCodes   []string
	Meta          Metadata
	CreatedAt     time.Time

	pendingNotes []Note
}

// IsGuest reports whether the order has no registered customer
func (o *Order) IsGuest() bool {
	return o.CustomerID == GuestCustomerID
}

// IsExported reports whether the export marker is set
func (o *Order) IsExported() bool {
	return o.Meta.exported()
}

// MarkExported sets the export flag with its timestamp and records an audit note.
func (o *Order) MarkExported(at time.Time, note string) {
	if o.Meta == nil {
		o.Meta = Metadata{}
	}
	o.Meta.setExportMarker(at)
	if note != "" {
		o.AddNote(note, at)
	}
}

// ExportedAt returns the export timestamp, if any
func (o *Order) ExportedAt() (time.Time, bool) {
	if !o.IsExported() {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(ExportDateLayout, o.Meta.Get(MetaExportDate), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ResetExportMarker clears the flag and timestamp so the order is selected again.
func (o *Order) ResetExportMarker() {
	if o.Meta == nil {
		return
	}
	o.Meta.clearExportMarker()
}

// TransitionTo moves the order to status and reports whether it changed.
func (o *Order) TransitionTo(status Status) bool {
	status = ParseStatus(string(status))
	if status == "" || status == ParseStatus(string(o.Status)) {
		return false
	}
	o.Status = status
	return true
}

// AddNote queues a note to be persisted with the order. Blank notes are ignored.
func (o *Order) AddNote(content string, at time.Time) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	o.pendingNotes = append(o.pendingNotes, Note{Content: content, CreatedAt: at})
}

// PendingNotes returns the notes added since the order was loaded
func (o *Order) PendingNotes() []Note {
	return o.pendingNotes
}

// ClearPendingNotes is called by repositories once notes are stored
func (o *Order) ClearPendingNotes() {
	o.pendingNotes = nil
}
