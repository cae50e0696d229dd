package exportapp

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/shopspring/decimal"
)

// Column widths imposed by the ERP import format, in bytes
const (
	MaxCustomerIDLen = 20
	MaxNameLen       = 30
	MaxCompanyLen    = 60
	MaxAddressLen    = 60
	MaxPostcodeLen   = 10
	MaxCityLen       = 60
	MaxCountryLen    = 60
	MaxPhoneLen      = 20
	MaxEmailLen      = 100
	MaxProductRefLen = 20
)

// OrderDateLayout formats the order date column
const OrderDateLayout = "2006-01-02"

// LineDiscountPercent is written in the discount column of every order line
const LineDiscountPercent = "0"

// OrderHeaderColumns is the header row of the order headers file
var OrderHeaderColumns = []string{
	"Date Commande",
	"Num Commande",
	"Identifiant Client Facturé",
	"Montant Frais Port",
	"Prenom Livraison",
	"Nom Livraison",
	"Adresse1 Livraison",
	"Adresse2 Livraison",
	"CP Livraison",
	"Ville Livraison",
	"Prenom Facturation",
	"Nom Facturation",
	"Adresse1 Facturation",
	"Adresse2 Facturation",
	"CP Facturation",
	"Ville Facturation",
	"Designation Remise",
	"Montant Remise",
}

// OrderLineColumns is the header row of the order lines file
var OrderLineColumns = []string{
	"Num Commande",
	"Identifiant Produit",
	"Qte",
	"PU",
	"Pourcentage Remise",
}

// ClientColumns is the header row of the clients file
var ClientColumns = []string{
	"Identifiant client",
	"Prenom",
	"Nom",
	"Raison Sociale",
	"Adresse1",
	"CP",
	"Adresse2",
	"Ville",
	"Pays",
	"Telephone1",
	"Email",
}

// CountryNamer turns an ISO country code into a display name
type CountryNamer interface {
	CountryName(code string) string
}

// Formatter turns orders and customers into rows of the ERP format
type Formatter struct {
	countries CountryNamer
}

// NewFormatter creates a Formatter
func NewFormatter(countries CountryNamer) *Formatter {
	return &Formatter{countries: countries}
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
// Truncating an already truncated string returns it unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// FormatMoney renders an amount with two decimals
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// IsTaxInclusive reports whether line prices are exported with tax included.
// Guest orders are tax inclusive; a VAT-exempt customer is not; otherwise
// prices include tax unless the billing address names a company.
// customer may be nil.
func IsTaxInclusive(order *commerce.Order, customer *commerce.Customer) bool {
	if order.IsGuest() {
		return true
	}
	if customer != nil && customer.IsVATExempt() {
		return false
	}
	return strings.TrimSpace(order.Billing.Company) == ""
}

// UnitPrice returns total/quantity, plus tax/quantity when taxInclusive,
// rounded half away from zero to 2 decimals. Zero quantity yields zero.
func UnitPrice(item commerce.LineItem, taxInclusive bool) decimal.Decimal {
	if item.Quantity <= 0 {
		return decimal.Zero
	}
	qty := decimal.NewFromInt(int64(item.Quantity))
	price := item.Total.Div(qty)
	if taxInclusive {
		price = price.Add(item.TotalTax.Div(qty))
	}
	return price.Round(2)
}

// ProductReference is the SKU, or the product id when the SKU is empty
func ProductReference(item commerce.LineItem) string {
	ref := strings.TrimSpace(item.SKU)
	if ref == "" && item.ProductID > 0 {
		ref = strconv.FormatInt(item.ProductID, 10)
	}
	return Truncate(ref, MaxProductRefLen)
}

// OrderHeaderRow formats the order headers file row of order
func (f *Formatter) OrderHeaderRow(order *commerce.Order) []string {
	var date string
	if !order.CreatedAt.IsZero() {
		date = order.CreatedAt.Format(OrderDateLayout)
	}

	ship := order.Shipping
	bill := order.Billing
	return []string{
		date,
		order.Number,
		strconv.FormatInt(int64(order.CustomerID), 10),
		FormatMoney(order.ShippingTotal),
		Truncate(ship.FirstName, MaxNameLen),
		Truncate(ship.LastName, MaxNameLen),
		Truncate(ship.Address1, MaxAddressLen),
		Truncate(ship.Address2, MaxAddressLen),
		Truncate(ship.Postcode, MaxPostcodeLen),
		Truncate(ship.City, MaxCityLen),
		Truncate(bill.FirstName, MaxNameLen),
		Truncate(bill.LastName, MaxNameLen),
		Truncate(bill.Address1, MaxAddressLen),
		Truncate(bill.Address2, MaxAddressLen),
		Truncate(bill.Postcode, MaxPostcodeLen),
		Truncate(bill.City, MaxCityLen),
		strings.Join(order.CouponCodes, ", "),
		FormatMoney(order.DiscountTotal),
	}
}

// OrderLineRows formats one order lines file row per item of order.
// customer is used for the tax-inclusive decision and may be nil.
func (f *Formatter) OrderLineRows(order *commerce.Order, customer *commerce.Customer) [][]string {
	taxInclusive := IsTaxInclusive(order, customer)

	rows := make([][]string, 0, len(order.Items))
	for _, item := range order.Items {
		rows = append(rows, []string{
			order.Number,
			ProductReference(item),
			strconv.Itoa(item.Quantity),
			FormatMoney(UnitPrice(item, taxInclusive)),
			LineDiscountPercent,
		})
	}
	return rows
}

// ClientRow formats the clients file row of customer
func (f *Formatter) ClientRow(customer *commerce.Customer) []string {
	b := customer.Billing
	return []string{
		Truncate(strconv.FormatInt(int64(customer.ID), 10), MaxCustomerIDLen),
		Truncate(b.FirstName, MaxNameLen),
		Truncate(b.LastName, MaxNameLen),
		Truncate(b.Company, MaxCompanyLen),
		Truncate(b.Address1, MaxAddressLen),
		Truncate(b.Postcode, MaxPostcodeLen),
		Truncate(b.Address2, MaxAddressLen),
		Truncate(b.City, MaxCityLen),
		Truncate(f.countryName(b.Country), MaxCountryLen),
		Truncate(b.Phone, MaxPhoneLen),
		Truncate(b.Email, MaxEmailLen),
	}
}

func (f *Formatter) countryName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if f.countries == nil {
		return code
	}
	if name := f.countries.CountryName(code); name != "" {
		return name
	}
	return code
}
