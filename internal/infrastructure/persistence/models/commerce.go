package models

import (
	"sort"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/shopspring/decimal"
)

// AddressModel is embedded with a billing_ or shipping_ column prefix
type AddressModel struct {
	FirstName string `gorm:"type:varchar(100)"`
	LastName  string `gorm:"type:varchar(100)"`
	Company   string `gorm:"type:varchar(200)"`
	Address1  string `gorm:"column:address_1;type:varchar(255)"`
	Address2  string `gorm:"column:address_2;type:varchar(255)"`
	Postcode  string `gorm:"type:varchar(20)"`
	City      string `gorm:"type:varchar(100)"`
	Country   string `gorm:"type:varchar(2)"`
	Phone     string `gorm:"type:varchar(50)"`
	Email     string `gorm:"type:varchar(200)"`
}

func (m AddressModel) toDomain() commerce.Address {
	return commerce.Address{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Company:   m.Company,
		Address1:  m.Address1,
		Address2:  m.Address2,
		Postcode:  m.Postcode,
		City:      m.City,
		Country:   m.Country,
		Phone:     m.Phone,
		Email:     m.Email,
	}
}

func addressFromDomain(a commerce.Address) AddressModel {
	return AddressModel{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		Postcode:  a.Postcode,
		City:      a.City,
		Country:   a.Country,
		Phone:     a.Phone,
		Email:     a.Email,
	}
}

// OrderModel is the persistence model for orders
type OrderModel struct {
	ID            int64              `gorm:"primaryKey"`
	Number        string             `gorm:"type:varchar(64);not null;index"`
	Status        string             `gorm:"type:varchar(64);not null;index"`
	CustomerID    int64              `gorm:"not null;default:0;index"`
	ShippingTotal decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountTotal decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Billing       AddressModel       `gorm:"embedded;embeddedPrefix:billing_"`
	Shipping      AddressModel       `gorm:"embedded;embeddedPrefix:shipping_"`
	Items         []OrderItemModel   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Coupons       []OrderCouponModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Notes         []OrderNoteModel   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Meta          []OrderMetaModel   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"not null"`
	UpdatedAt     time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one product line of an order
type OrderItemModel struct {
	ID        int64           `gorm:"primaryKey"`
	OrderID   int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;default:0"`
	SKU       string          `gorm:"column:sku;type:varchar(100)"`
	Name      string          `gorm:"type:varchar(255)"`
	Quantity  int             `gorm:"not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderCouponModel is a coupon code applied to an order
type OrderCouponModel struct {
	ID       int64  `gorm:"primaryKey"`
	OrderID  int64  `gorm:"not null;index"`
	Code     string `gorm:"type:varchar(100);not null"`
	Position int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderCouponModel) TableName() string {
	return "order_coupons"
}

// OrderNoteModel is an order note
type OrderNoteModel struct {
	ID        int64     `gorm:"primaryKey"`
	OrderID   int64     `gorm:"not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderNoteModel) TableName() string {
	return "order_notes"
}

// OrderMetaModel is one metadata entry of an order
type OrderMetaModel struct {
	ID        int64  `gorm:"primaryKey"`
	OrderID   int64  `gorm:"not null;uniqueIndex:idx_order_meta_key"`
	MetaKey   string `gorm:"type:varchar(255);not null;uniqueIndex:idx_order_meta_key"`
	MetaValue string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderMetaModel) TableName() string {
	return "order_meta"
}

// CustomerModel is the persistence model for customers
type CustomerModel struct {
	ID        int64               `gorm:"primaryKey"`
	Billing   AddressModel        `gorm:"embedded;embeddedPrefix:billing_"`
	Meta      []CustomerMetaModel `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// CustomerMetaModel is one metadata entry of a customer
type CustomerMetaModel struct {
	ID         int64  `gorm:"primaryKey"`
	CustomerID int64  `gorm:"not null;uniqueIndex:idx_customer_meta_key"`
	MetaKey    string `gorm:"type:varchar(255);not null;uniqueIndex:idx_customer_meta_key"`
	MetaValue  string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerMetaModel) TableName() string {
	return "customer_meta"
}

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&OrderModel{},
		&OrderItemModel{},
		&OrderCouponModel{},
		&OrderNoteModel{},
		&OrderMetaModel{},
		&CustomerModel{},
		&CustomerMetaModel{},
	}
}

// ToDomain converts the model and its loaded associations to a domain order.
// Notes are not loaded into the domain order.
func (m *OrderModel) ToDomain() *commerce.Order {
	o := &commerce.Order{
		ID:            commerce.OrderID(m.ID),
		Number:        m.Number,
		Status:        commerce.ParseStatus(m.Status),
		CustomerID:    commerce.CustomerID(m.CustomerID),
		ShippingTotal: m.ShippingTotal,
		DiscountTotal: m.DiscountTotal,
		Billing:       m.Billing.toDomain(),
		Shipping:      m.Shipping.toDomain(),
		Meta:          make(commerce.Metadata, len(m.Meta)),
		CreatedAt:     m.CreatedAt,
	}

	for _, item := range m.Items {
		o.Items = append(o.Items, commerce.LineItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Total:     item.Total,
			TotalTax:  item.TotalTax,
		})
	}

	coupons := append([]OrderCouponModel(nil), m.Coupons...)
	sort.SliceStable(coupons, func(i, j int) bool { return coupons[i].Position < coupons[j].Position })
	for _, c := range coupons {
		o.CouponCodes = append(o.CouponCodes, c.Code)
	}

	for _, meta := range m.Meta {
		o.Meta[meta.MetaKey] = meta.MetaValue
	}
	return o
}

// OrderModelFromDomain builds a model with its items, coupons and metadata
func OrderModelFromDomain(o *commerce.Order) *OrderModel {
	m := &OrderModel{
		ID:            int64(o.ID),
		Number:        o.Number,
		Status:        string(o.Status),
		CustomerID:    int64(o.CustomerID),
		ShippingTotal: o.ShippingTotal,
		DiscountTotal: o.DiscountTotal,
		Billing:       addressFromDomain(o.Billing),
		Shipping:      addressFromDomain(o.Shipping),
		CreatedAt:     o.CreatedAt,
	}
	for _, item := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:        item.ID,
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Total:     item.Total,
			TotalTax:  item.TotalTax,
		})
	}
	for i, code := range o.CouponCodes {
		m.Coupons = append(m.Coupons, OrderCouponModel{Code: code, Position: i})
	}
	m.Meta = OrderMetaModels(int64(o.ID), o.Meta)
	return m
}

// OrderMetaModels flattens metadata into rows sorted by key
func OrderMetaModels(orderID int64, meta commerce.Metadata) []OrderMetaModel {
	rows := make([]OrderMetaModel, 0, len(meta))
	for _, key := range sortedKeys(meta) {
		rows = append(rows, OrderMetaModel{OrderID: orderID, MetaKey: key, MetaValue: meta[key]})
	}
	return rows
}

// ToDomain converts the model and its loaded metadata to a domain customer
func (m *CustomerModel) ToDomain() *commerce.Customer {
	c := &commerce.Customer{
		ID:      commerce.CustomerID(m.ID),
		Billing: m.Billing.toDomain(),
		Meta:    make(commerce.Metadata, len(m.Meta)),
	}
	for _, meta := range m.Meta {
		c.Meta[meta.MetaKey] = meta.MetaValue
	}
	return c
}

// CustomerModelFromDomain builds a model with its metadata
func CustomerModelFromDomain(c *commerce.Customer) *CustomerModel {
	return &CustomerModel{
		ID:      int64(c.ID),
		Billing: addressFromDomain(c.Billing),
		Meta:    CustomerMetaModels(int64(c.ID), c.Meta),
	}
}

// CustomerMetaModels flattens metadata into rows sorted by key
func CustomerMetaModels(customerID int64, meta commerce.Metadata) []CustomerMetaModel {
	rows := make([]CustomerMetaModel, 0, len(meta))
	for _, key := range sortedKeys(meta) {
		rows = append(rows, CustomerMetaModel{CustomerID: customerID, MetaKey: key, MetaValue: meta[key]})
	}
	return rows
}

func sortedKeys(meta commerce.Metadata) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
