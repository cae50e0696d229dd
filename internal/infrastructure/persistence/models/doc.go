// Package models contains GORM persistence models for the store tables the
// connector reads and writes. Domain types in internal/domain/commerce carry
// no ORM tags; the mappers here convert between the two.
//
// Tables:
//   - orders, order_items, order_coupons, order_notes, order_meta
//   - customers, customer_meta
//
// Metadata rows are unique per (owner, meta_key). The export marker lives in
// the meta tables as a flag/timestamp pair.
package models
