package domain

import "time"

// DateKeyLayout is the calendar-date key used for sale grouping and for
// medicine expiry dates. The format predates this backend and is kept for
// compatibility with previously exported data.
const DateKeyLayout = "02-01-2006"

// TimestampLayout is the human-readable timestamp printed on receipts and
// report headers.
const TimestampLayout = "02-01-2006 15:04:05"

// MedicineRecord is one catalog entry. Name is the unique, case-sensitive
// key. Quantity is the on-hand stock and is never negative; open cart
// reservations have already been subtracted from it.
type MedicineRecord struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
	Expiry     string `json:"expiry"`
	Batch      string `json:"batch"`
}

// MedicineRequest carries a medicine form submission. Price arrives as the
// raw entry text (e.g. "150.00") and is parsed at the service boundary.
type MedicineRequest struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Expiry   string `json:"expiry"`
	Batch    string `json:"batch"`
}

// CartLine is one reservation inside the open transaction session.
// UnitPriceCents is the catalog price snapshotted when the line was first
// reserved; later catalog edits do not change an open cart.
type CartLine struct {
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// ReserveRequest adds stock to the open cart.
type ReserveRequest struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// CartView is the UI projection of the open session: its lines in reservation
// order plus totals for a candidate discount.
type CartView struct {
	Lines           []CartLineView `json:"lines"`
	GrossCents      int64          `json:"gross_cents"`
	DiscountPercent string         `json:"discount_percent"`
	DiscountCents   int64          `json:"discount_cents"`
	NetCents        int64          `json:"net_cents"`
}

type CartLineView struct {
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// SaleItem is one sold line inside a finalized sale record.
type SaleItem struct {
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

// SaleRecord is an immutable, append-only entry in the sale ledger.
type SaleRecord struct {
	ID              string     `json:"id"`
	DateKey         string     `json:"date"`
	SoldAt          time.Time  `json:"sold_at"`
	Customer        string     `json:"customer"`
	Items           []SaleItem `json:"items"`
	GrossCents      int64      `json:"gross_cents"`
	DiscountPercent string     `json:"discount_percent"`
	DiscountCents   int64      `json:"discount_cents"`
	NetCents        int64      `json:"net_cents"`
}

// CheckoutRequest finalizes the open cart into a sale.
type CheckoutRequest struct {
	Customer        string `json:"customer"`
	DiscountPercent string `json:"discount_percent"`
}

type CheckoutResponse struct {
	Sale        SaleRecord `json:"sale"`
	ReceiptText string     `json:"receipt_text"`
}

// ReceiptPreviewRequest renders a one-off receipt for a single catalog item
// (quantity 1) without touching stock or the cart.
type ReceiptPreviewRequest struct {
	Name string `json:"name"`
}

// ReceiptSettings is the typed configuration consumed by the receipt and
// report formatters. DefaultDiscount is kept as the raw entry string so a
// value like "7.5" round-trips exactly through saved state.
type ReceiptSettings struct {
	HeaderText       string `json:"header_text"`
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	FooterText       string `json:"footer_text"`
	ReceiptWidth     int    `json:"receipt_width"`
	GeneratorName    string `json:"generator_name"`
	DefaultDiscount  string `json:"default_discount"`
	ShowCustomerName bool   `json:"show_customer_name"`
	ShowDiscount     bool   `json:"show_discount"`
}

// DefaultReceiptSettings returns the factory configuration used when no saved
// state exists yet.
func DefaultReceiptSettings() ReceiptSettings {
	return ReceiptSettings{
		HeaderText:       "PHARMA-CARE MEDICAL STORE",
		Address:          "123 Health Street, Medtown",
		Phone:            "Tel: (555) 123-4567",
		FooterText:       "Thank you for your purchase!",
		ReceiptWidth:     50,
		GeneratorName:    "System Admin",
		DefaultDiscount:  "0",
		ShowCustomerName: true,
		ShowDiscount:     true,
	}
}

// DashboardSummary is the at-a-glance view served to the UI landing screen.
type DashboardSummary struct {
	DateKey           string `json:"date"`
	MedicineCount     int    `json:"medicine_count"`
	LowStockCount     int    `json:"low_stock_count"`
	ExpiringSoonCount int    `json:"expiring_soon_count"`
	EmptyStockCount   int    `json:"empty_stock_count"`
	TodaySalesDisplay string `json:"today_sales"`
}

// StoreSnapshot is the whole-state snapshot exchanged with the persistence
// layer: the full inventory map, the complete sale history in insertion
// order, the receipt settings, and the last-displayed today-sales string.
type StoreSnapshot struct {
	Inventory  map[string]MedicineRecord `json:"inventory"`
	Sales      []SaleRecord              `json:"sales_history"`
	Settings   ReceiptSettings           `json:"receipt_settings"`
	TodaySales string                    `json:"today_sales"`
}

// DataFileRequest names the file for an explicit, user-chosen save or load.
type DataFileRequest struct {
	Path string `json:"path"`
}
