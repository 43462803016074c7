// Package report builds the five operational reports. Every generator is a
// pure function of an inventory snapshot, a sale-ledger snapshot, and an
// explicit "now", so reports are deterministic and safe to regenerate.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/money"
	"pharmacare/backend/internal/store"
)

// Kind selects which report to generate.
type Kind string

const (
	KindInventory    Kind = "inventory"
	KindLowStock     Kind = "low-stock"
	KindExpiring     Kind = "expiring"
	KindEmptyStock   Kind = "empty-stock"
	KindSalesSummary Kind = "sales-summary"
)

// LowStockThreshold is the exclusive upper bound for the low-stock report.
const LowStockThreshold = 20

// ExpiryHorizon is how far ahead the expiring-soon report looks.
const ExpiryHorizon = 90 * 24 * time.Hour

const width = 80

// Generate renders the requested report as fixed-width text.
func Generate(kind Kind, medicines []domain.MedicineRecord, sales []domain.SaleRecord, now time.Time) (string, error) {
	switch kind {
	case KindInventory:
		return Inventory(medicines).Render(now), nil
	case KindLowStock:
		return LowStock(medicines).Render(now), nil
	case KindExpiring:
		return ExpiringSoon(medicines, now).Render(now), nil
	case KindEmptyStock:
		return EmptyStock(medicines).Render(now), nil
	case KindSalesSummary:
		return SalesSummary(sales).Render(now), nil
	default:
		return "", fmt.Errorf("%w: unknown report kind %q", store.ErrInvalidInput, kind)
	}
}

// Kinds lists the supported report kinds for the UI selector.
func Kinds() []Kind {
	return []Kind{KindInventory, KindLowStock, KindExpiring, KindEmptyStock, KindSalesSummary}
}

// InventoryReport lists the whole catalog with its total value.
type InventoryReport struct {
	Rows            []domain.MedicineRecord
	TotalValueCents int64
}

func Inventory(medicines []domain.MedicineRecord) InventoryReport {
	rows := sortedByName(medicines)
	var total int64
	for _, rec := range rows {
		total += rec.PriceCents * int64(rec.Quantity)
	}
	return InventoryReport{Rows: rows, TotalValueCents: total}
}

func (r InventoryReport) Render(now time.Time) string {
	lines := header("MEDICAL STORE INVENTORY REPORT", now)
	lines = append(lines, stockColumns(), thinRule())
	for _, rec := range r.Rows {
		lines = append(lines, stockRow(rec))
	}
	lines = append(lines,
		rule(),
		padded("TOTAL INVENTORY VALUE:", money.FormatPKR(r.TotalValueCents)),
		rule(),
	)
	return strings.Join(lines, "\n")
}

// StockReport covers the three filtered inventory views (low, expiring,
// empty). Title and empty-result text vary per kind.
type StockReport struct {
	Title     string
	EmptyNote string
	CountNote string
	Rows      []domain.MedicineRecord
	// hideQuantity drops the quantity column, used by the empty-stock
	// report where every quantity is zero.
	hideQuantity bool
}

func LowStock(medicines []domain.MedicineRecord) StockReport {
	report := StockReport{
		Title:     fmt.Sprintf("LOW STOCK REPORT (Quantity < %d)", LowStockThreshold),
		EmptyNote: fmt.Sprintf("No low stock items found (all items have quantity >= %d)", LowStockThreshold),
		CountNote: "Total low stock items",
	}
	for _, rec := range sortedByName(medicines) {
		if rec.Quantity > 0 && rec.Quantity < LowStockThreshold {
			report.Rows = append(report.Rows, rec)
		}
	}
	return report
}

// ExpiringSoon keeps records whose expiry date falls within the horizon from
// now. Records with unparseable expiry dates are silently excluded.
func ExpiringSoon(medicines []domain.MedicineRecord, now time.Time) StockReport {
	report := StockReport{
		Title:     "EXPIRING SOON REPORT (within 3 months)",
		EmptyNote: "No expiring items found (all items expire after 3 months)",
		CountNote: "Total expiring items",
	}
	cutoff := now.Add(ExpiryHorizon)
	for _, rec := range sortedByName(medicines) {
		expiry, err := time.Parse(domain.DateKeyLayout, rec.Expiry)
		if err != nil {
			continue
		}
		if !expiry.After(cutoff) {
			report.Rows = append(report.Rows, rec)
		}
	}
	return report
}

func EmptyStock(medicines []domain.MedicineRecord) StockReport {
	report := StockReport{
		Title:        "EMPTY STOCK REPORT (Quantity = 0)",
		EmptyNote:    "No empty stock items found (all items have quantity > 0)",
		CountNote:    "Total empty stock items",
		hideQuantity: true,
	}
	for _, rec := range sortedByName(medicines) {
		if rec.Quantity == 0 {
			report.Rows = append(report.Rows, rec)
		}
	}
	return report
}

func (r StockReport) Render(now time.Time) string {
	lines := header(r.Title, now)
	if r.hideQuantity {
		lines = append(lines, fmt.Sprintf("%-25s %-15s %-10s %-12s %-10s",
			"Medicine Name", "Company", "Price", "Expiry Date", "Batch No."))
	} else {
		lines = append(lines, stockColumns())
	}
	lines = append(lines, thinRule())
	for _, rec := range r.Rows {
		if r.hideQuantity {
			lines = append(lines, fmt.Sprintf("%-25s %-15s %-10s %-12s %-10s",
				truncate(rec.Name, 25), truncate(rec.Company, 15),
				money.Format(rec.PriceCents), rec.Expiry, rec.Batch))
		} else {
			lines = append(lines, stockRow(rec))
		}
	}
	if len(r.Rows) == 0 {
		lines = append(lines, center(r.EmptyNote))
	}
	lines = append(lines,
		rule(),
		center(fmt.Sprintf("%s: %d", r.CountNote, len(r.Rows))),
		rule(),
	)
	return strings.Join(lines, "\n")
}

// SalesSummaryRow aggregates one calendar date of the ledger.
type SalesSummaryRow struct {
	DateKey      string
	Transactions int
	ItemsSold    int
	GrossCents   int64
	NetCents     int64
}

// SalesSummaryReport groups the ledger by date key, newest date first, with
// a final totals row across all dates.
type SalesSummaryReport struct {
	Rows  []SalesSummaryRow
	Total SalesSummaryRow
}

func SalesSummary(sales []domain.SaleRecord) SalesSummaryReport {
	byDate := map[string]*SalesSummaryRow{}
	order := make([]string, 0, 16)
	for _, sale := range sales {
		row := byDate[sale.DateKey]
		if row == nil {
			row = &SalesSummaryRow{DateKey: sale.DateKey}
			byDate[sale.DateKey] = row
			order = append(order, sale.DateKey)
		}
		row.Transactions++
		for _, item := range sale.Items {
			row.ItemsSold += item.Qty
		}
		row.GrossCents += sale.GrossCents
		row.NetCents += sale.NetCents
	}

	// Calendar order, newest first. A DD-MM-YYYY key that fails to parse
	// sorts after all real dates; ties keep insertion order.
	sort.SliceStable(order, func(i, j int) bool {
		ti, erri := time.Parse(domain.DateKeyLayout, order[i])
		tj, errj := time.Parse(domain.DateKeyLayout, order[j])
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		return ti.After(tj)
	})

	report := SalesSummaryReport{Total: SalesSummaryRow{DateKey: "TOTAL"}}
	for _, key := range order {
		row := *byDate[key]
		report.Rows = append(report.Rows, row)
		report.Total.Transactions += row.Transactions
		report.Total.ItemsSold += row.ItemsSold
		report.Total.GrossCents += row.GrossCents
		report.Total.NetCents += row.NetCents
	}
	return report
}

func (r SalesSummaryReport) Render(now time.Time) string {
	lines := header("SALES SUMMARY REPORT", now)
	lines = append(lines, fmt.Sprintf("%-12s %-15s %-10s %-15s %-15s",
		"Date", "Transactions", "Items Sold", "Gross Total", "Net Total"), thinRule())
	for _, row := range r.Rows {
		lines = append(lines, summaryRow(row))
	}
	lines = append(lines, rule(), summaryRow(r.Total), rule())
	return strings.Join(lines, "\n")
}

func summaryRow(row SalesSummaryRow) string {
	return fmt.Sprintf("%-12s %-15d %-10d %-15s %-15s",
		row.DateKey, row.Transactions, row.ItemsSold,
		money.Format(row.GrossCents), money.Format(row.NetCents))
}

func header(title string, now time.Time) []string {
	return []string{
		center(title),
		"Generated on: " + now.Format(domain.TimestampLayout),
		rule(),
	}
}

func stockColumns() string {
	return fmt.Sprintf("%-25s %-15s %-10s %-10s %-12s %-10s",
		"Medicine Name", "Company", "Price", "Quantity", "Expiry Date", "Batch No.")
}

func stockRow(rec domain.MedicineRecord) string {
	return fmt.Sprintf("%-25s %-15s %-10s %-10d %-12s %-10s",
		truncate(rec.Name, 25), truncate(rec.Company, 15),
		money.Format(rec.PriceCents), rec.Quantity, rec.Expiry, rec.Batch)
}

func rule() string     { return strings.Repeat("=", width) }
func thinRule() string { return strings.Repeat("-", width) }

func padded(label string, amount string) string {
	pad := width - len(label) - len(amount)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + amount
}

func center(text string) string {
	if len(text) >= width {
		return text
	}
	left := (width - len(text)) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-len(text)-left)
}

func truncate(text string, max int) string {
	if len(text) > max {
		return text[:max]
	}
	return text
}

func sortedByName(medicines []domain.MedicineRecord) []domain.MedicineRecord {
	rows := append([]domain.MedicineRecord(nil), medicines...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}
