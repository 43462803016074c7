// Package receipt renders the fixed-width customer receipt. Rendering is a
// pure function of its inputs; the timestamp is passed in, never read from
// the clock, so the same sale always produces the same text.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/money"
	"pharmacare/backend/internal/store"
)

// MinWidth is the narrowest receipt that can still hold the boxed
// generated-by footer.
const MinWidth = 20

const nameColumn = 25

// Render produces the receipt text for the given line items. The discount
// line appears only when settings enable it and the percentage is positive.
func Render(items []domain.SaleItem, settings domain.ReceiptSettings, customer string, discountPercent decimal.Decimal, at time.Time) (string, error) {
	width := settings.ReceiptWidth
	if width < MinWidth {
		return "", fmt.Errorf("%w: receipt width %d is below the minimum of %d", store.ErrInvalidInput, width, MinWidth)
	}

	lines := make([]string, 0, len(items)+16)
	rule := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	lines = append(lines,
		rule,
		center(settings.HeaderText, width),
		center(settings.Address, width),
		center(settings.Phone, width),
		rule,
		"Date: "+at.Format(domain.TimestampLayout),
	)
	if settings.ShowCustomerName {
		lines = append(lines, "Customer: "+customer)
	}

	lines = append(lines,
		thin,
		fmt.Sprintf("%-25s %-6s %-8s %-10s", "ITEM", "QTY", "PRICE", "TOTAL"),
		thin,
	)

	var gross int64
	for _, item := range items {
		amount := item.PriceCents * int64(item.Qty)
		gross += amount
		lines = append(lines, fmt.Sprintf("%-25s %-6d %-8s %-10s",
			truncate(item.Name, nameColumn), item.Qty,
			money.Format(item.PriceCents), money.Format(amount)))
	}

	lines = append(lines, thin)
	lines = append(lines, totalLine("GROSS TOTAL:", gross, width))
	if settings.ShowDiscount && discountPercent.IsPositive() {
		discount := money.DiscountCents(gross, discountPercent)
		lines = append(lines,
			totalLineText(fmt.Sprintf("DISCOUNT (%s%%):", money.FormatPercent(discountPercent)), "-"+money.FormatPKR(discount), width),
			totalLine("NET TOTAL:", gross-discount, width),
		)
	}
	lines = append(lines, thin)

	lines = append(lines, box("Generated by: "+settings.GeneratorName, width)...)
	lines = append(lines, center(settings.FooterText, width), rule)

	return strings.Join(lines, "\n"), nil
}

// totalLine lays out a totals row: label flush left, amount flush right.
func totalLine(label string, cents int64, width int) string {
	return totalLineText(label, money.FormatPKR(cents), width)
}

func totalLineText(label string, amount string, width int) string {
	pad := width - len(label) - len(amount)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + amount
}

// box frames text in a +---+ box spanning the full width, truncating the
// text to fit the interior.
func box(text string, width int) []string {
	interior := width - 2
	framed := " " + text + " "
	if len(framed) > interior {
		framed = framed[:interior]
	}
	edge := "+" + strings.Repeat("-", interior) + "+"
	return []string{edge, "|" + center(framed, interior) + "|", edge}
}

func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	left := (width - len(text)) / 2
	right := width - len(text) - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

func truncate(text string, max int) string {
	if len(text) > max {
		return text[:max]
	}
	return text
}
