package receipt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/store"
)

var renderTime = time.Date(2026, 9, 1, 14, 30, 5, 0, time.UTC)

func testItems() []domain.SaleItem {
	return []domain.SaleItem{
		{Name: "Paracetamol 500mg", Qty: 2, PriceCents: 15000},
		{Name: "Omeprazole 20mg", Qty: 1, PriceCents: 42000},
	}
}

func TestRenderLayout(t *testing.T) {
	settings := domain.DefaultReceiptSettings()
	text, err := Render(testItems(), settings, "Ali", decimal.NewFromInt(10), renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	lines := strings.Split(text, "\n")
	rule := strings.Repeat("=", 50)
	if lines[0] != rule || lines[len(lines)-1] != rule {
		t.Fatalf("receipt must open and close with a full-width rule")
	}

	header := strings.TrimSpace(lines[1])
	if header != settings.HeaderText {
		t.Fatalf("header line = %q", lines[1])
	}
	if len(lines[1]) != 50 {
		t.Fatalf("centered header must span the full width, got %d", len(lines[1]))
	}

	if !strings.Contains(text, "Date: 01-09-2026 14:30:05") {
		t.Fatalf("missing or misformatted date line:\n%s", text)
	}
	if !strings.Contains(text, "Customer: Ali") {
		t.Fatalf("customer line missing:\n%s", text)
	}

	// Gross 720.00, 10% discount 72.00, net 648.00.
	if !strings.Contains(text, "PKR 720.00") {
		t.Fatalf("gross total missing:\n%s", text)
	}
	if !strings.Contains(text, "DISCOUNT (10%):") || !strings.Contains(text, "-PKR 72.00") {
		t.Fatalf("discount line missing:\n%s", text)
	}
	if !strings.Contains(text, "PKR 648.00") {
		t.Fatalf("net total missing:\n%s", text)
	}
	if !strings.Contains(text, "Generated by: System Admin") {
		t.Fatalf("generated-by box missing:\n%s", text)
	}
	if !strings.Contains(text, settings.FooterText) {
		t.Fatalf("footer missing:\n%s", text)
	}
}

func TestRenderTotalsAreRightAligned(t *testing.T) {
	text, err := Render(testItems(), domain.DefaultReceiptSettings(), "", decimal.Zero, renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "GROSS TOTAL:") {
			if len(line) != 50 {
				t.Fatalf("totals line must span the full width, got %d: %q", len(line), line)
			}
			if !strings.HasSuffix(line, "PKR 720.00") {
				t.Fatalf("amount must be flush right: %q", line)
			}
			return
		}
	}
	t.Fatalf("no gross total line found:\n%s", text)
}

func TestRenderHidesDiscountWhenZeroOrDisabled(t *testing.T) {
	settings := domain.DefaultReceiptSettings()

	text, err := Render(testItems(), settings, "", decimal.Zero, renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(text, "DISCOUNT") || strings.Contains(text, "NET TOTAL") {
		t.Fatalf("zero discount must not print discount lines:\n%s", text)
	}

	settings.ShowDiscount = false
	text, err = Render(testItems(), settings, "", decimal.NewFromInt(10), renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(text, "DISCOUNT") {
		t.Fatalf("disabled discount must not print discount lines:\n%s", text)
	}
}

func TestRenderHidesCustomerWhenDisabled(t *testing.T) {
	settings := domain.DefaultReceiptSettings()
	settings.ShowCustomerName = false
	text, err := Render(testItems(), settings, "Ali", decimal.Zero, renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(text, "Customer:") {
		t.Fatalf("customer line should be hidden:\n%s", text)
	}
}

func TestRenderTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("X", 40)
	items := []domain.SaleItem{{Name: long, Qty: 1, PriceCents: 100}}
	text, err := Render(items, domain.DefaultReceiptSettings(), "", decimal.Zero, renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(text, long) {
		t.Fatalf("item name over 25 chars must be truncated")
	}
	if !strings.Contains(text, long[:25]) {
		t.Fatalf("truncated item name missing:\n%s", text)
	}
}

func TestRenderRejectsNarrowWidth(t *testing.T) {
	settings := domain.DefaultReceiptSettings()
	settings.ReceiptWidth = MinWidth - 1
	if _, err := Render(testItems(), settings, "", decimal.Zero, renderTime); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	settings := domain.DefaultReceiptSettings()
	a, err := Render(testItems(), settings, "Ali", decimal.NewFromInt(5), renderTime)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, _ := Render(testItems(), settings, "Ali", decimal.NewFromInt(5), renderTime)
	if a != b {
		t.Fatalf("same inputs must render identical receipts")
	}
}
