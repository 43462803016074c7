package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"pharmacare/backend/internal/cache"
	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/money"
	"pharmacare/backend/internal/receipt"
	"pharmacare/backend/internal/report"
	"pharmacare/backend/internal/snapshot"
	"pharmacare/backend/internal/store"
)

// Service is the engine behind the UI: catalog edits, the open transaction
// session, sale finalization, settings, reports, and explicit save/load. One
// Service owns exactly one open session; everything touching the cart runs
// under s.mu so the stock invariant holds after every operation.
type Service struct {
	repo     store.Repository
	totals   cache.TotalsCache
	todayTTL time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cart      map[string]*domain.CartLine
	cartOrder []string
}

func New(repo store.Repository, totals cache.TotalsCache) *Service {
	return &Service{
		repo:     repo,
		totals:   totals,
		todayTTL: 30 * time.Second,
		now:      time.Now,
		cart:     make(map[string]*domain.CartLine),
	}
}

// ---- catalog ----

func (s *Service) ListMedicines(ctx context.Context) ([]domain.MedicineRecord, error) {
	return s.repo.ListMedicines(ctx)
}

func (s *Service) SearchMedicines(ctx context.Context, query string, company string) ([]domain.MedicineRecord, error) {
	return s.repo.FindMedicines(ctx, query, company)
}

func (s *Service) ListCompanies(ctx context.Context) ([]string, error) {
	return s.repo.ListCompanies(ctx)
}

func (s *Service) AddMedicine(ctx context.Context, req domain.MedicineRequest) (domain.MedicineRecord, error) {
	rec, err := medicineFromRequest(req)
	if err != nil {
		return domain.MedicineRecord{}, err
	}
	created, err := s.repo.CreateMedicine(ctx, rec)
	if err != nil {
		return domain.MedicineRecord{}, err
	}
	return *created, nil
}

func (s *Service) UpdateMedicine(ctx context.Context, oldName string, req domain.MedicineRequest) (domain.MedicineRecord, error) {
	rec, err := medicineFromRequest(req)
	if err != nil {
		return domain.MedicineRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Name != oldName {
		if _, reserved := s.cart[oldName]; reserved {
			return domain.MedicineRecord{}, fmt.Errorf("%w: %q has reserved stock in the open cart", store.ErrConflict, oldName)
		}
	}
	updated, err := s.repo.UpdateMedicine(ctx, oldName, rec)
	if err != nil {
		return domain.MedicineRecord{}, err
	}
	return *updated, nil
}

// RemoveMedicine refuses to delete a medicine with open cart reservations:
// releasing such a line later could no longer restore the reserved stock.
func (s *Service) RemoveMedicine(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, reserved := s.cart[name]; reserved {
		return fmt.Errorf("%w: %q has reserved stock in the open cart", store.ErrConflict, name)
	}
	return s.repo.DeleteMedicine(ctx, name)
}

func medicineFromRequest(req domain.MedicineRequest) (domain.MedicineRecord, error) {
	priceCents, err := money.ParsePrice(req.Price)
	if err != nil {
		return domain.MedicineRecord{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	if req.Quantity < 0 {
		return domain.MedicineRecord{}, fmt.Errorf("%w: quantity must not be negative", store.ErrInvalidInput)
	}
	return domain.MedicineRecord{
		Name:       strings.TrimSpace(req.Name),
		Company:    strings.TrimSpace(req.Company),
		PriceCents: priceCents,
		Quantity:   req.Quantity,
		Expiry:     strings.TrimSpace(req.Expiry),
		Batch:      strings.TrimSpace(req.Batch),
	}, nil
}

// ---- sale ledger queries ----

// ListSales returns sale records newest date first (calendar order, ties in
// insertion order). A non-empty dateKey narrows to that exact date; a
// non-empty query keeps only sales containing a matching item name.
func (s *Service) ListSales(ctx context.Context, dateKey string, query string) ([]domain.SaleRecord, error) {
	var (
		sales []domain.SaleRecord
		err   error
	)
	if dateKey != "" {
		sales, err = s.repo.SalesByDate(ctx, dateKey)
	} else {
		sales, err = s.repo.ListSales(ctx)
	}
	if err != nil {
		return nil, err
	}

	if needle := strings.ToLower(strings.TrimSpace(query)); needle != "" {
		filtered := sales[:0]
		for _, sale := range sales {
			for _, item := range sale.Items {
				if strings.Contains(strings.ToLower(item.Name), needle) {
					filtered = append(filtered, sale)
					break
				}
			}
		}
		sales = filtered
	}

	sort.SliceStable(sales, func(i, j int) bool {
		ti, erri := time.Parse(domain.DateKeyLayout, sales[i].DateKey)
		tj, errj := time.Parse(domain.DateKeyLayout, sales[j].DateKey)
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		return ti.After(tj)
	})
	return sales, nil
}

// TodaySales returns today's net total as the display string the dashboard
// shows, cached for a short TTL.
func (s *Service) TodaySales(ctx context.Context) (string, error) {
	dateKey := s.now().Format(domain.DateKeyLayout)
	key := todayKey(dateKey)

	if display, ok, err := s.totals.Get(ctx, key); err == nil && ok {
		return display, nil
	} else if err != nil {
		log.Printf("[service] WARN: totals cache read failed: %v", err)
	}

	total, err := s.repo.DailyTotalCents(ctx, dateKey)
	if err != nil {
		return "", err
	}
	display := money.FormatDisplay(total)
	if err := s.totals.Set(ctx, key, display, s.todayTTL); err != nil {
		log.Printf("[service] WARN: totals cache write failed: %v", err)
	}
	if err := s.repo.SetTodaySales(ctx, display); err != nil {
		log.Printf("[service] WARN: persisting today-sales display failed: %v", err)
	}
	return display, nil
}

func todayKey(dateKey string) string {
	return "today-sales:" + dateKey
}

// ExportSalesHistory renders the full ledger as plain text for the export
// sink, newest date first.
func (s *Service) ExportSalesHistory(ctx context.Context) (string, error) {
	sales, err := s.ListSales(ctx, "", "")
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(sales)*4+2)
	lines = append(lines, "SALES HISTORY EXPORT", strings.Repeat("=", 80))
	for _, sale := range sales {
		lines = append(lines, fmt.Sprintf("%s | %s | customer: %s", sale.DateKey, sale.ID, sale.Customer))
		for _, item := range sale.Items {
			lines = append(lines, fmt.Sprintf("  %-25s x%-4d @ %s = %s",
				item.Name, item.Qty, money.Format(item.PriceCents),
				money.Format(item.PriceCents*int64(item.Qty))))
		}
		lines = append(lines, fmt.Sprintf("  gross %s, discount %s, net %s",
			money.Format(sale.GrossCents), money.Format(sale.DiscountCents), money.Format(sale.NetCents)))
		lines = append(lines, strings.Repeat("-", 80))
	}
	return strings.Join(lines, "\n"), nil
}

// ---- reports & dashboard ----

func (s *Service) Report(ctx context.Context, kind report.Kind) (string, error) {
	medicines, err := s.repo.ListMedicines(ctx)
	if err != nil {
		return "", err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return "", err
	}
	return report.Generate(kind, medicines, sales, s.now())
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	medicines, err := s.repo.ListMedicines(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	today, err := s.TodaySales(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	now := s.now()
	return domain.DashboardSummary{
		DateKey:           now.Format(domain.DateKeyLayout),
		MedicineCount:     len(medicines),
		LowStockCount:     len(report.LowStock(medicines).Rows),
		ExpiringSoonCount: len(report.ExpiringSoon(medicines, now).Rows),
		EmptyStockCount:   len(report.EmptyStock(medicines).Rows),
		TodaySalesDisplay: today,
	}, nil
}

// ---- settings ----

func (s *Service) Settings(ctx context.Context) (domain.ReceiptSettings, error) {
	return s.repo.GetSettings(ctx)
}

// UpdateSettings validates the typed settings schema before storing, so the
// receipt and report paths never see an unusable configuration.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.ReceiptSettings) (domain.ReceiptSettings, error) {
	if settings.ReceiptWidth < receipt.MinWidth {
		return domain.ReceiptSettings{}, fmt.Errorf("%w: receipt width must be at least %d", store.ErrInvalidInput, receipt.MinWidth)
	}
	discount, err := money.ParseDiscount(settings.DefaultDiscount)
	if err != nil {
		return domain.ReceiptSettings{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	settings.DefaultDiscount = money.FormatPercent(discount)
	return s.repo.UpdateSettings(ctx, settings)
}

// ---- explicit save / load ----

func (s *Service) SaveData(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: save path is required", store.ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	return snapshot.Save(path, snap)
}

// LoadData replaces the entire inventory, sale ledger, and settings from a
// snapshot file. The loaded state is authoritative: any open cart is
// discarded without restoring stock, since its reservations were taken
// against the state being thrown away.
func (s *Service) LoadData(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: load path is required", store.ErrInvalidInput)
	}
	snap, err := snapshot.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Restore(ctx, snap); err != nil {
		return err
	}
	s.cart = make(map[string]*domain.CartLine)
	s.cartOrder = nil

	key := todayKey(s.now().Format(domain.DateKeyLayout))
	if err := s.totals.Invalidate(ctx, key); err != nil {
		log.Printf("[service] WARN: totals cache invalidate failed: %v", err)
	}
	return nil
}
