package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/store"
)

// Store is the in-memory Repository used in single-user mode. All state is
// guarded by one RWMutex so every operation is atomic with respect to the
// stock invariant, including snapshots taken by the autosaver.
type Store struct {
	mu        sync.RWMutex
	medicines map[string]domain.MedicineRecord
	sales     []domain.SaleRecord
	settings  domain.ReceiptSettings
	today     string
}

func New() *Store {
	return &Store{
		medicines: make(map[string]domain.MedicineRecord),
		sales:     make([]domain.SaleRecord, 0),
		settings:  domain.DefaultReceiptSettings(),
		today:     "Pkr 0.00",
	}
}

// NewSeeded returns a store preloaded with the demo catalog, used when no
// saved state exists yet.
func NewSeeded() *Store {
	s := New()
	for _, rec := range []domain.MedicineRecord{
		{Name: "Paracetamol 500mg", Company: "GSK", PriceCents: 15000, Quantity: 150, Expiry: "13-03-2028", Batch: "P123"},
		{Name: "Ibuprofen 200mg", Company: "Pfizer", PriceCents: 22050, Quantity: 80, Expiry: "12-09-2025", Batch: "I456"},
		{Name: "Amoxicillin 250mg", Company: "Novartis", PriceCents: 35075, Quantity: 45, Expiry: "23-09-2026", Batch: "A789"},
		{Name: "Cetirizine 10mg", Company: "Johnson & Johnson", PriceCents: 18025, Quantity: 60, Expiry: "09-09-2027", Batch: "C101"},
		{Name: "Omeprazole 20mg", Company: "Roche", PriceCents: 42000, Quantity: 35, Expiry: "20-03-2025", Batch: "O202"},
	} {
		s.medicines[rec.Name] = rec
	}
	return s
}

func validateMedicine(rec domain.MedicineRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("%w: medicine name is required", store.ErrInvalidInput)
	}
	if rec.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", store.ErrInvalidInput)
	}
	if rec.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", store.ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Expiry) == "" || strings.TrimSpace(rec.Batch) == "" {
		return fmt.Errorf("%w: expiry date and batch number are required", store.ErrInvalidInput)
	}
	return nil
}

func (s *Store) ListMedicines(_ context.Context) ([]domain.MedicineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedMedicinesLocked(), nil
}

// sortedMedicinesLocked returns a name-ascending copy. Callers hold s.mu.
func (s *Store) sortedMedicinesLocked() []domain.MedicineRecord {
	result := make([]domain.MedicineRecord, 0, len(s.medicines))
	for _, rec := range s.medicines {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Store) GetMedicine(_ context.Context, name string) (*domain.MedicineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.medicines[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := rec
	return &copied, nil
}

func (s *Store) CreateMedicine(_ context.Context, rec domain.MedicineRecord) (*domain.MedicineRecord, error) {
	if err := validateMedicine(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.medicines[rec.Name]; exists {
		return nil, fmt.Errorf("medicine %q: %w", rec.Name, store.ErrConflict)
	}
	s.medicines[rec.Name] = rec
	created := rec
	return &created, nil
}

func (s *Store) UpdateMedicine(_ context.Context, oldName string, rec domain.MedicineRecord) (*domain.MedicineRecord, error) {
	if err := validateMedicine(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.medicines[oldName]; !exists {
		return nil, fmt.Errorf("medicine %q: %w", oldName, store.ErrNotFound)
	}
	if rec.Name != oldName {
		if _, taken := s.medicines[rec.Name]; taken {
			return nil, fmt.Errorf("medicine %q: %w", rec.Name, store.ErrConflict)
		}
		delete(s.medicines, oldName)
	}
	s.medicines[rec.Name] = rec
	updated := rec
	return &updated, nil
}

func (s *Store) DeleteMedicine(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.medicines[name]; !exists {
		return fmt.Errorf("medicine %q: %w", name, store.ErrNotFound)
	}
	delete(s.medicines, name)
	return nil
}

func (s *Store) FindMedicines(_ context.Context, query string, company string) ([]domain.MedicineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	result := make([]domain.MedicineRecord, 0, len(s.medicines))
	for _, rec := range s.medicines {
		if needle != "" && !strings.Contains(strings.ToLower(rec.Name), needle) {
			continue
		}
		if company != "" && rec.Company != company {
			continue
		}
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	companies := make([]string, 0, len(s.medicines))
	for _, rec := range s.medicines {
		if rec.Company == "" || seen[rec.Company] {
			continue
		}
		seen[rec.Company] = true
		companies = append(companies, rec.Company)
	}
	sort.Strings(companies)
	return companies, nil
}

func (s *Store) AdjustQuantity(_ context.Context, name string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.medicines[name]
	if !ok {
		return 0, fmt.Errorf("medicine %q: %w", name, store.ErrNotFound)
	}
	next := rec.Quantity + delta
	if next < 0 {
		return 0, fmt.Errorf("medicine %q has %d on hand: %w", name, rec.Quantity, store.ErrInsufficientStock)
	}
	rec.Quantity = next
	s.medicines[name] = rec
	return next, nil
}

func (s *Store) AppendSale(_ context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if sale.ID == "" || sale.DateKey == "" || len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: incomplete sale record", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sale.Items = append([]domain.SaleItem(nil), sale.Items...)
	s.sales = append(s.sales, sale)
	appended := sale
	return &appended, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySales(s.sales), nil
}

func (s *Store) SalesByDate(_ context.Context, dateKey string) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.SaleRecord, 0, 8)
	for _, sale := range s.sales {
		if sale.DateKey == dateKey {
			matched = append(matched, sale)
		}
	}
	return copySales(matched), nil
}

func (s *Store) DailyTotalCents(_ context.Context, dateKey string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, sale := range s.sales {
		if sale.DateKey == dateKey {
			total += sale.NetCents
		}
	}
	return total, nil
}

func (s *Store) GetSettings(_ context.Context) (domain.ReceiptSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings domain.ReceiptSettings) (domain.ReceiptSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.settings, nil
}

func (s *Store) Snapshot(_ context.Context) (*domain.StoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inventory := make(map[string]domain.MedicineRecord, len(s.medicines))
	for name, rec := range s.medicines {
		inventory[name] = rec
	}
	return &domain.StoreSnapshot{
		Inventory:  inventory,
		Sales:      copySales(s.sales),
		Settings:   s.settings,
		TodaySales: s.today,
	}, nil
}

func (s *Store) Restore(_ context.Context, snap *domain.StoreSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	medicines := make(map[string]domain.MedicineRecord, len(snap.Inventory))
	for name, rec := range snap.Inventory {
		medicines[name] = rec
	}
	s.medicines = medicines
	s.sales = copySales(snap.Sales)
	s.settings = snap.Settings
	s.today = snap.TodaySales
	return nil
}

func (s *Store) SetTodaySales(_ context.Context, display string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today = display
	return nil
}

func copySales(sales []domain.SaleRecord) []domain.SaleRecord {
	result := make([]domain.SaleRecord, len(sales))
	copy(result, sales)
	for i := range result {
		result[i].Items = append([]domain.SaleItem(nil), result[i].Items...)
	}
	return result
}
