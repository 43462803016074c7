package store

import (
	"context"
	"errors"

	"pharmacare/backend/internal/domain"
)

var (
	// ErrNotFound means the named medicine, sale, or cart line does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means an add or rename collided with an existing medicine name.
	ErrConflict = errors.New("already exists")

	// ErrInsufficientStock means a reservation or adjustment would take
	// on-hand quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidInput covers malformed numeric, date, or required-field input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyCart means finalize was called with no open cart lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// Repository is the persistence boundary for the catalog, the sale ledger,
// and the receipt settings. Implementations must apply each call atomically:
// a failed call leaves state byte-for-byte unchanged.
//
// The open cart is deliberately NOT part of this interface. Reservations live
// in the service and reach the repository only as AdjustQuantity deltas, so
// the on-hand figure a report reads is always true sellable stock.
type Repository interface {
	ListMedicines(ctx context.Context) ([]domain.MedicineRecord, error)
	GetMedicine(ctx context.Context, name string) (*domain.MedicineRecord, error)
	CreateMedicine(ctx context.Context, rec domain.MedicineRecord) (*domain.MedicineRecord, error)
	// UpdateMedicine replaces the record stored under oldName with rec,
	// renaming it when rec.Name differs.
	UpdateMedicine(ctx context.Context, oldName string, rec domain.MedicineRecord) (*domain.MedicineRecord, error)
	DeleteMedicine(ctx context.Context, name string) error
	// FindMedicines matches a case-insensitive substring of the name and,
	// when company is non-empty, an exact company. Results are name-ascending.
	FindMedicines(ctx context.Context, query string, company string) ([]domain.MedicineRecord, error)
	ListCompanies(ctx context.Context) ([]string, error)
	// AdjustQuantity applies a signed stock delta and returns the new
	// on-hand quantity. A delta that would go negative fails with
	// ErrInsufficientStock and changes nothing.
	AdjustQuantity(ctx context.Context, name string, delta int) (int, error)

	AppendSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error)
	ListSales(ctx context.Context) ([]domain.SaleRecord, error)
	SalesByDate(ctx context.Context, dateKey string) ([]domain.SaleRecord, error)
	DailyTotalCents(ctx context.Context, dateKey string) (int64, error)

	GetSettings(ctx context.Context) (domain.ReceiptSettings, error)
	UpdateSettings(ctx context.Context, settings domain.ReceiptSettings) (domain.ReceiptSettings, error)

	// Snapshot returns a deep copy of the whole store state; Restore replaces
	// it wholesale. Neither merges.
	Snapshot(ctx context.Context) (*domain.StoreSnapshot, error)
	Restore(ctx context.Context, snap *domain.StoreSnapshot) error

	// SetTodaySales records the last-displayed today-sales string carried
	// inside snapshots.
	SetTodaySales(ctx context.Context, display string) error
}
