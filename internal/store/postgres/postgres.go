package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/store"
)

// Store is the PostgreSQL Repository, used when DATABASE_URL is set. Sale
// items are kept as a jsonb column so the ordered line sequence round-trips
// exactly; the settings struct and today-sales display live in a single-row
// state table.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS medicines (
			name        text PRIMARY KEY,
			company     text NOT NULL DEFAULT '',
			price_cents bigint NOT NULL CHECK (price_cents >= 0),
			quantity    integer NOT NULL CHECK (quantity >= 0),
			expiry      text NOT NULL,
			batch       text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			position         bigserial PRIMARY KEY,
			id               text NOT NULL UNIQUE,
			date_key         text NOT NULL,
			sold_at          timestamptz NOT NULL,
			customer         text NOT NULL DEFAULT '',
			gross_cents      bigint NOT NULL,
			discount_percent text NOT NULL DEFAULT '0',
			discount_cents   bigint NOT NULL,
			net_cents        bigint NOT NULL,
			items            jsonb NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sales_date_key_idx ON sales (date_key)`,
		`CREATE TABLE IF NOT EXISTS app_state (
			id          integer PRIMARY KEY CHECK (id = 1),
			settings    jsonb NOT NULL,
			today_sales text NOT NULL DEFAULT 'Pkr 0.00'
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	defaults, err := json.Marshal(domain.DefaultReceiptSettings())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_state (id, settings) VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, defaults)
	return err
}

func validateMedicine(rec domain.MedicineRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("%w: medicine name is required", store.ErrInvalidInput)
	}
	if rec.PriceCents < 0 || rec.Quantity < 0 {
		return fmt.Errorf("%w: price and quantity must not be negative", store.ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Expiry) == "" || strings.TrimSpace(rec.Batch) == "" {
		return fmt.Errorf("%w: expiry date and batch number are required", store.ErrInvalidInput)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const medicineColumns = "name, company, price_cents, quantity, expiry, batch"

func scanMedicine(row interface{ Scan(...any) error }) (domain.MedicineRecord, error) {
	var rec domain.MedicineRecord
	err := row.Scan(&rec.Name, &rec.Company, &rec.PriceCents, &rec.Quantity, &rec.Expiry, &rec.Batch)
	return rec, err
}

func (s *Store) ListMedicines(ctx context.Context) ([]domain.MedicineRecord, error) {
	return s.queryMedicines(ctx, `
		SELECT `+medicineColumns+` FROM medicines ORDER BY name
	`)
}

func (s *Store) queryMedicines(ctx context.Context, query string, args ...any) ([]domain.MedicineRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	medicines := make([]domain.MedicineRecord, 0, 64)
	for rows.Next() {
		rec, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, rec)
	}
	return medicines, rows.Err()
}

func (s *Store) GetMedicine(ctx context.Context, name string) (*domain.MedicineRecord, error) {
	rec, err := scanMedicine(s.db.QueryRowContext(ctx, `
		SELECT `+medicineColumns+` FROM medicines WHERE name = $1
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("medicine %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) CreateMedicine(ctx context.Context, rec domain.MedicineRecord) (*domain.MedicineRecord, error) {
	if err := validateMedicine(rec); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO medicines (`+medicineColumns+`) VALUES ($1,$2,$3,$4,$5,$6)
	`, rec.Name, rec.Company, rec.PriceCents, rec.Quantity, rec.Expiry, rec.Batch)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("medicine %q: %w", rec.Name, store.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	created := rec
	return &created, nil
}

func (s *Store) UpdateMedicine(ctx context.Context, oldName string, rec domain.MedicineRecord) (*domain.MedicineRecord, error) {
	if err := validateMedicine(rec); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE medicines
		SET name = $2, company = $3, price_cents = $4, quantity = $5, expiry = $6, batch = $7
		WHERE name = $1
	`, oldName, rec.Name, rec.Company, rec.PriceCents, rec.Quantity, rec.Expiry, rec.Batch)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("medicine %q: %w", rec.Name, store.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("medicine %q: %w", oldName, store.ErrNotFound)
	}
	updated := rec
	return &updated, nil
}

func (s *Store) DeleteMedicine(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE name = $1`, name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("medicine %q: %w", name, store.ErrNotFound)
	}
	return nil
}

func (s *Store) FindMedicines(ctx context.Context, query string, company string) ([]domain.MedicineRecord, error) {
	needle := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	if company != "" {
		return s.queryMedicines(ctx, `
			SELECT `+medicineColumns+` FROM medicines
			WHERE name ILIKE $1 AND company = $2
			ORDER BY name
		`, needle, company)
	}
	return s.queryMedicines(ctx, `
		SELECT `+medicineColumns+` FROM medicines
		WHERE name ILIKE $1
		ORDER BY name
	`, needle)
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

func (s *Store) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT company FROM medicines WHERE company <> '' ORDER BY company
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]string, 0, 16)
	for rows.Next() {
		var company string
		if err := rows.Scan(&company); err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (s *Store) AdjustQuantity(ctx context.Context, name string, delta int) (int, error) {
	var quantity int
	err := s.db.QueryRowContext(ctx, `
		UPDATE medicines SET quantity = quantity + $2
		WHERE name = $1 AND quantity + $2 >= 0
		RETURNING quantity
	`, name, delta).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the medicine is missing or the delta would go negative.
		if _, getErr := s.GetMedicine(ctx, name); getErr != nil {
			return 0, getErr
		}
		return 0, fmt.Errorf("medicine %q: %w", name, store.ErrInsufficientStock)
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

func (s *Store) AppendSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if sale.ID == "" || sale.DateKey == "" || len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: incomplete sale record", store.ErrInvalidInput)
	}
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (id, date_key, sold_at, customer, gross_cents, discount_percent, discount_cents, net_cents, items)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, sale.ID, sale.DateKey, sale.SoldAt, sale.Customer, sale.GrossCents,
		sale.DiscountPercent, sale.DiscountCents, sale.NetCents, items)
	if err != nil {
		return nil, err
	}
	appended := sale
	return &appended, nil
}

const saleColumns = "id, date_key, sold_at, customer, gross_cents, discount_percent, discount_cents, net_cents, items"

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0, 64)
	for rows.Next() {
		var (
			sale  domain.SaleRecord
			items []byte
		)
		if err := rows.Scan(&sale.ID, &sale.DateKey, &sale.SoldAt, &sale.Customer,
			&sale.GrossCents, &sale.DiscountPercent, &sale.DiscountCents, &sale.NetCents, &items); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &sale.Items); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	return s.querySales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY position`)
}

func (s *Store) SalesByDate(ctx context.Context, dateKey string) ([]domain.SaleRecord, error) {
	return s.querySales(ctx, `
		SELECT `+saleColumns+` FROM sales WHERE date_key = $1 ORDER BY position
	`, dateKey)
}

func (s *Store) DailyTotalCents(ctx context.Context, dateKey string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(net_cents), 0) FROM sales WHERE date_key = $1
	`, dateKey).Scan(&total)
	return total, err
}

func (s *Store) GetSettings(ctx context.Context) (domain.ReceiptSettings, error) {
	var payload []byte
	if err := s.db.QueryRowContext(ctx, `SELECT settings FROM app_state WHERE id = 1`).Scan(&payload); err != nil {
		return domain.ReceiptSettings{}, err
	}
	var settings domain.ReceiptSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return domain.ReceiptSettings{}, err
	}
	return settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings domain.ReceiptSettings) (domain.ReceiptSettings, error) {
	payload, err := json.Marshal(settings)
	if err != nil {
		return domain.ReceiptSettings{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE app_state SET settings = $1 WHERE id = 1`, payload); err != nil {
		return domain.ReceiptSettings{}, err
	}
	return settings, nil
}

func (s *Store) SetTodaySales(ctx context.Context, display string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE app_state SET today_sales = $1 WHERE id = 1`, display)
	return err
}

func (s *Store) Snapshot(ctx context.Context) (*domain.StoreSnapshot, error) {
	medicines, err := s.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := s.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	var today string
	if err := s.db.QueryRowContext(ctx, `SELECT today_sales FROM app_state WHERE id = 1`).Scan(&today); err != nil {
		return nil, err
	}

	inventory := make(map[string]domain.MedicineRecord, len(medicines))
	for _, rec := range medicines {
		inventory[rec.Name] = rec
	}
	return &domain.StoreSnapshot{
		Inventory:  inventory,
		Sales:      sales,
		Settings:   settings,
		TodaySales: today,
	}, nil
}

// Restore replaces the whole database state inside one transaction.
func (s *Store) Restore(ctx context.Context, snap *domain.StoreSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", store.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM medicines`); err != nil {
		return err
	}

	for _, rec := range snap.Inventory {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO medicines (`+medicineColumns+`) VALUES ($1,$2,$3,$4,$5,$6)
		`, rec.Name, rec.Company, rec.PriceCents, rec.Quantity, rec.Expiry, rec.Batch); err != nil {
			return err
		}
	}
	for _, sale := range snap.Sales {
		items, err := json.Marshal(sale.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sales (id, date_key, sold_at, customer, gross_cents, discount_percent, discount_cents, net_cents, items)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, sale.ID, sale.DateKey, sale.SoldAt, sale.Customer, sale.GrossCents,
			sale.DiscountPercent, sale.DiscountCents, sale.NetCents, items); err != nil {
			return err
		}
	}

	settings, err := json.Marshal(snap.Settings)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE app_state SET settings = $1, today_sales = $2 WHERE id = 1
	`, settings, snap.TodaySales); err != nil {
		return err
	}

	return tx.Commit()
}
