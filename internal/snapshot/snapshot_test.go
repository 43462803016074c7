package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pharmacare/backend/internal/domain"
)

func testSnapshot() *domain.StoreSnapshot {
	return &domain.StoreSnapshot{
		Inventory: map[string]domain.MedicineRecord{
			"Paracetamol 500mg": {
				Name: "Paracetamol 500mg", Company: "GSK", PriceCents: 15000,
				Quantity: 150, Expiry: "13-03-2028", Batch: "P123",
			},
		},
		Sales: []domain.SaleRecord{
			{
				ID: "sale-1", DateKey: "01-09-2026", Customer: "Ali",
				Items:      []domain.SaleItem{{Name: "Paracetamol 500mg", Qty: 2, PriceCents: 15000}},
				GrossCents: 30000, DiscountPercent: "10", DiscountCents: 3000, NetCents: 27000,
			},
		},
		Settings:   domain.DefaultReceiptSettings(),
		TodaySales: "Pkr 270.00",
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	want := testSnapshot()

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got.Inventory) != 1 || got.Inventory["Paracetamol 500mg"].Quantity != 150 {
		t.Fatalf("inventory did not round-trip: %+v", got.Inventory)
	}
	if len(got.Sales) != 1 || got.Sales[0].NetCents != 27000 || got.Sales[0].DiscountPercent != "10" {
		t.Fatalf("sales did not round-trip: %+v", got.Sales)
	}
	if got.Settings != want.Settings {
		t.Fatalf("settings did not round-trip: %+v", got.Settings)
	}
	if got.TodaySales != "Pkr 270.00" {
		t.Fatalf("today-sales did not round-trip: %q", got.TodaySales)
	}
}

func TestSaveWritesSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["schema_version"]) != "1" {
		t.Fatalf("schema_version = %s", raw["schema_version"])
	}
	for _, field := range []string{"inventory", "sales_history", "receipt_settings", "today_sales"} {
		if _, ok := raw[field]; !ok {
			t.Fatalf("missing field %q in snapshot file", field)
		}
	}
}

func TestLoadRejectsUnknownSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	payload, _ := json.Marshal(File{SchemaVersion: 99})
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("every load failure should wrap ErrPersistence, got %v", err)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadMissingFileWrapsPersistence(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestLoadDefaultsNilCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	payload := []byte(`{"schema_version":1,"receipt_settings":{},"today_sales":""}`)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Inventory == nil || snap.Sales == nil {
		t.Fatalf("nil collections must load as empty: %+v", snap)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(filepath.Join(dir, "missing.json")) {
		t.Fatalf("missing file reported as existing")
	}
	if Exists(dir) {
		t.Fatalf("directory reported as a snapshot file")
	}
	path := filepath.Join(dir, "state.json")
	if err := Save(path, testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !Exists(path) {
		t.Fatalf("saved snapshot not detected")
	}
}

type staticSource struct{ snap *domain.StoreSnapshot }

func (s staticSource) Snapshot(context.Context) (*domain.StoreSnapshot, error) {
	return s.snap, nil
}

func TestAutosaverSaveNow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.json")
	saver := NewAutosaver(staticSource{snap: testSnapshot()}, path, 0)

	saver.SaveNow(context.Background())

	if !Exists(path) {
		t.Fatalf("SaveNow did not write %s", path)
	}
	snap, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.TodaySales != "Pkr 270.00" {
		t.Fatalf("unexpected autosaved state: %q", snap.TodaySales)
	}
}

func TestNewAutosaverDefaults(t *testing.T) {
	saver := NewAutosaver(staticSource{}, "", 0)
	if saver.Path() != DefaultPath() {
		t.Fatalf("empty path must fall back to the default, got %q", saver.Path())
	}
	if saver.interval <= 0 {
		t.Fatalf("interval must default to a positive value")
	}
}
