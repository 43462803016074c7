// Package snapshot persists the whole engine state as one versioned JSON
// document: inventory map, sale history, receipt settings, and the
// last-displayed today-sales string. Loads replace state wholesale; there is
// no merging and no partial update.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pharmacare/backend/internal/domain"
)

// SchemaVersion tags every file written by this package. Load refuses files
// carrying a different version rather than guessing at their layout.
const SchemaVersion = 1

// DefaultFileName is the well-known auto-save file, placed in the OS temp
// directory.
const DefaultFileName = "pharmacare_autosave.json"

var (
	// ErrPersistence is the base of every error this package returns, so
	// callers can treat any save/load failure uniformly.
	ErrPersistence = errors.New("persistence failure")

	// ErrUnsupportedVersion means the file is a snapshot but from a schema
	// this build does not read.
	ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")

	// ErrCorrupt means the file could not be decoded as a snapshot at all.
	ErrCorrupt = errors.New("snapshot file is corrupt")
)

// File is the on-disk layout.
type File struct {
	SchemaVersion int                              `json:"schema_version"`
	Inventory     map[string]domain.MedicineRecord `json:"inventory"`
	Sales         []domain.SaleRecord              `json:"sales_history"`
	Settings      domain.ReceiptSettings           `json:"receipt_settings"`
	TodaySales    string                           `json:"today_sales"`
}

// DefaultPath returns the fixed auto-save location.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DefaultFileName)
}

// Save writes the snapshot to path. The write goes through a temp file and a
// rename so a crash mid-write never leaves a truncated snapshot behind.
func Save(path string, snap *domain.StoreSnapshot) error {
	if snap == nil {
		return fmt.Errorf("save snapshot: nil snapshot")
	}
	payload, err := json.MarshalIndent(File{
		SchemaVersion: SchemaVersion,
		Inventory:     snap.Inventory,
		Sales:         snap.Sales,
		Settings:      snap.Settings,
		TodaySales:    snap.TodaySales,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("save snapshot: %w: %w", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("save snapshot: %w: %w", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("save snapshot: %w: %w", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save snapshot: %w: %w", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save snapshot: %w: %w", ErrPersistence, err)
	}
	return nil
}

// Load reads and validates a snapshot file.
func Load(path string) (*domain.StoreSnapshot, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w: %w", ErrPersistence, err)
	}

	var file File
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w: %w: %v", path, ErrPersistence, ErrCorrupt, err)
	}
	if file.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("load snapshot %s: %w: %w: got %d, want %d",
			path, ErrPersistence, ErrUnsupportedVersion, file.SchemaVersion, SchemaVersion)
	}
	if file.Inventory == nil {
		file.Inventory = map[string]domain.MedicineRecord{}
	}
	if file.Sales == nil {
		file.Sales = []domain.SaleRecord{}
	}

	return &domain.StoreSnapshot{
		Inventory:  file.Inventory,
		Sales:      file.Sales,
		Settings:   file.Settings,
		TodaySales: file.TodaySales,
	}, nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
