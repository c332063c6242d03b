package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testCatalogYAML = `crops:
  - crop_id: corn
    variety: dent
    base_temperature_c: 10
    gdd_requirement: 1500
  - crop_id: wheat
    variety: spring
    base_temperature_c: 4.4
    gdd_requirement: 1600
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crops.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}
	return path
}

func TestLoadFileAndLookup(t *testing.T) {
	cat, err := LoadFile(writeCatalog(t, testCatalogYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := cat.Lookup("corn", "dent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.BaseTempC != 10 || profile.GDDRequirement != 1500 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if len(cat.Profiles()) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(cat.Profiles()))
	}
}

func TestLookupUnknown(t *testing.T) {
	cat := New(DefaultProfiles()...)

	_, err := cat.Lookup("corn", "no-such-variety")
	if !errors.Is(err, ErrCropNotFound) {
		t.Fatalf("expected ErrCropNotFound, got %v", err)
	}
}

func TestLoadFileMissingCropID(t *testing.T) {
	path := writeCatalog(t, "crops:\n  - variety: dent\n    gdd_requirement: 100\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for entry without crop_id")
	}
}

func TestLoadFileNonPositiveRequirement(t *testing.T) {
	path := writeCatalog(t, "crops:\n  - crop_id: corn\n    variety: dent\n    gdd_requirement: 0\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for non-positive gdd_requirement")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
