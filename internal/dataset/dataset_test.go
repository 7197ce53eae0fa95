package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheets.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithHeader(t *testing.T) {
	path := writeCSV(t, "File Name,Description\nSheetA.dwg,Plan view\nSheetB.dwg,\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows["sheeta.dwg"] != "Plan view" {
		t.Errorf("unexpected description %q", rows["sheeta.dwg"])
	}
	if rows["sheetb.dwg"] != "" {
		t.Errorf("expected empty description, got %q", rows["sheetb.dwg"])
	}
}

func TestLoadWithoutHeader(t *testing.T) {
	path := writeCSV(t, "SheetA.dwg,Plan view\nSheetB.dwg,Elevation\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows["sheetb.dwg"] != "Elevation" {
		t.Errorf("unexpected description %q", rows["sheetb.dwg"])
	}
}

func TestLoadReorderedHeaderColumns(t *testing.T) {
	path := writeCSV(t, "Description,File Name\nPlan view,SheetA.dwg\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows["sheeta.dwg"] != "Plan view" {
		t.Errorf("header columns must be matched by name, got %v", rows)
	}
}

func TestLoadLastRowWins(t *testing.T) {
	path := writeCSV(t, "File Name,Description\nSheetA.dwg,old\nSHEETA.DWG,new\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("duplicate names must collapse, got %d rows", len(rows))
	}
	if rows["sheeta.dwg"] != "new" {
		t.Errorf("last row must win, got %q", rows["sheeta.dwg"])
	}
}

func TestLoadSkipsBlankNames(t *testing.T) {
	path := writeCSV(t, "File Name,Description\n,orphan\nSheetA.dwg,Plan view\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("blank names must be skipped, got %v", rows)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
