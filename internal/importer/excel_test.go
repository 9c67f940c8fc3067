package importer

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadWords(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"rank", "source", "target"},
		{1, "dog", "perro"},
		{"2", " house ", "casa"},
		{},
		{9, "cat", "gato"},
		{3, "", "mesa"},
		{5, "apple", "manzana"},
	})

	result, err := ReadWords(DefaultConfig(path))
	if err != nil {
		t.Fatalf("read words: %v", err)
	}
	if result.TotalProcessed != 5 {
		t.Fatalf("expected 5 processed rows, got %d", result.TotalProcessed)
	}
	if len(result.Words) != 3 || len(result.Errors) != 2 {
		t.Fatalf("unexpected result words=%+v errors=%v", result.Words, result.Errors)
	}
	if w := result.Words[1]; w.Rank != 2 || w.SourceText != "house" || w.TargetText != "casa" {
		t.Fatalf("unexpected second word %+v", w)
	}
}

func TestReadWordsMissingFile(t *testing.T) {
	if _, err := ReadWords(DefaultConfig(filepath.Join(t.TempDir(), "missing.xlsx"))); err == nil {
		t.Fatalf("expected error for missing workbook")
	}
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", name, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "words.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
