package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"vocab-progress-service/internal/domain"
)

// Config describes where word fields live in the spreadsheet.
type Config struct {
	FilePath     string
	SheetName    string // defaults to the first sheet
	RankColumn   string
	SourceColumn string
	TargetColumn string
	StartRow     int // 1-based; rows above it are headers
}

// DefaultConfig reads rank, source and target from columns A-C under a header row.
func DefaultConfig(path string) Config {
	return Config{
		FilePath:     path,
		RankColumn:   "A",
		SourceColumn: "B",
		TargetColumn: "C",
		StartRow:     2,
	}
}

// Result holds the words read and the rows that were rejected.
type Result struct {
	TotalProcessed int
	Words          []domain.Word
	Errors         []string
}

// ReadWords parses the sheet into words without ids. Blank rows are skipped;
// malformed rows are reported in Result.Errors.
func ReadWords(cfg Config) (Result, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("read rows: %w", err)
	}

	rankCol, err := columnIndex(cfg.RankColumn)
	if err != nil {
		return Result{}, err
	}
	sourceCol, err := columnIndex(cfg.SourceColumn)
	if err != nil {
		return Result{}, err
	}
	targetCol, err := columnIndex(cfg.TargetColumn)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for i, row := range rows {
		if i < cfg.StartRow-1 || blank(row) {
			continue
		}
		result.TotalProcessed++

		rank, err := strconv.Atoi(cell(row, rankCol))
		if err != nil || !domain.ValidRank(rank) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid rank %q", i+1, cell(row, rankCol)))
			continue
		}
		source, target := cell(row, sourceCol), cell(row, targetCol)
		if source == "" || target == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: source and target are required", i+1))
			continue
		}
		result.Words = append(result.Words, domain.Word{Rank: rank, SourceText: source, TargetText: target})
	}
	return result, nil
}

func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
