// Package report renders script findings into a spreadsheet for triage
// handoff, one sheet per matched category plus a summary sheet.
package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/mainajackson95/gau-tools/pkg/classify"
)

const summarySheet = "Summary"

// Workbook implements stages.FindingsExporter using xlsx output.
type Workbook struct{}

func (Workbook) Export(path string, findings []*classify.ScriptFindings) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to init workbook: %w", err)
	}
	if err := writeSummary(f, findings); err != nil {
		return err
	}

	// One sheet per category, rows ordered by the (already sorted) findings.
	categories := orderedCategories(findings)
	for _, category := range categories {
		sheet := string(category)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		f.SetCellValue(sheet, "A1", "Source")
		f.SetCellValue(sheet, "B1", "Match")

		row := 2
		for _, finding := range findings {
			for _, match := range finding.Matches[category] {
				f.SetCellValue(sheet, fmt.Sprintf("A%d", row), finding.URL)
				f.SetCellValue(sheet, fmt.Sprintf("B%d", row), match)
				row++
			}
		}
		f.SetColWidth(sheet, "A", "B", 60)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, findings []*classify.ScriptFindings) error {
	f.SetCellValue(summarySheet, "A1", "Script URL")
	f.SetCellValue(summarySheet, "B1", "Body Size")
	f.SetCellValue(summarySheet, "C1", "Matched Categories")
	f.SetCellValue(summarySheet, "D1", "High Priority")

	for i, finding := range findings {
		row := i + 2
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), finding.URL)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), finding.Size)
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), len(finding.Matches))
		f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), finding.HasPriorityFindings())
	}
	f.SetColWidth(summarySheet, "A", "A", 60)
	return nil
}

// orderedCategories returns matched categories with the high-priority ones
// first, then the rest in stable order.
func orderedCategories(findings []*classify.ScriptFindings) []classify.Category {
	seen := make(map[classify.Category]bool)
	var ordered []classify.Category

	add := func(category classify.Category) {
		if !seen[category] {
			seen[category] = true
			ordered = append(ordered, category)
		}
	}

	for _, category := range classify.PriorityCategories {
		for _, finding := range findings {
			if len(finding.Matches[category]) > 0 {
				add(category)
				break
			}
		}
	}
	var rest []classify.Category
	for _, finding := range findings {
		for category, matches := range finding.Matches {
			if len(matches) > 0 && !seen[category] {
				seen[category] = true
				rest = append(rest, category)
			}
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	ordered = append(ordered, rest...)
	return ordered
}
