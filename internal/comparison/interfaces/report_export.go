package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	comparison "energy-compare/internal/comparison/application"
	tariff "energy-compare/internal/tariff/domain"
)

// ErrNilResult is returned when exporting a nil comparison.
var ErrNilResult = errors.New("report export: nil result")

// BuildComparisonPDF renders a ranked comparison with the cheapest contract's months.
func BuildComparisonPDF(result *comparison.Result) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Contract Comparison")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", result.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", result.EvaluatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if result.PriceVersion != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Price snapshot: %s", result.PriceVersion))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Price coverage: %.1f%%", result.Coverage*100))
	pdf.Ln(5)
	if result.Warning != nil {
		pdf.MultiCell(0, 5, "Warning: "+result.Warning.String(), "", "L", false)
	}
	if diag := result.Diagnostics; diag.ClampedValues > 0 || diag.DefaultedBands > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Corrections: %d clamped values, %d defaulted bands", diag.ClampedValues, diag.DefaultedBands))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(10, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Provider", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Contract", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Avg rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Total (EUR)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, cost := range result.Ranked {
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, cost.Provider, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, cost.ContractLabel, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, string(cost.Kind), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.4f", cost.AvgRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, tariff.FormatMoney(cost.TotalYear), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if result.Cheapest != nil {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Cheapest: %s - %s", result.Cheapest.Provider, result.Cheapest.ContractLabel))
		pdf.Ln(8)
		pdf.CellFormat(30, 6, "Month", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Normal (kWh)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Low (kWh)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Energy", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Total", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, month := range result.Cheapest.Months {
			pdf.CellFormat(30, 6, month.TimeKey.String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", month.NormalKWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", month.LowKWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, tariff.FormatMoney(month.EnergyCost), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, tariff.FormatMoney(month.Total), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildComparisonXLSX renders a summary sheet, the ranking and every contract's months.
func BuildComparisonXLSX(result *comparison.Result) ([]byte, error) {
	if result == nil {
		return nil, ErrNilResult
	}
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	rankingSheet := "ranking"
	monthsSheet := "months"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rankingSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(monthsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Energy Contract Comparison")
	_ = f.SetCellValue(summarySheet, "A3", "Run")
	_ = f.SetCellValue(summarySheet, "B3", result.RunID)
	_ = f.SetCellValue(summarySheet, "A4", "Generated")
	_ = f.SetCellValue(summarySheet, "B4", result.EvaluatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "Price snapshot")
	_ = f.SetCellValue(summarySheet, "B5", result.PriceVersion)
	_ = f.SetCellValue(summarySheet, "A6", "Price coverage")
	_ = f.SetCellValue(summarySheet, "B6", result.Coverage)
	_ = f.SetCellValue(summarySheet, "A7", "Clamped values")
	_ = f.SetCellValue(summarySheet, "B7", result.Diagnostics.ClampedValues)
	_ = f.SetCellValue(summarySheet, "A8", "Defaulted bands")
	_ = f.SetCellValue(summarySheet, "B8", result.Diagnostics.DefaultedBands)
	if result.Warning != nil {
		_ = f.SetCellValue(summarySheet, "A9", "Warning")
		_ = f.SetCellValue(summarySheet, "B9", result.Warning.String())
	}

	_ = f.SetSheetRow(rankingSheet, "A1", &[]any{"Rank", "Provider", "Contract", "Type", "Monthly fee", "Total kWh", "Avg rate", "Total (EUR)", "Coverage"})
	for i, cost := range result.Ranked {
		_ = f.SetSheetRow(rankingSheet, fmt.Sprintf("A%d", i+2), &[]any{
			i + 1,
			cost.Provider,
			cost.ContractLabel,
			string(cost.Kind),
			tariff.RoundMoney(cost.MonthlyFee),
			cost.TotalKWh,
			cost.AvgRate,
			tariff.RoundMoney(cost.TotalYear),
			cost.Coverage,
		})
	}

	_ = f.SetSheetRow(monthsSheet, "A1", &[]any{"Provider", "Contract", "Month", "Normal (kWh)", "Low (kWh)", "Energy", "Fee", "Total"})
	row := 2
	for _, cost := range result.Ranked {
		for _, month := range cost.Months {
			_ = f.SetSheetRow(monthsSheet, fmt.Sprintf("A%d", row), &[]any{
				cost.Provider,
				cost.ContractLabel,
				month.TimeKey.String(),
				month.NormalKWh,
				month.LowKWh,
				tariff.RoundMoney(month.EnergyCost),
				tariff.RoundMoney(month.MonthlyFee),
				tariff.RoundMoney(month.Total),
			})
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
