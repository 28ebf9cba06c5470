package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/aaryan/garment-styles-api/models"
)

// MaxDisplayLines caps how many styles a chat surface renders at once. The
// underlying query is never capped.
const MaxDisplayLines = 50

// ViewService derives per-merchant projections from the store: display
// lists, export rows and their CSV/XLSX renderings.
type ViewService struct {
	store *StyleStore
}

// NewViewService creates a view service over the given store.
func NewViewService(store *StyleStore) *ViewService {
	return &ViewService{store: store}
}

// StyleLine is one display entry of a merchant's active list.
type StyleLine struct {
	Style models.Style `json:"style"`
	Text  string       `json:"text"`
}

// ActiveList returns the merchant's active styles as display lines,
// newest-created-first, capped at MaxDisplayLines entries.
func (v *ViewService) ActiveList(merchant string) ([]StyleLine, error) {
	styles, err := v.store.ListByMerchant(merchant, true)
	if err != nil {
		return nil, err
	}
	if len(styles) > MaxDisplayLines {
		styles = styles[:MaxDisplayLines]
	}
	lines := make([]StyleLine, 0, len(styles))
	for _, style := range styles {
		lines = append(lines, StyleLine{
			Style: style,
			Text: fmt.Sprintf("%s • %s • %s • %s • %s",
				style.Brand, style.StyleNo, style.Garment, style.Colour, style.StageLabel()),
		})
	}
	return lines, nil
}

// ExportRow is one row of a merchant's production report. Quantity and
// balance cells are empty strings when the underlying value is absent or
// non-positive.
type ExportRow struct {
	Brand         string
	StyleNo       string
	Description   string
	Colour        string
	Stage         string
	TotalQty      string
	CutQty        string
	CutBalance    string
	StitchQty     string
	StitchBalance string
	FinishQty     string
	FinishBalance string
	PackQty       string
	PackBalance   string
}

// ExportHeader is the column order of the export, shared by the CSV and
// XLSX writers.
var ExportHeader = []string{
	"Brand", "Style No", "Description", "Colour", "Stage", "Total Qty",
	"Cut Qty", "Cut Balance",
	"Stitch Qty", "Stitch Balance",
	"Finish Qty", "Finish Balance",
	"Pack Qty", "Pack Balance",
}

func (r ExportRow) cells() []string {
	return []string{
		r.Brand, r.StyleNo, r.Description, r.Colour, r.Stage, r.TotalQty,
		r.CutQty, r.CutBalance,
		r.StitchQty, r.StitchBalance,
		r.FinishQty, r.FinishBalance,
		r.PackQty, r.PackBalance,
	}
}

// ExportRows builds one row per active style of the merchant,
// newest-created-first.
func (v *ViewService) ExportRows(merchant string) ([]ExportRow, error) {
	styles, err := v.store.ListByMerchant(merchant, true)
	if err != nil {
		return nil, err
	}
	rows := make([]ExportRow, 0, len(styles))
	for _, style := range styles {
		cutQty, cutBal := qtyAndBalance(style.TotalQty, style.CutQty)
		stitchQty, stitchBal := qtyAndBalance(style.TotalQty, style.StitchQty)
		finishQty, finishBal := qtyAndBalance(style.TotalQty, style.FinishQty)
		packQty, packBal := qtyAndBalance(style.TotalQty, style.PackQty)
		rows = append(rows, ExportRow{
			Brand:         style.Brand,
			StyleNo:       style.StyleNo,
			Description:   style.Garment,
			Colour:        style.Colour,
			Stage:         style.StageLabel(),
			TotalQty:      renderQty(style.TotalQty),
			CutQty:        cutQty,
			CutBalance:    cutBal,
			StitchQty:     stitchQty,
			StitchBalance: stitchBal,
			FinishQty:     finishQty,
			FinishBalance: finishBal,
			PackQty:       packQty,
			PackBalance:   packBal,
		})
	}
	return rows, nil
}

// WriteCSV renders export rows as a CSV document with a header row.
func WriteCSV(rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.cells()); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders export rows as a single-sheet workbook with the same
// cells as the CSV.
func WriteXLSX(rows []ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Styles"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	writeRow := func(rowNum int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := writeRow(1, ExportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(i+2, row.cells()); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// qtyAndBalance renders a stage quantity and its balance against the total.
// Both render empty unless the quantity is a positive integer; the balance
// additionally needs a positive total.
func qtyAndBalance(total, done *int) (string, string) {
	qty := renderQty(done)
	if qty == "" {
		return "", ""
	}
	bal := models.StageBalance(total, done)
	if bal == nil {
		return qty, ""
	}
	return qty, strconv.Itoa(*bal)
}

func renderQty(q *int) string {
	if q == nil || *q <= 0 {
		return ""
	}
	return strconv.Itoa(*q)
}
