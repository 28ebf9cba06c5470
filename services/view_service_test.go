package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aaryan/garment-styles-api/models"
)

func TestActiveListFormat(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewStyleStore(db)
	views := NewViewService(store)

	style, err := store.Create("Megha", StyleInput{Brand: "X", StyleNo: "1", Garment: "Kurta", Colour: "Red"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateStage(style.ID, models.StageInline))

	lines, err := views.ActiveList("Megha")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "X • 1 • Kurta • Red • Inline", lines[0].Text)
}

func TestActiveListExcludesArchived(t *testing.T) {
	store := NewStyleStore(setupStoreTestDB(t))
	views := NewViewService(store)

	keep, err := store.Create("Megha", StyleInput{Brand: "X", StyleNo: "1", Garment: "Kurta", Colour: "Red"})
	require.NoError(t, err)
	drop, err := store.Create("Megha", StyleInput{Brand: "X", StyleNo: "2", Garment: "Shirt", Colour: "Blue"})
	require.NoError(t, err)

	_, err = store.Archive(drop.ID)
	require.NoError(t, err)

	lines, err := views.ActiveList("Megha")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, keep.ID, lines[0].Style.ID)
}

func TestActiveListCap(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewStyleStore(db)
	views := NewViewService(store)

	base := time.Now().Add(-2 * time.Hour)
	for i := 0; i < MaxDisplayLines+5; i++ {
		style, err := store.Create("Megha", StyleInput{
			Brand:   "X",
			StyleNo: fmt.Sprintf("S%03d", i),
			Garment: "Kurta",
			Colour:  "Red",
		})
		require.NoError(t, err)
		require.NoError(t, db.Model(style).Update("created_at", base.Add(time.Duration(i)*time.Second)).Error)
	}

	lines, err := views.ActiveList("Megha")
	require.NoError(t, err)
	assert.Len(t, lines, MaxDisplayLines)
	assert.Equal(t, "S054", lines[0].Style.StyleNo, "Cap keeps the newest entries")
}

func TestExportRowsBalances(t *testing.T) {
	store := NewStyleStore(setupStoreTestDB(t))
	views := NewViewService(store)

	style, err := store.Create("Megha", StyleInput{
		Brand:    "X",
		StyleNo:  "1",
		Garment:  "Kurta",
		Colour:   "Red",
		TotalQty: intPtr(100),
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateStage(style.ID, models.StageStitching))
	require.NoError(t, store.UpdateQuantities(style.ID, QuantityUpdate{Stitch: intPtr(30)}))

	rows, err := views.ExportRows("Megha")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "X", row.Brand)
	assert.Equal(t, "1", row.StyleNo)
	assert.Equal(t, "Kurta", row.Description)
	assert.Equal(t, "Red", row.Colour)
	assert.Equal(t, "Stitching", row.Stage)
	assert.Equal(t, "100", row.TotalQty)
	assert.Equal(t, "30", row.StitchQty)
	assert.Equal(t, "70", row.StitchBalance)
	assert.Equal(t, "", row.CutQty, "Unreported quantities render empty")
	assert.Equal(t, "", row.CutBalance)
	assert.Equal(t, "", row.PackQty)
	assert.Equal(t, "", row.PackBalance)
}

func TestExportRowsBalanceClampsToZero(t *testing.T) {
	store := NewStyleStore(setupStoreTestDB(t))
	views := NewViewService(store)

	style, err := store.Create("Megha", StyleInput{
		Brand:    "X",
		StyleNo:  "1",
		Garment:  "Kurta",
		Colour:   "Red",
		TotalQty: intPtr(50),
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateQuantities(style.ID, QuantityUpdate{Stitch: intPtr(60)}))

	rows, err := views.ExportRows("Megha")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "60", rows[0].StitchQty)
	assert.Equal(t, "0", rows[0].StitchBalance, "Over-reported quantity clamps the balance at zero")
}

func TestExportRowsNoTotal(t *testing.T) {
	store := NewStyleStore(setupStoreTestDB(t))
	views := NewViewService(store)

	style, err := store.Create("Megha", StyleInput{Brand: "X", StyleNo: "1", Garment: "Kurta", Colour: "Red"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateQuantities(style.ID, QuantityUpdate{Stitch: intPtr(30)}))

	rows, err := views.ExportRows("Megha")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].TotalQty)
	assert.Equal(t, "30", rows[0].StitchQty)
	assert.Equal(t, "", rows[0].StitchBalance, "No total means no balance")
}

func TestExportRowsOnlyActive(t *testing.T) {
	store := NewStyleStore(setupStoreTestDB(t))
	views := NewViewService(store)

	style, err := store.Create("Megha", StyleInput{Brand: "X", StyleNo: "1", Garment: "Kurta", Colour: "Red"})
	require.NoError(t, err)
	_, err = store.Archive(style.ID)
	require.NoError(t, err)

	rows, err := views.ExportRows("Megha")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteCSV(t *testing.T) {
	rows := []ExportRow{
		{
			Brand: "X", StyleNo: "1", Description: "Kurta", Colour: "Red",
			Stage: "Stitching", TotalQty: "100",
			StitchQty: "30", StitchBalance: "70",
		},
	}

	data, err := WriteCSV(rows)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{
		"X", "1", "Kurta", "Red", "Stitching", "100",
		"", "", "30", "70", "", "", "", "",
	}, records[1])
}

func TestWriteXLSXMatchesCSVCells(t *testing.T) {
	rows := []ExportRow{
		{
			Brand: "X", StyleNo: "1", Description: "Kurta", Colour: "Red",
			Stage: "Inline", TotalQty: "100",
			CutQty: "20", CutBalance: "80",
		},
	}

	data, err := WriteXLSX(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheetRows, err := f.GetRows("Styles")
	require.NoError(t, err)
	require.Len(t, sheetRows, 2)
	assert.Equal(t, ExportHeader, sheetRows[0])
	assert.Equal(t, "X", sheetRows[1][0])
	assert.Equal(t, "Inline", sheetRows[1][4])
	assert.Equal(t, "20", sheetRows[1][6])
	assert.Equal(t, "80", sheetRows[1][7])
}
