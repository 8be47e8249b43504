package extractors

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "año", NormalizeHeader("  AÑO "))
	assert.Equal(t, "año", NormalizeHeader("An\u0303o"))
	assert.Equal(t, "almacen", NormalizeHeader("\ufeffAlmacen"))
}

func TestReadCSV(t *testing.T) {
	input := "Almacen, Logitud ,latitud,mes,ano,empleado,almacen\n" +
		"S1,-74.0,4.1,enero,2026,E1,dup\n" +
		"S2,,4.2,ENERO,2026,E2\n"

	frame, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"almacen", "logitud", "latitud", "mes", "ano", "empleado"}, frame.Columns())
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, "S1", frame.Cell(0, "almacen").String)
	assert.Equal(t, "-74.0", frame.Cell(0, "logitud").String)
	assert.False(t, frame.Cell(1, "logitud").Valid)
	assert.Equal(t, "E2", frame.Cell(1, "empleado").String)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("almacen,mes\nS1,ENERO,extra\n"))
	require.Error(t, err)
}

func TestFileExtractor_CSVAndMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empleados_activos.csv")
	require.NoError(t, os.WriteFile(path, []byte("almacen,total_activos\nS1,3\n"), 0o600))

	frame, err := NewFileExtractor(path, utils.NewNopLogger()).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", frame.Cell(0, "total_activos").String)

	_, err = NewFileExtractor(filepath.Join(dir, "missing.csv"), utils.NewNopLogger()).Extract(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileExtractor_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headcount.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Almacen", "Mes", "Año", "Total_Activos"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"S1", "MARZO", 2026, 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"S2", "MARZO", 2026}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	frame, err := NewFileExtractor(path, utils.NewNopLogger()).Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"almacen", "mes", "año", "total_activos"}, frame.Columns())
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, "12", frame.Cell(0, "total_activos").String)
	assert.Equal(t, "2026", frame.Cell(1, "año").String)
	assert.False(t, frame.Cell(1, "total_activos").Valid)
}

func TestFileExtractor_InvalidXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xls")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	_, err := NewFileExtractor(path, utils.NewNopLogger()).Extract(context.Background())
	require.Error(t, err)
}

func TestFileExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileExtractor("whatever.csv", utils.NewNopLogger()).Extract(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
