package load

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	dataSheet    = "Obeya"
	summarySheet = "Resumen"
)

// ExportColumns is the header row of every export.
var ExportColumns = []string{
	models.ColStore, models.ColJobTitle, models.ColCostCenter, models.ColManager,
	models.ColStoreType, models.ColZone, models.ColLongitude, models.ColLatitude,
	models.ColMonth, models.ColYear, "Total_activos", "Fecha",
}

// FileName builds Obeya_Comercial_<MES>_<AÑO>_<YYYYMMDD>.<ext>
func FileName(period models.Period, now time.Time, ext string) string {
	return fmt.Sprintf("Obeya_Comercial_%s_%d_%s.%s", period.Month, period.Year, now.Format("20060102"), ext)
}

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Export writes the full canonical table in the given format
func Export(w io.Writer, format string, result *models.Result) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, result)
	case FormatXLSX:
		return WriteXLSX(w, result)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV writes the canonical table as UTF-8 CSV. Missing values are empty cells.
func WriteCSV(w io.Writer, result *models.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range records(result) {
		if err := cw.Write(exportRow(rec)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the canonical table plus a summary sheet
func WriteXLSX(w io.Writer, result *models.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), dataSheet); err != nil {
		return fmt.Errorf("naming data sheet: %w", err)
	}
	if err := setRow(f, dataSheet, 1, stringsToCells(ExportColumns)); err != nil {
		return err
	}
	for i, rec := range records(result) {
		if err := setRow(f, dataSheet, i+2, xlsxRow(rec)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	for i, row := range summaryRows(result) {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func records(result *models.Result) []models.CanonicalRecord {
	if result == nil {
		return nil
	}
	return result.Records
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func exportRow(rec models.CanonicalRecord) []string {
	return []string{
		rec.Store.String, rec.JobTitle.String, rec.CostCenter.String, rec.Manager.String,
		rec.StoreType.String, rec.Zone.String,
		formatFloat(rec.Longitude.Float64, rec.Longitude.Valid),
		formatFloat(rec.Latitude.Float64, rec.Latitude.Valid),
		rec.Month, strconv.Itoa(rec.Year), strconv.Itoa(rec.TotalActive), rec.Period,
	}
}

// xlsxRow keeps numbers numeric; missing values stay blank cells.
func xlsxRow(rec models.CanonicalRecord) []interface{} {
	var lon, lat interface{}
	if rec.Longitude.Valid {
		lon = rec.Longitude.Float64
	}
	if rec.Latitude.Valid {
		lat = rec.Latitude.Float64
	}
	return []interface{}{
		nullable(rec.Store.String, rec.Store.Valid),
		nullable(rec.JobTitle.String, rec.JobTitle.Valid),
		nullable(rec.CostCenter.String, rec.CostCenter.Valid),
		nullable(rec.Manager.String, rec.Manager.Valid),
		nullable(rec.StoreType.String, rec.StoreType.Valid),
		nullable(rec.Zone.String, rec.Zone.Valid),
		lon, lat,
		rec.Month, rec.Year, rec.TotalActive, rec.Period,
	}
}

func summaryRows(result *models.Result) [][]interface{} {
	rows := [][]interface{}{
		{"Indicador", "Valor"},
		{"Periodo", ""},
		{"Registros", len(records(result))},
		{"Total_activos", result.TotalActive()},
	}
	if result != nil {
		rows[1][1] = fmt.Sprintf("%s %d", result.Period.Month, result.Period.Year)
		if len(result.Located) > 0 {
			rows = append(rows, []interface{}{"Con coordenadas", len(result.Located)})
		}
	}

	counts := result.DroppedByReason()
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, string(reason))
	}
	slices.Sort(reasons)
	for _, reason := range reasons {
		rows = append(rows, []interface{}{"Rechazados: " + reason, counts[models.RejectReason(reason)]})
	}
	return rows
}

func nullable(s string, valid bool) interface{} {
	if !valid {
		return nil
	}
	return s
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatFloat(f float64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
