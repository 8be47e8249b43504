package models

import (
	"database/sql"
	"encoding/json"
)

// Canonical column names of the headcount export.
const (
	ColStore      = "almacen"
	ColJobTitle   = "nom_oficio"
	ColCostCenter = "ccosto"
	ColManager    = "gestor"
	ColStoreType  = "tipo_tienda"
	ColZone       = "zona"
	ColLongitude  = "longitud"
	ColLatitude   = "latitud"
	ColMonth      = "mes"
	ColYear       = "año"
	ColEmployee   = "empleado"
	ColHeadcount  = "total_activos"
)

// GroupColumns are the dimensions a raw source is grouped by, in output order.
var GroupColumns = []string{
	ColStore, ColJobTitle, ColCostCenter, ColManager,
	ColStoreType, ColZone, ColLongitude, ColLatitude, ColMonth, ColYear,
}

// SourceKind tells whether a source already carries a headcount per row.
type SourceKind string

const (
	SourcePreAggregated SourceKind = "pre_aggregated"
	SourceRaw           SourceKind = "raw"
)

// RawRecord is one coerced input row.
type RawRecord struct {
	Row        int
	Store      sql.NullString
	JobTitle   sql.NullString
	CostCenter sql.NullString
	Manager    sql.NullString
	StoreType  sql.NullString
	Zone       sql.NullString
	Longitude  sql.NullFloat64
	Latitude   sql.NullFloat64
	Month      string
	Year       int
	Employee   sql.NullString
	Headcount  int
}

// Source is the ingested dataset, classified once at load time.
// Records is immutable after ingestion.
type Source struct {
	Kind       SourceKind
	Dimensions []string // group columns present in the input
	Records    []RawRecord
	Rejections []Rejection
	RowsRead   int
}

// Period identifies one reporting cycle.
type Period struct {
	Month string `json:"mes"`
	Year  int    `json:"anio"`
}

// CanonicalRecord is one row of the headcount-by-store table.
type CanonicalRecord struct {
	Store       sql.NullString
	JobTitle    sql.NullString
	CostCenter  sql.NullString
	Manager     sql.NullString
	StoreType   sql.NullString
	Zone        sql.NullString
	Longitude   sql.NullFloat64
	Latitude    sql.NullFloat64
	Month       string
	Year        int
	TotalActive int
	Period      string
}

// Located reports whether both coordinates are present.
func (r CanonicalRecord) Located() bool {
	return r.Latitude.Valid && r.Longitude.Valid
}

type canonicalJSON struct {
	Store       *string  `json:"almacen"`
	JobTitle    *string  `json:"nom_oficio"`
	CostCenter  *string  `json:"ccosto"`
	Manager     *string  `json:"gestor"`
	StoreType   *string  `json:"tipo_tienda"`
	Zone        *string  `json:"zona"`
	Longitude   *float64 `json:"longitud"`
	Latitude    *float64 `json:"latitud"`
	Month       string   `json:"mes"`
	Year        int      `json:"anio"`
	TotalActive int      `json:"total_active"`
	Period      string   `json:"period"`
}

// MarshalJSON renders missing dimensions as null.
func (r CanonicalRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(canonicalJSON{
		Store:       strPtr(r.Store),
		JobTitle:    strPtr(r.JobTitle),
		CostCenter:  strPtr(r.CostCenter),
		Manager:     strPtr(r.Manager),
		StoreType:   strPtr(r.StoreType),
		Zone:        strPtr(r.Zone),
		Longitude:   floatPtr(r.Longitude),
		Latitude:    floatPtr(r.Latitude),
		Month:       r.Month,
		Year:        r.Year,
		TotalActive: r.TotalActive,
		Period:      r.Period,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *CanonicalRecord) UnmarshalJSON(data []byte) error {
	var aux canonicalJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = CanonicalRecord{
		Store:       nullStr(aux.Store),
		JobTitle:    nullStr(aux.JobTitle),
		CostCenter:  nullStr(aux.CostCenter),
		Manager:     nullStr(aux.Manager),
		StoreType:   nullStr(aux.StoreType),
		Zone:        nullStr(aux.Zone),
		Longitude:   nullFloat(aux.Longitude),
		Latitude:    nullFloat(aux.Latitude),
		Month:       aux.Month,
		Year:        aux.Year,
		TotalActive: aux.TotalActive,
		Period:      aux.Period,
	}
	return nil
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
