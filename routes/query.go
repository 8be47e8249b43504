// routes/query.go
package routes

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
)

// headcountQuery holds the query parameters shared by the period endpoints
type headcountQuery struct {
	Month     string `validate:"required,month"`
	Year      int    `validate:"required,gte=1900,lte=2100"`
	Zone      string
	Manager   string
	StoreType string
	MinActive *int   `validate:"omitempty,gte=0"`
	MaxActive *int   `validate:"omitempty,gte=0"`
	SortBy    string `validate:"omitempty,oneof=total_activos almacen zona gestor"`
	Order     string `validate:"omitempty,oneof=asc desc"`
	Format    string `validate:"omitempty,oneof=csv xlsx"`
}

type trendQuery struct {
	Year     int `validate:"required,gte=1900,lte=2100"`
	Forecast int `validate:"gte=0,lte=24"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		_, ok := transform.MonthNumber(fl.Field().String())
		return ok
	})
	return v
}

func parseHeadcountQuery(values url.Values) (headcountQuery, error) {
	q := headcountQuery{
		Month:     transform.NormalizeText(values.Get("mes")),
		Zone:      strings.TrimSpace(values.Get("zona")),
		Manager:   strings.TrimSpace(values.Get("gestor")),
		StoreType: strings.TrimSpace(values.Get("tipo")),
		SortBy:    strings.ToLower(strings.TrimSpace(values.Get("sort"))),
		Order:     strings.ToLower(strings.TrimSpace(values.Get("order"))),
		Format:    strings.ToLower(strings.TrimSpace(values.Get("format"))),
	}

	var err error
	if q.Year, err = parseInt(values, "anio"); err != nil {
		return q, err
	}
	if q.MinActive, err = parseOptionalInt(values, "min"); err != nil {
		return q, err
	}
	if q.MaxActive, err = parseOptionalInt(values, "max"); err != nil {
		return q, err
	}
	return q, nil
}

func (q headcountQuery) filter() analytics.DimensionFilter {
	return analytics.DimensionFilter{
		Zone:      q.Zone,
		Manager:   q.Manager,
		StoreType: q.StoreType,
		MinActive: q.MinActive,
		MaxActive: q.MaxActive,
	}
}

func (q headcountQuery) format() string {
	if q.Format == "" {
		return load.FormatCSV
	}
	return q.Format
}

func parseTrendQuery(values url.Values) (trendQuery, error) {
	q := trendQuery{Forecast: analytics.DefaultTrendConfig().ForecastMonths}
	var err error
	if q.Year, err = parseInt(values, "anio"); err != nil {
		return q, err
	}
	if values.Get("forecast") != "" {
		if q.Forecast, err = parseInt(values, "forecast"); err != nil {
			return q, err
		}
	}
	return q, nil
}

func parseInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, fmt.Errorf("missing parameter %s", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer", key)
	}
	return n, nil
}

func parseOptionalInt(values url.Values, key string) (*int, error) {
	if strings.TrimSpace(values.Get(key)) == "" {
		return nil, nil
	}
	n, err := parseInt(values, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// validationMessage flattens validator errors into one line
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid parameters: " + strings.Join(parts, ", ")
}
