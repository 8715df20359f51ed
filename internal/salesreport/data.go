package salesreport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ReportData is the aggregated input of a sales report. It is read-only for
// the generator.
type ReportData struct {
	Stats             Stats        `json:"stats"`
	SalesByMovie      []MovieSales `json:"salesByMovie" validate:"dive"`
	DailyTrends       []DailyTrend `json:"dailyTrends" validate:"dive"`
	GenreDistribution []GenreShare `json:"genreDistribution" validate:"dive"`
	Metadata          Metadata     `json:"metadata"`
}

// Stats are the headline totals of the period.
type Stats struct {
	TotalSales   float64 `json:"totalSales" validate:"gte=0"`
	TotalTickets int64   `json:"totalTickets" validate:"gte=0"`
	AveragePrice float64 `json:"averagePrice" validate:"gte=0"`
	ActiveMovies int64   `json:"activeMovies" validate:"gte=0"`
}

// MovieSales is one entry of the ranking, sorted by TotalSales descending.
type MovieSales struct {
	MovieTitle  string  `json:"movieTitle" validate:"required"`
	TotalSales  float64 `json:"totalSales" validate:"gte=0"`
	TicketCount int64   `json:"ticketCount" validate:"gte=0"`
}

// DailyTrend is one day of the chronological trend.
type DailyTrend struct {
	Fecha    string  `json:"fecha" validate:"required"`
	FullDate string  `json:"fullDate" validate:"omitempty,datetime=2006-01-02"`
	Ventas   float64 `json:"ventas"`
	Boletos  int64   `json:"boletos" validate:"gte=0"`
}

// GenreShare is the percentage of tickets sold for a genre.
type GenreShare struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value" validate:"gte=0,lte=100"`
}

// Metadata describes when and for which range the data was aggregated.
type Metadata struct {
	GeneratedAt string    `json:"generatedAt"`
	Period      string    `json:"period"`
	DateRange   DateRange `json:"dateRange"`
}

// DateRange is the inclusive reporting window as display strings.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ErrInvalidData wraps validation failures of ReportData.
var ErrInvalidData = errors.New("salesreport: invalid report data")

// Validate checks the struct tags with v.
func (d ReportData) Validate(v *validator.Validate) error {
	return validateStruct(v, d, ErrInvalidData)
}

func validateStruct(v *validator.Validate, s any, sentinel error) error {
	if v == nil {
		v = validator.New()
	}
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", sentinel, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// TopMovie returns the first entry of the ranking.
func (d ReportData) TopMovie() (MovieSales, bool) {
	if len(d.SalesByMovie) == 0 {
		return MovieSales{}, false
	}
	return d.SalesByMovie[0], true
}

// TopGenre returns the first entry of the genre distribution.
func (d ReportData) TopGenre() (GenreShare, bool) {
	if len(d.GenreDistribution) == 0 {
		return GenreShare{}, false
	}
	return d.GenreDistribution[0], true
}

// BestDay returns the first day with the highest sales.
func (d ReportData) BestDay() (DailyTrend, bool) {
	var best DailyTrend
	found := false
	for _, day := range d.DailyTrends {
		if !found || day.Ventas > best.Ventas {
			best = day
			found = true
		}
	}
	return best, found
}
