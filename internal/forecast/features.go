// internal/forecast/features.go
package forecast

import (
	"fmt"
	"time"

	"github.com/optistock/replenish/internal/domain"
)

// trailingWindow is the number of days each feature row aggregates over.
const trailingWindow = 14

// Feature vector layout. Calendar fields first so horizon rows can advance
// them day by day while the trailing aggregates stay fixed.
const (
	featYear = iota
	featQuarter
	featMonth
	featTotalDays
	featTotalSales
	featSalesPerDay
	featDaysWithSales
	featSalesFrequency
	featMaxStock
	featMinStock
	featAvgStock
	featStockRange
	featInStockRatio
	featureCount
)

// validateSeries checks the engine's input contract: chronologically
// increasing dates without duplicates, and non-negative stock and sales.
func validateSeries(series domain.ConsumptionSeries, minPoints int) error {
	if series.Len() < minPoints {
		return fmt.Errorf("%w: %d points, need %d", domain.ErrInsufficientData, series.Len(), minPoints)
	}
	for i, p := range series.Points {
		if p.StockLevel < 0 || p.UnitsSold < 0 {
			return fmt.Errorf("%w: negative stock or sales at %s", domain.ErrInvalidSeries, p.Date.Format("2006-01-02"))
		}
		if i == 0 {
			continue
		}
		if !series.Points[i-1].Date.Before(p.Date) {
			return fmt.Errorf("%w: dates not strictly increasing at %s", domain.ErrInvalidSeries, p.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// windowStats aggregates a trailing slice of points into the non-calendar
// portion of a feature vector.
func windowStats(points []domain.ConsumptionPoint, row []float64) {
	var (
		totalSales    float64
		daysWithSales float64
		daysInStock   float64
		maxStock      = points[0].StockLevel
		minStock      = points[0].StockLevel
		sumStock      float64
	)
	for _, p := range points {
		totalSales += p.UnitsSold
		if p.UnitsSold > 0 {
			daysWithSales++
		}
		if p.StockLevel > 0 {
			daysInStock++
		}
		if p.StockLevel > maxStock {
			maxStock = p.StockLevel
		}
		if p.StockLevel < minStock {
			minStock = p.StockLevel
		}
		sumStock += p.StockLevel
	}

	n := float64(len(points))
	row[featTotalDays] = n
	row[featTotalSales] = totalSales
	row[featSalesPerDay] = totalSales / n
	row[featDaysWithSales] = daysWithSales
	row[featSalesFrequency] = daysWithSales / n
	row[featMaxStock] = maxStock
	row[featMinStock] = minStock
	row[featAvgStock] = sumStock / n
	row[featStockRange] = maxStock - minStock
	row[featInStockRatio] = daysInStock / n
}

func calendarFeatures(date time.Time, row []float64) {
	row[featYear] = float64(date.Year())
	row[featQuarter] = float64((int(date.Month())-1)/3 + 1)
	row[featMonth] = float64(date.Month())
}

// buildTrainingRows derives one feature row per day once a full trailing
// window is available. The target is that day's units sold.
func buildTrainingRows(series domain.ConsumptionSeries) (features [][]float64, targets []float64) {
	points := series.Points
	for i := trailingWindow; i < len(points); i++ {
		row := make([]float64, featureCount)
		calendarFeatures(points[i].Date, row)
		windowStats(points[i-trailingWindow:i], row)
		features = append(features, row)
		targets = append(targets, points[i].UnitsSold)
	}
	return features, targets
}

// buildHorizonRows projects the latest trailing window forward: the
// aggregates stay frozen while the calendar fields walk through the horizon.
func buildHorizonRows(series domain.ConsumptionSeries, horizonDays int) [][]float64 {
	points := series.Points
	last := points[len(points)-1]

	base := make([]float64, featureCount)
	windowStats(points[len(points)-trailingWindow:], base)

	rows := make([][]float64, 0, horizonDays)
	for d := 1; d <= horizonDays; d++ {
		row := make([]float64, featureCount)
		copy(row, base)
		calendarFeatures(last.Date.AddDate(0, 0, d), row)
		rows = append(rows, row)
	}
	return rows
}

// trailingAverageRate is the fallback consumption estimate: plain average
// daily sales over the latest trailing window.
func trailingAverageRate(series domain.ConsumptionSeries) float64 {
	points := series.Points
	window := points
	if len(points) > trailingWindow {
		window = points[len(points)-trailingWindow:]
	}
	var total float64
	for _, p := range window {
		total += p.UnitsSold
	}
	return total / float64(len(window))
}
