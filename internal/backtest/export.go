package backtest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/aetherscore/internal/models"
)

// CSVHeader is the column row of the performance log export.
var CSVHeader = []string{
	"DrawNumber",
	"DrawDate",
	"ForecastMain",
	"ActualMain",
	"MainHits",
	"ForecastStar",
	"ActualStar",
	"StarHits",
	"BaselineForecast",
	"BaselineHits",
	"AverageWinnerRank",
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func count(v int) string {
	return decimal.NewFromInt(int64(v)).StringFixed(2)
}

// joined renders a number list as one quoted, space separated field.
func joined(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return `"` + strings.Join(parts, " ") + `"`
}

// ExportCSV writes the performance log as a flat table. DrawNumber is the
// 1-based position of the draw in the backtested history.
func ExportCSV(w io.Writer, log []models.PerformanceLogItem) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(CSVHeader, ","))
	sb.WriteString("\n")
	for _, it := range log {
		row := []string{
			strconv.Itoa(it.DrawIndex + 1),
			it.DrawDate.Format(models.DateLayout),
			joined(it.ForecastMain),
			joined(it.ActualMain),
			count(it.MainHits),
			joined(it.ForecastStars),
			joined(it.ActualStars),
			count(it.StarHits),
			joined(it.BaselineForecast),
			count(it.BaselineHits),
			fixed(it.AverageWinnerRank),
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
