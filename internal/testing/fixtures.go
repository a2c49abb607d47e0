package testing

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/basket/internal/domain"
)

// FixtureStart is the first date of every generated price fixture
var FixtureStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// fixtureShapes keeps each instrument on its own drift and oscillation so
// the generated returns are neither constant nor perfectly correlated.
var fixtureShapes = []struct {
	base, drift, amp, freq float64
}{
	{100, 0.0010, 0.020, 1.0},
	{50, 0.0005, 0.015, 1.3},
	{90, 0.0004, 0.010, 0.7},
	{20, 0.0008, 0.025, 2.1},
}

// FixturePrice is the close of the i-th fixture instrument on day x
func FixturePrice(i int, x float64) float64 {
	s := fixtureShapes[i%len(fixtureShapes)]
	return s.base * math.Exp(s.drift*x+s.amp*math.Sin(s.freq*x+float64(i)))
}

// NewPriceTable returns a table of consecutive daily prices starting at
// FixtureStart for the given instruments
func NewPriceTable(t *testing.T, days int, instruments ...string) domain.PriceTable {
	t.Helper()

	rows := make([]domain.PriceRow, days)
	for d := range rows {
		prices := make(map[string]float64, len(instruments))
		for i, inst := range instruments {
			prices[inst] = FixturePrice(i, float64(d))
		}
		rows[d] = domain.PriceRow{Date: FixtureStart.AddDate(0, 0, d), Prices: prices}
	}

	table, err := domain.NewPriceTable(instruments, rows)
	if err != nil {
		t.Fatalf("Failed to build price fixture: %v", err)
	}
	return table
}

// WritePriceCSV writes table as a wide price file and returns its path
func WritePriceCSV(t *testing.T, table domain.PriceTable) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("date," + strings.Join(table.Instruments(), ",") + "\n")
	columns := make([][]float64, len(table.Instruments()))
	for i := range columns {
		columns[i] = table.Column(i)
	}
	for r, date := range table.Dates() {
		b.WriteString(date.Format(domain.DateLayout))
		for _, col := range columns {
			fmt.Fprintf(&b, ",%g", col[r])
		}
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("Failed to write price csv: %v", err)
	}
	return path
}
