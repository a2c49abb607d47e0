package prices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/basket/internal/domain"
)

// ReadCSV parses a wide price file:
//
//	date,AAPL,MSFT
//	2024-01-02,185.64,370.87
//
// Rows may appear in any order. A row with any empty cell is dropped so the
// result only keeps dates on which every instrument has a price.
func ReadCSV(r io.Reader) (domain.PriceTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return domain.PriceTable{}, fmt.Errorf("%w: empty csv", domain.ErrMalformedPriceTable)
	}
	if err != nil {
		return domain.PriceTable{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return domain.PriceTable{}, fmt.Errorf("%w: header must be date,<instrument>...", domain.ErrMalformedPriceTable)
	}

	instruments := make([]string, len(header)-1)
	for i, h := range header[1:] {
		instruments[i] = strings.TrimSpace(h)
	}

	series := make(map[string]map[int64]float64, len(instruments))
	for _, inst := range instruments {
		series[inst] = make(map[int64]float64)
	}
	common := make(map[int64]bool)
	seen := make(map[int64]bool)

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return domain.PriceTable{}, fmt.Errorf("read csv line %d: %w", line, err)
		}

		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return domain.PriceTable{}, fmt.Errorf("%w: line %d: bad date %q", domain.ErrMalformedPriceTable, line, record[0])
		}
		key := date.Unix()
		if seen[key] {
			return domain.PriceTable{}, fmt.Errorf("%w: line %d: duplicate date %s", domain.ErrMalformedPriceTable, line, record[0])
		}
		seen[key] = true

		complete := true
		for i, inst := range instruments {
			cell := strings.TrimSpace(record[i+1])
			if cell == "" {
				complete = false
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return domain.PriceTable{}, fmt.Errorf("%w: line %d: bad price %q for %s", domain.ErrMalformedPriceTable, line, cell, inst)
			}
			series[inst][key] = v
		}
		if complete {
			common[key] = true
		}
	}

	return buildTable(instruments, series, common)
}
