// journal/csv.go
package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{"id", "date", "amount", "is_profit", "broker_id", "broker", "notes", "chart_time", "trade_time"}

// WriteCSV writes trades with a header row. names resolves broker ids for
// the informational broker column.
func WriteCSV(w io.Writer, trades []Trade, names func(string) string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trades {
		if err := cw.Write([]string{
			t.ID,
			t.Date.Format(time.RFC3339),
			f(t.Amount),
			strconv.FormatBool(t.IsProfit),
			t.BrokerID,
			names(t.BrokerID),
			t.Notes,
			t.ChartTime,
			t.TradeTime,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads trades written by WriteCSV. Columns are matched by header
// name so extra or reordered columns are tolerated; date, amount and
// is_profit are required. Dates without an offset are read in loc.
func ReadCSV(r io.Reader, loc *time.Location) ([]Trade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "amount", "is_profit"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Trade
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := ParseDate(field(rec, "date"), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		amount, err := strconv.ParseFloat(field(rec, "amount"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: amount: %w", line, err)
		}
		profit, err := strconv.ParseBool(field(rec, "is_profit"))
		if err != nil {
			return nil, fmt.Errorf("line %d: is_profit: %w", line, err)
		}

		out = append(out, Trade{
			ID:        field(rec, "id"),
			Date:      date,
			Amount:    amount,
			IsProfit:  profit,
			BrokerID:  field(rec, "broker_id"),
			Notes:     field(rec, "notes"),
			ChartTime: field(rec, "chart_time"),
			TradeTime: field(rec, "trade_time"),
		})
	}
	return out, nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
