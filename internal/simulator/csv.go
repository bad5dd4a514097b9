package simulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"segment", "quantity", "elasticity", "classification", "revenue"}

// WriteCSV writes the evaluation table followed by a total row.
func WriteCSV(w io.Writer, ev Evaluation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range ev.Segments {
		record := []string{
			row.Segment,
			formatFloat(row.Quantity),
			row.Elasticity.String(),
			string(row.Class),
			formatFloat(row.Revenue),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", row.Segment, err)
		}
	}

	total := []string{"total", formatFloat(ev.Quantity), "", "", formatFloat(ev.Revenue)}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("failed to write csv total: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
