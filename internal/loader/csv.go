// Package loader imports roster, template, and appointment data from
// CSV and YAML files into the store. Addresses arriving without
// coordinates are geocoded at import time.
package loader

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// streamCSV reads header-first CSV and sends each data row to the
// returned channel as a column-name map. Caller must drain the row
// channel; both channels are closed when processing completes.
func streamCSV(ctx context.Context, r io.Reader) (<-chan map[string]string, <-chan error) {
	rowCh := make(chan map[string]string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // allow variable fields

		header, err := reader.Read()
		if err == io.EOF {
			errCh <- eris.New("loader: csv is empty")
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "loader: read csv header")
			return
		}
		for i, col := range header {
			header[i] = strings.ToLower(strings.TrimSpace(col))
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "loader: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "loader: read csv row")
				return
			}

			row := make(map[string]string, len(header))
			for i, col := range header {
				if i < len(record) {
					row[col] = strings.TrimSpace(record[i])
				}
			}

			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "loader: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
