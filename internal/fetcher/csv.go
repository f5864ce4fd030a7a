package fetcher

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // 0 = none
	LazyQuotes bool
	TrimSpace  bool
}

// Record is one CSV row keyed by lower-cased header name.
type Record map[string]string

// Get returns the trimmed value for a column, or "".
func (r Record) Get(column string) string {
	return strings.TrimSpace(r[strings.ToLower(column)])
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StreamCSV reads a headed CSV and sends each data row as a Record keyed by
// the header. A leading UTF-8 byte order mark is ignored. Short rows leave
// the missing columns empty. Both channels are closed when processing
// completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Record, <-chan error) {
	recCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		reader := csv.NewReader(&bomReader{r: r})
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		var header []string
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			row, err := reader.Read()
			if err == io.EOF {
				if header == nil {
					errCh <- eris.New("csv: missing header row")
				}
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if header == nil {
				header = make([]string, len(row))
				for i, h := range row {
					header[i] = strings.ToLower(strings.TrimSpace(h))
				}
				continue
			}

			rec := make(Record, len(header))
			for i, col := range header {
				if i >= len(row) {
					rec[col] = ""
					continue
				}
				v := row[i]
				if opts.TrimSpace {
					v = strings.TrimSpace(v)
				}
				rec[col] = v
			}

			select {
			case recCh <- rec:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}

// bomReader drops a UTF-8 byte order mark from the start of the stream.
type bomReader struct {
	r       io.Reader
	checked bool
}

func (b *bomReader) Read(p []byte) (int, error) {
	if b.checked {
		return b.r.Read(p)
	}
	b.checked = true
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(b.r, head)
	head = head[:n]
	if bytes.Equal(head, utf8BOM) {
		head = nil
	}
	b.r = io.MultiReader(bytes.NewReader(head), b.r)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return b.r.Read(p)
}
