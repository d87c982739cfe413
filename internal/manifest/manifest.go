// Package manifest reads the source platform's exported CSV manifest into
// ordered SourceRecords. The export's header names vary between accounts, so
// the column mapping comes from configuration.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/calebms/vidshift/internal/domain"
)

var (
	// ErrNotFound means the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")

	// ErrUnreadable means the manifest exists but cannot be parsed.
	ErrUnreadable = errors.New("manifest unreadable")
)

// Columns maps the manifest's header names onto SourceRecord fields.
type Columns struct {
	ID       string
	Name     string
	URL      string
	Group    string
	Download string
}

// Read loads the manifest at path and returns its rows in file order.
// Rows with an empty external id are dropped: without the dedup key the
// engine could never record or resume them.
func Read(path string, cols Columns) ([]domain.SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	return parse(f, cols)
}

func parse(r io.Reader, cols Columns) ([]domain.SourceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // exports are ragged around trailing commas

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrUnreadable)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	for _, required := range []string{cols.ID, cols.Name, cols.URL} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrUnreadable, required)
		}
	}

	var records []domain.SourceRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := domain.SourceRecord{
			ExternalID:  field(cols.ID),
			Name:        field(cols.Name),
			GroupID:     field(cols.Group),
			SourceURL:   field(cols.URL),
			DownloadURL: field(cols.Download),
		}
		if rec.ExternalID == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
