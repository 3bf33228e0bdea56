package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

var (
	ErrFileUnreadable = errors.New("dataset file unreadable")
	ErrMalformed      = errors.New("dataset file malformed")
	ErrMissingColumns = errors.New("dataset missing required columns")
)

var requiredColumns = []string{"text", "relevance", "label"}

// LoadError is returned for any failure that leaves no usable dataset.
type LoadError struct {
	Path    string
	Missing []string
	Err     error
}

func (e *LoadError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("load %s: %v: %s", e.Path, e.Err, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type Loader struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewLoader(clock clockwork.Clock, logger *slog.Logger) *Loader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{clock: clock, logger: logger}
}

// Load reads the delimited file at path with the real clock.
func Load(path string) (*models.Dataset, error) {
	return NewLoader(nil, nil).Load(path)
}

func (l *Loader) Load(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrFileUnreadable, err)}
	}
	defer f.Close()

	ds, err := l.Read(f, path)
	if err != nil {
		return nil, err
	}

	l.logger.Info("dataset loaded",
		"path", path,
		"records", ds.Len(),
		"location", ds.Columns.Location,
		"disaster_type", ds.Columns.DisasterType,
		"extracted_locations", ds.Columns.ExtractedLocations,
	)
	return ds, nil
}

// Read parses CSV content from r. name is only used in errors.
func (l *Loader) Read(r io.Reader, name string) (*models.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("%w: empty file", ErrMalformed)}
		}
		return nil, &LoadError{Path: name, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	idx := indexColumns(header)

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Path: name, Missing: missing, Err: ErrMissingColumns}
	}

	cols := models.Columns{}
	_, cols.Location = idx["location"]
	_, cols.DisasterType = idx["disaster_type"]
	_, cols.ExtractedLocations = idx["extracted_locations"]

	var records []models.Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)}
		}

		records = append(records, models.Record{
			Text:               field(row, idx, "text"),
			Relevance:          field(row, idx, "relevance"),
			Label:              field(row, idx, "label"),
			Location:           field(row, idx, "location"),
			DisasterType:       field(row, idx, "disaster_type"),
			ExtractedLocations: field(row, idx, "extracted_locations"),
		})
	}

	return models.NewDataset(records, cols, name, l.clock.Now()), nil
}

// indexColumns maps normalized header names to positions. The first
// occurrence of a duplicated name wins.
func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// field returns the trimmed cell, treating pandas null markers as empty.
func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}
	return v
}
