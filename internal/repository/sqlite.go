package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/views"
)

const insertBatchSize = 200

var recordColumns = []string{"text", "relevance", "label", "location", "disaster_type", "extracted_locations"}

// SQLiteDB mirrors the loaded dataset into a records table and answers the
// summary and browser views with SQL.
type SQLiteDB struct {
	db *sql.DB
}

var _ RecordRepository = (*SQLiteDB)(nil)

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			row_index INTEGER PRIMARY KEY,
			text TEXT NOT NULL,
			relevance TEXT NOT NULL,
			label TEXT,
			location TEXT,
			disaster_type TEXT,
			extracted_locations TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_records_relevance ON records(relevance);
		CREATE INDEX IF NOT EXISTS idx_records_label ON records(label);
		CREATE INDEX IF NOT EXISTS idx_records_disaster_type ON records(disaster_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Import replaces the table contents with the dataset, preserving row order.
func (s *SQLiteDB) Import(ctx context.Context, ds *models.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	records := ds.Records()
	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))

		insert := sq.Insert("records").Columns(append([]string{"row_index"}, recordColumns...)...)
		for i, r := range records[start:end] {
			insert = insert.Values(start+i, r.Text, r.Relevance,
				nullable(r.Label), nullable(r.Location), nullable(r.DisasterType), nullable(r.ExtractedLocations))
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert records %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("records").ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLiteDB) Summary(ctx context.Context) (views.Summary, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return views.Summary{}, err
	}

	relevance, err := s.countBy(ctx, sq.
		Select(fmt.Sprintf("COALESCE(NULLIF(relevance, ''), '%s') AS value", views.UnknownRelevance), "COUNT(*)").
		From("records").
		GroupBy("value"))
	if err != nil {
		return views.Summary{}, fmt.Errorf("count relevance: %w", err)
	}

	labels, err := s.countBy(ctx, sq.
		Select("label AS value", "COUNT(*)").
		From("records").
		Where("label IS NOT NULL AND label <> ''").
		GroupBy("value"))
	if err != nil {
		return views.Summary{}, fmt.Errorf("count labels: %w", err)
	}

	return views.NewSummary(total, relevance, labels), nil
}

func (s *SQLiteDB) countBy(ctx context.Context, b sq.SelectBuilder) (map[string]int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value string
			n     int
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, err
		}
		counts[value] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteDB) Page(ctx context.Context, page int) (views.Page, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return views.Page{}, err
	}

	number, totalPages, start, end := views.Bounds(total, page)
	out := views.Page{
		Number:     number,
		TotalPages: totalPages,
		PageSize:   views.PageSize,
		Total:      total,
		Start:      start,
		End:        end,
		Records:    []models.Record{},
	}
	if end == start {
		return out, nil
	}

	query, args, err := sq.Select(recordColumns...).
		From("records").
		OrderBy("row_index").
		Limit(uint64(end - start)).
		Offset(uint64(start)).
		ToSql()
	if err != nil {
		return views.Page{}, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return views.Page{}, fmt.Errorf("query page %d: %w", number, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                                        models.Record
			label, location, disasterType, extracted sql.NullString
		)
		if err := rows.Scan(&r.Text, &r.Relevance, &label, &location, &disasterType, &extracted); err != nil {
			return views.Page{}, fmt.Errorf("scan record: %w", err)
		}
		r.Label = label.String
		r.Location = location.String
		r.DisasterType = disasterType.String
		r.ExtractedLocations = extracted.String
		out.Records = append(out.Records, r)
	}
	if err := rows.Err(); err != nil {
		return views.Page{}, fmt.Errorf("iterate page %d: %w", number, err)
	}

	return out, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
