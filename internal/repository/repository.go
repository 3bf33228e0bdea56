package repository

import (
	"context"

	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/views"
)

// RecordRepository serves the summary and record-browser views.
type RecordRepository interface {
	Summary(ctx context.Context) (views.Summary, error)
	Page(ctx context.Context, page int) (views.Page, error)
}

// MemoryRepository computes views straight from the loaded dataset.
type MemoryRepository struct {
	ds *models.Dataset
}

var _ RecordRepository = (*MemoryRepository)(nil)

func NewMemoryRepository(ds *models.Dataset) *MemoryRepository {
	return &MemoryRepository{ds: ds}
}

func (m *MemoryRepository) Summary(ctx context.Context) (views.Summary, error) {
	return views.Summarize(m.ds.Records()), nil
}

func (m *MemoryRepository) Page(ctx context.Context, page int) (views.Page, error) {
	return views.Paginate(m.ds.Records(), page), nil
}
