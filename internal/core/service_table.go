package core

import (
	"context"
	"fmt"

	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/metrics"
	"github.com/qartha/idfportal/internal/table"
)

// Table operations apply the pure functions of package table to a stored
// IDF under the store's row lock. Each returns the resulting table with
// freshly computed health.

// CreateTable attaches a default table to an IDF that has none.
func (s *Service) CreateTable(ctx context.Context, cluster, projectSegment, code string) (*TableView, error) {
	return s.mutateTable(ctx, "create", cluster, projectSegment, code, func(cur *table.Table) (table.Table, error) {
		if cur != nil && !cur.Absent() {
			return table.Table{}, ErrTableExists
		}
		return table.Create(), nil
	})
}

// AddRow appends an empty row.
func (s *Service) AddRow(ctx context.Context, cluster, projectSegment, code string) (*TableView, error) {
	return s.mutateTable(ctx, "add_row", cluster, projectSegment, code, func(cur *table.Table) (table.Table, error) {
		if cur == nil || cur.Absent() {
			return table.Table{}, ErrNoTable
		}
		return table.AddRow(*cur), nil
	})
}

// RemoveRow deletes the row at index.
func (s *Service) RemoveRow(ctx context.Context, cluster, projectSegment, code string, index int) (*TableView, error) {
	return s.mutateTable(ctx, "remove_row", cluster, projectSegment, code, func(cur *table.Table) (table.Table, error) {
		if cur == nil || cur.Absent() {
			return table.Table{}, ErrNoTable
		}
		return table.RemoveRow(*cur, index)
	})
}

// UpdateCell stores one cell value exactly as given.
func (s *Service) UpdateCell(ctx context.Context, cluster, projectSegment, code string, index int, key string, v table.Value) (*TableView, error) {
	return s.mutateTable(ctx, "update_cell", cluster, projectSegment, code, func(cur *table.Table) (table.Table, error) {
		if cur == nil || cur.Absent() {
			return table.Table{}, ErrNoTable
		}
		return table.UpdateCell(*cur, index, key, v)
	})
}

// ReplaceTable swaps in a whole new table. An IDF without a table gets one.
func (s *Service) ReplaceTable(ctx context.Context, cluster, projectSegment, code string, next table.Table) (*TableView, error) {
	return s.mutateTable(ctx, "replace", cluster, projectSegment, code, func(cur *table.Table) (table.Table, error) {
		var prev table.Table
		if cur != nil {
			prev = *cur
		}
		return table.Replace(prev, next)
	})
}

// GetTable returns the table of an IDF. An IDF without a table yields an
// absent table with gray health rather than an error.
func (s *Service) GetTable(ctx context.Context, cluster, projectSegment, code string) (*TableView, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	idf, err := s.store.GetIDF(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("get table %s: %w", k, err)
	}
	return viewOf(idf.Table), nil
}

func (s *Service) mutateTable(ctx context.Context, op, cluster, projectSegment, code string, fn func(*table.Table) (table.Table, error)) (view *TableView, err error) {
	defer func() { metrics.RecordTableMutation(op, err) }()

	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.MutateIDF(ctx, k, func(idf *IDF) error {
		next, err := fn(idf.Table)
		if err != nil {
			return err
		}
		idf.Table = &next
		idf.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("table mutation rejected", "idf", k.String(), "op", op, "error", err)
		return nil, fmt.Errorf("%s table %s: %w", op, k, err)
	}

	logging.FromContext(ctx).Info("table updated", "idf", k.String(), "op", op, "rows", len(updated.Table.Rows))
	return viewOf(updated.Table), nil
}

func viewOf(t *table.Table) *TableView {
	if t == nil {
		return &TableView{Table: table.Table{Columns: []table.Column{}, Rows: []table.Row{}}, Health: healthOf(nil)}
	}
	return &TableView{Table: *t, Health: table.HealthOf(*t)}
}
