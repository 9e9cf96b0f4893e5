package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/table"
)

const idfColumns = `id, cluster, project, code, title, description, site, room,
	images, documents, diagrams, dfo, location, logo, fiber_table, created_at, updated_at`

// idfRow holds the JSONB columns before decoding.
type idfRow struct {
	idf        core.IDF
	images     []byte
	documents  []byte
	diagrams   []byte
	dfo        []byte
	location   []byte
	logo       []byte
	fiberTable []byte
}

func scanIDF(row pgx.Row) (*core.IDF, error) {
	var r idfRow
	err := row.Scan(
		&r.idf.ID, &r.idf.Cluster, &r.idf.Project, &r.idf.Code, &r.idf.Title,
		&r.idf.Description, &r.idf.Site, &r.idf.Room,
		&r.images, &r.documents, &r.diagrams, &r.dfo, &r.location,
		&r.logo, &r.fiberTable, &r.idf.CreatedAt, &r.idf.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrIDFNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.decode()
}

func (r *idfRow) decode() (*core.IDF, error) {
	idf := r.idf
	lists := []struct {
		data []byte
		dst  *core.MediaList
	}{
		{r.images, &idf.Images},
		{r.documents, &idf.Documents},
		{r.diagrams, &idf.Diagrams},
		{r.dfo, &idf.DFO},
		{r.location, &idf.Location},
	}
	for _, l := range lists {
		if err := json.Unmarshal(l.data, l.dst); err != nil {
			return nil, fmt.Errorf("decode media of %s: %w", idf.Key(), err)
		}
	}
	if len(r.logo) > 0 && string(r.logo) != "null" {
		var logo core.MediaItem
		if err := json.Unmarshal(r.logo, &logo); err != nil {
			return nil, fmt.Errorf("decode logo of %s: %w", idf.Key(), err)
		}
		idf.Logo = &logo
	}
	if len(r.fiberTable) > 0 && string(r.fiberTable) != "null" {
		var t table.Table
		if err := json.Unmarshal(r.fiberTable, &t); err != nil {
			return nil, fmt.Errorf("decode table of %s: %w", idf.Key(), err)
		}
		idf.Table = &t
	}
	return &idf, nil
}

// encodeIDF returns the JSONB parameters in column order.
func encodeIDF(idf *core.IDF) ([]any, error) {
	out := make([]any, 0, 7)
	for _, l := range []core.MediaList{idf.Images, idf.Documents, idf.Diagrams, idf.DFO, idf.Location} {
		b, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	var logo, fiberTable []byte
	if idf.Logo != nil {
		b, err := json.Marshal(idf.Logo)
		if err != nil {
			return nil, err
		}
		logo = b
	}
	if idf.Table != nil {
		b, err := json.Marshal(idf.Table)
		if err != nil {
			return nil, err
		}
		fiberTable = b
	}
	return append(out, logo, fiberTable), nil
}

func (s *Store) ListIDFs(ctx context.Context, cluster, project string, opts core.ListOptions) ([]core.IDF, error) {
	query := `SELECT ` + idfColumns + ` FROM idfs WHERE cluster = $1 AND project = $2`
	args := []any{cluster, project}
	if opts.Query != "" {
		args = append(args, "%"+escapeLike(opts.Query)+"%")
		query += fmt.Sprintf(` AND (code ILIKE $%[1]d OR title ILIKE $%[1]d OR site ILIKE $%[1]d OR room ILIKE $%[1]d)`, len(args))
	}
	args = append(args, opts.Limit, opts.Skip)
	query += fmt.Sprintf(` ORDER BY title, code LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.IDF{}
	for rows.Next() {
		idf, err := scanIDF(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *idf)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) GetIDF(ctx context.Context, key core.IDFKey) (*core.IDF, error) {
	return getIDF(ctx, s.pool, key, false)
}

func getIDF(ctx context.Context, db DBTX, key core.IDFKey, lock bool) (*core.IDF, error) {
	query := `SELECT ` + idfColumns + ` FROM idfs WHERE cluster = $1 AND project = $2 AND code = $3`
	if lock {
		query += ` FOR UPDATE`
	}
	return scanIDF(db.QueryRow(ctx, query, key.Cluster, key.Project, key.Code))
}

func (s *Store) CreateIDF(ctx context.Context, idf *core.IDF) error {
	media, err := encodeIDF(idf)
	if err != nil {
		return fmt.Errorf("encode idf: %w", err)
	}
	args := append([]any{idf.Cluster, idf.Project, idf.Code, idf.Title, idf.Description, idf.Site, idf.Room}, media...)
	args = append(args, idf.CreatedAt, idf.UpdatedAt)

	err = s.pool.QueryRow(ctx, `
		INSERT INTO idfs (cluster, project, code, title, description, site, room,
			images, documents, diagrams, dfo, location, logo, fiber_table, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`, args...).Scan(&idf.ID)
	if isUniqueViolation(err) {
		return core.ErrIDFExists
	}
	return err
}

func (s *Store) UpdateIDF(ctx context.Context, idf *core.IDF) error {
	return updateIDF(ctx, s.pool, idf)
}

func updateIDF(ctx context.Context, db DBTX, idf *core.IDF) error {
	media, err := encodeIDF(idf)
	if err != nil {
		return fmt.Errorf("encode idf: %w", err)
	}
	args := append([]any{idf.Cluster, idf.Project, idf.Code, idf.Title, idf.Description, idf.Site, idf.Room}, media...)
	args = append(args, idf.UpdatedAt)

	tag, err := db.Exec(ctx, `
		UPDATE idfs SET title = $4, description = $5, site = $6, room = $7,
			images = $8, documents = $9, diagrams = $10, dfo = $11, location = $12,
			logo = $13, fiber_table = $14, updated_at = $15
		WHERE cluster = $1 AND project = $2 AND code = $3`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrIDFNotFound
	}
	return nil
}

func (s *Store) DeleteIDF(ctx context.Context, key core.IDFKey) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM idfs WHERE cluster = $1 AND project = $2 AND code = $3`,
		key.Cluster, key.Project, key.Code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrIDFNotFound
	}
	return nil
}

// MutateIDF locks the row with SELECT ... FOR UPDATE, so concurrent edits
// of one IDF are applied one after another.
func (s *Store) MutateIDF(ctx context.Context, key core.IDFKey, fn func(*core.IDF) error) (*core.IDF, error) {
	var out *core.IDF
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		idf, err := getIDF(ctx, tx, key, true)
		if err != nil {
			return err
		}
		if err := fn(idf); err != nil {
			return err
		}
		if idf.Key() != key {
			return fmt.Errorf("mutation changed key of %s", key)
		}
		if err := updateIDF(ctx, tx, idf); err != nil {
			return err
		}
		out = idf
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
