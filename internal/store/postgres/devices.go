package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/qartha/idfportal/internal/core"
)

func idfID(ctx context.Context, db DBTX, key core.IDFKey) (int64, error) {
	var id int64
	err := db.QueryRow(ctx,
		`SELECT id FROM idfs WHERE cluster = $1 AND project = $2 AND code = $3`,
		key.Cluster, key.Project, key.Code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, core.ErrIDFNotFound
	}
	return id, err
}

// ReplaceDevices deletes the IDF's devices and bulk-loads the new set with
// COPY in one transaction.
func (s *Store) ReplaceDevices(ctx context.Context, key core.IDFKey, devices []core.Device) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		id, err := idfID(ctx, tx, key)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM devices WHERE idf_id = $1`, id); err != nil {
			return fmt.Errorf("delete devices: %w", err)
		}
		if len(devices) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"devices"},
			[]string{"idf_id", "name", "model", "serial", "rack", "site", "notes"},
			pgx.CopyFromSlice(len(devices), func(i int) ([]any, error) {
				d := devices[i]
				return []any{id, d.Name, d.Model, d.Serial, d.Rack, d.Site, d.Notes}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy devices: %w", err)
		}
		return nil
	})
}

func (s *Store) InsertDevices(ctx context.Context, devices []core.Device) ([]core.Device, error) {
	out := make([]core.Device, 0, len(devices))
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		ids := make(map[core.IDFKey]int64)
		for _, d := range devices {
			key := core.IDFKey{Cluster: d.Cluster, Project: d.Project, Code: d.IDFCode}
			id, ok := ids[key]
			if !ok {
				var err error
				if id, err = idfID(ctx, tx, key); err != nil {
					return err
				}
				ids[key] = id
			}
			err := tx.QueryRow(ctx, `
				INSERT INTO devices (idf_id, name, model, serial, rack, site, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at`,
				id, d.Name, d.Model, d.Serial, d.Rack, d.Site, d.Notes,
			).Scan(&d.ID, &d.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert device %q: %w", d.Name, err)
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListDevices(ctx context.Context, key core.IDFKey) ([]core.Device, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, i.cluster, i.project, i.code, d.name, d.model, d.serial, d.rack, d.site, d.notes, d.created_at
		FROM devices d JOIN idfs i ON i.id = d.idf_id
		WHERE i.cluster = $1 AND i.project = $2 AND i.code = $3
		ORDER BY d.id`,
		key.Cluster, key.Project, key.Code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.Device{}
	for rows.Next() {
		var d core.Device
		if err := rows.Scan(&d.ID, &d.Cluster, &d.Project, &d.IDFCode, &d.Name, &d.Model,
			&d.Serial, &d.Rack, &d.Site, &d.Notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
