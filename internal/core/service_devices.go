package core

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/qartha/idfportal/internal/devicecsv"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/metrics"
)

// ImportDevicesCSV replaces every device of an IDF with the rows of a CSV
// file. Malformed rows are skipped and reported; a missing header fails
// the whole import and leaves the existing devices untouched.
func (s *Service) ImportDevicesCSV(ctx context.Context, cluster, projectSegment, code string, f Upload) (*DeviceImportResult, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(path.Ext(f.Filename), ".csv") {
		return nil, invalidInput("file", "must be a .csv file")
	}
	if _, err := s.store.GetIDF(ctx, k); err != nil {
		return nil, fmt.Errorf("import devices %s: %w", k, err)
	}

	var result *DeviceImportResult
	err = s.limiter.Do(ctx, func() error {
		data, err := readLimited(f.Body, s.maxBytes)
		if err != nil {
			return err
		}
		parsed, err := devicecsv.ImportRows(data, devicecsv.DeviceFields)
		if err != nil {
			return err
		}

		devices := make([]Device, 0, len(parsed.Records))
		for _, rec := range parsed.Records {
			devices = append(devices, deviceFromRecord(k, rec))
		}
		if err := s.store.ReplaceDevices(ctx, k, devices); err != nil {
			return err
		}

		failed := parsed.Failed
		if failed == nil {
			failed = []devicecsv.RowError{}
		}
		result = &DeviceImportResult{
			Imported: len(devices),
			Failed:   failed,
			Skipped:  parsed.Skipped,
			Message:  importMessage(len(devices), len(failed)),
		}
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("device import rejected", "idf", k.String(), "file", f.Filename, "error", err)
		return nil, fmt.Errorf("import devices %s: %w", k, err)
	}

	metrics.RecordDeviceImport(result.Imported, len(result.Failed))
	logging.FromContext(ctx).Info("devices imported",
		"idf", k.String(),
		"imported", result.Imported,
		"failed", len(result.Failed),
		"skipped", result.Skipped,
	)
	return result, nil
}

func importMessage(imported, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%d devices imported", imported)
	}
	return fmt.Sprintf("%d devices imported, %d rows rejected", imported, failed)
}

func deviceFromRecord(k IDFKey, rec devicecsv.Record) Device {
	return Device{
		Cluster: k.Cluster,
		Project: k.Project,
		IDFCode: k.Code,
		Name:    rec.Get("name"),
		Model:   rec.Get("model"),
		Serial:  rec.Get("serial"),
		Rack:    rec.Get("rack"),
		Site:    rec.Get("site"),
		Notes:   rec.Get("notes"),
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, invalidInput("file", "exceeds %d bytes", limit)
	}
	return data, nil
}

// CreateDevices adds devices from JSON input. Every referenced IDF must
// exist in the project.
func (s *Service) CreateDevices(ctx context.Context, cluster, projectSegment string, in []NewDevice) ([]Device, error) {
	project, err := s.Resolve(cluster, projectSegment)
	if err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, invalidInput("devices", "at least one device is required")
	}

	seen := make(map[string]bool)
	devices := make([]Device, 0, len(in))
	for i, nd := range in {
		nd.IDFCode = strings.TrimSpace(nd.IDFCode)
		nd.Name = strings.TrimSpace(nd.Name)
		if err := s.validate.Struct(nd); err != nil {
			ie := inputErrorFrom(err)
			return nil, fmt.Errorf("device %d: %w", i, ie)
		}
		k := IDFKey{Cluster: cluster, Project: project, Code: nd.IDFCode}
		if !seen[k.Code] {
			if _, err := s.store.GetIDF(ctx, k); err != nil {
				return nil, fmt.Errorf("device %d: %s: %w", i, k, err)
			}
			seen[k.Code] = true
		}
		devices = append(devices, Device{
			Cluster: cluster,
			Project: project,
			IDFCode: nd.IDFCode,
			Name:    nd.Name,
			Model:   strings.TrimSpace(nd.Model),
			Serial:  strings.TrimSpace(nd.Serial),
			Rack:    strings.TrimSpace(nd.Rack),
			Site:    strings.TrimSpace(nd.Site),
			Notes:   nd.Notes,
		})
	}

	created, err := s.store.InsertDevices(ctx, devices)
	if err != nil {
		return nil, fmt.Errorf("create devices %s/%s: %w", cluster, project, err)
	}
	logging.FromContext(ctx).Info("devices created", "cluster", cluster, "project", project, "count", len(created))
	return created, nil
}

// ListDevices returns the devices of one IDF in insertion order.
func (s *Service) ListDevices(ctx context.Context, cluster, projectSegment, code string) ([]Device, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetIDF(ctx, k); err != nil {
		return nil, fmt.Errorf("list devices %s: %w", k, err)
	}
	devices, err := s.store.ListDevices(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("list devices %s: %w", k, err)
	}
	return devices, nil
}

// DeviceTemplate returns the CSV header row expected by ImportDevicesCSV.
func DeviceTemplate() []byte {
	return devicecsv.Template(devicecsv.DeviceFields)
}
