// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
)

// Artifact kinds.
const (
	KindSchedule = "schedule"
	KindFailures = "failures"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Exporter writes run workbooks under a base directory.
type Exporter struct {
	dir     string
	loc     *time.Location
	objects ObjectStore
	prefix  string
}

// New creates an Exporter. objects may be nil to disable uploads.
func New(dir string, loc *time.Location, objects ObjectStore, prefix string) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{dir: dir, loc: loc, objects: objects, prefix: prefix}
}

// ArtifactPath returns where the artifact of kind for runID is written.
func (e *Exporter) ArtifactPath(runID, kind string) string {
	return filepath.Join(e.dir, runID, fmt.Sprintf("%s_%s.xlsx", kind, runID))
}

// UploadEnabled reports whether artifacts are copied to object storage.
func (e *Exporter) UploadEnabled() bool {
	return e.objects != nil
}

// Upload copies a written artifact to object storage under
// <prefix>/<runID>/<file name> and returns the object key.
func (e *Exporter) Upload(ctx context.Context, runID, localPath string) (string, error) {
	if e.objects == nil {
		return "", nil
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	key := path.Join(e.prefix, runID, filepath.Base(localPath))
	err = e.objects.PutObject(ctx, key, f, xlsxContentType)
	metrics.RecordUpload(err)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	logging.Ctx(ctx).Info().Str("key", key).Msg("Artifact uploaded")
	return key, nil
}

// save writes f to dest through a temporary file in the same directory.
func save(f *excelize.File, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".artifact-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return nil
}

// writeSheet creates (or renames the default sheet to) name and fills it
// with header and rows.
func writeSheet(f *excelize.File, name string, first bool, header []any, rows [][]any) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(name, 1, 1, style)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}
