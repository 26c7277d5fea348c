package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ListFolderScans returns every recorded folder range summary run.
func (h *Handler) ListFolderScans(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "ListFolderScans")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	rows, err := h.db.QueryContext(ctx, `
		SELECT
			fs.folder_scan_id,
			fs.root,
			fs.scanned_at,
			(SELECT COUNT(*) FROM folder_summaries WHERE folder_scan_id = fs.folder_scan_id) AS folder_count
		FROM folder_scans fs
		ORDER BY fs.scanned_at DESC
	`)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list folder scans")
	}
	defer rows.Close()

	scans := []FolderScanSummary{}
	for rows.Next() {
		var s FolderScanSummary
		if err := rows.Scan(&s.FolderScanID, &s.Root, &s.ScannedAt, &s.FolderCount); err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scan row")
		}
		scans = append(scans, s)
	}

	return c.JSON(http.StatusOK, scans)
}

// GetFolderSummaries returns the folder table of one summary run.
func (h *Handler) GetFolderSummaries(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetFolderSummaries")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	idStr := c.QueryParam("folder_scan_id")
	if idStr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "folder_scan_id parameter is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid folder_scan_id")
	}
	span.SetAttributes(attribute.Int64("folder_scan_id", id))

	rows, err := h.db.QueryContext(ctx, `
		SELECT folder_path, sensor_id, start_utc, end_utc, file_count, total_size_mb
		FROM folder_summaries
		WHERE folder_scan_id = ?
		ORDER BY folder_path
	`, id)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get folder summaries")
	}
	defer rows.Close()

	folders := []FolderStats{}
	for rows.Next() {
		var f FolderStats
		if err := rows.Scan(&f.FolderPath, &f.SensorID, &f.Start, &f.End,
			&f.FileCount, &f.TotalSizeMB); err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scan row")
		}
		folders = append(folders, f)
	}

	return c.JSON(http.StatusOK, folders)
}
