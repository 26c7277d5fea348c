package api

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ListScans returns every recorded integrity scan, newest first.
func (h *Handler) ListScans(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "ListScans")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	rows, err := h.db.QueryContext(ctx, `
		SELECT
			s.scan_id,
			s.root,
			s.scanned_at,
			s.file_count,
			s.total_size_bytes,
			s.median_size_mb,
			(SELECT COUNT(*) FROM day_summaries WHERE scan_id = s.scan_id AND corrupted = 1) AS corrupted_days,
			(SELECT COUNT(*) FROM moves WHERE scan_id = s.scan_id) AS move_count
		FROM scans s
		ORDER BY s.scanned_at DESC
	`)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list scans")
	}
	defer rows.Close()

	scans := []ScanSummary{}
	for rows.Next() {
		var s ScanSummary
		if err := rows.Scan(&s.ScanID, &s.Root, &s.ScannedAt, &s.FileCount,
			&s.TotalSizeBytes, &s.MedianSizeMB, &s.CorruptedDays, &s.MoveCount); err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scan row")
		}
		scans = append(scans, s)
	}

	return c.JSON(http.StatusOK, scans)
}

// GetScan returns the summary of one scan.
func (h *Handler) GetScan(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetScan")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	scanID, err := h.getScanIDFromQuery(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int64("scan_id", scanID))

	var s ScanSummary
	err = h.db.QueryRowContext(ctx, `
		SELECT
			s.scan_id,
			s.root,
			s.scanned_at,
			s.file_count,
			s.total_size_bytes,
			s.median_size_mb,
			(SELECT COUNT(*) FROM day_summaries WHERE scan_id = s.scan_id AND corrupted = 1) AS corrupted_days,
			(SELECT COUNT(*) FROM moves WHERE scan_id = s.scan_id) AS move_count
		FROM scans s
		WHERE s.scan_id = ?
	`, scanID).Scan(&s.ScanID, &s.Root, &s.ScannedAt, &s.FileCount,
		&s.TotalSizeBytes, &s.MedianSizeMB, &s.CorruptedDays, &s.MoveCount)
	if err == sql.ErrNoRows {
		return echo.NewHTTPError(http.StatusNotFound, "Scan not found")
	}
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get scan")
	}

	return c.JSON(http.StatusOK, s)
}

// GetDaySummaries returns the per-day series of one scan, paginated.
func (h *Handler) GetDaySummaries(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetDaySummaries")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	scanID, err := h.getScanIDFromQuery(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int64("scan_id", scanID))

	var total int
	err = h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM day_summaries WHERE scan_id = ?`, scanID).Scan(&total)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count day summaries")
	}

	page, err := h.getPageFromQuery(c, total)
	if err != nil {
		span.RecordError(err)
		return err
	}
	perPage := 100

	rows, err := h.db.QueryContext(ctx, `
		SELECT day, mean_size_mb, file_count, corrupted
		FROM day_summaries
		WHERE scan_id = ?
		ORDER BY day
		LIMIT ? OFFSET ?
	`, scanID, perPage, (page-1)*perPage)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get day summaries")
	}
	defer rows.Close()

	days := []DayStats{}
	for rows.Next() {
		var d DayStats
		var corrupted int
		if err := rows.Scan(&d.Day, &d.MeanSizeMB, &d.FileCount, &corrupted); err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scan row")
		}
		d.Corrupted = corrupted != 0
		days = append(days, d)
	}

	return c.JSON(http.StatusOK, NewPaginatedResponse(c, days, page, perPage, total))
}

// GetCorruptedDates returns the flagged dates of one scan.
func (h *Handler) GetCorruptedDates(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetCorruptedDates")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	scanID, err := h.getScanIDFromQuery(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int64("scan_id", scanID))

	rows, err := h.db.QueryContext(ctx, `
		SELECT day FROM day_summaries
		WHERE scan_id = ? AND corrupted = 1
		ORDER BY day
	`, scanID)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get corrupted dates")
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scan row")
		}
		dates = append(dates, day)
	}

	return c.JSON(http.StatusOK, dates)
}

// GetMoves returns the relocations performed by one scan.
func (h *Handler) GetMoves(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("api/handlers")
	ctx, span := tracer.Start(ctx, "GetMoves")
	defer span.End()

	c.SetRequest(c.Request().WithContext(ctx))

	scanID, err := h.getScanIDFromQuery(c)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int64("scan_id", scanID))

	rows, err := h.db.QueryContext(ctx, `
		SELECT kind, source, dest FROM moves
		WHERE scan_id = ?
		ORDER BY move_id
	`, scanID)
	if err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get moves")
	}
	defer rows.Close()

	moves := []MoveEntry{}
	for rows.Next() {
		var m MoveEntry
		if err := rows.Scan(&m.Kind, &m.Source, &m.Dest); err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to scan row")
		}
		moves = append(moves, m)
	}

	return c.JSON(http.StatusOK, moves)
}
