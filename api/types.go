package api

// ScanSummary is one catalog row describing a completed integrity scan.
type ScanSummary struct {
	ScanID         int64   `json:"scan_id"`
	Root           string  `json:"root"`
	ScannedAt      int64   `json:"scanned_at"`
	FileCount      int64   `json:"file_count"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	MedianSizeMB   float64 `json:"median_size_mb"`
	CorruptedDays  int64   `json:"corrupted_days"`
	MoveCount      int64   `json:"move_count"`
}

// DayStats is one day of a scan's aggregate series.
type DayStats struct {
	Day        string  `json:"day"`
	MeanSizeMB float64 `json:"mean_size_mb"`
	FileCount  int64   `json:"file_count"`
	Corrupted  bool    `json:"corrupted"`
}

// MoveEntry is one relocation recorded for a scan.
type MoveEntry struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// FolderScanSummary is one recorded folder range summary run.
type FolderScanSummary struct {
	FolderScanID int64  `json:"folder_scan_id"`
	Root         string `json:"root"`
	ScannedAt    int64  `json:"scanned_at"`
	FolderCount  int64  `json:"folder_count"`
}

// FolderStats is one folder row of a folder range summary.
type FolderStats struct {
	FolderPath  string  `json:"folder_path"`
	SensorID    *string `json:"sensor_id"`
	Start       *int64  `json:"start"`
	End         *int64  `json:"end"`
	FileCount   int64   `json:"file_count"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

// PaginatedResponse wraps a page of results.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
	HasNext    bool        `json:"has_next"`
}
