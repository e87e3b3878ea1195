package types

import "time"

// ImageRecord is the metadata document appended for every uploaded photo.
type ImageRecord struct {
	ID        string
	ImageURL  string
	Timestamp string // ISO 8601, millisecond precision
}

// UploadRecord describes one successful object storage upload.
type UploadRecord struct {
	OwnerID     string
	StoragePath string
	DownloadURL string
	UploadedAt  time.Time
}

// AnalysisRecord is a persisted classification. Result is stored verbatim.
type AnalysisRecord struct {
	ID         string // document key, the ISO timestamp of RecordedAt
	OwnerID    string
	Result     map[string]interface{}
	RecordedAt time.Time
}
