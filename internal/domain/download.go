package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the outcome recorded for a download request
type DownloadStatus string

const (
	StatusCompleted DownloadStatus = "completed"
	StatusCancelled DownloadStatus = "cancelled"
)

// UnknownValue is stored for provenance fields the client could not determine
const UnknownValue = "Unknown"

// DownloadRecord is one entry of the decision log. A record is inserted once,
// already classified, and never updated afterwards.
type DownloadRecord struct {
	UUID               string         `json:"uuid" gorm:"column:uuid;primaryKey"`
	IDHash             *string        `json:"id_hash" gorm:"column:id_hash;uniqueIndex"`
	URL                string         `json:"url" gorm:"not null"`
	Referrer           string         `json:"referrer"`
	FinalURL           string         `json:"final_url"`
	NormalizedPath     string         `json:"normalized_path" gorm:"index"`
	Filename           string         `json:"filename" gorm:"index"`
	Domain             string         `json:"domain"`
	ContentLength      *int64         `json:"content_length" gorm:"index"`
	ContentType        *string        `json:"content_type"`
	LastModified       *string        `json:"last_modified" gorm:"index"`
	ETag               *string        `json:"etag" gorm:"column:etag;index"`
	ContentDisposition *string        `json:"content_disposition"`
	DeviceID           string         `json:"device_id"`
	DeviceName         string         `json:"device_name"`
	MACAddress         string         `json:"mac_address" gorm:"column:mac_address"`
	CurrentUser        string         `json:"current_user"`
	PartialHash        *string        `json:"partial_hash" gorm:"index"`
	Status             DownloadStatus `json:"status" gorm:"not null;index"`
	InsertedAt         time.Time      `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName keeps the table name stable regardless of the struct name
func (DownloadRecord) TableName() string {
	return "downloads"
}

// NewDownloadRecord creates a record with a fresh UUID
func NewDownloadRecord(url string) *DownloadRecord {
	return &DownloadRecord{
		UUID: uuid.New().String(),
		URL:  url,
	}
}

// MarkCancelled records the request as a duplicate that was not downloaded
func (r *DownloadRecord) MarkCancelled() {
	r.Status = StatusCancelled
}

// MarkCompleted records the request as accepted
func (r *DownloadRecord) MarkCompleted() {
	r.Status = StatusCompleted
}

// ApplyDevice copies provenance fields onto the record
func (r *DownloadRecord) ApplyDevice(info DeviceInfo) {
	info = info.WithDefaults()
	r.DeviceID = info.DeviceID
	r.DeviceName = info.DeviceName
	r.MACAddress = info.MACAddress
	r.CurrentUser = info.CurrentUser
}

// DeviceInfo describes the machine that issued a request. It is provenance
// metadata only.
type DeviceInfo struct {
	DeviceID    string `json:"device_id"`
	DeviceName  string `json:"device_name"`
	CurrentUser string `json:"current_user"`
	MACAddress  string `json:"mac_address"`
}

// WithDefaults returns a copy where empty fields are set to UnknownValue
func (d DeviceInfo) WithDefaults() DeviceInfo {
	if d.DeviceID == "" {
		d.DeviceID = UnknownValue
	}
	if d.DeviceName == "" {
		d.DeviceName = UnknownValue
	}
	if d.CurrentUser == "" {
		d.CurrentUser = UnknownValue
	}
	if d.MACAddress == "" {
		d.MACAddress = UnknownValue
	}
	return d
}

// DownloadStats summarises the records with a given status
type DownloadStats struct {
	Status             DownloadStatus `json:"status"`
	Count              int64          `json:"count"`
	TotalContentLength int64          `json:"total_content_length"`
}

// StringPtr returns nil for the empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64Ptr returns a pointer to n
func Int64Ptr(n int64) *int64 {
	return &n
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
