package domain

// AttributeQuery narrows a filename lookup. Nil fields are left out of the query.
type AttributeQuery struct {
	Filename      string
	ContentLength *int64
	LastModified  *string
	ETag          *string
}

// DownloadRepository defines the interface for the decision log
type DownloadRepository interface {
	// Create inserts a new record
	Create(record *DownloadRecord) error

	// ExistsByIDHash reports whether a record with the given id_hash exists
	ExistsByIDHash(idHash string) (bool, error)

	// ExistsByAttributes reports whether a record matches every supplied attribute
	ExistsByAttributes(query AttributeQuery) (bool, error)

	// ExistsByProvenance reports whether a record with the exact url/referrer pair exists
	ExistsByProvenance(url, referrer string) (bool, error)

	// DeleteByPartialHash removes one record carrying the fingerprint
	DeleteByPartialHash(partialHash string) (bool, error)

	// FindAll returns every record, newest first
	FindAll() ([]*DownloadRecord, error)

	// GetStats returns count and summed content length for a status
	GetStats(status DownloadStatus) (*DownloadStats, error)
}
