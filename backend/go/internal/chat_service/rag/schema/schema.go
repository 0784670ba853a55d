package schema

import (
	"errors"
	"strings"
)

// ErrMalformedRecord reports a stored record without usable text.
var ErrMalformedRecord = errors.New("malformed record")

// Document is one scraped source page with its markup removed. It lives only
// for the duration of an ingestion run.
type Document struct {
	// URL the page was fetched from.
	URL string

	// Text is the page body with tags stripped.
	Text string
}

// Record is the payload stored next to each vector.
type Record struct {
	Text string `json:"text"`
}

// Validate rejects records whose text is empty or whitespace only.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrMalformedRecord
	}
	return nil
}

// StoredRecord is the unit written to the vector store.
type StoredRecord struct {
	Vector []float32
	Record
}
