package model

import (
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// Source identifies which regulator published a document.
type Source string

const (
	SourceFinCEN          Source = "fincen"
	SourceSEC             Source = "sec"
	SourceFederalRegister Source = "federal_register"
	SourceCFTC            Source = "cftc"
	SourceNYDFS           Source = "nydfs"
	SourceOFAC            Source = "ofac"
)

// AllSources returns every supported document source.
func AllSources() []Source {
	return []Source{
		SourceFinCEN,
		SourceSEC,
		SourceFederalRegister,
		SourceCFTC,
		SourceNYDFS,
		SourceOFAC,
	}
}

// ValidSource reports whether s names a supported source.
func ValidSource(s Source) bool {
	for _, known := range AllSources() {
		if s == known {
			return true
		}
	}
	return false
}

// Document is a regulatory document ingested from an external source.
// Identity is (Source, DocumentID); a document is immutable once stored.
type Document struct {
	ID            string         `json:"id"`
	Source        Source         `json:"source"`
	DocumentID    string         `json:"document_id"`
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	Content       string         `json:"content,omitempty"`
	PublishedDate *time.Time     `json:"published_date,omitempty"`
	IngestedAt    time.Time      `json:"ingested_at"`
	ContentHash   string         `json:"content_hash,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Validate checks required fields and the content hash format.
func (d *Document) Validate() error {
	if !ValidSource(d.Source) {
		return eris.Errorf("model: unknown source %q", d.Source)
	}
	if d.DocumentID == "" {
		return eris.New("model: document_id is required")
	}
	if d.Title == "" {
		return eris.New("model: title is required")
	}
	if d.ContentHash != "" && !sha256Pattern.MatchString(d.ContentHash) {
		return eris.New("model: content_hash must be lowercase hex SHA-256 (64 chars)")
	}
	return nil
}
