// Package versions implements document version control for case document
// slots: the version store adapter, the retention state machine, and the
// HTTP surface for uploads and history.
package versions

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var slotSegment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Slot identifies one required document type within a case.
type Slot struct {
	CaseID       string `json:"case_id"`
	DocumentType string `json:"document_type"`
}

func (s Slot) String() string {
	return s.CaseID + "/" + s.DocumentType
}

// Validate checks that both segments are present and path-safe.
func (s Slot) Validate() error {
	if err := ValidateCaseID(s.CaseID); err != nil {
		return err
	}
	return ValidateDocumentType(s.DocumentType)
}

// ValidateCaseID checks a case id on its own, for case-wide queries.
func ValidateCaseID(id string) error {
	if !slotSegment.MatchString(id) {
		return fmt.Errorf("%w: invalid case id %q", ErrValidation, id)
	}
	return nil
}

// ValidateDocumentType checks a document type segment.
func ValidateDocumentType(documentType string) error {
	if !slotSegment.MatchString(documentType) {
		return fmt.Errorf("%w: invalid document type %q", ErrValidation, documentType)
	}
	return nil
}

// Retention determines which version currently counts for a slot.
type Retention string

const (
	RetentionActive     Retention = "active"
	RetentionSuperseded Retention = "superseded"
	RetentionDeleted    Retention = "deleted"
)

func (r Retention) Validate() error {
	switch r {
	case RetentionActive, RetentionSuperseded, RetentionDeleted:
		return nil
	default:
		return fmt.Errorf("invalid retention status %q", string(r))
	}
}

// Verification is the reviewer judgment on a version's content. It moves
// independently of Retention.
type Verification string

const (
	VerificationPending  Verification = "pending"
	VerificationVerified Verification = "verified"
	VerificationRejected Verification = "rejected"
)

func (v Verification) Validate() error {
	switch v {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return nil
	default:
		return fmt.Errorf("invalid verification status %q", string(v))
	}
}

// Terminal reports whether no further verification transition is allowed.
func (v Verification) Terminal() bool {
	return v == VerificationVerified || v == VerificationRejected
}

// Version is one uploaded file instance within a slot's history.
type Version struct {
	ID              uuid.UUID    `json:"id"`
	Slot            Slot         `json:"slot"`
	Number          int          `json:"version_number"`
	Filename        string       `json:"filename"`
	ContentType     string       `json:"content_type"`
	Extension       string       `json:"extension"`
	SizeBytes       int64        `json:"size_bytes"`
	PageCount       *int         `json:"page_count,omitempty"`
	Uploader        string       `json:"uploader"`
	Notes           string       `json:"notes,omitempty"`
	Retention       Retention    `json:"retention"`
	Verification    Verification `json:"verification"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	StorageKey      string       `json:"-"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// FileMeta describes an uploaded file before it becomes a version.
type FileMeta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	PageCount   *int   `json:"page_count,omitempty"`
}

// UploadCommand requests a new version for Slot. Content must yield exactly
// File.SizeBytes bytes.
type UploadCommand struct {
	Slot     Slot
	File     FileMeta
	Notes    string
	Uploader string
	Content  io.Reader
}
