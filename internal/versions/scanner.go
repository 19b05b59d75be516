package versions

import "github.com/JaimeStill/casefile/pkg/repository"

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	err := s.Scan(
		&v.ID,
		&v.Slot.CaseID,
		&v.Slot.DocumentType,
		&v.Number,
		&v.Filename,
		&v.ContentType,
		&v.Extension,
		&v.SizeBytes,
		&v.PageCount,
		&v.Uploader,
		&v.Notes,
		&v.Retention,
		&v.Verification,
		&v.RejectionReason,
		&v.StorageKey,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	return v, err
}
