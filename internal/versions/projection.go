package versions

import "github.com/JaimeStill/casefile/pkg/query"

var projection = query.NewProjectionMap("public", "document_versions", "v").
	Project("id", "ID").
	Project("case_id", "CaseID").
	Project("document_type", "DocumentType").
	Project("version_number", "Number").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("extension", "Extension").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("uploader", "Uploader").
	Project("notes", "Notes").
	Project("retention", "Retention").
	Project("verification", "Verification").
	Project("rejection_reason", "RejectionReason").
	Project("storage_key", "StorageKey").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var historyOrder = query.SortField{Field: "Number", Descending: true}

// returning lists the columns of a modified row in scanVersion order.
const returning = `RETURNING id, case_id, document_type, version_number, filename, content_type,
	extension, size_bytes, page_count, uploader, notes, retention, verification,
	rejection_reason, storage_key, created_at, updated_at`
