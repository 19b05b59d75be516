package versions

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const sniffLen = 512

// containerTypes resolves formats that sniff as a generic archive. Go's
// built-in mime table has no entries for them.
var containerTypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
}

// TypeByExtension returns the content type registered for filename's
// extension, or "" when none is known.
func TypeByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	if ct, ok := containerTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// Inspect resolves the content type of f, falling back to content sniffing
// when declared is empty or generic, and counts pages for PDFs. Archives
// are narrowed by filename extension. f is rewound before returning.
func Inspect(f io.ReadSeeker, filename, declared string) (string, *int, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read file header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", nil, fmt.Errorf("rewind file: %w", err)
	}

	contentType := detectContentType(filename, declared, head[:n])
	if !strings.HasPrefix(contentType, "application/pdf") {
		return contentType, nil, nil
	}

	count, err := api.PageCount(f, model.NewDefaultConfiguration())
	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		return "", nil, fmt.Errorf("rewind file: %w", seekErr)
	}
	if err != nil {
		return contentType, nil, fmt.Errorf("count pdf pages: %w", err)
	}
	return contentType, &count, nil
}

func detectContentType(filename, declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" && declared != "application/zip" {
		return declared
	}

	sniffed := http.DetectContentType(data)
	switch sniffed {
	case "application/zip", "application/octet-stream":
		if ct, ok := containerTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			return ct
		}
	}
	return sniffed
}
