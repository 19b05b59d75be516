package versions

import (
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/docker/go-units"
)

// Policy is the type and size allow-list applied to every upload. Empty
// allow-lists admit any extension or content type.
type Policy struct {
	MaxSize             int64
	AllowedExtensions   []string
	AllowedContentTypes []string
}

// NewPolicy normalizes extensions and content types to lower case.
func NewPolicy(maxSize int64, extensions, contentTypes []string) Policy {
	p := Policy{MaxSize: maxSize}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.AllowedExtensions = append(p.AllowedExtensions, ext)
	}
	for _, ct := range contentTypes {
		if ct = strings.ToLower(strings.TrimSpace(ct)); ct != "" {
			p.AllowedContentTypes = append(p.AllowedContentTypes, ct)
		}
	}
	return p
}

// Check validates file metadata and returns the normalized extension.
func (p Policy) Check(meta FileMeta) (string, error) {
	name := strings.TrimSpace(meta.Filename)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: filename required", ErrValidation)
	}
	if meta.SizeBytes <= 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if strings.TrimSpace(meta.ContentType) == "" {
		return "", fmt.Errorf("%w: content type required", ErrValidation)
	}
	if p.MaxSize > 0 && meta.SizeBytes > p.MaxSize {
		return "", fmt.Errorf("%w: file size %s exceeds limit %s",
			ErrValidation, units.HumanSize(float64(meta.SizeBytes)), units.HumanSize(float64(p.MaxSize)))
	}

	ext := strings.ToLower(filepath.Ext(name))
	if len(p.AllowedExtensions) > 0 && !slices.Contains(p.AllowedExtensions, ext) {
		return "", fmt.Errorf("%w: extension %q not allowed", ErrValidation, ext)
	}

	mediaType, _, err := mime.ParseMediaType(meta.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: malformed content type %q", ErrValidation, meta.ContentType)
	}
	if len(p.AllowedContentTypes) > 0 && !slices.Contains(p.AllowedContentTypes, mediaType) {
		return "", fmt.Errorf("%w: content type %q not allowed", ErrValidation, mediaType)
	}

	return ext, nil
}
