package storage

import (
	"path/filepath"
	"strings"

	"github.com/jobscout/jobscout/internal/apperrors"
)

// FileRule describes what a given upload slot accepts.
type FileRule struct {
	MaxBytes   int64
	Extensions []string
}

var (
	// ResumeRule covers applicant resumes.
	ResumeRule = FileRule{
		MaxBytes:   10 << 20,
		Extensions: []string{".pdf", ".docx", ".txt"},
	}

	// ProfilePictureRule covers account avatars.
	ProfilePictureRule = FileRule{
		MaxBytes:   5 << 20,
		Extensions: []string{".jpg", ".jpeg", ".png"},
	}
)

// Check validates a candidate upload against the rule. Extension matching is
// case-insensitive.
func (r FileRule) Check(filename string, size int64) error {
	if size <= 0 {
		return apperrors.Validation("uploaded file is empty")
	}
	if size > r.MaxBytes {
		return apperrors.Validation("uploaded file exceeds the size limit")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range r.Extensions {
		if ext == allowed {
			return nil
		}
	}

	return apperrors.Validation("unsupported file type " + ext)
}

// ContentType maps a filename extension to the content type stored alongside
// the object.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
