package storage_test

import (
	"testing"

	"github.com/jobscout/jobscout/internal/storage"
)

func TestResumeRule(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{name: "pdf_ok", filename: "resume.pdf", size: 1 << 20},
		{name: "docx_ok", filename: "resume.docx", size: 1 << 20},
		{name: "uppercase_ext_ok", filename: "RESUME.PDF", size: 1 << 20},
		{name: "too_big", filename: "resume.pdf", size: 11 << 20, wantErr: true},
		{name: "empty", filename: "resume.pdf", size: 0, wantErr: true},
		{name: "executable", filename: "resume.exe", size: 100, wantErr: true},
		{name: "no_extension", filename: "resume", size: 100, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			err := storage.ResumeRule.Check(tt.filename, tt.size)

			if tt.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestProfilePictureRule(t *testing.T) {
	if err := storage.ProfilePictureRule.Check("me.png", 1<<20); err != nil {
		t.Errorf("png rejected: %v", err)
	}
	if err := storage.ProfilePictureRule.Check("me.pdf", 1<<20); err == nil {
		t.Error("pdf accepted as a profile picture")
	}
	if err := storage.ProfilePictureRule.Check("me.png", 6<<20); err == nil {
		t.Error("oversized picture accepted")
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "a.pdf", want: "application/pdf"},
		{filename: "a.txt", want: "text/plain"},
		{filename: "a.JPG", want: "image/jpeg"},
		{filename: "a.bin", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := storage.ContentType(tt.filename); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
