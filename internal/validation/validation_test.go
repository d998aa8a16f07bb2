package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"chapter file", "RM1.html", nil},
		{"unicode", "Ῥωμαίους1.html", nil},
		{"empty", "", ErrInvalidFilename},
		{"dot", ".", ErrInvalidFilename},
		{"dotdot", "..", ErrInvalidFilename},
		{"slash", "../RM1.html", ErrInvalidFilename},
		{"backslash", `a\b.html`, ErrInvalidFilename},
		{"null byte", "RM\x001.html", ErrInvalidFilename},
		{"newline", "RM\n1.html", ErrInvalidFilename},
		{"hyphen", "-rf.html", ErrInvalidFilename},
		{"too long", strings.Repeat("a", MaxFilenameLength+1), ErrFilenameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFilename(%q) error = %v", tt.filename, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFilename(%q) error = %v, want %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"relative", "out/udb", nil},
		{"absolute", "/srv/texts/udb", nil},
		{"empty", "", ErrEmptyPath},
		{"control", "out\tudb", ErrInvalidCharacter},
		{"null byte", "out\x00", ErrInvalidCharacter},
		{"too long", strings.Repeat("a/", MaxPathLength), ErrPathTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePath(%q) error = %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePath(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
